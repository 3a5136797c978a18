package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNewHMACTokensDefaultTTL(t *testing.T) {
	tokens := NewHMACTokens("secret", 0)
	if tokens.ttl != 24*time.Hour {
		t.Fatalf("unexpected ttl: %s", tokens.ttl)
	}

	tokens = NewHMACTokens("secret", 2*time.Hour)
	if tokens.ttl != 2*time.Hour {
		t.Fatalf("unexpected ttl: %s", tokens.ttl)
	}
}

func TestHMACTokensIssueAndParse(t *testing.T) {
	tokens := NewHMACTokens("secret", time.Minute)
	token, err := tokens.IssueToken(42)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	userID, err := tokens.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if userID != 42 {
		t.Fatalf("unexpected user id: %d", userID)
	}
}

func TestHMACTokensParseInvalidBase64(t *testing.T) {
	tokens := NewHMACTokens("secret", 0)
	if _, err := tokens.ParseToken("not-base64"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACTokensParseInvalidParts(t *testing.T) {
	tokens := NewHMACTokens("secret", 0)
	token := base64.StdEncoding.EncodeToString([]byte("only:two"))
	if _, err := tokens.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACTokensParseInvalidSignature(t *testing.T) {
	tokens := NewHMACTokens("secret", time.Minute)
	payload := fmt.Sprintf("42:%d", time.Now().Add(time.Minute).Unix())
	forged := base64.StdEncoding.EncodeToString([]byte(payload + ":bogus"))
	if _, err := tokens.ParseToken(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACTokensParseWrongSecret(t *testing.T) {
	issued, err := NewHMACTokens("one", time.Minute).IssueToken(7)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := NewHMACTokens("two", time.Minute).ParseToken(issued); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACTokensParseExpired(t *testing.T) {
	tokens := NewHMACTokens("secret", time.Minute)
	payload := fmt.Sprintf("42:%d", time.Now().Add(-time.Minute).Unix())
	expired := base64.StdEncoding.EncodeToString([]byte(payload + ":" + tokens.sign(payload)))
	if _, err := tokens.ParseToken(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACTokensParseNonNumericUser(t *testing.T) {
	tokens := NewHMACTokens("secret", time.Minute)
	payload := fmt.Sprintf("abc:%d", time.Now().Add(time.Minute).Unix())
	token := base64.StdEncoding.EncodeToString([]byte(payload + ":" + tokens.sign(payload)))
	if _, err := tokens.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if !strings.Contains(ErrInvalidToken.Error(), "invalid") {
		t.Fatalf("unexpected sentinel message %q", ErrInvalidToken.Error())
	}
}
