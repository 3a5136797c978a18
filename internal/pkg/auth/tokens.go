package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidToken = errors.New("invalid auth token")

// TokenStrategy issues and validates session tokens for user accounts.
type TokenStrategy interface {
	IssueToken(userID int64) (string, error)
	ParseToken(token string) (int64, error)
}

// HMACTokens implements TokenStrategy with HMAC-SHA256 signed tokens.
type HMACTokens struct {
	secret []byte
	ttl    time.Duration
}

// NewHMACTokens builds an HMACTokens strategy. A non-positive ttl falls
// back to 24 hours.
func NewHMACTokens(secret string, ttl time.Duration) *HMACTokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &HMACTokens{secret: []byte(secret), ttl: ttl}
}

// IssueToken generates a signed token for the user.
func (s *HMACTokens) IssueToken(userID int64) (string, error) {
	expires := time.Now().Add(s.ttl).Unix()
	payload := fmt.Sprintf("%d:%d", userID, expires)
	token := fmt.Sprintf("%s:%s", payload, s.sign(payload))
	return base64.StdEncoding.EncodeToString([]byte(token)), nil
}

// ParseToken validates the token and returns the encoded user ID.
func (s *HMACTokens) ParseToken(token string) (int64, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 {
		return 0, ErrInvalidToken
	}

	payload := strings.Join(parts[:2], ":")
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[2])) {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}

	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}

	if time.Unix(expires, 0).Before(time.Now()) {
		return 0, ErrInvalidToken
	}

	return userID, nil
}

func (s *HMACTokens) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
