package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
)

// VerifySignature checks an HMAC-SHA256 hex signature computed over the
// raw request body. The header value may carry an algorithm prefix
// ("sha256=<hex>"). Comparison is constant-time.
func VerifySignature(body []byte, header, secret string) error {
	if header == "" || secret == "" {
		return domainErrors.ErrInvalidSignature
	}

	sig := strings.TrimSpace(header)
	if i := strings.IndexByte(sig, '='); i >= 0 {
		sig = strings.TrimSpace(sig[i+1:])
	}

	supplied, err := hex.DecodeString(sig)
	if err != nil {
		return domainErrors.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(supplied, mac.Sum(nil)) {
		return domainErrors.ErrInvalidSignature
	}
	return nil
}
