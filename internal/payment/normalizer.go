// Package payment converts provider-specific confirmation payloads into
// the canonical PaymentConfirmation consumed by the reconciler. It is a
// pure transformation layer: no storage access, no side effects.
package payment

import (
	"net/url"

	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
	"github.com/shipfire/payflow/internal/domain/model"
)

// ParseWebhook verifies the signature over the raw body and normalizes
// the payload. Verification happens before any part of the payload is
// interpreted; an unverifiable event is rejected outright with
// ErrInvalidSignature.
func ParseWebhook(provider model.PaymentProvider, body []byte, signatureHeader, secret string) (*model.PaymentConfirmation, error) {
	if err := VerifySignature(body, signatureHeader, secret); err != nil {
		return nil, err
	}

	switch provider {
	case model.ProviderStripe:
		return parseStripeWebhook(body)
	case model.ProviderCreem:
		return parseCreemWebhook(body)
	default:
		return nil, domainErrors.ErrMalformedPayload
	}
}

// ParseRedirect normalizes success-page query parameters. The redirect
// channel cannot be authenticated, so the confirmation is marked
// low-trust; it still drives the same idempotent transition because
// providers do not deliver webhooks reliably in sandbox configurations.
func ParseRedirect(provider model.PaymentProvider, values url.Values) (*model.PaymentConfirmation, error) {
	switch provider {
	case model.ProviderStripe:
		return parseStripeRedirect(values), nil
	case model.ProviderCreem:
		return parseCreemRedirect(values), nil
	default:
		return nil, domainErrors.ErrMalformedPayload
	}
}
