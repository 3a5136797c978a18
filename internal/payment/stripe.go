package payment

import (
	"encoding/json"
	"net/url"
	"strings"

	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
	"github.com/shipfire/payflow/internal/domain/model"
)

// stripeEvent mirrors the session-based provider's webhook envelope.
type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object stripeSession `json:"object"`
	} `json:"data"`
}

type stripeSession struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerEmail     string `json:"customer_email"`
	CustomerDetails   struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

func parseStripeWebhook(body []byte) (*model.PaymentConfirmation, error) {
	var event stripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, domainErrors.ErrMalformedPayload
	}
	if event.Type == "" {
		return nil, domainErrors.ErrMalformedPayload
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
	default:
		return nil, domainErrors.ErrIgnoredEvent
	}

	session := event.Data.Object
	if session.ID == "" {
		return nil, domainErrors.ErrMalformedPayload
	}

	email := session.CustomerDetails.Email
	if email == "" {
		email = session.CustomerEmail
	}

	return &model.PaymentConfirmation{
		Provider:   model.ProviderStripe,
		OrderNo:    stripeOrderNo(session),
		PayerEmail: email,
		Amount:     session.AmountTotal,
		Currency:   strings.ToLower(session.Currency),
		RawDetail:  string(body),
		Source:     model.SourceWebhook,
	}, nil
}

// stripeOrderNo resolves the order identifier: provider metadata first,
// then the client reference the checkout session was created with.
func stripeOrderNo(session stripeSession) string {
	if no := session.Metadata["order_no"]; no != "" {
		return no
	}
	return session.ClientReferenceID
}

func parseStripeRedirect(values url.Values) *model.PaymentConfirmation {
	detail, _ := json.Marshal(map[string]string{
		"order_no":   values.Get("order_no"),
		"session_id": values.Get("session_id"),
	})

	return &model.PaymentConfirmation{
		Provider:   model.ProviderStripe,
		OrderNo:    values.Get("order_no"),
		PayerEmail: values.Get("email"),
		RawDetail:  string(detail),
		Source:     model.SourceRedirect,
	}
}
