package payment

import (
	"encoding/json"
	"net/url"
	"strings"

	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
	"github.com/shipfire/payflow/internal/domain/model"
)

// creemEvent mirrors the query-param provider's webhook envelope. The
// provider has shipped several envelope variants; the event type lives
// in "eventType" on current payloads with "type" seen on older ones.
type creemEvent struct {
	Type      string      `json:"type"`
	EventType string      `json:"eventType"`
	Status    string      `json:"status"`
	Object    creemObject `json:"object"`
}

type creemObject struct {
	ID        string            `json:"id"`
	RequestID string            `json:"request_id"`
	Metadata  map[string]string `json:"metadata"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
	Order creemOrder `json:"order"`
}

type creemOrder struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

func parseCreemWebhook(body []byte) (*model.PaymentConfirmation, error) {
	var event creemEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, domainErrors.ErrMalformedPayload
	}

	eventType := event.EventType
	if eventType == "" {
		eventType = event.Type
	}
	if eventType == "" {
		// Older payloads carry only a status field.
		switch strings.ToLower(event.Status) {
		case "paid", "succeeded", "completed":
			eventType = "payment.succeeded"
		case "":
			return nil, domainErrors.ErrMalformedPayload
		default:
			return nil, domainErrors.ErrIgnoredEvent
		}
	}

	switch eventType {
	case "checkout.completed", "payment.succeeded":
	default:
		return nil, domainErrors.ErrIgnoredEvent
	}

	return &model.PaymentConfirmation{
		Provider:   model.ProviderCreem,
		OrderNo:    creemOrderNo(event.Object),
		PayerEmail: event.Object.Customer.Email,
		Amount:     event.Object.Order.Amount,
		Currency:   strings.ToLower(event.Object.Order.Currency),
		RawDetail:  string(body),
		Source:     model.SourceWebhook,
	}, nil
}

// creemOrderNo resolves the order identifier: checkout metadata first,
// then order metadata, then the request tag the checkout was created
// with.
func creemOrderNo(obj creemObject) string {
	if no := obj.Metadata["order_no"]; no != "" {
		return no
	}
	if no := obj.Order.Metadata["order_no"]; no != "" {
		return no
	}
	return obj.RequestID
}

func parseCreemRedirect(values url.Values) *model.PaymentConfirmation {
	// The request tag set at checkout creation comes back as
	// request_id; the direct-link flow passes order_no instead.
	orderNo := values.Get("request_id")
	if orderNo == "" {
		orderNo = values.Get("order_no")
	}

	detail, _ := json.Marshal(map[string]string{
		"request_id":  values.Get("request_id"),
		"order_no":    values.Get("order_no"),
		"checkout_id": values.Get("checkout_id"),
		"order_id":    values.Get("order_id"),
		"customer_id": values.Get("customer_id"),
		"product_id":  values.Get("product_id"),
		"signature":   values.Get("signature"),
	})

	return &model.PaymentConfirmation{
		Provider:   model.ProviderCreem,
		OrderNo:    orderNo,
		PayerEmail: values.Get("email"),
		RawDetail:  string(detail),
		Source:     model.SourceRedirect,
	}
}
