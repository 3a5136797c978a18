package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
	"github.com/shipfire/payflow/internal/domain/model"
)

// maxWebhookBody caps webhook payload size.
const maxWebhookBody = 1 << 20

// signatureHeaders maps providers to the header carrying the payload signature.
var signatureHeaders = map[model.PaymentProvider]string{
	model.ProviderStripe: "Stripe-Signature",
	model.ProviderCreem:  "Creem-Signature",
}

// PaymentHandler processes provider callbacks: signed webhooks and
// unauthenticated success redirects.
type PaymentHandler struct {
	facade     PaymentFacade
	successURL string
	logger     *slog.Logger
}

// NewPaymentHandler creates PaymentHandler instance.
func NewPaymentHandler(facade PaymentFacade, successURL string, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{facade: facade, successURL: successURL, logger: logger}
}

// Webhook returns a handler for POST /api/webhooks/:provider payloads.
func (h *PaymentHandler) Webhook(provider model.PaymentProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		signature := c.GetHeader(signatureHeaders[provider])
		result, err := h.facade.ConfirmWebhook(c.Request.Context(), provider, body, signature)
		if err != nil {
			c.Status(h.webhookStatus(provider, err))
			return
		}

		if result.AlreadyProcessed {
			h.logger.Info("webhook replay acknowledged",
				slog.String("provider", string(provider)),
				slog.String("order", result.Order.OrderNo))
		}
		c.Status(http.StatusOK)
	}
}

// webhookStatus maps confirmation errors to provider-facing statuses.
// Retryable conditions get 5xx so the provider redelivers; everything
// the provider cannot fix by retrying is acknowledged or rejected.
func (h *PaymentHandler) webhookStatus(provider model.PaymentProvider, err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrInvalidSignature),
		errors.Is(err, domainErrors.ErrMalformedPayload):
		return http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrIgnoredEvent):
		return http.StatusOK
	case errors.Is(err, domainErrors.ErrInvalidOrderState):
		h.logger.Warn("confirmation for unpayable order",
			slog.String("provider", string(provider)), slog.String("error", err.Error()))
		return http.StatusOK
	case errors.Is(err, domainErrors.ErrNotFound):
		// The order row may not be committed yet; let the provider retry.
		h.logger.Warn("confirmation matched no order", slog.String("provider", string(provider)))
		return http.StatusInternalServerError
	default:
		h.logger.Error("webhook processing failed",
			slog.String("provider", string(provider)), slog.String("error", err.Error()))
		return http.StatusInternalServerError
	}
}

// Success returns a handler for GET /pay/success/:provider redirects.
// The browser is always sent on to the success page; the confirmation
// is best effort because the webhook remains the authoritative channel.
func (h *PaymentHandler) Success(provider model.PaymentProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := h.facade.ConfirmRedirect(c.Request.Context(), provider, c.Request.URL.Query()); err != nil {
			h.logger.Warn("success redirect could not confirm payment",
				slog.String("provider", string(provider)), slog.String("error", err.Error()))
		}
		c.Redirect(http.StatusFound, h.successURL)
	}
}
