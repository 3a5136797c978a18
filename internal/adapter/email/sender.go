package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/shipfire/payflow/internal/domain/model"
)

// HTTPSender delivers transactional mail through an HTTP email API.
type HTTPSender struct {
	baseURL    *url.URL
	apiKey     string
	from       string
	httpClient *http.Client
	logger     *slog.Logger
}

// message mirrors the JSON payload of the email API.
type message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// NewHTTPSender creates an email sender with default timeout.
func NewHTTPSender(baseURL, apiKey, from string, logger *slog.Logger) (*HTTPSender, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse email api url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("email api url must be absolute")
	}
	if from == "" {
		from = "no-reply@payflow.dev"
	}
	return &HTTPSender{
		baseURL: parsed,
		apiKey:  apiKey,
		from:    from,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// SendOrderConfirmation emails the purchase receipt for a paid order.
func (s *HTTPSender) SendOrderConfirmation(ctx context.Context, order *model.Order) error {
	to := order.BestEmail()
	if to == "" {
		return fmt.Errorf("order %s has no recipient email", order.OrderNo)
	}

	payload, err := json.Marshal(message{
		From:    s.from,
		To:      []string{to},
		Subject: "Your order is confirmed",
		HTML:    confirmationBody(order),
	})
	if err != nil {
		return err
	}

	endpoint := *s.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/emails")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email api error: %s: %s", resp.Status, string(body))
	}

	s.logger.Info("confirmation email sent", slog.String("order", order.OrderNo), slog.String("to", to))
	return nil
}

func confirmationBody(order *model.Order) string {
	var b strings.Builder
	b.WriteString("<p>Thanks for your purchase!</p>")
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong>: %s</p>", order.OrderNo, formatAmount(order.Amount, order.Currency))
	if order.Credits > 0 {
		fmt.Fprintf(&b, "<p>%d credits have been added to your account.</p>", order.Credits)
	}
	return b.String()
}

func formatAmount(minorUnits int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(minorUnits)/100, strings.ToUpper(currency))
}

// NoopSender is used when no email API is configured. It records the
// would-be delivery in the log and succeeds.
type NoopSender struct {
	logger *slog.Logger
}

// NewNoopSender constructs NoopSender.
func NewNoopSender(logger *slog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

// SendOrderConfirmation logs the skipped delivery.
func (s *NoopSender) SendOrderConfirmation(_ context.Context, order *model.Order) error {
	s.logger.Info("email delivery disabled, skipping confirmation",
		slog.String("order", order.OrderNo), slog.String("to", order.BestEmail()))
	return nil
}
