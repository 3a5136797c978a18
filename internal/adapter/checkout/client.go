package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"
)

// ErrSessionNotFound indicates the provider doesn't know the session.
var ErrSessionNotFound = errors.New("checkout session not found")

// TooManyRequestsError represents rate limiting signal from the provider API.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Session is the provider's view of a checkout session.
type Session struct {
	ID            string
	Status        string
	PaymentStatus string
	CustomerEmail string
	AmountTotal   int64
	Currency      string
	OrderNo       string
}

// Paid reports whether the provider settled the session.
func (s *Session) Paid() bool {
	return s.PaymentStatus == "paid" || s.PaymentStatus == "no_payment_required"
}

// Client exposes operations to query checkout session state.
type Client interface {
	FetchSession(ctx context.Context, sessionID string) (*Session, error)
}

// HTTPClient implements Client via the provider HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// response mirrors the session payload of the provider API.
type response struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"payment_status"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// NewHTTPClient creates a session client with default timeout.
func NewHTTPClient(baseURL, apiKey string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse checkout api url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("checkout api url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// FetchSession queries the provider for current session state.
func (c *HTTPClient) FetchSession(ctx context.Context, sessionID string) (*Session, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/v1/checkout/sessions/", sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var data response
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, err
		}
		return &Session{
			ID:            data.ID,
			Status:        data.Status,
			PaymentStatus: data.PaymentStatus,
			CustomerEmail: sessionEmail(data),
			AmountTotal:   data.AmountTotal,
			Currency:      data.Currency,
			OrderNo:       sessionOrderNo(data),
		}, nil
	case http.StatusNotFound:
		return nil, ErrSessionNotFound
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, TooManyRequestsError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("checkout session request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return nil, fmt.Errorf("checkout api error: %s", resp.Status)
	}
}

func sessionEmail(data response) string {
	if data.CustomerDetails.Email != "" {
		return data.CustomerDetails.Email
	}
	return data.CustomerEmail
}

func sessionOrderNo(data response) string {
	if no := data.Metadata["order_no"]; no != "" {
		return no
	}
	return data.ClientReferenceID
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
