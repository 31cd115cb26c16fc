// Package razorpay adapts the Razorpay Orders API to the payments core.
// Amounts cross this boundary in major units (rupees) and are converted to
// minor units (paise) here; nothing inside the core deals in paise.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.razorpay.com/v1"
	responseBodyReadLimit int64 = 1024
)

var (
	errKeyRequired = errors.New("razorpay key id and secret are required")

	minorUnitsPerRupee = decimal.NewFromInt(100)
)

// Client wraps the Razorpay Orders API used during checkout.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithWebhookSecret sets the secret used to authenticate webhook payloads.
func WithWebhookSecret(secret string) Option {
	return func(c *Client) {
		c.webhookSecret = strings.TrimSpace(secret)
	}
}

// NewClient builds the Razorpay client given API credentials.
func NewClient(keyID, keySecret string, opts ...Option) (*Client, error) {
	trimmedID := strings.TrimSpace(keyID)
	trimmedSecret := strings.TrimSpace(keySecret)
	if trimmedID == "" || trimmedSecret == "" {
		return nil, errKeyRequired
	}

	client := &Client{
		keyID:      trimmedID,
		keySecret:  trimmedSecret,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// KeySecret exposes the signing secret for payment signature checks.
func (c *Client) KeySecret() string {
	return c.keySecret
}

// WebhookSecret exposes the secret guarding webhook payloads.
func (c *Client) WebhookSecret() string {
	return c.webhookSecret
}

// CreateOrderRequest describes the order registered with the gateway before
// the customer is handed off to pay.
type CreateOrderRequest struct {
	Amount   decimal.Decimal
	Currency string
	Receipt  string
}

// GatewayOrder is the normalized response from the Orders API.
type GatewayOrder struct {
	ID               string
	AmountMinorUnits int64
	Currency         string
	Receipt          string
}

// CreateOrder registers an order with the gateway and returns its id.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay client not configured")
	}
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "gateway order amount must be positive")
	}
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = "INR"
	}

	payload, err := json.Marshal(map[string]any{
		"amount":   req.Amount.Mul(minorUnitsPerRupee).IntPart(),
		"currency": currency,
		"receipt":  req.Receipt,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal order request")
	}

	url := fmt.Sprintf("%s/orders", strings.TrimRight(c.baseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build order request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute order request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "order request failed")
	}

	var apiResp struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order response")
	}

	return &GatewayOrder{
		ID:               apiResp.ID,
		AmountMinorUnits: apiResp.Amount,
		Currency:         apiResp.Currency,
		Receipt:          apiResp.Receipt,
	}, nil
}
