// Package bkash integrates the tokenized-checkout wallet gateway. Every call
// rides on a bearer token from the TokenCache; payment outcomes come back
// through a redirect callback that must be confirmed with an execute call.
package bkash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dipanjanswapna/averzotech-sub001/internal/cache"
	"github.com/dipanjanswapna/averzotech-sub001/internal/domain"
	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway"
	"github.com/google/uuid"
)

const (
	statusCodeOK = "0000"

	// TransactionCompleted is the execute/refund status that counts as paid.
	TransactionCompleted = "Completed"

	requestTimeout = 30 * time.Second
)

type Config struct {
	BaseURL   string
	AppKey    string
	AppSecret string
	Username  string
	Password  string

	// AppURL is the public base URL of this service, used to build the
	// execute callback URL handed to the provider.
	AppURL string
}

type Client struct {
	cfg    Config
	http   *http.Client
	tokens *TokenCache
}

func NewClient(cfg Config, store cache.TokenStore) (*Client, error) {
	if cfg.AppKey == "" || cfg.AppSecret == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("bkash: app credentials are not configured")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("bkash: base URL is not configured")
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		tokens: NewTokenCache(cfg, store, httpClient),
	}, nil
}

type createResponse struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	PaymentID     string `json:"paymentID"`
	BkashURL      string `json:"bkashURL"`
}

// ExecuteResponse is the provider's confirmation of a completed (or failed)
// hosted payment. It is attached verbatim to the settled order.
type ExecuteResponse struct {
	StatusCode        string `json:"statusCode"`
	StatusMessage     string `json:"statusMessage"`
	PaymentID         string `json:"paymentID"`
	TrxID             string `json:"trxID"`
	TransactionStatus string `json:"transactionStatus"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	CustomerMsisdn    string `json:"customerMsisdn"`
	PaymentExecuteTme string `json:"paymentExecuteTime"`
}

type RefundRequest struct {
	PaymentID string `json:"paymentID"`
	Amount    string `json:"amount"`
	TrxID     string `json:"trxID"`
	SKU       string `json:"sku"`
	Reason    string `json:"reason"`
}

type RefundResponse struct {
	StatusCode        string `json:"statusCode"`
	StatusMessage     string `json:"statusMessage"`
	OriginalTrxID     string `json:"originalTrxID"`
	RefundTrxID       string `json:"refundTrxID"`
	TransactionStatus string `json:"transactionStatus"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	CompletedTime     string `json:"completedTime"`
}

// CreatePayment opens a payment session with the provider and returns the
// provider-assigned payment id (the transaction identifier for this flow)
// plus the hosted URL the buyer must be redirected to.
func (c *Client) CreatePayment(ctx context.Context, pending *domain.PendingOrder) (string, string, error) {
	body := map[string]string{
		"mode":                  "0011",
		"payerReference":        pending.Shipping.Phone,
		"callbackURL":           c.cfg.AppURL + "/payment/bkash/callback",
		"amount":                fmt.Sprintf("%.2f", pending.Totals.Total),
		"currency":              "BDT",
		"intent":                "sale",
		"merchantInvoiceNumber": invoiceNumber(),
	}

	var cr createResponse
	if err := c.post(ctx, "/tokenized/checkout/create", body, &cr); err != nil {
		return "", "", err
	}

	if cr.StatusCode != statusCodeOK || cr.PaymentID == "" || cr.BkashURL == "" {
		reason := cr.StatusMessage
		if reason == "" {
			reason = "provider returned no payment session"
		}
		return "", "", &gateway.Error{Provider: "bkash", Reason: reason}
	}

	return cr.PaymentID, cr.BkashURL, nil
}

// ExecutePayment confirms a hosted payment after the provider redirects the
// buyer back. Callers must check TransactionStatus; anything other than
// Completed is not a paid order.
func (c *Client) ExecutePayment(ctx context.Context, paymentID string) (*ExecuteResponse, error) {
	var er ExecuteResponse
	err := c.post(ctx, "/tokenized/checkout/execute", map[string]string{"paymentID": paymentID}, &er)
	if err != nil {
		return nil, err
	}

	if er.StatusCode != statusCodeOK {
		reason := er.StatusMessage
		if reason == "" {
			reason = "payment execution rejected"
		}
		return nil, &gateway.Error{Provider: "bkash", Reason: reason}
	}

	return &er, nil
}

func (c *Client) Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error) {
	var rr RefundResponse
	if err := c.post(ctx, "/tokenized/checkout/payment/refund", req, &rr); err != nil {
		return nil, err
	}

	if rr.StatusCode != statusCodeOK {
		reason := rr.StatusMessage
		if reason == "" {
			reason = "refund rejected"
		}
		return nil, &gateway.Error{Provider: "bkash", Reason: reason}
	}

	return &rr, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("bkash: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("bkash: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("X-App-Key", c.cfg.AppKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &gateway.Error{Provider: "bkash", Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &gateway.Error{Provider: "bkash", Reason: "unreadable response", Err: err}
	}

	return nil
}

func invoiceNumber() string {
	return "INV-" + uuid.NewString()[:8]
}
