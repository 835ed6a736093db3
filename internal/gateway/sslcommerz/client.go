// Package sslcommerz integrates the hosted-checkout card/mobile-banking
// gateway. The provider takes a form-encoded session request and sends the
// buyer to a hosted page; outcomes come back through browser callbacks and a
// server-to-server IPN, both handled elsewhere.
package sslcommerz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dipanjanswapna/averzotech-sub001/internal/domain"
	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway"
)

const (
	sandboxAPIURL = "https://sandbox.sslcommerz.com/gwprocess/v4/api.php"
	liveAPIURL    = "https://securepay.sslcommerz.com/gwprocess/v4/api.php"

	requestTimeout = 30 * time.Second
)

// IPN / callback status values reported by the provider.
const (
	StatusValid     = "VALID"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

type Config struct {
	StoreID     string
	StorePasswd string
	Sandbox     bool

	// AppURL is the public base URL of this service, used to build the
	// success/fail/cancel/IPN callback URLs the provider will hit.
	AppURL string

	// APIURL overrides the provider endpoint (tests).
	APIURL string
}

type Client struct {
	cfg    Config
	apiURL string
	http   *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.StoreID == "" || cfg.StorePasswd == "" {
		return nil, fmt.Errorf("sslcommerz: store credentials are not configured")
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		if cfg.Sandbox {
			apiURL = sandboxAPIURL
		} else {
			apiURL = liveAPIURL
		}
	}

	return &Client{
		cfg:    cfg,
		apiURL: apiURL,
		http:   &http.Client{Timeout: requestTimeout},
	}, nil
}

type sessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// CreateSession registers the pending order with the provider and returns the
// hosted checkout URL the buyer must be redirected to.
func (c *Client) CreateSession(ctx context.Context, pending *domain.PendingOrder) (string, error) {
	form := url.Values{}
	form.Set("store_id", c.cfg.StoreID)
	form.Set("store_passwd", c.cfg.StorePasswd)
	form.Set("tran_id", pending.TranID)
	form.Set("total_amount", fmt.Sprintf("%.2f", pending.Totals.Total))
	form.Set("currency", "BDT")

	form.Set("success_url", c.cfg.AppURL+"/payment/success")
	form.Set("fail_url", c.cfg.AppURL+"/payment/fail")
	form.Set("cancel_url", c.cfg.AppURL+"/payment/cancel")
	form.Set("ipn_url", c.cfg.AppURL+"/payment/ipn")

	form.Set("cus_name", pending.Shipping.Name)
	form.Set("cus_email", pending.Shipping.Email)
	form.Set("cus_phone", pending.Shipping.Phone)
	form.Set("cus_add1", pending.Shipping.FullAddress)
	form.Set("cus_city", pending.Shipping.District)
	form.Set("cus_country", "Bangladesh")

	form.Set("shipping_method", "Courier")
	form.Set("ship_name", pending.Shipping.Name)
	form.Set("ship_add1", pending.Shipping.FullAddress)
	form.Set("ship_city", pending.Shipping.District)
	form.Set("ship_country", "Bangladesh")

	form.Set("num_of_item", fmt.Sprint(len(pending.Items)))
	form.Set("product_name", productSummary(pending.Items))
	form.Set("product_category", "general")
	form.Set("product_profile", "general")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("sslcommerz: build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &gateway.Error{Provider: "sslcommerz", Reason: "session request failed", Err: err}
	}
	defer resp.Body.Close()

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", &gateway.Error{Provider: "sslcommerz", Reason: "unreadable session response", Err: err}
	}

	if session.Status != "SUCCESS" || session.GatewayPageURL == "" {
		reason := session.FailedReason
		if reason == "" {
			reason = "provider returned no gateway URL"
		}
		return "", &gateway.Error{Provider: "sslcommerz", Reason: reason}
	}

	return session.GatewayPageURL, nil
}

func productSummary(items []domain.OrderLine) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	summary := strings.Join(names, ", ")
	if len(summary) > 255 {
		summary = summary[:255]
	}
	return summary
}
