// Package gateway integrates the external online payment processor: session
// initiation over its HTTP API and reconciliation of the asynchronous
// callbacks it delivers afterwards.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
)

// ValiditySentinel is the flag value the gateway asserts on a genuinely
// completed payment. Anything else on a success callback is treated as a
// failed validation.
const ValiditySentinel = "VALID"

// ClientConfig holds the merchant credentials and endpoint for the gateway's
// session-initiation API.
type ClientConfig struct {
	StoreID       string
	StorePassword string
	EndpointURL   string
	Timeout       time.Duration
}

// Client talks to the gateway's session-initiation endpoint. It performs the
// only outbound network call in the system and never touches the database.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// CallbackURLs are the four notification endpoints handed to the gateway.
type CallbackURLs struct {
	Success string
	Fail    string
	Cancel  string
	IPN     string
}

// SessionRequest carries everything the gateway needs to open a hosted
// payment page for one transaction.
type SessionRequest struct {
	TranID        string
	Amount        decimal.Decimal
	ProductName   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Callbacks     CallbackURLs
}

// initResponse is the gateway's JSON reply to a session-initiation request.
type initResponse struct {
	Status         string `json:"status"`
	GatewayPageURL string `json:"GatewayPageURL"`
	FailedReason   string `json:"failedreason"`
}

// CreateSession posts the form-encoded initiation request and returns the
// redirect URL for the hosted payment page. Any non-success reply or network
// failure comes back as a GatewayError carrying the gateway's reported
// reason when one was given.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	form := url.Values{}
	form.Set("store_id", c.cfg.StoreID)
	form.Set("store_passwd", c.cfg.StorePassword)
	form.Set("total_amount", req.Amount.String())
	form.Set("currency", "BDT")
	form.Set("tran_id", req.TranID)
	form.Set("success_url", req.Callbacks.Success)
	form.Set("fail_url", req.Callbacks.Fail)
	form.Set("cancel_url", req.Callbacks.Cancel)
	form.Set("ipn_url", req.Callbacks.IPN)
	form.Set("shipping_method", "NO")
	form.Set("product_name", defaultStr(req.ProductName, "Service Payment"))
	form.Set("product_category", "Service")
	form.Set("product_profile", "general")
	form.Set("cus_name", defaultStr(req.CustomerName, "Customer"))
	form.Set("cus_email", defaultStr(req.CustomerEmail, "customer@example.com"))
	form.Set("cus_phone", defaultStr(req.CustomerPhone, "01700000000"))
	form.Set("cus_add1", "Dhaka")
	form.Set("cus_city", "Dhaka")
	form.Set("cus_country", "Bangladesh")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.EndpointURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &domain.GatewayError{Reason: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &domain.GatewayError{Reason: "gateway unreachable", Err: err}
	}
	defer resp.Body.Close()

	var body initResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &domain.GatewayError{
			Reason: fmt.Sprintf("malformed gateway response (http %d)", resp.StatusCode),
			Err:    err,
		}
	}

	if body.Status != "SUCCESS" {
		reason := body.FailedReason
		if reason == "" {
			reason = "failed to initialize payment"
		}
		return "", &domain.GatewayError{Reason: reason}
	}

	return body.GatewayPageURL, nil
}

func defaultStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
