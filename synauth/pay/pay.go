// Package pay is the payment-only subset of the SynAuth SDK. It wraps
// the general client with a surface restricted to purchase authorization
// and adds no behavior of its own — polling and error classification all
// happen in the underlying client.
//
//	client := pay.New("aa_...")
//
//	request, err := client.RequestPayment(ctx, pay.PaymentParams{
//		Amount:      29.99,
//		Merchant:    "OpenAI",
//		Description: "GPT-5 API credits - 1 month",
//	})
//
//	result, err := client.WaitForResult(ctx, request.ID, 0, 0)
//	// result.Status: approved, denied, or expired
package pay

import (
	"context"
	"time"

	"github.com/synauth/synauth-go/synauth"
)

// Client authorizes purchases and nothing else.
type Client struct {
	auth *synauth.Client
}

// New creates a payment client. Options are forwarded to the underlying
// SynAuth client unchanged.
func New(apiKey string, opts ...synauth.Option) *Client {
	return &Client{auth: synauth.New(apiKey, opts...)}
}

// PaymentParams describes one payment request.
type PaymentParams struct {
	Amount      float64
	Merchant    string
	Description string
	Currency    string // defaults to USD
	Metadata    map[string]any
}

// RequestPayment submits a purchase authorization and returns immediately.
// The payment stays pending until the human resolves it on their device.
func (c *Client) RequestPayment(ctx context.Context, p PaymentParams) (*synauth.Action, error) {
	return c.auth.RequestPurchase(ctx, p.Amount, p.Merchant, p.Description, func(ap *synauth.ActionParams) {
		if p.Currency != "" {
			ap.Currency = p.Currency
		}
		if len(p.Metadata) > 0 {
			ap.Metadata = p.Metadata
		}
	})
}

// GetStatus fetches the current snapshot of a payment request.
func (c *Client) GetStatus(ctx context.Context, requestID string) (*synauth.Action, error) {
	return c.auth.GetStatus(ctx, requestID)
}

// WaitForResult polls until the payment resolves or timeout elapses.
// See the underlying client for the exact timeout semantics.
func (c *Client) WaitForResult(ctx context.Context, requestID string, timeout, pollInterval time.Duration) (*synauth.Action, error) {
	return c.auth.WaitForResult(ctx, requestID, timeout, pollInterval)
}
