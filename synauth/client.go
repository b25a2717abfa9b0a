// Package synauth is the Go SDK for the SynAuth human-authorization
// service. Agents submit consequential actions — emails, purchases,
// data access, contract signing — and a human approves or denies them
// via biometric or TOTP confirmation on a paired device.
//
// Basic usage:
//
//	client := synauth.New("aa_...")
//
//	action, err := client.RequestAction(ctx, synauth.ActionParams{
//		Type:      synauth.ActionCommunication,
//		Title:     "Send quarterly report",
//		Recipient: "john@company.com",
//		RiskLevel: synauth.RiskLow,
//	})
//
//	status, err := client.WaitForResult(ctx, action.ID, 0, 0)
//	if status.Status == synauth.StatusApproved {
//		// proceed
//	}
//
// Vault execution keeps third-party credentials out of the agent entirely:
//
//	res, err := client.ExecuteVaultCall(ctx, synauth.VaultCallParams{
//		Service: "openai",
//		Method:  "POST",
//		URL:     "https://api.openai.com/v1/chat/completions",
//		Body:    `{"model": "gpt-4", "messages": []}`,
//	})
package synauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/synauth/synauth-go/internal/appcfg"
	"github.com/synauth/synauth-go/synauth/fingerprint"
)

const apiVersion = "v1"

// Default polling parameters, matching the backend's recommended cadence.
const (
	DefaultWaitTimeout       = 5 * time.Minute
	DefaultPollInterval      = 2 * time.Second
	DefaultVaultTimeout      = 2 * time.Minute
	DefaultVaultPollInterval = 3 * time.Second
)

// Client issues authenticated requests to the SynAuth backend. It holds
// no per-request state, so a single Client is safe to share across
// goroutines and reuse for the life of the process.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	jitter     bool
	recorder   Recorder
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the backend endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithPollJitter spreads poll intervals by ±20% so fleets of agents
// polling at the same cadence don't hit the backend in lockstep.
func WithPollJitter() Option {
	return func(c *Client) { c.jitter = true }
}

// WithRecorder journals submitted actions and observed terminal outcomes.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// New creates a client authenticated with the given per-agent API key.
// The backend endpoint defaults to the process-wide value resolved from
// SYNAUTH_BASE_URL, falling back to the hosted service.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    appcfg.BaseURL(),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do makes an authenticated request and decodes the response into out.
// Centralizes error classification: 429 becomes *RateLimitError, any other
// non-2xx becomes *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/"+apiVersion+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		detail := errorDetail(resp)
		if detail == "" {
			detail = "rate limit exceeded"
		}
		return &RateLimitError{APIError{StatusCode: resp.StatusCode, Detail: detail}}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(resp)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response (HTTP %d): %w", resp.StatusCode, err)
		}
	}
	return nil
}

// errorDetail extracts the backend's detail message from an error body.
// Prefers a JSON {"detail": ...} field, falls back to the raw body text,
// and never fails itself.
func errorDetail(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return strings.TrimSpace(string(raw))
}

// RequestAction submits an action for human authorization and returns the
// backend's snapshot immediately. The returned status may already be
// terminal when the rules engine auto-resolved the request — callers must
// not assume pending.
//
// If CallbackURL is set the backend will POST the resolution to that URL;
// polling still works as a fallback.
func (c *Client) RequestAction(ctx context.Context, p ActionParams) (*Action, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var a Action
	if err := c.do(ctx, http.MethodPost, "/actions", p.payload(), &a); err != nil {
		return nil, err
	}
	c.record(ctx, &a)
	c.logger.Debug("action submitted", "id", a.ID, "status", a.Status, "type", p.Type)
	return &a, nil
}

func (p ActionParams) validate() error {
	if p.Type == "" {
		return &ParamsError{Reason: "action type is required"}
	}
	if p.Title == "" {
		return &ParamsError{Reason: "title is required"}
	}
	switch p.RiskLevel {
	case "", RiskLow, RiskMedium, RiskHigh, RiskCritical:
	default:
		return &ParamsError{Reason: fmt.Sprintf("unknown risk level %q", p.RiskLevel)}
	}
	return nil
}

func (p ActionParams) payload() createActionPayload {
	risk := p.RiskLevel
	if risk == "" {
		risk = RiskMedium
	}
	reversible := true
	if p.Reversible != nil {
		reversible = *p.Reversible
	}
	expires := int(p.ExpiresIn.Seconds())
	if expires <= 0 {
		expires = 300
	}

	pl := createActionPayload{
		ActionType:       p.Type,
		Title:            p.Title,
		RiskLevel:        risk,
		Reversible:       reversible,
		ExpiresInSeconds: expires,
	}
	if p.Description != "" {
		pl.Description = &p.Description
	}
	if p.Amount != nil {
		pl.Amount = p.Amount
		currency := p.Currency
		if currency == "" {
			currency = "USD"
		}
		pl.Currency = &currency
	}
	if p.Recipient != "" {
		pl.Recipient = &p.Recipient
	}
	if len(p.Metadata) > 0 {
		pl.Metadata = p.Metadata
	}
	if p.CallbackURL != "" {
		pl.CallbackURL = &p.CallbackURL
	}
	return pl
}

// GetStatus fetches the current snapshot of an action request. Pure read;
// the backend's state may change between calls.
func (c *Client) GetStatus(ctx context.Context, requestID string) (*Action, error) {
	if requestID == "" {
		return nil, &ParamsError{Reason: "request id is required"}
	}
	var a Action
	if err := c.do(ctx, http.MethodGet, "/actions/"+url.PathEscape(requestID), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// WaitForResult blocks until the action resolves or timeout elapses,
// polling at fixed intervals. After the deadline it performs one final
// status check and returns that snapshot as-is: a still-pending result is
// a valid outcome, not an error. Callers wanting stricter semantics must
// layer them on top. Zero timeout or pollInterval select the defaults.
func (c *Client) WaitForResult(ctx context.Context, requestID string, timeout, pollInterval time.Duration) (*Action, error) {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		a, err := c.GetStatus(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if a.Status != StatusPending {
			c.record(ctx, a)
			return a, nil
		}
		if err := sleepCtx(ctx, c.interval(pollInterval)); err != nil {
			return nil, err
		}
	}

	// Deadline passed with the action still pending at the last check.
	a, err := c.GetStatus(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusPending {
		c.record(ctx, a)
	}
	return a, nil
}

// RequestAndWait submits an action and waits for its resolution. When the
// create response is already terminal no status polling happens at all.
func (c *Client) RequestAndWait(ctx context.Context, p ActionParams, timeout, pollInterval time.Duration) (*Action, error) {
	a, err := c.RequestAction(ctx, p)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusPending {
		return a, nil
	}
	return c.WaitForResult(ctx, a.ID, timeout, pollInterval)
}

// ExecuteVaultCall makes an HTTP call using a credential stored in the
// backend vault. The agent supplies the request details, a human approves,
// and the backend executes the call with the credential injected — the
// agent never observes the credential value. Each approval is single-use.
//
// Returns *DeniedError, *ExpiredError, or *VaultExecutionError when the
// approval resolves against the caller, and *APIError (or *RateLimitError)
// for HTTP-level failures at any phase.
func (c *Client) ExecuteVaultCall(ctx context.Context, p VaultCallParams) (*VaultCallResult, error) {
	if p.Service == "" {
		return nil, &ParamsError{Reason: "vault service name is required"}
	}
	if p.Method == "" || p.URL == "" {
		return nil, &ParamsError{Reason: "method and url are required"}
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultVaultTimeout
	}
	interval := p.PollInterval
	if interval <= 0 {
		interval = DefaultVaultPollInterval
	}

	method := strings.ToUpper(p.Method)
	title := p.Description
	if title == "" {
		title = fmt.Sprintf("API call: %s %s", method, p.URL)
	}
	headers := p.Headers
	if headers == nil {
		headers = map[string]string{}
	}

	a, err := c.RequestAction(ctx, ActionParams{
		Type:        ActionDataAccess,
		Title:       title,
		Description: fmt.Sprintf("Service: %s | %s %s", p.Service, method, p.URL),
		RiskLevel:   RiskMedium,
		Metadata: map[string]any{
			"vault_execute": true,
			"service_name":  p.Service,
			"method":        method,
			"url":           p.URL,
			"headers":       headers,
			"body":          p.Body,
		},
	})
	if err != nil {
		return nil, err
	}

	// The rules engine may resolve the request synchronously; only poll
	// when the create response reports pending.
	if a.Status == StatusDenied {
		return nil, &DeniedError{RequestID: a.ID, Reason: a.DenyReason}
	}
	if a.Status == StatusPending {
		a, err = c.WaitForResult(ctx, a.ID, timeout, interval)
		if err != nil {
			return nil, err
		}
	}

	switch a.Status {
	case StatusApproved:
	case StatusExpired:
		return nil, &ExpiredError{RequestID: a.ID}
	case StatusDenied:
		return nil, &DeniedError{RequestID: a.ID, Reason: a.DenyReason}
	default:
		return nil, &VaultExecutionError{Detail: fmt.Sprintf("unexpected status %q for request %s", a.Status, a.ID)}
	}

	var res VaultCallResult
	if err := c.do(ctx, http.MethodPost, "/vault/execute/"+url.PathEscape(a.ID), nil, &res); err != nil {
		return nil, err
	}
	c.logger.Debug("vault call executed", "id", a.ID, "service", p.Service)
	return &res, nil
}

// ListVaultServices lists the credentials stored in the backend vault —
// names, auth types, and host allow-lists, never the credential values.
func (c *Client) ListVaultServices(ctx context.Context) ([]VaultService, error) {
	var out struct {
		Services []VaultService `json:"services"`
	}
	if err := c.do(ctx, http.MethodGet, "/vault/services", nil, &out); err != nil {
		return nil, err
	}
	return out.Services, nil
}

// History lists this agent's past action requests, newest first.
func (c *Client) History(ctx context.Context, opts HistoryOpts) ([]Action, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if opts.Status != "" {
		q.Set("status", string(opts.Status))
	}
	if opts.ActionType != "" {
		q.Set("action_type", string(opts.ActionType))
	}

	var out struct {
		Actions []Action `json:"actions"`
	}
	if err := c.do(ctx, http.MethodGet, "/actions?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Actions, nil
}

// SpendingSummary reports this agent's spend against every applicable
// limit. Check it before monetary actions to avoid guaranteed denials.
func (c *Client) SpendingSummary(ctx context.Context) (*SpendingSummary, error) {
	var out SpendingSummary
	if err := c.do(ctx, http.MethodGet, "/agent/spending-summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyContentHash recomputes the content fingerprint for params and
// compares it to the backend-reported hash on the action. Use it in
// content-verified flows to confirm no parameter changed between display
// and approval.
func VerifyContentHash(a *Action, params map[string]any) bool {
	if a == nil {
		return false
	}
	return fingerprint.Verify(params, a.ContentHash)
}

// record forwards a snapshot to the configured recorder. Journal failures
// are logged and dropped; they must never affect the approval flow.
func (c *Client) record(ctx context.Context, a *Action) {
	if c.recorder == nil || a.ID == "" {
		return
	}
	if err := c.recorder.Record(ctx, a); err != nil {
		c.logger.Warn("journal record failed", "id", a.ID, "error", err)
	}
}

// interval applies optional ±20% jitter to the poll interval.
func (c *Client) interval(d time.Duration) time.Duration {
	if !c.jitter {
		return d
	}
	return time.Duration(float64(d) * (0.8 + 0.4*rand.Float64()))
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
