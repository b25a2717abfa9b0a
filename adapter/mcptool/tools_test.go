package mcptool

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synauth/synauth-go/synauth"
)

// makeRequest builds a *mcp.CallToolRequest from a name and args map.
func makeRequest(name string, args map[string]any) *mcp.CallToolRequest {
	var raw json.RawMessage
	if args != nil {
		raw, _ = json.Marshal(args)
	}
	return &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      name,
			Arguments: raw,
		},
	}
}

// resultJSON extracts and parses the single text content of a tool result.
func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be text")
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &out))
	return out
}

func newTestHandlers(srvURL string) *handlers {
	return &handlers{
		client:       synauth.New("aa_test", synauth.WithBaseURL(srvURL)),
		waitTimeout:  2 * time.Second,
		pollInterval: 10 * time.Millisecond,
		logger:       slog.New(slog.DiscardHandler),
	}
}

func TestRequestApproval_Approved(t *testing.T) {
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := synauth.Action{ID: "req-1", Status: synauth.StatusPending}
		if r.Method == http.MethodGet && fetches.Add(1) >= 2 {
			a.Status = synauth.StatusApproved
			a.VerifiedBy = "face_id"
		}
		_ = json.NewEncoder(w).Encode(a)
	}))
	defer srv.Close()

	h := newTestHandlers(srv.URL)
	res, err := h.handleRequestApproval(context.Background(), makeRequest("request_approval", map[string]any{
		"action_type": "communication",
		"title":       "Send email",
		"risk_level":  "low",
	}))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, "approved", out["status"])
	assert.Equal(t, "req-1", out["request_id"])
	assert.Equal(t, "face_id", out["verified_by"])
}

func TestRequestApproval_MissingFields(t *testing.T) {
	h := newTestHandlers("http://unused.invalid")
	res, err := h.handleRequestApproval(context.Background(), makeRequest("request_approval", map[string]any{
		"title": "no action type",
	}))
	require.NoError(t, err, "client failures must not become protocol errors")

	out := resultJSON(t, res)
	assert.Equal(t, "error", out["status"])
}

func TestRequestApproval_NoWait(t *testing.T) {
	var statusFetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			statusFetches.Add(1)
		}
		_ = json.NewEncoder(w).Encode(synauth.Action{ID: "req-1", Status: synauth.StatusPending})
	}))
	defer srv.Close()

	h := newTestHandlers(srv.URL)
	res, err := h.handleRequestApproval(context.Background(), makeRequest("request_approval", map[string]any{
		"action_type": "system",
		"title":       "Restart worker",
		"wait":        false,
	}))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, "pending", out["status"])
	assert.Equal(t, "req-1", out["request_id"])
	assert.Zero(t, statusFetches.Load(), "wait=false must not poll")
}

func TestRequestApproval_FingerprintedParameters(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		_ = json.NewEncoder(w).Encode(synauth.Action{ID: "req-1", Status: synauth.StatusApproved})
	}))
	defer srv.Close()

	h := newTestHandlers(srv.URL)
	res, err := h.handleRequestApproval(context.Background(), makeRequest("request_approval", map[string]any{
		"action_type": "communication",
		"title":       "Send email",
		"parameters":  `{"to": "john@co.com"}`,
	}))
	require.NoError(t, err)
	assert.Equal(t, "approved", resultJSON(t, res)["status"])

	md, _ := body["metadata"].(map[string]any)
	require.NotNil(t, md)
	params, _ := md["parameters"].(map[string]any)
	assert.Equal(t, "john@co.com", params["to"])
}

func TestCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/actions/req-9", r.URL.Path)
		_ = json.NewEncoder(w).Encode(synauth.Action{
			ID: "req-9", Status: synauth.StatusDenied, DenyReason: "budget",
		})
	}))
	defer srv.Close()

	h := newTestHandlers(srv.URL)
	res, err := h.handleCheckStatus(context.Background(), makeRequest("check_status", map[string]any{
		"request_id": "req-9",
	}))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, "denied", out["status"])
	assert.Equal(t, "budget", out["reason"])
}

func TestCheckStatus_Pending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(synauth.Action{ID: "req-9", Status: synauth.StatusPending})
	}))
	defer srv.Close()

	h := newTestHandlers(srv.URL)
	res, err := h.handleCheckStatus(context.Background(), makeRequest("check_status", map[string]any{
		"request_id": "req-9",
	}))
	require.NoError(t, err)

	// A status check is a snapshot, not a wait: pending is reported as
	// pending, never as timeout.
	assert.Equal(t, "pending", resultJSON(t, res)["status"])
}

func TestRequestPayment(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		_ = json.NewEncoder(w).Encode(synauth.Action{ID: "req-1", Status: synauth.StatusApproved})
	}))
	defer srv.Close()

	h := newTestHandlers(srv.URL)
	res, err := h.handleRequestPayment(context.Background(), makeRequest("request_payment", map[string]any{
		"amount":   29.99,
		"merchant": "OpenAI",
	}))
	require.NoError(t, err)
	assert.Equal(t, "approved", resultJSON(t, res)["status"])

	assert.Equal(t, "purchase", body["action_type"])
	assert.Equal(t, 29.99, body["amount"])
	assert.Equal(t, "USD", body["currency"])
}

func TestRequestPayment_Invalid(t *testing.T) {
	h := newTestHandlers("http://unused.invalid")
	for _, args := range []map[string]any{
		{"merchant": "OpenAI"},
		{"amount": 10.0},
		{"amount": -5.0, "merchant": "x"},
	} {
		res, err := h.handleRequestPayment(context.Background(), makeRequest("request_payment", args))
		require.NoError(t, err)
		assert.Equal(t, "error", resultJSON(t, res)["status"], "args %v", args)
	}
}

func TestVaultAPICall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/actions":
			_ = json.NewEncoder(w).Encode(synauth.Action{ID: "req-1", Status: synauth.StatusApproved})
		case r.Method == http.MethodPost:
			_ = json.NewEncoder(w).Encode(synauth.VaultCallResult{
				RequestID:  "req-1",
				StatusCode: 200,
				Response:   json.RawMessage(`{"ok": true}`),
			})
		}
	}))
	defer srv.Close()

	h := newTestHandlers(srv.URL)
	res, err := h.handleVaultAPICall(context.Background(), makeRequest("vault_api_call", map[string]any{
		"service_name": "openai",
		"method":       "POST",
		"url":          "https://api.openai.com/v1/chat/completions",
		"headers":      map[string]any{"X-Trace": "t1"},
	}))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, "approved", out["status"])
	assert.Equal(t, float64(200), out["status_code"])
}

func TestVaultAPICall_Denied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(synauth.Action{
			ID: "req-1", Status: synauth.StatusDenied, DenyReason: "host not allowed",
		})
	}))
	defer srv.Close()

	h := newTestHandlers(srv.URL)
	res, err := h.handleVaultAPICall(context.Background(), makeRequest("vault_api_call", map[string]any{
		"service_name": "openai",
		"method":       "GET",
		"url":          "https://evil.example.com/",
	}))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, "denied", out["status"])
	assert.Equal(t, "host not allowed", out["reason"])
}

func TestListVaultServices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"services": [{"service_name": "openai", "auth_type": "bearer"}]}`))
	}))
	defer srv.Close()

	h := newTestHandlers(srv.URL)
	res, err := h.handleListVaultServices(context.Background(), makeRequest("list_vault_services", nil))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, float64(1), out["total"])
}

func TestActionHistory_Filters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "denied", q.Get("status"))
		_, _ = w.Write([]byte(`{"actions": [{"id": "req-1", "status": "denied"}]}`))
	}))
	defer srv.Close()

	h := newTestHandlers(srv.URL)
	res, err := h.handleActionHistory(context.Background(), makeRequest("action_history", map[string]any{
		"limit":  5,
		"status": "denied",
	}))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, float64(1), out["total"])
}

func TestServer_ToolsOverInMemoryTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(synauth.Action{ID: "req-1", Status: synauth.StatusApproved})
	}))
	defer srv.Close()

	ctx := context.Background()
	client := synauth.New("aa_test", synauth.WithBaseURL(srv.URL))
	s := NewServer(client, "test", 2*time.Second, 10*time.Millisecond, nil)

	ct, st := mcp.NewInMemoryTransports()
	_, err := s.Connect(ctx, st, nil)
	require.NoError(t, err)

	c := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := c.Connect(ctx, ct, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"request_approval", "check_status", "request_payment", "vault_api_call",
		"list_vault_services", "spending_summary", "action_history",
	}, names)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name: "check_status",
		Arguments: map[string]any{
			"request_id": "req-1",
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, tc.Text, `"approved"`)
}
