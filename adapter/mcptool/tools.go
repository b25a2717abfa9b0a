// Package mcptool exposes the SynAuth client as an MCP tool server, so
// any MCP-capable agent runtime can request human authorization without
// linking the SDK directly.
//
// Every tool returns a structured JSON result with a status field;
// client failures are converted at this boundary, never propagated as
// protocol errors — the host runtime expects a value, not an exception.
package mcptool

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/synauth/synauth-go/adapter"
	"github.com/synauth/synauth-go/internal/mcputil"
	"github.com/synauth/synauth-go/synauth"
)

type handlers struct {
	client       *synauth.Client
	waitTimeout  time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewServer builds an MCP server with the SynAuth tool set registered.
// Zero waitTimeout or pollInterval select the client defaults.
func NewServer(client *synauth.Client, version string, waitTimeout, pollInterval time.Duration, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &handlers{
		client:       client,
		waitTimeout:  waitTimeout,
		pollInterval: pollInterval,
		logger:       logger,
	}

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "synauth",
		Version: version,
	}, nil)

	s.AddTool(requestApprovalTool(), h.handleRequestApproval)
	s.AddTool(checkStatusTool(), h.handleCheckStatus)
	s.AddTool(requestPaymentTool(), h.handleRequestPayment)
	s.AddTool(vaultAPICallTool(), h.handleVaultAPICall)
	s.AddTool(listVaultServicesTool(), h.handleListVaultServices)
	s.AddTool(spendingSummaryTool(), h.handleSpendingSummary)
	s.AddTool(actionHistoryTool(), h.handleActionHistory)
	return s
}

// Serve runs the server over stdio until ctx is canceled.
func Serve(ctx context.Context, s *mcp.Server) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// --- Tool definitions ---

func requestApprovalTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "request_approval",
		Description: "Request human authorization before performing a consequential " +
			"action (email, purchase, data access, contract, system change). " +
			"Blocks until the human approves or denies on their paired device, " +
			"the request expires, or the wait window closes.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action_type": map[string]any{
					"type": "string",
					"description": "Action category: communication, purchase, data_access, " +
						"legal, system, scheduling, or social",
				},
				"title": map[string]any{
					"type":        "string",
					"description": "Short human-readable summary shown in the approval prompt",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "Details shown in the approval prompt",
				},
				"risk_level": map[string]any{
					"type":        "string",
					"description": "low, medium, high, or critical (default medium)",
				},
				"recipient": map[string]any{
					"type":        "string",
					"description": "Counterparty of the action, if any",
				},
				"amount": map[string]any{
					"type":        "number",
					"description": "Monetary amount in USD, if any",
				},
				"parameters": map[string]any{
					"type": "string",
					"description": "JSON object of the exact action parameters, fingerprinted " +
						"for what-you-see-is-what-you-sign verification",
				},
				"wait": map[string]any{
					"type":        "boolean",
					"description": "Block until resolution (default true). When false, returns the request id immediately.",
				},
			},
			"required": []string{"action_type", "title"},
		},
	}
}

func checkStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "check_status",
		Description: "Check the current status of a previously submitted approval " +
			"request. Returns approved, denied, expired, or timeout (still pending).",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"request_id": map[string]any{
					"type":        "string",
					"description": "Approval request identifier",
				},
			},
			"required": []string{"request_id"},
		},
	}
}

func requestPaymentTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "request_payment",
		Description: "Request authorization to spend money. The payment stays pending " +
			"until the human approves it on their paired device.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"amount": map[string]any{
					"type":        "number",
					"description": "Amount to spend",
				},
				"merchant": map[string]any{
					"type":        "string",
					"description": "Who gets paid",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "What the payment is for",
				},
				"currency": map[string]any{
					"type":        "string",
					"description": "ISO currency code (default USD)",
				},
				"wait": map[string]any{
					"type":        "boolean",
					"description": "Block until resolution (default true)",
				},
			},
			"required": []string{"amount", "merchant"},
		},
	}
}

func vaultAPICallTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "vault_api_call",
		Description: "Make an HTTP API call using a credential stored in the SynAuth " +
			"vault. The human approves the exact request, then the backend executes " +
			"it with the credential injected — the credential never reaches the agent. " +
			"The URL host must be on the service's allow-list.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"service_name": map[string]any{
					"type":        "string",
					"description": "Vault service name (see list_vault_services)",
				},
				"method": map[string]any{
					"type":        "string",
					"description": "HTTP method: GET, POST, PUT, PATCH, DELETE",
				},
				"url": map[string]any{
					"type":        "string",
					"description": "Full URL to call",
				},
				"headers": map[string]any{
					"type":        "object",
					"description": "Additional headers; the auth header is injected automatically",
				},
				"body": map[string]any{
					"type":        "string",
					"description": "Request body, typically a JSON string",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "Human-readable description shown in the approval prompt",
				},
			},
			"required": []string{"service_name", "method", "url"},
		},
	}
}

func listVaultServicesTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "list_vault_services",
		Description: "List the API credentials stored in the SynAuth vault: service " +
			"names, auth types, and allowed hosts. Credential values are never shown.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func spendingSummaryTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "spending_summary",
		Description: "Get this agent's spend against every applicable limit. Check it " +
			"before monetary actions to see whether budget remains.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func actionHistoryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "action_history",
		Description: "List this agent's past approval requests and their outcomes.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{
					"type":        "number",
					"description": "Maximum entries to return (default 50)",
				},
				"status": map[string]any{
					"type":        "string",
					"description": "Filter by status: pending, approved, denied, expired",
				},
				"action_type": map[string]any{
					"type":        "string",
					"description": "Filter by action category",
				},
			},
		},
	}
}

// --- Handlers ---

// resultText wraps a structured adapter result as tool output. Handlers
// never return protocol errors for client failures.
func resultText(r adapter.Result) *mcp.CallToolResult {
	return mcputil.NewToolResultText(r.JSON())
}

func (h *handlers) handleRequestApproval(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.Params.Arguments
	title := mcputil.GetString(raw, "title", "")
	actionType := mcputil.GetString(raw, "action_type", "")
	if title == "" || actionType == "" {
		return resultText(adapter.Result{Status: "error", Detail: "action_type and title are required"}), nil
	}

	p := synauth.ActionParams{
		Type:        synauth.ActionType(actionType),
		Title:       title,
		Description: mcputil.GetString(raw, "description", ""),
		RiskLevel:   synauth.RiskLevel(mcputil.GetString(raw, "risk_level", "")),
		Recipient:   mcputil.GetString(raw, "recipient", ""),
	}
	if m := mcputil.GetArguments(raw); m != nil {
		if _, ok := m["amount"]; ok {
			amount := mcputil.GetFloat(raw, "amount", 0)
			p.Amount = &amount
		}
	}

	if blob := mcputil.GetString(raw, "parameters", ""); blob != "" {
		params := map[string]any{}
		if err := json.Unmarshal([]byte(blob), &params); err != nil {
			return resultText(adapter.Result{Status: "error", Detail: "parameters is not a JSON object: " + err.Error()}), nil
		}
		p.Metadata = map[string]any{"parameters": params}
	}

	if !mcputil.GetBool(raw, "wait", true) {
		a, err := h.client.RequestAction(ctx, p)
		if err != nil {
			return resultText(adapter.FromError(err)), nil
		}
		// Submission-only mode: report whatever the backend said, even
		// if that is pending.
		if a.Status == synauth.StatusPending {
			return resultText(adapter.Result{Status: "pending", RequestID: a.ID}), nil
		}
		return resultText(adapter.FromAction(a)), nil
	}

	a, err := h.client.RequestAndWait(ctx, p, h.waitTimeout, h.pollInterval)
	if err != nil {
		return resultText(adapter.FromError(err)), nil
	}
	h.logger.Debug("approval resolved", "id", a.ID, "status", a.Status)
	return resultText(adapter.FromAction(a)), nil
}

func (h *handlers) handleCheckStatus(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcputil.GetString(req.Params.Arguments, "request_id", "")
	if id == "" {
		return resultText(adapter.Result{Status: "error", Detail: "request_id is required"}), nil
	}
	a, err := h.client.GetStatus(ctx, id)
	if err != nil {
		return resultText(adapter.FromError(err)), nil
	}
	if a.Status == synauth.StatusPending {
		return resultText(adapter.Result{Status: "pending", RequestID: a.ID}), nil
	}
	return resultText(adapter.FromAction(a)), nil
}

func (h *handlers) handleRequestPayment(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.Params.Arguments
	amount := mcputil.GetFloat(raw, "amount", 0)
	merchant := mcputil.GetString(raw, "merchant", "")
	if amount <= 0 || merchant == "" {
		return resultText(adapter.Result{Status: "error", Detail: "amount and merchant are required"}), nil
	}

	p := synauth.ActionParams{
		Type:        synauth.ActionPurchase,
		Title:       "Purchase from " + merchant,
		Description: mcputil.GetString(raw, "description", ""),
		Amount:      &amount,
		Currency:    mcputil.GetString(raw, "currency", ""),
		Recipient:   merchant,
		RiskLevel:   synauth.RiskMedium,
	}

	if !mcputil.GetBool(raw, "wait", true) {
		a, err := h.client.RequestAction(ctx, p)
		if err != nil {
			return resultText(adapter.FromError(err)), nil
		}
		if a.Status == synauth.StatusPending {
			return resultText(adapter.Result{Status: "pending", RequestID: a.ID}), nil
		}
		return resultText(adapter.FromAction(a)), nil
	}

	a, err := h.client.RequestAndWait(ctx, p, h.waitTimeout, h.pollInterval)
	if err != nil {
		return resultText(adapter.FromError(err)), nil
	}
	return resultText(adapter.FromAction(a)), nil
}

func (h *handlers) handleVaultAPICall(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.Params.Arguments
	service := mcputil.GetString(raw, "service_name", "")
	method := mcputil.GetString(raw, "method", "")
	callURL := mcputil.GetString(raw, "url", "")
	if service == "" || method == "" || callURL == "" {
		return resultText(adapter.Result{Status: "error", Detail: "service_name, method, and url are required"}), nil
	}

	res, err := h.client.ExecuteVaultCall(ctx, synauth.VaultCallParams{
		Service:      service,
		Method:       method,
		URL:          callURL,
		Headers:      mcputil.GetStringMap(raw, "headers"),
		Body:         mcputil.GetString(raw, "body", ""),
		Description:  mcputil.GetString(raw, "description", ""),
		Timeout:      h.waitTimeout,
		PollInterval: h.pollInterval,
	})
	if err != nil {
		return resultText(adapter.FromError(err)), nil
	}

	out := map[string]any{
		"status":     "approved",
		"request_id": res.RequestID,
	}
	if res.StatusCode != 0 {
		out["status_code"] = res.StatusCode
	}
	if len(res.Response) > 0 {
		out["response"] = json.RawMessage(res.Response)
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return mcputil.NewToolResultText(string(data)), nil
}

func (h *handlers) handleListVaultServices(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	services, err := h.client.ListVaultServices(ctx)
	if err != nil {
		return resultText(adapter.FromError(err)), nil
	}
	data, _ := json.MarshalIndent(map[string]any{
		"services": services,
		"total":    len(services),
	}, "", "  ")
	return mcputil.NewToolResultText(string(data)), nil
}

func (h *handlers) handleSpendingSummary(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := h.client.SpendingSummary(ctx)
	if err != nil {
		return resultText(adapter.FromError(err)), nil
	}
	data, _ := json.MarshalIndent(summary, "", "  ")
	return mcputil.NewToolResultText(string(data)), nil
}

func (h *handlers) handleActionHistory(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.Params.Arguments
	actions, err := h.client.History(ctx, synauth.HistoryOpts{
		Limit:      mcputil.GetInt(raw, "limit", 0),
		Status:     synauth.Status(mcputil.GetString(raw, "status", "")),
		ActionType: synauth.ActionType(mcputil.GetString(raw, "action_type", "")),
	})
	if err != nil {
		return resultText(adapter.FromError(err)), nil
	}
	data, _ := json.MarshalIndent(map[string]any{
		"actions": actions,
		"total":   len(actions),
	}, "", "  ")
	return mcputil.NewToolResultText(string(data)), nil
}
