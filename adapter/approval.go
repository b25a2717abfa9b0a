package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/synauth/synauth-go/synauth"
	"github.com/synauth/synauth-go/synauth/fingerprint"
)

// Approval is the generic approval adapter: one named action per category
// that submits a request, waits for a resolution, and reports it as a
// structured Result.
type Approval struct {
	client       *synauth.Client
	category     synauth.ActionType
	defaultRisk  synauth.RiskLevel
	waitTimeout  time.Duration
	pollInterval time.Duration
}

// NewApproval builds an approval adapter for one action category. Zero
// timeout or pollInterval select the client defaults.
func NewApproval(client *synauth.Client, category synauth.ActionType, defaultRisk synauth.RiskLevel, waitTimeout, pollInterval time.Duration) *Approval {
	if defaultRisk == "" {
		defaultRisk = synauth.RiskMedium
	}
	return &Approval{
		client:       client,
		category:     category,
		defaultRisk:  defaultRisk,
		waitTimeout:  waitTimeout,
		pollInterval: pollInterval,
	}
}

func (a *Approval) Name() string {
	return fmt.Sprintf("request_%s_approval", a.category)
}

func (a *Approval) Description() string {
	return fmt.Sprintf(
		"Request human authorization for a %s action. Blocks until the "+
			"human approves or denies on their paired device, the request "+
			"expires, or the wait window closes.", a.category)
}

func (a *Approval) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Short human-readable summary of the action",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "Details shown in the approval prompt",
			},
			"risk_level": map[string]any{
				"type":        "string",
				"description": "low, medium, high, or critical",
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
				"description": "JSON object of the exact action parameters, " +
					"fingerprinted for what-you-see-is-what-you-sign verification",
			},
		},
		"required": []string{"title"},
	}
}

// approvalArgs is the wire form of an Invoke call.
type approvalArgs struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	RiskLevel   string   `json:"risk_level"`
	Recipient   string   `json:"recipient"`
	Amount      *float64 `json:"amount"`
	Parameters  string   `json:"parameters"`
}

// Invoke submits the approval request and waits for its resolution.
// Malformed arguments — including an unparseable parameters blob — are
// reported without any network call.
func (a *Approval) Invoke(ctx context.Context, args json.RawMessage) string {
	var in approvalArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return Result{Status: "error", Detail: "invalid arguments: " + err.Error()}.JSON()
		}
	}
	if in.Title == "" {
		return Result{Status: "error", Detail: "title is required"}.JSON()
	}

	p := synauth.ActionParams{
		Type:        a.category,
		Title:       in.Title,
		Description: in.Description,
		RiskLevel:   a.defaultRisk,
		Recipient:   in.Recipient,
		Amount:      in.Amount,
	}
	if in.RiskLevel != "" {
		p.RiskLevel = synauth.RiskLevel(in.RiskLevel)
	}

	if in.Parameters != "" {
		params := map[string]any{}
		if err := json.Unmarshal([]byte(in.Parameters), &params); err != nil {
			return Result{Status: "error", Detail: "parameters is not a JSON object: " + err.Error()}.JSON()
		}
		fp, err := fingerprint.Compute(params)
		if err != nil {
			return Result{Status: "error", Detail: "fingerprinting parameters: " + err.Error()}.JSON()
		}
		p.Metadata = map[string]any{
			"parameters":          params,
			"content_fingerprint": fp,
		}
	}

	action, err := a.client.RequestAndWait(ctx, p, a.waitTimeout, a.pollInterval)
	if err != nil {
		return FromError(err).JSON()
	}
	return FromAction(action).JSON()
}
