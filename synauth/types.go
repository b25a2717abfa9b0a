package synauth

import (
	"context"
	"encoding/json"
	"time"
)

// ActionType categorizes an action request.
type ActionType string

const (
	ActionCommunication ActionType = "communication"
	ActionPurchase      ActionType = "purchase"
	ActionDataAccess    ActionType = "data_access"
	ActionLegal         ActionType = "legal"
	ActionSystem        ActionType = "system"
	ActionScheduling    ActionType = "scheduling"
	ActionSocial        ActionType = "social"
)

// RiskLevel describes how consequential an action is.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Status is the resolution state of an action request. The backend only
// moves a request out of pending, never back into it.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusExpired  Status = "expired"
)

// Terminal reports whether the status is a final resolution.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusDenied, StatusExpired:
		return true
	}
	return false
}

// Action is a snapshot of an action request as reported by the backend.
// Snapshots are immutable; call GetStatus for a fresh one.
type Action struct {
	ID          string         `json:"id"`
	Status      Status         `json:"status"`
	ActionType  ActionType     `json:"action_type,omitempty"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	RiskLevel   RiskLevel      `json:"risk_level,omitempty"`
	Reversible  bool           `json:"reversible,omitempty"`
	Amount      *float64       `json:"amount,omitempty"`
	Currency    string         `json:"currency,omitempty"`
	Recipient   string         `json:"recipient,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	ContentHash string         `json:"content_hash,omitempty"`
	VerifiedBy  string         `json:"verified_by,omitempty"`
	DenyReason  string         `json:"deny_reason,omitempty"`
	CreatedAt   string         `json:"created_at,omitempty"`
	ExpiresAt   string         `json:"expires_at,omitempty"`
}

// ActionParams describes a new action request. Type, Title, and RiskLevel
// are required (RiskLevel defaults to medium when empty). Optional fields
// left at their zero value are omitted from the request payload entirely —
// the backend distinguishes absent fields from null ones.
type ActionParams struct {
	Type        ActionType
	Title       string
	Description string
	RiskLevel   RiskLevel
	Reversible  *bool // nil means reversible
	Amount      *float64
	Currency    string // sent only alongside Amount; defaults to USD
	Recipient   string
	Metadata    map[string]any
	ExpiresIn   time.Duration // approval window; defaults to 5 minutes
	CallbackURL string
}

// createActionPayload is the wire form of ActionParams. Pointer fields
// with omitempty implement the omit-if-absent contract.
type createActionPayload struct {
	ActionType       ActionType     `json:"action_type"`
	Title            string         `json:"title"`
	RiskLevel        RiskLevel      `json:"risk_level"`
	Reversible       bool           `json:"reversible"`
	ExpiresInSeconds int            `json:"expires_in_seconds"`
	Description      *string        `json:"description,omitempty"`
	Amount           *float64       `json:"amount,omitempty"`
	Currency         *string        `json:"currency,omitempty"`
	Recipient        *string        `json:"recipient,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CallbackURL      *string        `json:"callback_url,omitempty"`
}

// VaultService is a credential stored in the backend vault. The credential
// value itself is never exposed to agents, only this metadata.
type VaultService struct {
	ServiceName  string   `json:"service_name"`
	AuthType     string   `json:"auth_type"`
	AllowedHosts []string `json:"allowed_hosts"`
	Description  string   `json:"description,omitempty"`
}

// VaultCallParams describes an HTTP call to execute through the vault.
// Service, Method, and URL are required; the URL host must be on the
// service's allow-list or the backend rejects the call.
type VaultCallParams struct {
	Service      string
	Method       string
	URL          string
	Headers      map[string]string
	Body         string
	Description  string
	Timeout      time.Duration // approval wait; defaults to 2 minutes
	PollInterval time.Duration // defaults to 3 seconds
}

// VaultCallResult is the outcome of a vault-executed HTTP call.
type VaultCallResult struct {
	RequestID  string          `json:"request_id,omitempty"`
	Status     string          `json:"status,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
	Response   json.RawMessage `json:"response,omitempty"`
}

// HistoryOpts filters the action history listing.
type HistoryOpts struct {
	Limit      int // defaults to 50
	Status     Status
	ActionType ActionType
}

// SpendingSummary reports spend against every limit that applies to this
// agent, scoped to this agent's own spend.
type SpendingSummary struct {
	AgentID   string         `json:"agent_id"`
	Summaries []LimitSummary `json:"summaries"`
}

// LimitSummary is one spending limit and its current utilization.
type LimitSummary struct {
	LimitID        string     `json:"limit_id"`
	AgentID        string     `json:"agent_id,omitempty"`
	ActionType     ActionType `json:"action_type,omitempty"`
	Period         string     `json:"period"`
	Limit          float64    `json:"limit"`
	Spent          float64    `json:"spent"`
	Remaining      float64    `json:"remaining"`
	UtilizationPct float64    `json:"utilization_pct"`
}

// Recorder receives action snapshots for local journaling. Implementations
// must tolerate repeated snapshots for the same request ID. Record errors
// are logged by the client, never propagated to callers.
type Recorder interface {
	Record(ctx context.Context, a *Action) error
}
