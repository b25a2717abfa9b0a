// Package adapter defines the boundary between the SynAuth client and
// agent-framework runtimes. Host runtimes expect a string or JSON return
// value from a tool call, never an exception, so everything the client
// can fail with is converted here into a structured Result.
//
// The core client stays framework-agnostic: each concrete adapter (see
// adapter/mcptool for the MCP one) implements the small Adapter interface
// and is loaded only when its runtime is present. Adapter availability
// never changes client behavior or types.
package adapter

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/synauth/synauth-go/synauth"
)

// Adapter is a named callable action exposed to an agent runtime.
type Adapter interface {
	Name() string
	Description() string
	InputSchema() map[string]any
	// Invoke runs the action and returns a JSON-serialized Result. It
	// must not panic and has no error return: failures become results.
	Invoke(ctx context.Context, args json.RawMessage) string
}

// Result is the structured outcome handed back to the host runtime.
// Status is one of approved, denied, expired, timeout, or error; the
// companion fields are populated per status.
type Result struct {
	Status      string `json:"status"`
	RequestID   string `json:"request_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Detail      string `json:"detail,omitempty"`
	VerifiedBy  string `json:"verified_by,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
}

// JSON serializes the result. Encoding a Result cannot realistically
// fail, but the fallback keeps the never-throw contract honest.
func (r Result) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return `{"status":"error","detail":"failed to encode result"}`
	}
	return string(data)
}

// FromAction maps a resolution snapshot to a Result. An action still
// pending after the wait window maps to "timeout" — this boundary is the
// one place that treats pending-after-wait as exceptional, because host
// runtimes have no way to keep polling a returned string.
func FromAction(a *synauth.Action) Result {
	switch a.Status {
	case synauth.StatusApproved:
		return Result{
			Status:      "approved",
			RequestID:   a.ID,
			VerifiedBy:  a.VerifiedBy,
			ContentHash: a.ContentHash,
		}
	case synauth.StatusDenied:
		return Result{Status: "denied", RequestID: a.ID, Reason: a.DenyReason}
	case synauth.StatusExpired:
		return Result{Status: "expired", RequestID: a.ID}
	default:
		return Result{
			Status:    "timeout",
			RequestID: a.ID,
			Detail:    "approval still pending when the wait window closed",
		}
	}
}

// FromError maps every failure kind in the client's closed taxonomy to a
// Result. Unrecognized errors degrade to a generic error result.
func FromError(err error) Result {
	var denied *synauth.DeniedError
	if errors.As(err, &denied) {
		return Result{Status: "denied", RequestID: denied.RequestID, Reason: denied.Reason}
	}
	var expired *synauth.ExpiredError
	if errors.As(err, &expired) {
		return Result{Status: "expired", RequestID: expired.RequestID}
	}
	var rate *synauth.RateLimitError
	if errors.As(err, &rate) {
		return Result{Status: "error", Detail: "rate limited: " + rate.Detail}
	}
	var api *synauth.APIError
	if errors.As(err, &api) {
		return Result{Status: "error", Detail: api.Error()}
	}
	var vault *synauth.VaultExecutionError
	if errors.As(err, &vault) {
		return Result{Status: "error", Detail: vault.Detail}
	}
	var params *synauth.ParamsError
	if errors.As(err, &params) {
		return Result{Status: "error", Detail: params.Reason}
	}
	return Result{Status: "error", Detail: err.Error()}
}
