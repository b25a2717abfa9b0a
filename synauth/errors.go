package synauth

import "fmt"

// APIError is a non-2xx response from the SynAuth backend. Detail is the
// backend's detail field when the body is JSON, otherwise the raw body text.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("synauth api %d: %s", e.StatusCode, e.Detail)
}

// RateLimitError is the HTTP 429 specialization of APIError. Callers
// should back off before retrying.
type RateLimitError struct {
	APIError
}

// Unwrap lets errors.As match a RateLimitError as a generic *APIError.
func (e *RateLimitError) Unwrap() error {
	return &e.APIError
}

// DeniedError means the action reached terminal state denied. Submitting
// the same request again will not help; a new request may.
type DeniedError struct {
	RequestID string
	Reason    string
}

func (e *DeniedError) Error() string {
	msg := fmt.Sprintf("action %s denied", e.RequestID)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ExpiredError means the action expired before anyone resolved it.
type ExpiredError struct {
	RequestID string
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("action %s expired", e.RequestID)
}

// VaultExecutionError means the vault-execute flow ended in a state other
// than approved, or the proxied execution itself failed.
type VaultExecutionError struct {
	Detail string
}

func (e *VaultExecutionError) Error() string {
	return "vault execution failed: " + e.Detail
}

// ParamsError reports caller-supplied parameters rejected before any
// network call is made.
type ParamsError struct {
	Reason string
}

func (e *ParamsError) Error() string {
	return "synauth: invalid params: " + e.Reason
}
