package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/synauth/synauth-go/synauth"
)

func TestFromAction(t *testing.T) {
	cases := []struct {
		name   string
		action synauth.Action
		want   Result
	}{
		{
			"approved",
			synauth.Action{ID: "r1", Status: synauth.StatusApproved, VerifiedBy: "face_id", ContentHash: "abc"},
			Result{Status: "approved", RequestID: "r1", VerifiedBy: "face_id", ContentHash: "abc"},
		},
		{
			"denied",
			synauth.Action{ID: "r2", Status: synauth.StatusDenied, DenyReason: "too risky"},
			Result{Status: "denied", RequestID: "r2", Reason: "too risky"},
		},
		{
			"expired",
			synauth.Action{ID: "r3", Status: synauth.StatusExpired},
			Result{Status: "expired", RequestID: "r3"},
		},
		{
			"pending maps to timeout",
			synauth.Action{ID: "r4", Status: synauth.StatusPending},
			Result{Status: "timeout", RequestID: "r4", Detail: "approval still pending when the wait window closed"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FromAction(&tc.action); got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestFromError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Result
	}{
		{
			"denied",
			&synauth.DeniedError{RequestID: "r1", Reason: "nope"},
			Result{Status: "denied", RequestID: "r1", Reason: "nope"},
		},
		{
			"expired",
			&synauth.ExpiredError{RequestID: "r2"},
			Result{Status: "expired", RequestID: "r2"},
		},
		{
			"rate limit",
			&synauth.RateLimitError{APIError: synauth.APIError{StatusCode: 429, Detail: "slow down"}},
			Result{Status: "error", Detail: "rate limited: slow down"},
		},
		{
			"api",
			&synauth.APIError{StatusCode: 500, Detail: "boom"},
			Result{Status: "error", Detail: "synauth api 500: boom"},
		},
		{
			"vault execution",
			&synauth.VaultExecutionError{Detail: "upstream 502"},
			Result{Status: "error", Detail: "upstream 502"},
		},
		{
			"params",
			&synauth.ParamsError{Reason: "title is required"},
			Result{Status: "error", Detail: "title is required"},
		},
		{
			"unknown",
			errors.New("weird failure"),
			Result{Status: "error", Detail: "weird failure"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FromError(tc.err); got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestResultJSON(t *testing.T) {
	s := Result{Status: "approved", RequestID: "r1"}.JSON()
	var back Result
	if err := json.Unmarshal([]byte(s), &back); err != nil {
		t.Fatalf("result JSON does not parse: %v", err)
	}
	if back.Status != "approved" || back.RequestID != "r1" {
		t.Errorf("round trip = %+v", back)
	}
}

func TestApproval_Invoke(t *testing.T) {
	var calls atomic.Int32
	var lastBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method == http.MethodPost {
			lastBody = nil
			_ = json.NewDecoder(r.Body).Decode(&lastBody)
		}
		_ = json.NewEncoder(w).Encode(synauth.Action{ID: "req-1", Status: synauth.StatusApproved, VerifiedBy: "totp"})
	}))
	defer srv.Close()

	client := synauth.New("aa_test", synauth.WithBaseURL(srv.URL))
	a := NewApproval(client, synauth.ActionCommunication, synauth.RiskLow, time.Second, 10*time.Millisecond)

	if a.Name() != "request_communication_approval" {
		t.Errorf("name = %q", a.Name())
	}

	out := a.Invoke(context.Background(), json.RawMessage(`{
		"title": "Send email",
		"recipient": "john@co.com",
		"parameters": "{\"to\": \"john@co.com\", \"subject\": \"hi\"}"
	}`))

	var res Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not a Result: %v", err)
	}
	if res.Status != "approved" || res.VerifiedBy != "totp" {
		t.Errorf("result = %+v", res)
	}

	md, _ := lastBody["metadata"].(map[string]any)
	if md == nil {
		t.Fatal("metadata missing from submitted payload")
	}
	if _, ok := md["content_fingerprint"].(string); !ok {
		t.Error("content_fingerprint missing from metadata")
	}
	params, _ := md["parameters"].(map[string]any)
	if params["subject"] != "hi" {
		t.Errorf("parameters = %v", md["parameters"])
	}
}

func TestApproval_Invoke_BadArgsNoNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := synauth.New("aa_test", synauth.WithBaseURL(srv.URL))
	a := NewApproval(client, synauth.ActionPurchase, synauth.RiskMedium, time.Second, time.Millisecond)

	for _, args := range []string{
		`not json`,
		`{}`,
		`{"title": "t", "parameters": "not a json object"}`,
	} {
		out := a.Invoke(context.Background(), json.RawMessage(args))
		var res Result
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatalf("args %q: output is not a Result: %v", args, err)
		}
		if res.Status != "error" {
			t.Errorf("args %q: status = %q, want error", args, res.Status)
		}
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("backend calls = %d, want 0 for malformed arguments", got)
	}
}

func TestApproval_Invoke_DeniedBecomesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(synauth.Action{
			ID:         "req-1",
			Status:     synauth.StatusDenied,
			DenyReason: "out of budget",
		})
	}))
	defer srv.Close()

	client := synauth.New("aa_test", synauth.WithBaseURL(srv.URL))
	a := NewApproval(client, synauth.ActionPurchase, synauth.RiskMedium, time.Second, time.Millisecond)

	out := a.Invoke(context.Background(), json.RawMessage(`{"title": "Buy", "amount": 10}`))
	var res Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if res.Status != "denied" || res.Reason != "out of budget" {
		t.Errorf("result = %+v", res)
	}
}
