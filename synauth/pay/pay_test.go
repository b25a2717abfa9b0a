package pay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/synauth/synauth-go/synauth"
)

func TestRequestPayment(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body = nil
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(synauth.Action{ID: "req-1", Status: synauth.StatusPending})
	}))
	defer srv.Close()

	c := New("aa_test", synauth.WithBaseURL(srv.URL))

	a, err := c.RequestPayment(context.Background(), PaymentParams{
		Amount:      29.99,
		Merchant:    "OpenAI",
		Description: "API credits",
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != "req-1" {
		t.Errorf("id = %q", a.ID)
	}

	// Payment clients can only ever submit purchases.
	if body["action_type"] != "purchase" {
		t.Errorf("action_type = %v", body["action_type"])
	}
	if body["amount"] != 29.99 || body["currency"] != "USD" {
		t.Errorf("amount = %v %v", body["amount"], body["currency"])
	}
	if body["recipient"] != "OpenAI" {
		t.Errorf("recipient = %v", body["recipient"])
	}
	if body["title"] != "Purchase from OpenAI" {
		t.Errorf("title = %v", body["title"])
	}
}

func TestRequestPayment_CurrencyAndMetadata(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(synauth.Action{ID: "req-1", Status: synauth.StatusPending})
	}))
	defer srv.Close()

	c := New("aa_test", synauth.WithBaseURL(srv.URL))
	_, err := c.RequestPayment(context.Background(), PaymentParams{
		Amount:   10,
		Merchant: "DB",
		Currency: "EUR",
		Metadata: map[string]any{"order": "ord-7"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if body["currency"] != "EUR" {
		t.Errorf("currency = %v", body["currency"])
	}
	md, _ := body["metadata"].(map[string]any)
	if md["order"] != "ord-7" {
		t.Errorf("metadata = %v", body["metadata"])
	}
}

func TestWaitForResult_Delegates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s", r.Method)
		}
		_ = json.NewEncoder(w).Encode(synauth.Action{ID: "req-1", Status: synauth.StatusApproved})
	}))
	defer srv.Close()

	c := New("aa_test", synauth.WithBaseURL(srv.URL))
	a, err := c.WaitForResult(context.Background(), "req-1", time.Second, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != synauth.StatusApproved {
		t.Errorf("status = %q", a.Status)
	}
}
