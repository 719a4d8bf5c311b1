package solscan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"solscan-harvester/internal/domain"
)

const testAddr = domain.Address("So11111111111111111111111111111111111111112")

func TestHTTPClient_GetAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/account/"+testAddr.String() {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("token"); got != "test-key" {
			t.Errorf("token header = %q, want test-key", got)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"lamports":     uint64(5000000),
			"ownerProgram": "11111111111111111111111111111111",
			"type":         "system_account",
			"executable":   false,
			"account":      testAddr.String(),
		})
	}))
	defer server.Close()

	client, err := NewHTTPClient("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}

	profile, err := client.GetAccount(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if profile.Lamports != 5000000 {
		t.Errorf("lamports = %d, want 5000000", profile.Lamports)
	}
	if profile.AccountTyp == nil || *profile.AccountTyp != "system_account" {
		t.Errorf("unexpected account type %v", profile.AccountTyp)
	}
}

func TestHTTPClient_GetTokenHoldings_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client, _ := NewHTTPClient("test-key", WithBaseURL(server.URL))

	holdings, err := client.GetTokenHoldings(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("GetTokenHoldings: %v", err)
	}
	// Zero holdings is a valid account state, not a failure.
	if holdings == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(holdings) != 0 {
		t.Errorf("expected 0 holdings, got %d", len(holdings))
	}
}

func TestHTTPClient_GetAccountTransactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("account"); got != testAddr.String() {
			t.Errorf("account param = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit param = %q, want 10", got)
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"txHash": "sig1", "slot": 100, "blockTime": 1700000000, "status": "Success", "fee": 5000},
			{"txHash": "sig2", "slot": 99, "blockTime": 1699999990, "status": "Success", "fee": 5000},
		})
	}))
	defer server.Close()

	client, _ := NewHTTPClient("test-key", WithBaseURL(server.URL))

	txs, err := client.GetAccountTransactions(context.Background(), testAddr, 0)
	if err != nil {
		t.Fatalf("GetAccountTransactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Signature != "sig1" || txs[0].Slot != 100 {
		t.Errorf("unexpected first tx: %+v", txs[0])
	}
}

func TestHTTPClient_RateLimitedIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := NewHTTPClient("test-key", WithBaseURL(server.URL))

	_, err := client.GetAccount(context.Background(), testAddr)
	if err == nil {
		t.Fatal("expected error for 429")
	}
	if !IsTransient(err) {
		t.Errorf("429 should classify as transient, got %v", err)
	}
}

func TestHTTPClient_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, _ := NewHTTPClient("test-key", WithBaseURL(server.URL))

	_, err := client.GetAccount(context.Background(), testAddr)
	if !IsTransient(err) {
		t.Errorf("502 should classify as transient, got %v", err)
	}
}

func TestHTTPClient_NotFoundIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, _ := NewHTTPClient("test-key", WithBaseURL(server.URL))

	_, err := client.GetAccount(context.Background(), testAddr)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if IsTransient(err) {
		t.Errorf("404 should not classify as transient")
	}
}

func TestHTTPClient_MissingKey(t *testing.T) {
	_, err := NewHTTPClient("")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestHTTPClient_ValidateKey(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Path {
		case "/transaction/last":
			w.WriteHeader(http.StatusForbidden)
		case "/token/list":
			w.Write([]byte("{}"))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer server.Close()

	client, _ := NewHTTPClient("test-key", WithBaseURL(server.URL))

	if err := client.ValidateKey(context.Background()); err != nil {
		t.Fatalf("ValidateKey: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 probe calls, got %d", calls)
	}
}

func TestHTTPClient_ValidateKey_AllDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client, _ := NewHTTPClient("bad-key", WithBaseURL(server.URL))

	err := client.ValidateKey(context.Background())
	if !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("expected ErrInvalidAPIKey, got %v", err)
	}
}
