package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/app/engine"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/reputation"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/sqlite"
)

func newTestServer(t *testing.T) (*Server, *engine.Engine, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	e := engine.New(db, engine.DefaultConfig(), zerolog.Nop())
	return NewServer(e, zerolog.Nop()), e, db
}

// do issues a request against the server and decodes the JSON response.
func do(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec, body := do(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestCreditAndAccount(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec, body := do(t, s, http.MethodPost, "/api/credit", map[string]any{
		"account_id": "alice",
		"amount":     500,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("credit status = %d: %v", rec.Code, body)
	}
	if body["balance"].(float64) != 500 {
		t.Errorf("balance = %v, want 500", body["balance"])
	}

	rec, body = do(t, s, http.MethodGet, "/api/accounts/alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("account status = %d", rec.Code)
	}
	if body["tier"] != "NEWCOMER" {
		t.Errorf("tier = %v, want NEWCOMER", body["tier"])
	}

	rec, _ = do(t, s, http.MethodGet, "/api/accounts/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown account status = %d, want 404", rec.Code)
	}

	rec, body = do(t, s, http.MethodPost, "/api/debit", map[string]any{
		"account_id": "alice",
		"amount":     200,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("debit status = %d: %v", rec.Code, body)
	}
	if body["balance"].(float64) != 300 {
		t.Errorf("balance after debit = %v, want 300", body["balance"])
	}
}

func TestTransferEndpoint(t *testing.T) {
	s, e, _ := newTestServer(t)

	if _, err := e.Credit("alice", 1000, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	rec, body := do(t, s, http.MethodPost, "/api/transfer", map[string]any{
		"from": "alice", "to": "bob", "amount": 100,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", rec.Code, body)
	}
	if body["burned"].(float64) != 1 {
		t.Errorf("burned = %v, want 1", body["burned"])
	}

	// Overdraw maps to 422.
	rec, _ = do(t, s, http.MethodPost, "/api/transfer", map[string]any{
		"from": "alice", "to": "bob", "amount": 99999,
	})
	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("overdraw status = %d, want 4xx", rec.Code)
	}

	// Self-transfer maps to 400.
	rec, _ = do(t, s, http.MethodPost, "/api/transfer", map[string]any{
		"from": "alice", "to": "alice", "amount": 10,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self transfer status = %d, want 400", rec.Code)
	}
}

func TestStakeEndpointGating(t *testing.T) {
	s, e, db := newTestServer(t)

	if _, err := e.Credit("alice", 1000, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	rec, _ := do(t, s, http.MethodPost, "/api/stake", map[string]any{
		"account_id": "alice", "amount": 100,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("newcomer stake status = %d, want 403", rec.Code)
	}

	if err := db.AddReputation("alice", reputation.TierCitizen.Threshold()); err != nil {
		t.Fatalf("reputation: %v", err)
	}
	rec, body := do(t, s, http.MethodPost, "/api/stake", map[string]any{
		"account_id": "alice", "amount": 100,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("citizen stake status = %d: %v", rec.Code, body)
	}
	if body["staked"].(float64) != 100 {
		t.Errorf("staked = %v, want 100", body["staked"])
	}

	rec, body = do(t, s, http.MethodPost, "/api/unstake", map[string]any{
		"account_id": "alice", "amount": 100,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unstake status = %d: %v", rec.Code, body)
	}
}

func TestProposalLifecycleEndpoints(t *testing.T) {
	s, e, db := newTestServer(t)

	for _, id := range []string{"alice", "bob"} {
		if _, err := e.Credit(id, 1000, ""); err != nil {
			t.Fatalf("credit: %v", err)
		}
		if err := db.AddReputation(id, reputation.TierCitizen.Threshold()); err != nil {
			t.Fatalf("reputation: %v", err)
		}
	}

	rec, body := do(t, s, http.MethodPost, "/api/proposals", map[string]any{
		"author_id": "alice", "kind": "general", "description": "more wells",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %v", rec.Code, body)
	}
	proposalID := body["id"].(string)

	rec, body = do(t, s, http.MethodGet, "/api/proposals", nil)
	if rec.Code != http.StatusOK || body["count"].(float64) != 1 {
		t.Fatalf("list status = %d count = %v", rec.Code, body["count"])
	}

	votePath := fmt.Sprintf("/api/proposals/%s/votes", proposalID)
	rec, body = do(t, s, http.MethodPost, votePath, map[string]any{
		"voter_id": "bob", "choice": "yes",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("vote status = %d: %v", rec.Code, body)
	}
	if body["weight"].(float64) != 1000 {
		t.Errorf("weight = %v, want 1000", body["weight"])
	}

	// Duplicate vote maps to 409.
	rec, _ = do(t, s, http.MethodPost, votePath, map[string]any{
		"voter_id": "bob", "choice": "no",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate vote status = %d, want 409", rec.Code)
	}

	rec, body = do(t, s, http.MethodGet, "/api/proposals/"+proposalID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if body["yes_weight"].(float64) != 1000 {
		t.Errorf("yes weight = %v, want 1000", body["yes_weight"])
	}

	rec, _ = do(t, s, http.MethodGet, "/api/proposals/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing proposal status = %d, want 404", rec.Code)
	}
}

func TestReserveAndGravityEndpoints(t *testing.T) {
	s, e, _ := newTestServer(t)

	if _, err := e.Credit("alice", 1000, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	rec, body := do(t, s, http.MethodPost, "/api/reserve", map[string]any{
		"liters": 10, "source": "delivery",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add reserve status = %d: %v", rec.Code, body)
	}

	rec, body = do(t, s, http.MethodGet, "/api/reserve", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reserve status = %d", rec.Code)
	}
	if body["water_liters"].(float64) != 10 {
		t.Errorf("liters = %v, want 10", body["water_liters"])
	}

	rec, body = do(t, s, http.MethodGet, "/api/gravity", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("gravity status = %d", rec.Code)
	}
	if body["threshold"].(float64) != 100 {
		t.Errorf("threshold = %v, want 100", body["threshold"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	s, e, _ := newTestServer(t)

	if _, err := e.Credit("alice", 750, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	rec, body := do(t, s, http.MethodGet, "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["total_supply"].(float64) != 750 {
		t.Errorf("total supply = %v, want 750", body["total_supply"])
	}
	if body["account_count"].(float64) != 1 {
		t.Errorf("account count = %v, want 1", body["account_count"])
	}
}

func TestTransactionsEndpoint(t *testing.T) {
	s, e, _ := newTestServer(t)

	if _, err := e.Credit("alice", 500, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := e.Transfer("alice", "bob", 50, ""); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	rec, body := do(t, s, http.MethodGet, "/api/accounts/alice/transactions?limit=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", body["count"])
	}

	rec, _ = do(t, s, http.MethodGet, "/api/accounts/alice/transactions?limit=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestRecentTransactionsEndpoint(t *testing.T) {
	s, e, _ := newTestServer(t)

	if _, err := e.Credit("alice", 500, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := e.Credit("bob", 300, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := e.Transfer("alice", "bob", 50, ""); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	// The global feed sees records from every account.
	rec, body := do(t, s, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["count"].(float64) != 3 {
		t.Errorf("count = %v, want 3", body["count"])
	}

	rec, body = do(t, s, http.MethodGet, "/api/transactions?limit=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", body["count"])
	}

	rec, _ = do(t, s, http.MethodGet, "/api/transactions?limit=501", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestBadJSONBody(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transfer", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
