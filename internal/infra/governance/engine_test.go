package governance

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/domain"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/ledger"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/sqlite"
)

func newTestEngine(t *testing.T) (*Engine, *ledger.Ledger, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "governance.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	l := ledger.New(db, ledger.DefaultConfig())
	return New(db, l, DefaultConfig(), zerolog.Nop()), l, db
}

func fund(t *testing.T, l *ledger.Ledger, id string, amount float64) {
	t.Helper()
	if _, err := l.Credit(id, amount, ""); err != nil {
		t.Fatalf("credit %s: %v", id, err)
	}
}

func TestCreateProposalChargesFee(t *testing.T) {
	e, l, _ := newTestEngine(t)
	fund(t, l, "alice", 100)

	p, err := e.CreateProposal("alice", "general", "plant trees", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != domain.PropActive {
		t.Errorf("status = %q, want active", p.Status)
	}
	if got := p.ExpiresAt.Sub(p.CreatedAt); got != 7*24*time.Hour {
		t.Errorf("voting period = %v, want 168h", got)
	}

	bal, _ := l.Balance("alice")
	if bal != 90 {
		t.Errorf("author balance = %v, want 90", bal)
	}
	treasury, _ := l.Balance(domain.TreasuryAccount)
	if treasury != 10 {
		t.Errorf("treasury = %v, want 10", treasury)
	}
}

func TestCreateProposalInsufficientFee(t *testing.T) {
	e, l, db := newTestEngine(t)
	fund(t, l, "alice", 5)

	if _, err := e.CreateProposal("alice", "general", "x", 0); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	// Nothing half-created.
	active, err := db.ActiveProposals()
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("got %d proposals, want 0", len(active))
	}
	bal, _ := l.Balance("alice")
	if bal != 5 {
		t.Errorf("balance = %v, want untouched 5", bal)
	}
}

func TestCastVoteWeightSnapshot(t *testing.T) {
	e, l, db := newTestEngine(t)
	fund(t, l, "alice", 100)
	fund(t, l, "bob", 250)

	p, err := e.CreateProposal("alice", "general", "x", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	weight, err := e.CastVote(p.ID, "bob", domain.VoteYes)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if weight != 250 {
		t.Errorf("weight = %v, want 250", weight)
	}

	// Later balance changes must not move the recorded weight.
	if _, err := l.Debit("bob", 200, ""); err != nil {
		t.Fatalf("debit: %v", err)
	}
	stored, err := db.GetProposal(p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.YesWeight != 250 {
		t.Errorf("yes weight = %v, want 250", stored.YesWeight)
	}
}

func TestCastVoteRules(t *testing.T) {
	e, l, _ := newTestEngine(t)
	fund(t, l, "alice", 100)
	fund(t, l, "bob", 50)

	p, err := e.CreateProposal("alice", "general", "x", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := e.CastVote(p.ID, "bob", domain.VoteYes); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := e.CastVote(p.ID, "bob", domain.VoteNo); !errors.Is(err, domain.ErrDuplicateVote) {
		t.Errorf("second vote err = %v, want ErrDuplicateVote", err)
	}
	if _, err := e.CastVote("nope", "bob", domain.VoteYes); !errors.Is(err, domain.ErrProposalNotFound) {
		t.Errorf("unknown proposal err = %v, want ErrProposalNotFound", err)
	}
	if _, err := e.CastVote(p.ID, "ghost", domain.VoteYes); !errors.Is(err, domain.ErrUnknownAccount) {
		t.Errorf("unknown voter err = %v, want ErrUnknownAccount", err)
	}
	if _, err := e.CastVote(p.ID, "bob", "maybe"); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("bad choice err = %v, want ErrInvalidAmount", err)
	}
}

func TestCastVoteAfterExpiry(t *testing.T) {
	e, l, _ := newTestEngine(t)
	fund(t, l, "alice", 100)

	start := time.Now()
	e.now = func() time.Time { return start }
	p, err := e.CreateProposal("alice", "general", "x", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	e.now = func() time.Time { return start.Add(8 * 24 * time.Hour) }
	if _, err := e.CastVote(p.ID, "alice", domain.VoteYes); !errors.Is(err, domain.ErrProposalNotActive) {
		t.Errorf("err = %v, want ErrProposalNotActive", err)
	}
}

// populate creates n funded voter accounts and returns their IDs.
func populate(t *testing.T, l *ledger.Ledger, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("voter-%02d", i)
		fund(t, l, ids[i], 100)
	}
	return ids
}

func TestResolvePasses(t *testing.T) {
	e, l, db := newTestEngine(t)
	voters := populate(t, l, 10)

	start := time.Now()
	e.now = func() time.Time { return start }
	p, err := e.CreateProposal(voters[0], "general", "x", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// 2 of 10 accounts vote (20% quorum), both yes.
	for _, v := range voters[:2] {
		if _, err := e.CastVote(p.ID, v, domain.VoteYes); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}

	results, err := e.ResolveExpired(start.Add(8 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Status != domain.PropExecuted {
		t.Errorf("status = %q (%s), want executed", results[0].Status, results[0].Reason)
	}

	stored, _ := db.GetProposal(p.ID)
	if stored.Status != domain.PropExecuted {
		t.Errorf("stored status = %q, want executed", stored.Status)
	}
}

func TestResolveQuorumNotMet(t *testing.T) {
	e, l, _ := newTestEngine(t)
	voters := populate(t, l, 30)

	start := time.Now()
	e.now = func() time.Time { return start }
	p, err := e.CreateProposal(voters[0], "general", "x", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// 2 of 30 accounts is under the 10% quorum.
	for _, v := range voters[:2] {
		if _, err := e.CastVote(p.ID, v, domain.VoteYes); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}

	results, err := e.ResolveExpired(start.Add(8 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if results[0].Status != domain.PropRejected {
		t.Errorf("status = %q, want rejected", results[0].Status)
	}
	if math.Abs(results[0].Quorum-2.0/30) > 1e-9 {
		t.Errorf("quorum = %v, want %v", results[0].Quorum, 2.0/30)
	}
}

func TestResolveBelowPassThreshold(t *testing.T) {
	e, l, _ := newTestEngine(t)
	voters := populate(t, l, 10)

	start := time.Now()
	e.now = func() time.Time { return start }
	p, err := e.CreateProposal(voters[0], "general", "x", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Equal weights split 50/50, below the 60% threshold.
	if _, err := e.CastVote(p.ID, voters[1], domain.VoteYes); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := e.CastVote(p.ID, voters[2], domain.VoteNo); err != nil {
		t.Fatalf("vote: %v", err)
	}

	results, err := e.ResolveExpired(start.Add(8 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if results[0].Status != domain.PropRejected {
		t.Errorf("status = %q, want rejected", results[0].Status)
	}
	if math.Abs(results[0].YesRatio-0.5) > 1e-9 {
		t.Errorf("yes ratio = %v, want 0.5", results[0].YesRatio)
	}
}

func TestResolveFundingExecution(t *testing.T) {
	e, l, _ := newTestEngine(t)
	voters := populate(t, l, 10)
	fund(t, l, domain.TreasuryAccount, 5000)

	start := time.Now()
	e.now = func() time.Time { return start }
	p, err := e.CreateProposal(voters[0], "treasury", "buy a pump", 500)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, v := range voters[:3] {
		if _, err := e.CastVote(p.ID, v, domain.VoteYes); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}

	results, err := e.ResolveExpired(start.Add(8 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if results[0].Status != domain.PropExecuted {
		t.Fatalf("status = %q (%s), want executed", results[0].Status, results[0].Reason)
	}

	// Treasury: +10 fee, -500 funding. Author: 100 -10 fee +500.
	treasury, _ := l.Balance(domain.TreasuryAccount)
	if treasury != 4510 {
		t.Errorf("treasury = %v, want 4510", treasury)
	}
	author, _ := l.Balance(voters[0])
	if author != 590 {
		t.Errorf("author = %v, want 590", author)
	}
}

func TestResolveFundingUnderfundedTreasury(t *testing.T) {
	e, l, db := newTestEngine(t)
	voters := populate(t, l, 10)

	start := time.Now()
	e.now = func() time.Time { return start }
	// Treasury only holds the 10-dust fee; funding of 500 cannot execute.
	p, err := e.CreateProposal(voters[0], "treasury", "x", 500)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, v := range voters[:3] {
		if _, err := e.CastVote(p.ID, v, domain.VoteYes); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}

	results, err := e.ResolveExpired(start.Add(8 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if results[0].Status != domain.PropRejected {
		t.Errorf("status = %q, want rejected", results[0].Status)
	}
	if results[0].Reason == "" {
		t.Error("missing rejection reason")
	}

	stored, _ := db.GetProposal(p.ID)
	if stored.Status != domain.PropRejected {
		t.Errorf("stored status = %q, want rejected", stored.Status)
	}
	// Treasury untouched beyond the fee.
	treasury, _ := l.Balance(domain.TreasuryAccount)
	if treasury != 10 {
		t.Errorf("treasury = %v, want 10", treasury)
	}
}

func TestResolveIdempotent(t *testing.T) {
	e, l, _ := newTestEngine(t)
	voters := populate(t, l, 10)

	start := time.Now()
	e.now = func() time.Time { return start }
	if _, err := e.CreateProposal(voters[0], "general", "x", 0); err != nil {
		t.Fatalf("create: %v", err)
	}

	later := start.Add(8 * 24 * time.Hour)
	first, err := e.ResolveExpired(later)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("first round resolved %d, want 1", len(first))
	}

	second, err := e.ResolveExpired(later)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second round resolved %d, want 0", len(second))
	}
}

func TestTreasuryExcludedFromQuorumBase(t *testing.T) {
	e, l, _ := newTestEngine(t)
	voters := populate(t, l, 10)
	fund(t, l, domain.TreasuryAccount, 1000)

	start := time.Now()
	e.now = func() time.Time { return start }
	p, err := e.CreateProposal(voters[0], "general", "x", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Exactly 1 of 10 non-treasury accounts: 10% quorum met only if the
	// treasury is excluded from the base.
	if _, err := e.CastVote(p.ID, voters[1], domain.VoteYes); err != nil {
		t.Fatalf("vote: %v", err)
	}

	results, err := e.ResolveExpired(start.Add(8 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if results[0].Status != domain.PropExecuted {
		t.Errorf("status = %q (%s), want executed", results[0].Status, results[0].Reason)
	}
}
