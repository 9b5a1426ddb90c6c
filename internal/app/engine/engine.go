// Package engine is the command surface of the commonwealth economy. It
// composes the ledger, staking, governance, gravity well and reserve into
// one facade, enforcing reputation gates and paying participation awards on
// the way through. The API layer and the CLI talk only to this package.
package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/domain"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/governance"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/gravity"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/ledger"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/observability"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/reputation"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/reserve"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/sqlite"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/staking"
)

// Config aggregates the economic parameters of every subsystem.
type Config struct {
	Ledger     ledger.Config
	Reserve    reserve.Config
	Gravity    gravity.Config
	Staking    staking.Config
	Governance governance.Config
}

// DefaultConfig returns the commonwealth defaults.
func DefaultConfig() Config {
	return Config{
		Ledger:     ledger.DefaultConfig(),
		Reserve:    reserve.DefaultConfig(),
		Gravity:    gravity.DefaultConfig(),
		Staking:    staking.DefaultConfig(),
		Governance: governance.DefaultConfig(),
	}
}

// Engine wires the subsystems together.
type Engine struct {
	db      *sqlite.DB
	ledger  *ledger.Ledger
	reserve *reserve.Accountant
	well    *gravity.Well
	staking *staking.Service
	gov     *governance.Engine
	log     zerolog.Logger
}

// New builds a fully wired engine over an open store. Transfer burns feed
// both the reserve and the gravity well.
func New(db *sqlite.DB, cfg Config, log zerolog.Logger) *Engine {
	l := ledger.New(db, cfg.Ledger)
	res := reserve.New(db, cfg.Reserve)
	well := gravity.New(db, l, cfg.Gravity, log)
	l.OnBurn(res.ApplyBurn)
	l.OnBurn(well.CaptureFee)

	return &Engine{
		db:      db,
		ledger:  l,
		reserve: res,
		well:    well,
		staking: staking.New(db, l, cfg.Staking),
		gov:     governance.New(db, l, cfg.Governance, log),
		log:     log.With().Str("component", "engine").Logger(),
	}
}

// ─── Gates ──────────────────────────────────────────────────────────────────

// requireTier rejects the operation unless the account's reputation meets
// the tier. Unknown accounts gate as score zero.
func (e *Engine) requireTier(accountID string, required reputation.Tier) error {
	score, err := e.score(accountID)
	if err != nil {
		return err
	}
	if !reputation.HasAccess(score, required) {
		return fmt.Errorf("%w: requires %s (score %d, need %d)",
			domain.ErrAccessDenied, required, score, required.Threshold())
	}
	return nil
}

func (e *Engine) score(accountID string) (int64, error) {
	acct, err := e.db.GetAccount(accountID)
	if err != nil {
		return 0, err
	}
	if acct == nil {
		return 0, nil
	}
	return acct.ReputationScore, nil
}

// award grows reputation after a successful gated operation. Award failures
// are logged, not surfaced: the operation itself already committed.
func (e *Engine) award(accountID string, points int64, what string) {
	if err := e.db.AddReputation(accountID, points); err != nil {
		e.log.Error().Err(err).Str("account", accountID).Str("award", what).
			Msg("reputation award failed")
	}
}

// ─── Ledger operations ──────────────────────────────────────────────────────

// Credit mints dust onto an account, creating it if absent.
func (e *Engine) Credit(accountID string, amount float64, note string) (float64, error) {
	return e.ledger.Credit(accountID, amount, note)
}

// Debit removes dust from an account's spendable balance.
func (e *Engine) Debit(accountID string, amount float64, note string) (float64, error) {
	return e.ledger.Debit(accountID, amount, note)
}

// Transfer moves dust between accounts. Sovereign senders transfer without
// the burn fee.
func (e *Engine) Transfer(fromID, toID string, amount float64, note string) (ledger.TransferResult, error) {
	score, err := e.score(fromID)
	if err != nil {
		return ledger.TransferResult{}, err
	}

	res, err := e.ledger.Transfer(fromID, toID, amount, note, reputation.FeeExempt(score))
	if err != nil {
		observability.TransfersTotal.WithLabelValues("rejected").Inc()
		return ledger.TransferResult{}, err
	}
	observability.TransfersTotal.WithLabelValues("ok").Inc()
	observability.DustBurned.Add(res.Burned)
	return res, nil
}

// ─── Staking operations ─────────────────────────────────────────────────────

// Stake locks dust into the staked pool. Citizen tier required; the first
// stake ever earns a reputation award.
func (e *Engine) Stake(accountID string, amount float64) (staking.StakeResult, error) {
	if err := e.requireTier(accountID, reputation.TierCitizen); err != nil {
		return staking.StakeResult{}, err
	}
	res, err := e.staking.Stake(accountID, amount)
	if err != nil {
		return staking.StakeResult{}, err
	}
	observability.StakeOps.WithLabelValues("stake").Inc()
	if res.FirstStake {
		e.award(accountID, reputation.AwardFirstStake, "first stake")
	}
	return res, nil
}

// Unstake withdraws staked dust with yield. Not gated: exit is always open.
func (e *Engine) Unstake(accountID string, amount float64) (staking.UnstakeResult, error) {
	res, err := e.staking.Unstake(accountID, amount)
	if err != nil {
		return staking.UnstakeResult{}, err
	}
	observability.StakeOps.WithLabelValues("unstake").Inc()
	observability.YieldPaid.Add(res.Yield)
	return res, nil
}

// ─── Governance operations ──────────────────────────────────────────────────

// CreateProposal opens a proposal. Citizen tier required; treasury funding
// proposals require Sovereign.
func (e *Engine) CreateProposal(authorID, kind, description string, fundingAmount float64) (*domain.Proposal, error) {
	required := reputation.TierCitizen
	if fundingAmount > 0 {
		required = reputation.TierSovereign
	}
	if err := e.requireTier(authorID, required); err != nil {
		return nil, err
	}

	p, err := e.gov.CreateProposal(authorID, kind, description, fundingAmount)
	if err != nil {
		return nil, err
	}
	observability.ProposalsCreated.Inc()
	e.award(authorID, reputation.AwardProposal, "proposal")
	return p, nil
}

// CastVote records a balance-weighted vote. Citizen tier required.
func (e *Engine) CastVote(proposalID, voterID string, choice domain.VoteChoice) (float64, error) {
	if err := e.requireTier(voterID, reputation.TierCitizen); err != nil {
		return 0, err
	}
	weight, err := e.gov.CastVote(proposalID, voterID, choice)
	if err != nil {
		return 0, err
	}
	observability.VotesCast.WithLabelValues(string(choice)).Inc()
	e.award(voterID, reputation.AwardVote, "vote")
	return weight, nil
}

// Proposal returns one proposal.
func (e *Engine) Proposal(id string) (*domain.Proposal, error) {
	return e.gov.Proposal(id)
}

// ActiveProposals lists open proposals.
func (e *Engine) ActiveProposals() ([]domain.Proposal, error) {
	return e.gov.ActiveProposals()
}

// ResolveExpired finalizes every proposal past its voting period.
func (e *Engine) ResolveExpired(now time.Time) ([]domain.ProposalResult, error) {
	results, err := e.gov.ResolveExpired(now)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		observability.ProposalsResolved.WithLabelValues(string(r.Status)).Inc()
	}
	return results, nil
}

// ─── Gravity & reserve operations ───────────────────────────────────────────

// Distribute runs a gravity well round if due.
func (e *Engine) Distribute(now time.Time, force bool) (domain.Distribution, error) {
	dist, err := e.well.Distribute(now, force)
	if err != nil {
		return dist, err
	}
	if dist.TotalDistributed > 0 {
		observability.GravityDistributed.Add(dist.TotalDistributed)
		observability.GravityRecipients.Add(float64(len(dist.Recipients)))
	}
	return dist, nil
}

// GravityStats reports the well state.
func (e *Engine) GravityStats(now time.Time) (gravity.Stats, error) {
	return e.well.Stats(now)
}

// ReserveStatus reports backing coverage.
func (e *Engine) ReserveStatus() (domain.ReserveStatus, error) {
	return e.reserve.Status()
}

// AddReserve records an external water top-up.
func (e *Engine) AddReserve(liters float64, source string) (float64, error) {
	return e.reserve.AddReserve(liters, source)
}

// ─── Reporting ──────────────────────────────────────────────────────────────

// AccountView is the reporting shape for one account.
type AccountView struct {
	ID         string     `json:"id"`
	Balance    float64    `json:"balance"`
	Staked     float64    `json:"staked"`
	StakeStart *time.Time `json:"stake_start,omitempty"`
	Reputation int64      `json:"reputation"`
	Tier       string     `json:"tier"`
	NextTier   string     `json:"next_tier,omitempty"`
	ToNextTier int64      `json:"to_next_tier,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FeeExempt  bool       `json:"fee_exempt"`
}

// Account returns the full view of one account.
func (e *Engine) Account(accountID string) (*AccountView, error) {
	acct, err := e.db.GetAccount(accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, domain.ErrUnknownAccount
	}

	tier := reputation.TierForScore(acct.ReputationScore)
	view := &AccountView{
		ID:         acct.ID,
		Balance:    acct.Balance,
		Staked:     acct.StakedAmount,
		StakeStart: acct.StakeStart,
		Reputation: acct.ReputationScore,
		Tier:       tier.String(),
		CreatedAt:  acct.CreatedAt,
		FeeExempt:  reputation.FeeExempt(acct.ReputationScore),
	}
	if tier < reputation.TierSovereign {
		next := tier + 1
		view.NextTier = next.String()
		view.ToNextTier = reputation.Remaining(acct.ReputationScore, next)
	}
	return view, nil
}

// Transactions returns an account's recent history, newest first.
func (e *Engine) Transactions(accountID string, limit int) ([]domain.Transaction, error) {
	acct, err := e.db.GetAccount(accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, domain.ErrUnknownAccount
	}
	return e.db.AccountTransactions(accountID, limit)
}

// RecentTransactions returns the newest records across every account, the
// economy-wide audit feed.
func (e *Engine) RecentTransactions(limit int) ([]domain.Transaction, error) {
	return e.db.RecentTransactions(limit)
}

// EconomyStatus is the whole-economy report.
type EconomyStatus struct {
	TotalSupply   float64 `json:"total_supply"`
	Circulating   float64 `json:"circulating"`
	Staked        float64 `json:"staked"`
	StakingRatio  float64 `json:"staking_ratio"`
	TotalMinted   float64 `json:"total_minted"`
	TotalBurned   float64 `json:"total_burned"`
	AccountCount  int     `json:"account_count"`
	TreasuryFunds float64 `json:"treasury_funds"`
}

// Status reports supply, burn and participation totals, and refreshes the
// supply-level gauges.
func (e *Engine) Status() (EconomyStatus, error) {
	balance, staked, err := e.db.TotalBalances()
	if err != nil {
		return EconomyStatus{}, err
	}
	minted, err := e.db.StateValue(sqlite.StateTotalMinted)
	if err != nil {
		return EconomyStatus{}, err
	}
	burned, err := e.db.StateValue(sqlite.StateTotalBurned)
	if err != nil {
		return EconomyStatus{}, err
	}
	count, err := e.db.AccountCount()
	if err != nil {
		return EconomyStatus{}, err
	}

	status := EconomyStatus{
		TotalSupply:  balance + staked,
		Circulating:  balance,
		Staked:       staked,
		TotalMinted:  minted,
		TotalBurned:  burned,
		AccountCount: count,
	}
	if status.TotalSupply > 0 {
		status.StakingRatio = staked / status.TotalSupply
	}
	if treasury, err := e.db.GetAccount(domain.TreasuryAccount); err == nil && treasury != nil {
		status.TreasuryFunds = treasury.Balance
	}

	observability.TotalSupply.Set(status.TotalSupply)
	if pool, err := e.db.StateValue(sqlite.StateGravityFees); err == nil {
		observability.GravityPool.Set(pool)
	}
	if rs, err := e.reserve.Status(); err == nil {
		observability.ReserveLiters.Set(rs.WaterLiters)
		observability.ReserveCoverage.Set(rs.CoveragePercent)
	}
	return status, nil
}
