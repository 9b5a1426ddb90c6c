// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of the module; it depends on nothing.
package domain

import (
	"math"
	"time"
)

// ─── Account ────────────────────────────────────────────────────────────────

// TreasuryAccount is the well-known system account that collects exit fees,
// proposal fees, and funds approved treasury proposals.
const TreasuryAccount = "treasury"

// Account is a participant in the dust economy.
// Accounts are created lazily on first credit and never hard-deleted;
// zero-balance accounts persist for history and reputation.
type Account struct {
	ID              string     `json:"id"`
	Balance         float64    `json:"balance"`       // spendable dust, >= 0
	StakedAmount    float64    `json:"staked_amount"` // locked dust, >= 0
	StakeStart      *time.Time `json:"stake_start,omitempty"`
	ReputationScore int64      `json:"reputation_score"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ─── Transactions ───────────────────────────────────────────────────────────

// TxType is the business reason for a ledger entry.
type TxType string

const (
	TxCredit      TxType = "credit"
	TxDebit       TxType = "debit"
	TxTransfer    TxType = "transfer"
	TxStake       TxType = "stake"
	TxUnstake     TxType = "unstake"
	TxProposalFee TxType = "proposal_fee"
	TxVoteFee     TxType = "vote_fee"
	TxGravity     TxType = "gravity_distribution"
)

// Transaction is a single row in the append-only audit trail.
// Records are never mutated after creation; balances could in principle be
// replayed from this log.
type Transaction struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"account_id"`
	Type           TxType    `json:"type"`
	Amount         float64   `json:"amount"` // signed; meaning depends on Type
	CounterpartyID string    `json:"counterparty_id,omitempty"`
	Note           string    `json:"note,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// ─── Governance ─────────────────────────────────────────────────────────────

// ProposalStatus is the lifecycle state of a governance proposal.
// Rejected and Executed are terminal; there is no transition out of them.
type ProposalStatus string

const (
	PropActive   ProposalStatus = "active"
	PropPassed   ProposalStatus = "passed"
	PropRejected ProposalStatus = "rejected"
	PropExecuted ProposalStatus = "executed"
)

// Terminal reports whether the status admits no further transitions.
func (s ProposalStatus) Terminal() bool {
	return s == PropRejected || s == PropExecuted
}

// Proposal is a governance proposal with weighted dust voting.
type Proposal struct {
	ID            string         `json:"id"`
	AuthorID      string         `json:"author_id"`
	Kind          string         `json:"kind"`
	Description   string         `json:"description"`
	FundingAmount float64        `json:"funding_amount"` // 0 for non-treasury proposals
	YesWeight     float64        `json:"yes_weight"`
	NoWeight      float64        `json:"no_weight"`
	Status        ProposalStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	ExpiresAt     time.Time      `json:"expires_at"`
}

// VoteChoice is a yes/no governance vote.
type VoteChoice string

const (
	VoteYes VoteChoice = "yes"
	VoteNo  VoteChoice = "no"
)

// Vote records one account's vote on one proposal.
// The (ProposalID, VoterID) pair is unique: a second cast is rejected,
// never silently overwritten. Weight is captured at cast time and does not
// retroactively change if the voter's balance moves later.
type Vote struct {
	ProposalID string     `json:"proposal_id"`
	VoterID    string     `json:"voter_id"`
	Choice     VoteChoice `json:"choice"`
	Weight     float64    `json:"weight"`
	VotedAt    time.Time  `json:"voted_at"`
}

// ProposalResult is the outcome of resolving one expired proposal.
type ProposalResult struct {
	ProposalID string         `json:"proposal_id"`
	Status     ProposalStatus `json:"status"`
	YesRatio   float64        `json:"yes_ratio"`
	Quorum     float64        `json:"quorum"`
	Reason     string         `json:"reason,omitempty"`
}

// ─── Reserve & Gravity Well ─────────────────────────────────────────────────

// ReserveState is the asset-backing pool for the dust supply.
// WaterLiters is monotonically non-decreasing except via explicit
// administrative operations; it grows automatically by a fixed fraction of
// every burned fee.
type ReserveState struct {
	WaterLiters  float64 `json:"water_liters"`
	BackingRatio float64 `json:"backing_ratio"` // dust backed per liter
}

// BackedDust returns how much dust the reserve notionally covers.
func (r ReserveState) BackedDust() float64 {
	return r.WaterLiters * r.BackingRatio
}

// ReserveStatus is the reporting shape for reserve health.
// Under-collateralization is visible, never enforced: the engine does not
// halt transfers for low coverage.
type ReserveStatus struct {
	TotalDust       float64 `json:"total_dust"`
	BackedDust      float64 `json:"backed_dust"`
	CoveragePercent float64 `json:"coverage_percent"`
	WaterLiters     float64 `json:"water_liters"`
	BackingRatio    float64 `json:"backing_ratio"`
	FullyBacked     bool    `json:"fully_backed"`
}

// GravityWellState is the persisted state of the redistribution accumulator.
type GravityWellState struct {
	AccumulatedFees  float64   `json:"accumulated_fees"` // >= 0
	LastDistribution time.Time `json:"last_distribution"`
}

// GravityRecipient is one credited account in a distribution round.
type GravityRecipient struct {
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
	Deficit   float64 `json:"deficit"`
}

// Distribution summarizes one Gravity Well round.
type Distribution struct {
	Recipients       []GravityRecipient `json:"recipients"`
	TotalDistributed float64            `json:"total_distributed"`
}

// ─── Amount validation ──────────────────────────────────────────────────────

// ValidAmount reports whether an amount is positive and finite.
// The engine never clamps or truncates; invalid amounts reject the whole
// operation.
func ValidAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
