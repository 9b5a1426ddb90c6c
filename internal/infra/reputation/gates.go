// Package reputation implements progressive feature gating by reputation
// score.
//
// Reputation is earned through participation (governance votes, proposals,
// first stake) and unlocks tiers:
//   - Newcomer (0+): balance queries, receiving transfers
//   - BetaTester (100+): marketplace-style trading
//   - Citizen (500+): staking, voting, creating proposals
//   - Sovereign (1000+): treasury proposals, 0% transfer fees
//
// The gate is a pure read of the score against fixed thresholds: no side
// effects, no failure path.
package reputation

// ─── Constants ──────────────────────────────────────────────────────────────

const (
	// ThresholdBetaTester unlocks trading features.
	ThresholdBetaTester = 100

	// ThresholdCitizen unlocks staking and governance participation.
	ThresholdCitizen = 500

	// ThresholdSovereign unlocks treasury proposals and fee-free transfers.
	ThresholdSovereign = 1000
)

// Participation awards. Reputation only grows through these paths.
const (
	AwardVote       = 3  // cast a governance vote
	AwardProposal   = 10 // created a proposal
	AwardFirstStake = 15 // first time staking dust
)

// ─── Tier ───────────────────────────────────────────────────────────────────

// Tier is the closed set of account access levels. Modeling this as an enum
// (rather than free-text tier strings) gives exhaustive-match safety.
type Tier int

const (
	TierNewcomer Tier = iota
	TierBetaTester
	TierCitizen
	TierSovereign
)

// String returns a human-readable tier label.
func (t Tier) String() string {
	switch t {
	case TierNewcomer:
		return "NEWCOMER"
	case TierBetaTester:
		return "BETA_TESTER"
	case TierCitizen:
		return "CITIZEN"
	case TierSovereign:
		return "SOVEREIGN"
	default:
		return "UNKNOWN"
	}
}

// Threshold returns the minimum reputation score for the tier.
func (t Tier) Threshold() int64 {
	switch t {
	case TierBetaTester:
		return ThresholdBetaTester
	case TierCitizen:
		return ThresholdCitizen
	case TierSovereign:
		return ThresholdSovereign
	default:
		return 0
	}
}

// TierForScore classifies a reputation score into its tier.
func TierForScore(score int64) Tier {
	switch {
	case score >= ThresholdSovereign:
		return TierSovereign
	case score >= ThresholdCitizen:
		return TierCitizen
	case score >= ThresholdBetaTester:
		return TierBetaTester
	default:
		return TierNewcomer
	}
}

// HasAccess reports whether a reputation score meets the required tier.
func HasAccess(score int64, required Tier) bool {
	return score >= required.Threshold()
}

// FeeExempt reports whether the score qualifies for 0% transfer burn
// (Sovereign privilege).
func FeeExempt(score int64) bool {
	return HasAccess(score, TierSovereign)
}

// Remaining returns how much reputation is still needed for the tier
// (0 if already met).
func Remaining(score int64, required Tier) int64 {
	if d := required.Threshold() - score; d > 0 {
		return d
	}
	return 0
}
