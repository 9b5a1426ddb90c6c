package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.
// All are recoverable, local failures returned to the caller; none is fatal
// to the process. The front end matches with errors.Is to render an
// actionable message.

var (
	// Ledger errors
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownAccount    = errors.New("account not found")
	ErrInvalidAmount     = errors.New("amount must be positive and finite")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")

	// Staking errors
	ErrInsufficientStake = errors.New("insufficient staked amount")

	// Governance errors
	ErrProposalNotFound  = errors.New("proposal not found")
	ErrProposalNotActive = errors.New("proposal is not active")
	ErrDuplicateVote     = errors.New("already voted on this proposal")

	// Reputation gate errors
	ErrAccessDenied = errors.New("insufficient reputation for this operation")
)
