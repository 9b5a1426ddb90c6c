// Package governance runs the proposal lifecycle: creation against a fee,
// balance-weighted voting, and quorum-gated resolution with treasury
// execution for funding proposals.
package governance

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/domain"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/ledger"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/sqlite"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// Config controls proposal economics and resolution rules.
type Config struct {
	// ProposalFee is debited from the author and paid to the treasury.
	ProposalFee float64

	// VotingPeriod is how long a proposal accepts votes.
	VotingPeriod time.Duration

	// QuorumFraction is the minimum share of all accounts that must have
	// voted for a resolution to count (0.10 = 10%).
	QuorumFraction float64

	// PassThreshold is the minimum yes-weight share of cast weight for a
	// proposal to pass (0.60 = 60%).
	PassThreshold float64
}

// DefaultConfig returns the governance defaults.
func DefaultConfig() Config {
	return Config{
		ProposalFee:    10,
		VotingPeriod:   7 * 24 * time.Hour,
		QuorumFraction: 0.10,
		PassThreshold:  0.60,
	}
}

// ─── Engine ─────────────────────────────────────────────────────────────────

// Engine executes governance operations. Vote casting and resolution share a
// mutex so a resolution round never races a late vote on the same proposal.
type Engine struct {
	db     *sqlite.DB
	ledger *ledger.Ledger
	config Config
	log    zerolog.Logger

	mu sync.Mutex

	// Injectable clock for testing.
	now func() time.Time
}

// New creates a governance engine.
func New(db *sqlite.DB, l *ledger.Ledger, cfg Config, log zerolog.Logger) *Engine {
	return &Engine{
		db:     db,
		ledger: l,
		config: cfg,
		log:    log.With().Str("component", "governance").Logger(),
		now:    time.Now,
	}
}

// CreateProposal opens a new proposal. The proposal fee moves from the
// author to the treasury in the same transaction that records the proposal,
// so a failed debit never leaves an orphan.
func (e *Engine) CreateProposal(authorID, kind, description string, fundingAmount float64) (*domain.Proposal, error) {
	if fundingAmount < 0 || (fundingAmount > 0 && !domain.ValidAmount(fundingAmount)) {
		return nil, fmt.Errorf("%w: funding %.4f", domain.ErrInvalidAmount, fundingAmount)
	}

	now := e.now()
	proposal := domain.Proposal{
		ID:            uuid.NewString(),
		AuthorID:      authorID,
		Kind:          kind,
		Description:   description,
		FundingAmount: fundingAmount,
		Status:        domain.PropActive,
		CreatedAt:     now,
		ExpiresAt:     now.Add(e.config.VotingPeriod),
	}

	err := e.ledger.WithAccounts([]string{authorID, domain.TreasuryAccount}, func(tx *sqlite.Tx) error {
		author, err := tx.GetAccount(authorID)
		if err != nil {
			return err
		}
		if author == nil {
			return domain.ErrUnknownAccount
		}
		if e.config.ProposalFee > author.Balance {
			return fmt.Errorf("%w: proposal fee is %.4f, have %.4f",
				domain.ErrInsufficientFunds, e.config.ProposalFee, author.Balance)
		}

		if err := tx.SetBalance(authorID, author.Balance-e.config.ProposalFee); err != nil {
			return err
		}
		if err := tx.EnsureAccount(domain.TreasuryAccount); err != nil {
			return err
		}
		treasury, err := tx.GetAccount(domain.TreasuryAccount)
		if err != nil {
			return err
		}
		if err := tx.SetBalance(domain.TreasuryAccount, treasury.Balance+e.config.ProposalFee); err != nil {
			return err
		}
		if err := e.ledger.Record(tx, authorID, domain.TxProposalFee, e.config.ProposalFee,
			domain.TreasuryAccount, fmt.Sprintf("proposal %s", proposal.ID)); err != nil {
			return err
		}
		return tx.InsertProposal(proposal)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("proposal", proposal.ID).Str("author", authorID).
		Float64("funding", fundingAmount).Msg("proposal created")
	return &proposal, nil
}

// CastVote records one vote with weight equal to the voter's spendable
// balance at cast time. A voter gets exactly one vote per proposal and
// cannot change it.
func (e *Engine) CastVote(proposalID, voterID string, choice domain.VoteChoice) (float64, error) {
	if choice != domain.VoteYes && choice != domain.VoteNo {
		return 0, fmt.Errorf("%w: vote choice %q", domain.ErrInvalidAmount, choice)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var weight float64
	err := e.db.WithTx(func(tx *sqlite.Tx) error {
		proposal, err := tx.GetProposal(proposalID)
		if err != nil {
			return err
		}
		now := e.now()
		if proposal.Status != domain.PropActive || now.After(proposal.ExpiresAt) {
			return domain.ErrProposalNotActive
		}

		voted, err := tx.HasVoted(proposalID, voterID)
		if err != nil {
			return err
		}
		if voted {
			return domain.ErrDuplicateVote
		}

		voter, err := tx.GetAccount(voterID)
		if err != nil {
			return err
		}
		if voter == nil {
			return domain.ErrUnknownAccount
		}
		weight = voter.Balance
		if weight <= 0 {
			return fmt.Errorf("%w: zero voting weight", domain.ErrInsufficientFunds)
		}

		if err := tx.InsertVote(domain.Vote{
			ProposalID: proposalID,
			VoterID:    voterID,
			Choice:     choice,
			Weight:     weight,
			VotedAt:    now,
		}); err != nil {
			return err
		}

		yes, no := 0.0, 0.0
		if choice == domain.VoteYes {
			yes = weight
		} else {
			no = weight
		}
		return tx.AddVoteWeight(proposalID, yes, no)
	})
	if err != nil {
		return 0, err
	}
	return weight, nil
}

// Proposal returns one proposal by ID.
func (e *Engine) Proposal(id string) (*domain.Proposal, error) {
	return e.db.GetProposal(id)
}

// ActiveProposals lists proposals still accepting votes.
func (e *Engine) ActiveProposals() ([]domain.Proposal, error) {
	return e.db.ActiveProposals()
}

// ResolveExpired resolves every active proposal whose voting period has
// ended. Each proposal resolves independently; a failure on one is reported
// in its result and does not block the rest. Calling this twice is safe:
// resolved proposals no longer match the expiry query.
func (e *Engine) ResolveExpired(now time.Time) ([]domain.ProposalResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	expired, err := e.db.ExpiredActiveProposals(now)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ProposalResult, 0, len(expired))
	for _, proposal := range expired {
		result := e.resolve(proposal)
		results = append(results, result)
		e.log.Info().Str("proposal", proposal.ID).
			Str("status", string(result.Status)).
			Float64("yes_ratio", result.YesRatio).
			Float64("quorum", result.Quorum).
			Str("reason", result.Reason).
			Msg("proposal resolved")
	}
	return results, nil
}

// resolve decides and finalizes one expired proposal.
func (e *Engine) resolve(proposal domain.Proposal) domain.ProposalResult {
	result := domain.ProposalResult{ProposalID: proposal.ID}

	voters, err := e.db.VoterCount(proposal.ID)
	if err != nil {
		return e.fail(proposal, result, err)
	}
	accounts, err := e.db.AccountCount()
	if err != nil {
		return e.fail(proposal, result, err)
	}
	if accounts > 0 {
		result.Quorum = float64(voters) / float64(accounts)
	}

	totalWeight := proposal.YesWeight + proposal.NoWeight
	if totalWeight > 0 {
		result.YesRatio = proposal.YesWeight / totalWeight
	}

	switch {
	case result.Quorum < e.config.QuorumFraction:
		result.Reason = fmt.Sprintf("quorum %.1f%% below required %.1f%%",
			result.Quorum*100, e.config.QuorumFraction*100)
		result.Status = domain.PropRejected
	case result.YesRatio < e.config.PassThreshold:
		result.Reason = fmt.Sprintf("yes ratio %.1f%% below required %.1f%%",
			result.YesRatio*100, e.config.PassThreshold*100)
		result.Status = domain.PropRejected
	default:
		result.Status = domain.PropExecuted
	}

	if result.Status == domain.PropRejected {
		if err := e.db.UpdateProposalStatus(proposal.ID, domain.PropRejected); err != nil {
			return e.fail(proposal, result, err)
		}
		return result
	}

	// Passed. Funding proposals execute against the treasury; a proposal
	// the treasury cannot cover is demoted to rejected rather than left
	// half-executed.
	if proposal.FundingAmount > 0 {
		if err := e.execute(proposal); err != nil {
			result.Status = domain.PropRejected
			result.Reason = fmt.Sprintf("passed but execution failed: %v", err)
			if uerr := e.db.UpdateProposalStatus(proposal.ID, domain.PropRejected); uerr != nil {
				return e.fail(proposal, result, uerr)
			}
			return result
		}
	}
	if err := e.db.UpdateProposalStatus(proposal.ID, domain.PropExecuted); err != nil {
		return e.fail(proposal, result, err)
	}
	return result
}

// execute pays a funding proposal from the treasury to its author.
func (e *Engine) execute(proposal domain.Proposal) error {
	return e.ledger.WithAccounts([]string{domain.TreasuryAccount, proposal.AuthorID}, func(tx *sqlite.Tx) error {
		treasury, err := tx.GetAccount(domain.TreasuryAccount)
		if err != nil {
			return err
		}
		if treasury == nil || proposal.FundingAmount > treasury.Balance {
			have := 0.0
			if treasury != nil {
				have = treasury.Balance
			}
			return fmt.Errorf("%w: treasury holds %.4f, proposal needs %.4f",
				domain.ErrInsufficientFunds, have, proposal.FundingAmount)
		}

		if err := tx.SetBalance(domain.TreasuryAccount, treasury.Balance-proposal.FundingAmount); err != nil {
			return err
		}
		if err := tx.EnsureAccount(proposal.AuthorID); err != nil {
			return err
		}
		author, err := tx.GetAccount(proposal.AuthorID)
		if err != nil {
			return err
		}
		if err := tx.SetBalance(proposal.AuthorID, author.Balance+proposal.FundingAmount); err != nil {
			return err
		}
		return e.ledger.Record(tx, domain.TreasuryAccount, domain.TxTransfer, proposal.FundingAmount,
			proposal.AuthorID, fmt.Sprintf("funding for proposal %s", proposal.ID))
	})
}

// fail records an operational error against a proposal without changing its
// stored status, so the next resolution round retries it.
func (e *Engine) fail(proposal domain.Proposal, result domain.ProposalResult, err error) domain.ProposalResult {
	e.log.Error().Err(err).Str("proposal", proposal.ID).Msg("resolution error")
	result.Status = proposal.Status
	result.Reason = err.Error()
	return result
}
