// Proposal and vote operations.
package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/domain"
)

// InsertProposal stores a newly created proposal.
func (q queries) InsertProposal(p domain.Proposal) error {
	_, err := q.e.Exec(`
		INSERT INTO proposals (id, author_id, kind, description, funding_amount,
			yes_weight, no_weight, status, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.AuthorID, p.Kind, p.Description, p.FundingAmount,
		p.YesWeight, p.NoWeight, string(p.Status), p.CreatedAt.Unix(), p.ExpiresAt.Unix())
	return err
}

// GetProposal retrieves one proposal, or domain.ErrProposalNotFound.
func (q queries) GetProposal(id string) (*domain.Proposal, error) {
	row := q.e.QueryRow(`
		SELECT id, author_id, kind, description, funding_amount,
			yes_weight, no_weight, status, created_at, expires_at
		FROM proposals WHERE id = ?
	`, id)
	p, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrProposalNotFound
	}
	return p, err
}

// UpdateProposalStatus moves a proposal to a new lifecycle state.
func (q queries) UpdateProposalStatus(id string, status domain.ProposalStatus) error {
	_, err := q.e.Exec(`UPDATE proposals SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// AddVoteWeight accumulates cast weight onto the proposal tallies.
func (q queries) AddVoteWeight(id string, yes, no float64) error {
	_, err := q.e.Exec(`
		UPDATE proposals SET yes_weight = yes_weight + ?, no_weight = no_weight + ? WHERE id = ?
	`, yes, no, id)
	return err
}

// ActiveProposals returns all proposals still open for voting, newest first.
func (q queries) ActiveProposals() ([]domain.Proposal, error) {
	return q.queryProposals(`
		SELECT id, author_id, kind, description, funding_amount,
			yes_weight, no_weight, status, created_at, expires_at
		FROM proposals WHERE status = 'active'
		ORDER BY created_at DESC
	`)
}

// ExpiredActiveProposals returns active proposals whose voting period has
// ended at the given instant. Terminal proposals never match, which is what
// makes scheduler-driven resolution idempotent.
func (q queries) ExpiredActiveProposals(now time.Time) ([]domain.Proposal, error) {
	return q.queryProposals(`
		SELECT id, author_id, kind, description, funding_amount,
			yes_weight, no_weight, status, created_at, expires_at
		FROM proposals WHERE status = 'active' AND expires_at <= ?
		ORDER BY expires_at ASC
	`, now.Unix())
}

func (q queries) queryProposals(query string, args ...any) ([]domain.Proposal, error) {
	rows, err := q.e.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (*domain.Proposal, error) {
	var (
		p                  domain.Proposal
		status             string
		createdAt, expires int64
	)
	err := row.Scan(&p.ID, &p.AuthorID, &p.Kind, &p.Description, &p.FundingAmount,
		&p.YesWeight, &p.NoWeight, &status, &createdAt, &expires)
	if err != nil {
		return nil, err
	}
	p.Status = domain.ProposalStatus(status)
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.ExpiresAt = time.Unix(expires, 0).UTC()
	return &p, nil
}

// ─── Votes ──────────────────────────────────────────────────────────────────

// InsertVote records one vote. The (proposal_id, voter_id) primary key makes
// a second cast fail, surfaced as domain.ErrDuplicateVote rather than a
// silent overwrite.
func (q queries) InsertVote(v domain.Vote) error {
	_, err := q.e.Exec(`
		INSERT INTO votes (proposal_id, voter_id, choice, weight, voted_at)
		VALUES (?, ?, ?, ?, ?)
	`, v.ProposalID, v.VoterID, string(v.Choice), v.Weight, v.VotedAt.Unix())
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrDuplicateVote
	}
	return err
}

// HasVoted reports whether the voter already cast a vote on the proposal.
func (q queries) HasVoted(proposalID, voterID string) (bool, error) {
	var n int
	err := q.e.QueryRow(`
		SELECT COUNT(*) FROM votes WHERE proposal_id = ? AND voter_id = ?
	`, proposalID, voterID).Scan(&n)
	return n > 0, err
}

// VoterCount returns the number of distinct voters on a proposal.
func (q queries) VoterCount(proposalID string) (int, error) {
	var n int
	err := q.e.QueryRow(`
		SELECT COUNT(*) FROM votes WHERE proposal_id = ?
	`, proposalID).Scan(&n)
	return n, err
}
