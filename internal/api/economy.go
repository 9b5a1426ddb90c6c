package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/domain"
)

// ─── Status & accounts ──────────────────────────────────────────────────────

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Status()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.Account(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// parseLimit reads the ?limit query parameter, defaulting to 50. On a bad
// value it writes the error response and reports false.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": "limit must be an integer between 1 and 500",
			})
			return 0, false
		}
		limit = n
	}
	return limit, true
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	txs, err := s.engine.Transactions(chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"count":        len(txs),
	})
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	txs, err := s.engine.RecentTransactions(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"count":        len(txs),
	})
}

// ─── Ledger ─────────────────────────────────────────────────────────────────

type creditRequest struct {
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
	Note      string  `json:"note"`
}

func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	balance, err := s.engine.Credit(req.AccountID, req.Amount, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": req.AccountID,
		"balance":    balance,
	})
}

func (s *Server) handleDebit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	balance, err := s.engine.Debit(req.AccountID, req.Amount, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": req.AccountID,
		"balance":    balance,
	})
}

type transferRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Note   string  `json:"note"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	res, err := s.engine.Transfer(req.From, req.To, req.Amount, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Staking ────────────────────────────────────────────────────────────────

type stakeRequest struct {
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	res, err := s.engine.Stake(req.AccountID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	res, err := s.engine.Unstake(req.AccountID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Governance ─────────────────────────────────────────────────────────────

type proposalRequest struct {
	AuthorID      string  `json:"author_id"`
	Kind          string  `json:"kind"`
	Description   string  `json:"description"`
	FundingAmount float64 `json:"funding_amount"`
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req proposalRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	p, err := s.engine.CreateProposal(req.AuthorID, req.Kind, req.Description, req.FundingAmount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := s.engine.ActiveProposals()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"proposals": proposals,
		"count":     len(proposals),
	})
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.Proposal(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type voteRequest struct {
	VoterID string `json:"voter_id"`
	Choice  string `json:"choice"`
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	weight, err := s.engine.CastVote(chi.URLParam(r, "id"), req.VoterID, domain.VoteChoice(req.Choice))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"proposal_id": chi.URLParam(r, "id"),
		"voter_id":    req.VoterID,
		"weight":      weight,
	})
}

// ─── Reserve & gravity ──────────────────────────────────────────────────────

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.ReserveStatus()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type reserveRequest struct {
	Liters float64 `json:"liters"`
	Source string  `json:"source"`
}

func (s *Server) handleAddReserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	total, err := s.engine.AddReserve(req.Liters, req.Source)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"water_liters": total,
	})
}

func (s *Server) handleGravity(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.GravityStats(time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
