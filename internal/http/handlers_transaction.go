package http

import (
	"net/http"
	"sync/atomic"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/auth"
)

// owner returns the id of the authenticated caller. Routes using it sit
// behind RequireUser, so a missing user is a wiring bug.
func owner(r *http.Request) string {
	u, _ := auth.UserFromContext(r.Context())
	return u.ID
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	req := ParsePageRequest(r.URL.Query())
	page, err := s.tx.List(r.Context(), owner(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Transactions listed",
		applog.FieldOperation, applog.OpList,
		applog.FieldPage, page.CurrentPage,
		applog.FieldPageSize, req.Size,
		applog.FieldCount, len(page.Items))
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.tx.Get(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.tx.Create(r.Context(), owner(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.transactionsMade, 1)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.tx.Update(r.Context(), owner(r), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.transactionsEdited, 1)
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.tx.Delete(r.Context(), owner(r), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.transactionsGone, 1)
	writeMessage(w, http.StatusOK, "Transaction deleted successfully")
}

// summaryResponse adds the ranked breakdown to the category totals.
type summaryResponse struct {
	core.CategorySummary
	Breakdown []core.CategoryAmount `json:"breakdown"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.tx.Summarize(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{CategorySummary: sum, Breakdown: sum.Breakdown()})
}
