package server

import (
	"net/http"

	"github.com/receiptwise/receiptwise/constants"
	"github.com/receiptwise/receiptwise/internal/analytics"
	"github.com/receiptwise/receiptwise/internal/repository"
)

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	q := r.URL.Query()

	filter := repository.ExpenseFilter{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
	expenses, err := s.expenses.List(user.UserID, filter)
	if err != nil {
		s.logger.Error("analytics list failed", "user_id", user.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, analytics.Summarize(expenses))
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	expenses, err := s.expenses.List(user.UserID, repository.ExpenseFilter{})
	if err != nil {
		s.logger.Error("tags list failed", "user_id", user.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tags": analytics.Tags(expenses)})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"categories": constants.AsStringSlice()})
}
