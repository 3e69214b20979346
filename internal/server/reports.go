package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/receiptwise/receiptwise/internal/entity"
	"github.com/receiptwise/receiptwise/internal/repository"
)

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req entity.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Invalid request body")
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "start_date and end_date are required")
		return
	}
	switch req.Format {
	case "", "pdf":
		req.Format = "pdf"
	case "excel":
	default:
		writeError(w, http.StatusBadRequest, "invalid_input", "format must be pdf or excel")
		return
	}

	expenses, err := s.expenses.List(user.UserID, repository.ExpenseFilter{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		s.logger.Error("report list failed", "user_id", user.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	if len(req.Categories) > 0 {
		expenses = filterByCategories(expenses, req.Categories)
	}

	var (
		payload     []byte
		contentType string
		ext         string
	)
	if req.Format == "excel" {
		payload, err = s.exporter.ExcelReport(expenses, req, user.Email)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		ext = "xlsx"
	} else {
		payload, err = s.exporter.PDFReport(expenses, req, user.Email)
		contentType = "application/pdf"
		ext = "pdf"
	}
	if err != nil {
		s.logger.Error("report generation failed", "user_id", user.UserID, "format", req.Format, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Failed to generate report")
		return
	}

	filename := fmt.Sprintf("expense_report_%s_%s.%s", req.StartDate, req.EndDate, ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func filterByCategories(expenses []*entity.Expense, categories []string) []*entity.Expense {
	allowed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowed[c] = struct{}{}
	}
	out := make([]*entity.Expense, 0, len(expenses))
	for _, e := range expenses {
		if _, ok := allowed[e.Category]; ok {
			out = append(out, e)
		}
	}
	return out
}
