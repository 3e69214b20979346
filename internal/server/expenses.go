package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/receiptwise/receiptwise/internal/common"
	"github.com/receiptwise/receiptwise/internal/entity"
	"github.com/receiptwise/receiptwise/internal/repository"
)

// expenseCreateRequest is the write shape for POST /api/expenses.
type expenseCreateRequest struct {
	Vendor          string            `json:"vendor"`
	Date            string            `json:"date"`
	Amount          float64           `json:"amount"`
	Currency        string            `json:"currency"`
	Category        string            `json:"category"`
	PaymentMethod   *string           `json:"payment_method,omitempty"`
	ReceiptNumber   *string           `json:"receipt_number,omitempty"`
	LineItems       []entity.LineItem `json:"line_items"`
	Tags            []string          `json:"tags"`
	Notes           *string           `json:"notes,omitempty"`
	ReceiptImage    *string           `json:"receipt_image,omitempty"`
	ConfidenceScore *float64          `json:"confidence_score,omitempty"`
}

// expenseUpdateRequest carries only the fields to change; nil means
// "leave as is".
type expenseUpdateRequest struct {
	Vendor        *string            `json:"vendor,omitempty"`
	Date          *string            `json:"date,omitempty"`
	Amount        *float64           `json:"amount,omitempty"`
	Currency      *string            `json:"currency,omitempty"`
	Category      *string            `json:"category,omitempty"`
	PaymentMethod *string            `json:"payment_method,omitempty"`
	ReceiptNumber *string            `json:"receipt_number,omitempty"`
	LineItems     *[]entity.LineItem `json:"line_items,omitempty"`
	Tags          *[]string          `json:"tags,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req expenseCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Invalid request body")
		return
	}
	if req.Vendor == "" || req.Date == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "vendor and date are required")
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	if req.LineItems == nil {
		req.LineItems = []entity.LineItem{}
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	now := time.Now().UTC()
	exp := &entity.Expense{
		ExpenseID:       entity.NewExpenseID(),
		UserID:          user.UserID,
		Vendor:          req.Vendor,
		Date:            req.Date,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Category:        req.Category,
		PaymentMethod:   req.PaymentMethod,
		ReceiptNumber:   req.ReceiptNumber,
		LineItems:       req.LineItems,
		Tags:            req.Tags,
		Notes:           req.Notes,
		ReceiptImage:    req.ReceiptImage,
		ConfidenceScore: req.ConfidenceScore,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.expenses.Create(user.UserID, exp); err != nil {
		s.logger.Error("create expense failed", "user_id", user.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"expense_id": exp.ExpenseID,
		"message":    "Expense created successfully",
	})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	q := r.URL.Query()

	filter := repository.ExpenseFilter{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Category:  q.Get("category"),
		Vendor:    q.Get("vendor"),
		Tag:       q.Get("tag"),
		Search:    q.Get("search"),
	}
	if v := q.Get("min_amount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "min_amount must be a number")
			return
		}
		filter.MinAmount = &f
	}
	if v := q.Get("max_amount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "max_amount must be a number")
			return
		}
		filter.MaxAmount = &f
	}

	expenses, err := s.expenses.List(user.UserID, filter)
	if err != nil {
		s.logger.Error("list expenses failed", "user_id", user.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	exp, err := s.expenses.GetByID(user.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Expense not found")
			return
		}
		s.logger.Error("get expense failed", "user_id", user.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req expenseUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Invalid request body")
		return
	}

	exp, err := s.expenses.GetByID(user.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Expense not found")
			return
		}
		s.logger.Error("get expense failed", "user_id", user.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}

	applyUpdate(exp, req)
	exp.UpdatedAt = time.Now().UTC()

	if err := s.expenses.Update(user.UserID, exp); err != nil {
		s.logger.Error("update expense failed", "user_id", user.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Expense updated successfully"})
}

func applyUpdate(exp *entity.Expense, req expenseUpdateRequest) {
	if req.Vendor != nil {
		exp.Vendor = *req.Vendor
	}
	if req.Date != nil {
		exp.Date = *req.Date
	}
	if req.Amount != nil {
		exp.Amount = *req.Amount
	}
	if req.Currency != nil {
		exp.Currency = *req.Currency
	}
	if req.Category != nil {
		exp.Category = *req.Category
	}
	if req.PaymentMethod != nil {
		exp.PaymentMethod = req.PaymentMethod
	}
	if req.ReceiptNumber != nil {
		exp.ReceiptNumber = req.ReceiptNumber
	}
	if req.LineItems != nil {
		exp.LineItems = *req.LineItems
	}
	if req.Tags != nil {
		exp.Tags = *req.Tags
	}
	if req.Notes != nil {
		exp.Notes = req.Notes
	}
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	err := s.expenses.Delete(user.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Expense not found")
			return
		}
		s.logger.Error("delete expense failed", "user_id", user.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}

func (s *Server) handleBulkDeleteExpenses(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var body struct {
		ExpenseIDs []string `json:"expense_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Invalid request body")
		return
	}

	deleted, err := s.expenses.BulkDelete(user.UserID, body.ExpenseIDs)
	if err != nil {
		s.logger.Error("bulk delete failed", "user_id", user.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted_count": deleted})
}
