package entity

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// LineItem is a single purchased item extracted from a receipt.
// Extraction is best-effort: no quantity*unit_price==total invariant is
// enforced.
type LineItem struct {
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Total       *float64 `json:"total,omitempty"`
}

// ScanResult is the validated, schema-conformant record produced from a
// receipt image. It is the only output of the scan pipeline the rest of
// the system consumes.
type ScanResult struct {
	Vendor          string     `json:"vendor"`
	Date            string     `json:"date"` // YYYY-MM-DD
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	Category        string     `json:"category"`
	PaymentMethod   *string    `json:"payment_method,omitempty"`
	ReceiptNumber   *string    `json:"receipt_number,omitempty"`
	LineItems       []LineItem `json:"line_items"`
	ConfidenceScore float64    `json:"confidence_score"` // [0,1]
}

// Expense is an expense record for data transfer between layers.
type Expense struct {
	ExpenseID       string     `json:"expense_id"`
	UserID          string     `json:"user_id"`
	Vendor          string     `json:"vendor"`
	Date            string     `json:"date"` // YYYY-MM-DD
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	Category        string     `json:"category"`
	PaymentMethod   *string    `json:"payment_method,omitempty"`
	ReceiptNumber   *string    `json:"receipt_number,omitempty"`
	LineItems       []LineItem `json:"line_items"`
	Tags            []string   `json:"tags"`
	Notes           *string    `json:"notes,omitempty"`
	ReceiptImage    *string    `json:"receipt_image,omitempty"` // base64 data URL
	ConfidenceScore *float64   `json:"confidence_score,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewExpenseID returns an ID in the exp_<hex12> wire format.
func NewExpenseID() string {
	return "exp_" + shortHex()
}

func shortHex() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:12]
}
