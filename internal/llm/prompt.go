package llm

import (
	"fmt"
	"strings"
)

// BuildScanPrompt composes the fixed structured-extraction instruction.
// The taxonomy is spelled out verbatim so the model is constrained to
// known categories; keep it in sync with constants.Categories
// (prompt-as-contract).
func BuildScanPrompt(categories []string) string {
	return fmt.Sprintf(`Analyze this receipt image and extract the following information. Return a JSON object with these fields:

{
    "vendor": "Store/merchant name",
    "date": "YYYY-MM-DD format",
    "amount": 0.00,
    "currency": "USD",
    "category": "One of: %s",
    "payment_method": "Cash/Credit Card/Debit Card/etc or null",
    "receipt_number": "Receipt/transaction number or null",
    "line_items": [
        {"description": "Item name", "quantity": 1, "unit_price": 0.00, "total": 0.00}
    ],
    "confidence_score": 0.0 to 1.0 (how confident you are in the extraction)
}

Be precise with the amount. If you can't read something clearly, make your best guess and lower the confidence score.
Only return valid JSON, no other text.`, strings.Join(categories, ", "))
}
