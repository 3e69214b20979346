package scan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/receiptwise/receiptwise/internal/entity"
)

// ErrMalformedResponse means the provider returned something that could
// not be parsed into a valid extraction. Treated as a service-level
// failure, not a caller fault: the caller supplied a valid image.
var ErrMalformedResponse = errors.New("malformed provider response")

const defaultConfidence = 0.5

// Parse turns the provider's raw text into a ScanResult. Every field
// has an explicit default-on-absence policy; anything outside that
// tolerance fails with ErrMalformedResponse.
func Parse(raw string) (*entity.ScanResult, error) {
	text := StripFence(raw)

	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	items, err := parseLineItems(fields["line_items"])
	if err != nil {
		return nil, err
	}

	result := &entity.ScanResult{
		Vendor:          stringOr(fields["vendor"], "Unknown"),
		Date:            stringOr(fields["date"], time.Now().Format("2006-01-02")),
		Amount:          numberOr(fields["amount"], 0),
		Currency:        stringOr(fields["currency"], "USD"),
		Category:        stringOr(fields["category"], "Other"),
		PaymentMethod:   optionalString(fields["payment_method"]),
		ReceiptNumber:   optionalString(fields["receipt_number"]),
		LineItems:       items,
		ConfidenceScore: clamp01(numberOr(fields["confidence_score"], defaultConfidence)),
	}
	return result, nil
}

// StripFence removes a single level of Markdown code fencing, taking
// only the content between the first matching pair of delimiters. Raw
// text without fencing passes through untouched.
func StripFence(text string) string {
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+len("```"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(text)
}

// parseLineItems validates each element against the LineItem shape.
// One malformed element fails the whole parse: partial line-item
// recovery would silently misrepresent the receipt.
func parseLineItems(v any) ([]entity.LineItem, error) {
	if v == nil {
		return []entity.LineItem{}, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: line_items is not an array", ErrMalformedResponse)
	}

	items := make([]entity.LineItem, 0, len(arr))
	for i, el := range arr {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: line_items[%d] is not an object", ErrMalformedResponse, i)
		}
		desc, ok := obj["description"].(string)
		if !ok || desc == "" {
			return nil, fmt.Errorf("%w: line_items[%d] missing description", ErrMalformedResponse, i)
		}
		items = append(items, entity.LineItem{
			Description: desc,
			Quantity:    numberOr(obj["quantity"], 1),
			UnitPrice:   optionalNumber(obj["unit_price"]),
			Total:       optionalNumber(obj["total"]),
		})
	}
	return items, nil
}

// stringOr returns v when it is text; anything else counts as absent.
func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

// numberOr coerces v to a number. Numeric strings parse (unambiguous);
// any other shape counts as absent.
func numberOr(v any, def float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return def
}

func optionalString(v any) *string {
	if s, ok := v.(string); ok && s != "" {
		return &s
	}
	return nil
}

func optionalNumber(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return &f
		}
	}
	return nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
