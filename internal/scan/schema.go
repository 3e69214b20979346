package scan

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildScanResultSchema returns a JSON-Schema (draft 2020-12 subset) for
// the assembled scan result. The parser already applies defaults and
// coercions; this is the final conformance gate before the result leaves
// the pipeline.
func BuildScanResultSchema(allowedCategories []string) map[string]any {
	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string", "minLength": 1},
			"quantity":    map[string]any{"type": "number"},
			"unit_price":  map[string]any{"type": "number"},
			"total":       map[string]any{"type": "number"},
		},
		"required": []string{"description", "quantity"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"vendor":           map[string]any{"type": "string", "minLength": 1},
			"date":             map[string]any{"type": "string", "minLength": 1},
			"amount":           map[string]any{"type": "number", "minimum": 0.0},
			"currency":         map[string]any{"type": "string", "minLength": 1},
			"category":         map[string]any{"type": "string", "enum": allowedCategories},
			"payment_method":   map[string]any{"type": "string"},
			"receipt_number":   map[string]any{"type": "string"},
			"line_items":       map[string]any{"type": "array", "items": lineItem},
			"confidence_score": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"vendor", "date", "amount", "currency", "category", "line_items", "confidence_score"},
	}
}

// ValidateAgainstSchema validates data against schemaMap.
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
