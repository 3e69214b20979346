package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/receiptwise/receiptwise/constants"
	"github.com/receiptwise/receiptwise/internal/entity"
	"github.com/receiptwise/receiptwise/internal/imaging"
	"github.com/receiptwise/receiptwise/internal/llm"
)

// Scanner runs the receipt-to-structured-data pipeline: normalize the
// image, call the vision provider, parse the response tolerantly,
// normalize the category, and assemble the final result. Each Scan call
// is an independent invocation; the only shared state is the immutable
// taxonomy and the injected extractor.
type Scanner struct {
	extractor llm.VisionExtractor
	limits    imaging.Limits
	prompt    string
	schema    map[string]any
	logger    *slog.Logger
}

// NewScanner wires the pipeline. The taxonomy is fixed for the process
// lifetime, so the prompt and result schema are built once here. Zero
// limits fall back to the imaging package defaults.
func NewScanner(extractor llm.VisionExtractor, limits imaging.Limits, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	cats := constants.AsStringSlice()
	return &Scanner{
		extractor: extractor,
		limits:    limits,
		prompt:    llm.BuildScanPrompt(cats),
		schema:    BuildScanResultSchema(cats),
		logger:    logger,
	}
}

// Scan processes one receipt upload end to end. Errors keep their kind
// (imaging.ErrUnsupportedFormat, imaging.ErrDecode, llm.ErrTransport,
// llm.ErrTimeout, *llm.ProviderError, ErrMalformedResponse) so the
// caller can map them to meaningful responses.
func (s *Scanner) Scan(ctx context.Context, raw []byte) (*entity.ScanResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	img, err := imaging.Normalize(raw, s.limits)
	if err != nil {
		s.logger.Error("scan.normalize_failed", "req_id", rid, "error", err)
		return nil, err
	}
	s.logger.Info("scan.image_normalized",
		"req_id", rid,
		"bytes", len(img.Bytes),
		"width", img.Width,
		"height", img.Height,
		"encode_attempts", img.Attempts,
	)

	text, err := s.extractor.Extract(ctx, img, s.prompt)
	if err != nil {
		s.logger.Error("scan.extract_failed", "req_id", rid, "error", err)
		return nil, err
	}

	result, err := Parse(text)
	if err != nil {
		s.logger.Error("scan.parse_failed", "req_id", rid, "error", err, "raw_len", len(text))
		return nil, err
	}
	result.Category = string(constants.Normalize(result.Category))

	doc, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	if err := ValidateAgainstSchema(s.schema, doc); err != nil {
		s.logger.Error("scan.schema_validation_failed", "req_id", rid, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	s.logger.Info("scan.ok",
		"req_id", rid,
		"vendor", result.Vendor,
		"amount", result.Amount,
		"category", result.Category,
		"confidence", result.ConfidenceScore,
		"line_items", len(result.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
