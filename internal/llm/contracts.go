package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/receiptwise/receiptwise/internal/imaging"
)

// VisionExtractor is the capability interface the scan pipeline depends
// on: one synchronous request/response call to a multimodal provider
// that reads the receipt image and returns the model's raw text. Tests
// substitute a deterministic stub so the pipeline runs without network
// access.
type VisionExtractor interface {
	Extract(ctx context.Context, img *imaging.NormalizedImage, prompt string) (string, error)
}

var (
	// ErrTransport means the request never produced an HTTP response
	// (DNS, TLS, connection reset).
	ErrTransport = errors.New("provider transport error")

	// ErrTimeout means the provider did not respond within the call
	// bound.
	ErrTimeout = errors.New("provider call timed out")
)

// ProviderError is a non-2xx response from the vision provider,
// surfaced with status and best-effort body rather than swallowed.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}
