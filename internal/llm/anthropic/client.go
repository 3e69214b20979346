package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/receiptwise/receiptwise/internal/imaging"
	"github.com/receiptwise/receiptwise/internal/llm"
)

// Extract implements llm.VisionExtractor against the Anthropic Messages
// API. Exactly one request per call: retries are a caller/operational
// concern. The response's first text block is the only thing consumed.
func (c *Client) Extract(ctx context.Context, img *imaging.NormalizedImage, prompt string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"image_bytes", len(img.Bytes),
		"media_type", img.MediaType,
	)

	body := map[string]any{
		"model":      c.cfg.Model,
		"max_tokens": c.cfg.MaxTokens,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{
						"type": "image",
						"source": map[string]any{
							"type":       "base64",
							"media_type": img.MediaType,
							"data":       base64.StdEncoding.EncodeToString(img.Bytes),
						},
					},
					{
						"type": "text",
						"text": prompt,
					},
				},
			},
		},
	}

	bs, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		elapsed := time.Since(start).Milliseconds()
		if isTimeout(ctx, err) {
			c.log.Error("llm.extract.timeout", "req_id", rid, "elapsed_ms", elapsed)
			return "", fmt.Errorf("%w after %s", llm.ErrTimeout, c.cfg.Timeout)
		}
		c.log.Error("llm.extract.transport_error", "req_id", rid, "error", err, "elapsed_ms", elapsed)
		return "", fmt.Errorf("%w: %v", llm.ErrTransport, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warn("llm.extract.body_close_error", "req_id", rid, "error", err)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)

	c.log.Info("llm.extract.response",
		"req_id", rid,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return "", &llm.ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var msg struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text block in provider response")
}

// isTimeout distinguishes the deadline firing from other transport
// failures.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
