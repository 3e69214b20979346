package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/receiptwise/receiptwise/internal/imaging"
	"github.com/receiptwise/receiptwise/internal/llm/anthropic"
	"github.com/receiptwise/receiptwise/internal/scan"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "scan <receipt-image-path>")
		os.Exit(2)
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("reading input", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	extractor := anthropic.NewClient(anthropic.Config{}, logger)
	scanner := scan.NewScanner(extractor, imaging.Limits{}, logger)

	result, err := scanner.Scan(ctx, raw)
	if err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("encoding result", "error", err)
		os.Exit(1)
	}
}
