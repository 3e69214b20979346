package repository

import (
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"
)

const (
	expensesBucket = "expenses"
	usersBucket    = "users"
	sessionsBucket = "sessions"
)

// Open opens the bbolt document store and ensures all buckets exist.
func Open(path string, timeout time.Duration, logger *slog.Logger) (*bbolt.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening database", "path", path)

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{expensesBucket, usersBucket, sessionsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	logger.Info("database opened")
	return db, nil
}

// Close closes the store gracefully.
func Close(db *bbolt.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
		return
	}
	logger.Info("database closed")
}
