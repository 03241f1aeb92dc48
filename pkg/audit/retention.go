package audit

import (
	"context"
	"log/slog"
	"time"
)

// RunRetention periodically deletes audit records older than retentionDays.
// It blocks until the context is cancelled. A non-positive retention
// disables cleanup.
func RunRetention(ctx context.Context, store *Store, retentionDays int, logger *slog.Logger) {
	if retentionDays <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -retentionDays)
			deleted, err := store.DeleteOlderThan(cutoff)
			if err != nil {
				logger.Error("audit retention cleanup failed", "error", err)
			} else if deleted > 0 {
				logger.Info("audit retention cleanup", "deleted", deleted, "cutoff", cutoff)
			}
		}
	}
}
