package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

// ChangeNotifier is notified whenever a batch commits new or deduplicated
// entries, so downstream collaborators (embedding sync, cache
// invalidation) can react.
type ChangeNotifier interface {
	NotifyChange(taskID string, entriesCreated int)
}

// Scheduler drives the async batcher for a single task: it repeatedly
// calls RunBatch, re-enqueueing itself with a short delay whenever chunks
// remain, until the task is done. It is invoked under the same
// single-writer assumption as the rest of the ingestion pipeline — never
// run two schedulers against the same task concurrently.
type Scheduler struct {
	store    *storage.Store
	notifier ChangeNotifier
	logger   *zap.Logger
	delay    time.Duration
}

// NewScheduler builds a Scheduler. notifier may be nil.
func NewScheduler(store *storage.Store, notifier ChangeNotifier, logger *zap.Logger, delay time.Duration) *Scheduler {
	if delay <= 0 {
		delay = time.Second
	}
	return &Scheduler{store: store, notifier: notifier, logger: logger.Named("ingest.scheduler"), delay: delay}
}

// Run drives taskID to completion or failure, sleeping delay between
// batches. Returns when the task finishes or ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, taskID string) error {
	for {
		result, err := RunBatch(s.store, taskID)
		if err != nil {
			s.logger.Error("batch failed", zap.String("task_id", taskID), zap.Error(err))
			return err
		}
		if (result.EntriesCreated > 0 || result.DuplicatesSkipped > 0) && s.notifier != nil {
			s.notifier.NotifyChange(taskID, result.EntriesCreated)
		}
		s.logger.Debug("batch processed",
			zap.String("task_id", taskID),
			zap.Int("created", result.EntriesCreated),
			zap.Int("skipped", result.DuplicatesSkipped),
			zap.Int("remaining", result.Remaining))

		if result.Done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.delay):
		}
	}
}
