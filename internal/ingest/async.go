package ingest

import (
	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

// AsyncMaxInlineBytes bounds the content a caller may hand to the async
// path inline; larger inputs must be pre-chunked by the caller.
const AsyncMaxInlineBytes = 900_000

// AsyncBatchSize is the number of chunks processed per batcher invocation.
const AsyncBatchSize = 10

// StartAsync records a pending task holding content inline for the
// batcher to resume against.
func StartAsync(store *storage.Store, content string, source *string) (*models.IngestionTask, error) {
	if len(content) > AsyncMaxInlineBytes {
		return nil, errs.Validationf("content exceeds the %d byte inline cap; pre-chunk before ingesting", AsyncMaxInlineBytes)
	}
	chunks := Chunk(content)
	if len(chunks) == 0 {
		return nil, errs.Validationf("content produced no chunks")
	}
	return store.CreateAsyncIngestionTask(content, source, len(chunks))
}

// BatchResult reports what one batcher invocation did.
type BatchResult struct {
	TaskID            string
	EntriesCreated    int
	DuplicatesSkipped int
	Remaining         int
	Done              bool
}

// RunBatch processes up to AsyncBatchSize chunks starting at the task's
// current processed_items, advancing the counter after each chunk
// commits so a crash mid-batch resumes cleanly. Marks the task completed
// when no chunks remain.
func RunBatch(store *storage.Store, taskID string) (*BatchResult, error) {
	task, err := store.GetIngestionTask(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == models.IngestionCompleted || task.Status == models.IngestionFailed {
		return &BatchResult{TaskID: taskID, Done: true}, nil
	}
	if task.Content == nil {
		_, failErr := store.FailIngestionTask(taskID, "ingestion task has no inline content")
		if failErr != nil {
			return nil, failErr
		}
		return nil, errs.Validationf("ingestion task %q has no inline content", taskID)
	}

	chunks := Chunk(*task.Content)
	start := task.ProcessedItems
	end := start + AsyncBatchSize
	if end > len(chunks) {
		end = len(chunks)
	}

	created, skipped := 0, 0
	for i := start; i < end; i++ {
		wasCreated, err := ingestChunk(store, taskID, chunks[i], task.Source)
		if err != nil {
			store.FailIngestionTask(taskID, err.Error())
			return nil, err
		}
		if wasCreated {
			created++
		} else {
			skipped++
		}
		if _, err := store.AdvanceIngestionTask(taskID, 1); err != nil {
			return nil, err
		}
	}

	remaining := len(chunks) - end
	done := remaining <= 0
	if done {
		if _, err := store.CompleteIngestionTask(taskID); err != nil {
			return nil, err
		}
	}

	return &BatchResult{
		TaskID:            taskID,
		EntriesCreated:    created,
		DuplicatesSkipped: skipped,
		Remaining:         remaining,
		Done:              done,
	}, nil
}
