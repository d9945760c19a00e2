package ingest

import (
	"fmt"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

const (
	SyncMaxChars  = 5000
	SyncMaxChunks = 20
)

// SyncResult reports the outcome of a synchronous ingestion.
type SyncResult struct {
	TaskID          string
	EntriesCreated  int
	DuplicatesSkipped int
}

// IsSyncEligible reports whether content qualifies for the synchronous
// path: at most SyncMaxChars characters and at most SyncMaxChunks chunks.
func IsSyncEligible(content string) bool {
	if len(content) > SyncMaxChars {
		return false
	}
	return len(Chunk(content)) <= SyncMaxChunks
}

// Sync ingests content inline: creates a processing task, writes one entry
// per non-duplicate chunk, advances processed_items per chunk, and marks
// the task completed.
func Sync(store *storage.Store, content string, source *string) (*SyncResult, error) {
	chunks := Chunk(content)
	if len(chunks) == 0 {
		return nil, errs.Validationf("content produced no chunks")
	}

	task, err := store.CreateIngestionTask(source, len(chunks))
	if err != nil {
		return nil, err
	}

	created, skipped := 0, 0
	for _, chunk := range chunks {
		wasCreated, err := ingestChunk(store, task.ID, chunk, source)
		if err != nil {
			store.FailIngestionTask(task.ID, err.Error())
			return nil, err
		}
		if wasCreated {
			created++
		} else {
			skipped++
		}
		if _, err := store.AdvanceIngestionTask(task.ID, 1); err != nil {
			return nil, err
		}
	}

	if _, err := store.CompleteIngestionTask(task.ID); err != nil {
		return nil, err
	}

	return &SyncResult{TaskID: task.ID, EntriesCreated: created, DuplicatesSkipped: skipped}, nil
}

// ingestChunk dedups chunk against active entries by exact content match;
// on no match it mints a new entry and reports true.
func ingestChunk(store *storage.Store, taskID, chunk string, source *string) (bool, error) {
	if _, err := store.FindActiveEntryByContent(chunk); err == nil {
		return false, nil
	} else if errs.KindOf(err) != errs.NotFound {
		return false, err
	}

	entrySource := source
	if entrySource == nil {
		s := fmt.Sprintf("ingestion:%s", taskID)
		entrySource = &s
	}
	_, err := store.CreateEntry(storage.CreateEntryInput{
		Topic:   FirstLineTopic(chunk),
		Content: chunk,
		Tags:    []string{"ingested"},
		Source:  entrySource,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
