package ingest

import (
	"testing"

	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

func TestSyncCreatesEntriesAndDedupes(t *testing.T) {
	store, err := storage.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	content := "Paragraph one.\n\nParagraph two."
	result, err := Sync(store, content, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.EntriesCreated != 1 {
		t.Fatalf("expected 1 chunk merged under the char cap, got %d entries", result.EntriesCreated)
	}

	task, err := store.GetIngestionTask(result.TaskID)
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != models.IngestionCompleted {
		t.Fatalf("expected task completed, got %s", task.Status)
	}

	result2, err := Sync(store, content, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result2.DuplicatesSkipped != 1 || result2.EntriesCreated != 0 {
		t.Fatalf("expected the second ingest to dedup, got %+v", result2)
	}
}

func TestIsSyncEligible(t *testing.T) {
	if !IsSyncEligible("short content") {
		t.Fatal("expected short content to be sync-eligible")
	}
	huge := ""
	for i := 0; i < SyncMaxChars+1; i++ {
		huge += "a"
	}
	if IsSyncEligible(huge) {
		t.Fatal("expected oversized content to be ineligible")
	}
}
