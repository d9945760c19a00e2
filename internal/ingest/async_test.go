package ingest

import (
	"strings"
	"testing"

	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

func manyParagraphs(n int) string {
	paras := make([]string, n)
	for i := range paras {
		paras[i] = strings.Repeat("x", 600) // one paragraph per chunk, forced by exceeding the 500-char cap alone
	}
	return strings.Join(paras, "\n\n")
}

func TestRunBatchResumesAcrossInvocations(t *testing.T) {
	store, err := storage.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	content := manyParagraphs(15)
	task, err := StartAsync(store, content, nil)
	if err != nil {
		t.Fatal(err)
	}
	if task.TotalItems != 15 {
		t.Fatalf("expected 15 chunks, got %d", task.TotalItems)
	}

	first, err := RunBatch(store, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first.Done || first.Remaining != 5 {
		t.Fatalf("expected 5 remaining after first batch of 10, got %+v", first)
	}

	second, err := RunBatch(store, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Done || second.Remaining != 0 {
		t.Fatalf("expected batcher to finish, got %+v", second)
	}

	final, err := store.GetIngestionTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != models.IngestionCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if final.ProcessedItems != 15 {
		t.Fatalf("expected processed_items 15, got %d", final.ProcessedItems)
	}
}

func TestStartAsyncRejectsOversizedContent(t *testing.T) {
	store, err := storage.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	huge := strings.Repeat("a", AsyncMaxInlineBytes+1)
	if _, err := StartAsync(store, huge, nil); err == nil {
		t.Fatal("expected oversized content to be rejected")
	}
}
