package conflict

import (
	"context"
	"fmt"
	"testing"

	"github.com/wagneradl/knowledge-mcp/internal/models"
)

func TestCacheInMemoryPutGet(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()
	info := models.ConflictInfo{ConflictID: "c1", Subject: "s", Predicate: "p"}
	if err := c.Put(ctx, info); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ConflictID != "c1" {
		t.Fatalf("unexpected conflict: %+v", got)
	}
}

func TestCacheInMemoryEvictsOldestOnOverflow(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()
	for i := 0; i < memCapacity+1; i++ {
		id := fmt.Sprintf("c%d", i)
		if err := c.Put(ctx, models.ConflictInfo{ConflictID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := c.Get(ctx, "c0"); err == nil {
		t.Fatal("expected first-inserted entry to be evicted")
	}
	if _, err := c.Get(ctx, fmt.Sprintf("c%d", memCapacity)); err != nil {
		t.Fatal("expected most recent entry to remain cached")
	}
}
