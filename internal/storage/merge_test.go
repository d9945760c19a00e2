package storage

import (
	"strings"
	"testing"
)

func TestMergeEntitiesRejectsSelfMerge(t *testing.T) {
	s := setupStore(t)
	e, err := s.CreateEntity("Solo")
	if err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	if _, err := s.MergeEntities(e.ID, e.ID); err == nil {
		t.Fatal("expected error merging an entity with itself")
	}
}

// TestMergeAndUndoRoundTrip merges two entities that each carry a triple, an
// entry, and an alias, then undoes the merge and checks every rewritten row
// lands back exactly where it started.
func TestMergeAndUndoRoundTrip(t *testing.T) {
	s := setupStore(t)

	keep, err := s.CreateEntity("Keep")
	if err != nil {
		t.Fatalf("CreateEntity(Keep): %v", err)
	}
	merge, err := s.CreateEntity("Merge")
	if err != nil {
		t.Fatalf("CreateEntity(Merge): %v", err)
	}
	if _, err := s.AddAlias(merge.ID, "Other Alias"); err != nil {
		t.Fatalf("AddAlias: %v", err)
	}

	subjTriple, err := s.CreateTriple(CreateTripleInput{Subject: merge.Name, Predicate: "likes", Object: "coffee"})
	if err != nil {
		t.Fatalf("CreateTriple (subject): %v", err)
	}
	objTriple, err := s.CreateTriple(CreateTripleInput{Subject: "coffee", Predicate: "likedBy", Object: merge.Name})
	if err != nil {
		t.Fatalf("CreateTriple (object): %v", err)
	}

	entry, err := s.CreateEntry(CreateEntryInput{Topic: "t", Content: "c"})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE entries SET canonical_entity_id = ? WHERE id = ?`, merge.ID, entry.ID); err != nil {
		t.Fatalf("attach entry to merge entity: %v", err)
	}

	origMergeCreatedAt := merge.CreatedAt

	if _, err := s.MergeEntities(keep.ID, merge.ID); err != nil {
		t.Fatalf("MergeEntities: %v", err)
	}

	// -- post-merge --
	if _, err := s.GetEntity(merge.ID); err == nil {
		t.Fatal("merged entity should be gone")
	}
	gotSubj, err := s.GetTriple(subjTriple.ID)
	if err != nil {
		t.Fatalf("GetTriple: %v", err)
	}
	if gotSubj.Subject != keep.Name {
		t.Errorf("subject triple Subject = %q, want %q", gotSubj.Subject, keep.Name)
	}
	gotObj, err := s.GetTriple(objTriple.ID)
	if err != nil {
		t.Fatalf("GetTriple: %v", err)
	}
	if gotObj.Object != keep.Name {
		t.Errorf("object triple Object = %q, want %q", gotObj.Object, keep.Name)
	}
	gotEntry, err := s.GetEntry(entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if gotEntry.CanonicalEntityID == nil || *gotEntry.CanonicalEntityID != keep.ID {
		t.Errorf("entry canonical_entity_id after merge = %v, want %q", gotEntry.CanonicalEntityID, keep.ID)
	}
	if resolved, err := s.ResolveExact("other alias"); err != nil || resolved.ID != keep.ID {
		t.Errorf("ResolveExact(other alias) after merge = %v, %v, want %q", resolved, err, keep.ID)
	}
	if resolved, err := s.ResolveExact(strings.ToLower(merge.Name)); err != nil || resolved.ID != keep.ID {
		t.Errorf("ResolveExact(merge name) after merge = %v, %v, want %q", resolved, err, keep.ID)
	}

	// -- undo --
	var mergeTxID string
	if err := s.db.QueryRow(
		`SELECT id FROM transactions WHERE op = 'MERGE' AND entity_id = ?`, keep.ID,
	).Scan(&mergeTxID); err != nil {
		t.Fatalf("lookup merge transaction (recorded against keep_id): %v", err)
	}
	reverted, err := s.Undo(1)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(reverted) != 1 || reverted[0] != mergeTxID {
		t.Fatalf("Undo(1) = %v, want [%q] (the merge transaction's id)", reverted, mergeTxID)
	}

	restored, err := s.GetEntity(merge.ID)
	if err != nil {
		t.Fatalf("merged entity should be restored: %v", err)
	}
	if restored.Name != merge.Name {
		t.Errorf("restored Name = %q, want %q", restored.Name, merge.Name)
	}
	if restored.CreatedAt != origMergeCreatedAt {
		t.Errorf("restored CreatedAt = %q, want %q", restored.CreatedAt, origMergeCreatedAt)
	}

	gotSubj, err = s.GetTriple(subjTriple.ID)
	if err != nil {
		t.Fatalf("GetTriple after undo: %v", err)
	}
	if gotSubj.Subject != merge.Name {
		t.Errorf("subject triple Subject after undo = %q, want %q", gotSubj.Subject, merge.Name)
	}
	gotObj, err = s.GetTriple(objTriple.ID)
	if err != nil {
		t.Fatalf("GetTriple after undo: %v", err)
	}
	if gotObj.Object != merge.Name {
		t.Errorf("object triple Object after undo = %q, want %q", gotObj.Object, merge.Name)
	}
	gotEntry, err = s.GetEntry(entry.ID)
	if err != nil {
		t.Fatalf("GetEntry after undo: %v", err)
	}
	if gotEntry.CanonicalEntityID == nil || *gotEntry.CanonicalEntityID != merge.ID {
		t.Errorf("entry canonical_entity_id after undo = %v, want %q", gotEntry.CanonicalEntityID, merge.ID)
	}
	if resolved, err := s.ResolveExact("other alias"); err != nil || resolved.ID != merge.ID {
		t.Errorf("ResolveExact(other alias) after undo = %v, %v, want %q", resolved, err, merge.ID)
	}
	if resolved, err := s.ResolveExact(strings.ToLower(merge.Name)); err != nil || resolved.ID != merge.ID {
		t.Errorf("ResolveExact(merge name) after undo = %v, %v, want %q", resolved, err, merge.ID)
	}
}
