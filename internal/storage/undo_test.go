package storage

import "testing"

func TestUndoOnEmptyLogIsANoOp(t *testing.T) {
	s := setupStore(t)

	reverted, err := s.Undo(1)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(reverted) != 0 {
		t.Fatalf("Undo on an empty log = %v, want none", reverted)
	}
}

func TestUndoIsIdempotentAfterFullyReverted(t *testing.T) {
	s := setupStore(t)
	e, err := s.CreateEntry(CreateEntryInput{Topic: "t", Content: "c"})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	var txID string
	if err := s.db.QueryRow(`SELECT id FROM transactions WHERE entity_id = ?`, e.ID).Scan(&txID); err != nil {
		t.Fatalf("lookup create transaction: %v", err)
	}

	first, err := s.Undo(1)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(first) != 1 || first[0] != txID {
		t.Fatalf("Undo(1) = %v, want [%q]", first, txID)
	}
	if _, err := s.GetEntry(e.ID); err == nil {
		t.Fatal("entry should be soft-deleted after undoing its create")
	}

	// The REVERT row just appended is excluded by the op filter, so a
	// second call finds nothing left to undo.
	second, err := s.Undo(1)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second Undo(1) = %v, want none", second)
	}
}

// TestUndoTieBreaksByTransactionIDDesc forces two CREATE transactions onto
// the same instant to exercise the (created_at DESC, id DESC) ordering:
// with timestamps tied, the most recently minted transaction id wins.
func TestUndoTieBreaksByTransactionIDDesc(t *testing.T) {
	s := setupStore(t)

	e1, err := s.CreateEntry(CreateEntryInput{Topic: "first", Content: "c"})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	e2, err := s.CreateEntry(CreateEntryInput{Topic: "second", Content: "c"})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	if _, err := s.db.Exec(
		`UPDATE transactions SET created_at = ? WHERE entity_id IN (?, ?)`,
		"2026-01-01T00:00:00.000Z", e1.ID, e2.ID,
	); err != nil {
		t.Fatalf("force tie: %v", err)
	}

	var e2TxID string
	if err := s.db.QueryRow(`SELECT id FROM transactions WHERE entity_id = ?`, e2.ID).Scan(&e2TxID); err != nil {
		t.Fatalf("lookup e2 transaction: %v", err)
	}

	reverted, err := s.Undo(1)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(reverted) != 1 || reverted[0] != e2TxID {
		t.Fatalf("Undo(1) with tied timestamps = %v, want [%q] (later transaction id wins)", reverted, e2TxID)
	}

	if _, err := s.GetEntry(e2.ID); err == nil {
		t.Error("e2 should have been undone")
	}
	if _, err := s.GetEntry(e1.ID); err != nil {
		t.Errorf("e1 should remain active: %v", err)
	}
}
