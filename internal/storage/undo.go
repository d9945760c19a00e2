package storage

import (
	"database/sql"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/idgen"
	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/txlog"
)

// Undo selects the n most recent non-revert, not-yet-reverted
// transactions, ordered by (created_at desc, id desc) for deterministic
// tie-breaking, and inverts each in a single atomic batch. Undo is
// idempotent: a transaction already stamped reverted_by is never
// revisited, and Undo(1) of an empty log returns an empty list.
func (s *Store) Undo(n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT id, op, entity_type, entity_id, before_snapshot, after_snapshot, reverted_by, created_at
		 FROM transactions
		 WHERE op != ? AND reverted_by IS NULL
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		models.OpRevert, n,
	)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "query undo candidates")
	}
	var targets []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.Op, &t.EntityType, &t.EntityID, &t.BeforeSnapshot, &t.AfterSnapshot, &t.RevertedBy, &t.CreatedAt); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.Internal, err, "scan transaction")
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	reverted := make([]string, 0, len(targets))
	now := idgen.Now()
	for _, t := range targets {
		if err := s.invert(tx, t); err != nil {
			return nil, err
		}

		revertID := idgen.NewID()
		if err := appendTx(tx, models.Transaction{
			ID:             revertID,
			Op:             models.OpRevert,
			EntityType:     t.EntityType,
			EntityID:       t.EntityID,
			BeforeSnapshot: t.AfterSnapshot,
			AfterSnapshot:  t.BeforeSnapshot,
			CreatedAt:      now,
		}); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(`UPDATE transactions SET reverted_by = ? WHERE id = ?`, revertID, t.ID); err != nil {
			return nil, errs.Wrap(errs.Internal, err, "stamp reverted_by")
		}
		reverted = append(reverted, t.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "commit")
	}
	return reverted, nil
}

// invert dispatches on (op, entity_type) to apply the inverse action for
// one transaction. Undo of unknown operation kinds is a no-op — the
// caller still appends the REVERT row and stamps reverted_by.
func (s *Store) invert(tx *sql.Tx, t models.Transaction) error {
	switch t.Op {
	case models.OpCreate:
		return s.invertCreate(tx, t)
	case models.OpDelete:
		return s.invertDelete(tx, t)
	case models.OpUpdate:
		return s.invertUpdate(tx, t)
	case models.OpMerge:
		return s.invertMerge(tx, t)
	default:
		return nil
	}
}

func (s *Store) invertCreate(tx *sql.Tx, t models.Transaction) error {
	now := idgen.Now()
	switch t.EntityType {
	case models.EntityTypeEntry:
		_, err := tx.Exec(`UPDATE entries SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now, t.EntityID)
		return wrapUndoErr(err, "undo create entry")
	case models.EntityTypeTriple:
		_, err := tx.Exec(`UPDATE triples SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now, t.EntityID)
		return wrapUndoErr(err, "undo create triple")
	case models.EntityTypeEntity:
		_, err := tx.Exec(`DELETE FROM canonical_entities WHERE id = ?`, t.EntityID)
		return wrapUndoErr(err, "undo create entity")
	case models.EntityTypeAlias:
		_, err := tx.Exec(`DELETE FROM entity_aliases WHERE id = ?`, t.EntityID)
		return wrapUndoErr(err, "undo create alias")
	}
	return nil
}

func (s *Store) invertDelete(tx *sql.Tx, t models.Transaction) error {
	switch t.EntityType {
	case models.EntityTypeEntry:
		_, err := tx.Exec(`UPDATE entries SET deleted_at = NULL WHERE id = ?`, t.EntityID)
		return wrapUndoErr(err, "undo delete entry")
	case models.EntityTypeTriple:
		_, err := tx.Exec(`UPDATE triples SET deleted_at = NULL WHERE id = ?`, t.EntityID)
		return wrapUndoErr(err, "undo delete triple")
	}
	return nil
}

func (s *Store) invertUpdate(tx *sql.Tx, t models.Transaction) error {
	if t.BeforeSnapshot == nil {
		return nil
	}
	switch t.EntityType {
	case models.EntityTypeEntry:
		snap, err := txlog.UnmarshalEntry(*t.BeforeSnapshot)
		if err != nil {
			return errs.Wrap(errs.Internal, err, "decode entry snapshot")
		}
		e := snapshotToEntry(snap)
		_, err = tx.Exec(
			`UPDATE entries SET topic=?, content=?, tags=?, source=?, actor=?, confidence=?, valid_from=?, valid_to=?, updated_at=? WHERE id=?`,
			e.Topic, e.Content, encodeTags(e.Tags), e.Source, e.Actor, e.Confidence, e.ValidFrom, e.ValidTo, e.UpdatedAt, e.ID,
		)
		return wrapUndoErr(err, "undo update entry")
	case models.EntityTypeTriple:
		snap, err := txlog.UnmarshalTriple(*t.BeforeSnapshot)
		if err != nil {
			return errs.Wrap(errs.Internal, err, "decode triple snapshot")
		}
		tr := snapshotToTriple(snap)
		_, err = tx.Exec(
			`UPDATE triples SET subject=?, predicate=?, object=?, source=?, actor=?, confidence=?, valid_from=?, valid_to=? WHERE id=?`,
			tr.Subject, tr.Predicate, tr.Object, tr.Source, tr.Actor, tr.Confidence, tr.ValidFrom, tr.ValidTo, tr.ID,
		)
		return wrapUndoErr(err, "undo update triple")
	}
	return nil
}

func (s *Store) invertMerge(tx *sql.Tx, t models.Transaction) error {
	if t.BeforeSnapshot == nil {
		return nil
	}
	snap, err := txlog.UnmarshalMerge(*t.BeforeSnapshot)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "decode merge snapshot")
	}
	return s.undoMerge(tx, snap)
}

func wrapUndoErr(err error, msg string) error {
	if err != nil {
		return errs.Wrap(errs.Internal, err, "%s", msg)
	}
	return nil
}
