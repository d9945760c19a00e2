package storage

import (
	"database/sql"
	"strings"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/idgen"
	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/txlog"
)

// MergeResult reports how many triples were rewritten by a merge.
type MergeResult struct {
	KeepID      string
	MergeID     string
	MergedCount int
}

// MergeEntities absorbs merge_id into keep_id: rewrites every triple's
// subject/object from merge_name to keep_name, reassigns entries' and
// aliases' canonical_entity_id, inserts a lowercase alias mapping
// merge_name to keep_id, and deletes the merged entity row. The exact set
// of affected row ids is recorded on the MERGE transaction so undo can
// reverse per-row rather than by a naive bulk rewrite.
func (s *Store) MergeEntities(keepID, mergeID string) (*MergeResult, error) {
	if keepID == mergeID {
		return nil, errs.Validationf("cannot merge an entity with itself")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	keep, err := s.getEntityTx(tx, keepID)
	if err != nil {
		return nil, err
	}
	merge, err := s.getEntityTx(tx, mergeID)
	if err != nil {
		return nil, err
	}

	subjIDs, err := queryIDs(tx, `SELECT id FROM triples WHERE subject = ? AND deleted_at IS NULL`, merge.Name)
	if err != nil {
		return nil, err
	}
	objIDs, err := queryIDs(tx, `SELECT id FROM triples WHERE object = ? AND deleted_at IS NULL`, merge.Name)
	if err != nil {
		return nil, err
	}
	entryIDs, err := queryIDs(tx, `SELECT id FROM entries WHERE canonical_entity_id = ? AND deleted_at IS NULL`, mergeID)
	if err != nil {
		return nil, err
	}
	aliasIDs, err := queryIDs(tx, `SELECT id FROM entity_aliases WHERE canonical_entity_id = ?`, mergeID)
	if err != nil {
		return nil, err
	}

	mergedSet := map[string]bool{}
	for _, id := range subjIDs {
		mergedSet[id] = true
	}
	for _, id := range objIDs {
		mergedSet[id] = true
	}

	now := idgen.Now()
	insertedAliasID := idgen.NewID()

	snap := txlog.MergeSnapshot{
		KeepID:          keepID,
		KeepName:        keep.Name,
		MergeID:         mergeID,
		MergeName:       merge.Name,
		MergeCreatedAt:  merge.CreatedAt,
		SubjTripleIDs:   subjIDs,
		ObjTripleIDs:    objIDs,
		MergeEntryIDs:   entryIDs,
		MergeAliasIDs:   aliasIDs,
		InsertedAliasID: insertedAliasID,
	}
	before, err := txlog.Marshal(snap)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshal snapshot")
	}
	if err := appendTx(tx, models.Transaction{
		Op: models.OpMerge, EntityType: models.EntityTypeEntity, EntityID: keepID,
		BeforeSnapshot: &before, CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	if err := execEachID(tx, subjIDs, `UPDATE triples SET subject = ? WHERE id = ?`, keep.Name); err != nil {
		return nil, err
	}
	if err := execEachID(tx, objIDs, `UPDATE triples SET object = ? WHERE id = ?`, keep.Name); err != nil {
		return nil, err
	}
	if err := execEachID(tx, entryIDs, `UPDATE entries SET canonical_entity_id = ? WHERE id = ?`, keepID); err != nil {
		return nil, err
	}
	if err := execEachID(tx, aliasIDs, `UPDATE entity_aliases SET canonical_entity_id = ? WHERE id = ?`, keepID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		`INSERT INTO entity_aliases (id, alias, canonical_entity_id, created_at) VALUES (?, ?, ?, ?)`,
		insertedAliasID, strings.ToLower(merge.Name), keepID, now,
	); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "insert merge alias")
	}

	if _, err := tx.Exec(`DELETE FROM canonical_entities WHERE id = ?`, mergeID); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "delete merged entity")
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "commit")
	}
	return &MergeResult{KeepID: keepID, MergeID: mergeID, MergedCount: len(mergedSet)}, nil
}

func (s *Store) getEntityTx(q querier, id string) (*models.CanonicalEntity, error) {
	row := q.QueryRow(`SELECT id, name, created_at FROM canonical_entities WHERE id = ?`, id)
	var e models.CanonicalEntity
	err := row.Scan(&e.ID, &e.Name, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("entity %q not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "scan entity")
	}
	return &e, nil
}

func queryIDs(tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "query ids")
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.Wrap(errs.Internal, err, "scan id")
		}
		ids = append(ids, id)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, rows.Err()
}

func execEachID(tx *sql.Tx, ids []string, query string, arg any) error {
	for _, id := range ids {
		if _, err := tx.Exec(query, arg, id); err != nil {
			return errs.Wrap(errs.Internal, err, "rewrite row")
		}
	}
	return nil
}

// undoMerge reverses a MERGE transaction using its stored per-row id
// lists: recreate the merged entity with its original created_at, rewrite
// only the recorded triples back, reassign only the recorded entries and
// aliases back, and delete the alias introduced during the merge.
func (s *Store) undoMerge(tx *sql.Tx, snap txlog.MergeSnapshot) error {
	if _, err := tx.Exec(
		`INSERT INTO canonical_entities (id, name, created_at) VALUES (?, ?, ?)`,
		snap.MergeID, snap.MergeName, snap.MergeCreatedAt,
	); err != nil {
		return errs.Wrap(errs.Internal, err, "recreate merged entity")
	}

	if err := execEachID(tx, snap.SubjTripleIDs, `UPDATE triples SET subject = ? WHERE id = ?`, snap.MergeName); err != nil {
		return err
	}
	if err := execEachID(tx, snap.ObjTripleIDs, `UPDATE triples SET object = ? WHERE id = ?`, snap.MergeName); err != nil {
		return err
	}
	if err := execEachID(tx, snap.MergeEntryIDs, `UPDATE entries SET canonical_entity_id = ? WHERE id = ?`, snap.MergeID); err != nil {
		return err
	}
	if err := execEachID(tx, snap.MergeAliasIDs, `UPDATE entity_aliases SET canonical_entity_id = ? WHERE id = ?`, snap.MergeID); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM entity_aliases WHERE id = ?`, snap.InsertedAliasID); err != nil {
		return errs.Wrap(errs.Internal, err, "remove merge alias")
	}
	return nil
}
