package storage

import (
	"database/sql"
	"strings"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/idgen"
	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/txlog"
)

const maxTripleFieldLen = 2000

// CreateTripleInput carries the fields accepted by CreateTriple.
type CreateTripleInput struct {
	Subject    string
	Predicate  string
	Object     string
	Source     *string
	Actor      *string
	Confidence *float64
	ValidFrom  *string
	ValidTo    *string
}

// UpdateTriplePatch is a field-level overlay for UpdateTriple.
type UpdateTriplePatch struct {
	Predicate  *string
	Object     *string
	Source     **string
	Actor      **string
	Confidence **float64
	ValidFrom  **string
	ValidTo    **string
}

// TripleFilter describes a bounded triples query.
type TripleFilter struct {
	Subject   string
	Predicate string
	Object    string
	Limit     int
}

func validateTripleFields(subject, predicate, object string) error {
	if len(subject) > maxTripleFieldLen {
		return errs.Validationf("subject exceeds %d characters", maxTripleFieldLen)
	}
	if len(predicate) > maxTripleFieldLen {
		return errs.Validationf("predicate exceeds %d characters", maxTripleFieldLen)
	}
	if len(object) > maxTripleFieldLen {
		return errs.Validationf("object exceeds %d characters", maxTripleFieldLen)
	}
	return nil
}

// CreateTriple validates and inserts a new triple, recording a CREATE
// transaction in the same atomic batch.
func (s *Store) CreateTriple(in CreateTripleInput) (*models.Triple, error) {
	if err := validateTripleFields(in.Subject, in.Predicate, in.Object); err != nil {
		return nil, err
	}

	now := idgen.Now()
	tr := models.Triple{
		ID:         idgen.NewID(),
		Subject:    in.Subject,
		Predicate:  in.Predicate,
		Object:     in.Object,
		Source:     in.Source,
		Actor:      in.Actor,
		Confidence: in.Confidence,
		ValidFrom:  in.ValidFrom,
		ValidTo:    in.ValidTo,
		Status:     "active",
		CreatedAt:  now,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	if err := s.insertTripleTx(tx, tr); err != nil {
		return nil, err
	}
	after, err := txlog.Marshal(tripleToSnapshot(tr))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshal snapshot")
	}
	if err := appendTx(tx, models.Transaction{
		Op:            models.OpCreate,
		EntityType:    models.EntityTypeTriple,
		EntityID:      tr.ID,
		AfterSnapshot: &after,
		CreatedAt:     now,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "commit")
	}
	return &tr, nil
}

func (s *Store) insertTripleTx(tx *sql.Tx, tr models.Triple) error {
	_, err := tx.Exec(
		`INSERT INTO triples (id, subject, predicate, object, source, actor, confidence, valid_from, valid_to, status, created_at, deleted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'active', ?, NULL)`,
		tr.ID, tr.Subject, tr.Predicate, tr.Object, tr.Source, tr.Actor, tr.Confidence, tr.ValidFrom, tr.ValidTo, tr.CreatedAt,
	)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "insert triple")
	}
	return nil
}

// GetTriple fetches an active triple by id.
func (s *Store) GetTriple(id string) (*models.Triple, error) {
	return s.getTripleTx(s.db, id)
}

func (s *Store) getTripleTx(q querier, id string) (*models.Triple, error) {
	row := q.QueryRow(
		`SELECT id, subject, predicate, object, source, actor, confidence, valid_from, valid_to, status, created_at, deleted_at
		 FROM triples WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	var t models.Triple
	err := row.Scan(&t.ID, &t.Subject, &t.Predicate, &t.Object, &t.Source, &t.Actor, &t.Confidence, &t.ValidFrom, &t.ValidTo, &t.Status, &t.CreatedAt, &t.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("triple %q not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "scan triple")
	}
	return &t, nil
}

// FindActiveTriple finds the active triple with the given subject and
// predicate, or nil if none exists. Used by upsert and conflict detection.
func (s *Store) FindActiveTriple(subject, predicate string) (*models.Triple, error) {
	return s.findActiveTripleTx(s.db, subject, predicate)
}

func (s *Store) findActiveTripleTx(q querier, subject, predicate string) (*models.Triple, error) {
	row := q.QueryRow(
		`SELECT id, subject, predicate, object, source, actor, confidence, valid_from, valid_to, status, created_at, deleted_at
		 FROM triples WHERE subject = ? AND predicate = ? AND deleted_at IS NULL LIMIT 1`,
		subject, predicate,
	)
	var t models.Triple
	err := row.Scan(&t.ID, &t.Subject, &t.Predicate, &t.Object, &t.Source, &t.Actor, &t.Confidence, &t.ValidFrom, &t.ValidTo, &t.Status, &t.CreatedAt, &t.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "scan triple")
	}
	return &t, nil
}

// ActiveTriplesWithSubjectPredicate lists every active triple sharing a
// (subject, predicate) pair, used by the conflict detector.
func (s *Store) ActiveTriplesWithSubjectPredicate(subject, predicate string) ([]models.Triple, error) {
	rows, err := s.db.Query(
		`SELECT id, subject, predicate, object, source, actor, confidence, valid_from, valid_to, status, created_at, deleted_at
		 FROM triples WHERE subject = ? AND predicate = ? AND deleted_at IS NULL`,
		subject, predicate,
	)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "query triples")
	}
	defer rows.Close()
	var out []models.Triple
	for rows.Next() {
		var t models.Triple
		if err := rows.Scan(&t.ID, &t.Subject, &t.Predicate, &t.Object, &t.Source, &t.Actor, &t.Confidence, &t.ValidFrom, &t.ValidTo, &t.Status, &t.CreatedAt, &t.DeletedAt); err != nil {
			return nil, errs.Wrap(errs.Internal, err, "scan triple")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTriple applies a field-level overlay, recording an UPDATE
// transaction and row in one atomic batch.
func (s *Store) UpdateTriple(id string, patch UpdateTriplePatch) (*models.Triple, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	current, err := s.getTripleTx(tx, id)
	if err != nil {
		return nil, err
	}
	before, err := txlog.Marshal(tripleToSnapshot(*current))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshal snapshot")
	}

	updated := *current
	if patch.Predicate != nil {
		updated.Predicate = *patch.Predicate
	}
	if patch.Object != nil {
		updated.Object = *patch.Object
	}
	if patch.Source != nil {
		updated.Source = *patch.Source
	}
	if patch.Actor != nil {
		updated.Actor = *patch.Actor
	}
	if patch.Confidence != nil {
		updated.Confidence = *patch.Confidence
	}
	if patch.ValidFrom != nil {
		updated.ValidFrom = *patch.ValidFrom
	}
	if patch.ValidTo != nil {
		updated.ValidTo = *patch.ValidTo
	}
	if err := validateTripleFields(updated.Subject, updated.Predicate, updated.Object); err != nil {
		return nil, err
	}

	now := idgen.Now()
	_, err = tx.Exec(
		`UPDATE triples SET predicate=?, object=?, source=?, actor=?, confidence=?, valid_from=?, valid_to=? WHERE id=? AND deleted_at IS NULL`,
		updated.Predicate, updated.Object, updated.Source, updated.Actor, updated.Confidence, updated.ValidFrom, updated.ValidTo, id,
	)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "update triple")
	}

	after, err := txlog.Marshal(tripleToSnapshot(updated))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshal snapshot")
	}
	if err := appendTx(tx, models.Transaction{
		Op:             models.OpUpdate,
		EntityType:     models.EntityTypeTriple,
		EntityID:       id,
		BeforeSnapshot: &before,
		AfterSnapshot:  &after,
		CreatedAt:      now,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "commit")
	}
	return &updated, nil
}

// DeleteTriple soft-deletes a triple, recording a DELETE transaction.
func (s *Store) DeleteTriple(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	current, err := s.getTripleTx(tx, id)
	if err != nil {
		return err
	}
	before, err := txlog.Marshal(tripleToSnapshot(*current))
	if err != nil {
		return errs.Wrap(errs.Internal, err, "marshal snapshot")
	}

	now := idgen.Now()
	_, err = tx.Exec(`UPDATE triples SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now, id)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "delete triple")
	}
	if err := appendTx(tx, models.Transaction{
		Op:             models.OpDelete,
		EntityType:     models.EntityTypeTriple,
		EntityID:       id,
		BeforeSnapshot: &before,
		CreatedAt:      now,
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.Internal, err, "commit")
	}
	return nil
}

// UpsertTripleInput carries the fields accepted by UpsertTriple.
type UpsertTripleInput struct {
	Subject    string
	Predicate  string
	Object     string
	Source     *string
	Actor      *string
	Confidence *float64
}

// UpsertTriple atomically finds the active triple matching subject+predicate
// and either updates its object/provenance or inserts a new one.
// Resolution is exact-only so fuzzy near-misses never collide.
func (s *Store) UpsertTriple(in UpsertTripleInput) (*models.Triple, bool, error) {
	if err := validateTripleFields(in.Subject, in.Predicate, in.Object); err != nil {
		return nil, false, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	existing, err := s.findActiveTripleTx(tx, in.Subject, in.Predicate)
	if err != nil {
		return nil, false, err
	}
	now := idgen.Now()

	if existing == nil {
		tr := models.Triple{
			ID:         idgen.NewID(),
			Subject:    in.Subject,
			Predicate:  in.Predicate,
			Object:     in.Object,
			Source:     in.Source,
			Actor:      in.Actor,
			Confidence: in.Confidence,
			Status:     "active",
			CreatedAt:  now,
		}
		if err := s.insertTripleTx(tx, tr); err != nil {
			return nil, false, err
		}
		after, err := txlog.Marshal(tripleToSnapshot(tr))
		if err != nil {
			return nil, false, errs.Wrap(errs.Internal, err, "marshal snapshot")
		}
		if err := appendTx(tx, models.Transaction{
			Op:            models.OpCreate,
			EntityType:    models.EntityTypeTriple,
			EntityID:      tr.ID,
			AfterSnapshot: &after,
			CreatedAt:     now,
		}); err != nil {
			return nil, false, err
		}
		if err := tx.Commit(); err != nil {
			return nil, false, errs.Wrap(errs.Internal, err, "commit")
		}
		return &tr, true, nil
	}

	before, err := txlog.Marshal(tripleToSnapshot(*existing))
	if err != nil {
		return nil, false, errs.Wrap(errs.Internal, err, "marshal snapshot")
	}
	updated := *existing
	updated.Object = in.Object
	updated.Source = in.Source
	updated.Actor = in.Actor
	updated.Confidence = in.Confidence

	_, err = tx.Exec(
		`UPDATE triples SET object=?, source=?, actor=?, confidence=? WHERE id=? AND deleted_at IS NULL`,
		updated.Object, updated.Source, updated.Actor, updated.Confidence, updated.ID,
	)
	if err != nil {
		return nil, false, errs.Wrap(errs.Internal, err, "update triple")
	}
	after, err := txlog.Marshal(tripleToSnapshot(updated))
	if err != nil {
		return nil, false, errs.Wrap(errs.Internal, err, "marshal snapshot")
	}
	if err := appendTx(tx, models.Transaction{
		Op:             models.OpUpdate,
		EntityType:     models.EntityTypeTriple,
		EntityID:       updated.ID,
		BeforeSnapshot: &before,
		AfterSnapshot:  &after,
		CreatedAt:      now,
	}); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, errs.Wrap(errs.Internal, err, "commit")
	}
	return &updated, false, nil
}

// QueryTriples filters triples by substring match on any of
// subject/predicate/object, limit-capped.
func (s *Store) QueryTriples(f TripleFilter) ([]models.Triple, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		if limit > 200 {
			limit = 200
		} else {
			limit = 50
		}
	}

	var clauses []string
	var args []any
	if f.Subject != "" {
		clauses = append(clauses, "subject LIKE ?"+likeEscapeClause)
		args = append(args, likePattern(f.Subject))
	}
	if f.Predicate != "" {
		clauses = append(clauses, "predicate LIKE ?"+likeEscapeClause)
		args = append(args, likePattern(f.Predicate))
	}
	if f.Object != "" {
		clauses = append(clauses, "object LIKE ?"+likeEscapeClause)
		args = append(args, likePattern(f.Object))
	}

	query := `SELECT id, subject, predicate, object, source, actor, confidence, valid_from, valid_to, status, created_at, deleted_at
	          FROM triples WHERE deleted_at IS NULL`
	if len(clauses) > 0 {
		query += " AND " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "query triples")
	}
	defer rows.Close()

	var out []models.Triple
	for rows.Next() {
		var t models.Triple
		if err := rows.Scan(&t.ID, &t.Subject, &t.Predicate, &t.Object, &t.Source, &t.Actor, &t.Confidence, &t.ValidFrom, &t.ValidTo, &t.Status, &t.CreatedAt, &t.DeletedAt); err != nil {
			return nil, errs.Wrap(errs.Internal, err, "scan triple")
		}
		out = append(out, t)
	}
	if out == nil {
		out = []models.Triple{}
	}
	return out, rows.Err()
}

// ListTriples returns a page of triples ordered id-descending, for the
// `triples` read resource.
func (s *Store) ListTriples(limit int, cursor string) ([]models.Triple, string, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	lastID, ok := decodeCursor(cursor)

	query := `SELECT id, subject, predicate, object, source, actor, confidence, valid_from, valid_to, status, created_at, deleted_at
	          FROM triples WHERE deleted_at IS NULL`
	args := []any{}
	if ok {
		query += " AND id < ?"
		args = append(args, lastID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit+1)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, "", errs.Wrap(errs.Internal, err, "list triples")
	}
	defer rows.Close()

	var items []models.Triple
	for rows.Next() {
		var t models.Triple
		if err := rows.Scan(&t.ID, &t.Subject, &t.Predicate, &t.Object, &t.Source, &t.Actor, &t.Confidence, &t.ValidFrom, &t.ValidTo, &t.Status, &t.CreatedAt, &t.DeletedAt); err != nil {
			return nil, "", errs.Wrap(errs.Internal, err, "scan triple")
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, "", errs.Wrap(errs.Internal, err, "iterate triples")
	}
	return paginateByID(items, limit, func(t models.Triple) string { return t.ID })
}

func tripleToSnapshot(t models.Triple) txlog.TripleSnapshot {
	return txlog.TripleSnapshot{
		ID:         t.ID,
		Subject:    t.Subject,
		Predicate:  t.Predicate,
		Object:     t.Object,
		Source:     t.Source,
		Actor:      t.Actor,
		Confidence: t.Confidence,
		ValidFrom:  t.ValidFrom,
		ValidTo:    t.ValidTo,
		Status:     t.Status,
		CreatedAt:  t.CreatedAt,
		DeletedAt:  t.DeletedAt,
	}
}

func snapshotToTriple(s txlog.TripleSnapshot) models.Triple {
	return models.Triple{
		ID:         s.ID,
		Subject:    s.Subject,
		Predicate:  s.Predicate,
		Object:     s.Object,
		Source:     s.Source,
		Actor:      s.Actor,
		Confidence: s.Confidence,
		ValidFrom:  s.ValidFrom,
		ValidTo:    s.ValidTo,
		Status:     s.Status,
		CreatedAt:  s.CreatedAt,
		DeletedAt:  s.DeletedAt,
	}
}
