package storage

import (
	"database/sql"
	"strings"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/idgen"
	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/txlog"
)

const (
	maxTopicLen   = 1000
	maxContentLen = 100_000
)

// CreateEntryInput carries the fields accepted by CreateEntry.
type CreateEntryInput struct {
	Topic      string
	Content    string
	Tags       []string
	Source     *string
	Actor      *string
	Confidence *float64
	ValidFrom  *string
	ValidTo    *string
}

// UpdateEntryPatch describes a field-level overlay: a nil pointer means
// "leave unchanged", while a pointer to a nil-valued field distinguishes
// an explicit null from an absent field.
type UpdateEntryPatch struct {
	Topic          *string
	Content        *string
	Tags           *[]string
	Source         **string
	Actor          **string
	Confidence     **float64
	ValidFrom      **string
	ValidTo        **string
}

// EntryFilter describes a bounded entries query.
type EntryFilter struct {
	Topic   string
	Content string
	Tags    []string
	Limit   int
}

// CreateEntry validates and inserts a new entry, recording a CREATE
// transaction in the same atomic batch.
func (s *Store) CreateEntry(in CreateEntryInput) (*models.Entry, error) {
	if len(in.Topic) > maxTopicLen {
		return nil, errs.Validationf("topic exceeds %d characters", maxTopicLen)
	}
	if len(in.Content) > maxContentLen {
		return nil, errs.Validationf("content exceeds %d characters", maxContentLen)
	}

	now := idgen.Now()
	id := idgen.NewID()
	e := models.Entry{
		ID:         id,
		Topic:      in.Topic,
		Content:    in.Content,
		Tags:       in.Tags,
		Source:     in.Source,
		Actor:      in.Actor,
		Confidence: in.Confidence,
		ValidFrom:  in.ValidFrom,
		ValidTo:    in.ValidTo,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO entries (id, topic, content, tags, source, actor, confidence, valid_from, valid_to, status, canonical_entity_id, created_at, updated_at, deleted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'active', NULL, ?, ?, NULL)`,
		e.ID, e.Topic, e.Content, encodeTags(e.Tags), e.Source, e.Actor, e.Confidence, e.ValidFrom, e.ValidTo, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "insert entry")
	}

	after, err := txlog.Marshal(entryToSnapshot(e))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshal snapshot")
	}
	if err := appendTx(tx, models.Transaction{
		Op:            models.OpCreate,
		EntityType:    models.EntityTypeEntry,
		EntityID:      e.ID,
		AfterSnapshot: &after,
		CreatedAt:     now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "commit")
	}
	return &e, nil
}

// GetEntry fetches an active entry by id.
func (s *Store) GetEntry(id string) (*models.Entry, error) {
	e, err := s.getEntryTx(s.db, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func (s *Store) getEntryTx(q querier, id string) (*models.Entry, error) {
	row := q.QueryRow(
		`SELECT id, topic, content, tags, source, actor, confidence, valid_from, valid_to, status, canonical_entity_id, created_at, updated_at, deleted_at
		 FROM entries WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	var e models.Entry
	var tags string
	err := row.Scan(&e.ID, &e.Topic, &e.Content, &tags, &e.Source, &e.Actor, &e.Confidence, &e.ValidFrom, &e.ValidTo, &e.Status, &e.CanonicalEntityID, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("entry %q not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "scan entry")
	}
	e.Tags = decodeTags(tags)
	return &e, nil
}

// UpdateEntry reads the current row, applies a field-level overlay, and
// writes the UPDATE transaction and row in one atomic batch.
func (s *Store) UpdateEntry(id string, patch UpdateEntryPatch) (*models.Entry, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	current, err := s.getEntryTx(tx, id)
	if err != nil {
		return nil, err
	}
	before, err := txlog.Marshal(entryToSnapshot(*current))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshal snapshot")
	}

	updated := *current
	if patch.Topic != nil {
		if len(*patch.Topic) > maxTopicLen {
			return nil, errs.Validationf("topic exceeds %d characters", maxTopicLen)
		}
		updated.Topic = *patch.Topic
	}
	if patch.Content != nil {
		if len(*patch.Content) > maxContentLen {
			return nil, errs.Validationf("content exceeds %d characters", maxContentLen)
		}
		updated.Content = *patch.Content
	}
	if patch.Tags != nil {
		updated.Tags = *patch.Tags
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
	updated.UpdatedAt = idgen.Now()

	_, err = tx.Exec(
		`UPDATE entries SET topic=?, content=?, tags=?, source=?, actor=?, confidence=?, valid_from=?, valid_to=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
		updated.Topic, updated.Content, encodeTags(updated.Tags), updated.Source, updated.Actor, updated.Confidence, updated.ValidFrom, updated.ValidTo, updated.UpdatedAt, id,
	)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "update entry")
	}

	after, err := txlog.Marshal(entryToSnapshot(updated))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshal snapshot")
	}
	if err := appendTx(tx, models.Transaction{
		Op:             models.OpUpdate,
		EntityType:     models.EntityTypeEntry,
		EntityID:       id,
		BeforeSnapshot: &before,
		AfterSnapshot:  &after,
		CreatedAt:      updated.UpdatedAt,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "commit")
	}
	return &updated, nil
}

// DeleteEntry soft-deletes an entry, recording a DELETE transaction whose
// before snapshot is the current row. Re-deleting a gone entry is
// not_found.
func (s *Store) DeleteEntry(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	current, err := s.getEntryTx(tx, id)
	if err != nil {
		return err
	}
	before, err := txlog.Marshal(entryToSnapshot(*current))
	if err != nil {
		return errs.Wrap(errs.Internal, err, "marshal snapshot")
	}

	now := idgen.Now()
	_, err = tx.Exec(`UPDATE entries SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now, id)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "delete entry")
	}

	if err := appendTx(tx, models.Transaction{
		Op:             models.OpDelete,
		EntityType:     models.EntityTypeEntry,
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

// QueryEntries filters entries by optional substring topic/content match
// and required-all tag set, ordered created_at descending, limit-capped.
func (s *Store) QueryEntries(f EntryFilter) ([]models.Entry, error) {
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
	if f.Topic != "" {
		clauses = append(clauses, "topic LIKE ?"+likeEscapeClause)
		args = append(args, likePattern(f.Topic))
	}
	if f.Content != "" {
		clauses = append(clauses, "content LIKE ?"+likeEscapeClause)
		args = append(args, likePattern(f.Content))
	}

	query := `SELECT id, topic, content, tags, source, actor, confidence, valid_from, valid_to, status, canonical_entity_id, created_at, updated_at, deleted_at
	          FROM entries WHERE deleted_at IS NULL`
	if len(clauses) > 0 {
		query += " AND " + strings.Join(clauses, " AND ")
	}
	// Overfetch when tags must be post-filtered in application code, since
	// tags are JSON-encoded and not queryable in SQL.
	fetchLimit := limit
	if len(f.Tags) > 0 {
		fetchLimit = limit * 4
		if fetchLimit > 2000 {
			fetchLimit = 2000
		}
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, fetchLimit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "query entries")
	}
	defer rows.Close()

	var out []models.Entry
	for rows.Next() {
		var e models.Entry
		var tags string
		if err := rows.Scan(&e.ID, &e.Topic, &e.Content, &tags, &e.Source, &e.Actor, &e.Confidence, &e.ValidFrom, &e.ValidTo, &e.Status, &e.CanonicalEntityID, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt); err != nil {
			return nil, errs.Wrap(errs.Internal, err, "scan entry")
		}
		e.Tags = decodeTags(tags)
		if tagSetContainsAll(e.Tags, f.Tags) {
			out = append(out, e)
		}
		if len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "iterate entries")
	}
	if out == nil {
		out = []models.Entry{}
	}
	return out, nil
}

// ListEntries returns a page of entries ordered id-descending, for the
// `entries` read resource.
func (s *Store) ListEntries(limit int, cursor string) ([]models.Entry, string, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	lastID, ok := decodeCursor(cursor)

	query := `SELECT id, topic, content, tags, source, actor, confidence, valid_from, valid_to, status, canonical_entity_id, created_at, updated_at, deleted_at
	          FROM entries WHERE deleted_at IS NULL`
	args := []any{}
	if ok {
		query += " AND id < ?"
		args = append(args, lastID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit+1)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, "", errs.Wrap(errs.Internal, err, "list entries")
	}
	defer rows.Close()

	var items []models.Entry
	for rows.Next() {
		var e models.Entry
		var tags string
		if err := rows.Scan(&e.ID, &e.Topic, &e.Content, &tags, &e.Source, &e.Actor, &e.Confidence, &e.ValidFrom, &e.ValidTo, &e.Status, &e.CanonicalEntityID, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt); err != nil {
			return nil, "", errs.Wrap(errs.Internal, err, "scan entry")
		}
		e.Tags = decodeTags(tags)
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", errs.Wrap(errs.Internal, err, "iterate entries")
	}
	return paginateByID(items, limit, func(e models.Entry) string { return e.ID })
}

func entryToSnapshot(e models.Entry) txlog.EntrySnapshot {
	return txlog.EntrySnapshot{
		ID:                e.ID,
		Topic:             e.Topic,
		Content:           e.Content,
		Tags:              e.Tags,
		Source:            e.Source,
		Actor:             e.Actor,
		Confidence:        e.Confidence,
		ValidFrom:         e.ValidFrom,
		ValidTo:           e.ValidTo,
		Status:            e.Status,
		CanonicalEntityID: e.CanonicalEntityID,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
		DeletedAt:         e.DeletedAt,
	}
}

func snapshotToEntry(s txlog.EntrySnapshot) models.Entry {
	return models.Entry{
		ID:                s.ID,
		Topic:             s.Topic,
		Content:           s.Content,
		Tags:              s.Tags,
		Source:            s.Source,
		Actor:             s.Actor,
		Confidence:        s.Confidence,
		ValidFrom:         s.ValidFrom,
		ValidTo:           s.ValidTo,
		Status:            s.Status,
		CanonicalEntityID: s.CanonicalEntityID,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
		DeletedAt:         s.DeletedAt,
	}
}
