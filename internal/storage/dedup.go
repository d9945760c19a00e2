package storage

import (
	"database/sql"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/models"
)

// FindActiveEntryByContent looks for an active entry with an exact content
// match, used by the ingestion batcher's dedup check.
func (s *Store) FindActiveEntryByContent(content string) (*models.Entry, error) {
	row := s.db.QueryRow(
		`SELECT id, topic, content, tags, source, actor, confidence, valid_from, valid_to, status, canonical_entity_id, created_at, updated_at, deleted_at
		 FROM entries WHERE content = ? AND deleted_at IS NULL LIMIT 1`,
		content,
	)
	var e models.Entry
	var tags string
	err := row.Scan(&e.ID, &e.Topic, &e.Content, &tags, &e.Source, &e.Actor, &e.Confidence, &e.ValidFrom, &e.ValidTo, &e.Status, &e.CanonicalEntityID, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("no active entry with matching content")
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "scan entry")
	}
	e.Tags = decodeTags(tags)
	return &e, nil
}
