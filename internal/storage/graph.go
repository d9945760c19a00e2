package storage

import (
	"strings"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/models"
)

// GraphNeighbors performs a single-hop expansion from topics: finds every
// active triple whose subject or object matches one of topics, collects
// the terms on the opposite side, and returns entries whose topic equals
// one of those terms and whose id is not already in exclude.
func (s *Store) GraphNeighbors(topics []string, exclude map[string]bool) ([]models.Entry, error) {
	if len(topics) == 0 {
		return []models.Entry{}, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(topics)), ",")
	args := make([]any, 0, len(topics)*2)
	for _, t := range topics {
		args = append(args, t)
	}
	for _, t := range topics {
		args = append(args, t)
	}

	rows, err := s.db.Query(
		`SELECT subject, object FROM triples
		 WHERE deleted_at IS NULL AND (subject IN (`+placeholders+`) OR object IN (`+placeholders+`))`,
		args...,
	)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "query graph triples")
	}
	topicSet := map[string]bool{}
	for _, t := range topics {
		topicSet[t] = true
	}
	terms := map[string]bool{}
	for rows.Next() {
		var subj, obj string
		if err := rows.Scan(&subj, &obj); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.Internal, err, "scan graph triple")
		}
		if topicSet[subj] && !topicSet[obj] {
			terms[obj] = true
		}
		if topicSet[obj] && !topicSet[subj] {
			terms[subj] = true
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errs.Wrap(errs.Internal, err, "iterate graph triples")
	}
	rows.Close()

	if len(terms) == 0 {
		return []models.Entry{}, nil
	}
	termList := make([]string, 0, len(terms))
	for t := range terms {
		termList = append(termList, t)
	}
	termPlaceholders := strings.TrimRight(strings.Repeat("?,", len(termList)), ",")
	termArgs := make([]any, 0, len(termList))
	for _, t := range termList {
		termArgs = append(termArgs, t)
	}

	entryRows, err := s.db.Query(
		`SELECT id, topic, content, tags, source, actor, confidence, valid_from, valid_to, status, canonical_entity_id, created_at, updated_at, deleted_at
		 FROM entries WHERE deleted_at IS NULL AND topic IN (`+termPlaceholders+`)`,
		termArgs...,
	)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "query graph entries")
	}
	defer entryRows.Close()

	var out []models.Entry
	for entryRows.Next() {
		var e models.Entry
		var tags string
		if err := entryRows.Scan(&e.ID, &e.Topic, &e.Content, &tags, &e.Source, &e.Actor, &e.Confidence, &e.ValidFrom, &e.ValidTo, &e.Status, &e.CanonicalEntityID, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt); err != nil {
			return nil, errs.Wrap(errs.Internal, err, "scan graph entry")
		}
		e.Tags = decodeTags(tags)
		if !exclude[e.ID] {
			out = append(out, e)
		}
	}
	if err := entryRows.Err(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "iterate graph entries")
	}
	if out == nil {
		out = []models.Entry{}
	}
	return out, nil
}
