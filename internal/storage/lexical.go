package storage

import (
	"strings"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/models"
)

// ScoredEntry pairs an entry with a lexical relevance score in [0, 1].
type ScoredEntry struct {
	Entry models.Entry
	Score float64
}

// LexicalSearch tokenizes query by whitespace and ranks active entries.
// When the engine has FTS5, tokens are quoted (embedded quotes doubled)
// and matched via bm25(); the most-negative (best) score in the page
// normalizes the rest into [0, 1]. Otherwise it falls back to a tiered
// substring score: 1.0 exact topic, 0.8 topic substring, 0.5 content
// substring, 0.3 tags substring.
func (s *Store) LexicalSearch(query string, limit int) ([]ScoredEntry, error) {
	if strings.TrimSpace(query) == "" {
		return []ScoredEntry{}, nil
	}
	if s.hasFTS {
		out, err := s.lexicalFTS(query, limit)
		if err == nil {
			return out, nil
		}
	}
	return s.lexicalSubstring(query, limit)
}

func (s *Store) lexicalFTS(query string, limit int) ([]ScoredEntry, error) {
	match := ftsMatchExpr(query)
	if match == "" {
		return []ScoredEntry{}, nil
	}
	rows, err := s.db.Query(
		`SELECT e.id, e.topic, e.content, e.tags, e.source, e.actor, e.confidence, e.valid_from, e.valid_to, e.status, e.canonical_entity_id, e.created_at, e.updated_at, e.deleted_at, bm25(entries_fts) AS rank
		 FROM entries_fts JOIN entries e ON e.rowid = entries_fts.rowid
		 WHERE entries_fts MATCH ? AND e.deleted_at IS NULL
		 ORDER BY rank LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "fts query")
	}
	defer rows.Close()

	type raw struct {
		e    models.Entry
		rank float64
	}
	var results []raw
	best := 0.0
	for rows.Next() {
		var e models.Entry
		var tags string
		var rank float64
		if err := rows.Scan(&e.ID, &e.Topic, &e.Content, &tags, &e.Source, &e.Actor, &e.Confidence, &e.ValidFrom, &e.ValidTo, &e.Status, &e.CanonicalEntityID, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt, &rank); err != nil {
			return nil, errs.Wrap(errs.Internal, err, "scan fts row")
		}
		e.Tags = decodeTags(tags)
		if rank < best {
			best = rank
		}
		results = append(results, raw{e: e, rank: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "iterate fts rows")
	}

	out := make([]ScoredEntry, 0, len(results))
	for _, r := range results {
		score := 0.0
		if best < 0 {
			score = r.rank / best
		}
		out = append(out, ScoredEntry{Entry: r.e, Score: score})
	}
	return out, nil
}

// ftsMatchExpr wraps each whitespace-delimited token in double quotes,
// doubling any embedded quote, and joins with OR.
func ftsMatchExpr(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " OR ")
}

func (s *Store) lexicalSubstring(query string, limit int) ([]ScoredEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, topic, content, tags, source, actor, confidence, valid_from, valid_to, status, canonical_entity_id, created_at, updated_at, deleted_at
		 FROM entries WHERE deleted_at IS NULL`,
	)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "query entries")
	}
	defer rows.Close()

	lowerQuery := strings.ToLower(query)
	var out []ScoredEntry
	for rows.Next() {
		var e models.Entry
		var tags string
		if err := rows.Scan(&e.ID, &e.Topic, &e.Content, &tags, &e.Source, &e.Actor, &e.Confidence, &e.ValidFrom, &e.ValidTo, &e.Status, &e.CanonicalEntityID, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt); err != nil {
			return nil, errs.Wrap(errs.Internal, err, "scan entry")
		}
		e.Tags = decodeTags(tags)

		score := substringScore(lowerQuery, e)
		if score > 0 {
			out = append(out, ScoredEntry{Entry: e, Score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "iterate entries")
	}

	sortScoredEntries(out)
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []ScoredEntry{}
	}
	return out, nil
}

func substringScore(lowerQuery string, e models.Entry) float64 {
	topic := strings.ToLower(e.Topic)
	if topic == lowerQuery {
		return 1.0
	}
	if strings.Contains(topic, lowerQuery) {
		return 0.8
	}
	if strings.Contains(strings.ToLower(e.Content), lowerQuery) {
		return 0.5
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), lowerQuery) {
			return 0.3
		}
	}
	return 0
}

func sortScoredEntries(out []ScoredEntry) {
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && (out[j].Score > out[j-1].Score ||
			(out[j].Score == out[j-1].Score && out[j].Entry.ID < out[j-1].Entry.ID)); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
}
