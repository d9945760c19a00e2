// Package models defines the persisted and ephemeral data shapes of the
// knowledge store: entries, triples, canonical entities, aliases,
// transactions, ingestion tasks, and conflict payloads.
package models

// Entry is a free-text knowledge record.
type Entry struct {
	ID                 string   `json:"id"`
	Topic              string   `json:"topic"`
	Content            string   `json:"content"`
	Tags               []string `json:"tags"`
	Source             *string  `json:"source"`
	Actor              *string  `json:"actor"`
	Confidence         *float64 `json:"confidence"`
	ValidFrom          *string  `json:"valid_from"`
	ValidTo            *string  `json:"valid_to"`
	Status             string   `json:"status"`
	CanonicalEntityID  *string  `json:"canonical_entity_id"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
	DeletedAt          *string  `json:"deleted_at,omitempty"`
}

// Triple is a directed subject-predicate-object relationship.
type Triple struct {
	ID         string   `json:"id"`
	Subject    string   `json:"subject"`
	Predicate  string   `json:"predicate"`
	Object     string   `json:"object"`
	Source     *string  `json:"source"`
	Actor      *string  `json:"actor"`
	Confidence *float64 `json:"confidence"`
	ValidFrom  *string  `json:"valid_from"`
	ValidTo    *string  `json:"valid_to"`
	Status     string   `json:"status"`
	CreatedAt  string   `json:"created_at"`
	DeletedAt  *string  `json:"deleted_at,omitempty"`
}

// CanonicalEntity is a named concept to which one or more aliases resolve.
type CanonicalEntity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// EntityAlias maps a normalized (lowercased) string to a canonical entity.
type EntityAlias struct {
	ID                string `json:"id"`
	Alias             string `json:"alias"`
	CanonicalEntityID string `json:"canonical_entity_id"`
	CreatedAt         string `json:"created_at"`
}

// Transaction op kinds.
const (
	OpCreate = "CREATE"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
	OpMerge  = "MERGE"
	OpRevert = "REVERT"
)

// Transaction entity type kinds.
const (
	EntityTypeEntry  = "entry"
	EntityTypeTriple = "triple"
	EntityTypeEntity = "entity"
	EntityTypeAlias  = "alias"
)

// Transaction is one append-only log row.
type Transaction struct {
	ID             string  `json:"id"`
	Op             string  `json:"op"`
	EntityType     string  `json:"entity_type"`
	EntityID       string  `json:"entity_id"`
	BeforeSnapshot *string `json:"before_snapshot"`
	AfterSnapshot  *string `json:"after_snapshot"`
	RevertedBy     *string `json:"reverted_by"`
	CreatedAt      string  `json:"created_at"`
}

// IngestionTask status kinds.
const (
	IngestionPending    = "pending"
	IngestionProcessing = "processing"
	IngestionCompleted  = "completed"
	IngestionFailed     = "failed"
)

// IngestionTask tracks a pending or running bulk ingestion. Content and
// Source hold the inline blob for the async path; both are nil for
// synchronous ingestions, which never persist their input past completion.
type IngestionTask struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	InputURI       *string `json:"input_uri"`
	Content        *string `json:"-"`
	Source         *string `json:"-"`
	TotalItems     int     `json:"total_items"`
	ProcessedItems int     `json:"processed_items"`
	Error          *string `json:"error"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// ConflictResolution names one of the allowed strategies for resolving a
// ConflictInfo.
type ConflictResolution string

const (
	ResolveReplace     ConflictResolution = "replace"
	ResolveRetainBoth  ConflictResolution = "retain_both"
	ResolveReject      ConflictResolution = "reject"
)

// ConflictInfo is an ephemeral (not persisted in primary tables) record of
// a detected contradiction between an existing triple and an incoming
// candidate sharing the same (subject, predicate).
type ConflictInfo struct {
	ConflictID           string             `json:"conflict_id"`
	Subject              string             `json:"subject"`
	Predicate            string             `json:"predicate"`
	Existing             Triple             `json:"existing"`
	Candidate            TripleCandidate    `json:"candidate"`
	AllowedResolutions   []ConflictResolution `json:"candidate_resolutions"`
	StoredAt             int64              `json:"-"`
}

// TripleCandidate is the incoming (not-yet-persisted) triple that
// triggered a conflict.
type TripleCandidate struct {
	Subject    string   `json:"subject"`
	Predicate  string   `json:"predicate"`
	Object     string   `json:"object"`
	Source     *string  `json:"source,omitempty"`
	Actor      *string  `json:"actor,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}
