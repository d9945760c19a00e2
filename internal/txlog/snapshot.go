// Package txlog defines the tagged-variant snapshot shapes recorded on
// each transaction row. Modeling snapshots as one Go type per op kind
// (rather than a single open record) lets the undo engine dispatch
// exhaustively instead of branching on ad hoc map shapes.
package txlog

import "encoding/json"

// EntrySnapshot captures the full mutable state of an Entry row at a
// point in time, used as both the before- and after-image of CREATE,
// UPDATE, and DELETE transactions on entity_type=entry.
type EntrySnapshot struct {
	ID                string   `json:"id"`
	Topic             string   `json:"topic"`
	Content           string   `json:"content"`
	Tags              []string `json:"tags"`
	Source            *string  `json:"source"`
	Actor             *string  `json:"actor"`
	Confidence        *float64 `json:"confidence"`
	ValidFrom         *string  `json:"valid_from"`
	ValidTo           *string  `json:"valid_to"`
	Status            string   `json:"status"`
	CanonicalEntityID *string  `json:"canonical_entity_id"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
	DeletedAt         *string  `json:"deleted_at"`
}

// TripleSnapshot captures the full mutable state of a Triple row.
type TripleSnapshot struct {
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
	DeletedAt  *string  `json:"deleted_at"`
}

// EntitySnapshot captures a canonical entity row.
type EntitySnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// AliasSnapshot captures an alias row.
type AliasSnapshot struct {
	ID                string `json:"id"`
	Alias             string `json:"alias"`
	CanonicalEntityID string `json:"canonical_entity_id"`
	CreatedAt         string `json:"created_at"`
}

// MergeSnapshot records everything needed to reverse a merge per-row,
// rather than by a naive bulk rewrite that would also move the kept
// entity's own references.
type MergeSnapshot struct {
	KeepID          string   `json:"keep_id"`
	KeepName        string   `json:"keep_name"`
	MergeID         string   `json:"merge_id"`
	MergeName       string   `json:"merge_name"`
	MergeCreatedAt  string   `json:"merge_created_at"`
	SubjTripleIDs   []string `json:"subj_triple_ids"`
	ObjTripleIDs    []string `json:"obj_triple_ids"`
	MergeEntryIDs   []string `json:"merge_entry_ids"`
	MergeAliasIDs   []string `json:"merge_alias_ids"`
	InsertedAliasID string   `json:"inserted_alias_id"`
}

// Marshal encodes a snapshot value (one of the *Snapshot types above) to
// its JSON string form for storage in a transaction row.
func Marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalEntry decodes an EntrySnapshot from its JSON string form.
func UnmarshalEntry(raw string) (EntrySnapshot, error) {
	var s EntrySnapshot
	err := json.Unmarshal([]byte(raw), &s)
	return s, err
}

// UnmarshalTriple decodes a TripleSnapshot from its JSON string form.
func UnmarshalTriple(raw string) (TripleSnapshot, error) {
	var s TripleSnapshot
	err := json.Unmarshal([]byte(raw), &s)
	return s, err
}

// UnmarshalMerge decodes a MergeSnapshot from its JSON string form.
func UnmarshalMerge(raw string) (MergeSnapshot, error) {
	var s MergeSnapshot
	err := json.Unmarshal([]byte(raw), &s)
	return s, err
}
