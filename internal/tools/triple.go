package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagneradl/knowledge-mcp/internal/conflict"
	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/policy"
	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

// RelateInput carries the fields accepted by the relate operation.
type RelateInput struct {
	Subject    string   `json:"subject" jsonschema:"Subject of the relation"`
	Predicate  string   `json:"predicate" jsonschema:"Predicate connecting subject to object"`
	Object     string   `json:"object" jsonschema:"Object of the relation"`
	Source     *string  `json:"source,omitempty"`
	Actor      *string  `json:"actor,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// relateResult is either a persisted triple or a pending conflict, never
// both.
type relateResult struct {
	Triple   *models.Triple      `json:"triple,omitempty"`
	URI      string              `json:"uri,omitempty"`
	Conflict *models.ConflictInfo `json:"conflict,omitempty"`
}

// Relate creates a new triple, unless it contradicts an existing active
// triple sharing (subject, predicate), in which case it stashes a
// ConflictInfo in the conflict cache and returns that instead.
func (t *Tools) Relate(ctx context.Context, _ *mcp.CallToolRequest, input RelateInput) (*mcp.CallToolResult, any, error) {
	if err := t.Policy.Check(policy.OpRelate, policy.Params{
		Subject:    input.Subject,
		Predicate:  input.Predicate,
		Object:     input.Object,
		Confidence: input.Confidence,
	}); err != nil {
		return toolErrFromErr(err)
	}

	candidate := models.TripleCandidate{
		Subject:    input.Subject,
		Predicate:  input.Predicate,
		Object:     input.Object,
		Source:     input.Source,
		Actor:      input.Actor,
		Confidence: input.Confidence,
	}
	info, err := conflict.Detect(t.DB, candidate)
	if err != nil {
		return toolErrFromErr(err)
	}
	if info != nil {
		if t.Conflicts != nil {
			if err := t.Conflicts.Put(ctx, *info); err != nil {
				return toolErrFromErr(err)
			}
		}
		return toolJSON(relateResult{Conflict: info})
	}

	tr, err := t.DB.CreateTriple(storage.CreateTripleInput{
		Subject:    input.Subject,
		Predicate:  input.Predicate,
		Object:     input.Object,
		Source:     input.Source,
		Actor:      input.Actor,
		Confidence: input.Confidence,
	})
	if err != nil {
		return toolErrFromErr(err)
	}
	uri := "triples/" + tr.ID
	t.notify(uri)
	return toolJSON(relateResult{Triple: tr, URI: uri})
}

// QueryGraphInput describes a bounded triple lookup.
type QueryGraphInput struct {
	Subject   string `json:"subject,omitempty"`
	Predicate string `json:"predicate,omitempty"`
	Object    string `json:"object,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type queryGraphResult struct {
	Items      []models.Triple `json:"items"`
	NextCursor *string         `json:"next_cursor"`
}

// QueryGraph filters triples by any combination of subject/predicate/object.
func (t *Tools) QueryGraph(_ context.Context, _ *mcp.CallToolRequest, input QueryGraphInput) (*mcp.CallToolResult, any, error) {
	items, err := t.DB.QueryTriples(storage.TripleFilter{
		Subject:   input.Subject,
		Predicate: input.Predicate,
		Object:    input.Object,
		Limit:     input.Limit,
	})
	if err != nil {
		return toolErrFromErr(err)
	}
	return toolJSON(queryGraphResult{Items: items})
}

// UpdateTripleInput carries a field-level overlay for the update_triple
// operation.
type UpdateTripleInput struct {
	ID         string    `json:"id" jsonschema:"Triple id to update"`
	Predicate  *string   `json:"predicate,omitempty"`
	Object     *string   `json:"object,omitempty"`
	Source     **string  `json:"source,omitempty"`
	Actor      **string  `json:"actor,omitempty"`
	Confidence **float64 `json:"confidence,omitempty"`
}

// UpdateTriple applies a partial update to an existing triple.
func (t *Tools) UpdateTriple(_ context.Context, _ *mcp.CallToolRequest, input UpdateTripleInput) (*mcp.CallToolResult, any, error) {
	if err := t.Policy.Check(policy.OpUpdateTriple, policy.Params{Confidence: overlayConfidence(input.Confidence)}); err != nil {
		return toolErrFromErr(err)
	}

	tr, err := t.DB.UpdateTriple(input.ID, storage.UpdateTriplePatch{
		Predicate:  input.Predicate,
		Object:     input.Object,
		Source:     input.Source,
		Actor:      input.Actor,
		Confidence: input.Confidence,
	})
	if err != nil {
		return toolErrFromErr(err)
	}
	t.notify("triples/" + tr.ID)
	return toolJSON(tr)
}

// UpsertTripleInput carries the fields accepted by the upsert_triple
// operation.
type UpsertTripleInput struct {
	Subject    string   `json:"subject"`
	Predicate  string   `json:"predicate"`
	Object     string   `json:"object"`
	Source     *string  `json:"source,omitempty"`
	Actor      *string  `json:"actor,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type upsertTripleResult struct {
	Triple  *models.Triple `json:"triple"`
	Created bool           `json:"created"`
}

// UpsertTriple finds the active triple sharing (subject, predicate) and
// overwrites its object/provenance, or inserts a new triple.
func (t *Tools) UpsertTriple(_ context.Context, _ *mcp.CallToolRequest, input UpsertTripleInput) (*mcp.CallToolResult, any, error) {
	if err := t.Policy.Check(policy.OpUpsert, policy.Params{
		Subject:    input.Subject,
		Predicate:  input.Predicate,
		Object:     input.Object,
		Confidence: input.Confidence,
	}); err != nil {
		return toolErrFromErr(err)
	}

	tr, created, err := t.DB.UpsertTriple(storage.UpsertTripleInput{
		Subject:    input.Subject,
		Predicate:  input.Predicate,
		Object:     input.Object,
		Source:     input.Source,
		Actor:      input.Actor,
		Confidence: input.Confidence,
	})
	if err != nil {
		return toolErrFromErr(err)
	}
	t.notify("triples/" + tr.ID)
	return toolJSON(upsertTripleResult{Triple: tr, Created: created})
}
