package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/policy"
	"github.com/wagneradl/knowledge-mcp/internal/retrieval"
	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

// StoreInput carries the fields accepted by the store operation.
type StoreInput struct {
	Topic      string   `json:"topic" jsonschema:"Short label for this knowledge record"`
	Content    string   `json:"content" jsonschema:"Free-text body of the record"`
	Tags       []string `json:"tags,omitempty" jsonschema:"Optional tags for filtering"`
	Source     *string  `json:"source,omitempty" jsonschema:"Where this knowledge came from"`
	Actor      *string  `json:"actor,omitempty" jsonschema:"Who or what asserted this"`
	Confidence *float64 `json:"confidence,omitempty" jsonschema:"Confidence in [0,1]"`
}

// storeResult wraps an Entry with its resource URI, per the structured
// operation envelope.
type storeResult struct {
	Entry models.Entry `json:"entry"`
	URI   string       `json:"uri"`
}

// Store creates a new entry.
func (t *Tools) Store(_ context.Context, _ *mcp.CallToolRequest, input StoreInput) (*mcp.CallToolResult, any, error) {
	if err := t.Policy.Check(policy.OpStore, policy.Params{
		Topic:      input.Topic,
		Content:    input.Content,
		Confidence: input.Confidence,
	}); err != nil {
		return toolErrFromErr(err)
	}

	e, err := t.DB.CreateEntry(storage.CreateEntryInput{
		Topic:      input.Topic,
		Content:    input.Content,
		Tags:       input.Tags,
		Source:     input.Source,
		Actor:      input.Actor,
		Confidence: input.Confidence,
	})
	if err != nil {
		return toolErrFromErr(err)
	}
	uri := "entries/" + e.ID
	t.notify(uri)
	return toolJSON(storeResult{Entry: *e, URI: uri})
}

// UpdateInput carries a field-level overlay for the update operation. A
// nil field leaves the current value unchanged.
type UpdateInput struct {
	ID         string    `json:"id" jsonschema:"Entry id to update"`
	Topic      *string   `json:"topic,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	Source     **string  `json:"source,omitempty"`
	Actor      **string  `json:"actor,omitempty"`
	Confidence **float64 `json:"confidence,omitempty"`
}

// Update applies a partial update to an existing entry.
func (t *Tools) Update(_ context.Context, _ *mcp.CallToolRequest, input UpdateInput) (*mcp.CallToolResult, any, error) {
	if err := t.Policy.Check(policy.OpUpdate, policy.Params{Confidence: overlayConfidence(input.Confidence)}); err != nil {
		return toolErrFromErr(err)
	}

	e, err := t.DB.UpdateEntry(input.ID, storage.UpdateEntryPatch{
		Topic:      input.Topic,
		Content:    input.Content,
		Tags:       input.Tags,
		Source:     input.Source,
		Actor:      input.Actor,
		Confidence: input.Confidence,
	})
	if err != nil {
		return toolErrFromErr(err)
	}
	t.notify("entries/" + e.ID)
	return toolJSON(e)
}

// QueryInput describes a bounded hybrid retrieval query. Offset is
// intentionally not a real cursor mechanism: a request that sets it is
// rejected rather than silently ignored, since only cursor-based paging
// is supported.
type QueryInput struct {
	Topic   string   `json:"topic,omitempty"`
	Content string   `json:"content,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Cursor  string   `json:"cursor,omitempty"`
	Offset  int      `json:"offset,omitempty" jsonschema:"Not supported; requests carrying this are rejected"`
}

// queryResultItem carries the full entry plus, for hybrid-retrieval
// results, the fused score and its component breakdown. Plain structured
// filter results leave the score fields absent.
type queryResultItem struct {
	models.Entry
	Score         *float64 `json:"score,omitempty"`
	LexicalScore  *float64 `json:"lexical_score,omitempty"`
	SemanticScore *float64 `json:"semantic_score,omitempty"`
	GraphScore    *float64 `json:"graph_score,omitempty"`
	GraphHops     *int     `json:"graph_hops,omitempty"`
}

func scoredResultItem(item retrieval.Item) queryResultItem {
	return queryResultItem{
		Entry:         item.Entry,
		Score:         &item.Score,
		LexicalScore:  &item.Breakdown.Lexical,
		SemanticScore: &item.Breakdown.Semantic,
		GraphScore:    &item.Breakdown.Graph,
		GraphHops:     &item.Breakdown.GraphHops,
	}
}

type queryResult struct {
	Items       []queryResultItem `json:"items"`
	NextCursor  string            `json:"next_cursor,omitempty"`
	RetrievalMs int64             `json:"retrieval_ms,omitempty"`
}

// Query runs the hybrid retriever when a free-text query is present
// (content field doubles as the search string), otherwise falls back to
// a plain structured filter over topic/tags.
func (t *Tools) Query(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, any, error) {
	if input.Offset != 0 {
		return toolErrFromErr(errs.Validationf("offset is not supported; use cursor for pagination"))
	}

	if input.Content != "" && t.Retriever != nil {
		res, err := t.Retriever.Query(ctx, input.Content, input.Limit, input.Cursor, nil)
		if err != nil {
			return toolErrFromErr(err)
		}
		items := make([]queryResultItem, 0, len(res.Items))
		for _, it := range res.Items {
			items = append(items, scoredResultItem(it))
		}
		return toolJSON(queryResult{Items: items, NextCursor: res.NextCursor, RetrievalMs: res.RetrievalMs})
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	entries, err := t.DB.QueryEntries(storage.EntryFilter{
		Topic: input.Topic,
		Tags:  input.Tags,
		Limit: limit,
	})
	if err != nil {
		return toolErrFromErr(err)
	}
	items := make([]queryResultItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, queryResultItem{Entry: e})
	}
	return toolJSON(queryResult{Items: items})
}

// DeleteInput names either an entry or a triple to soft-delete.
type DeleteInput struct {
	ID         string `json:"id" jsonschema:"Row id to delete"`
	EntityType string `json:"entity_type" jsonschema:"One of entry, triple"`
}

type deleteResult struct {
	ID         string `json:"id"`
	EntityType string `json:"entity_type"`
	Deleted    bool   `json:"deleted"`
}

// Delete soft-deletes an entry or a triple.
func (t *Tools) Delete(_ context.Context, _ *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, any, error) {
	switch input.EntityType {
	case models.EntityTypeEntry:
		if err := t.DB.DeleteEntry(input.ID); err != nil {
			return toolErrFromErr(err)
		}
	case models.EntityTypeTriple:
		if err := t.DB.DeleteTriple(input.ID); err != nil {
			return toolErrFromErr(err)
		}
	default:
		return toolErrFromErr(errs.Validationf("entity_type must be %q or %q", models.EntityTypeEntry, models.EntityTypeTriple))
	}
	t.notify(input.EntityType + "s/" + input.ID)
	return toolJSON(deleteResult{ID: input.ID, EntityType: input.EntityType, Deleted: true})
}
