package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagneradl/knowledge-mcp/internal/models"
)

// UndoInput optionally bounds how many recent transactions to revert.
type UndoInput struct {
	Count int `json:"count,omitempty" jsonschema:"Number of transactions to revert, default 1"`
}

type undoResult struct {
	Reverted []string `json:"reverted"`
}

// Undo reverts the n most recent non-revert transactions.
func (t *Tools) Undo(_ context.Context, _ *mcp.CallToolRequest, input UndoInput) (*mcp.CallToolResult, any, error) {
	n := input.Count
	if n <= 0 {
		n = 1
	}
	reverted, err := t.DB.Undo(n)
	if err != nil {
		return toolErrFromErr(err)
	}
	if len(reverted) > 0 {
		t.notify("transactions")
	}
	return toolJSON(undoResult{Reverted: reverted})
}

// HistoryInput optionally bounds and filters the transaction log query.
type HistoryInput struct {
	Limit      int    `json:"limit,omitempty"`
	EntityType string `json:"entity_type,omitempty" jsonschema:"One of entry, triple, entity, alias"`
}

type historyResult struct {
	Items []models.Transaction `json:"items"`
}

// History returns recent transactions, most recent first.
func (t *Tools) History(_ context.Context, _ *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, any, error) {
	items, err := t.DB.History(input.Limit, input.EntityType)
	if err != nil {
		return toolErrFromErr(err)
	}
	return toolJSON(historyResult{Items: items})
}
