package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/policy"
)

// UpsertEntityInput names the canonical entity to resolve or create.
type UpsertEntityInput struct {
	Name string `json:"name" jsonschema:"Entity name to resolve or create"`
}

type upsertEntityResult struct {
	Entity  *models.CanonicalEntity `json:"entity"`
	Created bool                    `json:"created"`
}

// UpsertEntity resolves name to an existing canonical entity or mints a
// new one.
func (t *Tools) UpsertEntity(_ context.Context, _ *mcp.CallToolRequest, input UpsertEntityInput) (*mcp.CallToolResult, any, error) {
	if err := t.Policy.Check(policy.OpEntity, policy.Params{Name: input.Name}); err != nil {
		return toolErrFromErr(err)
	}

	e, created, err := t.DB.UpsertEntity(input.Name)
	if err != nil {
		return toolErrFromErr(err)
	}
	if created {
		t.notify("entities/" + e.ID)
	}
	return toolJSON(upsertEntityResult{Entity: e, Created: created})
}

// MergeEntitiesInput names the surviving and absorbed canonical entities.
type MergeEntitiesInput struct {
	KeepID  string `json:"keep_id"`
	MergeID string `json:"merge_id"`
}

type mergeEntitiesResult struct {
	KeepID      string `json:"keep_id"`
	MergeID     string `json:"merge_id"`
	MergedCount int    `json:"merged_count"`
}

// MergeEntities absorbs merge_id into keep_id, rewriting every triple,
// entry, and alias that referenced the merged entity.
func (t *Tools) MergeEntities(_ context.Context, _ *mcp.CallToolRequest, input MergeEntitiesInput) (*mcp.CallToolResult, any, error) {
	result, err := t.DB.MergeEntities(input.KeepID, input.MergeID)
	if err != nil {
		return toolErrFromErr(err)
	}
	t.notify("entities/" + input.KeepID)
	return toolJSON(mergeEntitiesResult{
		KeepID:      result.KeepID,
		MergeID:     result.MergeID,
		MergedCount: result.MergedCount,
	})
}
