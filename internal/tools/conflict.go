package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

// ResolveConflictInput selects a pending conflict and the strategy to
// apply to it.
type ResolveConflictInput struct {
	ConflictID string `json:"conflict_id"`
	Strategy   string `json:"strategy" jsonschema:"One of replace, retain_both, reject"`
}

type resolveConflictResult struct {
	Triple *models.Triple `json:"triple,omitempty"`
	NoOp   bool           `json:"no_op,omitempty"`
}

// ResolveConflict applies one of the three allowed resolutions to a
// pending conflict: replace overwrites the existing triple's object,
// retain_both inserts the candidate alongside the existing triple, and
// reject discards the candidate without touching storage.
func (t *Tools) ResolveConflict(ctx context.Context, _ *mcp.CallToolRequest, input ResolveConflictInput) (*mcp.CallToolResult, any, error) {
	info, err := t.Conflicts.Get(ctx, input.ConflictID)
	if err != nil {
		return toolErrFromErr(err)
	}

	strategy := models.ConflictResolution(input.Strategy)
	allowed := false
	for _, a := range info.AllowedResolutions {
		if a == strategy {
			allowed = true
			break
		}
	}
	if !allowed {
		return toolErrFromErr(errs.Validationf("strategy %q is not allowed for conflict %q", input.Strategy, input.ConflictID))
	}

	var result resolveConflictResult
	switch strategy {
	case models.ResolveReplace:
		tr, err := t.DB.UpdateTriple(info.Existing.ID, storage.UpdateTriplePatch{
			Object:     &info.Candidate.Object,
			Source:     doublePtr(info.Candidate.Source),
			Actor:      doublePtr(info.Candidate.Actor),
			Confidence: doublePtrFloat(info.Candidate.Confidence),
		})
		if err != nil {
			return toolErrFromErr(err)
		}
		t.notify("triples/" + tr.ID)
		result.Triple = tr
	case models.ResolveRetainBoth:
		tr, err := t.DB.CreateTriple(storage.CreateTripleInput{
			Subject:    info.Candidate.Subject,
			Predicate:  info.Candidate.Predicate,
			Object:     info.Candidate.Object,
			Source:     info.Candidate.Source,
			Actor:      info.Candidate.Actor,
			Confidence: info.Candidate.Confidence,
		})
		if err != nil {
			return toolErrFromErr(err)
		}
		t.notify("triples/" + tr.ID)
		result.Triple = tr
	case models.ResolveReject:
		result.NoOp = true
	}

	if err := t.Conflicts.Delete(ctx, input.ConflictID); err != nil {
		return toolErrFromErr(err)
	}
	return toolJSON(result)
}

func doublePtr(p *string) **string {
	if p == nil {
		return nil
	}
	return &p
}

func doublePtrFloat(p *float64) **float64 {
	if p == nil {
		return nil
	}
	return &p
}
