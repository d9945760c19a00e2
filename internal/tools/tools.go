// Package tools implements the MCP tool handlers surfaced by the server:
// one method per operation in the external interface table, each
// validating through the policy engine before reaching storage.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagneradl/knowledge-mcp/internal/conflict"
	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/ingest"
	"github.com/wagneradl/knowledge-mcp/internal/notify"
	"github.com/wagneradl/knowledge-mcp/internal/policy"
	"github.com/wagneradl/knowledge-mcp/internal/retrieval"
	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

// Tools holds every collaborator a tool handler may need. All operations
// share one instance; the storage layer is the sole row-mutation owner.
type Tools struct {
	DB        *storage.Store
	Policy    *policy.Engine
	Conflicts *conflict.Cache
	Retriever *retrieval.Retriever
	Scheduler *ingest.Scheduler
	Notifier  notify.Notifier
}

// overlayConfidence unwraps a field-level overlay patch's confidence: nil
// when the caller didn't touch the field or explicitly cleared it, the
// supplied value otherwise. Used to run the policy engine's confidence
// floor against partial updates the same way it runs against creates.
func overlayConfidence(patch **float64) *float64 {
	if patch == nil || *patch == nil {
		return nil
	}
	return *patch
}

func (t *Tools) notify(uris ...string) {
	if t.Notifier != nil {
		t.Notifier.Notify(uris...)
	}
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// errorEnvelope is the structured error payload spec.md §6 requires:
// {error: <kind>, message, retryable}.
type errorEnvelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// toolErrFromErr renders any error, preferring the closed errs taxonomy,
// into the structured envelope.
func toolErrFromErr(err error) (*mcp.CallToolResult, any, error) {
	env := errorEnvelope{
		Error:     string(errs.KindOf(err)),
		Message:   err.Error(),
		Retryable: errs.Retryable(err),
	}
	data, marshalErr := json.Marshal(env)
	if marshalErr != nil {
		return toolError("failed to marshal error: %v", marshalErr), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}, nil, nil
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
