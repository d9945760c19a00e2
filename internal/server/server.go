// Package server assembles the MCP server: tool and resource
// registration over the storage, policy, conflict, and retrieval
// collaborators.
package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagneradl/knowledge-mcp/internal/conflict"
	"github.com/wagneradl/knowledge-mcp/internal/ingest"
	"github.com/wagneradl/knowledge-mcp/internal/notify"
	"github.com/wagneradl/knowledge-mcp/internal/policy"
	"github.com/wagneradl/knowledge-mcp/internal/retrieval"
	"github.com/wagneradl/knowledge-mcp/internal/storage"
	"github.com/wagneradl/knowledge-mcp/internal/tools"
)

// Deps bundles every collaborator the server wires into its tool set.
type Deps struct {
	Store     *storage.Store
	Policy    *policy.Engine
	Conflicts *conflict.Cache
	Retriever *retrieval.Retriever
	Scheduler *ingest.Scheduler
	Notifier  notify.Notifier
}

// New creates a fully configured MCP server with every operation and read
// resource registered.
func New(deps Deps) *mcp.Server {
	t := &tools.Tools{
		DB:        deps.Store,
		Policy:    deps.Policy,
		Conflicts: deps.Conflicts,
		Retriever: deps.Retriever,
		Scheduler: deps.Scheduler,
		Notifier:  deps.Notifier,
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "knowledge-mcp",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "store",
		Description: "Store a free-text knowledge entry",
	}, t.Store)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update",
		Description: "Apply a partial update to an existing entry",
	}, t.Update)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "query",
		Description: "Retrieve entries by hybrid lexical/semantic/graph search or by structured filter",
	}, t.Query)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete",
		Description: "Soft-delete an entry or a triple",
	}, t.Delete)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "relate",
		Description: "Create a subject-predicate-object triple, or surface a conflict if one contradicts an existing triple",
	}, t.Relate)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "query_graph",
		Description: "Filter triples by subject, predicate, and/or object",
	}, t.QueryGraph)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_triple",
		Description: "Apply a partial update to an existing triple",
	}, t.UpdateTriple)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "upsert_triple",
		Description: "Update the active triple sharing subject and predicate, or insert a new one",
	}, t.UpsertTriple)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "resolve_conflict",
		Description: "Apply replace, retain_both, or reject to a pending triple conflict",
	}, t.ResolveConflict)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "upsert_entity",
		Description: "Resolve a name to a canonical entity, or mint a new one",
	}, t.UpsertEntity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "merge_entities",
		Description: "Absorb one canonical entity into another, rewriting every triple, entry, and alias that referenced it",
	}, t.MergeEntities)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "undo",
		Description: "Revert the most recent transactions",
	}, t.Undo)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "history",
		Description: "List recent transactions, optionally filtered by entity type",
	}, t.History)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "ingest",
		Description: "Chunk and store free-text content as entries, synchronously for small inputs and asynchronously for large ones",
	}, t.Ingest)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "ingestion_status",
		Description: "Check the progress of an ingestion task",
	}, t.IngestionStatus)

	registerResources(srv, deps.Store)

	return srv
}
