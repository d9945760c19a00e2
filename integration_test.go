package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagneradl/knowledge-mcp/internal/conflict"
	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/policy"
	"github.com/wagneradl/knowledge-mcp/internal/server"
	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

// setupIntegration creates a real MCP server with in-memory transport and
// returns a connected client session.
func setupIntegration(t *testing.T) (*mcp.ClientSession, func()) {
	t.Helper()
	return setupIntegrationWithPolicy(t, policy.New(0))
}

// setupIntegrationWithPolicy is setupIntegration with a caller-supplied
// policy engine, for tests that need a non-zero confidence floor.
func setupIntegrationWithPolicy(t *testing.T, pol *policy.Engine) (*mcp.ClientSession, func()) {
	t.Helper()

	store, err := storage.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}

	srv := server.New(server.Deps{
		Store:     store,
		Policy:    pol,
		Conflicts: conflict.NewCache(nil),
	})

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	if _, err := srv.Connect(ctx, serverTransport, nil); err != nil {
		store.Close()
		t.Fatalf("server connect: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		store.Close()
		t.Fatalf("client connect: %v", err)
	}

	cleanup := func() {
		session.Close()
		store.Close()
	}
	return session, cleanup
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	if result.IsError {
		t.Fatalf("CallTool(%s) returned error: %s", name, tc.Text)
	}
	return tc.Text
}

func callToolExpectError(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): protocol error: %v", name, err)
	}
	tc := result.Content[0].(*mcp.TextContent)
	if !result.IsError {
		t.Fatalf("CallTool(%s): expected error but got success: %s", name, tc.Text)
	}
	return tc.Text
}

func TestIntegration_ListTools(t *testing.T) {
	session, cleanup := setupIntegration(t)
	defer cleanup()

	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{
		"store", "update", "query", "delete", "relate", "query_graph",
		"update_triple", "upsert_triple", "resolve_conflict", "upsert_entity",
		"merge_entities", "undo", "history", "ingest", "ingestion_status",
	}

	names := make(map[string]bool)
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("missing tool: %s", name)
		}
	}
	if len(result.Tools) != len(expected) {
		t.Errorf("expected %d tools, got %d", len(expected), len(result.Tools))
	}
}

func TestIntegration_StoreQueryUpdateDelete(t *testing.T) {
	session, cleanup := setupIntegration(t)
	defer cleanup()

	text := callTool(t, session, "store", map[string]any{
		"topic":   "coffee",
		"content": "Espresso is brewed under pressure.",
		"tags":    []any{"drinks"},
	})
	var stored struct {
		Entry models.Entry `json:"entry"`
		URI   string       `json:"uri"`
	}
	if err := json.Unmarshal([]byte(text), &stored); err != nil {
		t.Fatalf("parse store: %v", err)
	}
	if stored.Entry.Topic != "coffee" {
		t.Errorf("topic = %q, want coffee", stored.Entry.Topic)
	}
	if stored.URI != "entries/"+stored.Entry.ID {
		t.Errorf("uri = %q", stored.URI)
	}

	text = callTool(t, session, "query", map[string]any{"topic": "coffee"})
	var queried struct {
		Items []models.Entry `json:"items"`
	}
	if err := json.Unmarshal([]byte(text), &queried); err != nil {
		t.Fatalf("parse query: %v", err)
	}
	if len(queried.Items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(queried.Items))
	}

	newTopic := "espresso"
	text = callTool(t, session, "update", map[string]any{
		"id":    stored.Entry.ID,
		"topic": newTopic,
	})
	var updated models.Entry
	if err := json.Unmarshal([]byte(text), &updated); err != nil {
		t.Fatalf("parse update: %v", err)
	}
	if updated.Topic != "espresso" {
		t.Errorf("updated topic = %q, want espresso", updated.Topic)
	}

	text = callTool(t, session, "delete", map[string]any{
		"id":          stored.Entry.ID,
		"entity_type": "entry",
	})
	if !strings.Contains(text, `"deleted": true`) {
		t.Errorf("expected deleted:true, got %s", text)
	}

	text = callTool(t, session, "query", map[string]any{"topic": "espresso"})
	json.Unmarshal([]byte(text), &queried)
	if len(queried.Items) != 0 {
		t.Errorf("expected deleted entry to be excluded, got %d items", len(queried.Items))
	}
}

func TestIntegration_RelateConflictResolve(t *testing.T) {
	session, cleanup := setupIntegration(t)
	defer cleanup()

	text := callTool(t, session, "relate", map[string]any{
		"subject":   "sqlite",
		"predicate": "written_in",
		"object":    "c",
	})
	var first struct {
		Triple *models.Triple `json:"triple"`
	}
	if err := json.Unmarshal([]byte(text), &first); err != nil {
		t.Fatalf("parse relate: %v", err)
	}
	if first.Triple == nil {
		t.Fatal("expected a triple on first relate")
	}

	text = callTool(t, session, "relate", map[string]any{
		"subject":   "sqlite",
		"predicate": "written_in",
		"object":    "rust",
	})
	var second struct {
		Conflict *models.ConflictInfo `json:"conflict"`
	}
	if err := json.Unmarshal([]byte(text), &second); err != nil {
		t.Fatalf("parse relate conflict: %v", err)
	}
	if second.Conflict == nil {
		t.Fatal("expected a conflict on contradicting relate")
	}

	text = callTool(t, session, "resolve_conflict", map[string]any{
		"conflict_id": second.Conflict.ConflictID,
		"strategy":    "replace",
	})
	var resolved struct {
		Triple *models.Triple `json:"triple"`
	}
	if err := json.Unmarshal([]byte(text), &resolved); err != nil {
		t.Fatalf("parse resolve_conflict: %v", err)
	}
	if resolved.Triple == nil || resolved.Triple.Object != "rust" {
		t.Errorf("expected replaced triple with object rust, got %+v", resolved.Triple)
	}

	text = callTool(t, session, "query_graph", map[string]any{"subject": "sqlite"})
	var graph struct {
		Items []models.Triple `json:"items"`
	}
	if err := json.Unmarshal([]byte(text), &graph); err != nil {
		t.Fatalf("parse query_graph: %v", err)
	}
	if len(graph.Items) != 1 || graph.Items[0].Object != "rust" {
		t.Errorf("expected 1 triple with object rust, got %+v", graph.Items)
	}
}

func TestIntegration_UpsertTripleAndUndo(t *testing.T) {
	session, cleanup := setupIntegration(t)
	defer cleanup()

	text := callTool(t, session, "upsert_triple", map[string]any{
		"subject":   "go",
		"predicate": "compiles_to",
		"object":    "machine_code",
	})
	var first struct {
		Triple  models.Triple `json:"triple"`
		Created bool          `json:"created"`
	}
	if err := json.Unmarshal([]byte(text), &first); err != nil {
		t.Fatalf("parse upsert_triple: %v", err)
	}
	if !first.Created {
		t.Error("expected created=true on first upsert")
	}

	text = callTool(t, session, "upsert_triple", map[string]any{
		"subject":   "go",
		"predicate": "compiles_to",
		"object":    "native_binaries",
	})
	var second struct {
		Triple  models.Triple `json:"triple"`
		Created bool          `json:"created"`
	}
	json.Unmarshal([]byte(text), &second)
	if second.Created {
		t.Error("expected created=false on second upsert")
	}
	if second.Triple.Object != "native_binaries" {
		t.Errorf("expected upserted object native_binaries, got %q", second.Triple.Object)
	}

	text = callTool(t, session, "undo", map[string]any{"count": 1})
	var undone struct {
		Reverted []string `json:"reverted"`
	}
	if err := json.Unmarshal([]byte(text), &undone); err != nil {
		t.Fatalf("parse undo: %v", err)
	}
	if len(undone.Reverted) != 1 {
		t.Fatalf("expected 1 reverted transaction, got %d", len(undone.Reverted))
	}

	text = callTool(t, session, "query_graph", map[string]any{"subject": "go"})
	var graph struct {
		Items []models.Triple `json:"items"`
	}
	json.Unmarshal([]byte(text), &graph)
	if len(graph.Items) != 1 || graph.Items[0].Object != "machine_code" {
		t.Errorf("expected undo to restore machine_code, got %+v", graph.Items)
	}
}

func TestIntegration_EntityMerge(t *testing.T) {
	session, cleanup := setupIntegration(t)
	defer cleanup()

	text := callTool(t, session, "upsert_entity", map[string]any{"name": "golang"})
	var keep struct {
		Entity  models.CanonicalEntity `json:"entity"`
		Created bool                   `json:"created"`
	}
	json.Unmarshal([]byte(text), &keep)

	text = callTool(t, session, "upsert_entity", map[string]any{"name": "go-lang"})
	var merge struct {
		Entity  models.CanonicalEntity `json:"entity"`
		Created bool                   `json:"created"`
	}
	json.Unmarshal([]byte(text), &merge)

	callTool(t, session, "relate", map[string]any{
		"subject":   "go-lang",
		"predicate": "is_a",
		"object":    "language",
	})

	text = callTool(t, session, "merge_entities", map[string]any{
		"keep_id":  keep.Entity.ID,
		"merge_id": merge.Entity.ID,
	})
	var mergeResult struct {
		MergedCount int `json:"merged_count"`
	}
	if err := json.Unmarshal([]byte(text), &mergeResult); err != nil {
		t.Fatalf("parse merge_entities: %v", err)
	}
	if mergeResult.MergedCount != 1 {
		t.Errorf("expected 1 merged triple, got %d", mergeResult.MergedCount)
	}

	text = callTool(t, session, "query_graph", map[string]any{"subject": "golang"})
	var graph struct {
		Items []models.Triple `json:"items"`
	}
	json.Unmarshal([]byte(text), &graph)
	if len(graph.Items) != 1 {
		t.Errorf("expected the merged triple's subject rewritten to golang, got %+v", graph.Items)
	}
}

func TestIntegration_IngestSyncAndHistory(t *testing.T) {
	session, cleanup := setupIntegration(t)
	defer cleanup()

	text := callTool(t, session, "ingest", map[string]any{
		"content": "First paragraph.\n\nSecond paragraph.",
	})
	var ingested struct {
		TaskID         string `json:"task_id"`
		EntriesCreated int    `json:"entries_created"`
	}
	if err := json.Unmarshal([]byte(text), &ingested); err != nil {
		t.Fatalf("parse ingest: %v", err)
	}
	// Both short paragraphs fit in one 500-char chunk, so one entry results.
	if ingested.EntriesCreated != 1 {
		t.Errorf("expected 1 entry created, got %d", ingested.EntriesCreated)
	}

	text = callTool(t, session, "ingestion_status", map[string]any{"task_id": ingested.TaskID})
	var status struct {
		Status         string `json:"status"`
		TotalItems     int    `json:"total_items"`
		ProcessedItems int    `json:"processed_items"`
	}
	if err := json.Unmarshal([]byte(text), &status); err != nil {
		t.Fatalf("parse ingestion_status: %v", err)
	}
	if status.Status != "completed" || status.ProcessedItems != status.TotalItems {
		t.Errorf("expected completed task, got %+v", status)
	}

	text = callTool(t, session, "history", map[string]any{"limit": 10})
	var history struct {
		Items []models.Transaction `json:"items"`
	}
	if err := json.Unmarshal([]byte(text), &history); err != nil {
		t.Fatalf("parse history: %v", err)
	}
	if len(history.Items) == 0 {
		t.Error("expected non-empty transaction history after ingest")
	}
}

func TestIntegration_UpdatePolicyEnforcesConfidenceFloor(t *testing.T) {
	session, cleanup := setupIntegrationWithPolicy(t, policy.New(0.5))
	defer cleanup()

	confident := 0.9
	text := callTool(t, session, "store", map[string]any{
		"topic":      "coffee",
		"content":    "Arabica beans grow at high altitude.",
		"confidence": confident,
	})
	var stored struct {
		Entry models.Entry `json:"entry"`
	}
	if err := json.Unmarshal([]byte(text), &stored); err != nil {
		t.Fatalf("parse store: %v", err)
	}

	errText := callToolExpectError(t, session, "update", map[string]any{
		"id":         stored.Entry.ID,
		"confidence": 0.0,
	})
	if !strings.Contains(errText, "policy") {
		t.Errorf("expected a policy error for update below confidence floor, got %q", errText)
	}

	text = callTool(t, session, "relate", map[string]any{
		"subject":    "arabica",
		"predicate":  "grows_at",
		"object":     "high_altitude",
		"confidence": confident,
	})
	var related struct {
		Triple *models.Triple `json:"triple"`
	}
	if err := json.Unmarshal([]byte(text), &related); err != nil {
		t.Fatalf("parse relate: %v", err)
	}
	if related.Triple == nil {
		t.Fatal("expected a triple")
	}

	errText = callToolExpectError(t, session, "update_triple", map[string]any{
		"id":         related.Triple.ID,
		"confidence": 0.0,
	})
	if !strings.Contains(errText, "policy") {
		t.Errorf("expected a policy error for update_triple below confidence floor, got %q", errText)
	}
}

func TestIntegration_ErrorCases(t *testing.T) {
	session, cleanup := setupIntegration(t)
	defer cleanup()

	errText := callToolExpectError(t, session, "store", map[string]any{
		"topic":   "",
		"content": "",
	})
	if !strings.Contains(errText, "policy") {
		t.Errorf("expected a policy error for missing required fields, got %q", errText)
	}

	errText = callToolExpectError(t, session, "update", map[string]any{
		"id":    "does-not-exist",
		"topic": "x",
	})
	if !strings.Contains(errText, "not_found") {
		t.Errorf("expected not_found, got %q", errText)
	}

	errText = callToolExpectError(t, session, "delete", map[string]any{
		"id":          "abc",
		"entity_type": "bogus",
	})
	if !strings.Contains(errText, "entity_type must be") {
		t.Errorf("expected entity_type validation error, got %q", errText)
	}

	errText = callToolExpectError(t, session, "merge_entities", map[string]any{
		"keep_id":  "same",
		"merge_id": "same",
	})
	if !strings.Contains(errText, "validation") {
		t.Errorf("expected validation error for self-merge, got %q", errText)
	}

	errText = callToolExpectError(t, session, "query", map[string]any{
		"topic":  "coffee",
		"offset": 10,
	})
	if !strings.Contains(errText, "offset") {
		t.Errorf("expected offset validation error, got %q", errText)
	}
}
