package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagneradl/knowledge-mcp/internal/ingest"
	"github.com/wagneradl/knowledge-mcp/internal/models"
)

// IngestInput carries the content to ingest and an optional source label.
type IngestInput struct {
	Content string  `json:"content" jsonschema:"Text to chunk and store as entries"`
	Source  *string `json:"source,omitempty"`
}

type ingestResult struct {
	TaskID            string `json:"task_id"`
	EntriesCreated    int    `json:"entries_created,omitempty"`
	DuplicatesSkipped int    `json:"duplicates_skipped,omitempty"`
}

// Ingest chunks content into entries. Small inputs are processed inline;
// larger ones are queued and driven to completion by the background
// scheduler, returning immediately with just the task id.
func (t *Tools) Ingest(_ context.Context, _ *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, any, error) {
	if ingest.IsSyncEligible(input.Content) {
		result, err := ingest.Sync(t.DB, input.Content, input.Source)
		if err != nil {
			return toolErrFromErr(err)
		}
		t.notify("ingestion_tasks/" + result.TaskID)
		return toolJSON(ingestResult{
			TaskID:            result.TaskID,
			EntriesCreated:    result.EntriesCreated,
			DuplicatesSkipped: result.DuplicatesSkipped,
		})
	}

	task, err := ingest.StartAsync(t.DB, input.Content, input.Source)
	if err != nil {
		return toolErrFromErr(err)
	}
	if t.Scheduler != nil {
		go t.Scheduler.Run(context.Background(), task.ID)
	}
	return toolJSON(ingestResult{TaskID: task.ID})
}

// IngestionStatusInput names the ingestion task to check.
type IngestionStatusInput struct {
	TaskID string `json:"task_id"`
}

type ingestionStatusResult struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	TotalItems     int     `json:"total_items"`
	ProcessedItems int     `json:"processed_items"`
	Error          *string `json:"error"`
}

// IngestionStatus reports the current progress of an ingestion task.
func (t *Tools) IngestionStatus(_ context.Context, _ *mcp.CallToolRequest, input IngestionStatusInput) (*mcp.CallToolResult, any, error) {
	task, err := t.DB.GetIngestionTask(input.TaskID)
	if err != nil {
		return toolErrFromErr(err)
	}
	return toolJSON(taskStatus(task))
}

func taskStatus(task *models.IngestionTask) ingestionStatusResult {
	return ingestionStatusResult{
		ID:             task.ID,
		Status:         task.Status,
		TotalItems:     task.TotalItems,
		ProcessedItems: task.ProcessedItems,
		Error:          task.Error,
	}
}
