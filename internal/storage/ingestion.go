package storage

import (
	"database/sql"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/idgen"
	"github.com/wagneradl/knowledge-mcp/internal/models"
)

const ingestionColumns = `id, status, input_uri, content, source, total_items, processed_items, error, created_at, updated_at`

// ingestionRank orders statuses for the forward-only transition check.
var ingestionRank = map[string]int{
	models.IngestionPending:    0,
	models.IngestionProcessing: 1,
	models.IngestionCompleted:  2,
	models.IngestionFailed:     2,
}

// CreateIngestionTask records a new ingestion job as processing with the
// given total chunk count and an optional source identifier. Used by the
// synchronous path, which never persists the input content past the call.
func (s *Store) CreateIngestionTask(inputURI *string, totalItems int) (*models.IngestionTask, error) {
	t, err := s.insertIngestionTask(inputURI, nil, nil, totalItems)
	if err != nil {
		return nil, err
	}
	// A zero advance moves the new task from pending to processing.
	return s.AdvanceIngestionTask(t.ID, 0)
}

// CreateAsyncIngestionTask records a pending task holding content and
// source inline, for the batcher to resume against.
func (s *Store) CreateAsyncIngestionTask(content string, source *string, totalItems int) (*models.IngestionTask, error) {
	return s.insertIngestionTask(nil, &content, source, totalItems)
}

func (s *Store) insertIngestionTask(inputURI, content, source *string, totalItems int) (*models.IngestionTask, error) {
	now := idgen.Now()
	t := models.IngestionTask{
		ID:         idgen.NewID(),
		Status:     models.IngestionPending,
		InputURI:   inputURI,
		Content:    content,
		Source:     source,
		TotalItems: totalItems,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := s.db.Exec(
		`INSERT INTO ingestion_tasks (`+ingestionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, 0, NULL, ?, ?)`,
		t.ID, t.Status, t.InputURI, t.Content, t.Source, t.TotalItems, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "insert ingestion task")
	}
	return &t, nil
}

// GetIngestionTask fetches a task by id.
func (s *Store) GetIngestionTask(id string) (*models.IngestionTask, error) {
	return scanIngestionTaskRow(s.db.QueryRow(
		`SELECT `+ingestionColumns+` FROM ingestion_tasks WHERE id = ?`, id,
	))
}

func scanIngestionTaskRow(row *sql.Row) (*models.IngestionTask, error) {
	var t models.IngestionTask
	err := row.Scan(&t.ID, &t.Status, &t.InputURI, &t.Content, &t.Source, &t.TotalItems, &t.ProcessedItems, &t.Error, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("ingestion task not found")
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "scan ingestion task")
	}
	return &t, nil
}

// AdvanceIngestionTask bumps processed_items by delta and transitions the
// task to processing if it was pending. The counter never exceeds
// total_items.
func (s *Store) AdvanceIngestionTask(id string, delta int) (*models.IngestionTask, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	t, err := scanIngestionTaskTx(tx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == models.IngestionCompleted || t.Status == models.IngestionFailed {
		return nil, errs.Conflictf("ingestion task %q already finished", id)
	}

	newProcessed := t.ProcessedItems + delta
	if newProcessed > t.TotalItems {
		newProcessed = t.TotalItems
	}
	now := idgen.Now()
	if _, err := tx.Exec(
		`UPDATE ingestion_tasks SET status = ?, processed_items = ?, updated_at = ? WHERE id = ?`,
		models.IngestionProcessing, newProcessed, now, id,
	); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "advance ingestion task")
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "commit")
	}
	t.Status = models.IngestionProcessing
	t.ProcessedItems = newProcessed
	t.UpdatedAt = now
	return t, nil
}

// CompleteIngestionTask marks a task completed.
func (s *Store) CompleteIngestionTask(id string) (*models.IngestionTask, error) {
	return s.finishIngestionTask(id, models.IngestionCompleted, nil)
}

// FailIngestionTask marks a task failed with the given error message.
func (s *Store) FailIngestionTask(id string, reason string) (*models.IngestionTask, error) {
	return s.finishIngestionTask(id, models.IngestionFailed, &reason)
}

func (s *Store) finishIngestionTask(id, status string, reason *string) (*models.IngestionTask, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	t, err := scanIngestionTaskTx(tx, id)
	if err != nil {
		return nil, err
	}
	if ingestionRank[t.Status] > ingestionRank[status] {
		return nil, errs.Conflictf("ingestion task %q cannot move from %q to %q", id, t.Status, status)
	}

	now := idgen.Now()
	if _, err := tx.Exec(
		`UPDATE ingestion_tasks SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		status, reason, now, id,
	); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "finish ingestion task")
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "commit")
	}
	t.Status = status
	t.Error = reason
	t.UpdatedAt = now
	return t, nil
}

func scanIngestionTaskTx(tx *sql.Tx, id string) (*models.IngestionTask, error) {
	row := tx.QueryRow(`SELECT `+ingestionColumns+` FROM ingestion_tasks WHERE id = ?`, id)
	var t models.IngestionTask
	err := row.Scan(&t.ID, &t.Status, &t.InputURI, &t.Content, &t.Source, &t.TotalItems, &t.ProcessedItems, &t.Error, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("ingestion task not found")
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "scan ingestion task")
	}
	return &t, nil
}
