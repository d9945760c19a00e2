package storage

import (
	"database/sql"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/idgen"
	"github.com/wagneradl/knowledge-mcp/internal/models"
)

// appendTx writes one transaction row within tx, in the same atomic batch
// as the data mutation it describes.
func appendTx(tx *sql.Tx, t models.Transaction) error {
	if t.ID == "" {
		t.ID = idgen.NewID()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = idgen.Now()
	}
	_, err := tx.Exec(
		`INSERT INTO transactions (id, op, entity_type, entity_id, before_snapshot, after_snapshot, reverted_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL, ?)`,
		t.ID, t.Op, t.EntityType, t.EntityID, t.BeforeSnapshot, t.AfterSnapshot, t.CreatedAt,
	)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "append transaction")
	}
	return nil
}

// History returns transactions ordered id-descending (per §6 resource
// ordering), optionally filtered by entity_type, capped at limit.
func (s *Store) History(limit int, entityType string) ([]models.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows *sql.Rows
	var err error
	if entityType != "" {
		rows, err = s.db.Query(
			`SELECT id, op, entity_type, entity_id, before_snapshot, after_snapshot, reverted_by, created_at
			 FROM transactions WHERE entity_type = ? ORDER BY id DESC LIMIT ?`,
			entityType, limit,
		)
	} else {
		rows, err = s.db.Query(
			`SELECT id, op, entity_type, entity_id, before_snapshot, after_snapshot, reverted_by, created_at
			 FROM transactions ORDER BY id DESC LIMIT ?`,
			limit,
		)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "query history")
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.Op, &t.EntityType, &t.EntityID, &t.BeforeSnapshot, &t.AfterSnapshot, &t.RevertedBy, &t.CreatedAt); err != nil {
			return nil, errs.Wrap(errs.Internal, err, "scan transaction")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "iterate transactions")
	}
	if out == nil {
		out = []models.Transaction{}
	}
	return out, nil
}

// ListTransactions returns a page of transactions ordered id-descending,
// for the `transactions` read resource, with opaque cursor pagination.
func (s *Store) ListTransactions(limit int, cursor string) ([]models.Transaction, string, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	lastID, ok := decodeCursor(cursor)

	var rows *sql.Rows
	var err error
	if ok {
		rows, err = s.db.Query(
			`SELECT id, op, entity_type, entity_id, before_snapshot, after_snapshot, reverted_by, created_at
			 FROM transactions WHERE id < ? ORDER BY id DESC LIMIT ?`,
			lastID, limit+1,
		)
	} else {
		rows, err = s.db.Query(
			`SELECT id, op, entity_type, entity_id, before_snapshot, after_snapshot, reverted_by, created_at
			 FROM transactions ORDER BY id DESC LIMIT ?`,
			limit+1,
		)
	}
	if err != nil {
		return nil, "", errs.Wrap(errs.Internal, err, "list transactions")
	}
	defer rows.Close()
	items, err := scanTransactions(rows)
	if err != nil {
		return nil, "", err
	}
	return paginateByID(items, limit, func(t models.Transaction) string { return t.ID })
}
