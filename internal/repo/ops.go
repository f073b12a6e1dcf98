package repo

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Operation is one committed entry in the operation log.
type Operation struct {
	ID          int64
	Description string
	Changes     []ViewChange
	Undone      bool
	CreatedAt   time.Time
}

// parseTimestamp tries common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05Z07:00",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &time.ParseError{Layout: "2006-01-02 15:04:05", Value: s}
}

func scanOperation(scan func(dest ...any) error) (*Operation, error) {
	var (
		op        Operation
		undo      string
		undone    int
		createdAt string
	)
	if err := scan(&op.ID, &op.Description, &undo, &undone, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(undo), &op.Changes); err != nil {
		return nil, fmt.Errorf("decode undo record for operation %d: %w", op.ID, err)
	}
	op.Undone = undone != 0
	op.CreatedAt, _ = parseTimestamp(createdAt)
	return &op, nil
}

// Ops returns committed operations, newest first. A non-positive limit
// returns all of them.
func (r *Repo) Ops(limit int) ([]*Operation, error) {
	query := `SELECT id, description, undo, undone, created_at FROM oplog ORDER BY id DESC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.conn.Query(query+` LIMIT ?`, limit)
	} else {
		rows, err = r.conn.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("query oplog: %w", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op, err := scanOperation(rows.Scan)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// LastUndoableOp returns the most recent operation that has not been
// undone, or nil when the log holds none.
func (r *Repo) LastUndoableOp() (*Operation, error) {
	row := r.conn.QueryRow(
		`SELECT id, description, undo, undone, created_at
		 FROM oplog WHERE undone = 0 ORDER BY id DESC LIMIT 1`,
	)
	op, err := scanOperation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return op, nil
}
