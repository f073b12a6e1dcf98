package repo

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/marcus/vc/internal/models"
)

// A ViewChange records one view row touched by a transaction, with
// enough of the prior state to reverse it. An empty OldCommit means
// the row did not exist before; an empty NewCommit means the row was
// removed.
type ViewChange struct {
	Name      string `json:"name"`
	OldCommit string `json:"old_commit,omitempty"`
	NewCommit string `json:"new_commit,omitempty"`
}

// Transaction batches view mutations so they commit atomically with a
// single operation-log entry. Exactly one of Finish or Abort must be
// called. The repository write lock is held for the transaction's
// lifetime.
type Transaction struct {
	repo    *Repo
	tx      *sql.Tx
	changes []ViewChange
	done    bool
}

// StartTransaction acquires the repository write lock and begins a
// transaction.
func (r *Repo) StartTransaction() (*Transaction, error) {
	if err := r.lock.acquire(lockTimeout); err != nil {
		return nil, err
	}
	tx, err := r.conn.Begin()
	if err != nil {
		r.lock.release()
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Transaction{repo: r, tx: tx}, nil
}

func (t *Transaction) wcCommit(name models.WorkspaceName) (string, bool, error) {
	var commit string
	err := t.tx.QueryRow(
		`SELECT wc_commit FROM workspaces WHERE name = ?`, name.Symbol(),
	).Scan(&commit)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query workspace %s: %w", name.Symbol(), err)
	}
	return commit, true, nil
}

// SetWCCommit records commit as the working-copy commit for name,
// creating the view row if needed.
func (t *Transaction) SetWCCommit(name models.WorkspaceName, commit string) error {
	old, _, err := t.wcCommit(name)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(
		`INSERT INTO workspaces (name, wc_commit) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET wc_commit = excluded.wc_commit`,
		name.Symbol(), commit,
	)
	if err != nil {
		return fmt.Errorf("set wc commit for %s: %w", name.Symbol(), err)
	}
	t.changes = append(t.changes, ViewChange{
		Name:      name.Symbol(),
		OldCommit: old,
		NewCommit: commit,
	})
	return nil
}

// RemoveWCCommit drops name's view row. The workspace must be tracked;
// coordinators pre-validate before mutating.
func (t *Transaction) RemoveWCCommit(name models.WorkspaceName) error {
	old, ok, err := t.wcCommit(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no working-copy commit for workspace %s", name.Symbol())
	}
	if _, err := t.tx.Exec(
		`DELETE FROM workspaces WHERE name = ?`, name.Symbol(),
	); err != nil {
		return fmt.Errorf("remove wc commit for %s: %w", name.Symbol(), err)
	}
	t.changes = append(t.changes, ViewChange{
		Name:      name.Symbol(),
		OldCommit: old,
	})
	return nil
}

// MarkUndone flags an earlier operation as undone so it is skipped
// when looking for the next undo target.
func (t *Transaction) MarkUndone(opID int64) error {
	if _, err := t.tx.Exec(
		`UPDATE oplog SET undone = 1 WHERE id = ?`, opID,
	); err != nil {
		return fmt.Errorf("mark operation %d undone: %w", opID, err)
	}
	return nil
}

// Finish appends the operation-log entry and commits. The description
// is the human-readable summary shown by 'vc op log'.
func (t *Transaction) Finish(description string) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	undo, err := json.Marshal(t.changes)
	if err != nil {
		t.Abort()
		return fmt.Errorf("encode undo record: %w", err)
	}
	if _, err := t.tx.Exec(
		`INSERT INTO oplog (description, undo) VALUES (?, ?)`,
		description, string(undo),
	); err != nil {
		t.Abort()
		return fmt.Errorf("append oplog: %w", err)
	}
	if err := t.tx.Commit(); err != nil {
		t.Abort()
		return fmt.Errorf("commit transaction: %w", err)
	}
	t.done = true
	t.repo.lock.release()
	return nil
}

// Abort rolls the transaction back and releases the write lock. Safe
// to call after a failed Finish.
func (t *Transaction) Abort() {
	if t.done {
		return
	}
	t.done = true
	t.tx.Rollback()
	t.repo.lock.release()
}
