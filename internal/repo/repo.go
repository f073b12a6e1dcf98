// Package repo implements the vc repository engine: the sqlite-backed
// view of tracked workspaces, the operation log, and the transactions
// that mutate them atomically.
//
// The workspace path registry is a separate durability domain (see
// package registry); the forget coordinator joins the two.
package repo

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/vc/internal/models"
	_ "modernc.org/sqlite"
)

// ControlDirName is the repository control directory, found at the
// root of the main working copy.
const ControlDirName = ".vc"

const (
	dbFile        = "repo.db"
	workspaceFile = "workspace"
)

const schema = `
-- The repository view: one row per tracked workspace, holding its
-- current working-copy commit.
CREATE TABLE IF NOT EXISTS workspaces (
    name TEXT PRIMARY KEY,
    wc_commit TEXT NOT NULL
);

-- Committed operations, newest last. undo holds a JSON array of the
-- view rows each operation changed, enough to reverse it.
CREATE TABLE IF NOT EXISTS oplog (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    description TEXT NOT NULL,
    undo TEXT NOT NULL DEFAULT '[]',
    undone INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Repo is an open repository.
type Repo struct {
	conn       *sql.DB
	root       string
	controlDir string
	lock       *writeLock
}

// Init creates a new repository rooted at root: the control directory,
// the database, and a "default" workspace bound to root with a fresh
// working-copy commit.
func Init(root string) (*Repo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	controlDir := filepath.Join(root, ControlDirName)
	if _, err := os.Stat(controlDir); err == nil {
		return nil, fmt.Errorf("repository already exists in %s", root)
	}
	if err := os.MkdirAll(controlDir, 0755); err != nil {
		return nil, fmt.Errorf("create control dir: %w", err)
	}
	return populateControlDir(root, controlDir)
}

// populateControlDir fills a freshly created control directory with the
// database and the default workspace. On failure it removes the
// directory again, so a later Init does not mistake the leftovers for
// an existing repository.
func populateControlDir(root, controlDir string) (*Repo, error) {
	fail := func(err error) (*Repo, error) {
		os.RemoveAll(controlDir)
		return nil, err
	}

	conn, err := openDB(filepath.Join(controlDir, dbFile))
	if err != nil {
		return fail(err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return fail(fmt.Errorf("create schema: %w", err))
	}

	commit, err := NewCommitID()
	if err != nil {
		conn.Close()
		return fail(err)
	}
	if _, err := conn.Exec(
		`INSERT INTO workspaces (name, wc_commit) VALUES (?, ?)`,
		models.DefaultWorkspaceName.Symbol(), commit,
	); err != nil {
		conn.Close()
		return fail(fmt.Errorf("register default workspace: %w", err))
	}

	wsPath := filepath.Join(controlDir, workspaceFile)
	if err := os.WriteFile(wsPath, []byte(models.DefaultWorkspaceName.Symbol()+"\n"), 0644); err != nil {
		conn.Close()
		return fail(fmt.Errorf("write %s: %w", wsPath, err))
	}

	return &Repo{
		conn:       conn,
		root:       root,
		controlDir: controlDir,
		lock:       newWriteLock(controlDir),
	}, nil
}

// Open opens the repository whose control directory lives under root.
func Open(root string) (*Repo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	controlDir := filepath.Join(root, ControlDirName)
	info, err := os.Stat(controlDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("no repository in %s (run 'vc init' first)", root)
	}

	conn, err := openDB(filepath.Join(controlDir, dbFile))
	if err != nil {
		return nil, err
	}
	// Additive-only schema; safe to re-run on every open.
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Repo{
		conn:       conn,
		root:       root,
		controlDir: controlDir,
		lock:       newWriteLock(controlDir),
	}, nil
}

func openDB(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// WAL allows concurrent readers while writes are serialized.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	// Fallback protection matching the write-lock timeout.
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	// Slightly faster writes, still safe with WAL.
	if _, err := conn.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}
	return conn, nil
}

// Close releases the repository's database connection.
func (r *Repo) Close() error {
	return r.conn.Close()
}

// Root returns the repository root (the main working copy).
func (r *Repo) Root() string {
	return r.root
}

// ControlDir returns the repository control directory. The workspace
// path registry lives under it.
func (r *Repo) ControlDir() string {
	return r.controlDir
}

// CurrentWorkspace returns the workspace name of the enclosing working
// copy. Repositories without the marker file report the default name.
func (r *Repo) CurrentWorkspace() models.WorkspaceName {
	data, err := os.ReadFile(filepath.Join(r.controlDir, workspaceFile))
	if err != nil {
		return models.DefaultWorkspaceName
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return models.DefaultWorkspaceName
	}
	return models.WorkspaceName(name)
}

// WCCommit returns the working-copy commit recorded in the view for
// name, and whether the view tracks the workspace at all.
func (r *Repo) WCCommit(name models.WorkspaceName) (string, bool, error) {
	var commit string
	err := r.conn.QueryRow(
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

// WorkspaceNames returns every workspace tracked by the view, sorted
// by name.
func (r *Repo) WorkspaceNames() ([]models.WorkspaceName, error) {
	rows, err := r.conn.Query(`SELECT name FROM workspaces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var names []models.WorkspaceName
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, models.WorkspaceName(name))
	}
	return names, rows.Err()
}
