package registry

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/marcus/vc/internal/models"
	"github.com/marcus/vc/internal/record"
)

// Mem is an in-memory Store. It mirrors Disk's contract, including
// not-exist errors on Get and Remove, but skips symlink resolution so
// it can be used with paths that do not exist on the host.
type Mem struct {
	mu      sync.Mutex
	records map[models.WorkspaceName]record.Workspace
}

// NewMem returns an empty in-memory registry.
func NewMem() *Mem {
	return &Mem{records: make(map[models.WorkspaceName]record.Workspace)}
}

// Name identifies the store implementation.
func (m *Mem) Name() string {
	return "mem"
}

// Exists reports whether a record is present for name.
func (m *Mem) Exists(name models.WorkspaceName) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[name]
	return ok
}

// Get returns a copy of the record for name, or a not-exist error.
func (m *Mem) Get(name models.WorkspaceName) (*record.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name.Symbol(), fs.ErrNotExist)
	}
	return &rec, nil
}

// Set stores a record for name with path made absolute and cleaned.
func (m *Mem) Set(name models.WorkspaceName, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[name] = record.Workspace{Name: name.Symbol(), Path: abs}
	return nil
}

// Remove deletes the record for name, or returns a not-exist error.
func (m *Mem) Remove(name models.WorkspaceName) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[name]; !ok {
		return fmt.Errorf("%s: %w", name.Symbol(), fs.ErrNotExist)
	}
	delete(m.records, name)
	return nil
}
