// Package registry implements the per-repository workspace path
// registry: a directory-backed key/value store mapping workspace names
// to the absolute paths of their working copies.
//
// Each tracked workspace is one regular file under
// <control-dir>/workspace_store/ whose filename is the workspace's
// symbol form and whose contents are the encoded record. Writes are
// atomic (temp file plus rename), reads are naive; concurrent writers
// to the same key race and the last rename wins.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marcus/vc/internal/models"
	"github.com/marcus/vc/internal/record"
)

const storeDirName = "workspace_store"

// ErrNotDirectory reports that the registry path exists but is not a
// directory.
var ErrNotDirectory = errors.New("workspace store path exists and is not a directory")

// Store is the five-operation registry contract. Disk is the on-disk
// implementation; Mem backs tests and embedding callers.
type Store interface {
	Name() string
	Exists(name models.WorkspaceName) bool
	Get(name models.WorkspaceName) (*record.Workspace, error)
	Set(name models.WorkspaceName, path string) error
	Remove(name models.WorkspaceName) error
}

// Disk is the directory-backed registry. It holds no state beyond its
// root path; every query hits the filesystem.
type Disk struct {
	dir string
}

// Load binds a Disk registry rooted under repoPath, creating the store
// directory if it does not exist yet. Repositories created before the
// registry was introduced get an empty one on first load.
func Load(repoPath string) (*Disk, error) {
	dir := filepath.Join(repoPath, storeDirName)
	if err := createOrReuseDir(dir); err != nil {
		return nil, err
	}
	return &Disk{dir: dir}, nil
}

func createOrReuseDir(dir string) error {
	err := os.Mkdir(dir, 0755)
	if err == nil {
		return nil
	}
	if !os.IsExist(err) {
		return err
	}
	info, statErr := os.Stat(dir)
	if statErr != nil {
		return statErr
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}
	return nil
}

// Name identifies the store implementation.
func (d *Disk) Name() string {
	return "disk"
}

func (d *Disk) file(name models.WorkspaceName) string {
	return filepath.Join(d.dir, name.Symbol())
}

// Exists reports whether a record file is present for name. The file
// contents are not inspected; a corrupt record still reports true.
func (d *Disk) Exists(name models.WorkspaceName) bool {
	info, err := os.Stat(d.file(name))
	return err == nil && info.Mode().IsRegular()
}

// Get reads and decodes the record for name. A missing file surfaces
// as the underlying not-exist error; corrupt contents as
// record.ErrMalformed.
func (d *Disk) Get(name models.WorkspaceName) (*record.Workspace, error) {
	data, err := os.ReadFile(d.file(name))
	if err != nil {
		return nil, err
	}
	return record.Decode(data)
}

// Set canonicalizes path and atomically replaces the record for name.
// The bytes land in a temporary file in the store directory, are
// flushed, and are renamed over the final name in one step, so readers
// observe either the old record or the new one, never a partial write.
func (d *Disk) Set(name models.WorkspaceName, path string) error {
	canonical, err := Canonicalize(path)
	if err != nil {
		return err
	}
	data := record.Encode(&record.Workspace{
		Name: name.Symbol(),
		Path: canonical,
	})

	// The temp file must live in the store directory itself so the
	// final rename stays on one filesystem.
	tmp, err := os.CreateTemp(d.dir, "tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, d.file(name)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Remove deletes the record for name. Absence is an error; callers
// that tolerate missing entries check Exists first.
func (d *Disk) Remove(name models.WorkspaceName) error {
	return os.Remove(d.file(name))
}

// Canonicalize resolves path to an absolute, symlink-free form in the
// host's native shape, suitable for display.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return filepath.EvalSymlinks(abs)
}
