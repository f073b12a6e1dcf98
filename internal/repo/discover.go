package repo

import (
	"os"
	"path/filepath"
)

// FindRoot walks up from path looking for a control directory and
// returns the repository root, or "" when path is not inside a
// repository.
func FindRoot(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}

	current := abs
	for {
		controlDir := filepath.Join(current, ControlDirName)
		if info, err := os.Stat(controlDir); err == nil && info.IsDir() {
			return current
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root
			return ""
		}
		current = parent
	}
}
