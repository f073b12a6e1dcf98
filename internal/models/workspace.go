// Package models defines shared value types used across vc packages.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultWorkspaceName is the name given to the workspace created by
// 'vc init'.
const DefaultWorkspaceName = WorkspaceName("default")

// WorkspaceName identifies a workspace within a repository. Its symbol
// form doubles as the registry key and the on-disk filename, so it must
// stay free of path separators and control characters.
type WorkspaceName string

// ErrInvalidWorkspaceName reports a name that cannot serve as a
// registry filename.
var ErrInvalidWorkspaceName = errors.New("invalid workspace name")

// Symbol returns the printable form used as the registry key and
// filename.
func (n WorkspaceName) Symbol() string {
	return string(n)
}

// Validate rejects empty names and names that would escape or corrupt
// the registry directory.
func (n WorkspaceName) Validate() error {
	s := string(n)
	if s == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidWorkspaceName)
	}
	if s == "." || s == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidWorkspaceName, s)
	}
	if strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidWorkspaceName, s)
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: %q contains a control character", ErrInvalidWorkspaceName, s)
		}
	}
	return nil
}
