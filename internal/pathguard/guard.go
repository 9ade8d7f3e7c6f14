// Package pathguard resolves and validates client-supplied paths before any
// filesystem access.
//
// Every tool handler calls Resolve first; the returned path is absolute,
// cleaned, and confined to the sandbox root. The guard is the narrow
// interface the bounded-operation engine consumes; richer policy layers
// (allow-lists, per-client roots) implement the same Resolver interface.
package pathguard

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Resolver validates a client path and returns the real path to operate on.
type Resolver interface {
	Resolve(path string) (string, error)
}

// AccessDeniedError reports a path rejected by policy.
type AccessDeniedError struct {
	Path   string
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied for %q: %s", e.Path, e.Reason)
}

// Sandbox confines all operations to a single root directory.
type Sandbox struct {
	root string
}

// NewSandbox creates a resolver rooted at root. The root is cleaned and
// made absolute; it is not required to exist yet.
func NewSandbox(root string) (*Sandbox, error) {
	if root == "" {
		return nil, fmt.Errorf("sandbox root required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox root: %w", err)
	}
	return &Sandbox{root: abs}, nil
}

// Root returns the sandbox root directory.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve maps a client path into the sandbox. Relative paths are joined
// to the root; absolute paths must already be inside it. Traversal that
// escapes the root is denied, as are NUL bytes.
func (s *Sandbox) Resolve(path string) (string, error) {
	if path == "" {
		return "", &AccessDeniedError{Path: path, Reason: "empty path"}
	}
	if strings.ContainsRune(path, 0) {
		return "", &AccessDeniedError{Path: path, Reason: "NUL byte in path"}
	}

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(s.root, full)
	}
	full = filepath.Clean(full)

	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", &AccessDeniedError{Path: path, Reason: "outside sandbox root"}
	}
	return full, nil
}

// Rel returns the sandbox-relative form of a resolved path for display.
func (s *Sandbox) Rel(full string) string {
	rel, err := filepath.Rel(s.root, full)
	if err != nil {
		return full
	}
	return rel
}
