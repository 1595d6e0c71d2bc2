// Package safety resolves user-supplied file paths inside a sandbox root.
package safety

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathError is a machine-readable error for rejected paths.
type PathError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string.
func (e PathError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

const (
	CodeOutsideSandbox = "ERR_PATH_OUTSIDE_SANDBOX"
	CodeDeniedRead     = "ERR_DENIED_READ"
)

// InitSandboxRoot resolves an absolute sandbox root, defaulting to the CWD.
func InitSandboxRoot(root string) (string, error) {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		root = cwd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("abs(root): %w", err)
	}

	// Resolve symlinks where possible so boundary checks are reliable.
	// If EvalSymlinks fails (e.g., non-existent), fall back to the absolute path as-is.
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return abs, nil
}

// ValidateRelPath resolves relPath against absRoot and returns an absolute path
// inside the sandbox. It rejects absolute inputs, parent traversal, and symlink
// escapes, and denies reads under .git/ and .ellie/. On violation, returns a PathError.
func ValidateRelPath(absRoot, relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", PathError{Code: CodeOutsideSandbox, Message: "absolute paths are not allowed"}
	}

	cleaned := filepath.Clean(relPath)
	if cleaned == "" {
		cleaned = "."
	}
	candidate := filepath.Join(absRoot, cleaned)

	// Best-effort symlink resolution.
	// 1) Resolve the whole candidate if it exists.
	// 2) Otherwise, resolve the parent dir and rejoin the final segment.
	//    This reveals escapes via a symlinked parent.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else {
		parent := filepath.Dir(candidate)
		if resolvedParent, err2 := filepath.EvalSymlinks(parent); err2 == nil {
			candidate = filepath.Join(resolvedParent, filepath.Base(candidate))
		}
	}

	// Boundary check using filepath.Rel (robust against partial prefix matches)
	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", PathError{Code: CodeOutsideSandbox, Message: "requested path resolves outside the sandbox root"}
	}

	relClean := filepath.ToSlash(rel)
	for _, denied := range []string{".git", ".ellie"} {
		if relClean == denied || strings.HasPrefix(relClean, denied+"/") {
			return "", PathError{Code: CodeDeniedRead, Message: "reads under .git/ or .ellie/ are not allowed"}
		}
	}

	return candidate, nil
}
