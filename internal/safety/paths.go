// Package safety confines tool file access to sandbox roots.
package safety

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Machine-readable error codes surfaced to the model in tool results.
const (
	CodeOutsideSandbox = "ERR_PATH_OUTSIDE_SANDBOX"
	CodeDeniedRead     = "ERR_DENIED_READ"
	CodeDeniedWrite    = "ERR_DENIED_WRITE"
	CodeNotAFile       = "ERR_NOT_A_FILE"
	CodeNotADir        = "ERR_NOT_A_DIRECTORY"
)

// ToolError is a machine-readable error body for surfacing back to the agent as JSON.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string to keep tool results small.
func (e ToolError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// InitSandboxRoot resolves absolute sandbox roots for read and write operations.
// An empty read root means the working directory; an empty write root means the read root.
func InitSandboxRoot(readRoot, writeRoot string) (absRead string, absWrite string, err error) {
	if readRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("getwd: %w", err)
		}
		readRoot = cwd
	}
	if writeRoot == "" {
		writeRoot = readRoot
	}

	readRoot, err = filepath.Abs(readRoot)
	if err != nil {
		return "", "", fmt.Errorf("abs(readRoot): %w", err)
	}
	writeRoot, err = filepath.Abs(writeRoot)
	if err != nil {
		return "", "", fmt.Errorf("abs(writeRoot): %w", err)
	}

	// Boundary checks compare resolved paths, so resolve the roots too when they exist.
	if r, err := filepath.EvalSymlinks(readRoot); err == nil {
		readRoot = r
	}
	if w, err := filepath.EvalSymlinks(writeRoot); err == nil {
		writeRoot = w
	}
	return readRoot, writeRoot, nil
}

// ValidateRelPath resolves relPath against absRoot for reading. It rejects absolute
// inputs, parent traversal and symlink escapes, and denies reads under .git/ and .agent/.
func ValidateRelPath(absRoot, relPath string) (string, error) {
	candidate, rel, err := resolve(absRoot, relPath)
	if err != nil {
		return "", err
	}
	if underAny(rel, ".git", ".agent") {
		return "", ToolError{Code: CodeDeniedRead, Message: "reads under .git/ or .agent/ are not allowed"}
	}
	return candidate, nil
}

// ToRelative turns p into a root-relative path. Absolute paths are accepted only when
// they lie under absRoot; relative paths are returned unchanged.
func ToRelative(absRoot, p string) (string, error) {
	if !filepath.IsAbs(p) {
		return p, nil
	}
	rel, err := filepath.Rel(absRoot, filepath.Clean(p))
	if err != nil || escapes(rel) {
		return "", ToolError{Code: CodeOutsideSandbox, Message: "requested path resolves outside the sandbox root"}
	}
	return rel, nil
}

// resolve joins relPath onto absRoot, resolves symlinks on the deepest existing
// ancestor, and returns the candidate plus its slash-separated root-relative form.
func resolve(absRoot, relPath string) (string, string, error) {
	if filepath.IsAbs(relPath) {
		return "", "", ToolError{Code: CodeOutsideSandbox, Message: "absolute paths are not allowed"}
	}
	cleaned := filepath.Clean(relPath)
	candidate := filepath.Join(absRoot, cleaned)

	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else if resolvedParent, err := filepath.EvalSymlinks(filepath.Dir(candidate)); err == nil {
		// Leaf does not exist yet; a symlinked parent can still escape.
		candidate = filepath.Join(resolvedParent, filepath.Base(candidate))
	}

	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || escapes(rel) {
		return "", "", ToolError{Code: CodeOutsideSandbox, Message: "requested path resolves outside the sandbox root"}
	}
	return candidate, filepath.ToSlash(rel), nil
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel)
}

// underAny reports whether the slash path rel is one of dirs or lies beneath one.
func underAny(rel string, dirs ...string) bool {
	for _, d := range dirs {
		if rel == d || strings.HasPrefix(rel, d+"/") {
			return true
		}
	}
	return false
}
