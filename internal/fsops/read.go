package fsops

import (
	"os"

	"github.com/petasbytes/review-agent/internal/safety"
)

// ReadFile reads a file addressed by a path relative to the read root.
// Policy violations are returned as safety.ToolError.
func (s *Sandbox) ReadFile(relPath string) (string, error) {
	absPath, err := safety.ValidateRelPath(s.readRoot, relPath)
	if err != nil {
		return "", err
	}

	fi, err := os.Stat(absPath)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", safety.ToolError{Code: safety.CodeNotAFile, Message: "path is a directory"}
	}

	b, err := os.ReadFile(absPath)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ResolveDir maps p, relative to the read root or absolute inside it, to an absolute
// directory path.
func (s *Sandbox) ResolveDir(p string) (string, error) {
	if p == "" {
		p = "."
	}
	rel, err := safety.ToRelative(s.readRoot, p)
	if err != nil {
		return "", err
	}
	absDir, err := safety.ValidateRelPath(s.readRoot, rel)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(absDir)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", safety.ToolError{Code: safety.CodeNotADir, Message: "path is not a directory"}
	}
	return absDir, nil
}
