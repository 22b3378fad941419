package fsops

import (
	"os"
	"path/filepath"

	"github.com/petasbytes/review-agent/internal/safety"
)

// WriteFile replaces the file at relPath under the write root with content,
// creating parent directories as needed. It returns the absolute path written.
func (s *Sandbox) WriteFile(relPath, content string) (string, error) {
	absPath, err := safety.ValidateWritePath(s.writeRoot, relPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(absPath, []byte(content), 0o644); err != nil {
		return "", err
	}
	return absPath, nil
}
