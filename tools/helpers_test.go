package tools_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/review-agent/internal/fsops"
)

// newSandbox returns a sandbox whose read and write root is a fresh temp dir.
func newSandbox(t *testing.T) (*fsops.Sandbox, string) {
	t.Helper()
	dir := t.TempDir()
	sb, err := fsops.New(dir, dir)
	require.NoError(t, err)
	return sb, sb.ReadRoot()
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

// commitAll initializes a repository in dir holding files as its first commit.
func commitAll(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@test", When: time.Now()},
	})
	require.NoError(t, err)
}
