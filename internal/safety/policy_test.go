package safety_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petasbytes/review-agent/internal/safety"
)

// realRoot returns a temp dir with symlinks resolved, as InitSandboxRoot would.
func realRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return root
}

func TestValidateWritePath(t *testing.T) {
	root := realRoot(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".agent"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))

	tests := []struct {
		rel  string
		code string // empty when the write is allowed
	}{
		{"review.md", ""},
		{"docs/review.md", ""},
		{"reports/2025/review.md", ""},
		{"generated-commit.txt", ""},
		{"go.mod.md", ""},
		{".agent/events.jsonl", safety.CodeDeniedWrite},
		{".agent/review.md", safety.CodeDeniedWrite},
		{".git/COMMIT_EDITMSG", safety.CodeDeniedWrite},
		{"go.mod", safety.CodeDeniedWrite},
		{"internal/tool/go.mod", safety.CodeDeniedWrite},
		{"vendor/x/go.sum", safety.CodeDeniedWrite},
		{".", safety.CodeNotAFile},
		{"../review.md", safety.CodeOutsideSandbox},
		{"docs/../../review.md", safety.CodeOutsideSandbox},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got, err := safety.ValidateWritePath(root, tt.rel)
			if tt.code == "" {
				require.NoError(t, err)
				require.Equal(t, filepath.Join(root, filepath.FromSlash(tt.rel)), got)
				return
			}
			var terr safety.ToolError
			require.True(t, errors.As(err, &terr), "got %v", err)
			require.Equal(t, tt.code, terr.Code)
		})
	}
}

func TestValidateWritePath_AbsolutePath(t *testing.T) {
	root := realRoot(t)
	_, err := safety.ValidateWritePath(root, filepath.Join(root, "review.md"))

	var terr safety.ToolError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, safety.CodeOutsideSandbox, terr.Code)
}

func TestValidateWritePath_SymlinkedParentEscapes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}
	root, outside := realRoot(t), t.TempDir()
	if err := os.Symlink(outside, filepath.Join(root, "reports")); err != nil {
		t.Skipf("symlink: %v", err)
	}

	_, err := safety.ValidateWritePath(root, "reports/review.md")
	var terr safety.ToolError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, safety.CodeOutsideSandbox, terr.Code)
	require.NoFileExists(t, filepath.Join(outside, "review.md"))
}

func TestToolError_IsMachineReadable(t *testing.T) {
	_, err := safety.ValidateWritePath(realRoot(t), "go.sum")
	require.Error(t, err)

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal([]byte(err.Error()), &payload))
	require.Equal(t, safety.CodeDeniedWrite, payload.Code)
	require.Contains(t, payload.Message, "go.sum")
}
