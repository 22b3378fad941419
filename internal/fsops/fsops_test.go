package fsops_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/petasbytes/review-agent/internal/fsops"
	"github.com/petasbytes/review-agent/internal/safety"
)

func setupSandbox(t *testing.T) (*fsops.Sandbox, string) {
	t.Helper()
	dir := t.TempDir()
	if r, err := filepath.EvalSymlinks(dir); err == nil {
		dir = r
	}
	sb, err := fsops.New(dir, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sb, dir
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	var te safety.ToolError
	if !errors.As(err, &te) {
		t.Fatalf("expected ToolError, got %T: %v", err, err)
	}
	if te.Code != code {
		t.Fatalf("unexpected code: got %s want %s", te.Code, code)
	}
}

func TestNew_WriteRootDefaultsToReadRoot(t *testing.T) {
	sb, dir := setupSandbox(t)
	if sb.ReadRoot() != dir || sb.WriteRoot() != dir {
		t.Fatalf("roots: read=%q write=%q want %q", sb.ReadRoot(), sb.WriteRoot(), dir)
	}
}

func TestReadFile_HappyPath(t *testing.T) {
	sb, dir := setupSandbox(t)
	want := "hello world"
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte(want), 0o644); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	got, err := sb.ReadFile("a.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != want {
		t.Fatalf("content mismatch: got %q want %q", got, want)
	}
}

func TestReadFile_DirectoryIsNotAFile(t *testing.T) {
	sb, dir := setupSandbox(t)
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	_, err := sb.ReadFile("sub")
	requireCode(t, err, safety.CodeNotAFile)
}

func TestWriteFile_RoundTripNested(t *testing.T) {
	sb, dir := setupSandbox(t)
	content := "# Report\n\nbody with trailing spaces   \n"
	abs, err := sb.WriteFile(filepath.Join("nested", "dir", "out.md"), content)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if abs != filepath.Join(dir, "nested", "dir", "out.md") {
		t.Fatalf("unexpected path %q", abs)
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		t.Fatalf("verify read: %v", err)
	}
	if string(b) != content {
		t.Fatalf("content mismatch: got %q", string(b))
	}
}

func TestWriteFile_Overwrites(t *testing.T) {
	sb, dir := setupSandbox(t)
	if _, err := sb.WriteFile("review.md", "first version, much longer than the second"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := sb.WriteFile("review.md", "second"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "review.md"))
	if err != nil {
		t.Fatalf("verify read: %v", err)
	}
	if string(b) != "second" {
		t.Fatalf("expected overwrite, got %q", string(b))
	}
}

func TestErrorPropagation_ReadDenylist(t *testing.T) {
	sb, dir := setupSandbox(t)
	if err := os.Mkdir(filepath.Join(dir, ".agent"), 0o755); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".agent", "events.jsonl"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	_, err := sb.ReadFile(".agent/events.jsonl")
	requireCode(t, err, safety.CodeDeniedRead)
}

func TestErrorPropagation_WriteDenyList(t *testing.T) {
	sb, _ := setupSandbox(t)

	_, err := sb.WriteFile(".git/HEAD", "ref: refs/heads/main\n")
	requireCode(t, err, safety.CodeDeniedWrite)

	_, err = sb.WriteFile("go.mod", "module x\n")
	requireCode(t, err, safety.CodeDeniedWrite)
}

func TestErrorPropagation_Traversal(t *testing.T) {
	sb, _ := setupSandbox(t)
	_, err := sb.ReadFile("../../x")
	requireCode(t, err, safety.CodeOutsideSandbox)

	_, err = sb.WriteFile("../escape.md", "x")
	requireCode(t, err, safety.CodeOutsideSandbox)
}

func TestResolveDir(t *testing.T) {
	sb, dir := setupSandbox(t)
	if err := os.MkdirAll(filepath.Join(dir, "repo"), 0o755); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	got, err := sb.ResolveDir("")
	if err != nil || got != dir {
		t.Fatalf("ResolveDir(\"\") = %q, %v; want %q", got, err, dir)
	}
	got, err = sb.ResolveDir(filepath.Join(dir, "repo"))
	if err != nil || got != filepath.Join(dir, "repo") {
		t.Fatalf("ResolveDir(abs) = %q, %v", got, err)
	}

	_, err = sb.ResolveDir("file.txt")
	requireCode(t, err, safety.CodeNotADir)

	_, err = sb.ResolveDir(t.TempDir())
	requireCode(t, err, safety.CodeOutsideSandbox)
}
