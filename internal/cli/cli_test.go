package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/review-agent/internal/cli"
	"github.com/petasbytes/review-agent/internal/config"
	"github.com/petasbytes/review-agent/internal/provider"
	"github.com/petasbytes/review-agent/internal/provider/providertest"
)

// repo creates a repository with main.go committed and then modified.
func repo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)
	main := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(main, []byte("package main\n"), 0o644))
	_, err = wt.Add("main.go")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@test", When: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(main, []byte("package main\n\nfunc main() {}\n"), 0o644))
	return dir
}

func configFor(t *testing.T, root string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(p, []byte("readRoot: "+root+"\n"), 0o644))
	return p
}

type result struct {
	stdout string
	err    error
}

func run(t *testing.T, client cli.ClientFunc, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCmd(&cli.Options{
		NewClient: client,
		Env:       envconfig.MapLookuper(nil),
	})
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(bytes.NewReader(nil))
	err := cmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), err: err}
}

func scripted(c *providertest.Client) cli.ClientFunc {
	return func(context.Context, config.Config) (provider.Client, error) { return c, nil }
}

func unavailable(context.Context, config.Config) (provider.Client, error) {
	return nil, errors.New("no api key")
}

func TestChanges_Table(t *testing.T) {
	root := repo(t)
	res := run(t, unavailable, "changes", "--config", configFor(t, root))
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "main.go")
	require.Contains(t, res.stdout, "+2")
	require.Contains(t, res.stdout, "1 files changed, 2 insertions(+), 0 deletions(-)")
}

func TestChanges_OutsideReadRoot(t *testing.T) {
	root := repo(t)
	res := run(t, unavailable, "changes", "..", "--config", configFor(t, root))
	require.Error(t, res.err)
}

func TestCommit_ModelMessage(t *testing.T) {
	root := repo(t)
	fake := providertest.New(providertest.Text("feat: add main entry point"))

	res := run(t, scripted(fake), "commit", "--write", "--config", configFor(t, root))
	require.NoError(t, res.err)
	require.Equal(t, "feat: add main entry point\n", res.stdout)

	saved, err := os.ReadFile(filepath.Join(root, "generated-commit.txt"))
	require.NoError(t, err)
	require.Equal(t, "feat: add main entry point\n", string(saved))
}

func TestCommit_FallbackWithoutClient(t *testing.T) {
	root := repo(t)
	res := run(t, unavailable, "commit", "--config", configFor(t, root))
	require.NoError(t, res.err)
	require.Equal(t, "chore: update main.go\n", res.stdout)
	require.NoFileExists(t, filepath.Join(root, "generated-commit.txt"))
}

func TestReview_StreamsAnswer(t *testing.T) {
	root := repo(t)
	fake := providertest.New(providertest.Text("Looks ", "good."))

	res := run(t, scripted(fake), "review", "check", "main.go", "--config", configFor(t, root))
	require.NoError(t, res.err)
	require.Equal(t, "Looks good.\n", res.stdout)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Tools, 4)
}

func TestReview_RejectsMaxStepsBelowOne(t *testing.T) {
	root := repo(t)
	for _, n := range []string{"0", "-3"} {
		fake := providertest.New(providertest.Text("unreached"))
		res := run(t, scripted(fake), "review", "--max-steps="+n, "--config", configFor(t, root))
		require.EqualError(t, res.err, "config: maxSteps must be at least 1, got "+n)
		require.Zero(t, fake.Calls())
	}
}

func TestReview_MaxStepsFlag(t *testing.T) {
	root := repo(t)
	fake := providertest.New(
		providertest.Turn{ToolCalls: []provider.ToolCall{providertest.Call("c1", "read_file", map[string]any{"path": "main.go"})}},
		providertest.Text("unreached"),
	)
	res := run(t, scripted(fake), "review", "--max-steps", "1", "--config", configFor(t, root))
	require.NoError(t, res.err)
	require.Equal(t, 1, fake.Calls(), "one tool round then stop")
}

func TestReview_RequiresClient(t *testing.T) {
	root := repo(t)
	res := run(t, unavailable, "review", "--config", configFor(t, root))
	require.ErrorContains(t, res.err, "create google client")
}

func TestReport_WritesFile(t *testing.T) {
	root := repo(t)
	fake := providertest.New(
		providertest.Text("feat: add main"),
		providertest.Text("## Summary\nAdds main."),
	)

	res := run(t, scripted(fake), "report", "--out", "docs/review.md", "--config", configFor(t, root))
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "Reviewed 1 files.")

	b, err := os.ReadFile(filepath.Join(root, "docs", "review.md"))
	require.NoError(t, err)
	require.Contains(t, string(b), "Commit Message: feat: add main\n")
	require.Contains(t, string(b), "## Summary\nAdds main.")
}

func TestRoot_ConfigErrors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("nope: 1\n"), 0o644))

	res := run(t, unavailable, "changes", "--config", bad)
	require.ErrorContains(t, res.err, "parse config")

	res = run(t, unavailable, "changes", "--log-level", "loud", "--config", configFor(t, repo(t)))
	require.ErrorContains(t, res.err, "log level")
}
