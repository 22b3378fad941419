// Package gitdiff turns the uncommitted changes of a git working tree into
// per-file unified diff records.
package gitdiff

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/chainguard-dev/clog"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"
)

// Record is one changed file and its unified diff text.
type Record struct {
	File string `json:"file" jsonschema_description:"Repository-relative path of the changed file."`
	Diff string `json:"diff" jsonschema_description:"Unified diff text for the file."`
}

// DefaultExclude lists paths left out of a change-set unless configured otherwise.
var DefaultExclude = []string{"dist", "bun.lock", "node_modules", ".git"}

// Collector gathers working tree changes, skipping excluded paths.
type Collector struct {
	exclude []string
}

// New returns a Collector that omits any path equal to, or nested under, an entry of exclude.
func New(exclude []string) *Collector {
	cleaned := make([]string, 0, len(exclude))
	for _, e := range exclude {
		e = strings.Trim(filepath.ToSlash(strings.TrimSpace(e)), "/")
		if e != "" {
			cleaned = append(cleaned, e)
		}
	}
	return &Collector{exclude: cleaned}
}

// Excluded reports whether the repository-relative slash path p is filtered out.
func (c *Collector) Excluded(p string) bool {
	p = path.Clean(p)
	for _, e := range c.exclude {
		if p == e || strings.HasPrefix(p, e+"/") {
			return true
		}
	}
	return false
}

// Collect returns one Record per tracked file whose working tree content differs
// from the index, in path order. rootDir may be any directory inside the repository.
func (c *Collector) Collect(ctx context.Context, rootDir string) ([]Record, error) {
	log := clog.FromContext(ctx).With("root", rootDir)

	repo, err := gogit.PlainOpenWithOptions(rootDir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", rootDir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	top := wt.Filesystem.Root()

	paths := make([]string, 0, len(status))
	for p, st := range status {
		if st.Worktree != gogit.Modified && st.Worktree != gogit.Deleted {
			continue
		}
		if c.Excluded(p) {
			log.Debugf("skipping excluded path %s", p)
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	records := make([]Record, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		before, err := indexContent(repo, idx, p)
		if err != nil {
			return nil, err
		}
		var after []byte
		deleted := status[p].Worktree == gogit.Deleted
		if !deleted {
			after, err = os.ReadFile(filepath.Join(top, filepath.FromSlash(p)))
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", p, err)
			}
		}
		diff := render(p, before, after, deleted)
		if diff == "" {
			continue
		}
		records = append(records, Record{File: p, Diff: diff})
	}
	log.With("files", len(records)).Info("collected working tree changes")
	return records, nil
}

func indexContent(repo *gogit.Repository, idx *index.Index, p string) ([]byte, error) {
	entry, err := idx.Entry(p)
	if err != nil {
		return nil, fmt.Errorf("index entry %s: %w", p, err)
	}
	blob, err := repo.BlobObject(entry.Hash)
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", p, err)
	}
	r, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("blob reader %s: %w", p, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// render formats a git-style diff for one file. It returns "" when the contents are equal.
func render(p string, before, after []byte, deleted bool) string {
	if bytes.Equal(before, after) && !deleted {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", p, p)
	if deleted {
		b.WriteString("deleted file mode 100644\n")
	}
	if isBinary(before) || isBinary(after) {
		fmt.Fprintf(&b, "Binary files a/%s and b/%s differ\n", p, p)
		return b.String()
	}
	newLabel := "b/" + p
	if deleted {
		newLabel = "/dev/null"
	}
	b.WriteString(udiff.Unified("a/"+p, newLabel, string(before), string(after)))
	return b.String()
}

func isBinary(content []byte) bool {
	n := min(len(content), 8000)
	return bytes.IndexByte(content[:n], 0) >= 0
}
