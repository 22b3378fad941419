package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/petasbytes/review-agent/internal/fsops"
)

type ReadFileInput struct {
	Path   string `json:"path" jsonschema_description:"File path relative to the workspace root."`
	Offset int    `json:"offset,omitempty" jsonschema_description:"Line offset (0-based) to start reading from."`
	Limit  int    `json:"limit,omitempty" jsonschema_description:"Maximum lines to return from offset (default 200)."`
}

func (in ReadFileInput) Validate() error {
	if strings.TrimSpace(in.Path) == "" {
		return errors.New("path must not be empty")
	}
	return nil
}

const defaultReadFileLimit = 200 // page size when limit <= 0
const truncationSentinel = "-- truncated; use offset/limit to fetch more --\n"
const maxLineRunes = 2000     // per-line clamp
const overallRuneCap = 12_000 // overall cap after join

// NewReadFile returns the read_file tool, confined to the sandbox read root.
func NewReadFile(sb *fsops.Sandbox) ToolDefinition {
	return NewTool("read_file",
		"Read the contents of a file addressed by a relative file path within the workspace. Directory paths and unsafe paths are rejected.",
		func(_ context.Context, in ReadFileInput) (string, error) {
			content, err := sb.ReadFile(in.Path)
			if err != nil {
				return "", err
			}
			return paginate(content, in.Offset, in.Limit), nil
		})
}

// clampRunes cuts s to at most n runes.
func clampRunes(s string, n int) (string, bool) {
	if n <= 0 {
		return "", s != ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]), true
}

// paginate applies small, deterministic caps for model-facing reads:
//   - offset: 0-based starting line (negatives clamped to 0)
//   - limit: number of lines to return (<= 0 means 200)
//
// When not everything was returned a trailing sentinel signals pagination.
func paginate(content string, offset, limit int) string {
	if limit <= 0 {
		limit = defaultReadFileLimit
	}
	if offset < 0 {
		offset = 0
	}

	lines := strings.Split(content, "\n")
	if offset > len(lines) {
		offset = len(lines)
	}
	end := min(offset+limit, len(lines))

	truncated := end < len(lines)
	for i := offset; i < end; i++ {
		if clamped, did := clampRunes(lines[i], maxLineRunes); did {
			lines[i] = clamped
			truncated = true
		}
	}

	out := strings.Join(lines[offset:end], "\n")
	if clamped, did := clampRunes(out, overallRuneCap); did {
		out = clamped
		truncated = true
	}

	if truncated {
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += truncationSentinel
	}
	return out
}
