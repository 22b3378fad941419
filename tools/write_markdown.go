package tools

import (
	"context"

	"github.com/chainguard-dev/clog"

	"github.com/petasbytes/review-agent/internal/fsops"
)

// DefaultMarkdownFile is written when the model gives no filePath.
const DefaultMarkdownFile = "review.md"

type WriteMarkdownInput struct {
	Content  string `json:"content" jsonschema_description:"Markdown content to write."`
	FilePath string `json:"filePath,omitempty" jsonschema:"default=review.md" jsonschema_description:"Path to the markdown file to write to, default is review.md."`
}

type WriteMarkdownOutput struct {
	Success  bool   `json:"success"`
	FilePath string `json:"filePath"`
}

// NewWriteMarkdown returns the write_markdown tool. The file is replaced verbatim;
// there is no fallback when the write fails.
func NewWriteMarkdown(sb *fsops.Sandbox) ToolDefinition {
	return NewTool("write_markdown",
		"Writes markdown content to a file (default: review.md)",
		func(ctx context.Context, in WriteMarkdownInput) (WriteMarkdownOutput, error) {
			if in.FilePath == "" {
				in.FilePath = DefaultMarkdownFile
			}
			abs, err := sb.WriteFile(in.FilePath, in.Content)
			if err != nil {
				return WriteMarkdownOutput{}, err
			}
			clog.FromContext(ctx).Infof("wrote %d bytes to %s", len(in.Content), abs)
			return WriteMarkdownOutput{Success: true, FilePath: in.FilePath}, nil
		})
}
