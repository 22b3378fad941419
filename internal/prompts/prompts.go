// Package prompts holds the instruction text sent to the model.
package prompts

import (
	"fmt"
	"strings"

	"github.com/petasbytes/review-agent/internal/gitdiff"
)

// System is the default system prompt of the review agent.
const System = `You are an expert code reviewer and release engineer.

You have tools to inspect the uncommitted changes of a git repository, read files,
generate a conventional commit message and write markdown files.

When asked to review changes:
1. Call get_file_changes to collect the diffs.
2. Call generate_commit_message with those diffs.
3. Review the changes and, when asked for a report, call write_markdown with the full review.

Be specific: reference files and lines, explain the impact of each finding, and keep
suggestions actionable.`

// DefaultInstruction is used when the agent is started without a prompt.
const DefaultInstruction = "Review the uncommitted changes in the current directory, generate a commit message, and write the review to review.md."

// DiffSummary renders records as "File: {file}\n{diff}" blocks separated by a blank line.
func DiffSummary(diffs []gitdiff.Record) string {
	parts := make([]string, 0, len(diffs))
	for _, d := range diffs {
		parts = append(parts, fmt.Sprintf("File: %s\n%s", d.File, d.Diff))
	}
	return strings.Join(parts, "\n\n")
}

// Commit asks for a single conventional commit message describing diffs.
func Commit(diffs []gitdiff.Record, maxLength int) string {
	var b strings.Builder
	b.WriteString("Based on the following git diffs, generate a concise and descriptive commit message following conventional commit format (type: description). Focus on the main purpose and impact of the changes.")
	if maxLength > 0 {
		fmt.Fprintf(&b, " Keep it under %d characters.", maxLength)
	}
	b.WriteString("\n\nDiffs:\n")
	b.WriteString(DiffSummary(diffs))
	b.WriteString("\n\nGenerate only the commit message, nothing else.")
	return b.String()
}

// Review asks for the markdown body of a code review report.
func Review(diffs []gitdiff.Record, maxLength int) string {
	var b strings.Builder
	b.WriteString(`As an expert code reviewer, analyze the following code changes and provide a comprehensive review in markdown format. Include:

1. **Summary** - Brief overview of changes
2. **Files Changed** - List of modified files with descriptions
3. **Code Quality Analysis** - Assessment of code quality, patterns, and best practices
4. **Suggestions** - Specific improvements and recommendations
5. **Security Considerations** - Any security implications
6. **Performance Impact** - Performance considerations if applicable

Format the response as proper markdown with headers, bullet points, and code blocks where appropriate.`)
	if maxLength > 0 {
		fmt.Fprintf(&b, " Keep the review under %d characters.", maxLength)
	}
	b.WriteString("\n\nGit Diffs:\n")
	b.WriteString(DiffSummary(diffs))
	return b.String()
}
