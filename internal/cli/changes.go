package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/petasbytes/review-agent/internal/gitdiff"
)

func newChangesCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "changes [dir]",
		Short: "List the changed files with added and removed line counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.newApp(ctx, false)
			if err != nil {
				return err
			}
			diffs, err := a.collect(ctx, dirArg(args))
			if err != nil {
				return err
			}
			stats, err := gitdiff.Summarize(diffs)
			if err != nil {
				return err
			}
			return renderChanges(cmd.OutOrStdout(), stats)
		},
	}
}

func renderChanges(w io.Writer, stats []gitdiff.FileStat) error {
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "No changes.")
		return err
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"File", "Added", "Removed"}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
	)
	for _, st := range stats {
		added, removed := "+"+strconv.Itoa(st.Added), "-"+strconv.Itoa(st.Removed)
		if st.Binary {
			added, removed = "bin", "bin"
		}
		if err := table.Append([]string{st.File, added, removed}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	add, rem := gitdiff.Totals(stats)
	_, err := fmt.Fprintf(w, "\n%d files changed, %d insertions(+), %d deletions(-)\n", len(stats), add, rem)
	return err
}
