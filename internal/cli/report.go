package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petasbytes/review-agent/internal/report"
	"github.com/petasbytes/review-agent/tools"
)

func newReportCmd(opts *Options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "report [dir]",
		Short: "Review the uncommitted changes and write a markdown report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.newApp(ctx, true)
			if err != nil {
				return err
			}
			root, err := a.sandbox.ResolveDir(dirArg(args))
			if err != nil {
				return err
			}
			if out == "" {
				out = a.cfg.ReviewFile
			}
			defer a.writeMetrics(ctx, a.cfg.MetricsFile)

			p := report.Pipeline{
				Collector: a.collector,
				Commit:    a.commitGenerator(),
				Client:    a.client,
				Writer:    tools.NewWriteMarkdown(a.sandbox),
				Model:     a.cfg.ResolvedModel(),
				MaxLength: a.cfg.ReviewMaxLength,
				MaxTokens: a.cfg.MaxTokens,
				Recorder:  a.recorder,
			}
			res, err := p.Run(ctx, root, out)
			if errors.Is(err, report.ErrNoChanges) {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes to review.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reviewed %d files. Report written to %s\n", len(res.Files), res.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Report path inside the write root (default from config, review.md)")
	return cmd
}
