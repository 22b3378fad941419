package cli

import (
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/petasbytes/review-agent/internal/config"
	"github.com/petasbytes/review-agent/internal/prompts"
	"github.com/petasbytes/review-agent/internal/runner"
)

func newReviewCmd(opts *Options) *cobra.Command {
	var (
		maxSteps    int
		metricsFile string
	)
	cmd := &cobra.Command{
		Use:   "review [prompt]",
		Short: "Run the review agent and stream its answer to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("max-steps") {
				if err := config.ValidateMaxSteps(maxSteps); err != nil {
					return err
				}
			}
			a, err := opts.newApp(ctx, true)
			if err != nil {
				return err
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-steps") {
				maxSteps = a.cfg.MaxSteps
			}
			if metricsFile == "" {
				metricsFile = a.cfg.MetricsFile
			}
			defer a.writeMetrics(ctx, metricsFile)

			prompt := strings.TrimSpace(strings.Join(args, " "))
			if prompt == "" {
				prompt = prompts.DefaultInstruction
			}

			r := runner.New(a.client, reg,
				runner.WithModel(a.cfg.ResolvedModel()),
				runner.WithMaxSteps(maxSteps),
				runner.WithMaxTokens(a.cfg.MaxTokens),
				runner.WithTokenBudget(a.cfg.TokenBudget),
				runner.WithEmitter(a.emitter),
				runner.WithRecorder(a.recorder),
			)
			out := cmd.OutOrStdout()
			s, err := r.Run(ctx, prompt, out)
			if s != nil && s.Output() != "" && !strings.HasSuffix(s.Output(), "\n") {
				fmt.Fprintln(out)
			}
			if err != nil {
				return err
			}
			if s.StopReason() == runner.StopStepLimit {
				clog.FromContext(ctx).Warnf("stopped after %d steps without a final answer", s.StepCount())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Maximum tool-using steps (default from config)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")
	return cmd
}
