package cli

import (
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

func newCommitCmd(opts *Options) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "commit [dir]",
		Short: "Print a conventional commit message for the uncommitted changes",
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
			msg := a.commitGenerator().Generate(ctx, diffs)
			fmt.Fprintln(cmd.OutOrStdout(), msg)

			if !write {
				return nil
			}
			path, err := a.sandbox.WriteFile(a.cfg.CommitFile, msg+"\n")
			if err != nil {
				return fmt.Errorf("write commit message: %w", err)
			}
			clog.FromContext(ctx).Infof("commit message saved to %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Also save the message to the configured commit file")
	return cmd
}
