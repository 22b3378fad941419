package cli

import (
	"github.com/spf13/cobra"

	"github.com/petasbytes/review-agent/internal/mcpserver"
)

func newMCPCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the review tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := opts.newApp(ctx, false)
			if err != nil {
				return err
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}
			srv, err := mcpserver.New(reg, Version)
			if err != nil {
				return err
			}
			return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
