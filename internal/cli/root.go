// Package cli implements the reviewer command tree.
package cli

import (
	"context"
	"log/slog"

	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/petasbytes/review-agent/internal/config"
	"github.com/petasbytes/review-agent/internal/provider"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// ClientFunc constructs the model client for cfg.
type ClientFunc func(ctx context.Context, cfg config.Config) (provider.Client, error)

// Options holds global CLI options and the seams tests replace.
type Options struct {
	ConfigPath string
	LogLevel   string

	// NewClient defaults to provider.New with the configured provider.
	NewClient ClientFunc
	// Env defaults to the process environment.
	Env envconfig.Lookuper

	cfg config.Config
}

// NewRootCmd constructs the base command tree.
func NewRootCmd(opts *Options) *cobra.Command {
	if opts.NewClient == nil {
		opts.NewClient = func(ctx context.Context, cfg config.Config) (provider.Client, error) {
			return provider.New(ctx, cfg.ProviderOptions())
		}
	}
	if opts.Env == nil {
		opts.Env = envconfig.OsLookuper()
	}

	cmd := &cobra.Command{
		Use:           "reviewer",
		Short:         "Review uncommitted changes with a language model",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")

	cmd.AddCommand(newReviewCmd(opts))
	cmd.AddCommand(newCommitCmd(opts))
	cmd.AddCommand(newReportCmd(opts))
	cmd.AddCommand(newChangesCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))

	return cmd
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd(&Options{}).ExecuteContext(ctx)
}

// setup loads the configuration and installs the logger in the command context.
func (o *Options) setup(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadWith(ctx, o.ConfigPath, o.Env)
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	o.cfg = cfg

	logger := clog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	cmd.SetContext(clog.WithLogger(ctx, logger))
	return nil
}
