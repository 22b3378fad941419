package cli

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/petasbytes/review-agent/internal/commitmsg"
	"github.com/petasbytes/review-agent/internal/config"
	"github.com/petasbytes/review-agent/internal/fsops"
	"github.com/petasbytes/review-agent/internal/gitdiff"
	"github.com/petasbytes/review-agent/internal/metrics"
	"github.com/petasbytes/review-agent/internal/provider"
	"github.com/petasbytes/review-agent/internal/telemetry"
	"github.com/petasbytes/review-agent/tools"
)

// app is the dependency graph shared by the subcommands.
type app struct {
	cfg       config.Config
	sandbox   *fsops.Sandbox
	collector *gitdiff.Collector
	recorder  *metrics.Recorder
	emitter   *telemetry.Emitter
	client    provider.Client
}

// newApp builds the collaborators. When requireClient is false a client that
// cannot be constructed is logged and left nil; commit messages then fall back
// to the deterministic summary.
func (o *Options) newApp(ctx context.Context, requireClient bool) (*app, error) {
	sb, err := fsops.New(o.cfg.ReadRoot, o.cfg.WriteRoot)
	if err != nil {
		return nil, fmt.Errorf("init sandbox: %w", err)
	}
	a := &app{
		cfg:       o.cfg,
		sandbox:   sb,
		collector: gitdiff.New(o.cfg.ExcludeFiles),
		recorder:  metrics.NewRecorder(),
		emitter:   telemetry.NewEmitter(o.cfg.EventsDir, o.cfg.ObserveJSON),
	}
	client, err := o.NewClient(ctx, o.cfg)
	switch {
	case err == nil:
		a.client = client
	case requireClient:
		return nil, fmt.Errorf("create %s client: %w", o.cfg.Provider, err)
	default:
		clog.FromContext(ctx).Warnf("model client unavailable, using fallbacks: %v", err)
	}
	return a, nil
}

func (a *app) commitGenerator() *commitmsg.Generator {
	return commitmsg.New(a.client,
		commitmsg.WithModel(a.cfg.ResolvedModel()),
		commitmsg.WithMaxLength(a.cfg.CommitMaxLength),
		commitmsg.WithMaxTokens(a.cfg.MaxTokens),
		commitmsg.WithRecorder(a.recorder),
	)
}

func (a *app) registry() (*tools.Registry, error) {
	return tools.Default(tools.Deps{
		Sandbox:   a.sandbox,
		Collector: a.collector,
		Commit:    a.commitGenerator(),
		Emitter:   a.emitter,
	})
}

// collect resolves dir inside the read root and returns its change set.
func (a *app) collect(ctx context.Context, dir string) ([]gitdiff.Record, error) {
	root, err := a.sandbox.ResolveDir(dir)
	if err != nil {
		return nil, err
	}
	return a.collector.Collect(ctx, root)
}

func (a *app) writeMetrics(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := a.recorder.WriteTextfile(path); err != nil {
		clog.FromContext(ctx).Warnf("write metrics to %s: %v", path, err)
	}
}

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
