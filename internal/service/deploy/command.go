package deploy

import (
	"context"
	"fmt"

	"github.com/pkgw/ttdeploy/internal/config"
	"github.com/pkgw/ttdeploy/internal/cranko"
	"github.com/pkgw/ttdeploy/internal/execx"
	"github.com/pkgw/ttdeploy/internal/git"
	"github.com/pkgw/ttdeploy/internal/logger"
)

// Options contains inputs for the deployment entry points. MainDev and
// Release mirror the CI trigger parameters and are read-only during a run.
type Options struct {
	// ConfigPath is an optional path to the deployment settings YAML.
	ConfigPath string
	// MainDev marks a deployment triggered by a main-branch update.
	MainDev bool
	// Release marks a deployment triggered from the release-candidate branch.
	Release bool
	// DryRun logs and records external commands instead of executing them.
	DryRun bool
}

// pipeline holds state for a single deployment run. It is unexported,
// callers use the Run* entry points which encapsulate setup and the
// concurrent-run guard.
type pipeline struct {
	// opts are the trigger parameters for this run.
	opts *Options
	// cfg holds the deployment settings.
	cfg *config.Settings
	// run issues raw external commands (helper scripts).
	run execx.Runner
	// git drives the git binary.
	git *git.Client
	// cranko drives the release-automation tool.
	cranko *cranko.Client
	// mode is the resolved toplevel deployment mode.
	mode Mode
	// modeResolved guards against recomputing the mode.
	modeResolved bool
}

// Run executes the full deployment pipeline: setup, mode resolution, docs
// publishing, the continuous prerelease (main-dev) and the official release
// (release), in that order, fail-fast.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "deploy")

	return guarded(ctx, opts, func(p *pipeline) error {
		if err := p.setup(ctx); err != nil {
			return err
		}

		if _, err := p.resolveToplevelMode(ctx); err != nil {
			return err
		}

		if err := p.publishDocs(ctx); err != nil {
			return err
		}

		if err := p.publishContinuous(ctx); err != nil {
			return err
		}

		return p.publishRelease(ctx)
	})
}

// ResolveMode computes and returns the toplevel deployment mode without
// mutating anything. It backs the `ttdeploy mode` subcommand.
func ResolveMode(ctx context.Context, opts *Options) (Mode, error) {
	ctx = logger.WithName(ctx, "deploy")

	p, err := newPipeline(opts)
	if err != nil {
		return "", err
	}

	return p.resolveToplevelMode(ctx)
}

// RunDocs executes only the documentation-publishing phase.
func RunDocs(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "deploy")

	return guarded(ctx, opts, func(p *pipeline) error {
		if err := p.setup(ctx); err != nil {
			return err
		}

		return p.publishDocs(ctx)
	})
}

// RunContinuous executes only the continuous prerelease phase.
func RunContinuous(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "deploy")

	return guarded(ctx, opts, func(p *pipeline) error {
		if err := p.setup(ctx); err != nil {
			return err
		}

		return p.publishContinuous(ctx)
	})
}

// RunRelease executes only the official release phase.
func RunRelease(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "deploy")

	return guarded(ctx, opts, func(p *pipeline) error {
		if err := p.setup(ctx); err != nil {
			return err
		}

		return p.publishRelease(ctx)
	})
}

// guarded builds a pipeline, takes the concurrent-run marker, and releases
// it on the way out regardless of outcome.
func guarded(ctx context.Context, opts *Options, phase func(*pipeline) error) error {
	p, err := newPipeline(opts)
	if err != nil {
		return err
	}

	if IsDeployRunningNow(ctx) {
		return errDeployRunning
	}

	if err = createMarker(); err != nil {
		return fmt.Errorf("create run marker: %w", err)
	}

	defer removeMarker()

	if err = phase(p); err != nil {
		logger.ErrorKV(ctx, "Deployment failed", "error", err)
		return err
	}

	logger.Info(ctx, "Deployment completed successfully")

	return nil
}

// newPipeline loads settings and wires the runner and tool clients.
func newPipeline(opts *Options) (*pipeline, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var run execx.Runner = execx.NewShell("")
	if opts.DryRun {
		run = execx.NewRecorder()
	}

	return newPipelineWithRunner(opts, cfg, run), nil
}

// newPipelineWithRunner wires a pipeline around an explicit runner.
// Tests use it to substitute a recorder for the real shell.
func newPipelineWithRunner(opts *Options, cfg *config.Settings, run execx.Runner) *pipeline {
	return &pipeline{
		opts:   opts,
		cfg:    cfg,
		run:    run,
		git:    git.NewClient(run),
		cranko: cranko.NewClient(run),
	}
}
