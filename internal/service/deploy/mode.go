package deploy

import (
	"context"

	"github.com/pkgw/ttdeploy/internal/logger"
)

// Mode is the resolved toplevel deployment mode. Its domain is closed:
// ModeLatest, ModeSkip, or a semantic version string of the toplevel
// project's fresh release.
type Mode string

const (
	// ModeLatest labels main-development deployments: docs and the rolling
	// prerelease track the tip of the main branch.
	ModeLatest Mode = "latest"

	// ModeSkip disables the version-labeled publishing steps for this run.
	ModeSkip Mode = "skip"
)

// IsSkip reports whether version-labeled publishing is disabled.
func (m Mode) IsSkip() bool {
	return m == ModeSkip
}

// resolveToplevelMode computes the deployment mode, at most once per
// pipeline. Main-dev runs are always "latest"; otherwise the release tool
// is asked whether the toplevel project was just released, yielding either
// its version string or "skip".
func (p *pipeline) resolveToplevelMode(ctx context.Context) (Mode, error) {
	if p.modeResolved {
		return p.mode, nil
	}

	mode, err := p.computeMode(ctx)
	if err != nil {
		return "", err
	}

	p.mode = mode
	p.modeResolved = true

	logger.InfoKV(ctx, "Resolved toplevel deployment mode", "mode", string(mode))

	return mode, nil
}

func (p *pipeline) computeMode(ctx context.Context) (Mode, error) {
	if p.opts.MainDev {
		return ModeLatest, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.CommandTimeout)
	defer cancel()

	released, err := p.cranko.IfReleased(queryCtx, p.cfg.ToplevelProject)
	if err != nil {
		return "", err
	}

	if !released {
		return ModeSkip, nil
	}

	version, err := p.cranko.ShowVersion(queryCtx, p.cfg.ToplevelProject)
	if err != nil {
		return "", err
	}

	return Mode(version), nil
}
