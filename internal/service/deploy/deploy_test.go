package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkgw/ttdeploy/internal/config"
	"github.com/pkgw/ttdeploy/internal/execx"
)

var errTestRun = errors.New("test run error")

// testSettings returns validated settings rooted at a workspace that
// already contains a plausible artifact layout.
func testSettings(t *testing.T) *config.Settings {
	t.Helper()

	workspace := t.TempDir()
	for _, path := range []string{
		filepath.Join(workspace, "binary-x86_64", "tectonic.tar.gz"),
		filepath.Join(workspace, "appimage", "tectonic.AppImage"),
	} {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("artifact"), 0o644))
	}

	settings := &config.Settings{
		ToplevelProject: "tectonic",
		WorkspaceDir:    workspace,
	}
	require.NoError(t, config.Validate(settings))

	return settings
}

// newTestPipeline wires a pipeline around a recorder. DryRun is set so the
// credential steps stay inert under test.
func newTestPipeline(t *testing.T, opts *Options) (*pipeline, *execx.Recorder) {
	t.Helper()

	opts.DryRun = true
	rec := execx.NewRecorder()

	return newPipelineWithRunner(opts, testSettings(t), rec), rec
}

// hasCallWith reports whether any recorded command line contains the fragment.
func hasCallWith(calls []string, fragment string) bool {
	for _, call := range calls {
		if strings.Contains(call, fragment) {
			return true
		}
	}

	return false
}

// TestResolveToplevelMode covers the full trigger truth table.
func TestResolveToplevelMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// Main-dev wins regardless of the release flag, without querying cranko.
	for _, release := range []bool{false, true} {
		p, rec := newTestPipeline(t, &Options{MainDev: true, Release: release})

		mode, err := p.resolveToplevelMode(ctx)
		require.NoError(t, err)
		require.Equal(t, ModeLatest, mode)
		require.Empty(t, rec.Calls())
	}

	// No release occurred: skip.
	p, rec := newTestPipeline(t, &Options{})
	rec.QueueQuery(false)

	mode, err := p.resolveToplevelMode(ctx)
	require.NoError(t, err)
	require.Equal(t, ModeSkip, mode)
	require.True(t, mode.IsSkip())

	// Release occurred: the reported version string.
	p, rec = newTestPipeline(t, &Options{Release: true})
	rec.QueueQuery(true)
	rec.QueueOutput("0.15.3")

	mode, err = p.resolveToplevelMode(ctx)
	require.NoError(t, err)
	require.Equal(t, Mode("0.15.3"), mode)
	require.False(t, mode.IsSkip())
}

// TestModeResolvedOnce ensures repeated consumers share a single computation.
func TestModeResolvedOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, rec := newTestPipeline(t, &Options{})
	rec.QueueQuery(false)

	for i := 0; i < 3; i++ {
		mode, err := p.resolveToplevelMode(ctx)
		require.NoError(t, err)
		require.Equal(t, ModeSkip, mode)
	}

	// One if-released query, no version query.
	require.Len(t, rec.Calls(), 1)
}

// TestDocsNeverRunOnSkip asserts the documentation script is not invoked
// when the mode resolves to skip.
func TestDocsNeverRunOnSkip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, rec := newTestPipeline(t, &Options{})
	rec.QueueQuery(false)

	require.NoError(t, p.publishDocs(ctx))
	require.False(t, hasCallWith(rec.Calls(), "force-push-tree.sh"))

	// And it is invoked, with the mode as argument, otherwise.
	p, rec = newTestPipeline(t, &Options{MainDev: true})

	require.NoError(t, p.publishDocs(ctx))
	require.True(t, hasCallWith(rec.Calls(), "force-push-tree.sh latest"))
}

// TestContinuousPhase checks the rolling prerelease sequence and that it
// only applies to main-dev runs.
func TestContinuousPhase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// Not main-dev: nothing happens.
	p, rec := newTestPipeline(t, &Options{Release: true})

	require.NoError(t, p.publishContinuous(ctx))
	require.Empty(t, rec.Calls())

	// Main-dev: tag move, release recreation, artifact upload with manifest.
	p, rec = newTestPipeline(t, &Options{MainDev: true})

	require.NoError(t, p.publishContinuous(ctx))

	calls := rec.Calls()
	require.Equal(t, "git tag --force continuous", calls[0])
	require.Equal(t, "git push --force origin refs/tags/continuous", calls[1])
	require.True(t, hasCallWith(calls, "create-custom-release"))
	require.True(t, hasCallWith(calls, "upload-artifacts --by-tag --overwrite continuous"))
	require.True(t, hasCallWith(calls, "ttdeploy-manifest.yaml"))

	// The manifest was written with the rolling version label.
	data, err := os.ReadFile(filepath.Join(p.cfg.WorkspaceDir, "ttdeploy-manifest.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "version: latest")
}

// TestReleasePhaseSkipGating asserts the Arch update and artifact upload
// never run when the toplevel mode is skip, even under a release trigger,
// while the tagging and crate publication still proceed.
func TestReleasePhaseSkipGating(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, rec := newTestPipeline(t, &Options{Release: true})
	rec.QueueQuery(false)

	require.NoError(t, p.publishRelease(ctx))

	calls := rec.Calls()
	require.True(t, hasCallWith(calls, "cranko release-workflow tag"))
	require.True(t, hasCallWith(calls, "git push --tags origin"))
	require.True(t, hasCallWith(calls, "cargo foreach-released"))
	require.True(t, hasCallWith(calls, "create-releases"))
	require.False(t, hasCallWith(calls, "upload-artifacts"))
	require.False(t, hasCallWith(calls, "deploy.sh"))
}

// TestReleasePhaseFull checks the full official-release ordering when the
// toplevel project was released.
func TestReleasePhaseFull(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, rec := newTestPipeline(t, &Options{Release: true})
	rec.QueueQuery(true)
	rec.QueueOutput("0.15.3")

	require.NoError(t, p.publishRelease(ctx))

	calls := rec.Calls()
	// The cranko queries come first, then the fail-fast sequence.
	require.Equal(t, "cranko show if-released --exit-code tectonic", calls[0])
	require.Equal(t, "cranko show version tectonic", calls[1])
	require.Equal(t, "cranko release-workflow tag", calls[2])
	require.Equal(t, "git push --tags origin", calls[3])
	require.Equal(t, "git push origin HEAD:release", calls[4])
	require.Equal(t, "cranko cargo foreach-released -- publish --no-verify", calls[5])
	require.Equal(t, "cranko github create-releases", calls[6])
	require.True(t, hasCallWith(calls, "upload-artifacts tectonic"))
	require.True(t, hasCallWith(calls, "deploy.sh 0.15.3"))
}

// TestFailFast ensures the first failing command aborts the remaining steps.
func TestFailFast(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, rec := newTestPipeline(t, &Options{MainDev: true})
	rec.FailRuns(errTestRun)

	err := p.publishContinuous(ctx)
	require.ErrorIs(t, err, errTestRun)

	// Only the first tagging command was issued.
	require.Len(t, rec.Calls(), 1)
}

// TestRunMarkerGuard verifies a fresh marker blocks a second run.
func TestRunMarkerGuard(t *testing.T) {
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	ctx := context.Background()
	require.False(t, IsDeployRunningNow(ctx))

	require.NoError(t, createMarker())
	require.True(t, IsDeployRunningNow(ctx))

	removeMarker()
	require.False(t, IsDeployRunningNow(ctx))
}
