package cranko

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkgw/ttdeploy/internal/execx"
	"github.com/pkgw/ttdeploy/internal/logger"
)

// errEmptyVersion is returned when the tool reports a blank version string.
var errEmptyVersion = errors.New("cranko reported an empty version")

// Client wraps the cranko release-automation CLI. Every method maps to one
// cranko invocation; the tool itself owns version bumping, changelogs, and
// the GitHub and crates.io protocols.
type Client struct {
	// run issues the underlying cranko commands.
	run execx.Runner
}

// NewClient creates a Client on top of the provided runner.
func NewClient(run execx.Runner) *Client {
	return &Client{run: run}
}

// ShowVersion returns the current version of the named project.
func (c *Client) ShowVersion(ctx context.Context, project string) (string, error) {
	out, err := c.run.Output(ctx, "cranko", "show", "version", project)
	if err != nil {
		return "", fmt.Errorf("query %s version: %w", project, err)
	}

	if out == "" {
		return "", fmt.Errorf("query %s version: %w", project, errEmptyVersion)
	}

	return out, nil
}

// IfReleased reports whether the current release request includes the named
// project. The query is exit-code based: a clean exit means released.
func (c *Client) IfReleased(ctx context.Context, project string) (bool, error) {
	released, err := c.run.Succeeds(ctx, "cranko", "show", "if-released", "--exit-code", project)
	if err != nil {
		return false, fmt.Errorf("query release state of %s: %w", project, err)
	}

	logger.DebugKV(ctx, "Queried release state", "project", project, "released", released)

	return released, nil
}

// ReleaseWorkflowTag creates the per-project release tags for the current
// release commit.
func (c *Client) ReleaseWorkflowTag(ctx context.Context) error {
	return c.run.Run(ctx, "cranko", "release-workflow", "tag")
}

// InstallCredentialHelper wires the GITHUB_TOKEN into git pushes over HTTPS.
func (c *Client) InstallCredentialHelper(ctx context.Context) error {
	return c.run.Run(ctx, "cranko", "github", "install-credential-helper")
}

// CreateReleases creates a GitHub release for every project tagged in the
// current release commit.
func (c *Client) CreateReleases(ctx context.Context) error {
	return c.run.Run(ctx, "cranko", "github", "create-releases")
}

// CreateCustomRelease creates (or recreates) a GitHub release on an
// arbitrary tag, such as the rolling continuous-deployment tag.
func (c *Client) CreateCustomRelease(ctx context.Context, tag, subject, body string) error {
	args := []string{"github", "create-custom-release", "--subject", subject}
	if body != "" {
		args = append(args, "--body", body)
	}

	args = append(args, tag)

	return c.run.Run(ctx, "cranko", args...)
}

// UploadArtifacts attaches files to the GitHub release of the named project.
func (c *Client) UploadArtifacts(ctx context.Context, project string, files []string) error {
	args := append([]string{"github", "upload-artifacts", project}, files...)

	return c.run.Run(ctx, "cranko", args...)
}

// UploadArtifactsByTag attaches files to the GitHub release on the named
// tag, overwriting assets already present. Rolling prereleases keep the same
// tag across runs, so overwriting is required there.
func (c *Client) UploadArtifactsByTag(ctx context.Context, tag string, files []string) error {
	args := append([]string{"github", "upload-artifacts", "--by-tag", "--overwrite", tag}, files...)

	return c.run.Run(ctx, "cranko", args...)
}

// CargoPublishReleased publishes every released crate to the registry.
// Verification is skipped because the CI build stage already compiled the
// workspace.
func (c *Client) CargoPublishReleased(ctx context.Context) error {
	return c.run.Run(ctx, "cranko", "cargo", "foreach-released", "--", "publish", "--no-verify")
}
