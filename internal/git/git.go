package git

import (
	"context"
	"fmt"

	"github.com/pkgw/ttdeploy/internal/execx"
	"github.com/pkgw/ttdeploy/internal/logger"
)

// Client performs the git operations the deployment pipeline needs.
// All work is delegated to the git binary through an execx.Runner.
type Client struct {
	// run issues the underlying git commands.
	run execx.Runner
}

// NewClient creates a Client on top of the provided runner.
func NewClient(run execx.Runner) *Client {
	return &Client{run: run}
}

// ConfigureIdentity sets the committer identity used for deployment tags.
// CI agents start with no git identity, so this must run before any tagging.
func (c *Client) ConfigureIdentity(ctx context.Context, name, email string) error {
	if err := c.run.Run(ctx, "git", "config", "--global", "user.name", name); err != nil {
		return fmt.Errorf("configure user.name: %w", err)
	}

	if err := c.run.Run(ctx, "git", "config", "--global", "user.email", email); err != nil {
		return fmt.Errorf("configure user.email: %w", err)
	}

	return nil
}

// ForceTag moves (or creates) a tag at the current HEAD.
func (c *Client) ForceTag(ctx context.Context, tag string) error {
	if err := c.run.Run(ctx, "git", "tag", "--force", tag); err != nil {
		return fmt.Errorf("force tag %s: %w", tag, err)
	}

	return nil
}

// ForcePushTag publishes a tag, overwriting it on the remote if present.
// Used for the rolling tag only; release tags are pushed with PushTags.
func (c *Client) ForcePushTag(ctx context.Context, remote, tag string) error {
	ref := "refs/tags/" + tag
	if err := c.run.Run(ctx, "git", "push", "--force", remote, ref); err != nil {
		return fmt.Errorf("push tag %s to %s: %w", tag, remote, err)
	}

	return nil
}

// PushTags pushes all local tags to the remote.
func (c *Client) PushTags(ctx context.Context, remote string) error {
	if err := c.run.Run(ctx, "git", "push", "--tags", remote); err != nil {
		return fmt.Errorf("push tags to %s: %w", remote, err)
	}

	return nil
}

// PushBranch pushes HEAD to the named branch on the remote.
func (c *Client) PushBranch(ctx context.Context, remote, branch string) error {
	refspec := "HEAD:" + branch
	if err := c.run.Run(ctx, "git", "push", remote, refspec); err != nil {
		return fmt.Errorf("push branch %s to %s: %w", branch, remote, err)
	}

	return nil
}

// Head returns the commit hash the working tree is currently at.
func (c *Client) Head(ctx context.Context) (string, error) {
	out, err := c.run.Output(ctx, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}

	logger.DebugKV(ctx, "Resolved HEAD", "commit", out)

	return out, nil
}
