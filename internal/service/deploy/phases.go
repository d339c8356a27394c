package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkgw/ttdeploy/internal/artifact"
	"github.com/pkgw/ttdeploy/internal/creds"
	"github.com/pkgw/ttdeploy/internal/logger"
)

const (
	// continuousSubject titles the rolling prerelease on GitHub.
	continuousSubject = "Continuous Deployment"

	// continuousBody describes the rolling prerelease on GitHub.
	continuousBody = "Rolling prerelease tracking the main development branch. " +
		"Artifacts are rebuilt and replaced on every update."

	// archKeyPathEnvVar tells the Arch deploy script where the decoded
	// SSH key was written.
	archKeyPathEnvVar = "ARCHLINUX_DEPLOY_KEY_PATH"
)

// setup prepares the agent for publishing: git identity, credential
// presence, and the release tool's credential helper for HTTPS pushes.
func (p *pipeline) setup(ctx context.Context) error {
	logger.Info(ctx, "Preparing deployment environment")

	if err := p.git.ConfigureIdentity(ctx, p.cfg.GitUserName, p.cfg.GitUserEmail); err != nil {
		return err
	}

	if p.opts.DryRun {
		logger.Info(ctx, "Dry run, skipping credential checks")
	} else {
		required := []string{creds.EnvGitHubToken}
		if p.opts.Release {
			required = append(required, creds.EnvCargoToken)
		}

		if err := creds.RequireEnv(ctx, required...); err != nil {
			return err
		}
	}

	return p.cranko.InstallCredentialHelper(ctx)
}

// publishDocs invokes the doc-tree force-push helper with the resolved
// mode. It never runs when the mode is "skip".
func (p *pipeline) publishDocs(ctx context.Context) error {
	mode, err := p.resolveToplevelMode(ctx)
	if err != nil {
		return err
	}

	if mode.IsSkip() {
		logger.Info(ctx, "Toplevel mode is skip, not updating documentation")
		return nil
	}

	logger.InfoKV(ctx, "Updating documentation", "mode", string(mode))

	if err := p.run.Run(ctx, "bash", p.cfg.DocsPushScript, string(mode)); err != nil {
		return fmt.Errorf("publish docs: %w", err)
	}

	return nil
}

// publishContinuous recreates the rolling prerelease: force-move the rolling
// tag, recreate the GitHub release on it, and upload fresh artifacts.
// It only applies to main-dev deployments.
func (p *pipeline) publishContinuous(ctx context.Context) error {
	if !p.opts.MainDev {
		logger.Debug(ctx, "Not a main-dev deployment, skipping continuous prerelease")
		return nil
	}

	mode, err := p.resolveToplevelMode(ctx)
	if err != nil {
		return err
	}

	tag := p.cfg.ContinuousTag
	logger.InfoKV(ctx, "Recreating continuous prerelease", "tag", tag)

	if err = p.git.ForceTag(ctx, tag); err != nil {
		return err
	}

	if err = p.git.ForcePushTag(ctx, p.cfg.GitRemote, tag); err != nil {
		return err
	}

	if err = p.cranko.CreateCustomRelease(ctx, tag, continuousSubject, continuousBody); err != nil {
		return fmt.Errorf("recreate continuous release: %w", err)
	}

	files, err := p.stageArtifacts(ctx, string(mode))
	if err != nil {
		return err
	}

	if err = p.cranko.UploadArtifactsByTag(ctx, tag, files); err != nil {
		return fmt.Errorf("upload continuous artifacts: %w", err)
	}

	return nil
}

// publishRelease performs the official release sequence: release tags,
// branch push, crate publication, GitHub releases with artifacts, and the
// Arch Linux package update. It only applies to release deployments.
func (p *pipeline) publishRelease(ctx context.Context) error {
	if !p.opts.Release {
		logger.Debug(ctx, "Not a release deployment, skipping official release")
		return nil
	}

	mode, err := p.resolveToplevelMode(ctx)
	if err != nil {
		return err
	}

	logger.Info(ctx, "Tagging and pushing the release")

	if err = p.cranko.ReleaseWorkflowTag(ctx); err != nil {
		return fmt.Errorf("apply release tags: %w", err)
	}

	if err = p.git.PushTags(ctx, p.cfg.GitRemote); err != nil {
		return err
	}

	if err = p.git.PushBranch(ctx, p.cfg.GitRemote, p.cfg.ReleaseBranch); err != nil {
		return err
	}

	logger.Info(ctx, "Publishing released crates")

	if err = p.cranko.CargoPublishReleased(ctx); err != nil {
		return fmt.Errorf("publish crates: %w", err)
	}

	logger.Info(ctx, "Creating GitHub releases")

	if err = p.cranko.CreateReleases(ctx); err != nil {
		return fmt.Errorf("create releases: %w", err)
	}

	if mode.IsSkip() {
		logger.Info(ctx, "Toplevel project was not released, skipping artifact upload and Arch update")
		return nil
	}

	files, err := p.stageArtifacts(ctx, string(mode))
	if err != nil {
		return err
	}

	if err = p.cranko.UploadArtifacts(ctx, p.cfg.ToplevelProject, files); err != nil {
		return fmt.Errorf("upload release artifacts: %w", err)
	}

	return p.updateArchPackage(ctx, string(mode))
}

// stageArtifacts collects workspace artifacts, writes the checksum manifest
// next to them, and returns the full upload list.
func (p *pipeline) stageArtifacts(ctx context.Context, version string) ([]string, error) {
	files, err := artifact.Collect(ctx, p.cfg.WorkspaceDir, p.cfg.ArtifactPatterns)
	if err != nil {
		return nil, err
	}

	manifest := artifact.NewManifest(version)
	for _, file := range files {
		if err = manifest.AddFile(file); err != nil {
			return nil, err
		}
	}

	manifestPath := filepath.Join(p.cfg.WorkspaceDir, artifact.ManifestFilename)
	if err = manifest.Write(manifestPath); err != nil {
		return nil, err
	}

	return append(files, manifestPath), nil
}

// updateArchPackage installs the deploy key and runs the Arch packaging
// script with the released version.
func (p *pipeline) updateArchPackage(ctx context.Context, version string) error {
	logger.InfoKV(ctx, "Updating Arch Linux package", "version", version)

	if p.opts.DryRun {
		logger.Info(ctx, "Dry run, not installing the Arch deploy key")
	} else {
		keyPath, err := creds.WriteDeployKey(ctx, p.cfg.SSHKeyPath)
		if err != nil {
			return err
		}

		if err = os.Setenv(archKeyPathEnvVar, keyPath); err != nil {
			return fmt.Errorf("export deploy key path: %w", err)
		}
	}

	if err := p.run.Run(ctx, "bash", p.cfg.ArchDeployScript, version); err != nil {
		return fmt.Errorf("update Arch package: %w", err)
	}

	return nil
}
