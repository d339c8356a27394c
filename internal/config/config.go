package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds deployment parameters shared by all ttdeploy subcommands.
type Settings struct {
	// ToplevelProject is the cranko project whose release drives the toplevel mode.
	ToplevelProject string `yaml:"toplevel_project"`
	// GitRemote is the remote that tags and branches are pushed to.
	GitRemote string `yaml:"git_remote"`
	// ReleaseBranch is the branch pushed during an official release.
	ReleaseBranch string `yaml:"release_branch"`
	// ContinuousTag is the rolling tag recreated on every main-dev deployment.
	ContinuousTag string `yaml:"continuous_tag"`
	// WorkspaceDir is the CI workspace root where build artifacts are staged.
	// When empty, the PIPELINE_WORKSPACE environment variable is used.
	WorkspaceDir string `yaml:"workspace_dir"`
	// ArtifactPatterns are glob patterns, relative to WorkspaceDir,
	// selecting the artifacts to upload with a release.
	ArtifactPatterns []string `yaml:"artifact_patterns"`
	// DocsPushScript is the repo-local helper that force-pushes the doc tree.
	DocsPushScript string `yaml:"docs_push_script"`
	// ArchDeployScript is the repo-local helper that updates the Arch Linux package.
	ArchDeployScript string `yaml:"arch_deploy_script"`
	// SSHKeyPath is where the decoded Arch deployment key is written.
	// When empty, a path under the user's ~/.ssh is used.
	SSHKeyPath string `yaml:"ssh_key_path"`
	// UpdateFolder is the URL where ttdeploy's own update manifest is hosted.
	UpdateFolder string `yaml:"update_folder"`
	// GitUserName is the committer name for deployment commits and tags.
	GitUserName string `yaml:"git_user_name"`
	// GitUserEmail is the committer email for deployment commits and tags.
	GitUserEmail string `yaml:"git_user_email"`
	// CommandTimeout bounds each external command invocation.
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

const (
	// DefaultConfigFilename is the default filename for deployment settings.
	DefaultConfigFilename = "ttdeploy-settings.yaml"

	// DefaultGitRemote is used when no remote is configured.
	DefaultGitRemote = "origin"

	// DefaultReleaseBranch is the branch pushed on official releases.
	DefaultReleaseBranch = "release"

	// DefaultContinuousTag is the rolling prerelease tag name.
	DefaultContinuousTag = "continuous"

	// DefaultCommandTimeout is the default bound on a single external command.
	DefaultCommandTimeout = 10 * time.Minute

	// DefaultGitUserName is the committer name when none is configured.
	DefaultGitUserName = "ttdeploy"

	// DefaultGitUserEmail is the committer email when none is configured.
	DefaultGitUserEmail = "ttdeploy@users.noreply.github.com"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// workspaceEnvVar is the CI-injected workspace root.
	workspaceEnvVar = "PIPELINE_WORKSPACE"
)

var (
	// errSettingsNotSet is returned when a nil configuration is provided.
	errSettingsNotSet = errors.New("settings are not set")
	// errProjectRequired is returned when the toplevel project name is missing.
	errProjectRequired = errors.New("toplevel project name must be provided")
)

// defaultArtifactPatterns selects the binary bundles and AppImages the build
// stages produce.
func defaultArtifactPatterns() []string {
	return []string{"binary-*/*", "appimage/*"}
}

// Load reads settings from the provided path and validates essential fields.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(contents, &settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Save writes settings to the provided path.
func Save(path string, settings *Settings) error {
	if settings == nil {
		return errSettingsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(settings); err != nil {
		return err
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(settings *Settings) error {
	if settings == nil {
		return errSettingsNotSet
	}

	if settings.ToplevelProject == "" {
		return errProjectRequired
	}

	if settings.GitRemote == "" {
		settings.GitRemote = DefaultGitRemote
	}

	if settings.ReleaseBranch == "" {
		settings.ReleaseBranch = DefaultReleaseBranch
	}

	if settings.ContinuousTag == "" {
		settings.ContinuousTag = DefaultContinuousTag
	}

	if settings.WorkspaceDir == "" {
		settings.WorkspaceDir = os.Getenv(workspaceEnvVar)
	}

	if len(settings.ArtifactPatterns) == 0 {
		settings.ArtifactPatterns = defaultArtifactPatterns()
	}

	if settings.DocsPushScript == "" {
		settings.DocsPushScript = filepath.Join("dist", "force-push-tree.sh")
	}

	if settings.ArchDeployScript == "" {
		settings.ArchDeployScript = filepath.Join("dist", "arch", "deploy.sh")
	}

	if settings.GitUserName == "" {
		settings.GitUserName = DefaultGitUserName
	}

	if settings.GitUserEmail == "" {
		settings.GitUserEmail = DefaultGitUserEmail
	}

	if settings.CommandTimeout <= 0 {
		settings.CommandTimeout = DefaultCommandTimeout
	}

	if settings.UpdateFolder == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(settings.UpdateFolder); err != nil {
		return fmt.Errorf("invalid update folder URI: %w", err)
	}

	return nil
}
