package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, defaulting and format validations for Settings.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil settings.
	require.Error(t, Validate(nil))

	// Missing project name.
	settings := new(Settings)

	err := Validate(settings)
	require.Error(t, err)

	// Bad update folder.
	settings = &Settings{
		ToplevelProject: "tectonic",
		UpdateFolder:    "not a url",
	}

	err = Validate(settings)
	require.Error(t, err)

	// Okay, defaults filled.
	settings = &Settings{
		ToplevelProject: "tectonic",
		UpdateFolder:    "https://example.com/updates/",
	}

	err = Validate(settings)
	require.NoError(t, err)
	require.Equal(t, DefaultGitRemote, settings.GitRemote)
	require.Equal(t, DefaultReleaseBranch, settings.ReleaseBranch)
	require.Equal(t, DefaultContinuousTag, settings.ContinuousTag)
	require.NotEmpty(t, settings.ArtifactPatterns)
	require.Equal(t, DefaultCommandTimeout, settings.CommandTimeout)
}

// TestValidateWorkspaceFromEnvironment ensures the CI-injected workspace
// variable backfills an empty workspace directory.
func TestValidateWorkspaceFromEnvironment(t *testing.T) {
	t.Setenv(workspaceEnvVar, "/tmp/pipeline-workspace")

	settings := &Settings{ToplevelProject: "tectonic"}

	require.NoError(t, Validate(settings))
	require.Equal(t, "/tmp/pipeline-workspace", settings.WorkspaceDir)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Settings{
		ToplevelProject: "tectonic",
		GitRemote:       "upstream",
		ContinuousTag:   "rolling",
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ToplevelProject, loaded.ToplevelProject)
	require.Equal(t, "upstream", loaded.GitRemote)
	require.Equal(t, "rolling", loaded.ContinuousTag)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}
