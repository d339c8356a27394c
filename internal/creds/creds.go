package creds

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkgw/ttdeploy/internal/logger"
)

const (
	// EnvGitHubToken authorizes GitHub release creation and artifact uploads.
	EnvGitHubToken = "GITHUB_TOKEN"

	// EnvCargoToken authorizes crate publication to the registry.
	EnvCargoToken = "CARGO_REGISTRY_TOKEN" //nolint:gosec // Environment variable name, not a credential.

	// EnvArchDeployKey holds the base64-encoded SSH key for the Arch
	// Linux package repository.
	EnvArchDeployKey = "ARCHLINUX_DEPLOY_KEY_BASE64"

	// keyFileMode keeps the decoded deploy key readable by the agent user only.
	keyFileMode os.FileMode = 0o600

	// sshDirMode is applied when the key directory has to be created.
	sshDirMode os.FileMode = 0o700

	// defaultKeyFilename is used when no key path is configured.
	defaultKeyFilename = "ttdeploy_arch_deploy"
)

var (
	// errMissingCredential is returned when a required environment variable is absent.
	errMissingCredential = errors.New("required credential is not set")
	// errEmptyKey is returned when the deploy key variable decodes to nothing.
	errEmptyKey = errors.New("deploy key is empty")
)

// RequireEnv verifies that every named environment variable is set and
// non-empty. It runs before any mutating step so a misconfigured pipeline
// fails without side effects.
func RequireEnv(ctx context.Context, names ...string) error {
	for _, name := range names {
		if os.Getenv(name) == "" {
			return fmt.Errorf("%w: %s", errMissingCredential, name)
		}
	}

	logger.DebugKV(ctx, "Verified credentials", "count", len(names))

	return nil
}

// WriteDeployKey decodes the base64 deploy key from the environment and
// writes it to the provided path with restrictive permissions. An empty
// path selects a default location under the user's ~/.ssh.
func WriteDeployKey(ctx context.Context, path string) (string, error) {
	encoded := os.Getenv(EnvArchDeployKey)
	if encoded == "" {
		return "", fmt.Errorf("%w: %s", errMissingCredential, EnvArchDeployKey)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode deploy key: %w", err)
	}

	if len(key) == 0 {
		return "", errEmptyKey
	}

	if path == "" {
		var home string

		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locate home directory: %w", err)
		}

		path = filepath.Join(home, ".ssh", defaultKeyFilename)
	}

	if err = os.MkdirAll(filepath.Dir(path), sshDirMode); err != nil {
		return "", fmt.Errorf("create key directory: %w", err)
	}

	if err = os.WriteFile(path, key, keyFileMode); err != nil {
		return "", fmt.Errorf("write deploy key: %w", err)
	}

	logger.InfoKV(ctx, "Installed deploy key", "path", path)

	return path, nil
}
