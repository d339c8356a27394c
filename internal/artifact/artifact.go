package artifact

import (
	"context"
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pkgw/ttdeploy/internal/logger"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// ManifestFilename is the manifest written next to collected artifacts
	// and published with them.
	ManifestFilename = "ttdeploy-manifest.yaml"

	// DefaultChecksumFunction is used to calculate artifact hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// manifestFileMode is used when writing the manifest.
	manifestFileMode os.FileMode = 0o644

	// defaultMapCapacity is the default initial capacity for the file map.
	defaultMapCapacity = 16
)

var (
	// errHashUnavailable is returned when the checksum function is not linked in.
	errHashUnavailable = errors.New("hash function unavailable")
	// errNoArtifacts is returned when the workspace matches no artifact patterns.
	errNoArtifacts = errors.New("no artifacts found in workspace")
	// errNoChecksum is returned when a manifest lacks an entry for a file.
	errNoChecksum = errors.New("checksum missing for file")
)

// Manifest describes a published artifact set: the released version and a
// base64-encoded SHA-512 checksum per file (keyed by base name).
type Manifest struct {
	// VersionNumber is the version the artifacts were built from.
	VersionNumber string `yaml:"version"`
	// Files maps artifact base names to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// NewManifest produces a Manifest for the given version.
func NewManifest(version string) *Manifest {
	return &Manifest{
		VersionNumber: version,
		Files:         make(map[string]string, defaultMapCapacity),
	}
}

// Collect expands the artifact glob patterns under the workspace root and
// returns the matching files, sorted. An empty result is an error: a
// deployment with nothing to upload means an earlier stage failed silently.
func Collect(ctx context.Context, workspaceDir string, patterns []string) ([]string, error) {
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(workspaceDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("expand pattern %s: %w", pattern, err)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", match, err)
			}

			if info.IsDir() {
				continue
			}

			files = append(files, match)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", errNoArtifacts, workspaceDir)
	}

	sort.Strings(files)
	logger.InfoKV(ctx, "Collected artifacts", "count", len(files))

	return files, nil
}

// AddFile records the checksum of an artifact under its base name.
func (m *Manifest) AddFile(path string) error {
	checksum, err := GetFileChecksum(path)
	if err != nil {
		return err
	}

	m.Files[filepath.Base(path)] = base64.StdEncoding.EncodeToString(checksum)

	return nil
}

// Checksum returns the decoded checksum bytes recorded for a file.
func (m *Manifest) Checksum(name string) ([]byte, error) {
	encoded, ok := m.Files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, errNoChecksum)
	}

	checksum, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode checksum for %s: %w", name, err)
	}

	return checksum, nil
}

// Write persists the manifest as YAML.
func (m *Manifest) Write(path string) error {
	contents, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), contents, manifestFileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// Load reads a manifest back from YAML.
func Load(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &manifest, nil
}

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
