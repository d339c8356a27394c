package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFile is a small helper producing a workspace file with parents.
func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// TestCollect checks glob expansion, directory skipping, ordering,
// and the empty-workspace error.
func TestCollect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	workspace := t.TempDir()

	writeFile(t, filepath.Join(workspace, "binary-x86_64", "tectonic.tar.gz"), "bin")
	writeFile(t, filepath.Join(workspace, "binary-aarch64", "tectonic.tar.gz"), "bin")
	writeFile(t, filepath.Join(workspace, "appimage", "tectonic.AppImage"), "img")
	// Directories matching a pattern must be skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(workspace, "appimage", "scratch"), 0o755))

	files, err := Collect(ctx, workspace, []string{"binary-*/*", "appimage/*"})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(workspace, "appimage", "tectonic.AppImage"),
		filepath.Join(workspace, "binary-aarch64", "tectonic.tar.gz"),
		filepath.Join(workspace, "binary-x86_64", "tectonic.tar.gz"),
	}, files)

	_, err = Collect(ctx, t.TempDir(), []string{"binary-*/*"})
	require.ErrorIs(t, err, errNoArtifacts)
}

// TestManifestRoundtrip writes a manifest and verifies checksums survive the trip.
func TestManifestRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	artifactPath := filepath.Join(dir, "tectonic.tar.gz")
	writeFile(t, artifactPath, "artifact contents")

	manifest := NewManifest("0.15.3")
	require.NoError(t, manifest.AddFile(artifactPath))

	manifestPath := filepath.Join(dir, ManifestFilename)
	require.NoError(t, manifest.Write(manifestPath))

	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	require.Equal(t, "0.15.3", loaded.VersionNumber)

	expected, err := GetFileChecksum(artifactPath)
	require.NoError(t, err)

	got, err := loaded.Checksum("tectonic.tar.gz")
	require.NoError(t, err)
	require.Equal(t, expected, got)

	_, err = loaded.Checksum("missing.tar.gz")
	require.ErrorIs(t, err, errNoChecksum)
}
