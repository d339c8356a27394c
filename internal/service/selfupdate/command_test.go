package selfupdate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkgw/ttdeploy/internal/artifact"
	"github.com/pkgw/ttdeploy/internal/config"
)

// TestFetchManifest exercises the HTTP fetch and parse path against a local server.
func TestFetchManifest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/updates/"+artifact.ManifestFilename {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write([]byte("version: 0.2.0\nfiles:\n  ttdeploy: aGFzaA==\n"))
	}))
	t.Cleanup(server.Close)

	u := &runner{cfg: &config.Settings{UpdateFolder: server.URL + "/updates/"}}

	require.NoError(t, u.fetchManifest(context.Background()))
	require.Equal(t, "0.2.0", u.manifest.VersionNumber)

	checksum, err := u.manifest.Checksum("ttdeploy")
	require.NoError(t, err)
	require.Equal(t, []byte("hash"), checksum)
}

// TestFetchManifestBadStatus surfaces non-200 replies as errors.
func TestFetchManifestBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	u := &runner{cfg: &config.Settings{UpdateFolder: server.URL}}

	err := u.fetchManifest(context.Background())
	require.ErrorIs(t, err, errBadHTTPStatus)
}

// TestRunUpToDate ensures a matching manifest version performs no download.
func TestRunUpToDate(t *testing.T) {
	t.Parallel()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++

		_, _ = w.Write([]byte("version: 0.1.0\nfiles: {}\n"))
	}))
	t.Cleanup(server.Close)

	u := &runner{cfg: &config.Settings{UpdateFolder: server.URL}}

	// The local build version is 0.1.0 by default, matching the manifest.
	require.NoError(t, u.run(context.Background()))
	require.Equal(t, 1, requests)
	require.Empty(t, u.temporaryDirectory)
}
