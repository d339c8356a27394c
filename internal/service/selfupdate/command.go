package selfupdate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/pkgw/ttdeploy/internal/artifact"
	"github.com/pkgw/ttdeploy/internal/config"
	"github.com/pkgw/ttdeploy/internal/logger"
	"github.com/pkgw/ttdeploy/internal/version"
)

var (
	errNoUpdateFolder = errors.New("no update folder configured")
	errBadHTTPStatus  = errors.New("unexpected http status")
	errEmptyManifest  = errors.New("update manifest is empty")
)

const (
	// baseExecutable is the binary name; the platform helper appends the
	// extension when needed.
	baseExecutable = "ttdeploy"

	// targetFileMode is applied to the replaced binary.
	targetFileMode os.FileMode = 0o755
)

// Options are inputs accepted by the self-update entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

// runner holds the state for a single self-update execution.
// It is unexported, callers use Run.
type runner struct {
	// cfg holds the settings loaded from YAML.
	cfg *config.Settings
	// manifest is the remote manifest describing the published build.
	manifest *artifact.Manifest
	// temporaryDirectory is where the new binary is downloaded before apply.
	temporaryDirectory string
}

// Run checks the published manifest and replaces the running binary when a
// newer build is available.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "self-update")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if cfg.UpdateFolder == "" {
		return errNoUpdateFolder
	}

	u := &runner{cfg: cfg}

	defer u.cleanup(ctx)

	if err = u.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Self-update failed", "error", err)
		return err
	}

	return nil
}

func (u *runner) run(ctx context.Context) error {
	logger.InfoKV(ctx, "Fetching update manifest", "folder", u.cfg.UpdateFolder)

	if err := u.fetchManifest(ctx); err != nil {
		return fmt.Errorf("fetch update manifest: %w", err)
	}

	local := version.Short()

	remote := u.manifest.VersionNumber
	if remote == "" {
		return errEmptyManifest
	}

	if local == remote {
		logger.InfoKV(ctx, "Already up to date", "version", local)
		return nil
	}

	logger.InfoKV(ctx, "Updating binary", "local", local, "remote", remote)

	downloaded, err := u.downloadBinary(ctx)
	if err != nil {
		return fmt.Errorf("download binary: %w", err)
	}

	if err = u.applyBinary(ctx, downloaded); err != nil {
		return fmt.Errorf("apply binary: %w", err)
	}

	logger.InfoKV(ctx, "Self-update completed", "version", remote)

	return nil
}

// fetchManifest downloads and parses the remote manifest.
func (u *runner) fetchManifest(ctx context.Context) error {
	body, err := u.getFileFromServer(ctx, artifact.ManifestFilename)
	if err != nil {
		return err
	}

	manifest, err := artifact.Load(body)
	if err != nil {
		return err
	}

	u.manifest = manifest

	return nil
}

// downloadBinary fetches the platform binary into a temporary directory.
func (u *runner) downloadBinary(ctx context.Context) (string, error) {
	temporaryDirectory, err := os.MkdirTemp("", "ttdeploy-self-update-")
	if err != nil {
		return "", err
	}

	u.temporaryDirectory = temporaryDirectory
	name := executableName()

	body, err := u.getFileFromServer(ctx, name)
	if err != nil {
		return "", err
	}

	outputFileName := filepath.Clean(filepath.Join(temporaryDirectory, name))
	if err = os.WriteFile(outputFileName, body, targetFileMode); err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Downloaded binary", "path", outputFileName)

	return outputFileName, nil
}

// applyBinary atomically replaces the running executable, verifying the
// manifest checksum on the way.
func (u *runner) applyBinary(ctx context.Context, downloaded string) error {
	data, err := os.ReadFile(filepath.Clean(downloaded))
	if err != nil {
		return err
	}

	checksum, err := u.manifest.Checksum(executableName())
	if err != nil {
		return err
	}

	target, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate running executable: %w", err)
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: targetFileMode,
		Checksum:   checksum,
		Hash:       artifact.DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return err
	}

	// go-update leaves the previous binary behind as ".old".
	oldFileName := target + ".old"
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	logger.DebugKV(ctx, "Replaced executable", "path", target)

	return nil
}

// getFileFromServer fetches a file from the update folder.
func (u *runner) getFileFromServer(ctx context.Context, fileName string) ([]byte, error) {
	serverUpdateURL, err := url.Parse(u.cfg.UpdateFolder)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	serverUpdateURL.Path = path.Join(serverUpdateURL.Path, fileName)
	finalURL := serverUpdateURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	return io.ReadAll(response.Body)
}

// cleanup removes the temporary download directory.
func (u *runner) cleanup(ctx context.Context) {
	if u.temporaryDirectory != "" {
		if _, err := os.Stat(u.temporaryDirectory); err == nil {
			_ = os.RemoveAll(u.temporaryDirectory)
		}
	}

	logger.Debug(ctx, "Self-update cleanup finished")
}

// executableName returns the platform-specific binary name.
func executableName() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return baseExecutable + ".exe"
	}

	return baseExecutable
}
