package deploy

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/pkgw/ttdeploy/internal/logger"
)

const (
	// MarkerFilename marks that a deployment is running right now to avoid
	// two runs mutating the same checkout and remote state.
	MarkerFilename = "ttdeploy-run-marker.bin"

	// deployExecutable is the binary name matched during stale-marker recovery.
	deployExecutable = "ttdeploy"

	// markerLifetime is the period after which a leftover marker is
	// considered stale. Full deployments upload large artifacts, so this is
	// generous.
	markerLifetime = 30 * time.Minute
)

// errDeployRunning indicates another deployment holds the marker.
var errDeployRunning = errors.New("another deployment is running now")

// IsDeployRunningNow checks presence of the run marker and attempts
// recovery if it looks stale.
func IsDeployRunningNow(ctx context.Context) bool {
	logger.Debug(ctx, "Checking for the presence of a run marker")

	fileInfo, err := os.Stat(MarkerFilename)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The run marker is too old, attempting cleanup")

		if err = terminateProcessByName(deployExecutable); err != nil {
			return true
		}

		if err = os.Remove(MarkerFilename); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read run marker: %v", err)

	return false
}

// createMarker writes the run marker for this deployment.
func createMarker() error {
	marker, err := os.Create(MarkerFilename)
	if err != nil {
		return err
	}

	return marker.Close()
}

// removeMarker removes the run marker on the way out so manual reruns are
// never blocked by a failed deployment.
func removeMarker() {
	if _, err := os.Stat(MarkerFilename); err == nil {
		_ = os.Remove(MarkerFilename)
	}
}

// terminateProcessByName tries to kill processes with the provided executable name.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != processName {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}
