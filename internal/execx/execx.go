package execx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pkgw/ttdeploy/internal/logger"
)

// Runner executes external commands on behalf of the pipeline.
// Implementations must be fail-fast: an error return means the command did
// not complete successfully and the caller should abort.
type Runner interface {
	// Run executes a command, streaming its output to the CI log.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes a command and returns its trimmed standard output.
	Output(ctx context.Context, name string, args ...string) (string, error)
	// Succeeds executes a command used as a boolean query: a clean exit
	// reports true, a non-zero exit reports false. Only a failure to launch
	// the command at all is an error.
	Succeeds(ctx context.Context, name string, args ...string) (bool, error)
}

// Shell runs commands as real subprocesses inheriting the process environment.
type Shell struct {
	// Dir is the working directory for commands; empty means inherit.
	Dir string
}

// NewShell creates a Shell runner rooted at the provided directory.
func NewShell(dir string) *Shell {
	return &Shell{Dir: dir}
}

// Run executes the command, forwarding stdout and stderr to the CI log.
func (s *Shell) Run(ctx context.Context, name string, args ...string) error {
	logger.InfoKV(ctx, "Running command", "command", Format(name, args...))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = s.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", Format(name, args...), err)
	}

	return nil
}

// Output executes the command and returns its trimmed standard output.
// On failure the command's stderr is included in the returned error.
func (s *Shell) Output(ctx context.Context, name string, args ...string) (string, error) {
	logger.DebugKV(ctx, "Capturing command output", "command", Format(name, args...))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = s.Dir

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%s: %w: %s",
				Format(name, args...), err, strings.TrimSpace(string(exitErr.Stderr)))
		}

		return "", fmt.Errorf("%s: %w", Format(name, args...), err)
	}

	return strings.TrimSpace(string(out)), nil
}

// Succeeds executes the command as an exit-code query.
func (s *Shell) Succeeds(ctx context.Context, name string, args ...string) (bool, error) {
	logger.DebugKV(ctx, "Querying command", "command", Format(name, args...))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = s.Dir

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", Format(name, args...), err)
	}

	return true, nil
}

// Format renders a command line for logs and error messages.
func Format(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}

	return name + " " + strings.Join(args, " ")
}
