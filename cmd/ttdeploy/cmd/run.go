package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkgw/ttdeploy/internal/service/deploy"
)

// runCmd executes the full deployment pipeline.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the full deployment pipeline",
	Long: "Execute every deployment phase in order: mode resolution, " +
		"documentation publishing, the continuous prerelease (with --main-dev) " +
		"and the official release sequence (with --release). The first failing " +
		"step aborts the run.",
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return deploy.Run(ctx, deployOptions())
	},
}

// deployOptions assembles service options from the global flags.
func deployOptions() *deploy.Options {
	return &deploy.Options{
		ConfigPath: configPath,
		MainDev:    mainDev,
		Release:    release,
		DryRun:     dryRun,
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(runCmd)
}
