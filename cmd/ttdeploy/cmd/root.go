package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pkgw/ttdeploy/internal/config"
	"github.com/pkgw/ttdeploy/internal/logger"
	"github.com/pkgw/ttdeploy/internal/version"
)

var (
	// configPath to the deployment settings YAML file.
	configPath string

	// logLevel is the minimum level for console logging.
	logLevel string

	// dryRun logs external commands instead of executing them.
	dryRun bool

	// mainDev marks a deployment triggered by a main-branch update.
	mainDev bool

	// release marks a deployment triggered from the release-candidate branch.
	release bool

	// rootCmd represents the base command for the deployment driver.
	rootCmd = &cobra.Command{
		Use:   "ttdeploy",
		Short: "Drive the continuous-deployment pipeline",
		Long: "ttdeploy runs the deployment half of the CI pipeline: it resolves the " +
			"toplevel deployment mode from the trigger parameters, publishes " +
			"documentation, maintains the rolling continuous prerelease, and " +
			"performs official releases through cranko, git and cargo.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
	}
)

// Execute runs the ttdeploy CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c",
		config.DefaultConfigFilename, "path to deployment settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"minimum log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false,
		"log external commands instead of executing them")
	rootCmd.PersistentFlags().BoolVar(&mainDev, "main-dev", false,
		"deployment triggered by a main-branch update")
	rootCmd.PersistentFlags().BoolVar(&release, "release", false,
		"deployment triggered from the release-candidate branch")
}
