package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkgw/ttdeploy/internal/service/selfupdate"
)

// selfUpdateCmd replaces the installed binary with the published build.
var selfUpdateCmd = &cobra.Command{
	Use:   "self-update",
	Short: "Update the installed ttdeploy binary",
	Long: "Fetch the published update manifest, compare it against the local build " +
		"version, and replace the running executable with the published binary " +
		"after checksum verification.",
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return selfupdate.Run(ctx, &selfupdate.Options{ConfigPath: configPath})
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(selfUpdateCmd)
}
