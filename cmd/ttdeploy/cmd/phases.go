package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkgw/ttdeploy/internal/service/deploy"
)

// Phase subcommands run a single pipeline phase, mainly for reruns after a
// partial failure. Each one still resolves the mode and honors its gating.
var (
	docsCmd = &cobra.Command{
		Use:   "docs",
		Short: "Publish documentation for the resolved mode",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return deploy.RunDocs(ctx, deployOptions())
		},
	}

	continuousCmd = &cobra.Command{
		Use:   "continuous",
		Short: "Recreate the rolling continuous prerelease",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return deploy.RunContinuous(ctx, deployOptions())
		},
	}

	releaseCmd = &cobra.Command{
		Use:   "release",
		Short: "Perform the official release sequence",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return deploy.RunRelease(ctx, deployOptions())
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(docsCmd, continuousCmd, releaseCmd)
}
