package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkgw/ttdeploy/internal/service/deploy"
)

// modeCmd resolves and prints the toplevel deployment mode.
var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Resolve and print the toplevel deployment mode",
	Long: "Resolve the toplevel deployment mode from the trigger parameters and the " +
		"release tool: \"latest\" for main-dev runs, the released version string " +
		"when the toplevel project was just released, \"skip\" otherwise. " +
		"Nothing is mutated.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		mode, err := deploy.ResolveMode(ctx, deployOptions())
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(mode))

		return nil
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(modeCmd)
}
