package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GiZZoR/wyze-bridge-installer/internal/service/selfupdate"
)

// selfUpdateCmd replaces the running installer binary with the latest
// released build for this platform.
var selfUpdateCmd = &cobra.Command{
	Use:   "self-update",
	Short: "Update this installer to the latest released build",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return selfupdate.Run(ctx, nil)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(selfUpdateCmd)
}
