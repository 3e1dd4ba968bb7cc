package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GiZZoR/wyze-bridge-installer/internal/config"
	"github.com/GiZZoR/wyze-bridge-installer/internal/service/bridge"
	"github.com/GiZZoR/wyze-bridge-installer/internal/svc"
)

// updateCmd moves an existing installation to the requested version.
// Without an explicit --APP_VERSION the update always targets the latest
// release, even when the settings file pinned the version at install time.
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update an existing docker-wyze-bridge installation",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		cfg, err := resolveSettings(ctx, cmd)
		if err != nil {
			return err
		}

		if !cmd.Flags().Changed("APP_VERSION") {
			cfg.AppVersion = "latest"
		}

		if !cmd.Flags().Changed("MEDIA_MTX_VERSION") {
			cfg.MediaMTXVersion = "latest"
		}

		if err = preflight(ctx); err != nil {
			return err
		}

		manager, err := svc.Detect()
		if err != nil {
			return err
		}

		options := &bridge.Options{
			Config:  cfg,
			Manager: manager,
		}

		if err = bridge.Update(ctx, options); err != nil {
			return err
		}

		return config.Save(cfg)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(updateCmd)
}
