package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/GiZZoR/wyze-bridge-installer/internal/config"
	"github.com/GiZZoR/wyze-bridge-installer/internal/service/bridge"
	"github.com/GiZZoR/wyze-bridge-installer/internal/svc"
)

// installCmd provisions a host from scratch. Re-running converges a
// partially provisioned host without touching an up-to-date bridge.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install docker-wyze-bridge and MediaMTX on this host",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		cfg, err := resolveSettings(ctx, cmd)
		if err != nil {
			return err
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

		if err = bridge.Install(ctx, options); err != nil {
			return err
		}

		// The persisted settings make later updates repeat this run's choices.
		if err = config.Save(cfg); err != nil {
			return err
		}

		printInstallGuidance(cfg, manager)

		return nil
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(installCmd)
}

// printInstallGuidance tells the operator what is left to do by hand.
func printInstallGuidance(cfg *config.Config, manager svc.Manager) {
	color.Green("docker-wyze-bridge has been installed.")
	color.Cyan("Add your Wyze credentials to %s before starting the service.", cfg.AppConf)

	start := fmt.Sprintf("systemctl start %s", svc.ServiceName)
	if manager == svc.OpenRC {
		start = fmt.Sprintf("rc-service %s start", svc.ServiceName)
	}

	color.Cyan("Then start it with: %s", start)
	color.Cyan("The web UI will be available at http://%s:%d", cfg.AppIP, cfg.AppPort)
}
