package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GiZZoR/wyze-bridge-installer/internal/config"
	"github.com/GiZZoR/wyze-bridge-installer/internal/logger"
	"github.com/GiZZoR/wyze-bridge-installer/internal/system"
	"github.com/GiZZoR/wyze-bridge-installer/internal/version"
)

// settingsFileFlag is the flag that relocates the settings file itself.
// It has to apply before the remaining flags so they overlay the right file.
const settingsFileFlag = "INSTALLATION_CONF"

var (
	// logLevel is the logging verbosity for all subcommands.
	logLevel string

	// flagValues holds the raw string value per settings flag; the field
	// registry converts them to their typed destinations.
	flagValues map[string]*string

	// rootCmd is the base command all subcommands hang off.
	rootCmd = &cobra.Command{
		Use:          "wyze-bridge-installer",
		Short:        "Install and update docker-wyze-bridge and MediaMTX on bare metal",
		Long: "wyze-bridge-installer provisions the docker-wyze-bridge camera bridge " +
			"and the MediaMTX media relay directly on a Linux host: service account, " +
			"Python environment, env files and the init-system service definition.",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the installer CLI and exits non-zero on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")

	// Every settings key doubles as a flag. Defaults shown in help are the
	// built-in ones; the persisted settings file overlays them at run time.
	defaults := config.Default()
	fields := config.Fields()
	flagValues = make(map[string]*string, len(fields))

	for _, field := range fields {
		flagValues[field.Name] = flags.String(field.Name, field.Get(defaults), field.Description)
	}
}

// resolveSettings builds the effective configuration: built-in defaults,
// overlaid with the persisted settings file, overlaid with any flags the
// operator set on the command line.
func resolveSettings(ctx context.Context, cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if cmd.Flags().Changed(settingsFileFlag) {
		cfg.SettingsPath = *flagValues[settingsFileFlag]
	}

	config.ApplyFile(ctx, cfg)

	for _, field := range config.Fields() {
		if !cmd.Flags().Changed(field.Name) {
			continue
		}

		if err := field.Set(cfg, *flagValues[field.Name]); err != nil {
			return nil, fmt.Errorf("flag --%s: %w", field.Name, err)
		}
	}

	return cfg, nil
}

// preflight verifies the host can run an installation at all. Privilege
// is checked first so an unprivileged operator gets the right error even
// on a host without Python or a network.
func preflight(ctx context.Context) error {
	if err := system.RequireRoot(); err != nil {
		return err
	}

	if err := system.CheckPythonVersion(ctx); err != nil {
		return err
	}

	return system.CheckNetwork(system.DefaultProbeHost, system.DefaultProbePort, system.DefaultProbeTimeout)
}
