package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/GiZZoR/wyze-bridge-installer/internal/config"
)

// showSettingsCmd prints the effective configuration after the defaults,
// the settings file and any flags have been merged. It never changes the
// host, so it is safe to run unprivileged.
var showSettingsCmd = &cobra.Command{
	Use:   "show-settings",
	Short: "Print the resolved installer settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := resolveSettings(context.Background(), cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		name := color.New(color.FgCyan)
		description := color.New(color.Faint)

		for _, field := range config.Fields() {
			fmt.Fprintf(out, "%s=%s\n", name.Sprint(field.Name), field.Get(cfg))
			fmt.Fprintf(out, "    %s\n", description.Sprint(field.Description))
		}

		return nil
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(showSettingsCmd)
}
