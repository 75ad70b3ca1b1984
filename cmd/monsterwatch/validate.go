package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a monsterwatch configuration file without starting any watcher.

The file is parsed, environment references are expanded, every field is
validated and every ignore pattern is compiled.

Example:
  monsterwatch validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("config", "c", "", "path to config file (defaults to $MONSTERWATCH_CONFIG_PATH or ./config.yaml)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	nc := cfg.NotificationConfig
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Config is valid!")
	fmt.Fprintf(out, "  Targets:   %d\n", len(cfg.Watch))
	fmt.Fprintf(out, "  Heartbeat: %s\n", cfg.Heartbeat)
	fmt.Fprintf(out, "  Channels:  discord=%t email=%t journal=%t\n", nc.Discord.Enabled, nc.Email.Enabled, nc.Journal.Enabled)
	fmt.Fprintf(out, "  Status:    %t\n", cfg.StatusServerConfig.Enabled)
	return nil
}
