package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/aleister1102/monsterwatch/internal/app"
	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/config"
	"github.com/aleister1102/monsterwatch/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start watching the configured targets",
	Long: `Load the configuration, start one watcher per target and deliver events
to every enabled channel until interrupted (Ctrl+C) or SIGTERM.

Exit codes:
  0 - stopped by a signal
  1 - invalid configuration or startup failure
  2 - the event bus failed and a failure could not be reported

Example:
  monsterwatch run -c config.yaml`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("config", "c", "", "path to config file (defaults to $MONSTERWATCH_CONFIG_PATH or ./config.yaml)")
}

// loadConfig loads and validates the configuration named by the --config flag.
func loadConfig(cmd *cobra.Command) (*config.GlobalConfig, error) {
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadGlobalConfig(configFile, zerolog.Nop())
	if err != nil {
		return nil, common.WrapError(err, "failed to load config")
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	zLogger, err := logger.New(cfg.LogConfig)
	if err != nil {
		return common.WrapError(err, "failed to initialize logger")
	}
	zLogger.Info().Str("version", version).Int("targets", len(cfg.Watch)).Msg("monsterwatch starting")

	application, err := app.New(cfg, zLogger)
	if err != nil {
		zLogger.Error().Err(err).Msg("Startup failed")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		return err
	}
	zLogger.Info().Msg("Shutdown complete")
	return nil
}
