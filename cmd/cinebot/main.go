package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memohai/cinebot/internal/config"
	"github.com/memohai/cinebot/internal/db"
	"github.com/memohai/cinebot/internal/logger"
	"github.com/memohai/cinebot/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:          "cinebot",
		Short:        "Movie lookup and delivery bot",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfgPath)
		},
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("CONFIG_PATH"), "Config file path (defaults to CONFIG_PATH or config.toml).")

	cmd.AddCommand(newServeCmd(&cfgPath))
	cmd.AddCommand(newMigrateCmd(&cfgPath))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and the ops HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*cfgPath)
		},
	}
}

func newMigrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the catalog schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(db.Up), string(db.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			return db.Migrate(cfg.Postgres.MigrateURL(), db.Direction(strings.ToLower(args[0])), logger.L)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "cinebot "+version.GetInfo())
		},
	}
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
