package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vancomm/sweeper/internal/config"
	"github.com/vancomm/sweeper/internal/logging"
)

type rootOptions struct {
	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "sweeper",
		Short: "Minesweeper game engine server",
		Long: `sweeper runs minesweeper tables behind an HTTP and websocket API.

Serve tables
	sweeper serve

Replay a seeded command script
	sweeper replay game.yaml

Configuration is read from the environment (SWEEPER_ADDR, LOG_LEVEL,
DATABASE_URL, TICK_INTERVAL, ...).
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log, cfg.Development, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.cfg, opts.log = cfg, log
			return nil
		},
	}
	cmd.AddCommand(
		newServeCmd(opts),
		newReplayCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}
