package main

import (
	"github.com/spf13/cobra"

	"github.com/vancomm/sweeper/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve game tables over HTTP and websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("addr") {
				opts.cfg.Addr, _ = flags.GetString("addr")
			}
			if flags.Changed("tick") {
				opts.cfg.Engine.TickInterval, _ = flags.GetDuration("tick")
			}
			return app.New(opts.log, opts.cfg).Start(cmd.Context())
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address, overrides SWEEPER_ADDR")
	cmd.Flags().Duration("tick", 0, "elapsed time report interval, overrides TICK_INTERVAL")
	return cmd
}
