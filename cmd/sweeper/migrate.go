package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/vancomm/sweeper/internal/database"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.cfg.Database.Enabled() {
				return errors.New("no database configured, set DATABASE_URL")
			}
			url := opts.cfg.Database.DSN()
			if down {
				return database.Rollback(opts.log, url)
			}
			return database.Migrate(opts.log, url)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back every migration")
	return cmd
}
