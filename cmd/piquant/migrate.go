package main

import (
	"github.com/spf13/cobra"

	"piquant/adapters/resultsdb"
	"piquant/internal/errors"
	"piquant/internal/migration"
)

func (c *cli) newMigrateCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the results store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return errors.ConfigInvalid("No results store configured: set PIQUANT_RESULTS_DSN or --dsn")
			}
			repo, err := resultsdb.Open(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer repo.Close()
			c.logger.Info("Results store at schema version %s", migration.NewRunner().Version())
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", c.cfg.Database.DSN, "Results store DSN (postgres:// or a SQLite path)")
	return cmd
}
