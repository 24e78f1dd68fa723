package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the storage schema",
	Long: `Creates tables and indexes for postgres, or the collection indexes for
mongodb. Safe to run more than once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		s, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer s.Close(context.Background())

		logger.WithField("store", cfg.Store.Driver).Info("schema is up to date")
		return nil
	},
}
