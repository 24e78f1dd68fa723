package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PepaPanda/uu-backend-project/internal/config"
	"github.com/PepaPanda/uu-backend-project/internal/logging"
)

var (
	cfg    *config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shoplist",
	Short: "Shared shopping list API server",
	Long: `shoplist serves shared shopping lists over HTTP and websockets.
Lists are owned by one user and shared with invited members.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if driver, _ := cmd.Flags().GetString("store"); driver != "" {
			cfg.Store.Driver = driver
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger = logging.New("shoplist", cfg.Environment, cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("store", "", "Storage backend: mongo, postgres or memory (env: STORE_DRIVER)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
