package cmd

import (
	"context"
	"log"

	"github.com/spigell/job-radar/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Run: func(_ *cobra.Command, _ []string) {
		migrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func migrate() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	pool, store, err := newStore(ctx, config)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}
	defer pool.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("applying the schema", zap.Error(err))
	}
	logger.Info("schema is up to date")
}
