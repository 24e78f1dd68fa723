package cmd

import (
	"context"
	"fmt"

	"github.com/PepaPanda/uu-backend-project/internal/config"
	"github.com/PepaPanda/uu-backend-project/internal/database"
	"github.com/PepaPanda/uu-backend-project/internal/store"
	"github.com/PepaPanda/uu-backend-project/internal/store/memstore"
	"github.com/PepaPanda/uu-backend-project/internal/store/mongostore"
	"github.com/PepaPanda/uu-backend-project/internal/store/pgstore"
)

// openStore connects the configured backend and makes sure its schema exists.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil

	case config.DriverPostgres:
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		logger.WithField("host", cfg.Database.Host).Info("connected to postgres")
		return pgstore.New(db), nil

	default:
		s, err := mongostore.Connect(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		logger.WithField("database", cfg.Store.MongoDatabase).Info("connected to mongodb")
		return s, nil
	}
}
