package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jalh2/healthyubackend/internal/config"
	"github.com/jalh2/healthyubackend/internal/db"
	"github.com/jalh2/healthyubackend/internal/employee"
	"github.com/jalh2/healthyubackend/internal/logger"
	"github.com/jalh2/healthyubackend/internal/patient"
)

// migrate prepares the selected store ahead of a deploy: the Postgres schema
// or the Mongo unique indexes.
func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}
	log, err := logger.New(cfg.Log())
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Info("Migration Job - Starting", zap.String("store", cfg.StoreDriver))

	switch cfg.StoreDriver {
	case config.StorePostgres:
		// ConnectPostgres applies the schema
		conn, err := db.ConnectPostgres(ctx, cfg, log)
		if err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		conn.Close()

	case config.StoreMongo:
		client, database, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			log.Fatal("failed to connect to mongo", zap.Error(err))
		}
		defer client.Disconnect(context.Background())

		if err := patient.NewMongoRepository(database).EnsureIndexes(ctx); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		if err := employee.NewMongoRepository(database).EnsureIndexes(ctx); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}

	default:
		log.Info("nothing to migrate for store", zap.String("store", cfg.StoreDriver))
		return
	}

	log.Info("✓ Migration completed successfully")
}
