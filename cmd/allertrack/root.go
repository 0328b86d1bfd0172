package main

import (
	"fmt"

	"github.com/allertrack/backend/config"
	"github.com/allertrack/backend/internal/infrastructure/cache"
	"github.com/allertrack/backend/internal/infrastructure/openfoodfacts"
	"github.com/allertrack/backend/internal/infrastructure/persistence"
	"github.com/allertrack/backend/internal/logging"
	"github.com/allertrack/backend/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "1.0.0"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "allertrack",
		Short:         "Allergen tracker product backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newScanCommand())

	return root
}

// app is the wired dependency graph shared by every command
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	products *usecase.ProductService
	catalog  *usecase.CatalogService
	close    func()
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Server.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	db, err := persistence.Open(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}

	memoryCache := cache.NewMemoryCache()

	client := openfoodfacts.NewClient(openfoodfacts.ClientConfig{
		BaseURL:           cfg.OpenFoodFacts.BaseURL,
		UserAgent:         cfg.OpenFoodFacts.UserAgent,
		Timeout:           cfg.OpenFoodFacts.Timeout,
		RequestsPerMinute: cfg.RateLimit.Catalog,
	}, logger)
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
	}

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Server.Environment),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("catalog_url", cfg.OpenFoodFacts.BaseURL),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		products: usecase.NewProductService(persistence.NewProductRepository(db), logger),
		catalog:  usecase.NewCatalogService(memoryCache, client, usecase.CatalogServiceConfig{CacheTTL: cfg.Cache.TTL}, logger),
		close: func() {
			memoryCache.Close()
			sqlDB.Close()
			_ = logger.Sync()
		},
	}, nil
}
