package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reliktarte/catalog-service/cache"
	"github.com/reliktarte/catalog-service/config"
	"github.com/reliktarte/catalog-service/extract"
	"github.com/reliktarte/catalog-service/importer"
	"github.com/reliktarte/catalog-service/walker"
)

func plans(cfg config.CatalogConfig) ([]importer.CategoryPlan, error) {
	return importer.ParsePlans(cfg.Categories)
}

func newSynchronizer(cfg config.CatalogConfig, store importer.Store, logger *zap.Logger) (*importer.Synchronizer, error) {
	source, err := importer.ParseSKUSource(cfg.SKUSource)
	if err != nil {
		return nil, err
	}
	policy := extract.DefaultPolicy()
	policy.SKUFirstToken = cfg.SKUFirstToken

	extractor := extract.New(extract.DefaultReaders(), extract.UkrainianVocabulary(), policy)
	opts := importer.Options{
		Root:      cfg.CatalogDir,
		URLPrefix: cfg.URLPrefix,
		SKUSource: source,
	}
	return importer.NewSynchronizer(store, walker.New(), extractor, opts, logger), nil
}

func closeDB(db *gorm.DB, logger *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("close database", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("close database", zap.Error(err))
	}
}

// newCache returns nil when caching is disabled, which every consumer
// treats as a pass-through.
func newCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (*cache.Cache, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("cache enabled", zap.String("prefix", cfg.Prefix), zap.Duration("ttl", cfg.TTL))
	c := cache.New(cache.NewRedisStore(client), cfg.Prefix, cfg.TTL, logger.Named("cache"))
	return c, func() {
		if err := client.Close(); err != nil {
			logger.Warn("close redis", zap.Error(err))
		}
	}, nil
}

func bootstrapCategories(ctx context.Context, store importer.Store, plans []importer.CategoryPlan, logger *zap.Logger) error {
	seeder := importer.NewSeeder()
	for _, plan := range plans {
		category, err := seeder.EnsureCategory(ctx, store, plan)
		if err != nil {
			return fmt.Errorf("bootstrap category %s: %w", plan.Code, err)
		}
		logger.Debug("category ready", zap.String("code", category.Code), zap.Uint("id", category.ID))
	}
	return nil
}
