package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reliktarte/catalog-service/config"
	"github.com/reliktarte/catalog-service/models"
)

// Connect opens the catalog database and waits for it to answer, retrying
// with the configured backoff.
func Connect(ctx context.Context, cfg config.PostgresConfig, log *zap.Logger) (*gorm.DB, error) {
	policy := Backoff{
		Attempts: cfg.ConnectAttempts,
		Initial:  cfg.ConnectDelay,
		Max:      cfg.ConnectMaxDelay,
	}

	var db *gorm.DB
	err := policy.Retry(ctx, func(ctx context.Context) error {
		var err error
		db, err = Open(postgres.Open(cfg.DSN()))
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			_ = sqlDB.Close()
			return err
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		return nil
	}, func(attempt int, delay time.Duration, err error) {
		log.Warn("database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	log.Info("connected to postgres", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
	return db, nil
}

// Open wraps gorm.Open with the settings every connection uses.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
