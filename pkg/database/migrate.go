package database

import (
	"context"
	"fmt"

	"car-rental/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrate applies every pending migration embedded in the binary.
func Migrate(ctx context.Context, db *DB, log *zap.Logger) error {
	sqlDB := db.SQLDB()
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, res := range results {
		log.Info("Migration applied",
			zap.Int64("version", res.Source.Version),
			zap.Duration("duration", res.Duration))
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get migration version: %w", err)
	}
	log.Info("Database schema up to date", zap.Int64("version", version))
	return nil
}
