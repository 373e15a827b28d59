package database

import (
	"errors"
	"fmt"

	"osrs-trade-tracker/internal/config"
	"osrs-trade-tracker/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrStoreUnavailable is returned when the record store cannot be opened,
// migrated or queried. It is fatal to the operation that hit it.
var ErrStoreUnavailable = errors.New("record store unavailable")

// NewDatabase opens the configured backend and migrates the schema.
func NewDatabase(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrStoreUnavailable, cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %w", ErrStoreUnavailable, err)
	}

	if cfg.Driver == "" || cfg.Driver == "sqlite" {
		// SQLite allows one writer, and every in-memory connection is its own database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the trades table. Existing rows are kept.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Trade{}); err != nil {
		return fmt.Errorf("%w: failed to auto-migrate database: %w", ErrStoreUnavailable, err)
	}
	return nil
}
