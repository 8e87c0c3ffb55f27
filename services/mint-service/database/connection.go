package database

import (
	"fmt"

	"github.com/RigelNana/baselibrary/services/mint-service/config"
	"github.com/RigelNana/baselibrary/services/mint-service/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the ledger database. sqlite is the default for a local
// companion; postgres is used when DB_DRIVER=postgres.
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.Path)
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.MintAttempt{}); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}
