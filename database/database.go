package database

import (
	"context"
	"errors"
	"fmt"

	"taikoweb/config"
	"taikoweb/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the SQL catalog store selected by the configuration and migrates the models
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.PostgresDSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("driver %q is not a SQL store", cfg.StoreDriver)
	}
	return OpenDialector(dialector)
}

// OpenDialector opens a gorm connection on the given dialector and migrates the models
func OpenDialector(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Song{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Populate creates the bootstrap admin account when one is configured and missing.
// It is the only place where this service writes a user record.
func Populate(ctx context.Context, db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	if cfg.BootstrapAdmin == "" {
		return nil
	}

	var existing models.User
	err := db.WithContext(ctx).Where("username = ?", cfg.BootstrapAdmin).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	admin := models.User{Username: cfg.BootstrapAdmin, UserLevel: cfg.BootstrapAdminLevel}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	log.Info("bootstrap admin created", zap.String("username", admin.Username), zap.Int("user_level", admin.UserLevel))
	return nil
}
