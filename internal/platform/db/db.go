package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/pyplots/pyplots-backend/internal/domain"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

// Config carries everything needed to reach the relational store.
// Either URL is set directly, or InstanceConnectionName plus the DB_*
// credentials describe a managed Cloud SQL instance reached over its
// unix socket.
type Config struct {
	URL                    string
	InstanceConnectionName string
	User                   string
	Pass                   string
	Name                   string
	Environment            string
}

// Configured reports whether any database at all has been configured.
// Endpoints that need the store return 503 when this is false.
func (c Config) Configured() bool {
	if c.Environment == "test" {
		return true
	}
	return c.URL != "" || (c.InstanceConnectionName != "" && c.Name != "")
}

// Open dials the store and returns a gorm handle with a bounded,
// pre-pinged connection pool. Every call opens a fresh pool, so callers
// that must not share connections (the tool-call adapter) simply call
// Open again.
func Open(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("database not configured")
	}

	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Warn),
	}

	var (
		gdb *gorm.DB
		err error
	)
	if cfg.Environment == "test" && cfg.URL == "" {
		gdb, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), gormCfg)
	} else {
		gdb, err = gorm.Open(postgres.Open(dsn(cfg)), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(15)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if log != nil {
		log.Info("Database connected", "environment", cfg.Environment)
	}
	return gdb, nil
}

// Close releases the connection pool behind a gorm handle.
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates the catalog tables.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&domain.Library{},
		&domain.Spec{},
		&domain.Implementation{},
	); err != nil {
		return fmt.Errorf("automigrate catalog tables: %w", err)
	}
	return nil
}

func dsn(cfg Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	// Cloud SQL unix socket: the connector mounts the instance under
	// /cloudsql/<project:region:instance>.
	return fmt.Sprintf(
		"host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.InstanceConnectionName, cfg.User, cfg.Pass, cfg.Name,
	)
}
