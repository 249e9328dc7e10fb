// Package database opens and manages the service's GORM connection.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bomatic/bomatic-server/internal/logger"
)

// Config configures the database connection.
type Config struct {
	// DSN is the MySQL data source name.
	DSN string `json:"dsn" mapstructure:"dsn"`
	// MaxOpenConns bounds the connection pool.
	MaxOpenConns int `json:"max_open_conns" mapstructure:"max_open_conns"`
	// MaxIdleConns bounds idle connections.
	MaxIdleConns int `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	// ConnMaxLifetime recycles connections older than this.
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	// MaxRetries is the number of connection attempts at startup.
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
	// LogLevel is the GORM log level: silent, error, warn, info.
	LogLevel string `json:"log_level" mapstructure:"log_level"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Open connects to MySQL with retry and pooling configured.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*gorm.DB, error) {
	cfg.ApplyDefaults()
	return open(ctx, mysql.Open(cfg.DSN), cfg, log)
}

// OpenWithDialector connects using a caller-supplied dialector. Tests use
// this with an in-memory SQLite dialector.
func OpenWithDialector(ctx context.Context, dialector gorm.Dialector, cfg Config, log *logger.Logger) (*gorm.DB, error) {
	cfg.ApplyDefaults()
	return open(ctx, dialector, cfg, log)
}

func open(ctx context.Context, dialector gorm.Dialector, cfg Config, log *logger.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(parseLogLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("database: connection canceled: %w", ctx.Err())
		}

		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
				err = pingErr
			} else {
				sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
				sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
				sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
				log.Info("Database connection established", logger.Fields("attempt", attempt))
				return db, nil
			}
		}

		if attempt < cfg.MaxRetries {
			backoff := time.Duration(attempt) * time.Second
			log.Warn("Database connection attempt failed, retrying", logger.Fields(
				"attempt", attempt,
				"backoff", backoff.String(),
				logger.FieldError, err.Error(),
			))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("database: connection canceled during retry: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}
	}
	return nil, fmt.Errorf("database: failed to connect after %d attempts: %w", cfg.MaxRetries, err)
}

func parseLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "info":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}
