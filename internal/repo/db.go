// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file opens the SQLite store and migrates the schema.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/choco-sommelier/internal/domain"
)

type dbConfig struct {
	maxOpen int
	slow    time.Duration
	tracing bool
}

// DBOption tunes OpenSQLite.
type DBOption func(*dbConfig)

// WithMaxOpenConns caps the connection pool. n <= 0 is ignored.
func WithMaxOpenConns(n int) DBOption {
	return func(c *dbConfig) {
		if n > 0 {
			c.maxOpen = n
		}
	}
}

// WithSlowQuery logs queries slower than d at warn level. d <= 0 disables it.
func WithSlowQuery(d time.Duration) DBOption {
	return func(c *dbConfig) { c.slow = d }
}

// WithoutTracing skips the OpenTelemetry plugin.
func WithoutTracing() DBOption {
	return func(c *dbConfig) { c.tracing = false }
}

// gormLog forwards GORM's printf-style output to the global zerolog logger.
type gormLog struct{}

func (gormLog) Printf(format string, args ...any) {
	log.Warn().Str("component", "gorm").Msgf(format, args...)
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA foreign_keys=ON;",
	"PRAGMA busy_timeout=5000;",
}

// OpenSQLite opens (or creates) the database at path. Unless disabled, every
// query becomes a child span of the context it runs under.
func OpenSQLite(path string, opts ...DBOption) (*gorm.DB, error) {
	cfg := dbConfig{maxOpen: 10, slow: 200 * time.Millisecond, tracing: true}
	for _, o := range opts {
		o(&cfg)
	}

	// sqlite reports a missing directory as "out of memory (14)".
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(gormLog{}, logger.Config{
			SlowThreshold:             cfg.slow,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}
	if cfg.tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, err
		}
	}

	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("sqlite %s: %w", p, err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.maxOpen)
	sqlDB.SetMaxIdleConns(cfg.maxOpen)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// AutoMigrate creates or updates every table the service owns: sessions and
// transcripts, feedback, idempotency records, taste profiles and the catalog
// snapshot tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Session{},
		&domain.Message{},
		&domain.Feedback{},
		&domain.Idempotency{},
		&domain.TasteProfile{},
		&domain.Product{},
		&domain.FlowDefinition{},
		&domain.KnowledgeEntry{},
	)
}
