package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"availability/cmd/internal/domain/entity"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Config struct {
	// URL selects the engine: postgres:// or postgresql:// for PostgreSQL,
	// anything else is handed to SQLite as a path or file: DSN.
	URL                string
	MaxOpenConns       int
	SlowQueryThreshold time.Duration
	Logger             *zap.Logger
}

// DB is the Schedule Store handle shared by every repository.
type DB struct {
	gorm    *gorm.DB
	dialect string

	mu  sync.Mutex
	now func() time.Time
}

type txKey struct{}

func Open(cfg Config) (*DB, error) {
	dialector, dialect, err := dialectorFor(cfg.URL)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newQueryLogger(logger, cfg.SlowQueryThreshold),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	if err := gdb.Use(metricsPlugin{}); err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	if dialect == "sqlite" {
		// Foreign keys are a per-connection pragma in SQLite; one connection
		// keeps it (and an in-memory database) alive for the pool's lifetime.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, Classify(err)
		}
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &DB{gorm: gdb, dialect: dialect, now: time.Now}, nil
}

func dialectorFor(url string) (gorm.Dialector, string, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return nil, "", fmt.Errorf("%w: empty database url", ErrConnection)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url), "postgres", nil
	default:
		return sqlite.Open(sqliteDSN(url)), "sqlite", nil
	}
}

func sqliteDSN(url string) string {
	dsn := strings.TrimPrefix(url, "sqlite://")
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}

// Migrate creates or updates every table, index and constraint.
func (d *DB) Migrate() error {
	err := d.gorm.AutoMigrate(
		&entity.User{},
		&entity.Profile{},
		&entity.Schedule{},
		&entity.Appointment{},
		&entity.Notification{},
		&entity.ExternalIntegration{},
		&entity.Integration{},
		&entity.Analytics{},
	)
	return Classify(err)
}

func (d *DB) Dialect() string {
	return d.dialect
}

func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return nil
}

func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Conn returns the transaction bound to ctx, or the pool when there is none.
func (d *DB) Conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return d.gorm.WithContext(ctx)
}

// WithinTx runs fn in a transaction carried by the context it receives.
// Calls nested inside an existing transaction join it.
func (d *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	err := d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	return Classify(err)
}

// SetClock replaces the time source used for created/updated stamps.
func (d *DB) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

func (d *DB) Now() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return entity.Instant(d.now())
}

// NextStamp returns the update stamp following prev. It is never earlier
// than the clock and always strictly after prev.
func (d *DB) NextStamp(prev time.Time) time.Time {
	now := d.Now()
	if !now.After(prev) {
		return entity.Instant(prev).Add(time.Microsecond)
	}
	return now
}
