package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver (WaWi)
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	appconfig "github.com/GTDGit/wawi_bi/internal/config"
)

// Connect establishes a MySQL or PostgreSQL connection using the provided configuration.
// It applies a small retry strategy to handle transient bootstrapping issues
// (e.g., DB container starting up). The returned *sqlx.DB has pool settings
// pre-configured and is pinged before returning.
func Connect(cfg *appconfig.DatabaseConfig, pool appconfig.PoolConfig) (*sqlx.DB, error) {
	if cfg == nil {
		return nil, errors.New("nil database config")
	}

	dsn := DSN(cfg)

	// Retry policy: up to 5 attempts, exponential backoff starting at 500ms.
	const (
		maxAttempts = 5
		baseDelay   = 500 * time.Millisecond
	)

	var db *sqlx.DB
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, lastErr = sqlx.Open(cfg.Driver, dsn)
		if lastErr != nil {
			sleepWithBackoff(attempt, baseDelay)
			continue
		}

		setPool(db.DB, pool)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()
		if lastErr == nil {
			return db, nil
		}

		_ = db.Close()
		sleepWithBackoff(attempt, baseDelay)
	}

	return nil, fmt.Errorf("failed to connect to %s@%s after %d attempts: %w", cfg.Name, cfg.Host, maxAttempts, lastErr)
}

// DSN renders the connection string for cfg.Driver.
func DSN(cfg *appconfig.DatabaseConfig) string {
	if cfg.Driver == appconfig.DriverMySQL {
		return mysqlDSN(cfg)
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password), cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)
}

// mysqlDSN renders a go-sql-driver/mysql DSN. Timestamps are parsed into
// time.Time in UTC. SSLMode uses the libpq vocabulary so both stores are
// configured the same way.
func mysqlDSN(cfg *appconfig.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC

	switch cfg.SSLMode {
	case "", "disable":
	case "require":
		mc.TLSConfig = "skip-verify"
	case "verify-ca", "verify-full":
		mc.TLSConfig = "true"
	default:
		mc.TLSConfig = cfg.SSLMode
	}
	return mc.FormatDSN()
}

// setPool configures the connection pool for the database.
func setPool(db *sql.DB, pool appconfig.PoolConfig) {
	db.SetMaxOpenConns(pool.Size)
	db.SetMaxIdleConns(pool.Idle)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
}

// sleepWithBackoff sleeps for an exponentially increasing duration.
func sleepWithBackoff(attempt int, base time.Duration) {
	time.Sleep(backoff(attempt, base))
}

// backoff returns base * 2^(attempt-1), capped to 5s.
func backoff(attempt int, base time.Duration) time.Duration {
	d := base << (attempt - 1)
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
