package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port           string
	Env            string
	MigrationsPath string
	// CORSAllowedHosts lists dashboard hosts allowed to call the HTTP surface.
	CORSAllowedHosts []string

	Source DatabaseConfig
	Target DatabaseConfig
	Pool   PoolConfig
	Redis  RedisConfig
	Sync   SyncConfig
}

// Supported database/sql driver names.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// DatabaseConfig contains connection parameters for one store. The WaWi
// source is MySQL by default; the BI target is always PostgreSQL.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// PoolConfig contains connection pool settings shared by both stores.
type PoolConfig struct {
	Size            int
	Idle            int
	ConnMaxLifetime time.Duration
}

// RedisConfig contains Redis connection parameters. An empty Host disables
// the run report cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host is configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// SyncConfig controls scheduling of the WaWi to BI sync.
type SyncConfig struct {
	Interval        time.Duration // 0 disables the scheduler
	Timeout         time.Duration
	RunOnStart      bool
	CompletedStatus string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.MigrationsPath = getEnv("MIGRATIONS_PATH", "file://migrations")
	cfg.CORSAllowedHosts = getEnvList("CORS_ALLOWED_HOSTS")

	// WaWi (source, read-only)
	cfg.Source = loadDatabase("WAWI_DB", getEnv("WAWI_DB_DRIVER", DriverMySQL))

	// BI (target)
	cfg.Target = loadDatabase("BI_DB", DriverPostgres)

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	var err error

	// Pool
	cfg.Pool.Size = getEnvInt("DB_POOL_SIZE", 10)
	cfg.Pool.Idle = getEnvInt("DB_POOL_IDLE", 5)
	if cfg.Pool.ConnMaxLifetime, err = parseDurationEnv("DB_CONN_MAX_LIFETIME", "5m"); err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	// Sync
	if cfg.Sync.Interval, err = parseDurationEnv("SYNC_INTERVAL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	if cfg.Sync.Timeout, err = parseDurationEnv("SYNC_TIMEOUT", "10m"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_TIMEOUT: %w", err)
	}
	if cfg.Sync.RunOnStart, err = parseBoolEnv("SYNC_ON_START", true); err != nil {
		return nil, fmt.Errorf("invalid SYNC_ON_START: %w", err)
	}
	cfg.Sync.CompletedStatus = getEnv("WAWI_COMPLETED_STATUS", "abgeschlossen")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parts of the configuration that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Source.Driver != DriverMySQL && c.Source.Driver != DriverPostgres {
		return fmt.Errorf("invalid WAWI_DB_DRIVER %q: must be mysql or postgres", c.Source.Driver)
	}
	if c.Target.Driver != DriverPostgres {
		return fmt.Errorf("invalid bi database driver %q: only postgres is supported", c.Target.Driver)
	}
	if c.Source.Host == "" || c.Source.User == "" || c.Source.Name == "" {
		return errors.New("wawi database configuration incomplete: ensure WAWI_DB_HOST, WAWI_DB_USER, and WAWI_DB_NAME are set")
	}
	if c.Target.Host == "" || c.Target.User == "" || c.Target.Name == "" {
		return errors.New("bi database configuration incomplete: ensure BI_DB_HOST, BI_DB_USER, and BI_DB_NAME are set")
	}
	if c.Pool.Size < 1 {
		return fmt.Errorf("invalid DB_POOL_SIZE %d: must be >= 1", c.Pool.Size)
	}
	if c.Pool.Idle < 0 || c.Pool.Idle > c.Pool.Size {
		return fmt.Errorf("invalid DB_POOL_IDLE %d: must be between 0 and DB_POOL_SIZE", c.Pool.Idle)
	}
	if c.Sync.CompletedStatus == "" {
		return errors.New("WAWI_COMPLETED_STATUS must not be empty")
	}
	return nil
}

func loadDatabase(prefix, driver string) DatabaseConfig {
	defPort := "5432"
	if driver == DriverMySQL {
		defPort = "3306"
	}
	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"_HOST", ""),
		Port:     getEnv(prefix+"_PORT", defPort),
		User:     getEnv(prefix+"_USER", ""),
		Password: getEnv(prefix+"_PASSWORD", ""),
		Name:     getEnv(prefix+"_NAME", ""),
		SSLMode:  getEnv(prefix+"_SSLMODE", "disable"),
	}
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvList splits a comma separated environment variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBoolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
