package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	// DefaultAPIKey is accepted when API_KEYS is unset. It is refused in
	// production.
	DefaultAPIKey = "apitest"
)

// ErrPlaintextConnection means DB_REQUIRE_SSL is set but the connection
// string allows an unencrypted connection.
var ErrPlaintextConnection = errors.New("DB_REQUIRE_SSL is set but the connection string allows plaintext (sslmode must be require, verify-ca or verify-full)")

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server        ServerConfig
	Auth          AuthConfig
	Database      DatabaseConfig
	StorageDriver string
	Environment   string
	LogLevel      string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

type AuthConfig struct {
	APIKeys []string // Valid API keys for the administrative endpoints
}

// UsesDefaultKey reports whether the built-in development key is accepted.
func (a AuthConfig) UsesDefaultKey() bool {
	for _, k := range a.APIKeys {
		if k == DefaultAPIKey {
			return true
		}
	}
	return false
}

// DatabaseConfig describes how to reach PostgreSQL. Either URL or the
// discrete host/port/name/user fields are used; URL wins when both are set.
type DatabaseConfig struct {
	URL        string
	Host       string
	Port       int
	Name       string
	User       string
	Password   string
	RequireSSL bool
	MaxConns   int32
	MinConns   int32
	Schema     string
	Table      string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first if present; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
		},
		Auth: AuthConfig{
			APIKeys: getEnvAsSlice("API_KEYS", []string{DefaultAPIKey}),
		},
		Database: DatabaseConfig{
			URL:        getEnv("DATABASE_URL", ""),
			Host:       getEnv("DB_HOST", "127.0.0.1"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			Name:       getEnv("DB_NAME", "EatlyServer"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			RequireSSL: getEnvAsBool("DB_REQUIRE_SSL", false),
			MaxConns:   int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns:   int32(getEnvAsInt("DB_MIN_CONNS", 0)),
			Schema:     getEnv("DB_SCHEMA", "public"),
			Table:      getEnv("DB_TABLE", "dishes"),
		},
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		Environment:   getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("at least one API key must be configured")
	}
	if c.Environment == "production" && c.Auth.UsesDefaultKey() {
		return fmt.Errorf("API_KEYS must be set in production; the default key %q is not accepted", DefaultAPIKey)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	switch c.StorageDriver {
	case StorageDriverPostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("invalid storage driver: %s (must be postgres or memory)", c.StorageDriver)
	}

	return nil
}

// Validate checks the database settings without connecting.
func (d DatabaseConfig) Validate() error {
	if !isIdentifier(d.Table) {
		return fmt.Errorf("invalid DB_TABLE: %q", d.Table)
	}
	if !isIdentifier(d.Schema) {
		return fmt.Errorf("invalid DB_SCHEMA: %q", d.Schema)
	}
	if d.MinConns < 0 || d.MaxConns < 0 || (d.MaxConns > 0 && d.MinConns > d.MaxConns) {
		return fmt.Errorf("invalid pool size: min=%d max=%d", d.MinConns, d.MaxConns)
	}
	if d.URL == "" {
		if d.Host == "" {
			return fmt.Errorf("DB_HOST is required when DATABASE_URL is not set")
		}
		if d.Port <= 0 || d.Port > 65535 {
			return fmt.Errorf("invalid DB_PORT: %d", d.Port)
		}
		if d.Name == "" {
			return fmt.Errorf("DB_NAME is required when DATABASE_URL is not set")
		}
		if d.User == "" {
			return fmt.Errorf("DB_USER is required when DATABASE_URL is not set")
		}
	}

	_, err := d.PoolConfig()
	return err
}

// ConnString returns the connection string handed to pgx. DATABASE_URL is
// passed through in either URL or key/value form, gaining sslmode=require
// when RequireSSL is set and it names no sslmode. Discrete fields are
// rendered as a postgres:// URL.
func (d DatabaseConfig) ConnString() (string, error) {
	if d.URL != "" {
		return d.urlWithSSLMode()
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}

	q := u.Query()
	if d.RequireSSL {
		q.Set("sslmode", "require")
	} else {
		q.Set("sslmode", "prefer")
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (d DatabaseConfig) urlWithSSLMode() (string, error) {
	if !d.RequireSSL {
		return d.URL, nil
	}

	if strings.HasPrefix(d.URL, "postgres://") || strings.HasPrefix(d.URL, "postgresql://") {
		u, err := url.Parse(d.URL)
		if err != nil {
			return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		if q.Get("sslmode") == "" {
			q.Set("sslmode", "require")
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	}

	if strings.Contains(d.URL, "sslmode=") {
		return d.URL, nil
	}
	return strings.TrimSpace(d.URL) + " sslmode=require", nil
}

// PoolConfig builds the pgxpool configuration for these settings. With
// RequireSSL, a connection string that could end up in plaintext is an error.
func (d DatabaseConfig) PoolConfig() (*pgxpool.Config, error) {
	connString, err := d.ConnString()
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if d.RequireSSL {
		if err := requireTLS(poolConfig.ConnConfig); err != nil {
			return nil, err
		}
	}

	if d.MaxConns > 0 {
		poolConfig.MaxConns = d.MaxConns
	}
	if d.MinConns > 0 {
		poolConfig.MinConns = d.MinConns
	}

	return poolConfig, nil
}

// requireTLS rejects configs whose primary or fallback attempts skip TLS,
// which is what sslmode disable, allow and prefer produce.
func requireTLS(cc *pgx.ConnConfig) error {
	if cc.TLSConfig == nil {
		return ErrPlaintextConnection
	}
	for _, fb := range cc.Fallbacks {
		if fb.TLSConfig == nil {
			return ErrPlaintextConnection
		}
	}
	return nil
}

// Redacted returns a view of the configuration that is safe to expose over
// the diagnostic endpoints.
func (c *Config) Redacted() map[string]interface{} {
	return map[string]interface{}{
		"environment":      c.Environment,
		"storage_driver":   c.StorageDriver,
		"log_level":        c.LogLevel,
		"db_host":          c.Database.Host,
		"db_port":          c.Database.Port,
		"db_name":          c.Database.Name,
		"db_user":          c.Database.User,
		"db_schema":        c.Database.Schema,
		"db_table":         c.Database.Table,
		"db_require_ssl":   c.Database.RequireSSL,
		"database_url_set": c.Database.URL != "",
		"db_password_set":  c.Database.Password != "",
		"api_keys_count":   len(c.Auth.APIKeys),
	}
}

// isIdentifier reports whether s is a plain lower-case SQL identifier. The
// table and schema names are interpolated into DDL, so nothing else is allowed.
func isIdentifier(s string) bool {
	if s == "" || len(s) > 63 {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
