package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for panelize-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (passwords) must only come from environment variables.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// DefaultDatasource selects the executor when a batch request does not
	// name one: "postgres", "mssql", or "memory".
	DefaultDatasource string `yaml:"default_datasource" env:"DEFAULT_DATASOURCE" env-default:"memory"`

	// RowLimit caps rows returned per query. Backends wrap every query with
	// a dialect-specific bound derived from this.
	RowLimit int `yaml:"row_limit" env:"ROW_LIMIT" env-default:"1000"`

	Postgres PostgresConfig `yaml:"postgres"`
	MSSQL    MSSQLConfig    `yaml:"mssql"`
}

// PostgresConfig holds PostgreSQL backend connection settings.
type PostgresConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"panelize"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"panelize"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// MSSQLConfig holds SQL Server backend connection settings.
type MSSQLConfig struct {
	Host     string `yaml:"host" env:"MSSQL_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"MSSQL_PORT" env-default:"1433"`
	User     string `yaml:"user" env:"MSSQL_USER" env-default:"sa"`
	Password string `yaml:"-" env:"MSSQL_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"MSSQL_DATABASE" env-default:"panelize"`
}

// ConnectionString returns a go-mssqldb connection URL.
func (c *MSSQLConfig) ConnectionString() string {
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
	}
	q := url.Values{}
	q.Set("database", c.Database)
	u.RawQuery = q.Encode()
	return u.String()
}

// Load reads configuration from config.yaml with environment variable
// overrides. A missing config file is not an error; environment variables
// and defaults apply on their own.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DefaultDatasource {
	case "postgres", "mssql", "memory":
	default:
		return fmt.Errorf("invalid default_datasource %q: must be postgres, mssql, or memory", c.DefaultDatasource)
	}
	if c.RowLimit <= 0 {
		return fmt.Errorf("row_limit must be positive, got %d", c.RowLimit)
	}
	return nil
}
