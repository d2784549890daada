package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultSQLitePath     = "dump.db"
	DefaultFlushThreshold = 100000
	DefaultRunCount       = 10
)

// Config represents the top-level YAML configuration.
type Config struct {
	Driver         string     `yaml:"driver"`
	Connection     Connection `yaml:"connection"`
	SQLite         SQLite     `yaml:"sqlite"`
	FlushThreshold int        `yaml:"flush_threshold"`
	Concurrency    int        `yaml:"concurrency"`
	Runs           []Run      `yaml:"runs"`
	Output         string     `yaml:"output"`
}

// Connection holds database connection parameters.
type Connection struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// SQLite holds the SQLite backend parameters.
type SQLite struct {
	Path string `yaml:"path"`
}

// Run selects one sample data run.
type Run struct {
	Name        string `yaml:"name"`
	Count       int    `yaml:"count"`
	TablePrefix string `yaml:"table_prefix"`
}

// DSN builds a PostgreSQL connection string.
func (c *Connection) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode,
	)
}

// Default returns the configuration used when no file is given: a local SQLite
// database, with environment variables applied.
func Default() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	var cfg Config
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv reads .env from the working directory when present. Variables already
// set in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// applyEnv fills in empty fields from environment variables.
// YAML values take precedence; env vars are used only as fallback.
func (c *Config) applyEnv() {
	if c.Driver == "" {
		c.Driver = envOr("DUMP_DRIVER")
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = envOr("DUMP_SQLITE_PATH")
	}

	conn := &c.Connection
	if conn.Host == "" {
		conn.Host = envOr("PGHOST", "POSTGRES_HOST")
	}
	if conn.Port == 0 {
		if s := envOr("PGPORT", "POSTGRES_PORT"); s != "" {
			if p, err := strconv.Atoi(s); err == nil {
				conn.Port = p
			}
		}
	}
	if conn.Database == "" {
		conn.Database = envOr("PGDATABASE", "POSTGRES_DB")
	}
	if conn.User == "" {
		conn.User = envOr("PGUSER", "POSTGRES_USER")
	}
	if conn.Password == "" {
		conn.Password = envOr("PGPASSWORD", "POSTGRES_PASSWORD")
	}
	if conn.SSLMode == "" {
		conn.SSLMode = envOr("PGSSLMODE")
	}
}

// envOr returns the first non-empty value from the given env var names.
func envOr(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// validate checks the driver settings and fills in defaults.
func (c *Config) validate() error {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	switch c.Driver {
	case DriverPostgres:
		if err := c.Connection.validate(); err != nil {
			return err
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			c.SQLite.Path = DefaultSQLitePath
		}
	default:
		return fmt.Errorf("driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Driver)
	}

	if c.FlushThreshold == 0 {
		c.FlushThreshold = DefaultFlushThreshold
	}
	if c.FlushThreshold < 0 {
		return fmt.Errorf("flush_threshold must be positive")
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive")
	}

	seen := make(map[string]bool, len(c.Runs))
	for i := range c.Runs {
		r := &c.Runs[i]
		if r.Name == "" {
			return fmt.Errorf("runs[%d].name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("runs[%d]: duplicate run %q", i, r.Name)
		}
		seen[r.Name] = true
		if r.Count == 0 {
			r.Count = DefaultRunCount
		}
		if r.Count < 0 {
			return fmt.Errorf("runs[%d].count must not be negative", i)
		}
	}
	return nil
}

func (c *Connection) validate() error {
	if c.Host == "" {
		return fmt.Errorf("connection.host is required")
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.Database == "" {
		return fmt.Errorf("connection.database is required")
	}
	if c.User == "" {
		return fmt.Errorf("connection.user is required")
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	return nil
}

// Run returns the configured run with the given name.
func (c *Config) Run(name string) (Run, bool) {
	for _, r := range c.Runs {
		if r.Name == name {
			return r, true
		}
	}
	return Run{}, false
}
