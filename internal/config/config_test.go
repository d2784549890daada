package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with the connection variables unset.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, name := range []string{
		"DUMP_DRIVER", "DUMP_SQLITE_PATH",
		"PGHOST", "POSTGRES_HOST", "PGPORT", "POSTGRES_PORT", "PGDATABASE", "POSTGRES_DB",
		"PGUSER", "POSTGRES_USER", "PGPASSWORD", "POSTGRES_PASSWORD", "PGSSLMODE",
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "dump.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	isolate(t)

	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, DefaultSQLitePath, cfg.SQLite.Path)
	assert.Equal(t, DefaultFlushThreshold, cfg.FlushThreshold)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Empty(t, cfg.Runs)
}

func TestLoadSQLite(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
driver: sqlite
sqlite:
  path: out.db
flush_threshold: 500
concurrency: 4
runs:
  - name: simple
    count: 3
  - name: nested
    table_prefix: demo_
output: dump.sql
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out.db", cfg.SQLite.Path)
	assert.Equal(t, 500, cfg.FlushThreshold)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "dump.sql", cfg.Output)
	assert.Equal(t, []Run{
		{Name: "simple", Count: 3},
		{Name: "nested", Count: DefaultRunCount, TablePrefix: "demo_"},
	}, cfg.Runs)

	run, ok := cfg.Run("nested")
	assert.True(t, ok)
	assert.Equal(t, "demo_", run.TablePrefix)
	_, ok = cfg.Run("missing")
	assert.False(t, ok)
}

func TestLoadPostgresFromEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("POSTGRES_DB", "dump")
	t.Setenv("PGUSER", "loader")
	t.Setenv("PGPORT", "6543")

	cfg, err := Load(writeConfig(t, dir, "driver: postgres\n"))
	require.NoError(t, err)
	assert.Equal(t, Connection{
		Host:     "db.internal",
		Port:     6543,
		Database: "dump",
		User:     "loader",
		SSLMode:  "disable",
	}, cfg.Connection)
	assert.Equal(t, "host=db.internal port=6543 dbname=dump user=loader password= sslmode=disable", cfg.Connection.DSN())
}

func TestLoadPostgresYAMLWinsOverEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("PGHOST", "from-env")

	cfg, err := Load(writeConfig(t, dir, `
driver: postgres
connection:
  host: from-yaml
  database: dump
  user: loader
`))
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.Connection.Host)
	assert.Equal(t, 5432, cfg.Connection.Port)
}

func TestDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DUMP_SQLITE_PATH=from-dotenv.db\n"), 0o600))

	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.SQLite.Path)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "unknown driver", body: "driver: oracle\n", want: "driver must be"},
		{name: "postgres without host", body: "driver: postgres\n", want: "connection.host is required"},
		{name: "postgres without database", body: "driver: postgres\nconnection:\n  host: h\n", want: "connection.database is required"},
		{name: "negative threshold", body: "flush_threshold: -1\n", want: "flush_threshold"},
		{name: "negative concurrency", body: "concurrency: -2\n", want: "concurrency"},
		{name: "unnamed run", body: "runs:\n  - count: 1\n", want: "runs[0].name is required"},
		{name: "duplicate run", body: "runs:\n  - name: a\n  - name: a\n", want: "duplicate run"},
		{name: "negative count", body: "runs:\n  - name: a\n    count: -1\n", want: "runs[0].count"},
		{name: "malformed yaml", body: "runs: [\n", want: "parsing config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			_, err := Load(writeConfig(t, dir, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}
