package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/catalogts/internal/database"
	"github.com/koustreak/catalogts/internal/errs"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func validConfig() *Config {
	cfg := Default()
	cfg.Database.User = "root"
	cfg.Database.Name = "shop"
	cfg.Output.Dir = "gen"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 30*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 4, cfg.Output.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := map[string]func(*Config){
		"no output":        func(c *Config) { c.Output.Dir = "" },
		"no database":      func(c *Config) { c.Database.Name = "" },
		"no user":          func(c *Config) { c.Database.User = "" },
		"unknown driver":   func(c *Config) { c.Database.Driver = "oracle" },
		"bucket, no store": func(c *Config) { c.Output.Dir = ""; c.Output.Bucket = "types" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			assert.True(t, errs.IsInvalidInput(cfg.Validate()))
		})
	}
}

func TestValidate_BucketOnly(t *testing.T) {
	cfg := validConfig()
	cfg.Output.Dir = ""
	cfg.Output.Bucket = "types"
	cfg.Store.Endpoint = "localhost:9000"
	assert.NoError(t, cfg.Validate())
}

func TestValidateConnection_IgnoresOutput(t *testing.T) {
	cfg := validConfig()
	cfg.Output.Dir = ""
	assert.NoError(t, cfg.ValidateConnection())
}

func TestApplyEnv_MySQLFallbacks(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"MYSQL_HOST":     "db",
		"MYSQL_PORT":     "3307",
		"MYSQL_USER":     "app",
		"MYSQL_PASSWORD": "secret",
		"MYSQL_DATABASE": "shop",
		"PGHOST":         "ignored",
	}))
	require.NoError(t, err)

	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, "app", cfg.Database.User)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "shop", cfg.Database.Name)
}

func TestApplyEnv_CatalogtsWins(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"MYSQL_HOST":              "db",
		"CATALOGTS_HOST":          "override",
		"CATALOGTS_QUERY_TIMEOUT": "5s",
		"CATALOGTS_STORE_USE_SSL": "true",
		"CATALOGTS_OUT":           "gen",
	}))
	require.NoError(t, err)

	assert.Equal(t, "override", cfg.Database.Host)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.True(t, cfg.Store.UseSSL)
	assert.Equal(t, "gen", cfg.Output.Dir)
}

func TestApplyEnv_PostgresFallbacks(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"CATALOGTS_DRIVER": "postgres",
		"MYSQL_HOST":       "ignored",
		"PGHOST":           "pg",
		"PGDATABASE":       "app",
		"PGSSLMODE":        "disable",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "pg", cfg.Database.Host)
	assert.Equal(t, "app", cfg.Database.Name)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
}

func TestApplyEnv_BadValues(t *testing.T) {
	for key, val := range map[string]string{
		"CATALOGTS_PORT":          "abc",
		"CATALOGTS_QUERY_TIMEOUT": "soon",
		"CATALOGTS_STORE_USE_SSL": "maybe",
	} {
		cfg := Default()
		err := cfg.ApplyEnv(envMap(map[string]string{key: val}))
		assert.True(t, errs.IsInvalidInput(err), key)
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: mysql
  host: yaml-host
  user: yaml-user
  name: shop
  query_timeout: 2s
output:
  dir: ./types
schemas: [shop, billing]
log:
  level: debug
`), 0o644))

	t.Setenv("CATALOGTS_USER", "env-user")

	cfg, err := Load(Sources{Path: path, EnvFiles: []string{emptyEnvFile(t)}})
	require.NoError(t, err)

	assert.Equal(t, "yaml-host", cfg.Database.Host)
	assert.Equal(t, "env-user", cfg.Database.User)
	assert.Equal(t, 2*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "./types", cfg.Output.Dir)
	assert.Equal(t, []string{"shop", "billing"}, cfg.Schemas)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format, "unset keys keep defaults")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CATALOGTS_PREFIX=from-dotenv/\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CATALOGTS_PREFIX") })

	cfg, err := Load(Sources{EnvFiles: []string{envFile}})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv/", cfg.Output.Prefix)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  hostname: x\n"), 0o644))

	_, err := Load(Sources{Path: path, EnvFiles: []string{emptyEnvFile(t)}})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(Sources{Path: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.True(t, errs.IsInvalidInput(err))
}

func emptyEnvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func TestLoad_NamedEnvFileMustExist(t *testing.T) {
	dir := t.TempDir()
	realFile := filepath.Join(dir, "real.env")
	require.NoError(t, os.WriteFile(realFile, []byte("CATALOGTS_PREFIX=from-real/\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CATALOGTS_PREFIX") })

	_, err := Load(Sources{EnvFiles: []string{filepath.Join(dir, "missing.env"), realFile}})
	assert.True(t, errs.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "missing.env")
}

func TestLoad_EnvFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("CATALOGTS_PREFIX=first/\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("CATALOGTS_PREFIX=second/\nCATALOGTS_LISTEN=:9999\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("CATALOGTS_PREFIX")
		os.Unsetenv("CATALOGTS_LISTEN")
	})

	cfg, err := Load(Sources{EnvFiles: []string{first, second}})
	require.NoError(t, err)
	assert.Equal(t, "first/", cfg.Output.Prefix, "earlier files win")
	assert.Equal(t, ":9999", cfg.Server.Listen)
}

func TestLoad_MalformedEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.env")
	require.NoError(t, os.WriteFile(path, []byte("BAD-KEY=1\n"), 0o644))

	_, err := Load(Sources{EnvFiles: []string{path}})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestLoad_DriverOverridePicksFallbacks(t *testing.T) {
	t.Setenv("CATALOGTS_DRIVER", "")
	t.Setenv("CATALOGTS_HOST", "")
	t.Setenv("CATALOGTS_USER", "")
	t.Setenv("MYSQL_HOST", "my.example")
	t.Setenv("MYSQL_USER", "myuser")
	t.Setenv("PGHOST", "pg.example")
	t.Setenv("PGUSER", "pguser")

	cfg, err := Load(Sources{EnvFiles: []string{emptyEnvFile(t)}, Driver: "postgres"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "pg.example", cfg.Database.Host)
	assert.Equal(t, "pguser", cfg.Database.User)
}

func TestDatabaseConfig_MySQL(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = "db"
	cfg.Database.Password = "p@ss"
	cfg.Database.QueryTimeout = 7 * time.Second

	dbCfg, err := cfg.DatabaseConfig()
	require.NoError(t, err)
	assert.Equal(t, database.DriverMySQL, dbCfg.Driver)
	assert.Equal(t, 7*time.Second, dbCfg.QueryTimeout)

	parsed, err := gomysql.ParseDSN(dbCfg.DSN)
	require.NoError(t, err)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "root", parsed.User)
	assert.Equal(t, "p@ss", parsed.Passwd)
	assert.Equal(t, "shop", parsed.DBName)
}

func TestDatabaseConfig_Postgres(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "postgres"
	cfg.Database.SSLMode = "disable"

	dbCfg, err := cfg.DatabaseConfig()
	require.NoError(t, err)
	assert.Equal(t, database.DriverPostgres, dbCfg.Driver)
	assert.True(t, strings.HasPrefix(dbCfg.DSN, "postgres://root@localhost:5432/shop?"), dbCfg.DSN)
	assert.Contains(t, dbCfg.DSN, "sslmode=disable")
}

func TestStoreConfig(t *testing.T) {
	cfg := Default()
	cfg.Store = Store{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "s", UseSSL: true}

	sc := cfg.StoreConfig()
	assert.Equal(t, "minio:9000", sc.Endpoint)
	assert.True(t, sc.UseSSL)
}
