// Package config assembles a run's settings. Sources are applied in this
// order, each overriding the previous one: built-in defaults, a YAML file,
// a .env file, the process environment, and finally command-line flags
// (applied by the cli package).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/catalogts/internal/database"
	"github.com/koustreak/catalogts/internal/database/mysql"
	"github.com/koustreak/catalogts/internal/database/postgres"
	"github.com/koustreak/catalogts/internal/errs"
	"github.com/koustreak/catalogts/internal/filestore"
	"github.com/koustreak/catalogts/internal/logger"
)

// Config is the full set of run settings.
type Config struct {
	Database Database      `yaml:"database"`
	Output   Output        `yaml:"output"`
	Store    Store         `yaml:"store"`
	Log      logger.Config `yaml:"log"`
	Server   Server        `yaml:"server"`

	// Schemas restricts generation to these names. Empty means all.
	Schemas []string `yaml:"schemas"`
}

// Database is where the catalog is read from.
type Database struct {
	Driver         string        `yaml:"driver"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"` // 0 means the driver's default
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Name           string        `yaml:"name"`
	SSLMode        string        `yaml:"sslmode"` // postgres only
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
}

// Output is where generated modules go. Exactly one of Dir or Bucket is
// normally set; when both are, the bucket wins.
type Output struct {
	Dir         string `yaml:"dir"`
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Concurrency int    `yaml:"concurrency"`
}

// Store is the object store used when Output.Bucket is set.
type Store struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
}

// Server configures `catalogts serve`.
type Server struct {
	Listen string `yaml:"listen"`
}

// Default returns the built-in defaults.
func Default() *Config {
	log := logger.DefaultConfig()
	return &Config{
		Database: Database{
			Driver:         string(database.DriverMySQL),
			Host:           "localhost",
			ConnectTimeout: 10 * time.Second,
			QueryTimeout:   30 * time.Second,
		},
		Output: Output{Concurrency: 4},
		Log:    *log,
		Server: Server{Listen: ":8080"},
	}
}

// Sources names where Load reads settings from.
type Sources struct {
	// Path is the YAML file; empty skips it.
	Path string
	// EnvFiles are .env files loaded in order. When empty, ".env" is tried
	// and ignored if it does not exist.
	EnvFiles []string
	// Driver overrides the file and environment before the engine-specific
	// fallbacks (MYSQL_* or PG*) are picked.
	Driver string
}

// Load returns defaults overlaid with the YAML file, the .env files and the
// process environment.
func Load(src Sources) (*Config, error) {
	cfg := Default()

	if src.Path != "" {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "read config file", err)
		}
		if err := cfg.decodeYAML(bytes.NewReader(data)); err != nil {
			return nil, err
		}
	}

	if err := loadEnvFiles(src.EnvFiles); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv, src.Driver); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles exports .env entries into the process environment. Variables
// that are already set win.
func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errs.Wrap(errs.ErrKindInvalidInput, "load .env", err)
		}
		return nil
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "load env file "+f, err)
		}
	}
	return nil
}

func (c *Config) decodeYAML(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return errs.Wrap(errs.ErrKindInvalidInput, "parse config file", err)
	}
	return nil
}

// ApplyEnv overlays environment variables read through lookup.
//
// CATALOGTS_* variables cover every setting. For compatibility with the
// usual client tooling, MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD
// and MYSQL_DATABASE are honoured for the mysql driver, and PGHOST, PGPORT,
// PGUSER, PGPASSWORD, PGDATABASE and PGSSLMODE for postgres. CATALOGTS_*
// takes precedence over both.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	return c.applyEnv(lookup, "")
}

func (c *Config) applyEnv(lookup func(string) (string, bool), driver string) error {
	e := envReader{lookup: lookup}

	e.stringVar("CATALOGTS_DRIVER", &c.Database.Driver)
	if driver != "" {
		c.Database.Driver = driver
	}

	switch database.Driver(c.Database.Driver) {
	case database.DriverMySQL:
		e.stringVar("MYSQL_HOST", &c.Database.Host)
		e.intVar("MYSQL_PORT", &c.Database.Port)
		e.stringVar("MYSQL_USER", &c.Database.User)
		e.stringVar("MYSQL_PASSWORD", &c.Database.Password)
		e.stringVar("MYSQL_DATABASE", &c.Database.Name)
	case database.DriverPostgres:
		e.stringVar("PGHOST", &c.Database.Host)
		e.intVar("PGPORT", &c.Database.Port)
		e.stringVar("PGUSER", &c.Database.User)
		e.stringVar("PGPASSWORD", &c.Database.Password)
		e.stringVar("PGDATABASE", &c.Database.Name)
		e.stringVar("PGSSLMODE", &c.Database.SSLMode)
	}

	e.stringVar("CATALOGTS_HOST", &c.Database.Host)
	e.intVar("CATALOGTS_PORT", &c.Database.Port)
	e.stringVar("CATALOGTS_USER", &c.Database.User)
	e.stringVar("CATALOGTS_PASSWORD", &c.Database.Password)
	e.stringVar("CATALOGTS_DATABASE", &c.Database.Name)
	e.stringVar("CATALOGTS_SSLMODE", &c.Database.SSLMode)
	e.durationVar("CATALOGTS_CONNECT_TIMEOUT", &c.Database.ConnectTimeout)
	e.durationVar("CATALOGTS_QUERY_TIMEOUT", &c.Database.QueryTimeout)

	e.stringVar("CATALOGTS_OUT", &c.Output.Dir)
	e.stringVar("CATALOGTS_BUCKET", &c.Output.Bucket)
	e.stringVar("CATALOGTS_PREFIX", &c.Output.Prefix)
	e.intVar("CATALOGTS_CONCURRENCY", &c.Output.Concurrency)

	e.stringVar("CATALOGTS_STORE_ENDPOINT", &c.Store.Endpoint)
	e.stringVar("CATALOGTS_STORE_ACCESS_KEY", &c.Store.AccessKey)
	e.stringVar("CATALOGTS_STORE_SECRET_KEY", &c.Store.SecretKey)
	e.boolVar("CATALOGTS_STORE_USE_SSL", &c.Store.UseSSL)
	e.stringVar("CATALOGTS_STORE_REGION", &c.Store.Region)

	e.stringVar("CATALOGTS_LOG_LEVEL", &c.Log.Level)
	e.stringVar("CATALOGTS_LOG_FORMAT", &c.Log.Format)

	e.stringVar("CATALOGTS_LISTEN", &c.Server.Listen)

	return e.err
}

// Validate reports the first setting that makes a generation run
// impossible.
func (c *Config) Validate() error {
	if _, err := database.ParseDriver(c.Database.Driver); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid driver", err)
	}
	if c.Output.Dir == "" && c.Output.Bucket == "" {
		return errs.New(errs.ErrKindInvalidInput, "output location is required (--out or --bucket)")
	}
	if c.Output.Bucket != "" && c.Store.Endpoint == "" {
		return errs.New(errs.ErrKindInvalidInput, "object store endpoint is required with --bucket")
	}
	return c.ValidateConnection()
}

// ValidateConnection checks only what is needed to reach the database, for
// commands that do not write output.
func (c *Config) ValidateConnection() error {
	if _, err := database.ParseDriver(c.Database.Driver); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid driver", err)
	}
	if c.Database.Name == "" {
		return errs.New(errs.ErrKindInvalidInput, "database name is required (--database)")
	}
	if c.Database.User == "" {
		return errs.New(errs.ErrKindInvalidInput, "database user is required (--user)")
	}
	return nil
}

// DatabaseConfig builds the pool configuration, DSN included.
func (c *Config) DatabaseConfig() (*database.Config, error) {
	driver, err := database.ParseDriver(c.Database.Driver)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid driver", err)
	}

	port := c.Database.Port
	if port == 0 {
		port = driver.DefaultPort()
	}
	params := database.ConnParams{
		Host:     c.Database.Host,
		Port:     port,
		User:     c.Database.User,
		Password: c.Database.Password,
		Database: c.Database.Name,
		SSLMode:  c.Database.SSLMode,
	}

	var dsn string
	switch driver {
	case database.DriverMySQL:
		dsn = mysql.BuildDSN(params)
	case database.DriverPostgres:
		dsn = postgres.BuildDSN(params)
	}

	dbCfg := database.DefaultConfig(driver, dsn)
	dbCfg.ConnectTimeout = c.Database.ConnectTimeout
	dbCfg.QueryTimeout = c.Database.QueryTimeout
	return dbCfg, nil
}

// StoreConfig returns the object store settings.
func (c *Config) StoreConfig() *filestore.Config {
	return &filestore.Config{
		Endpoint:  c.Store.Endpoint,
		AccessKey: c.Store.AccessKey,
		SecretKey: c.Store.SecretKey,
		UseSSL:    c.Store.UseSSL,
		Region:    c.Store.Region,
	}
}

type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envReader) fail(key, v string, err error) {
	if e.err == nil {
		e.err = errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("invalid %s=%q", key, v), err)
	}
}

func (e *envReader) stringVar(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) intVar(key string, dst *int) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = n
}

func (e *envReader) boolVar(key string, dst *bool) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = b
}

func (e *envReader) durationVar(key string, dst *time.Duration) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = d
}
