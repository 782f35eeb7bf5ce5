// Package cli is the catalogts command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/koustreak/catalogts/internal/catalog"
	"github.com/koustreak/catalogts/internal/config"
	"github.com/koustreak/catalogts/internal/database"
	"github.com/koustreak/catalogts/internal/database/mysql"
	"github.com/koustreak/catalogts/internal/database/postgres"
	"github.com/koustreak/catalogts/internal/logger"
	"github.com/koustreak/catalogts/internal/typemap"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalFlags are shared by every command that talks to a database.
type globalFlags struct {
	configPath string
	envFiles   []string

	driver       string
	host         string
	port         int
	user         string
	password     string
	database     string
	sslmode      string
	queryTimeout time.Duration
	schemas      []string

	logLevel  string
	logFormat string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "catalogts",
		Short: "Generate TypeScript types from a database catalog",
		Long: fmt.Sprintf(`catalogts reads information_schema and writes one TypeScript module per
schema, plus a shared _types module.

Version: %s@%s %s %s`, Version, GitCommit, platform(), BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&g.configPath, "config", "", "YAML config file")
	f.StringSliceVar(&g.envFiles, "env-file", nil, ".env file(s) to load (default .env)")
	f.StringVar(&g.driver, "driver", "mysql", "database driver: mysql or postgres")
	f.StringVar(&g.host, "host", "localhost", "database host (env: MYSQL_HOST, PGHOST)")
	f.IntVar(&g.port, "port", 0, "database port, 0 for the driver default (env: MYSQL_PORT, PGPORT)")
	f.StringVar(&g.user, "user", "", "database user (env: MYSQL_USER, PGUSER)")
	f.StringVar(&g.password, "password", "", "database password (env: MYSQL_PASSWORD, PGPASSWORD)")
	f.StringVar(&g.database, "database", "", "database to connect to (env: MYSQL_DATABASE, PGDATABASE)")
	f.StringVar(&g.sslmode, "sslmode", "", "postgres sslmode")
	f.DurationVar(&g.queryTimeout, "query-timeout", 30*time.Second, "deadline for each catalog query, 0 for none")
	f.StringArrayVar(&g.schemas, "schema", nil, "only generate this schema (repeatable)")
	f.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.StringVar(&g.logFormat, "log-format", "console", "log format: console or json")

	root.AddCommand(newGenerateCmd(g))
	root.AddCommand(newServeCmd(g))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		var le loggedError
		if !errors.As(err, &le) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

// loggedError marks an error that was already written to the run logger.
type loggedError struct{ error }

func (e loggedError) Unwrap() error { return e.error }

// loadConfig applies defaults, file, .env and environment, then any flag the
// user set explicitly.
func (g *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	changed := cmd.Flags().Changed
	src := config.Sources{Path: g.configPath, EnvFiles: g.envFiles}
	if changed("driver") {
		src.Driver = g.driver
	}
	cfg, err := config.Load(src)
	if err != nil {
		return nil, err
	}

	if changed("host") {
		cfg.Database.Host = g.host
	}
	if changed("port") {
		cfg.Database.Port = g.port
	}
	if changed("user") {
		cfg.Database.User = g.user
	}
	if changed("password") {
		cfg.Database.Password = g.password
	}
	if changed("database") {
		cfg.Database.Name = g.database
	}
	if changed("sslmode") {
		cfg.Database.SSLMode = g.sslmode
	}
	if changed("query-timeout") {
		cfg.Database.QueryTimeout = g.queryTimeout
	}
	if changed("schema") {
		cfg.Schemas = g.schemas
	}
	if changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = g.logFormat
	}
	return cfg, nil
}

// newRunLogger builds the logger for one invocation, tagged with a fresh
// run id.
func newRunLogger(cfg *config.Config) *logger.Logger {
	return logger.New(&cfg.Log).With().Str("run_id", uuid.NewString()).Logger()
}

// openCatalog connects to the configured database and returns the pool with
// the matching reader and rule table. The caller closes the pool.
func openCatalog(ctx context.Context, cfg *config.Config, log *logger.Logger) (database.DB, catalog.Reader, *typemap.Mapper, error) {
	dbCfg, err := cfg.DatabaseConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	switch dbCfg.Driver {
	case database.DriverMySQL:
		db, err := mysql.New(ctx, dbCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect: %w", err)
		}
		return db, catalog.NewMySQLReader(db, log, dbCfg.QueryTimeout), typemap.Canonical(), nil
	case database.DriverPostgres:
		db, err := postgres.New(ctx, dbCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect: %w", err)
		}
		return db, catalog.NewPostgresReader(db, log, dbCfg.QueryTimeout), typemap.New(typemap.PostgresRules), nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported driver %q", dbCfg.Driver)
	}
}

func platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}
