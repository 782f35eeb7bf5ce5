// Package postgres implements database.DB on a pgx connection pool.
package postgres

import (
	"context"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koustreak/catalogts/internal/database"
	"github.com/koustreak/catalogts/internal/errs"
)

// Driver is safe for concurrent use.
type Driver struct {
	pool *pgxpool.Pool
}

// BuildDSN renders p as a postgres:// URL tagged with application_name so
// catalog sessions are recognisable in pg_stat_activity.
func BuildDSN(p database.ConnParams) string {
	if p.Port == 0 {
		p.Port = database.DriverPostgres.DefaultPort()
	}
	user := url.User(p.User)
	if p.Password != "" {
		user = url.UserPassword(p.User, p.Password)
	}

	query := url.Values{"application_name": {"catalogts"}}
	if p.SSLMode != "" {
		query.Set("sslmode", p.SSLMode)
	}
	return (&url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.Database,
		RawQuery: query.Encode(),
	}).String()
}

// New builds a pool from cfg and pings it before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}
	poolCfg.MaxConns, poolCfg.MinConns = cfg.MaxConns, cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "create pool", err)
	}
	d := &Driver{pool: pool}
	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return d, nil
}

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return resultSet{rows}, nil
}

func (d *Driver) Close() { d.pool.Close() }

// resultSet adapts pgx.Rows; Next and Close pass through unchanged.
type resultSet struct {
	pgx.Rows
}

func (r resultSet) Scan(dest ...any) error {
	if err := r.Rows.Scan(dest...); err != nil {
		return mapScanError(err)
	}
	return nil
}

func (r resultSet) Err() error {
	if err := r.Rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}
