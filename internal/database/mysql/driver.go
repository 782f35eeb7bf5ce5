// Package mysql implements database.DB on database/sql with
// go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/koustreak/catalogts/internal/database"
	"github.com/koustreak/catalogts/internal/errs"
)

// Driver is safe for concurrent use.
type Driver struct {
	db *sql.DB
}

// BuildDSN renders p in go-sql-driver's DSN format. ParseTime is on so
// timestamp defaults scan cleanly.
func BuildDSN(p database.ConnParams) string {
	if p.Port == 0 {
		p.Port = database.DriverMySQL.DefaultPort()
	}
	c := mysql.NewConfig()
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	c.User, c.Passwd = p.User, p.Password
	c.DBName = p.Database
	c.ParseTime = true
	return c.FormatDSN()
}

// New opens a pool for cfg.DSN and pings it, bounded by cfg.ConnectTimeout
// when that is set.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}
	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	d := &Driver{db: db}
	if err := d.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return resultSet{rows}, nil
}

func (d *Driver) Close() { _ = d.db.Close() }

type resultSet struct {
	*sql.Rows
}

func (r resultSet) Close() { _ = r.Rows.Close() }

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
