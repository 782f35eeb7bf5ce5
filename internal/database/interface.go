package database

import "context"

// DB is what the catalog readers need from a backend: reachability and
// parameterized row queries. The mysql and postgres subpackages implement it.
type DB interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close()
}

// Rows is a forward-only result set. Close must be called on every path;
// it returns the pooled connection.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}
