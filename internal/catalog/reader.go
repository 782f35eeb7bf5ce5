// Package catalog reads schema, table and column metadata from a
// database's system catalog. Every query is parameterized and runs on
// one pooled connection that is released before the call returns.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/koustreak/catalogts/internal/database"
	"github.com/koustreak/catalogts/internal/errs"
	"github.com/koustreak/catalogts/internal/logger"
)

// Reader is the catalog-reader contract consumed by the generator.
type Reader interface {
	// ListSchemas returns non-system schemas in catalog order.
	ListSchemas(ctx context.Context) ([]SchemaDescriptor, error)

	// ListTables returns the base tables of schema ordered by name.
	ListTables(ctx context.Context, schema string) ([]TableDescriptor, error)

	// ListColumns returns the columns of every table in schema.
	// Callers group them by ColumnDescriptor.Table.
	ListColumns(ctx context.Context, schema string) ([]ColumnDescriptor, error)
}

// MySQLSystemSchemas are never emitted.
var MySQLSystemSchemas = []string{"mysql", "sys", "information_schema", "performance_schema"}

// PostgresSystemSchemas are never emitted. Per-session temp schemas are
// matched by prefix in IsSystemSchema.
var PostgresSystemSchemas = []string{"pg_catalog", "information_schema", "pg_toast"}

// IsSystemSchema reports whether name belongs to either engine's system set.
func IsSystemSchema(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range MySQLSystemSchemas {
		if lower == s {
			return true
		}
	}
	for _, s := range PostgresSystemSchemas {
		if lower == s {
			return true
		}
	}
	return strings.HasPrefix(lower, "pg_temp_") || strings.HasPrefix(lower, "pg_toast_temp_")
}

// querier holds what both readers share: the pool, the injected logger and
// the per-query deadline.
type querier struct {
	db      database.DB
	log     *logger.Logger
	timeout time.Duration
}

func newQuerier(db database.DB, log *logger.Logger, timeout time.Duration) querier {
	if log == nil {
		log = logger.Nop()
	}
	return querier{db: db, log: log, timeout: timeout}
}

// withTimeout applies the per-query deadline unless the parent already has
// a sooner one.
func (q *querier) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if q.timeout <= 0 {
		return context.WithCancel(parent)
	}
	if deadline, ok := parent.Deadline(); ok && time.Until(deadline) <= q.timeout {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, q.timeout)
}

// collect runs one parameterized query and hands each row to scan. The
// rows, and with them the pooled connection, are released on every path.
// Failures are logged here and returned unchanged.
func (q *querier) collect(ctx context.Context, op, schema, sql string, args []any, scan func(database.Rows) error) error {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		q.report(op, schema, err)
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			q.report(op, schema, err)
			return err
		}
	}
	if err := rows.Err(); err != nil {
		q.report(op, schema, err)
		return err
	}
	return nil
}

func (q *querier) report(op, schema string, err error) {
	msg := "catalog query failed"
	if errs.IsConnectionFailed(err) {
		msg = "catalog connection failed"
	}
	fields := map[string]interface{}{"op": op}
	if schema != "" {
		fields["schema"] = schema
	}
	q.log.ErrorWith(msg, err, fields)
}

func placeholders(n int, render func(i int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = render(i + 1)
	}
	return strings.Join(parts, ", ")
}

func toArgs(ss []string) []any {
	args := make([]any, len(ss))
	for i, s := range ss {
		args[i] = s
	}
	return args
}
