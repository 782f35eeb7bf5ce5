package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/koustreak/catalogts/internal/database"
	"github.com/koustreak/catalogts/internal/logger"
)

// MySQLReader implements Reader over MySQL's information_schema.
type MySQLReader struct {
	querier
}

// NewMySQLReader creates a reader. timeout bounds each query; zero disables it.
func NewMySQLReader(db database.DB, log *logger.Logger, timeout time.Duration) *MySQLReader {
	return &MySQLReader{newQuerier(db, log, timeout)}
}

// ListSchemas returns every schema except the MySQL system schemas.
func (m *MySQLReader) ListSchemas(ctx context.Context) ([]SchemaDescriptor, error) {
	q := fmt.Sprintf(`
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN (%s)
		ORDER BY schema_name`,
		placeholders(len(MySQLSystemSchemas), func(int) string { return "?" }))

	var schemas []SchemaDescriptor
	err := m.collect(ctx, "list_schemas", "", q, toArgs(MySQLSystemSchemas), func(rows database.Rows) error {
		var s SchemaDescriptor
		if err := rows.Scan(&s.Name); err != nil {
			return fmt.Errorf("scan schema name: %w", err)
		}
		schemas = append(schemas, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	return schemas, nil
}

// ListTables returns the base tables of schema with their comments.
func (m *MySQLReader) ListTables(ctx context.Context, schema string) ([]TableDescriptor, error) {
	const q = `
		SELECT table_name,
		       COALESCE(table_comment, ''),
		       table_type
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	var tables []TableDescriptor
	err := m.collect(ctx, "list_tables", schema, q, []any{schema}, func(rows database.Rows) error {
		var (
			t        TableDescriptor
			kindText string
		)
		if err := rows.Scan(&t.Name, &t.Comment, &kindText); err != nil {
			return fmt.Errorf("scan table: %w", err)
		}
		kind, err := ParseTableKind(kindText)
		if err != nil {
			return err
		}
		t.Kind = kind
		tables = append(tables, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tables of %s: %w", schema, err)
	}
	return tables, nil
}

// ListColumns returns the columns of all tables in schema, ordered by
// table name and ordinal position.
func (m *MySQLReader) ListColumns(ctx context.Context, schema string) ([]ColumnDescriptor, error) {
	const q = `
		SELECT table_name,
		       column_name,
		       column_type,
		       COALESCE(character_maximum_length, numeric_precision, datetime_precision),
		       is_nullable,
		       column_default,
		       COALESCE(column_comment, ''),
		       ordinal_position,
		       COALESCE(extra, '')
		FROM information_schema.columns
		WHERE table_schema = ?
		ORDER BY table_name, ordinal_position`

	var cols []ColumnDescriptor
	err := m.collect(ctx, "list_columns", schema, q, []any{schema}, func(rows database.Rows) error {
		var (
			c            ColumnDescriptor
			nullableText string
			extraText    string
		)
		if err := rows.Scan(&c.Table, &c.Name, &c.NativeType, &c.Size, &nullableText,
			&c.Default, &c.Comment, &c.Position, &extraText); err != nil {
			return fmt.Errorf("scan column: %w", err)
		}
		nullable, err := ParseNullability(nullableText)
		if err != nil {
			return err
		}
		c.Nullable = nullable
		c.Extra = ParseMySQLExtra(extraText)
		cols = append(cols, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", schema, err)
	}
	return cols, nil
}
