package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/koustreak/catalogts/internal/database"
	"github.com/koustreak/catalogts/internal/logger"
)

// PostgresReader implements Reader over information_schema joined with
// pg_catalog for comments and the formatted column type.
type PostgresReader struct {
	querier
}

// NewPostgresReader creates a reader. timeout bounds each query; zero disables it.
func NewPostgresReader(db database.DB, log *logger.Logger, timeout time.Duration) *PostgresReader {
	return &PostgresReader{newQuerier(db, log, timeout)}
}

func (p *PostgresReader) ListSchemas(ctx context.Context) ([]SchemaDescriptor, error) {
	q := fmt.Sprintf(`
		SELECT nspname::text
		FROM pg_catalog.pg_namespace
		WHERE nspname NOT IN (%s)
		  AND nspname NOT LIKE 'pg\_temp\_%%'
		  AND nspname NOT LIKE 'pg\_toast\_temp\_%%'
		ORDER BY nspname`,
		placeholders(len(PostgresSystemSchemas), func(i int) string { return fmt.Sprintf("$%d", i) }))

	var schemas []SchemaDescriptor
	err := p.collect(ctx, "list_schemas", "", q, toArgs(PostgresSystemSchemas), func(rows database.Rows) error {
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

func (p *PostgresReader) ListTables(ctx context.Context, schema string) ([]TableDescriptor, error) {
	const q = `
		SELECT t.table_name::text,
		       COALESCE(obj_description(c.oid, 'pg_class'), ''),
		       t.table_type::text
		FROM information_schema.tables t
		JOIN pg_catalog.pg_namespace n ON n.nspname = t.table_schema
		JOIN pg_catalog.pg_class c     ON c.relnamespace = n.oid AND c.relname = t.table_name
		WHERE t.table_schema = $1
		  AND t.table_type   = 'BASE TABLE'
		ORDER BY t.table_name`

	var tables []TableDescriptor
	err := p.collect(ctx, "list_tables", schema, q, []any{schema}, func(rows database.Rows) error {
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

func (p *PostgresReader) ListColumns(ctx context.Context, schema string) ([]ColumnDescriptor, error) {
	const q = `
		SELECT c.table_name::text,
		       c.column_name::text,
		       pg_catalog.format_type(a.atttypid, a.atttypmod),
		       COALESCE(c.character_maximum_length, c.numeric_precision, c.datetime_precision)::bigint,
		       c.is_nullable::text,
		       c.column_default::text,
		       COALESCE(col_description(a.attrelid, a.attnum), ''),
		       c.ordinal_position::int,
		       c.is_identity::text,
		       c.is_generated::text
		FROM information_schema.columns c
		JOIN pg_catalog.pg_namespace n ON n.nspname = c.table_schema
		JOIN pg_catalog.pg_class cl    ON cl.relnamespace = n.oid AND cl.relname = c.table_name
		JOIN pg_catalog.pg_attribute a ON a.attrelid = cl.oid AND a.attname = c.column_name
		WHERE c.table_schema = $1
		ORDER BY c.table_name, c.ordinal_position`

	var cols []ColumnDescriptor
	err := p.collect(ctx, "list_columns", schema, q, []any{schema}, func(rows database.Rows) error {
		var (
			c                       ColumnDescriptor
			nullableText            string
			identity, generatedText *string
		)
		if err := rows.Scan(&c.Table, &c.Name, &c.NativeType, &c.Size, &nullableText,
			&c.Default, &c.Comment, &c.Position, &identity, &generatedText); err != nil {
			return fmt.Errorf("scan column: %w", err)
		}
		nullable, err := ParseNullability(nullableText)
		if err != nil {
			return err
		}
		c.Nullable = nullable
		c.Extra = ParsePostgresExtra(deref(identity), deref(generatedText), c.Default)
		cols = append(cols, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", schema, err)
	}
	return cols, nil
}

// ParsePostgresExtra derives Extra from is_identity, is_generated and the
// column default. A nextval() default marks a serial column.
func ParsePostgresExtra(isIdentity, isGenerated string, def *string) Extra {
	var e Extra
	if isIdentity == "YES" {
		e |= AutoIncrement
	}
	if def != nil && strings.HasPrefix(*def, "nextval(") {
		e |= AutoIncrement
	}
	if isGenerated == "ALWAYS" {
		e |= Generated
	}
	if def != nil && !e.Has(AutoIncrement) && strings.Contains(*def, "(") {
		e |= DefaultGenerated
	}
	return e
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
