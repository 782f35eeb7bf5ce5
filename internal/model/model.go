// Package model turns one table's catalog rows into TypeScript declarations.
package model

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/koustreak/catalogts/internal/catalog"
	"github.com/koustreak/catalogts/internal/logger"
	"github.com/koustreak/catalogts/internal/tsgen"
	"github.com/koustreak/catalogts/internal/typemap"
)

// RenderColumn builds the interface member for col. The caller guarantees
// col.Name is set.
func RenderColumn(m *typemap.Mapper, col catalog.ColumnDescriptor) tsgen.Field {
	var doc []string
	if c := strings.TrimSpace(col.Comment); c != "" {
		doc = append(doc, c)
	}

	typeLine := "Type: " + col.NativeType
	if col.Size != nil {
		typeLine += ", size " + strconv.FormatInt(*col.Size, 10)
	}
	doc = append(doc, typeLine)

	if col.Default != nil {
		doc = append(doc, "Default: "+*col.Default)
	} else {
		doc = append(doc, "Default: none")
	}

	typ := m.Map(col.NativeType).TypeScript()
	if col.Nullable == catalog.NullableYes {
		typ += " | null"
	}

	var name string
	if col.Name != nil {
		name = *col.Name
	}
	return tsgen.Field{Doc: tsgen.Doc{Lines: doc}, Name: name, Type: typ}
}

// IsWritable reports whether a client may supply the column's value.
// Auto-increment, generated and on-update columns are maintained by the
// server.
func IsWritable(col catalog.ColumnDescriptor) bool {
	return col.Extra&(catalog.AutoIncrement|catalog.Generated|catalog.OnUpdate) == 0
}

// Emitter renders table declarations.
type Emitter struct {
	mapper *typemap.Mapper
	log    *logger.Logger
}

// NewEmitter returns an Emitter classifying types with m. A nil log
// discards output.
func NewEmitter(m *typemap.Mapper, log *logger.Logger) *Emitter {
	if log == nil {
		log = logger.Nop()
	}
	return &Emitter{mapper: m, log: log}
}

// EmitTable returns the declarations for one table: <Name>Dto and
// Writable<Name>Dto, with Name the PascalCase table name. When every column
// is writable the writable type is an alias; otherwise <Name>Dto extends
// Writable<Name>Dto with the read-only columns. Each interface lists its
// fields by ordinal position, so in the split shape the read-only fields
// follow every writable one. Columns without a name are dropped with a
// warning.
func (e *Emitter) EmitTable(schema, table, comment string, cols []catalog.ColumnDescriptor) tsgen.Section {
	return e.EmitTableAs(PascalCase(table), schema, table, comment, cols)
}

// EmitTableAs is EmitTable with the type name stem chosen by the caller.
func (e *Emitter) EmitTableAs(stem, schema, table, comment string, cols []catalog.ColumnDescriptor) tsgen.Section {
	cols = slices.Clone(cols)
	slices.SortStableFunc(cols, func(a, b catalog.ColumnDescriptor) int {
		return cmp.Compare(a.Position, b.Position)
	})

	var writable, readOnly []tsgen.Field
	for _, c := range cols {
		if c.Name == nil {
			e.log.With().
				Str("schema", schema).
				Str("table", table).
				Int("position", c.Position).
				Logger().
				Warn("skipping column without a name")
			continue
		}
		f := RenderColumn(e.mapper, c)
		if IsWritable(c) {
			writable = append(writable, f)
		} else {
			readOnly = append(readOnly, f)
		}
	}

	name, writableName := TypeNames(stem)
	doc := tableDoc(schema, table, comment)

	if len(readOnly) == 0 {
		return tsgen.Section{
			tsgen.Interface{Doc: doc, Name: name, Fields: writable},
			tsgen.Alias{Name: writableName, Type: name},
		}
	}
	return tsgen.Section{
		tsgen.Interface{Name: writableName, Fields: writable},
		tsgen.Interface{Doc: doc, Name: name, Extends: writableName, Fields: readOnly},
	}
}

// TypeNames returns the full and writable type names declared for stem.
func TypeNames(stem string) (full, writable string) {
	return stem + "Dto", "Writable" + stem + "Dto"
}

func tableDoc(schema, table, comment string) tsgen.Doc {
	var lines []string
	if c := strings.TrimSpace(comment); c != "" {
		lines = append(lines, c)
	}
	lines = append(lines, "Table: "+schema+"."+table)
	return tsgen.Doc{Lines: lines}
}

// PascalCase converts a table name to a type name: "order_items" becomes
// "OrderItems". Words split on '_', '-' and spaces; other characters that
// cannot appear in an identifier are dropped. A result that would start
// with a digit, or be empty, gets a "T" prefix.
func PascalCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})

	// Casers carry state and are not safe for concurrent use.
	titler := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		for _, r := range titler.String(w) {
			if r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
	}

	out := b.String()
	if out == "" || unicode.IsDigit([]rune(out)[0]) {
		out = "T" + out
	}
	return out
}
