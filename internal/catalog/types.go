package catalog

import (
	"strings"

	"github.com/koustreak/catalogts/internal/errs"
)

// SchemaDescriptor identifies one database schema. Name is nil when the
// catalog row carried NULL; such schemas are skipped by the generator.
type SchemaDescriptor struct {
	Name *string
}

// TableKind is the closed set of TABLE_TYPE values.
type TableKind int

const (
	BaseTable TableKind = iota
	View
	SystemView
)

// ParseTableKind maps information_schema.tables.table_type.
func ParseTableKind(s string) (TableKind, error) {
	switch strings.ToUpper(s) {
	case "BASE TABLE":
		return BaseTable, nil
	case "VIEW":
		return View, nil
	case "SYSTEM VIEW":
		return SystemView, nil
	default:
		return 0, errs.Newf(errs.ErrKindInvalidInput, "unknown table type %q", s)
	}
}

func (k TableKind) String() string {
	switch k {
	case BaseTable:
		return "BASE TABLE"
	case View:
		return "VIEW"
	case SystemView:
		return "SYSTEM VIEW"
	default:
		return "UNKNOWN"
	}
}

// TableDescriptor is one row of information_schema.tables.
type TableDescriptor struct {
	Name    *string
	Comment string
	Kind    TableKind
}

// Nullability is the two-valued IS_NULLABLE flag.
type Nullability int

const (
	NullableNo Nullability = iota
	NullableYes
)

// ParseNullability accepts exactly "YES" or "NO".
func ParseNullability(s string) (Nullability, error) {
	switch s {
	case "YES":
		return NullableYes, nil
	case "NO":
		return NullableNo, nil
	default:
		return 0, errs.Newf(errs.ErrKindInvalidInput, "unexpected is_nullable value %q", s)
	}
}

func (n Nullability) String() string {
	switch n {
	case NullableYes:
		return "YES"
	case NullableNo:
		return "NO"
	default:
		return "UNKNOWN"
	}
}

// Extra is the set of server-maintained behaviours attached to a column.
type Extra uint8

const (
	AutoIncrement    Extra = 1 << iota // auto_increment, serial, identity
	Generated                          // VIRTUAL/STORED GENERATED, GENERATED ALWAYS AS
	OnUpdate                           // on update CURRENT_TIMESTAMP
	DefaultGenerated                   // default is an expression, column stays writable
)

// Has reports whether every flag in f is set.
func (e Extra) Has(f Extra) bool { return e&f == f }

// ParseMySQLExtra reads information_schema.columns.extra, e.g.
// "auto_increment", "VIRTUAL GENERATED",
// "DEFAULT_GENERATED on update CURRENT_TIMESTAMP".
func ParseMySQLExtra(s string) Extra {
	s = strings.ToLower(s)
	var e Extra
	if strings.Contains(s, "auto_increment") {
		e |= AutoIncrement
	}
	if strings.Contains(s, "virtual generated") || strings.Contains(s, "stored generated") {
		e |= Generated
	}
	if strings.Contains(s, "on update") {
		e |= OnUpdate
	}
	if strings.Contains(s, "default_generated") {
		e |= DefaultGenerated
	}
	return e
}

// ColumnDescriptor is one row of information_schema.columns.
type ColumnDescriptor struct {
	Table      *string
	Name       *string
	NativeType string // COLUMN_TYPE, e.g. "varchar(255)", "bigint unsigned"
	Size       *int64 // length or precision, documentation only
	Nullable   Nullability
	Default    *string
	Comment    string
	Position   int
	Extra      Extra
}

