package typemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical_Map(t *testing.T) {
	tests := []struct {
		native string
		want   Category
	}{
		{"bigint unsigned", Numeric},
		{"bigint(20)", Numeric},
		{"smallint(6)", Numeric},
		{"tinyint(1)", Numeric},
		{"mediumint unsigned", Numeric},
		{"mediumint(8)", Numeric}, // no rule of its own, reaches "int"
		{"int(11)", Numeric},
		{"INT UNSIGNED", Numeric},
		{"decimal(10,2)", Numeric},
		{"decimal(10, 2) unsigned", Numeric},
		{"float", Numeric},
		{"float(7,4)", Numeric},
		{"double", Numeric},
		{"double(16,4)", Numeric},
		{"year", Numeric},
		{"bit(1)", Numeric},

		{"varchar(255)", Textual},
		{"char(36)", Textual},
		{"tinytext", Textual},
		{"mediumtext", Textual},
		{"longtext", Textual},
		{"enum('draft','live')", Textual},
		{"set('a','b')", Textual},
		{"date", Textual},
		{"datetime(3)", Textual},
		{"timestamp", Textual},
		{"time", Textual},

		{"varbinary(16)", Opaque},
		{"binary(16)", Opaque},
		{"blob", Opaque},
		{"longblob", Opaque},
		{"json", Opaque},
		{"point", Opaque},
		{"multipoint", Opaque},
		{"geometry", Opaque},
		{"polygon", Opaque},

		// no matching rule: deterministic fallback
		{"decimal", Opaque},
		{"binary", Opaque},
		{"", Opaque},
		{"vector(3)", Opaque},
	}

	m := Canonical()
	for _, tt := range tests {
		t.Run(tt.native, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.native))
		})
	}
}

func TestMatch_FirstRuleWins(t *testing.T) {
	m := Canonical()

	cat, idx := m.Match("bigint unsigned")
	assert.Equal(t, Numeric, cat)
	assert.Equal(t, 0, idx, "bigint must win before the generic int rule")

	_, idx = m.Match("no such type")
	assert.Equal(t, -1, idx)
}

func TestMap_FirstMatchEqualsLinearScan(t *testing.T) {
	m := Canonical()
	for _, native := range []string{"bigint", "point", "varchar(12)", "longblob", "mediumint", "json"} {
		want := Opaque
		for _, r := range CanonicalRules {
			if r.Pattern.MatchString(native) {
				want = r.Category
				break
			}
		}
		assert.Equal(t, want, m.Map(native), native)
	}
}

func TestMap_OrderSensitive(t *testing.T) {
	// "point" matches both the spatial rule and the generic "int" rule.
	spatialFirst := New([]Rule{NewRule(Opaque, `point`), NewRule(Numeric, `int`)})
	intFirst := New([]Rule{NewRule(Numeric, `int`), NewRule(Opaque, `point`)})

	assert.Equal(t, Opaque, spatialFirst.Map("point"))
	assert.Equal(t, Numeric, intFirst.Map("point"))
}

func TestMap_UnanchoredCaseInsensitive(t *testing.T) {
	m := New([]Rule{NewRule(Textual, `char`)})

	assert.Equal(t, Textual, m.Map("VARCHAR(10)"))
	assert.Equal(t, Textual, m.Map("national character varying"))
}

func TestMap_SubstringInsideEnumValues(t *testing.T) {
	// Unanchored matching sees the member list too.
	assert.Equal(t, Numeric, Canonical().Map("enum('print','scan')"))
}

func TestNew_CopiesRules(t *testing.T) {
	rules := []Rule{NewRule(Numeric, `int`)}
	m := New(rules)
	rules[0] = NewRule(Textual, `int`)

	assert.Equal(t, Numeric, m.Map("int"))
}

func TestPostgresRules(t *testing.T) {
	m := New(PostgresRules)

	tests := map[string]Category{
		"integer":                  Numeric,
		"numeric(12,2)":            Numeric,
		"real":                     Numeric,
		"double precision":         Numeric,
		"character varying(255)":   Textual,
		"timestamp with time zone": Textual,
		"uuid":                     Textual,
		"interval":                 Textual,
		"inet":                     Textual,
		"jsonb":                    Opaque,
		"bytea":                    Opaque,
		"boolean":                  Opaque,
	}
	for native, want := range tests {
		assert.Equal(t, want, m.Map(native), native)
	}
}

func TestCategory_TypeScript(t *testing.T) {
	assert.Equal(t, "number", Numeric.TypeScript())
	assert.Equal(t, "string", Textual.TypeScript())
	assert.Equal(t, "JSONValue", Opaque.TypeScript())
	assert.Equal(t, "opaque", Opaque.String())
}
