// Package typemap classifies a column's native type description into one
// of three TypeScript categories.
//
// Rules are tested in order and the first match wins. Matching is
// case-insensitive and unanchored, so "int" also matches "bigint" and
// "point". Specific patterns therefore sit ahead of the generic ones they
// contain. Enum and set member lists are part of the description, so
// enum('print') is numeric. Descriptions that match nothing fall back to
// Opaque.
package typemap

import (
	"regexp"
)

// Category is the closed set of target types.
type Category int

const (
	Opaque Category = iota
	Numeric
	Textual
)

// TypeScript returns the type expression emitted for the category.
func (c Category) TypeScript() string {
	switch c {
	case Numeric:
		return "number"
	case Textual:
		return "string"
	default:
		return "JSONValue"
	}
}

func (c Category) String() string {
	switch c {
	case Numeric:
		return "numeric"
	case Textual:
		return "textual"
	default:
		return "opaque"
	}
}

// Rule pairs a pattern with the category it selects.
type Rule struct {
	Category Category
	Pattern  *regexp.Regexp
}

// NewRule compiles pattern case-insensitively. It panics on a bad pattern,
// like regexp.MustCompile, since rule tables are fixed at init time.
func NewRule(c Category, pattern string) Rule {
	return Rule{Category: c, Pattern: regexp.MustCompile("(?i)" + pattern)}
}

// CanonicalRules is the MySQL rule table. Order is significant.
//
// There are deliberately no rules for bare "mediumint", bare "decimal" or
// bare "binary". "mediumint" reaches the generic "int" rule; the other two
// reach the Opaque fallback.
var CanonicalRules = []Rule{
	NewRule(Numeric, `bigint`),
	NewRule(Numeric, `smallint`),
	NewRule(Numeric, `tinyint`),
	NewRule(Numeric, `mediumint\s+unsigned`),
	NewRule(Numeric, `decimal\(\d+,\s*\d+\)`),
	NewRule(Numeric, `float\(\d+,\s*\d+\)`),
	NewRule(Numeric, `double\(\d+,\s*\d+\)`),

	// spatial types before "int": "point" contains it
	NewRule(Opaque, `point`),
	NewRule(Opaque, `geometry`),
	NewRule(Opaque, `linestring`),
	NewRule(Opaque, `polygon`),

	NewRule(Numeric, `int`),
	NewRule(Numeric, `float`),
	NewRule(Numeric, `double`),
	NewRule(Numeric, `year`),
	NewRule(Numeric, `bit`),

	NewRule(Textual, `char`),
	NewRule(Textual, `text`),
	NewRule(Textual, `enum`),
	NewRule(Textual, `set\(`),
	NewRule(Textual, `date`),
	NewRule(Textual, `time`),

	NewRule(Opaque, `binary\(\d+\)`),
	NewRule(Opaque, `blob`),
	NewRule(Opaque, `json`),
}

// PostgresRules prepends names only PostgreSQL's format_type produces.
// "interval" must precede the canonical "int".
var PostgresRules = append([]Rule{
	NewRule(Numeric, `^numeric`),
	NewRule(Numeric, `^real$`),
	NewRule(Numeric, `double precision`),
	NewRule(Textual, `^uuid$`),
	NewRule(Textual, `^interval`),
	NewRule(Textual, `^inet$|^cidr$`),
	NewRule(Opaque, `^bytea$`),
	NewRule(Opaque, `^jsonb$`),
}, CanonicalRules...)

// Mapper applies an ordered rule table.
type Mapper struct {
	rules []Rule
}

// New returns a Mapper over rules. The slice is copied.
func New(rules []Rule) *Mapper {
	return &Mapper{rules: append([]Rule(nil), rules...)}
}

// Canonical returns a Mapper over CanonicalRules.
func Canonical() *Mapper {
	return New(CanonicalRules)
}

// Map returns the category of the first rule matching native, or Opaque.
func (m *Mapper) Map(native string) Category {
	c, _ := m.Match(native)
	return c
}

// Match is Map that also reports the index of the winning rule, -1 for the
// fallback.
func (m *Mapper) Match(native string) (Category, int) {
	for i, r := range m.rules {
		if r.Pattern.MatchString(native) {
			return r.Category, i
		}
	}
	return Opaque, -1
}
