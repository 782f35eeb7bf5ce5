// Package generator drives a full run: it walks the catalog schema by
// schema and renders one TypeScript module per schema, plus the shared
// module every schema module imports.
package generator

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/koustreak/catalogts/internal/catalog"
	"github.com/koustreak/catalogts/internal/errs"
	"github.com/koustreak/catalogts/internal/logger"
	"github.com/koustreak/catalogts/internal/model"
	"github.com/koustreak/catalogts/internal/tsgen"
	"github.com/koustreak/catalogts/internal/typemap"
)

// SharedTypesName names the module holding JSONValue.
const SharedTypesName = "_types"

// Output is one generated module.
type Output struct {
	Name string
	Body string
}

// EmitSharedTypes renders the module declaring JSONValue.
func EmitSharedTypes() Output {
	return Output{
		Name: SharedTypesName,
		Body: tsgen.Print(tsgen.File{Sections: []tsgen.Section{{
			tsgen.Union{
				Name: "JSONValue",
				Members: []string{
					"string",
					"number",
					"boolean",
					"{ [key: string]: JSONValue }",
					"JSONValue[]",
				},
			},
		}}}),
	}
}

// Options tune a Generator.
type Options struct {
	// Schemas restricts the run to these schema names. Empty means every
	// non-system schema. Naming a system schema has no effect.
	Schemas []string
}

// Generator produces the full set of outputs from a catalog.
type Generator struct {
	reader  catalog.Reader
	emitter *model.Emitter
	log     *logger.Logger
	opts    Options
}

// New returns a Generator reading from r and classifying types with m.
func New(r catalog.Reader, m *typemap.Mapper, log *logger.Logger, opts Options) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{
		reader:  r,
		emitter: model.NewEmitter(m, log),
		log:     log,
		opts:    opts,
	}
}

// Run lists schemas and renders each one in listing order. The shared
// module always comes first. Any catalog error aborts the run and no
// outputs are returned.
func (g *Generator) Run(ctx context.Context) ([]Output, error) {
	schemas, err := g.reader.ListSchemas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}

	wanted := make(map[string]bool, len(g.opts.Schemas))
	for _, s := range g.opts.Schemas {
		wanted[s] = false
	}

	outputs := []Output{EmitSharedTypes()}
	for _, s := range schemas {
		if s.Name == nil {
			g.log.Warn("skipping schema without a name")
			continue
		}
		name := *s.Name
		if catalog.IsSystemSchema(name) {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[name]; !ok {
				continue
			}
			wanted[name] = true
		}
		if name == SharedTypesName {
			return nil, errs.Newf(errs.ErrKindInvalidInput,
				"schema %q clashes with the shared types module; exclude it with an explicit schema list", name)
		}

		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(errs.ErrKindTimeout, "generation interrupted", err)
		}

		out, err := g.generateSchema(ctx, name)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}

	for _, s := range g.opts.Schemas {
		if !wanted[s] && !catalog.IsSystemSchema(s) {
			return nil, errs.Newf(errs.ErrKindNotFound, "schema %q not found", s)
		}
	}

	return outputs, nil
}

func (g *Generator) generateSchema(ctx context.Context, schema string) (Output, error) {
	tables, err := g.reader.ListTables(ctx, schema)
	if err != nil {
		return Output{}, fmt.Errorf("schema %s: %w", schema, err)
	}
	columns, err := g.reader.ListColumns(ctx, schema)
	if err != nil {
		return Output{}, fmt.Errorf("schema %s: %w", schema, err)
	}

	out := g.EmitSchema(schema, tables, columns)
	g.log.InfoWith("schema generated", map[string]interface{}{
		"schema":  schema,
		"tables":  len(tables),
		"columns": len(columns),
	})
	return out, nil
}

// EmitSchema renders one schema module. Tables are sorted by name and each
// gets the columns whose Table matches it. Tables without a name, and
// anything other than base tables, are skipped. Type names stay unique
// within the module, see typeStems.
func (g *Generator) EmitSchema(schema string, tables []catalog.TableDescriptor, columns []catalog.ColumnDescriptor) Output {
	byTable := make(map[string][]catalog.ColumnDescriptor)
	for _, c := range columns {
		if c.Table == nil {
			continue
		}
		byTable[*c.Table] = append(byTable[*c.Table], c)
	}

	named := make([]catalog.TableDescriptor, 0, len(tables))
	for _, t := range tables {
		if t.Name == nil {
			g.log.With().Str("schema", schema).Logger().Warn("skipping table without a name")
			continue
		}
		if t.Kind != catalog.BaseTable {
			continue
		}
		named = append(named, t)
	}
	slices.SortStableFunc(named, func(a, b catalog.TableDescriptor) int {
		return cmp.Compare(*a.Name, *b.Name)
	})

	sections := []tsgen.Section{{
		tsgen.Import{Names: []string{"JSONValue"}, From: "./" + SharedTypesName},
	}}
	for i, stem := range g.typeStems(schema, named) {
		t := named[i]
		sections = append(sections, g.emitter.EmitTableAs(stem, schema, *t.Name, t.Comment, byTable[*t.Name]))
	}

	return Output{Name: schema, Body: tsgen.Print(tsgen.File{Sections: sections})}
}

// typeStems picks the type name stem of each table, in order. Distinct
// table names can share a PascalCase form ("order_item", "order-item") or
// declare a name another table already uses ("writable_users" against the
// writable type of "users"). A stem whose declarations are taken gets the
// smallest numeric suffix, from 2, that frees both.
func (g *Generator) typeStems(schema string, tables []catalog.TableDescriptor) []string {
	declared := make(map[string]bool, 2*len(tables))
	stems := make([]string, len(tables))
	for i, t := range tables {
		base := model.PascalCase(*t.Name)
		stem := base
		for n := 2; ; n++ {
			full, writable := model.TypeNames(stem)
			if !declared[full] && !declared[writable] {
				declared[full], declared[writable] = true, true
				break
			}
			stem = base + strconv.Itoa(n)
		}
		if stem != base {
			g.log.With().
				Str("schema", schema).
				Str("table", *t.Name).
				Str("type", stem+"Dto").
				Logger().
				Warn("type name already declared, using a numbered name")
		}
		stems[i] = stem
	}
	return stems
}
