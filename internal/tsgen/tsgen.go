// Package tsgen is a small structured emitter for TypeScript declaration
// modules. Callers build a File out of typed declarations; Print owns all
// whitespace, so identical input always yields byte-identical text.
//
// Layout rules:
//   - sections are separated by exactly one blank line
//   - declarations inside a section follow each other directly
//   - members are indented two spaces, one per line
//   - the output ends with a single newline
package tsgen

import (
	"regexp"
	"strings"
)

const indentUnit = "  "

// Decl is one top-level declaration.
type Decl interface {
	print(p *printer)
}

// Section is a run of declarations printed without blank lines between them.
type Section []Decl

// File is one generated module.
type File struct {
	Sections []Section
}

// Doc is a /** ... */ block. Empty lines are kept; a Doc with no lines
// prints nothing.
type Doc struct {
	Lines []string
}

// Import is `import { A, B } from 'from';`.
type Import struct {
	Names []string
	From  string
}

// Field is one interface member.
type Field struct {
	Doc  Doc
	Name string
	Type string
}

// Interface is `export interface Name extends Extends { fields }`.
type Interface struct {
	Doc     Doc
	Name    string
	Extends string
	Fields  []Field
}

// Alias is `export type Name = Type;`.
type Alias struct {
	Doc  Doc
	Name string
	Type string
}

// Union is an alias whose members are printed one per line with a leading "|".
type Union struct {
	Doc     Doc
	Name    string
	Members []string
}

// Print renders f.
func Print(f File) string {
	p := &printer{}
	first := true
	for _, s := range f.Sections {
		if len(s) == 0 {
			continue
		}
		if !first {
			p.newline()
		}
		first = false
		for _, d := range s {
			d.print(p)
		}
	}
	return p.String()
}

type printer struct {
	strings.Builder
	depth int
}

func (p *printer) line(parts ...string) {
	for i := 0; i < p.depth; i++ {
		p.WriteString(indentUnit)
	}
	for _, s := range parts {
		p.WriteString(s)
	}
	p.WriteByte('\n')
}

func (p *printer) newline() { p.WriteByte('\n') }

func (d Doc) print(p *printer) {
	if len(d.Lines) == 0 {
		return
	}
	p.line("/**")
	for _, l := range d.Lines {
		for _, sub := range strings.Split(l, "\n") {
			sub = strings.TrimRight(escapeComment(sub), " \t\r")
			if sub == "" {
				p.line(" *")
				continue
			}
			p.line(" * ", sub)
		}
	}
	p.line(" */")
}

func (i Import) print(p *printer) {
	p.line("import { ", strings.Join(i.Names, ", "), " } from '", i.From, "';")
}

func (f Field) print(p *printer) {
	f.Doc.print(p)
	p.line(PropertyName(f.Name), ": ", f.Type, ";")
}

func (i Interface) print(p *printer) {
	i.Doc.print(p)
	head := "export interface " + i.Name
	if i.Extends != "" {
		head += " extends " + i.Extends
	}
	if len(i.Fields) == 0 {
		p.line(head, " {}")
		return
	}
	p.line(head, " {")
	p.depth++
	for _, f := range i.Fields {
		f.print(p)
	}
	p.depth--
	p.line("}")
}

func (a Alias) print(p *printer) {
	a.Doc.print(p)
	p.line("export type ", a.Name, " = ", a.Type, ";")
}

func (u Union) print(p *printer) {
	u.Doc.print(p)
	p.line("export type ", u.Name, " =")
	p.depth++
	for i, m := range u.Members {
		if i == len(u.Members)-1 {
			p.line("| ", m, ";")
		} else {
			p.line("| ", m)
		}
	}
	p.depth--
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// PropertyName returns name as a TypeScript property key, quoting it when
// it is not a plain identifier.
func PropertyName(name string) string {
	if identifier.MatchString(name) {
		return name
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(name) + "'"
}

func escapeComment(s string) string {
	return strings.ReplaceAll(s, "*/", `*\/`)
}
