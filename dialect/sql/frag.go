package sql

import (
	"fmt"
	"strings"

	"github.com/syssam/dbkit/dialect"
)

// Frag is a SQL fragment: statement text and the ordered parameters bound
// to its placeholders. Placeholders are only written by Param and Params,
// which append the parameter at the same time, so the number of
// placeholders in the text always equals the number of parameters.
type Frag struct {
	caps   dialect.Capabilities
	sb     strings.Builder
	params []Value
}

// NewFrag returns an empty fragment for the given dialect capabilities.
func NewFrag(caps dialect.Capabilities) *Frag {
	return &Frag{caps: caps}
}

// Capabilities returns the capabilities captured at construction.
func (f *Frag) Capabilities() dialect.Capabilities {
	return f.caps
}

// Append appends raw SQL text.
func (f *Frag) Append(s ...string) *Frag {
	for _, p := range s {
		f.sb.WriteString(p)
	}
	return f
}

// Appendf appends formatted raw SQL text. It must not be used to write
// placeholders.
func (f *Frag) Appendf(format string, args ...any) *Frag {
	fmt.Fprintf(&f.sb, format, args...)
	return f
}

// Sp appends a space.
func (f *Frag) Sp() *Frag {
	f.sb.WriteByte(' ')
	return f
}

// Ln appends a newline.
func (f *Frag) Ln() *Frag {
	f.sb.WriteByte('\n')
	return f
}

// LnTab appends a newline followed by a tab.
func (f *Frag) LnTab() *Frag {
	f.sb.WriteString("\n\t")
	return f
}

// CommaSp appends ", ".
func (f *Frag) CommaSp() *Frag {
	f.sb.WriteString(", ")
	return f
}

// Ident appends a quoted identifier.
func (f *Frag) Ident(name string) *Frag {
	f.sb.WriteString(f.caps.Quote(name))
	return f
}

// Idents appends a comma separated list of quoted identifiers.
func (f *Frag) Idents(names ...string) *Frag {
	for i, n := range names {
		if i > 0 {
			f.CommaSp()
		}
		f.Ident(n)
	}
	return f
}

// Table appends a schema-qualified, quoted table name. An empty schema
// writes the bare name.
func (f *Frag) Table(schema, name string) *Frag {
	if schema != "" {
		f.sb.WriteString(f.caps.Quote(schema))
		f.sb.WriteByte('.')
	}
	f.sb.WriteString(f.caps.Quote(name))
	return f
}

// Literal appends an escaped string literal.
func (f *Frag) Literal(s string) *Frag {
	f.sb.WriteByte('\'')
	f.sb.WriteString(escapeStringValue(f.caps.Name, s))
	f.sb.WriteByte('\'')
	return f
}

// Param appends a placeholder and binds v to it.
func (f *Frag) Param(v Value) *Frag {
	f.params = append(f.params, v)
	f.sb.WriteString(f.caps.Bind(len(f.params)))
	return f
}

// Params appends comma separated placeholders for vs.
func (f *Frag) Params(vs ...Value) *Frag {
	for i, v := range vs {
		if i > 0 {
			f.CommaSp()
		}
		f.Param(v)
	}
	return f
}

// Join appends another fragment built with the same capabilities,
// renumbering its placeholders.
func (f *Frag) Join(o *Frag) *Frag {
	if f.caps.Placeholder == dialect.Question || len(o.params) == 0 {
		f.sb.WriteString(o.sb.String())
		f.params = append(f.params, o.params...)
		return f
	}
	text, offset := o.sb.String(), len(f.params)
	var (
		quote byte
		n     int
	)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			f.sb.WriteByte(ch)
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			f.sb.WriteByte(ch)
		case (ch == '$' || ch == '?') && i+1 < len(text) && isDigit(text[i+1]):
			j := i + 1
			for j < len(text) && isDigit(text[j]) {
				j++
			}
			n++
			f.sb.WriteString(f.caps.Bind(offset + n))
			i = j - 1
		default:
			f.sb.WriteByte(ch)
		}
	}
	f.params = append(f.params, o.params...)
	return f
}

// Query returns the statement text and its parameters.
func (f *Frag) Query() (string, []Value) {
	return f.sb.String(), f.Args()
}

// String returns the statement text.
func (f *Frag) String() string {
	return f.sb.String()
}

// Args returns a copy of the bound parameters.
func (f *Frag) Args() []Value {
	return append([]Value(nil), f.params...)
}

// Len returns the length of the statement text.
func (f *Frag) Len() int {
	return f.sb.Len()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// escapeStringValue escapes a string value for safe use in a SQL literal.
// Single quotes are doubled; MySQL also needs backslashes escaped.
func escapeStringValue(dialectName, s string) string {
	// Fast path: if no escaping needed, return as-is
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	if dialectName == dialect.MySQL {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return strings.ReplaceAll(s, "'", "''")
}
