package schema

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/syssam/dbkit"
)

// Comments holds the comments read from a CREATE TABLE statement.
type Comments struct {
	// Name is the table name as written in the statement, unquoted.
	Name    string
	table   string
	columns map[string]string
}

// Table returns the table comment.
func (c *Comments) Table() string { return c.table }

// Column returns the comment of a column and whether it has one.
func (c *Comments) Column(name string) (string, bool) {
	s, ok := c.columns[name]
	return s, ok
}

// Columns returns a copy of the column comments keyed by column name.
func (c *Comments) Columns() map[string]string {
	m := make(map[string]string, len(c.columns))
	for k, v := range c.columns {
		m[k] = v
	}
	return m
}

var createTableRe = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:TEMP(?:ORARY)?\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([^\s(]+)\s*\((.*)\)`)

// segment is one piece of a CREATE TABLE body: a clause or a comment.
type segment struct {
	text    string
	comment bool
}

// ExtractComments reads the "--" comments of a CREATE TABLE statement as
// written by BuildCreateTable for SQLite. A comment on the line of the
// opening parenthesis is the table comment; a comment after a column
// clause belongs to that column. Table constraint clauses do not start a
// column, so a comment following one belongs to the last column.
func ExtractComments(src string) (*Comments, error) {
	m := createTableRe.FindStringSubmatch(src)
	if m == nil {
		return nil, &dbkit.IntrospectionParseError{Reason: "no CREATE TABLE statement"}
	}
	name := unquote(m[1])
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = unquote(name[i+1:])
	}
	segs, err := splitBody(m[2])
	if err != nil {
		return nil, &dbkit.IntrospectionParseError{Table: name, Reason: err.Error()}
	}
	var (
		c = &Comments{Name: name, columns: make(map[string]string)}
		// slots[0] is the table; slots[i] the i-th column.
		slots   = [][]string{nil}
		names   = []string{""}
		current = 0
	)
	for _, s := range segs {
		switch {
		case s.comment:
			slots[current] = append(slots[current], s.text)
		case isConstraint(s.text):
			// Constraints keep the current slot.
		default:
			slots = append(slots, nil)
			names = append(names, columnName(s.text))
			current = len(slots) - 1
		}
	}
	for i, lines := range slots {
		if len(lines) == 0 {
			continue
		}
		text := strings.Join(lines, " ")
		if i == 0 {
			c.table = text
			continue
		}
		c.columns[names[i]] = text
	}
	return c, nil
}

// splitBody walks the table body and splits it into clauses on commas at
// depth 0 and comments running from "--" to the end of the line.
func splitBody(body string) ([]segment, error) {
	var (
		segs  []segment
		buf   strings.Builder
		depth int
		quote byte
	)
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			segs = append(segs, segment{text: s})
		}
		buf.Reset()
	}
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if quote != 0 {
			buf.WriteByte(ch)
			if ch == quote {
				// A doubled quote is an escaped quote.
				if i+1 < len(body) && body[i+1] == quote && quote != ']' {
					buf.WriteByte(body[i+1])
					i++
					continue
				}
				quote = 0
			}
			continue
		}
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			buf.WriteByte(ch)
		case ch == '[':
			quote = ']'
			buf.WriteByte(ch)
		case ch == '(':
			depth++
			buf.WriteByte(ch)
		case ch == ')':
			depth--
			buf.WriteByte(ch)
		case ch == ',' && depth == 0:
			flush()
		case ch == '-' && i+1 < len(body) && body[i+1] == '-':
			flush()
			end := strings.IndexAny(body[i:], "\r\n")
			if end < 0 {
				end = len(body) - i
			}
			if s := strings.TrimSpace(body[i+2 : i+end]); s != "" {
				segs = append(segs, segment{text: s, comment: true})
			}
			i += end - 1
		default:
			buf.WriteByte(ch)
		}
	}
	if quote != 0 {
		return nil, errUnterminated(quote)
	}
	flush()
	return segs, nil
}

type errUnterminated byte

func (e errUnterminated) Error() string {
	return "unterminated quoted text starting with " + string(rune(e))
}

// isConstraint reports whether a clause is a table constraint. The first
// keyword alone is not enough: columns such as checksum or "key text"
// start with one.
func isConstraint(s string) bool {
	kw, rest := token(s)
	switch strings.ToUpper(kw) {
	case "FOREIGN", "PRIMARY":
		next, _ := token(rest)
		return strings.EqualFold(next, "KEY")
	case "CHECK":
		return strings.HasPrefix(rest, "(")
	case "UNIQUE":
		if strings.HasPrefix(rest, "(") {
			return true
		}
		next, _ := token(rest)
		return strings.EqualFold(next, "KEY") || strings.EqualFold(next, "INDEX")
	case "KEY", "INDEX":
		if strings.HasPrefix(rest, "(") {
			return true
		}
		_, rest = token(rest)
		return strings.HasPrefix(rest, "(")
	case "CONSTRAINT":
		_, rest = token(rest)
		next, _ := token(rest)
		switch strings.ToUpper(next) {
		case "PRIMARY", "FOREIGN", "UNIQUE", "CHECK":
			return true
		}
	}
	return false
}

// token splits the leading word or quoted name off s. Both results have
// leading white space removed; a quoted token keeps its quotes.
func token(s string) (string, string) {
	s = strings.TrimLeft(s, " \t\r\n")
	if s == "" {
		return "", ""
	}
	end := len(s)
	if q := closingQuote(s[0]); q != 0 {
		if i := strings.IndexByte(s[1:], q); i >= 0 {
			end = i + 2
		}
	} else {
		end = strings.IndexFunc(s, func(r rune) bool {
			return r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if end < 0 {
			end = len(s)
		}
	}
	return s[:end], strings.TrimLeft(s[end:], " \t\r\n")
}

// columnName returns the first token of a column clause, unquoted.
func columnName(s string) string {
	if s == "" {
		return ""
	}
	if q := closingQuote(s[0]); q != 0 {
		if end := strings.IndexByte(s[1:], q); end >= 0 {
			return s[1 : end+1]
		}
	}
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		s = s[:i]
	}
	return unquote(s)
}

func unquote(s string) string {
	if len(s) >= 2 {
		if q := closingQuote(s[0]); q != 0 && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func closingQuote(ch byte) byte {
	switch ch {
	case '"', '`', '\'':
		return ch
	case '[':
		return ']'
	}
	return 0
}
