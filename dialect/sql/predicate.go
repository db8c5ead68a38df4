package sql

import "strings"

// Predicate is a boolean SQL expression written into a Frag.
type Predicate struct {
	fn func(*Frag)
}

// P returns a custom predicate. fn must bind values with Param.
func P(fn func(*Frag)) *Predicate {
	return &Predicate{fn: fn}
}

// Build writes the predicate into f.
func (p *Predicate) Build(f *Frag) {
	if p == nil || p.fn == nil {
		f.Append("TRUE")
		return
	}
	p.fn(f)
}

// EQ returns a "column = value" predicate. A null value yields IS NULL.
func EQ(column string, v Value) *Predicate {
	if v.IsNull() {
		return IsNull(column)
	}
	return binary(column, "=", v)
}

// NEQ returns a "column <> value" predicate. A null value yields IS NOT NULL.
func NEQ(column string, v Value) *Predicate {
	if v.IsNull() {
		return NotNull(column)
	}
	return binary(column, "<>", v)
}

// GT returns a "column > value" predicate.
func GT(column string, v Value) *Predicate { return binary(column, ">", v) }

// GTE returns a "column >= value" predicate.
func GTE(column string, v Value) *Predicate { return binary(column, ">=", v) }

// LT returns a "column < value" predicate.
func LT(column string, v Value) *Predicate { return binary(column, "<", v) }

// LTE returns a "column <= value" predicate.
func LTE(column string, v Value) *Predicate { return binary(column, "<=", v) }

func binary(column, op string, v Value) *Predicate {
	return P(func(f *Frag) {
		f.Ident(column).Sp().Append(op).Sp().Param(v)
	})
}

// In returns a "column IN (values)" predicate. An empty list never matches.
func In(column string, vs ...Value) *Predicate {
	vs = append([]Value(nil), vs...)
	return P(func(f *Frag) {
		if len(vs) == 0 {
			f.Append("1 = 0")
			return
		}
		f.Ident(column).Append(" IN (").Params(vs...).Append(")")
	})
}

// NotIn returns a "column NOT IN (values)" predicate. An empty list always matches.
func NotIn(column string, vs ...Value) *Predicate {
	vs = append([]Value(nil), vs...)
	return P(func(f *Frag) {
		if len(vs) == 0 {
			f.Append("1 = 1")
			return
		}
		f.Ident(column).Append(" NOT IN (").Params(vs...).Append(")")
	})
}

// IsNull returns a "column IS NULL" predicate.
func IsNull(column string) *Predicate {
	return P(func(f *Frag) {
		f.Ident(column).Append(" IS NULL")
	})
}

// NotNull returns a "column IS NOT NULL" predicate.
func NotNull(column string) *Predicate {
	return P(func(f *Frag) {
		f.Ident(column).Append(" IS NOT NULL")
	})
}

// Like returns a "column LIKE pattern" predicate. The pattern is used as is.
func Like(column, pattern string) *Predicate {
	return binary(column, "LIKE", TextValue(pattern))
}

// HasPrefix returns a predicate matching values starting with prefix.
func HasPrefix(column, prefix string) *Predicate {
	return escapedLike(column, escapeLike(prefix)+"%")
}

// HasSuffix returns a predicate matching values ending with suffix.
func HasSuffix(column, suffix string) *Predicate {
	return escapedLike(column, "%"+escapeLike(suffix))
}

// Contains returns a predicate matching values containing sub.
func Contains(column, sub string) *Predicate {
	return escapedLike(column, "%"+escapeLike(sub)+"%")
}

func escapedLike(column, pattern string) *Predicate {
	return P(func(f *Frag) {
		f.Ident(column).Append(" LIKE ").Param(TextValue(pattern)).Append(" ESCAPE ").Literal(`\`)
	})
}

// escapeLike escapes the LIKE wildcards of s with a backslash.
func escapeLike(s string) string {
	if !strings.ContainsAny(s, `\%_`) {
		return s
	}
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// And returns the conjunction of the predicates.
func And(preds ...*Predicate) *Predicate {
	return join(" AND ", "TRUE", preds)
}

// Or returns the disjunction of the predicates.
func Or(preds ...*Predicate) *Predicate {
	return join(" OR ", "FALSE", preds)
}

func join(op, empty string, preds []*Predicate) *Predicate {
	preds = append([]*Predicate(nil), preds...)
	return P(func(f *Frag) {
		switch len(preds) {
		case 0:
			f.Append(empty)
		case 1:
			preds[0].Build(f)
		default:
			for i, p := range preds {
				if i > 0 {
					f.Append(op)
				}
				f.Append("(")
				p.Build(f)
				f.Append(")")
			}
		}
	})
}

// Not returns the negation of the predicate.
func Not(pred *Predicate) *Predicate {
	return P(func(f *Frag) {
		f.Append("NOT (")
		pred.Build(f)
		f.Append(")")
	})
}
