package sql

import (
	"fmt"
	"regexp"
	"strconv"
)

// rawIdentRe is the character set of identifiers written into SQL text
// without quoting.
var rawIdentRe = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// Exists builds a boolean existence check over table:
//
//	SELECT EXISTS (SELECT * FROM users WHERE id = $1 OR id = $2);
//
// Each Match contributes one group, the equality of its column with any of
// its values. Groups are combined with join, which is required when more
// than one Match is given. Table and column names are written unquoted and
// are therefore restricted to [A-Za-z0-9_.]. Parameter names come from a
// TokenGenerator sized to the number of bindings the check can need.
func Exists(table string, join Join, matches ...Match) (*Query, error) {
	return exists(table, join, matches, func(max int) (Namer, error) {
		return NewTokenGenerator(DefaultTokenLength, max)
	})
}

func exists(table string, join Join, matches []Match, newNamer func(int) (Namer, error)) (*Query, error) {
	if len(matches) == 0 {
		return nil, NewArgError("matches", "at least one match is required")
	}
	if len(matches) > 1 && join == "" {
		return nil, NewArgError("join", "join must be set when more than one match is given")
	}
	join, ok := join.normalize()
	if !ok {
		return nil, NewArgError("join", fmt.Sprintf("unknown join %q", join))
	}
	if !rawIdentRe.MatchString(table) {
		return nil, NewArgError("table", "contains unauthorized characters")
	}
	total := 0
	for i, m := range matches {
		arg := "matches[" + strconv.Itoa(i) + "]"
		if !rawIdentRe.MatchString(m.Column) {
			return nil, NewArgError(arg+".column", "contains unauthorized characters")
		}
		if len(m.Values) == 0 {
			return nil, NewArgError(arg+".values", "at least one value is required")
		}
		total += len(m.Values)
	}
	namer, err := newNamer(len(matches) * total)
	if err != nil {
		return nil, err
	}
	b := newBuilder(KindSelect, table)
	b.WriteString("SELECT EXISTS (SELECT * FROM ")
	b.WriteString(table)
	b.WriteString(" WHERE ")
	for i, m := range matches {
		if i > 0 {
			b.WriteString(" " + string(join) + " ")
		}
		group := len(m.Values) > 1 && len(matches) > 1
		if group {
			b.WriteByte('(')
		}
		for j, v := range m.Values {
			if j > 0 {
				b.WriteString(" OR ")
			}
			name, err := namer.Next()
			if err != nil {
				return nil, err
			}
			if err := b.writeFragment(fragment{prefix: m.Column + " = ", name: name, value: v}); err != nil {
				return nil, err
			}
		}
		if group {
			b.WriteByte(')')
		}
	}
	b.WriteString(");")
	q := b.query()
	q.Fetch = FetchOne
	return q, nil
}

// IsRawIdent reports whether s may be written into SQL text unquoted by Exists.
func IsRawIdent(s string) bool {
	return rawIdentRe.MatchString(s)
}
