package sql

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

// FanOutThreshold is the number of sibling clauses from which they are
// compiled concurrently. Smaller lists are compiled in place.
const FanOutThreshold = 16

// Query is a compiled statement: SQL text with positional placeholders
// and the parameters bound to them.
type Query struct {
	SQL   string
	Kind  Kind
	Table string
	// Fetch is the fetch mode of a select, empty for writes.
	Fetch FetchMode
	// Names lists the parameter names in placeholder order: Names[0] is $1.
	Names []string
	// Params maps each parameter name to its value. It is nil when the
	// statement binds nothing.
	Params map[string]any
}

// Args returns the positional driver arguments of the query.
// Slices and arrays, other than byte slices, are wrapped with pq.Array so they
// bind as a single PostgreSQL array.
func (q *Query) Args() []any {
	args := make([]any, len(q.Names))
	for i, name := range q.Names {
		args[i] = bindValue(q.Params[name])
	}
	return args
}

func bindValue(v any) any {
	switch v.(type) {
	case nil, []byte, driver.Valuer:
		return v
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Slice:
		// Named byte slices such as json.RawMessage and net.IP are scalars.
		if t.Elem().Kind() == reflect.Uint8 {
			return v
		}
		return pq.Array(v)
	case reflect.Array:
		return pq.Array(v)
	}
	return v
}

// Compiler turns statement descriptors into queries.
// A Compiler holds no per-statement state and is safe for concurrent use.
type Compiler struct {
	// Catalog holds the tables a Select may name without quoting.
	Catalog TableSet
	// NewNamer returns the namer of one statement. Defaults to a Counter.
	NewNamer func() Namer
}

// NewCompiler returns a Compiler exempting CatalogTables from quoting.
func NewCompiler() *Compiler {
	return &Compiler{Catalog: CatalogTables()}
}

var defaultCompiler = NewCompiler()

// Compile compiles s with the default compiler.
func Compile(s Statement) (*Query, error) {
	return defaultCompiler.Compile(s)
}

// Compile validates s and returns its query. No I/O happens here.
func (c *Compiler) Compile(s Statement) (*Query, error) {
	switch s := s.(type) {
	case Insert:
		return c.insert(s)
	case *Insert:
		if s != nil {
			return c.insert(*s)
		}
	case Select:
		return c.selectQuery(s)
	case *Select:
		if s != nil {
			return c.selectQuery(*s)
		}
	case Update:
		return c.update(s)
	case *Update:
		if s != nil {
			return c.update(*s)
		}
	case Delete:
		return c.deleteQuery(s)
	case *Delete:
		if s != nil {
			return c.deleteQuery(*s)
		}
	}
	return nil, fmt.Errorf("%w: %w: %T", ErrInvalidArgument, ErrUnsupportedStatement, s)
}

func (c *Compiler) namer() Namer {
	if c.NewNamer != nil {
		return c.NewNamer()
	}
	return &Counter{}
}

func (c *Compiler) insert(s Insert) (*Query, error) {
	if s.Table == "" {
		return nil, NewArgError("table", "empty table name")
	}
	if len(s.Sets) == 0 {
		return nil, NewArgError("sets", "INSERT requires at least one set")
	}
	names, err := allocate(c.namer(), len(s.Sets))
	if err != nil {
		return nil, err
	}
	pairs, err := compileEach(len(s.Sets), func(i int) (insertPair, error) {
		return compileInsertPair(s.Sets[i], names[i], "sets["+strconv.Itoa(i)+"]")
	})
	if err != nil {
		return nil, err
	}
	b := newBuilder(KindInsert, s.Table)
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdent(s.Table))
	b.WriteString(" (")
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.column)
	}
	b.WriteString(") VALUES (")
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := b.writeFragment(p.value); err != nil {
			return nil, err
		}
	}
	b.WriteString(");")
	return b.query(), nil
}

func (c *Compiler) selectQuery(s Select) (*Query, error) {
	if s.Table == "" {
		return nil, NewArgError("table", "empty table name")
	}
	fetch, ok := s.Fetch.normalize()
	if !ok {
		return nil, NewArgError("fetch", fmt.Sprintf("unknown fetch mode %q", s.Fetch))
	}
	fields, err := compileFields(s.Fields)
	if err != nil {
		return nil, err
	}
	table := quoteIdent(s.Table)
	if c.Catalog.Has(s.Table) {
		table = s.Table
	}
	b := newBuilder(KindSelect, s.Table)
	b.WriteString("SELECT ")
	b.WriteString(fields)
	b.WriteString(" FROM ")
	b.WriteString(table)
	if err := c.writeWheres(b, s.Wheres, s.Join); err != nil {
		return nil, err
	}
	b.WriteString(";")
	q := b.query()
	q.Fetch = fetch
	return q, nil
}

func (c *Compiler) update(s Update) (*Query, error) {
	if s.Table == "" {
		return nil, NewArgError("table", "empty table name")
	}
	if len(s.Sets) == 0 {
		return nil, NewArgError("sets", "UPDATE requires at least one set")
	}
	join, ok := s.Join.normalize()
	if !ok {
		return nil, NewArgError("join", fmt.Sprintf("unknown join %q", s.Join))
	}
	namer := c.namer()
	names, err := allocate(namer, len(s.Sets)+len(s.Wheres))
	if err != nil {
		return nil, err
	}
	sets, err := compileEach(len(s.Sets), func(i int) (fragment, error) {
		return compileSet(s.Sets[i], names[i], "sets["+strconv.Itoa(i)+"]")
	})
	if err != nil {
		return nil, err
	}
	wheres, err := compileWheres(s.Wheres, names[len(s.Sets):])
	if err != nil {
		return nil, err
	}
	b := newBuilder(KindUpdate, s.Table)
	b.WriteString("UPDATE ")
	b.WriteString(quoteIdent(s.Table))
	b.WriteString(" SET ")
	if err := b.writeFragments(sets, ", "); err != nil {
		return nil, err
	}
	if len(wheres) > 0 {
		b.WriteString(" WHERE ")
		if err := b.writeFragments(wheres, " "+string(join)+" "); err != nil {
			return nil, err
		}
	}
	b.WriteString(";")
	return b.query(), nil
}

func (c *Compiler) deleteQuery(s Delete) (*Query, error) {
	if s.Table == "" {
		return nil, NewArgError("table", "empty table name")
	}
	b := newBuilder(KindDelete, s.Table)
	b.WriteString("DELETE FROM ")
	b.WriteString(quoteIdent(s.Table))
	if err := c.writeWheres(b, s.Wheres, s.Join); err != nil {
		return nil, err
	}
	b.WriteString(";")
	return b.query(), nil
}

// writeWheres writes the WHERE clause, or nothing when there are no conditions.
func (c *Compiler) writeWheres(b *builder, ws []Where, j Join) error {
	join, ok := j.normalize()
	if !ok {
		return NewArgError("join", fmt.Sprintf("unknown join %q", j))
	}
	if len(ws) == 0 {
		return nil
	}
	names, err := allocate(c.namer(), len(ws))
	if err != nil {
		return err
	}
	frags, err := compileWheres(ws, names)
	if err != nil {
		return err
	}
	b.WriteString(" WHERE ")
	return b.writeFragments(frags, " "+string(join)+" ")
}

func compileFields(f Fields) (string, error) {
	if f.raw != "" {
		return f.raw, nil
	}
	if len(f.columns) == 0 {
		return "", NewArgError("fields", "no fields selected")
	}
	cols := make([]string, len(f.columns))
	for i, c := range f.columns {
		if c == "" {
			return "", NewArgError("fields["+strconv.Itoa(i)+"]", "empty field name")
		}
		cols[i] = quoteIdent(c)
	}
	return strings.Join(cols, ", "), nil
}

// fragment is one compiled clause: prefix, placeholder, suffix.
type fragment struct {
	prefix string
	suffix string
	name   string
	value  any
}

type insertPair struct {
	column string
	value  fragment
}

func compileSet(s Set, name, arg string) (fragment, error) {
	if s.Field == "" {
		return fragment{}, NewArgError(arg+".field", "empty field name")
	}
	return fragment{prefix: quoteIdent(s.Field) + " = ", name: name, value: s.Value}, nil
}

func compileWhere(w Where, name, arg string) (fragment, error) {
	if w.Field == "" {
		return fragment{}, NewArgError(arg+".field", "empty field name")
	}
	if !w.Op.valid() {
		return fragment{}, NewArgError(arg+".op", fmt.Sprintf("unknown operator %q", w.Op))
	}
	field := quoteIdent(w.Field)
	if w.Op == OpIn {
		if !isSequence(w.Value) {
			return fragment{}, NewArgError(arg+".value", "operator in requires a slice or an array")
		}
		return fragment{prefix: field + " = ANY(", suffix: ")", name: name, value: w.Value}, nil
	}
	return fragment{prefix: field + " " + strings.ToUpper(string(w.Op)) + " ", name: name, value: w.Value}, nil
}

func compileInsertPair(s Set, name, arg string) (insertPair, error) {
	if s.Field == "" {
		return insertPair{}, NewArgError(arg+".field", "empty field name")
	}
	return insertPair{
		column: quoteIdent(s.Field),
		value:  fragment{name: name, value: s.Value},
	}, nil
}

func compileWheres(ws []Where, names []string) ([]fragment, error) {
	return compileEach(len(ws), func(i int) (fragment, error) {
		return compileWhere(ws[i], names[i], "wheres["+strconv.Itoa(i)+"]")
	})
}

// compileEach runs f for every index and keeps the results in index order.
// Clauses share no state, so large lists are compiled concurrently.
func compileEach[T any](n int, f func(int) (T, error)) ([]T, error) {
	out := make([]T, n)
	if n < FanOutThreshold {
		for i := range out {
			v, err := f(i)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	var g errgroup.Group
	for i := range out {
		g.Go(func() error {
			v, err := f(i)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// allocate draws n names from the namer before any fan-out.
func allocate(namer Namer, n int) ([]string, error) {
	names := make([]string, n)
	for i := range names {
		name, err := namer.Next()
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

func isSequence(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

func quoteIdent(s string) string {
	return pq.QuoteIdentifier(s)
}

// builder accumulates SQL text and binds parameters positionally.
type builder struct {
	strings.Builder
	kind   Kind
	table  string
	names  []string
	params map[string]any
}

func newBuilder(kind Kind, table string) *builder {
	return &builder{kind: kind, table: table}
}

func (b *builder) bind(name string, v any) error {
	if _, ok := b.params[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateParam, name)
	}
	if b.params == nil {
		b.params = make(map[string]any)
	}
	b.params[name] = v
	b.names = append(b.names, name)
	b.WriteByte('$')
	b.WriteString(strconv.Itoa(len(b.names)))
	return nil
}

func (b *builder) writeFragment(f fragment) error {
	b.WriteString(f.prefix)
	if err := b.bind(f.name, f.value); err != nil {
		return err
	}
	b.WriteString(f.suffix)
	return nil
}

func (b *builder) writeFragments(fs []fragment, sep string) error {
	for i, f := range fs {
		if i > 0 {
			b.WriteString(sep)
		}
		if err := b.writeFragment(f); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) query() *Query {
	return &Query{
		SQL:    b.String(),
		Kind:   b.kind,
		Table:  b.table,
		Names:  b.names,
		Params: b.params,
	}
}
