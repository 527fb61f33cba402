package sql

import "strings"

type (
	// Set is a single assignment of an INSERT or UPDATE.
	Set struct {
		Field string
		Value any
	}

	// Where is a single filter condition.
	// When Op is OpIn, Value must be a slice or an array and it is bound
	// as one array parameter.
	Where struct {
		Field string
		Value any
		Op    Op
	}

	// Op is a comparison operator of a Where condition.
	Op string

	// Join combines the conditions of a statement. The zero value is AND.
	Join string

	// FetchMode tells how many rows a Select returns. The zero value is FetchOne.
	FetchMode string

	// Kind is the kind of a statement.
	Kind string
)

// Supported operators.
const (
	OpEQ   Op = "="
	OpNEQ  Op = "<>"
	OpGT   Op = ">"
	OpLT   Op = "<"
	OpGTE  Op = ">="
	OpLTE  Op = "<="
	OpIn   Op = "in"
	OpLike Op = "like"
)

// Join operators.
const (
	And Join = "AND"
	Or  Join = "OR"
)

// Fetch modes.
const (
	FetchOne FetchMode = "one"
	FetchAll FetchMode = "all"
)

// Statement kinds.
const (
	KindInsert Kind = "insert"
	KindSelect Kind = "select"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

func (o Op) valid() bool {
	switch o {
	case OpEQ, OpNEQ, OpGT, OpLT, OpGTE, OpLTE, OpIn, OpLike:
		return true
	}
	return false
}

// normalize returns the upper-cased join, defaulting to AND.
func (j Join) normalize() (Join, bool) {
	switch Join(strings.ToUpper(string(j))) {
	case "", And:
		return And, true
	case Or:
		return Or, true
	}
	return j, false
}

func (m FetchMode) normalize() (FetchMode, bool) {
	switch m {
	case "", FetchOne:
		return FetchOne, true
	case FetchAll:
		return FetchAll, true
	}
	return m, false
}

// Fields is the column list of a Select.
type Fields struct {
	columns []string
	raw     string
}

// Columns returns a field list where every name is identifier-quoted.
func Columns(names ...string) Fields {
	return Fields{columns: names}
}

// RawFields returns a field list emitted verbatim, e.g. "count(*)".
// The expression is trusted text and must never come from user input.
func RawFields(expr string) Fields {
	return Fields{raw: expr}
}

// Star selects every column.
var Star = RawFields("*")

// Statement is one of Insert, Select, Update or Delete.
// The interface is sealed; Compile rejects any other implementation.
type Statement interface {
	Kind() Kind
	TableName() string
	statement()
}

type (
	// Insert describes an INSERT statement.
	Insert struct {
		Table string
		Sets  []Set
	}

	// Select describes a SELECT statement.
	Select struct {
		Table  string
		Fields Fields
		Wheres []Where
		Join   Join
		Fetch  FetchMode
	}

	// Update describes an UPDATE statement.
	Update struct {
		Table  string
		Sets   []Set
		Wheres []Where
		Join   Join
	}

	// Delete describes a DELETE statement.
	Delete struct {
		Table  string
		Wheres []Where
		Join   Join
	}
)

// Kind implements Statement.
func (Insert) Kind() Kind { return KindInsert }

// Kind implements Statement.
func (Select) Kind() Kind { return KindSelect }

// Kind implements Statement.
func (Update) Kind() Kind { return KindUpdate }

// Kind implements Statement.
func (Delete) Kind() Kind { return KindDelete }

// TableName implements Statement.
func (s Insert) TableName() string { return s.Table }

// TableName implements Statement.
func (s Select) TableName() string { return s.Table }

// TableName implements Statement.
func (s Update) TableName() string { return s.Table }

// TableName implements Statement.
func (s Delete) TableName() string { return s.Table }

func (Insert) statement() {}
func (Select) statement() {}
func (Update) statement() {}
func (Delete) statement() {}

// Mode returns the fetch mode of the select, defaulting to FetchOne.
func (s Select) Mode() FetchMode {
	m, _ := s.Fetch.normalize()
	return m
}

// TableSet is a set of table names.
type TableSet map[string]struct{}

// NewTableSet returns a set holding the given names.
func NewTableSet(names ...string) TableSet {
	s := make(TableSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s TableSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// CatalogTables lists the system catalog views that a Select may read
// without identifier quoting. Quoting a schema-qualified name turns it into
// a single identifier that PostgreSQL cannot resolve. This is the only
// place where a table name reaches SQL text unquoted.
func CatalogTables() TableSet {
	return NewTableSet(
		"information_schema.columns",
		"information_schema.tables",
	)
}
