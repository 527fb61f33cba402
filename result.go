package pgstmt

import (
	"context"
	"fmt"

	"github.com/syssam/pgstmt/dialect/sql"
)

// Result is what one statement yields. It is nil for INSERT, UPDATE and
// DELETE, and for a FetchOne select that matched no row. Otherwise it is a
// *Record (FetchOne) or a *RowSet (FetchAll).
type Result interface {
	result()
}

// Column describes one result column.
type Column struct {
	Name         string `msgpack:"name"`
	DatabaseType string `msgpack:"type"`
}

// Record is a single row returned by a FetchOne select.
type Record struct {
	Columns []Column
	Values  []any
}

// Map returns the record keyed by column name.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c.Name] = r.Values[i]
	}
	return m
}

// RowSet holds every row returned by a FetchAll select.
type RowSet struct {
	Columns []Column
	Rows    [][]any
}

// Len returns the number of rows.
func (s *RowSet) Len() int { return len(s.Rows) }

// Maps returns every row keyed by column name.
func (s *RowSet) Maps() []map[string]any {
	ms := make([]map[string]any, len(s.Rows))
	for i, row := range s.Rows {
		ms[i] = (&Record{Columns: s.Columns, Values: row}).Map()
	}
	return ms
}

// RowFactory builds a caller-chosen row shape from the columns and values
// of one row.
type RowFactory[T any] func(cols []Column, values []any) (T, error)

// AsMap shapes a row as a map keyed by column name.
func AsMap(cols []Column, values []any) (map[string]any, error) {
	return (&Record{Columns: cols, Values: values}).Map(), nil
}

// AsValues shapes a row as its positional values.
func AsValues(_ []Column, values []any) ([]any, error) {
	return values, nil
}

// FetchOneAs runs s as a single row select and shapes the row with factory.
// The boolean is false when no row matched.
func FetchOneAs[T any](ctx context.Context, c *Client, s sql.Select, factory RowFactory[T]) (T, bool, error) {
	var zero T
	rec, err := c.FetchOne(ctx, s)
	if err != nil || rec == nil {
		return zero, false, err
	}
	row, err := factory(rec.Columns, rec.Values)
	if err != nil {
		return zero, false, fmt.Errorf("shape row: %w", err)
	}
	return row, true, nil
}

// FetchAllAs runs s and shapes every row with factory, in result order.
func FetchAllAs[T any](ctx context.Context, c *Client, s sql.Select, factory RowFactory[T]) ([]T, error) {
	set, err := c.FetchAll(ctx, s)
	if err != nil || set == nil {
		return nil, err
	}
	rows := make([]T, len(set.Rows))
	for i, values := range set.Rows {
		if rows[i], err = factory(set.Columns, values); err != nil {
			return nil, fmt.Errorf("shape row %d: %w", i, err)
		}
	}
	return rows, nil
}

func (*Record) result() {}
func (*RowSet) result() {}

func scanColumns(rows *sql.Rows) ([]Column, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	cols := make([]Column, len(types))
	for i, t := range types {
		cols[i] = Column{Name: t.Name(), DatabaseType: t.DatabaseTypeName()}
	}
	return cols, nil
}

func scanValues(rows *sql.Rows, n int) ([]any, error) {
	values := make([]any, n)
	dest := make([]any, n)
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	return values, nil
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	defer rows.Close()
	cols, err := scanColumns(rows)
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		return nil, rows.Err()
	}
	values, err := scanValues(rows, len(cols))
	if err != nil {
		return nil, err
	}
	return &Record{Columns: cols, Values: values}, rows.Close()
}

func scanRowSet(rows *sql.Rows) (*RowSet, error) {
	defer rows.Close()
	cols, err := scanColumns(rows)
	if err != nil {
		return nil, err
	}
	set := &RowSet{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values, err := scanValues(rows, len(cols))
		if err != nil {
			return nil, err
		}
		set.Rows = append(set.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, rows.Close()
}
