package sql

// Assign returns a Set assigning v to field.
func Assign(field string, v any) Set {
	return Set{Field: field, Value: v}
}

// EQ returns a condition that checks if the field equals the given value.
func EQ(field string, v any) Where {
	return Where{Field: field, Value: v, Op: OpEQ}
}

// NEQ returns a condition that checks if the field does not equal the given value.
func NEQ(field string, v any) Where {
	return Where{Field: field, Value: v, Op: OpNEQ}
}

// GT returns a condition that checks if the field is greater than the given value.
func GT(field string, v any) Where {
	return Where{Field: field, Value: v, Op: OpGT}
}

// GTE returns a condition that checks if the field is greater than or equal to the given value.
func GTE(field string, v any) Where {
	return Where{Field: field, Value: v, Op: OpGTE}
}

// LT returns a condition that checks if the field is less than the given value.
func LT(field string, v any) Where {
	return Where{Field: field, Value: v, Op: OpLT}
}

// LTE returns a condition that checks if the field is less than or equal to the given value.
func LTE(field string, v any) Where {
	return Where{Field: field, Value: v, Op: OpLTE}
}

// In returns a condition that checks if the field value is one of the
// elements of vs. The whole slice is bound as a single array parameter:
//
//	In("status", []string{"active", "pending"})  // "status" = ANY($1)
func In(field string, vs any) Where {
	return Where{Field: field, Value: vs, Op: OpIn}
}

// Like returns a condition that matches the field against a LIKE pattern.
func Like(field, pattern string) Where {
	return Where{Field: field, Value: pattern, Op: OpLike}
}

// Match is one group of an existence check: the column equals any of Values.
type Match struct {
	Column string
	Values []any
}

// MatchAny returns a Match on column for the given values.
func MatchAny(column string, values ...any) Match {
	return Match{Column: column, Values: values}
}
