package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterNamer(sized *int) func(int) (Namer, error) {
	return func(max int) (Namer, error) {
		*sized = max
		return &Counter{}, nil
	}
}

func TestExists(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		join     Join
		matches  []Match
		wantSQL  string
		wantArgs []any
		wantMax  int
	}{
		{
			name:     "single_value",
			table:    "users",
			matches:  []Match{MatchAny("id", 1)},
			wantSQL:  "SELECT EXISTS (SELECT * FROM users WHERE id = $1);",
			wantArgs: []any{1},
			wantMax:  1,
		},
		{
			name:     "single_match_many_values",
			table:    "users",
			matches:  []Match{MatchAny("id", 1, 2, 3)},
			wantSQL:  "SELECT EXISTS (SELECT * FROM users WHERE id = $1 OR id = $2 OR id = $3);",
			wantArgs: []any{1, 2, 3},
			wantMax:  3,
		},
		{
			name:     "two_matches_and",
			table:    "public.users",
			join:     And,
			matches:  []Match{MatchAny("id", 1, 2), MatchAny("status", "active")},
			wantSQL:  "SELECT EXISTS (SELECT * FROM public.users WHERE (id = $1 OR id = $2) AND status = $3);",
			wantArgs: []any{1, 2, "active"},
			wantMax:  6,
		},
		{
			name:     "two_matches_or_lower_case",
			table:    "users",
			join:     "or",
			matches:  []Match{MatchAny("email", "a@b.c"), MatchAny("nick", "a8m")},
			wantSQL:  "SELECT EXISTS (SELECT * FROM users WHERE email = $1 OR nick = $2);",
			wantArgs: []any{"a@b.c", "a8m"},
			wantMax:  4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var max int
			q, err := exists(tt.table, tt.join, tt.matches, counterNamer(&max))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, q.SQL)
			assert.Equal(t, tt.wantArgs, q.Args())
			assert.Equal(t, tt.wantMax, max)
			assert.Equal(t, KindSelect, q.Kind)
			assert.Equal(t, FetchOne, q.Fetch)
			assert.Equal(t, tt.table, q.Table)
		})
	}
}

func TestExistsTokens(t *testing.T) {
	q, err := Exists("users", And, MatchAny("id", 1, 2, 3), MatchAny("org_id", 9))
	require.NoError(t, err)
	require.Len(t, q.Names, 4)
	require.Len(t, q.Params, 4)
	for i, name := range q.Names {
		assert.Len(t, name, DefaultTokenLength)
		assert.Equal(t, q.Args()[i], q.Params[name])
	}
	assert.Equal(t, "SELECT EXISTS (SELECT * FROM users WHERE (id = $1 OR id = $2 OR id = $3) AND org_id = $4);", q.SQL)
}

func TestExistsErrors(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		join    Join
		matches []Match
		wantArg string
	}{
		{"injection_in_table", "users; DROP TABLE x", "", []Match{MatchAny("id", 1)}, "table"},
		{"quote_in_table", `users"`, "", []Match{MatchAny("id", 1)}, "table"},
		{"empty_table", "", "", []Match{MatchAny("id", 1)}, "table"},
		{"injection_in_column", "users", And, []Match{MatchAny("id", 1), MatchAny("id) OR (1=1", 1)}, "matches[1].column"},
		{"empty_column", "users", "", []Match{MatchAny("", 1)}, "matches[0].column"},
		{"no_matches", "users", And, nil, "matches"},
		{"no_values", "users", "", []Match{MatchAny("id")}, "matches[0].values"},
		{"two_matches_without_join", "users", "", []Match{MatchAny("id", 1), MatchAny("org_id", 2)}, "join"},
		{"unknown_join", "users", "XOR", []Match{MatchAny("id", 1), MatchAny("org_id", 2)}, "join"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			called := false
			q, err := exists(tt.table, tt.join, tt.matches, func(int) (Namer, error) {
				called = true
				return &Counter{}, nil
			})
			require.Error(t, err)
			assert.Nil(t, q)
			assert.False(t, called, "no names are drawn for invalid input")
			assert.ErrorIs(t, err, ErrInvalidArgument)
			var aerr *ArgError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tt.wantArg, aerr.Arg)
			assert.NotContains(t, err.Error(), "DROP")
		})
	}
}

func TestExistsNamerFailure(t *testing.T) {
	_, err := exists("users", "", []Match{MatchAny("id", 1, 2)}, func(max int) (Namer, error) {
		return NewTokenGenerator(1, 100)
	})
	require.ErrorIs(t, err, ErrConfig)

	_, err = exists("users", "", []Match{MatchAny("id", 1, 2)}, func(int) (Namer, error) {
		return NewTokenGenerator(4, 1)
	})
	require.ErrorIs(t, err, ErrTokensExhausted)
}

func TestIsRawIdent(t *testing.T) {
	for s, want := range map[string]bool{
		"users":                      true,
		"information_schema.columns": true,
		"T_1":                        true,
		"":                           false,
		"users;":                     false,
		"a b":                        false,
		`"users"`:                    false,
		"users--":                    false,
	} {
		assert.Equal(t, want, IsRawIdent(s), s)
	}
}
