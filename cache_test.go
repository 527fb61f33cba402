package pgstmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/pgstmt/dialect/sql"
)

func TestCacheKey(t *testing.T) {
	compile := func(id any) *sql.Query {
		q, err := sql.Compile(sql.Select{
			Table:  "users",
			Fields: sql.Star,
			Wheres: []sql.Where{sql.EQ("email", id)},
			Fetch:  sql.FetchAll,
		})
		require.NoError(t, err)
		return q
	}
	k1, err := cacheKeyOf(compile("a@b.c"))
	require.NoError(t, err)
	k2, err := cacheKeyOf(compile("a@b.c"))
	require.NoError(t, err)
	k3, err := cacheKeyOf(compile("x@y.z"))
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1.Digest, k3.Digest)
	assert.Equal(t, sql.FetchAll, k1.Fetch)
	assert.True(t, strings.HasPrefix(k1.String(), "users:all:"))
	assert.NotContains(t, k1.String(), "a@b.c")
}

func TestDecodeResultShape(t *testing.T) {
	cols := []Column{{Name: "id", DatabaseType: "INT8"}}

	data, err := encodeResult(&RowSet{Columns: cols, Rows: [][]any{}})
	require.NoError(t, err)
	res, err := decodeResult(data, sql.FetchAll)
	require.NoError(t, err)
	set, ok := res.(*RowSet)
	require.True(t, ok)
	assert.Equal(t, cols, set.Columns)
	assert.NotNil(t, set.Rows)

	data, err = encodeResult(&Record{Columns: cols, Values: []any{"x"}})
	require.NoError(t, err)
	res, err = decodeResult(data, sql.FetchOne)
	require.NoError(t, err)
	assert.Equal(t, &Record{Columns: cols, Values: []any{"x"}}, res)

	data, err = encodeResult(nil)
	require.NoError(t, err)
	res, err = decodeResult(data, sql.FetchOne)
	require.NoError(t, err)
	assert.Nil(t, res)

	_, err = decodeResult([]byte{0xc1}, sql.FetchOne)
	require.Error(t, err)
}
