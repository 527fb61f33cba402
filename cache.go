package pgstmt

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/pgstmt/dialect/sql"
)

// Cache is the interface for caching select results.
// Users should implement this interface with their preferred caching solution
// (e.g., Redis, Memcached, in-memory).
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// CacheKey identifies the result of one compiled select.
type CacheKey struct {
	Table string
	Fetch sql.FetchMode
	// Digest is the SHA-256 of the SQL text and the encoded arguments, so
	// bound values never appear in a key.
	Digest string
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	return TablePrefix(k.Table) + string(k.Fetch) + ":" + k.Digest
}

// TablePrefix is the prefix shared by every key of table. Writes to the
// table delete all keys with this prefix.
func TablePrefix(table string) string {
	return table + ":"
}

// cacheKeyOf returns the key of q. It fails for arguments msgpack cannot encode.
func cacheKeyOf(q *sql.Query) (CacheKey, error) {
	args, err := msgpack.Marshal(q.Args())
	if err != nil {
		return CacheKey{}, err
	}
	h := sha256.New()
	h.Write([]byte(q.SQL))
	h.Write([]byte{0})
	h.Write(args)
	return CacheKey{Table: q.Table, Fetch: q.Fetch, Digest: hex.EncodeToString(h.Sum(nil))}, nil
}

// cachedResult is the msgpack payload of a cached select.
type cachedResult struct {
	Columns []Column `msgpack:"columns"`
	Rows    [][]any  `msgpack:"rows"`
	Found   bool     `msgpack:"found"`
}

func encodeResult(res Result) ([]byte, error) {
	var c cachedResult
	switch r := res.(type) {
	case *Record:
		c = cachedResult{Columns: r.Columns, Rows: [][]any{r.Values}, Found: true}
	case *RowSet:
		c = cachedResult{Columns: r.Columns, Rows: r.Rows, Found: true}
	}
	return msgpack.Marshal(&c)
}

func decodeResult(data []byte, fetch sql.FetchMode) (Result, error) {
	var c cachedResult
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	if !c.Found {
		return nil, nil
	}
	if fetch == sql.FetchAll {
		if c.Rows == nil {
			c.Rows = [][]any{}
		}
		return &RowSet{Columns: c.Columns, Rows: c.Rows}, nil
	}
	if len(c.Rows) != 1 {
		return nil, nil
	}
	return &Record{Columns: c.Columns, Values: c.Rows[0]}, nil
}

// generations counts the committed writes of every table.
type generations struct {
	mu sync.Mutex
	m  map[string]uint64
}

func (g *generations) current(table string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m[table]
}

// bump records a committed write. It must happen before the table's cached
// selects are dropped.
func (g *generations) bump(table string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.m == nil {
		g.m = make(map[string]uint64)
	}
	g.m[table]++
}
