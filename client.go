package pgstmt

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/pgstmt/config"
	"github.com/syssam/pgstmt/dialect"
	"github.com/syssam/pgstmt/dialect/sql"
)

// Client compiles statements and runs each of them in its own transaction
// on a connection it owns exclusively.
type Client struct {
	connector   sql.Connector
	compiler    *sql.Compiler
	log         *slog.Logger
	stats       *sql.QueryStats
	statsOpts   []sql.StatsOption
	cache       Cache
	cacheTTL    time.Duration
	gens        generations
	concurrency int
}

// Option configures a Client.
type Option func(*Client) error

// WithLogger sets the logger. It defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.log = l
		return nil
	}
}

// WithCompiler replaces the default compiler, for example to extend the
// catalog table set or to name parameters differently.
func WithCompiler(comp *sql.Compiler) Option {
	return func(c *Client) error {
		if comp == nil {
			return NewConfigError("Compiler", nil, "compiler cannot be nil")
		}
		c.compiler = comp
		return nil
	}
}

// WithStats records every statement into s. The options are applied to the
// StatsDriver wrapping each connection.
func WithStats(s *sql.QueryStats, opts ...sql.StatsOption) Option {
	return func(c *Client) error {
		if s == nil {
			return NewConfigError("Stats", nil, "stats cannot be nil")
		}
		c.stats = s
		c.statsOpts = opts
		return nil
	}
}

// WithCache serves selects from cache. Any write to a table drops the
// cached results of that table.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) error {
		if cache == nil {
			return NewConfigError("Cache", nil, "cache cannot be nil")
		}
		if ttl < 0 {
			return NewConfigError("CacheTTL", ttl, "ttl cannot be negative")
		}
		c.cache = cache
		c.cacheTTL = ttl
		return nil
	}
}

// WithConcurrency bounds the number of statements ExecuteMany runs at
// once. Zero, the default, means no bound.
func WithConcurrency(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return NewConfigError("Concurrency", n, "concurrency cannot be negative")
		}
		c.concurrency = n
		return nil
	}
}

// NewClient returns a Client acquiring connections from connector.
func NewClient(connector sql.Connector, opts ...Option) (*Client, error) {
	if connector == nil {
		return nil, NewConfigError("Connector", nil, "connector cannot be nil")
	}
	c := &Client{
		connector: connector,
		compiler:  sql.NewCompiler(),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Open returns a Client dialing a new connection to db for every statement.
func Open(db config.Database, opts ...Option) (*Client, error) {
	if err := db.Validate(); err != nil {
		return nil, err
	}
	return NewClient(sql.NewDialConnector(db.DSN()), opts...)
}

// OpenWatched is like Open, reading role from a credentials file that is
// reloaded whenever it changes. Every statement dials with the settings
// current at that moment. Reloading stops when ctx is done.
func OpenWatched(ctx context.Context, path, role string, opts ...Option) (*Client, error) {
	w, err := config.Watch(ctx, path, role)
	if err != nil {
		return nil, err
	}
	if err := w.Database().Validate(); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	c, err := NewClient(&sql.DialConnector{DSN: w.DSN}, opts...)
	if err != nil {
		return nil, errors.Join(err, w.Close())
	}
	return c, nil
}

// Compile compiles s with the compiler of the client.
func (c *Client) Compile(s sql.Statement) (*sql.Query, error) {
	return c.compiler.Compile(s)
}

// Execute compiles and runs one statement. Writes return a nil Result.
// A FetchOne select returns a *Record, or nil when no row matched, and a
// FetchAll select returns a *RowSet.
func (c *Client) Execute(ctx context.Context, s sql.Statement) (Result, error) {
	q, err := c.compiler.Compile(s)
	if err != nil {
		return nil, newStatementError(-1, s, err)
	}
	res, err := c.run(ctx, c.log, q)
	if err != nil {
		return nil, &StatementError{Index: -1, Kind: q.Kind, Table: q.Table, Err: err}
	}
	return res, nil
}

// Exec runs a statement and discards its result.
func (c *Client) Exec(ctx context.Context, s sql.Statement) error {
	_, err := c.Execute(ctx, s)
	return err
}

// FetchOne runs s as a single row select. It returns nil, nil when no row matched.
func (c *Client) FetchOne(ctx context.Context, s sql.Select) (*Record, error) {
	s.Fetch = sql.FetchOne
	res, err := c.Execute(ctx, s)
	if err != nil {
		return nil, err
	}
	rec, _ := res.(*Record)
	return rec, nil
}

// FetchAll runs s and returns every row with the column descriptors.
func (c *Client) FetchAll(ctx context.Context, s sql.Select) (*RowSet, error) {
	s.Fetch = sql.FetchAll
	res, err := c.Execute(ctx, s)
	if err != nil {
		return nil, err
	}
	set, _ := res.(*RowSet)
	return set, nil
}

// ExecuteMany runs the statements concurrently, each on its own connection
// and in its own transaction, and returns their results in input order.
//
// Every statement is compiled before anything runs; a compile failure fails
// the whole call without I/O. The first execution failure cancels the
// statements still running. Statements already committed stay committed.
// On failure the returned error is a *BatchError whose first entry is the
// failure that stopped the batch.
func (c *Client) ExecuteMany(ctx context.Context, stmts ...sql.Statement) (_ []Result, err error) {
	defer func() { sampleBatch(len(stmts), err) }()
	queries := make([]*sql.Query, len(stmts))
	var invalid []*StatementError
	for i, s := range stmts {
		q, err := c.compiler.Compile(s)
		if err != nil {
			invalid = append(invalid, newStatementError(i, s, err))
			continue
		}
		queries[i] = q
	}
	if len(invalid) > 0 {
		return nil, &BatchError{Errors: invalid}
	}
	log := c.log.With("batch", uuid.NewString())
	log.DebugContext(ctx, "batch started", "statements", len(queries))
	var (
		mu       sync.Mutex
		failures []*StatementError
		results  = make([]Result, len(queries))
	)
	g, gctx := errgroup.WithContext(ctx)
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, q := range queries {
		g.Go(func() error {
			res, err := c.run(gctx, log.With("index", i), q)
			if err != nil {
				serr := &StatementError{Index: i, Kind: q.Kind, Table: q.Table, Err: err}
				mu.Lock()
				failures = append(failures, serr)
				mu.Unlock()
				return serr
			}
			results[i] = res
			return nil
		})
	}
	if g.Wait() == nil {
		log.DebugContext(ctx, "batch done", "statements", len(queries))
		return results, nil
	}
	berr := &BatchError{Errors: []*StatementError{failures[0]}}
	for _, f := range failures[1:] {
		// Cancellations caused by the first failure add nothing.
		if errors.Is(f, context.Canceled) && ctx.Err() == nil {
			continue
		}
		berr.Errors = append(berr.Errors, f)
	}
	log.DebugContext(ctx, "batch failed", "statements", len(queries), "failed", len(berr.Errors), "first", berr.First().Index)
	return nil, berr
}

// IsExists reports whether table holds a row matching the given matches.
// Groups are combined with join, which is required for more than one match.
// Table and column names are limited to [A-Za-z0-9_.]; an invalid name is
// rejected before any connection is made.
func (c *Client) IsExists(ctx context.Context, table string, join sql.Join, matches ...sql.Match) (bool, error) {
	q, err := sql.Exists(table, join, matches...)
	if err != nil {
		return false, err
	}
	res, err := c.run(ctx, c.log, q)
	if err != nil {
		return false, &StatementError{Index: -1, Kind: q.Kind, Table: q.Table, Err: err}
	}
	rec, ok := res.(*Record)
	if !ok || len(rec.Values) == 0 {
		return false, nil
	}
	switch v := rec.Values[0].(type) {
	case bool:
		return v, nil
	case nil:
		return false, nil
	default:
		return false, &StatementError{Index: -1, Kind: q.Kind, Table: q.Table, Err: fmt.Errorf("unexpected exists value of type %T", v)}
	}
}

// run executes q on a connection of its own, inside a transaction.
func (c *Client) run(ctx context.Context, log *slog.Logger, q *sql.Query) (res Result, err error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		sampleStatement(q.Kind, elapsed, err)
		if err != nil {
			log.DebugContext(ctx, "statement failed", "kind", q.Kind, "table", q.Table, "duration", elapsed, "error", err)
			return
		}
		log.DebugContext(ctx, "statement done", "kind", q.Kind, "table", q.Table, "params", len(q.Names), "duration", elapsed)
	}()
	var (
		key CacheKey
		gen uint64
	)
	if c.cache != nil && q.Kind == sql.KindSelect {
		gen = c.gens.current(q.Table)
		var hit bool
		if key, res, hit = c.cached(ctx, log, q); hit {
			return res, nil
		}
	}
	conn, err := c.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close connection: %w", cerr))
		}
	}()
	var drv dialect.Driver = conn
	if c.stats != nil {
		drv = sql.NewStatsDriver(conn, append([]sql.StatsOption{sql.WithQueryStats(c.stats)}, c.statsOpts...)...)
	}
	tx, err := drv.Tx(ctx)
	if err != nil {
		return nil, err
	}
	if res, err = runTx(ctx, tx, q); err != nil {
		return nil, rollback(tx, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if c.cache != nil {
		c.store(ctx, log, q, key, gen, res)
	}
	return res, nil
}

func runTx(ctx context.Context, tx dialect.Tx, q *sql.Query) (Result, error) {
	if q.Kind != sql.KindSelect {
		return nil, tx.Exec(ctx, q.SQL, q.Args(), nil)
	}
	var rows sql.Rows
	if err := tx.Query(ctx, q.SQL, q.Args(), &rows); err != nil {
		return nil, err
	}
	if q.Fetch == sql.FetchAll {
		return scanRowSet(&rows)
	}
	rec, err := scanRecord(&rows)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec, nil
}

// rollback rolls back tx after err and reports a failed rollback alongside it.
func rollback(tx dialect.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, stdsql.ErrTxDone) {
		err = errors.Join(err, &RollbackError{Err: rerr})
	}
	return err
}

// cached looks q up in the cache. Cache failures are logged and treated as misses.
func (c *Client) cached(ctx context.Context, log *slog.Logger, q *sql.Query) (CacheKey, Result, bool) {
	key, err := cacheKeyOf(q)
	if err != nil {
		log.DebugContext(ctx, "select not cacheable", "table", q.Table, "error", err)
		return key, nil, false
	}
	data, err := c.cache.Get(ctx, key.String())
	if err != nil {
		log.WarnContext(ctx, "cache get failed", "table", q.Table, "error", err)
		return key, nil, false
	}
	if data == nil {
		return key, nil, false
	}
	res, err := decodeResult(data, q.Fetch)
	if err != nil {
		log.WarnContext(ctx, "cache entry unreadable", "table", q.Table, "error", err)
		return key, nil, false
	}
	return key, res, true
}

// store caches the result of a select, or drops the cached selects of the
// table a write committed to. gen is the write generation of the table seen
// before the select ran; a result read across a committed write is not kept.
func (c *Client) store(ctx context.Context, log *slog.Logger, q *sql.Query, key CacheKey, gen uint64, res Result) {
	if q.Kind != sql.KindSelect {
		c.gens.bump(q.Table)
		if err := c.cache.DeletePrefix(ctx, TablePrefix(q.Table)); err != nil {
			log.WarnContext(ctx, "cache invalidation failed", "table", q.Table, "error", err)
		}
		return
	}
	if key.Digest == "" || c.gens.current(q.Table) != gen {
		return
	}
	data, err := encodeResult(res)
	if err != nil {
		log.DebugContext(ctx, "result not cacheable", "table", q.Table, "error", err)
		return
	}
	if err := c.cache.Set(ctx, key.String(), data, c.cacheTTL); err != nil {
		log.WarnContext(ctx, "cache set failed", "table", q.Table, "error", err)
		return
	}
	// A write may have committed and invalidated between the check and Set.
	if c.gens.current(q.Table) != gen {
		if err := c.cache.DeletePrefix(ctx, key.String()); err != nil {
			log.WarnContext(ctx, "cache invalidation failed", "table", q.Table, "error", err)
		}
	}
}

func newStatementError(index int, s sql.Statement, err error) *StatementError {
	e := &StatementError{Index: index, Err: err}
	if s == nil {
		return e
	}
	if v := reflect.ValueOf(s); v.Kind() == reflect.Pointer && v.IsNil() {
		return e
	}
	e.Kind, e.Table = s.Kind(), s.TableName()
	return e
}
