// Package pgstmt runs typed INSERT, SELECT, UPDATE and DELETE statements
// against PostgreSQL.
//
// Statements are described with the value types of dialect/sql and compiled
// into parameterized SQL. Values only ever reach the database as bound
// parameters. A Client runs each statement in its own transaction on a
// connection it owns for the duration of the statement:
//
//	client, err := pgstmt.Open(db)
//	if err != nil {
//	    return err
//	}
//	rec, err := client.FetchOne(ctx, sql.Select{
//	    Table:  "accounts",
//	    Fields: sql.Columns("id", "name"),
//	    Wheres: []sql.Where{sql.EQ("id", 5)},
//	})
//
// OpenWatched reads the role from a credentials file instead and keeps it
// current while the file changes, so rotated passwords apply to the next
// statement.
//
// ExecuteMany runs independent statements concurrently and returns their
// results in input order:
//
//	results, err := client.ExecuteMany(ctx,
//	    sql.Insert{Table: "audit", Sets: []sql.Set{sql.Assign("event", "login")}},
//	    sql.Select{Table: "accounts", Fields: sql.Star, Fetch: sql.FetchAll},
//	    sql.Delete{Table: "sessions", Wheres: []sql.Where{sql.LT("expires_at", now)}},
//	)
//
// IsExists answers existence checks without writing SQL:
//
//	ok, err := client.IsExists(ctx, "users", sql.And,
//	    sql.MatchAny("id", 1, 2, 3),
//	    sql.MatchAny("active", true),
//	)
//
// # Errors
//
// Descriptor problems are reported before any I/O and match
// ErrInvalidArgument. Execution failures are wrapped in *StatementError,
// batch failures in *BatchError. Neither carries SQL text or bound values.
// Use dialect/sql/sqlgraph to classify constraint violations.
//
// # Observability
//
// MustRegisterMetrics registers Prometheus metrics for statements and
// batches. WithStats collects in-process query statistics and can log slow
// queries. WithCache serves selects from a Cache and drops the entries of a
// table whenever a write to it commits.
package pgstmt
