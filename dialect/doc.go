// Package dialect provides the database abstraction pgstmt runs statements through.
//
// # Dialect
//
// Statements are compiled for PostgreSQL only:
//
//	dialect.Postgres = "postgres"
//
// # Driver Interface
//
// A Driver is owned by exactly one statement. It is acquired from a
// dialect/sql.Connector, used for a single transaction and closed afterwards:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
// The Tx interface extends ExecQuerier with transaction methods:
//
//	type Tx interface {
//	    ExecQuerier
//	    Commit() error
//	    Rollback() error
//	}
//
// # Sub-packages
//
//   - dialect/sql: statement model, compiler, driver and connectors
//   - dialect/sql/sqlgraph: classification of PostgreSQL execution errors
package dialect
