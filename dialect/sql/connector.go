package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/syssam/pgstmt/dialect"

	_ "github.com/lib/pq" // registers the "postgres" driver
)

// Connector hands out a Driver owned by a single statement.
// The caller must Close the Driver on every exit path.
type Connector interface {
	Connect(ctx context.Context) (*Driver, error)
}

// DialConnector opens a fresh connection for every statement and closes it
// afterwards. No connection is ever reused.
type DialConnector struct {
	// DSN returns the data source name at dial time, so rotated
	// credentials are picked up by the next statement.
	DSN func() string
	// DriverName defaults to "postgres".
	DriverName string
}

// NewDialConnector returns a DialConnector for a fixed data source name.
func NewDialConnector(dsn string) *DialConnector {
	return &DialConnector{DSN: func() string { return dsn }}
}

// Connect implements Connector.
func (c *DialConnector) Connect(ctx context.Context) (*Driver, error) {
	if c.DSN == nil {
		return nil, errors.New("dialect/sql: dial connector without DSN")
	}
	name := c.DriverName
	if name == "" {
		name = dialect.Postgres
	}
	db, err := sql.Open(name, c.DSN())
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("dialect/sql: connect: %w", err), db.Close())
	}
	return NewDriver(dialect.Postgres, Conn{conn, dialect.Postgres}, func() error {
		return errors.Join(conn.Close(), db.Close())
	}), nil
}

// PoolConnector borrows connections from a database/sql pool. Closing the
// Driver returns the connection to the pool.
type PoolConnector struct {
	DB *sql.DB
}

// Connect implements Connector.
func (c *PoolConnector) Connect(ctx context.Context) (*Driver, error) {
	conn, err := c.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: connect: %w", err)
	}
	return NewDriver(dialect.Postgres, Conn{conn, dialect.Postgres}, conn.Close), nil
}

var (
	_ Connector = (*DialConnector)(nil)
	_ Connector = (*PoolConnector)(nil)
)
