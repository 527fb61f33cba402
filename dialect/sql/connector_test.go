package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/pgstmt/dialect"
)

func TestDialConnector(t *testing.T) {
	db, mock, err := sqlmock.NewWithDSN("dial_connector_test")
	require.NoError(t, err)
	defer db.Close()

	dsn := "unknown"
	c := &DialConnector{DSN: func() string { return dsn }, DriverName: "sqlmock"}
	_, err = c.Connect(context.Background())
	require.Error(t, err, "the DSN is read at dial time")

	dsn = "dial_connector_test"
	mock.ExpectExec(`DELETE FROM "sessions"`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectClose()
	drv, err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, drv.Dialect())
	require.NoError(t, drv.Exec(context.Background(), `DELETE FROM "sessions";`, []any{}, nil))
	require.NoError(t, drv.Close(), "closing the driver closes the dialed database")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDialConnectorWithoutDSN(t *testing.T) {
	_, err := (&DialConnector{}).Connect(context.Background())
	require.Error(t, err)
}

func TestNewDialConnector(t *testing.T) {
	c := NewDialConnector("postgres://u@localhost/db")
	assert.Equal(t, "postgres://u@localhost/db", c.DSN())
	assert.Empty(t, c.DriverName)
}

func TestPoolConnector(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)
	c := &PoolConnector{DB: db}

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		drv, err := c.Connect(context.Background())
		require.NoError(t, err)
		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx.Exec(context.Background(), `UPDATE "users" SET "a" = $1;`, []any{1}, nil))
		require.NoError(t, tx.Commit())
		// The single pooled connection is only available again after Close.
		require.NoError(t, drv.Close())
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolConnectorCanceled(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)
	c := &PoolConnector{DB: db}

	held, err := c.Connect(context.Background())
	require.NoError(t, err)
	defer held.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Connect(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
