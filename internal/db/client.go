package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Engine names the database engine behind a connection
type Engine string

const (
	EnginePostgres Engine = "postgres"
	EngineMySQL    Engine = "mysql"
	EngineSQLite   Engine = "sqlite"
)

// ConnectionError reports a failure to establish the database connection
type ConnectionError struct {
	Engine Engine
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Engine, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err is, or wraps, a ConnectionError
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// Querier is the subset of *sql.Conn the catalog readers need
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Client holds the single connection used for a whole inspection run
type Client struct {
	engine Engine
	db     *sql.DB
	conn   *sql.Conn
}

// newClient pins one connection from db and checks it is alive.
// db is closed on failure.
func newClient(ctx context.Context, engine Engine, db *sql.DB) (*Client, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Engine: engine, Err: fmt.Errorf("failed to open connection: %w", err)}
	}

	// Test the connection
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, &ConnectionError{Engine: engine, Err: fmt.Errorf("failed to ping database: %w", err)}
	}

	return &Client{engine: engine, db: db, conn: conn}, nil
}

// Engine returns the engine this client is connected to
func (c *Client) Engine() Engine {
	return c.engine
}

// Conn returns the pinned connection
func (c *Client) Conn() Querier {
	return c.conn
}

// Close releases the connection and then the handle
func (c *Client) Close() error {
	connErr := c.conn.Close()
	dbErr := c.db.Close()
	return errors.Join(connErr, dbErr)
}
