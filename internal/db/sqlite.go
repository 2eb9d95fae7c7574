package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteClient opens an existing SQLite database file
func NewSQLiteClient(ctx context.Context, path string) (*Client, error) {
	// sqlite3 would silently create a missing file
	if _, err := os.Stat(path); err != nil {
		return nil, &ConnectionError{Engine: EngineSQLite, Err: err}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &ConnectionError{Engine: EngineSQLite, Err: fmt.Errorf("failed to open database: %w", err)}
	}

	return newClient(ctx, EngineSQLite, db)
}
