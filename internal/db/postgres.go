package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// NewPostgresClient connects to PostgreSQL through the pgx database/sql driver
func NewPostgresClient(ctx context.Context, connString string) (*Client, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, &ConnectionError{Engine: EnginePostgres, Err: err}
	}

	return newClient(ctx, EnginePostgres, stdlib.OpenDB(*cfg))
}
