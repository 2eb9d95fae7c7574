package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// NewMySQLClient connects to MySQL using a go-sql-driver DSN
func NewMySQLClient(ctx context.Context, connString string) (*Client, error) {
	cfg, err := mysql.ParseDSN(connString)
	if err != nil {
		return nil, &ConnectionError{Engine: EngineMySQL, Err: err}
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, &ConnectionError{Engine: EngineMySQL, Err: err}
	}

	return newClient(ctx, EngineMySQL, sql.OpenDB(connector))
}

// ParseDatabaseName returns the database named in a MySQL DSN
func ParseDatabaseName(connString string) (string, error) {
	cfg, err := mysql.ParseDSN(connString)
	if err != nil {
		return "", err
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("no database name in connection string")
	}
	return cfg.DBName, nil
}
