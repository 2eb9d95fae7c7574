package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tordrt/dbinspect/internal/schema"
)

const (
	varcharType           = "varchar"
	defaultPostgresSchema = "public"
)

// PostgresCatalog reads table metadata from the PostgreSQL catalog
type PostgresCatalog struct {
	conn   Querier
	schema string
}

// NewPostgresCatalog creates a catalog reader for schemaName (default "public")
func NewPostgresCatalog(conn Querier, schemaName string) *PostgresCatalog {
	if schemaName == "" {
		schemaName = defaultPostgresSchema
	}
	return &PostgresCatalog{
		conn:   conn,
		schema: schemaName,
	}
}

// ListTables returns all base tables in the schema
func (e *PostgresCatalog) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.conn.QueryContext(ctx, query, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// normalizePostgresType maps verbose SQL type names to commonly-used PostgreSQL equivalents
func normalizePostgresType(dataType, udtName string) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		return varcharType
	case "character":
		return "char"
	case "ARRAY":
		// udt_name has underscore prefix for arrays (e.g., "_text" for text[], "_int4" for integer[])
		if len(udtName) > 0 && udtName[0] == '_' {
			return normalizeUdtName(udtName[1:]) + "[]"
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

// normalizeUdtName converts PostgreSQL internal type names to more readable forms
func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	case varcharType:
		return varcharType
	default:
		return udtName
	}
}

// Columns returns column definitions in ordinal order
func (e *PostgresCatalog) Columns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.is_nullable,
			c.column_default,
			c.ordinal_position
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := e.conn.QueryContext(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var dataType, udtName, nullable string
		var maxLength, precision, scale sql.NullInt64
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &dataType, &udtName, &maxLength, &precision, &scale, &nullable, &defaultVal, &col.OrdinalPosition); err != nil {
			return nil, err
		}

		col.DeclaredType = normalizePostgresType(dataType, udtName)
		col.NativeType = udtName
		col.MaxLength = nullInt64Ptr(maxLength)
		col.NumericPrecision = nullInt64Ptr(precision)
		col.NumericScale = nullInt64Ptr(scale)
		col.Nullable = (nullable == "YES")
		col.Default = nullStringPtr(defaultVal)

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// Constraints returns key and check constraints. Foreign key columns are
// matched to the referenced key column through key_column_usage positions.
func (e *PostgresCatalog) Constraints(ctx context.Context, tableName string) ([]schema.Constraint, error) {
	query := `
		SELECT
			tc.constraint_name,
			tc.constraint_type,
			kcu.column_name,
			ref.table_name AS foreign_table_name,
			ref.column_name AS foreign_column_name,
			kcu.ordinal_position
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		LEFT JOIN information_schema.referential_constraints AS rc
			ON rc.constraint_name = tc.constraint_name
			AND rc.constraint_schema = tc.table_schema
		LEFT JOIN information_schema.key_column_usage AS ref
			ON ref.constraint_name = rc.unique_constraint_name
			AND ref.constraint_schema = rc.unique_constraint_schema
			AND ref.ordinal_position = kcu.position_in_unique_constraint
		WHERE tc.table_schema = $1
			AND tc.table_name = $2
		UNION ALL
		SELECT
			tc.constraint_name,
			tc.constraint_type,
			ccu.column_name,
			NULL,
			NULL,
			0
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'CHECK'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY 2, 1, 6, 3
	`

	rows, err := e.conn.QueryContext(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []schema.Constraint
	for rows.Next() {
		var c schema.Constraint
		var kind string
		var refTable, refColumn sql.NullString
		var position int64

		if err := rows.Scan(&c.Name, &kind, &c.Column, &refTable, &refColumn, &position); err != nil {
			return nil, err
		}

		c.Kind = schema.ConstraintKind(kind)
		c.ReferencedTable = nullStringPtr(refTable)
		c.ReferencedColumn = nullStringPtr(refColumn)

		constraints = append(constraints, c)
	}

	return constraints, rows.Err()
}

// Indexes returns index names with their CREATE INDEX definitions
func (e *PostgresCatalog) Indexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT indexname, indexdef
		FROM pg_indexes
		WHERE schemaname = $1 AND tablename = $2
		ORDER BY indexname
	`

	rows, err := e.conn.QueryContext(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		if err := rows.Scan(&idx.Name, &idx.Definition); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}

// RowCount counts the rows of a table
func (e *PostgresCatalog) RowCount(ctx context.Context, tableName string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pgx.Identifier{e.schema, tableName}.Sanitize())

	var count int64
	if err := e.conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
