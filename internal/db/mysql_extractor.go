package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/dbinspect/internal/schema"
)

// MySQLCatalog reads table metadata from MySQL's information_schema
type MySQLCatalog struct {
	conn       Querier
	schemaName string
}

// NewMySQLCatalog creates a MySQL catalog reader for the given database
func NewMySQLCatalog(conn Querier, schemaName string) *MySQLCatalog {
	return &MySQLCatalog{
		conn:       conn,
		schemaName: schemaName,
	}
}

// ListTables returns all base tables in the database
func (e *MySQLCatalog) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.conn.QueryContext(ctx, query, e.schemaName)
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

// Columns returns column definitions in ordinal order
func (e *MySQLCatalog) Columns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.column_type,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.is_nullable,
			c.column_default,
			c.ordinal_position
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	rows, err := e.conn.QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var nullable string
		var maxLength, precision, scale sql.NullInt64
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &col.DeclaredType, &col.NativeType, &maxLength, &precision, &scale, &nullable, &defaultVal, &col.OrdinalPosition); err != nil {
			return nil, err
		}

		col.MaxLength = nullInt64Ptr(maxLength)
		col.NumericPrecision = nullInt64Ptr(precision)
		col.NumericScale = nullInt64Ptr(scale)
		col.Nullable = (nullable == "YES")
		col.Default = nullStringPtr(defaultVal)

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// Constraints returns primary, unique and foreign key constraints.
// key_column_usage carries the referenced column of each foreign key directly.
func (e *MySQLCatalog) Constraints(ctx context.Context, tableName string) ([]schema.Constraint, error) {
	query := `
		SELECT
			tc.constraint_name,
			tc.constraint_type,
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_schema = kcu.constraint_schema
			AND tc.constraint_name = kcu.constraint_name
			AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = ?
			AND tc.table_name = ?
		ORDER BY tc.constraint_type, tc.constraint_name, kcu.ordinal_position
	`

	rows, err := e.conn.QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []schema.Constraint
	for rows.Next() {
		var c schema.Constraint
		var kind string
		var refTable, refColumn sql.NullString

		if err := rows.Scan(&c.Name, &kind, &c.Column, &refTable, &refColumn); err != nil {
			return nil, err
		}

		c.Kind = schema.ConstraintKind(kind)
		c.ReferencedTable = nullStringPtr(refTable)
		c.ReferencedColumn = nullStringPtr(refColumn)

		constraints = append(constraints, c)
	}

	return constraints, rows.Err()
}

// Indexes returns every index, with a definition rendered from information_schema.statistics
func (e *MySQLCatalog) Indexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT
			s.index_name,
			s.non_unique = 0 AS is_unique,
			GROUP_CONCAT(s.column_name ORDER BY s.seq_in_index SEPARATOR ',') AS column_names
		FROM information_schema.statistics s
		WHERE s.table_schema = ?
			AND s.table_name = ?
		GROUP BY s.index_name, s.non_unique
		ORDER BY s.index_name
	`

	rows, err := e.conn.QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var name string
		var isUnique int
		var columnNames sql.NullString

		if err := rows.Scan(&name, &isUnique, &columnNames); err != nil {
			return nil, err
		}

		var columns []string
		if columnNames.Valid && columnNames.String != "" {
			columns = strings.Split(columnNames.String, ",")
		}

		indexes = append(indexes, schema.Index{
			Name:       name,
			Definition: renderIndexDefinition(quoteMySQL, name, tableName, isUnique == 1, columns),
		})
	}

	return indexes, rows.Err()
}

// RowCount counts the rows of a table
func (e *MySQLCatalog) RowCount(ctx context.Context, tableName string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", quoteMySQL(e.schemaName), quoteMySQL(tableName))

	var count int64
	if err := e.conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func quoteMySQL(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// renderIndexDefinition builds a CREATE INDEX statement for catalogs that do not store one
func renderIndexDefinition(quote func(string) string, name, table string, unique bool, columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quote(col)
	}

	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, quote(name), quote(table), strings.Join(quoted, ", "))
}
