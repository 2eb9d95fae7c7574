package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/dbinspect/internal/schema"
)

// SQLiteCatalog reads table metadata from sqlite_master and the table-valued pragmas
type SQLiteCatalog struct {
	conn Querier
}

// NewSQLiteCatalog creates a SQLite catalog reader
func NewSQLiteCatalog(conn Querier) *SQLiteCatalog {
	return &SQLiteCatalog{
		conn: conn,
	}
}

// ListTables returns all user tables
func (e *SQLiteCatalog) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

// tableInfo is one row of pragma_table_info
type tableInfo struct {
	cid          int
	name         string
	declaredType string
	notNull      bool
	defaultValue sql.NullString
	pk           int
}

func (e *SQLiteCatalog) readTableInfo(ctx context.Context, tableName string) ([]tableInfo, error) {
	query := `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`

	rows, err := e.conn.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []tableInfo
	for rows.Next() {
		var info tableInfo
		var notNull int
		if err := rows.Scan(&info.cid, &info.name, &info.declaredType, &notNull, &info.defaultValue, &info.pk); err != nil {
			return nil, err
		}
		info.notNull = notNull != 0
		infos = append(infos, info)
	}

	return infos, rows.Err()
}

// Columns returns column definitions in declaration order
func (e *SQLiteCatalog) Columns(ctx context.Context, tableName string) ([]schema.Column, error) {
	infos, err := e.readTableInfo(ctx, tableName)
	if err != nil {
		return nil, err
	}

	pkColumns := 0
	for _, info := range infos {
		if info.pk > 0 {
			pkColumns++
		}
	}

	columns := make([]schema.Column, 0, len(infos))
	for _, info := range infos {
		// A single INTEGER PRIMARY KEY aliases the rowid and can never be NULL
		rowidAlias := pkColumns == 1 && info.pk > 0 && strings.EqualFold(info.declaredType, "INTEGER")
		columns = append(columns, schema.Column{
			Name:            info.name,
			DeclaredType:    info.declaredType,
			NativeType:      info.declaredType,
			Nullable:        !info.notNull && !rowidAlias,
			Default:         nullStringPtr(info.defaultValue),
			OrdinalPosition: info.cid + 1,
		})
	}

	return columns, nil
}

// Constraints returns the primary key, unique constraints and foreign keys.
// SQLite does not name these, so names are derived from the table.
func (e *SQLiteCatalog) Constraints(ctx context.Context, tableName string) ([]schema.Constraint, error) {
	foreignKeys, err := e.foreignKeys(ctx, tableName)
	if err != nil {
		return nil, err
	}

	pk, err := e.primaryKey(ctx, tableName)
	if err != nil {
		return nil, err
	}

	unique, err := e.uniqueConstraints(ctx, tableName)
	if err != nil {
		return nil, err
	}

	constraints := make([]schema.Constraint, 0, len(foreignKeys)+len(pk)+len(unique))
	constraints = append(constraints, foreignKeys...)
	for _, col := range pk {
		constraints = append(constraints, schema.Constraint{
			Name:   tableName + "_pkey",
			Kind:   schema.PrimaryKey,
			Column: col,
		})
	}
	constraints = append(constraints, unique...)

	return constraints, nil
}

// primaryKey returns the primary key columns in key order
func (e *SQLiteCatalog) primaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`

	rows, err := e.conn.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		pk = append(pk, name)
	}

	return pk, rows.Err()
}

// foreignKeys reads pragma_foreign_key_list. A reference without an explicit
// target column points at the referenced table's primary key.
func (e *SQLiteCatalog) foreignKeys(ctx context.Context, tableName string) ([]schema.Constraint, error) {
	query := `SELECT id, seq, "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`

	rows, err := e.conn.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}

	type fkRow struct {
		id, seq     int
		targetTable string
		fromCol     string
		toCol       sql.NullString
	}

	var fkRows []fkRow
	for rows.Next() {
		var r fkRow
		if err := rows.Scan(&r.id, &r.seq, &r.targetTable, &r.fromCol, &r.toCol); err != nil {
			_ = rows.Close()
			return nil, err
		}
		fkRows = append(fkRows, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	// Implicit targets are resolved only once the result set above is closed
	targetPKs := make(map[string][]string)
	var constraints []schema.Constraint
	for _, r := range fkRows {
		target := r.toCol.String
		if !r.toCol.Valid || target == "" {
			pk, ok := targetPKs[r.targetTable]
			if !ok {
				pk, err = e.primaryKey(ctx, r.targetTable)
				if err != nil {
					return nil, err
				}
				targetPKs[r.targetTable] = pk
			}
			if r.seq < len(pk) {
				target = pk[r.seq]
			}
		}

		refTable := r.targetTable
		refColumn := target
		constraints = append(constraints, schema.Constraint{
			Name:             fmt.Sprintf("%s_fk_%d", tableName, r.id),
			Kind:             schema.ForeignKey,
			Column:           r.fromCol,
			ReferencedTable:  &refTable,
			ReferencedColumn: &refColumn,
		})
	}

	return constraints, nil
}

// uniqueConstraints returns columns of indexes created by UNIQUE table constraints
func (e *SQLiteCatalog) uniqueConstraints(ctx context.Context, tableName string) ([]schema.Constraint, error) {
	query := `
		SELECT il.name, ii.name
		FROM pragma_index_list(?) AS il
		JOIN pragma_index_info(il.name) AS ii
		WHERE il.origin = 'u'
		ORDER BY il.name, ii.seqno
	`

	rows, err := e.conn.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []schema.Constraint
	for rows.Next() {
		var c schema.Constraint
		if err := rows.Scan(&c.Name, &c.Column); err != nil {
			return nil, err
		}
		c.Kind = schema.Unique
		constraints = append(constraints, c)
	}

	return constraints, rows.Err()
}

// Indexes returns every index. Automatic indexes have no stored SQL, so their
// definition is rendered from pragma_index_info.
func (e *SQLiteCatalog) Indexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT name, sql
		FROM sqlite_master
		WHERE type = 'index' AND tbl_name = ?
		ORDER BY name
	`

	rows, err := e.conn.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}

	var indexes []schema.Index
	var automatic []int
	for rows.Next() {
		var idx schema.Index
		var definition sql.NullString
		if err := rows.Scan(&idx.Name, &definition); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if definition.Valid {
			idx.Definition = definition.String
		} else {
			automatic = append(automatic, len(indexes))
		}
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for _, i := range automatic {
		columns, err := e.indexColumns(ctx, indexes[i].Name)
		if err != nil {
			return nil, err
		}
		// Automatic indexes back UNIQUE and PRIMARY KEY constraints
		indexes[i].Definition = renderIndexDefinition(quoteSQLite, indexes[i].Name, tableName, true, columns)
	}

	return indexes, nil
}

func (e *SQLiteCatalog) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	query := `SELECT name FROM pragma_index_info(?) ORDER BY seqno`

	rows, err := e.conn.QueryContext(ctx, query, indexName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name.Valid {
			columns = append(columns, name.String)
		}
	}

	return columns, rows.Err()
}

// RowCount counts the rows of a table
func (e *SQLiteCatalog) RowCount(ctx context.Context, tableName string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteSQLite(tableName))

	var count int64
	if err := e.conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func quoteSQLite(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
