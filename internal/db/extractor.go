package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tordrt/dbinspect/internal/schema"
)

// Catalog reads table metadata from one database engine
type Catalog interface {
	// ListTables returns all base tables in the target schema, sorted by name
	ListTables(ctx context.Context) ([]string, error)
	// Columns returns the columns of a table in ordinal order
	Columns(ctx context.Context, table string) ([]schema.Column, error)
	// Constraints returns the constraints of a table, one entry per key column
	Constraints(ctx context.Context, table string) ([]schema.Constraint, error)
	// Indexes returns the indexes of a table sorted by name
	Indexes(ctx context.Context, table string) ([]schema.Index, error)
	// RowCount counts the rows of a table
	RowCount(ctx context.Context, table string) (int64, error)
}

// NewCatalog returns the catalog reader matching the client's engine.
// schemaName is ignored for SQLite.
func NewCatalog(client *Client, schemaName string) (Catalog, error) {
	switch client.Engine() {
	case EnginePostgres:
		return NewPostgresCatalog(client.Conn(), schemaName), nil
	case EngineMySQL:
		return NewMySQLCatalog(client.Conn(), schemaName), nil
	case EngineSQLite:
		return NewSQLiteCatalog(client.Conn()), nil
	default:
		return nil, fmt.Errorf("unsupported database engine: %s", client.Engine())
	}
}

// Inspector walks a catalog table by table and assembles the report
type Inspector struct {
	catalog Catalog
	tables  []string
	exclude []string
	log     zerolog.Logger
}

// InspectorOption configures an Inspector
type InspectorOption func(*Inspector)

// WithTables restricts the run to the given tables instead of enumerating the schema
func WithTables(tables []string) InspectorOption {
	return func(i *Inspector) { i.tables = tables }
}

// WithExclude skips the given tables
func WithExclude(tables []string) InspectorOption {
	return func(i *Inspector) { i.exclude = tables }
}

// WithLogger sets the logger used for progress and per-table failures
func WithLogger(log zerolog.Logger) InspectorOption {
	return func(i *Inspector) { i.log = log }
}

// NewInspector creates an inspector over catalog
func NewInspector(catalog Catalog, opts ...InspectorOption) *Inspector {
	i := &Inspector{catalog: catalog, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inspect builds the report for every table.
// Only a failure to enumerate tables is returned; per-table failures are
// stored in the report.
func (i *Inspector) Inspect(ctx context.Context) (*schema.DatabaseReport, error) {
	tableNames, err := i.getTableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	report := schema.NewDatabaseReport()
	if len(tableNames) == 0 {
		i.log.Debug().Msg("no tables found")
		return report, nil
	}

	for _, tableName := range tableNames {
		table := i.inspectTable(ctx, tableName)
		if err := report.Add(table); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// getTableNames returns the tables to inspect, deduplicated, without exclusions
func (i *Inspector) getTableNames(ctx context.Context) ([]string, error) {
	tables := i.tables
	if len(tables) == 0 {
		var err error
		tables, err = i.catalog.ListTables(ctx)
		if err != nil {
			return nil, err
		}
	}

	excluded := make(map[string]bool, len(i.exclude))
	for _, name := range i.exclude {
		excluded[name] = true
	}

	seen := make(map[string]bool, len(tables))
	result := make([]string, 0, len(tables))
	for _, name := range tables {
		if name == "" || excluded[name] || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	return result, nil
}

// inspectTable runs every per-table query, keeping each failure in place of its value
func (i *Inspector) inspectTable(ctx context.Context, tableName string) schema.TableReport {
	log := i.log.With().Str("table", tableName).Logger()
	log.Debug().Msg("inspecting table")

	columns := schema.Capture(i.catalog.Columns(ctx, tableName))
	constraints := schema.Capture(i.catalog.Constraints(ctx, tableName))
	indexes := schema.Capture(i.catalog.Indexes(ctx, tableName))
	rowCount := schema.Capture(i.catalog.RowCount(ctx, tableName))

	logFailure(log, "columns", columns.Err)
	logFailure(log, "constraints", constraints.Err)
	logFailure(log, "indexes", indexes.Err)
	logFailure(log, "row_count", rowCount.Err)

	return schema.NewTableReport(tableName, columns, constraints, indexes, rowCount)
}

func logFailure(log zerolog.Logger, field, msg string) {
	if msg == "" {
		return
	}
	log.Warn().Str("field", field).Str("error", msg).Msg("table query failed")
}
