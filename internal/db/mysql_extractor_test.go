package db

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tordrt/dbinspect/internal/schema"
)

func TestMySQLCatalog_Columns(t *testing.T) {
	mock, conn := newMock(t)

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "column_type", "character_maximum_length", "numeric_precision", "numeric_scale", "is_nullable", "column_default", "ordinal_position"}).
			AddRow("id", "int", "int unsigned", nil, 10, 0, "NO", nil, 1).
			AddRow("reference", "varchar", "varchar(64)", 64, nil, nil, "YES", nil, 2).
			AddRow("total", "decimal", "decimal(10,2)", nil, 10, 2, "NO", "0.00", 3))

	columns, err := NewMySQLCatalog(conn, "shop").Columns(context.Background(), "orders")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, columns, 3)
	assert.Equal(t, "int unsigned", columns[0].NativeType)
	assert.Equal(t, "int", columns[0].TypeLabel())
	assert.False(t, columns[0].Nullable)
	assert.Equal(t, "varchar(64)", columns[1].TypeLabel())
	assert.True(t, columns[1].Nullable)
	assert.Equal(t, "decimal(10,2)", columns[2].TypeLabel())
	require.NotNil(t, columns[2].Default)
	assert.Equal(t, "0.00", *columns[2].Default)
}

func TestMySQLCatalog_Constraints(t *testing.T) {
	mock, conn := newMock(t)

	mock.ExpectQuery("FROM information_schema.table_constraints").
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name", "constraint_type", "column_name", "referenced_table_name", "referenced_column_name"}).
			AddRow("fk_orders_user", "FOREIGN KEY", "user_id", "users", "id").
			AddRow("PRIMARY", "PRIMARY KEY", "id", nil, nil).
			AddRow("uq_reference", "UNIQUE", "reference", nil, nil))

	constraints, err := NewMySQLCatalog(conn, "shop").Constraints(context.Background(), "orders")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, constraints, 3)
	assert.Equal(t, schema.ForeignKey, constraints[0].Kind)
	require.NotNil(t, constraints[0].ReferencedTable)
	assert.Equal(t, "users", *constraints[0].ReferencedTable)
	assert.Equal(t, "id", *constraints[0].ReferencedColumn)
	assert.Equal(t, schema.PrimaryKey, constraints[1].Kind)
	assert.Nil(t, constraints[1].ReferencedTable)
	assert.Equal(t, schema.Unique, constraints[2].Kind)
}

func TestMySQLCatalog_Indexes(t *testing.T) {
	mock, conn := newMock(t)

	mock.ExpectQuery("FROM information_schema.statistics").
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"index_name", "is_unique", "column_names"}).
			AddRow("PRIMARY", 1, "id").
			AddRow("idx_user_created", 0, "user_id,created_at"))

	indexes, err := NewMySQLCatalog(conn, "shop").Indexes(context.Background(), "orders")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []schema.Index{
		{Name: "PRIMARY", Definition: "CREATE UNIQUE INDEX `PRIMARY` ON `orders` (`id`)"},
		{Name: "idx_user_created", Definition: "CREATE INDEX `idx_user_created` ON `orders` (`user_id`, `created_at`)"},
	}, indexes)
}

func TestMySQLCatalog_RowCount(t *testing.T) {
	mock, conn := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `shop`.`order``items`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1234567)))

	n, err := NewMySQLCatalog(conn, "shop").RowCount(context.Background(), "order`items")
	require.NoError(t, err)
	assert.Equal(t, int64(1234567), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLCatalog_ListTables(t *testing.T) {
	mock, conn := newMock(t)

	mock.ExpectQuery("FROM information_schema.tables").
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders").AddRow("users"))

	tables, err := NewMySQLCatalog(conn, "shop").ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
}
