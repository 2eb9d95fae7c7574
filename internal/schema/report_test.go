package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func strPtr(s string) *string { return &s }

// usersOrders builds the two-table report with orders.user_id -> users.id
func usersOrders(t *testing.T) *DatabaseReport {
	t.Helper()
	r := NewDatabaseReport()
	require.NoError(t, r.Add(NewTableReport("users",
		Ok([]Column{
			{Name: "id", DeclaredType: "integer", OrdinalPosition: 1},
			{Name: "email", DeclaredType: "varchar", MaxLength: int64Ptr(255), OrdinalPosition: 2},
		}),
		Ok([]Constraint{{Name: "users_pkey", Kind: PrimaryKey, Column: "id"}}),
		Ok([]Index{{Name: "users_pkey", Definition: "CREATE UNIQUE INDEX users_pkey ON public.users USING btree (id)"}}),
		Ok(int64(2)),
	)))
	require.NoError(t, r.Add(NewTableReport("orders",
		Ok([]Column{
			{Name: "id", DeclaredType: "integer", OrdinalPosition: 1},
			{Name: "user_id", DeclaredType: "integer", OrdinalPosition: 2},
		}),
		Ok([]Constraint{
			{Name: "orders_user_id_fkey", Kind: ForeignKey, Column: "user_id", ReferencedTable: strPtr("users"), ReferencedColumn: strPtr("id")},
			{Name: "orders_pkey", Kind: PrimaryKey, Column: "id"},
		}),
		Ok([]Index(nil)),
		Fail[int64](errors.New("permission denied for table orders")),
	)))
	return r
}

func TestNewTableReport_SortsColumns(t *testing.T) {
	input := []Column{
		{Name: "c", OrdinalPosition: 3},
		{Name: "a", OrdinalPosition: 1},
		{Name: "b", OrdinalPosition: 2},
	}

	tr := NewTableReport("t", Ok(input), Ok([]Constraint{}), Ok([]Index{}), Ok(int64(0)))

	cols, ok := tr.Columns.Get()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, []string{cols[0].Name, cols[1].Name, cols[2].Name})
	assert.Equal(t, "c", input[0].Name, "input is not modified")
}

func TestNewTableReport_NormalizesReferences(t *testing.T) {
	tr := NewTableReport("orders",
		Ok([]Column{}),
		Ok([]Constraint{
			{Name: "orders_user_id_fkey", Kind: ForeignKey, Column: "user_id", ReferencedTable: strPtr("users")},
			{Name: "orders_pkey", Kind: PrimaryKey, Column: "id", ReferencedTable: strPtr("orders"), ReferencedColumn: strPtr("id")},
		}),
		Ok([]Index(nil)),
		Ok(int64(0)),
	)

	cons, ok := tr.Constraints.Get()
	require.True(t, ok)
	require.Len(t, cons, 2)

	require.NotNil(t, cons[0].ReferencedTable)
	require.NotNil(t, cons[0].ReferencedColumn)
	assert.Equal(t, "users", *cons[0].ReferencedTable)
	assert.Equal(t, UnknownReference, *cons[0].ReferencedColumn)

	assert.Nil(t, cons[1].ReferencedTable)
	assert.Nil(t, cons[1].ReferencedColumn)

	idx, ok := tr.Indexes.Get()
	require.True(t, ok)
	assert.NotNil(t, idx)
}

func TestNewTableReport_KeepsFailures(t *testing.T) {
	tr := NewTableReport("t",
		Fail[[]Column](errors.New("a")),
		Fail[[]Constraint](errors.New("b")),
		Fail[[]Index](errors.New("c")),
		Fail[int64](errors.New("d")),
	)

	assert.Equal(t, "a", tr.Columns.Err)
	assert.Equal(t, "b", tr.Constraints.Err)
	assert.Equal(t, "c", tr.Indexes.Err)
	assert.Equal(t, "d", tr.RowCount.Err)
}

func TestDatabaseReport_Add(t *testing.T) {
	r := usersOrders(t)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"users", "orders"}, r.TableNames())

	err := r.Add(TableReport{Name: "users"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate table "users"`)
	assert.Equal(t, 2, r.Len())

	orders, ok := r.Table("orders")
	require.True(t, ok)
	assert.Equal(t, "orders", orders.Name)

	_, ok = r.Table("missing")
	assert.False(t, ok)
}

func TestDatabaseReport_Summary(t *testing.T) {
	s := usersOrders(t).Summary()

	assert.Equal(t, Summary{Tables: 2, Columns: 4, Rows: 2, RowCountErrors: 1}, s)
	assert.Equal(t, Summary{}, NewDatabaseReport().Summary())
}

func TestDatabaseReport_JSON(t *testing.T) {
	r := usersOrders(t)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	text := string(data)
	assert.Less(t, strings.Index(text, `"users"`), strings.Index(text, `"orders"`), "tables keep enumeration order")
	assert.Contains(t, text, `"row_count":"Error: permission denied for table orders"`)
	assert.Contains(t, text, `"referenced_table":"users"`)

	back := NewDatabaseReport()
	require.NoError(t, json.Unmarshal(data, back))
	assert.Equal(t, r.TableNames(), back.TableNames())
	assert.Equal(t, r.Tables(), back.Tables())
}

func TestDatabaseReport_JSONErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not an object", data: `[]`},
		{name: "duplicate table", data: `{"a":{"row_count":1},"a":{"row_count":2}}`},
		{name: "bad table", data: `{"a":{"columns":5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, json.Unmarshal([]byte(tt.data), NewDatabaseReport()))
		})
	}
}

func TestDatabaseReport_YAML(t *testing.T) {
	r := usersOrders(t)

	data, err := yaml.Marshal(r)
	require.NoError(t, err)

	text := string(data)
	assert.Less(t, strings.Index(text, "users:"), strings.Index(text, "orders:"))

	back := NewDatabaseReport()
	require.NoError(t, yaml.Unmarshal(data, back))
	assert.Equal(t, r.TableNames(), back.TableNames())
	assert.Equal(t, r.Tables(), back.Tables())
}

func TestDatabaseReport_EmptyRoundTrip(t *testing.T) {
	data, err := json.Marshal(NewDatabaseReport())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	back := NewDatabaseReport()
	require.NoError(t, json.Unmarshal(data, back))
	assert.Equal(t, 0, back.Len())
}

