package schema

import (
	"fmt"
	"strings"
)

// ConstraintKind classifies a table constraint
type ConstraintKind string

const (
	PrimaryKey ConstraintKind = "PRIMARY KEY"
	ForeignKey ConstraintKind = "FOREIGN KEY"
	Unique     ConstraintKind = "UNIQUE"
	Check      ConstraintKind = "CHECK"
)

// UnknownReference fills the target of a foreign key the catalog could not resolve
const UnknownReference = "?"

// Column represents a table column as declared in the catalog
type Column struct {
	Name             string  `json:"name" yaml:"name"`
	DeclaredType     string  `json:"declared_type" yaml:"declared_type"`
	NativeType       string  `json:"native_type,omitempty" yaml:"native_type,omitempty"`
	MaxLength        *int64  `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	NumericPrecision *int64  `json:"numeric_precision,omitempty" yaml:"numeric_precision,omitempty"`
	NumericScale     *int64  `json:"numeric_scale,omitempty" yaml:"numeric_scale,omitempty"`
	Nullable         bool    `json:"nullable" yaml:"nullable"`
	Default          *string `json:"default,omitempty" yaml:"default,omitempty"`
	OrdinalPosition  int     `json:"ordinal_position" yaml:"ordinal_position"`
}

// TypeLabel renders the column type with its length or precision
func (c Column) TypeLabel() string {
	if strings.Contains(c.DeclaredType, "(") {
		return c.DeclaredType
	}
	if c.MaxLength != nil {
		return fmt.Sprintf("%s(%d)", c.DeclaredType, *c.MaxLength)
	}
	if !isExactNumeric(c.DeclaredType) || c.NumericPrecision == nil {
		return c.DeclaredType
	}
	if c.NumericScale != nil {
		return fmt.Sprintf("%s(%d,%d)", c.DeclaredType, *c.NumericPrecision, *c.NumericScale)
	}
	return fmt.Sprintf("%s(%d)", c.DeclaredType, *c.NumericPrecision)
}

func isExactNumeric(t string) bool {
	switch strings.ToLower(t) {
	case "numeric", "decimal":
		return true
	}
	return false
}

// Constraint represents one column of a table constraint.
// Multi-column constraints produce one Constraint per column, in key order.
type Constraint struct {
	Name             string         `json:"name" yaml:"name"`
	Kind             ConstraintKind `json:"kind" yaml:"kind"`
	Column           string         `json:"column_name" yaml:"column_name"`
	ReferencedTable  *string        `json:"referenced_table,omitempty" yaml:"referenced_table,omitempty"`
	ReferencedColumn *string        `json:"referenced_column,omitempty" yaml:"referenced_column,omitempty"`
}

// Index represents a database index
type Index struct {
	Name       string `json:"name" yaml:"name"`
	Definition string `json:"definition" yaml:"definition"`
}

// TableReport holds everything collected for one table.
// Every field is captured independently so one failed query does not hide the others.
type TableReport struct {
	Name        string               `json:"-" yaml:"-"`
	Columns     Result[[]Column]     `json:"columns" yaml:"columns"`
	Constraints Result[[]Constraint] `json:"constraints" yaml:"constraints"`
	Indexes     Result[[]Index]      `json:"indexes" yaml:"indexes"`
	RowCount    Result[int64]        `json:"row_count" yaml:"row_count"`
}
