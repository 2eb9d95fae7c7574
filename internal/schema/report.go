package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"go.yaml.in/yaml/v3"
)

// NewTableReport assembles the per-table query results into one TableReport
func NewTableReport(name string, columns Result[[]Column], constraints Result[[]Constraint], indexes Result[[]Index], rowCount Result[int64]) TableReport {
	if cols, ok := columns.Get(); ok {
		sorted := make([]Column, len(cols))
		copy(sorted, cols)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].OrdinalPosition < sorted[j].OrdinalPosition
		})
		columns = Ok(sorted)
	}

	if cons, ok := constraints.Get(); ok {
		normalized := make([]Constraint, 0, len(cons))
		for _, c := range cons {
			normalized = append(normalized, normalizeConstraint(c))
		}
		constraints = Ok(normalized)
	}

	if idx, ok := indexes.Get(); ok && idx == nil {
		indexes = Ok([]Index{})
	}

	return TableReport{
		Name:        name,
		Columns:     columns,
		Constraints: constraints,
		Indexes:     indexes,
		RowCount:    rowCount,
	}
}

// normalizeConstraint keeps referenced fields on foreign keys only
func normalizeConstraint(c Constraint) Constraint {
	if c.Kind != ForeignKey {
		c.ReferencedTable = nil
		c.ReferencedColumn = nil
		return c
	}
	if c.ReferencedTable == nil || *c.ReferencedTable == "" {
		unknown := UnknownReference
		c.ReferencedTable = &unknown
	}
	if c.ReferencedColumn == nil || *c.ReferencedColumn == "" {
		unknown := UnknownReference
		c.ReferencedColumn = &unknown
	}
	return c
}

// DatabaseReport maps table names to their reports, in enumeration order
type DatabaseReport struct {
	tables []TableReport
	index  map[string]int
}

// NewDatabaseReport creates an empty report
func NewDatabaseReport() *DatabaseReport {
	return &DatabaseReport{index: make(map[string]int)}
}

// Add appends a table report; each table name may appear only once
func (r *DatabaseReport) Add(t TableReport) error {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if _, exists := r.index[t.Name]; exists {
		return fmt.Errorf("duplicate table %q in report", t.Name)
	}
	r.index[t.Name] = len(r.tables)
	r.tables = append(r.tables, t)
	return nil
}

// Tables returns the table reports in enumeration order
func (r *DatabaseReport) Tables() []TableReport {
	return r.tables
}

// TableNames returns the table names in enumeration order
func (r *DatabaseReport) TableNames() []string {
	names := make([]string, len(r.tables))
	for i, t := range r.tables {
		names[i] = t.Name
	}
	return names
}

// Table looks up a table report by name
func (r *DatabaseReport) Table(name string) (*TableReport, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return &r.tables[i], true
}

// Len returns the number of tables in the report
func (r *DatabaseReport) Len() int {
	return len(r.tables)
}

// Summary holds the aggregate totals printed after the per-table sections
type Summary struct {
	Tables         int
	Columns        int
	Rows           int64
	RowCountErrors int
}

// Summary computes aggregate totals. Tables whose row count failed are
// excluded from Rows.
func (r *DatabaseReport) Summary() Summary {
	s := Summary{Tables: len(r.tables)}
	for _, t := range r.tables {
		if cols, ok := t.Columns.Get(); ok {
			s.Columns += len(cols)
		}
		if n, ok := t.RowCount.Get(); ok {
			s.Rows += n
		} else {
			s.RowCountErrors++
		}
	}
	return s
}

// MarshalJSON writes an object keyed by table name, preserving table order
func (r *DatabaseReport) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range r.tables {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("failed to encode table %s: %w", t.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by table name, preserving key order
func (r *DatabaseReport) UnmarshalJSON(data []byte) error {
	*r = DatabaseReport{index: make(map[string]int)}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected report object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected table name, got %v", tok)
		}
		var t TableReport
		if err := dec.Decode(&t); err != nil {
			return fmt.Errorf("failed to decode table %s: %w", name, err)
		}
		t.Name = name
		if err := r.Add(t); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}

// MarshalYAML writes a mapping keyed by table name, preserving table order
func (r *DatabaseReport) MarshalYAML() (interface{}, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, t := range r.tables {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.Name}
		val := &yaml.Node{}
		if err := val.Encode(t); err != nil {
			return nil, fmt.Errorf("failed to encode table %s: %w", t.Name, err)
		}
		root.Content = append(root.Content, key, val)
	}
	return root, nil
}

// UnmarshalYAML reads a mapping keyed by table name, preserving key order
func (r *DatabaseReport) UnmarshalYAML(node *yaml.Node) error {
	*r = DatabaseReport{index: make(map[string]int)}

	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected report mapping at line %d", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var t TableReport
		if err := node.Content[i+1].Decode(&t); err != nil {
			return fmt.Errorf("failed to decode table %s: %w", name, err)
		}
		t.Name = name
		if err := r.Add(t); err != nil {
			return err
		}
	}
	return nil
}
