package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tordrt/dbinspect/internal/schema"
)

const (
	reportTitle     = "Database Table Inspector"
	bannerWidth     = 80
	sectionWidth    = 60
	timestampLayout = "2006-01-02 15:04:05"
)

// TextFormatter renders a report as human-readable console text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

func (f *TextFormatter) rule(width int, ch string) {
	_, _ = fmt.Fprintln(f.writer, strings.Repeat(ch, width))
}

// FormatHeader writes the run banner. target must already be free of credentials.
func (f *TextFormatter) FormatHeader(target string, at time.Time) {
	f.rule(bannerWidth, "=")
	_, _ = fmt.Fprintln(f.writer, reportTitle)
	f.rule(bannerWidth, "=")
	_, _ = fmt.Fprintf(f.writer, "Timestamp: %s\n", at.Format(timestampLayout))
	_, _ = fmt.Fprintf(f.writer, "Database: %s\n", target)
	f.rule(bannerWidth, "=")
}

// Success writes a ✓ status line
func (f *TextFormatter) Success(format string, args ...any) {
	_, _ = fmt.Fprintf(f.writer, "✓ "+format+"\n", args...)
}

// Failure writes a ✗ status line
func (f *TextFormatter) Failure(format string, args ...any) {
	_, _ = fmt.Fprintf(f.writer, "✗ "+format+"\n", args...)
}

// Format writes the table list followed by one section per table
func (f *TextFormatter) Format(r *schema.DatabaseReport) error {
	if r.Len() == 0 {
		_, _ = fmt.Fprintln(f.writer, "No tables found in the database.")
		return nil
	}

	_, _ = fmt.Fprintf(f.writer, "\nFound %d tables:\n", r.Len())
	for i, name := range r.TableNames() {
		_, _ = fmt.Fprintf(f.writer, "%d. %s\n", i+1, name)
	}
	_, _ = fmt.Fprintln(f.writer)
	f.rule(bannerWidth, "=")

	for _, table := range r.Tables() {
		if err := f.formatTable(table); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) formatTable(t schema.TableReport) error {
	_, _ = fmt.Fprintf(f.writer, "\nTABLE: %s\n", t.Name)
	f.rule(sectionWidth, "-")

	f.formatColumns(t.Columns)
	f.formatConstraints(t.Constraints)
	f.formatIndexes(t.Indexes)

	_, _ = fmt.Fprintf(f.writer, "\nRow Count: %s\n", formatRowCount(t.RowCount))
	_, _ = fmt.Fprintln(f.writer)
	f.rule(bannerWidth, "=")
	return nil
}

func (f *TextFormatter) formatColumns(res schema.Result[[]schema.Column]) {
	columns, ok := res.Get()
	if !ok {
		_, _ = fmt.Fprintf(f.writer, "Columns: %s\n", res)
		return
	}

	_, _ = fmt.Fprintf(f.writer, "Columns (%d):\n", len(columns))

	t := table.NewWriter()
	t.SetOutputMirror(f.writer)
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 30},
		{Number: 2, WidthMin: 20},
		{Number: 3, WidthMin: 10},
	})
	t.AppendHeader(table.Row{"Name", "Type", "Nullable", "Default"})

	for _, col := range columns {
		nullable := "NOT NULL"
		if col.Nullable {
			nullable = "NULL"
		}
		def := ""
		if col.Default != nil {
			def = "DEFAULT " + *col.Default
		}
		t.AppendRow(table.Row{col.Name, col.TypeLabel(), nullable, def})
	}
	t.Render()
}

// formatConstraints groups constraints by kind in the order kinds first appear
func (f *TextFormatter) formatConstraints(res schema.Result[[]schema.Constraint]) {
	constraints, ok := res.Get()
	if !ok {
		_, _ = fmt.Fprintf(f.writer, "\nConstraints: %s\n", res)
		return
	}
	if len(constraints) == 0 {
		return
	}

	_, _ = fmt.Fprintf(f.writer, "\nConstraints (%d):\n", len(constraints))

	var kinds []schema.ConstraintKind
	groups := make(map[schema.ConstraintKind][]schema.Constraint)
	for _, c := range constraints {
		if _, seen := groups[c.Kind]; !seen {
			kinds = append(kinds, c.Kind)
		}
		groups[c.Kind] = append(groups[c.Kind], c)
	}

	for _, kind := range kinds {
		_, _ = fmt.Fprintf(f.writer, "  %s:\n", kind)
		for _, c := range groups[kind] {
			_, _ = fmt.Fprintf(f.writer, "    - %s\n", formatConstraint(c))
		}
	}
}

func formatConstraint(c schema.Constraint) string {
	if c.Kind == schema.ForeignKey && c.ReferencedTable != nil && c.ReferencedColumn != nil {
		return fmt.Sprintf("%s → %s.%s", c.Column, *c.ReferencedTable, *c.ReferencedColumn)
	}
	return fmt.Sprintf("%s (%s)", c.Column, c.Name)
}

func (f *TextFormatter) formatIndexes(res schema.Result[[]schema.Index]) {
	indexes, ok := res.Get()
	if !ok {
		_, _ = fmt.Fprintf(f.writer, "\nIndexes: %s\n", res)
		return
	}
	if len(indexes) == 0 {
		return
	}

	_, _ = fmt.Fprintf(f.writer, "\nIndexes (%d):\n", len(indexes))
	for _, idx := range indexes {
		_, _ = fmt.Fprintf(f.writer, "  - %s\n", idx.Name)
	}
}

func formatRowCount(res schema.Result[int64]) string {
	if n, ok := res.Get(); ok {
		return humanize.Comma(n)
	}
	return res.String()
}

// FormatSummary writes the aggregate totals
func (f *TextFormatter) FormatSummary(r *schema.DatabaseReport) {
	s := r.Summary()
	_, _ = fmt.Fprintln(f.writer, "\nDATABASE SUMMARY:")
	_, _ = fmt.Fprintf(f.writer, "Total tables: %d\n", s.Tables)
	_, _ = fmt.Fprintf(f.writer, "Total columns: %d\n", s.Columns)
	_, _ = fmt.Fprintf(f.writer, "Total rows: %s\n", humanize.Comma(s.Rows))
	if s.RowCountErrors > 0 {
		_, _ = fmt.Fprintf(f.writer, "Tables without row count: %d\n", s.RowCountErrors)
	}
}
