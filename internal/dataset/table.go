package dataset

import (
	"strconv"
)

// Row holds one record: the original-schema cells as delivered by
// ingestion, plus any derived boolean flag columns added by later stages.
// Rows are read-only; transformations happen through Table methods.
type Row struct {
	cells map[string]string
	flags map[string]bool
}

// Cell returns the raw string value of an original-schema column.
func (r Row) Cell(column string) (string, bool) {
	v, ok := r.cells[column]
	return v, ok
}

// Flag returns the value of a derived boolean column.
func (r Row) Flag(column string) (bool, bool) {
	v, ok := r.flags[column]
	return v, ok
}

// Value returns the display value of any column, original or derived.
// Derived flags render as "true"/"false".
func (r Row) Value(column string) (string, bool) {
	if v, ok := r.cells[column]; ok {
		return v, ok
	}
	if v, ok := r.flags[column]; ok {
		return strconv.FormatBool(v), ok
	}
	return "", false
}

// Numeric coerces the row's cell in column via ParseNumeric. Flag columns
// are never numeric.
func (r Row) Numeric(column string) (float64, bool) {
	v, ok := r.cells[column]
	if !ok {
		return 0, false
	}
	return ParseNumeric(v)
}

// Table is an ordered sequence of rows over an ordered column list. The
// original schema and derived flag columns are tracked separately so that
// stages can add flags without ambiguity about what ingestion delivered.
type Table struct {
	columns  []string
	flagCols []string
	rows     []Row
}

// New builds a table from an ordered column list and rows given as
// name-to-value records. Every row materializes every column; record keys
// outside the column list are dropped, missing keys become empty cells.
func New(columns []string, records []map[string]string) Table {
	cols := append([]string(nil), columns...)
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		cells := make(map[string]string, len(cols))
		for _, c := range cols {
			cells[c] = rec[c]
		}
		rows = append(rows, Row{cells: cells})
	}
	return Table{columns: cols, rows: rows}
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.rows)
}

// Columns returns the full ordered column list: original schema first,
// then derived flag columns in the order they were added.
func (t Table) Columns() []string {
	out := make([]string, 0, len(t.columns)+len(t.flagCols))
	out = append(out, t.columns...)
	out = append(out, t.flagCols...)
	return out
}

// SchemaColumns returns the original-schema columns only.
func (t Table) SchemaColumns() []string {
	return append([]string(nil), t.columns...)
}

// FlagColumns returns the derived flag columns only.
func (t Table) FlagColumns() []string {
	return append([]string(nil), t.flagCols...)
}

// HasColumn reports whether the named column exists, original or derived.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return t.hasFlagColumn(name)
}

func (t Table) hasFlagColumn(name string) bool {
	for _, c := range t.flagCols {
		if c == name {
			return true
		}
	}
	return false
}

// Row returns the i'th row.
func (t Table) Row(i int) Row {
	return t.rows[i]
}

// Cell returns the raw cell value at row i, column name.
func (t Table) Cell(i int, column string) (string, bool) {
	return t.rows[i].Cell(column)
}

// Numeric coerces the cell at row i, column name via ParseNumeric.
func (t Table) Numeric(i int, column string) (float64, bool) {
	return t.rows[i].Numeric(column)
}

// Flag returns the derived flag value at row i, column name.
func (t Table) Flag(i int, column string) (bool, bool) {
	return t.rows[i].Flag(column)
}

// PresentValues collects the numeric values of column across all rows,
// in row order, skipping absent cells.
func (t Table) PresentValues(column string) []float64 {
	values := make([]float64, 0, len(t.rows))
	for _, r := range t.rows {
		if v, ok := r.Numeric(column); ok {
			values = append(values, v)
		}
	}
	return values
}

// WithCells returns a new table where the cells of column at the given row
// indexes hold the given value. Rows not listed are shared unchanged;
// the receiver is never modified.
func (t Table) WithCells(column string, value string, rowIdx []int) Table {
	target := make(map[int]bool, len(rowIdx))
	for _, i := range rowIdx {
		target[i] = true
	}
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		if !target[i] {
			rows[i] = r
			continue
		}
		cells := make(map[string]string, len(r.cells))
		for k, v := range r.cells {
			cells[k] = v
		}
		cells[column] = value
		rows[i] = Row{cells: cells, flags: r.flags}
	}
	return Table{columns: t.columns, flagCols: t.flagCols, rows: rows}
}

// WithFlagColumn returns a new table where every row carries the named
// derived boolean column. values must have one entry per row. Re-deriving
// an existing flag column replaces its values; original-schema columns are
// never touched.
func (t Table) WithFlagColumn(name string, values []bool) Table {
	flagCols := t.flagCols
	if !t.hasFlagColumn(name) {
		flagCols = make([]string, 0, len(t.flagCols)+1)
		flagCols = append(flagCols, t.flagCols...)
		flagCols = append(flagCols, name)
	}
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		flags := make(map[string]bool, len(r.flags)+1)
		for k, v := range r.flags {
			flags[k] = v
		}
		if i < len(values) {
			flags[name] = values[i]
		} else {
			flags[name] = false
		}
		rows[i] = Row{cells: r.cells, flags: flags}
	}
	return Table{columns: t.columns, flagCols: flagCols, rows: rows}
}

// Filter returns a new table holding only the rows for which keep returns
// true, preserving their relative order.
func (t Table) Filter(keep func(i int, r Row) bool) Table {
	rows := make([]Row, 0, len(t.rows))
	for i, r := range t.rows {
		if keep(i, r) {
			rows = append(rows, r)
		}
	}
	return Table{columns: t.columns, flagCols: t.flagCols, rows: rows}
}

// Records renders the table as ordered name-to-value maps, one per row,
// with derived flags as "true"/"false". Used for previews and export.
func (t Table) Records() []map[string]string {
	cols := t.Columns()
	out := make([]map[string]string, 0, len(t.rows))
	for _, r := range t.rows {
		rec := make(map[string]string, len(cols))
		for _, c := range cols {
			v, _ := r.Value(c)
			rec[c] = v
		}
		out = append(out, rec)
	}
	return out
}
