package motion

import (
	"fmt"
	"math"
)

// Table is an ordered set of equally long float64 columns. Missing values
// are stored as NaN.
type Table struct {
	names []string
	cols  map[string][]float64
	rows  int
}

// NewTable returns an empty table with the given number of rows.
func NewTable(rows int) *Table {
	return &Table{cols: make(map[string][]float64), rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the backing slice of the named column, or nil when the
// column is absent. Writes through the slice modify the table.
func (t *Table) Column(name string) []float64 {
	return t.cols[name]
}

// Value returns the value at row of the named column, NaN when absent.
func (t *Table) Value(name string, row int) float64 {
	c, ok := t.cols[name]
	if !ok || row < 0 || row >= len(c) {
		return math.NaN()
	}
	return c[row]
}

// Set adds or replaces a column. The first column set on a zero-row table
// defines its length.
func (t *Table) Set(name string, values []float64) error {
	if len(t.names) == 0 && t.rows == 0 {
		t.rows = len(values)
	}
	if len(values) != t.rows {
		return fmt.Errorf("column %q has %d rows, table has %d", name, len(values), t.rows)
	}
	if _, ok := t.cols[name]; !ok {
		t.names = append(t.names, name)
	}
	t.cols[name] = values
	return nil
}

// Rename renames every present column found in mapping. Columns without a
// mapping keep their name. When two columns end up with the same name the
// later one wins.
func (t *Table) Rename(mapping map[string]string) {
	names := make([]string, 0, len(t.names))
	cols := make(map[string][]float64, len(t.cols))
	for _, old := range t.names {
		dst, ok := mapping[old]
		if !ok {
			dst = old
		}
		if _, dup := cols[dst]; !dup {
			names = append(names, dst)
		}
		cols[dst] = t.cols[old]
	}
	t.names, t.cols = names, cols
}

// Select returns a new table holding only the named columns, in the given
// order. It fails if any column is missing.
func (t *Table) Select(names ...string) (*Table, error) {
	out := NewTable(t.rows)
	for _, n := range names {
		c, ok := t.cols[n]
		if !ok {
			return nil, fmt.Errorf("missing column %q", n)
		}
		if err := out.Set(n, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	idx := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return t.Take(idx)
}

// Take returns a new table built from the given row indices, in order.
func (t *Table) Take(idx []int) *Table {
	out := NewTable(len(idx))
	for _, n := range t.names {
		src := t.cols[n]
		dst := make([]float64, len(idx))
		for i, r := range idx {
			dst[i] = src[r]
		}
		out.names = append(out.names, n)
		out.cols[n] = dst
	}
	return out
}

// DropIncomplete returns a new table without the rows that contain a NaN in
// any column.
func (t *Table) DropIncomplete() *Table {
	return t.Filter(func(row int) bool {
		for _, n := range t.names {
			if math.IsNaN(t.cols[n][row]) {
				return false
			}
		}
		return true
	})
}
