package datasets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/xrmotion/internal/motion"
)

// rawTable is a delimited file held as strings.
type rawTable struct {
	header  []string
	records [][]string
}

// readDelimited reads a delimited file with a header row. Rows with a field
// count different from the header are a parse error.
func readDelimited(path string, comma rune) (*rawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.LazyQuotes = true
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: empty file", ErrParse, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return &rawTable{header: header, records: records}, nil
}

// index returns the position of column name, or -1.
func (rt *rawTable) index(name string) int {
	for i, h := range rt.header {
		if h == name {
			return i
		}
	}
	return -1
}

// column returns a column as strings.
func (rt *rawTable) column(name string) ([]string, bool) {
	i := rt.index(name)
	if i < 0 {
		return nil, false
	}
	out := make([]string, len(rt.records))
	for r, rec := range rt.records {
		out[r] = rec[i]
	}
	return out, true
}

// subset returns a rawTable holding only the given record indices.
func (rt *rawTable) subset(idx []int) *rawTable {
	out := &rawTable{header: rt.header, records: make([][]string, len(idx))}
	for i, r := range idx {
		out.records[i] = rt.records[r]
	}
	return out
}

// numeric builds a table from the columns named in mapping, renamed to the
// mapped names. Mapped columns missing from the file are skipped; required
// columns must be present. Empty cells become NaN.
func (rt *rawTable) numeric(mapping map[string]string, required ...string) (*motion.Table, error) {
	for _, name := range required {
		if rt.index(name) < 0 {
			return nil, fmt.Errorf("%w: missing column %q", ErrParse, name)
		}
	}
	t := motion.NewTable(len(rt.records))
	for i, h := range rt.header {
		if _, ok := mapping[h]; !ok {
			continue
		}
		col := make([]float64, len(rt.records))
		for r, rec := range rt.records {
			v, err := parseCell(rec[i])
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %v", ErrParse, r+2, h, err)
			}
			col[r] = v
		}
		if err := t.Set(h, col); err != nil {
			return nil, err
		}
	}
	t.Rename(mapping)
	return t, nil
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// scaleColumn multiplies a column in place when present.
func scaleColumn(t *motion.Table, name string, factor float64) {
	c := t.Column(name)
	for i := range c {
		c[i] *= factor
	}
}

// frameClock sets the delta-time column to i*interval.
func frameClock(t *motion.Table, intervalMS float64) {
	dt := make([]float64, t.Len())
	for i := range dt {
		dt[i] = float64(i) * intervalMS
	}
	_ = t.Set(motion.DeltaTimeColumn, dt)
}
