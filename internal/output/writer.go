package output

import (
	"encoding/csv"
	"fmt"
	"math"
	"path"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/xrmotion/internal/fsutil"
	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/security"
)

// DefaultPrecision is the number of decimals kept in delimited output.
const DefaultPrecision = 3

// Writer writes recordings below Root. Files are written under a temporary
// name and renamed into place, so a failed write never leaves a partial file.
type Writer struct {
	FS        fsutil.FileSystem
	Root      string
	Format    Format
	Precision int
}

// NewWriter creates a writer for the given root directory.
func NewWriter(fs fsutil.FileSystem, root string, format Format, precision int) *Writer {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	return &Writer{FS: fs, Root: root, Format: format, Precision: precision}
}

// Path returns the output path of rec. The recording name is a
// slash-separated stem and must stay inside Root.
func (w *Writer) Path(rec *motion.Recording) (string, error) {
	if err := security.ValidateRecordingName(rec.Name); err != nil {
		return "", err
	}
	return filepath.Join(w.Root, filepath.FromSlash(path.Clean(rec.Name))+w.Format.Extension()), nil
}

// Write serializes rec and returns the path written.
func (w *Writer) Write(rec *motion.Recording) (string, error) {
	if rec.Table == nil {
		return "", fmt.Errorf("%s: no frames to write", rec.Name)
	}
	dst, err := w.Path(rec)
	if err != nil {
		return "", err
	}
	if err := w.FS.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp")
	f, err := w.FS.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", tmp, err)
	}

	cw := csv.NewWriter(f)
	cw.Comma = w.Format.Delimiter()
	werr := writeRecording(cw, rec, w.Precision)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = w.FS.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", dst, werr)
	}
	if err := w.FS.Rename(tmp, dst); err != nil {
		_ = w.FS.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", dst, err)
	}
	return dst, nil
}

func writeRecording(cw *csv.Writer, rec *motion.Recording, precision int) error {
	cols := OrderColumns(rec.Table)
	header := make([]string, 0, len(cols)+len(rec.Labels))
	header = append(header, cols...)
	for _, l := range rec.Labels {
		header = append(header, l.Key)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	ordered, err := rec.Table.Select(cols...)
	if err != nil {
		return err
	}
	data := make([][]float64, len(cols))
	for i, c := range cols {
		data[i] = ordered.Column(c)
	}
	row := make([]string, len(header))
	for r := 0; r < rec.Table.Len(); r++ {
		for i := range cols {
			row[i] = FormatValue(data[i][r], precision)
		}
		for i, l := range rec.Labels {
			row[len(cols)+i] = l.Value
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// OrderColumns returns the table's columns in output order: delta time,
// then the pose columns of each joint present, then any other columns in
// table order.
func OrderColumns(t *motion.Table) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] && t.Has(name) {
			seen[name] = true
			out = append(out, name)
		}
	}
	add(motion.DeltaTimeColumn)
	for _, c := range motion.PoseColumns(motion.Joints...) {
		add(c)
	}
	for _, c := range t.Columns() {
		add(c)
	}
	return out
}

// FormatValue rounds v to precision decimals and prints the shortest
// representation. NaN is written as an empty cell.
func FormatValue(v float64, precision int) string {
	if math.IsNaN(v) {
		return ""
	}
	if precision >= 0 {
		p := math.Pow10(precision)
		v = math.Round(v*p) / p
	}
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
