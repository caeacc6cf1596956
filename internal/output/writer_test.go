package output

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/xrmotion/internal/fsutil"
	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/security"
)

func sampleRecording(t *testing.T) *motion.Recording {
	t.Helper()
	tb := motion.NewTable(2)
	require.NoError(t, tb.Set("drawing", []float64{0, 1}))
	require.NoError(t, tb.Set(motion.PosColumn(motion.RightHand, 'x'), []float64{1.23456, -0.0001}))
	require.NoError(t, tb.Set(motion.DeltaTimeColumn, []float64{0, 11.1119}))
	require.NoError(t, tb.Set(motion.PosColumn(motion.Head, 'y'), []float64{170, math.NaN()}))
	rec := &motion.Recording{Name: "user1/session-a", Table: tb}
	rec.SetLabel("user", "user1")
	rec.SetLabel("session", "session-a")
	return rec
}

func TestOrderColumns(t *testing.T) {
	rec := sampleRecording(t)
	want := []string{"delta_time_ms", "head_pos_y", "right_hand_pos_x", "drawing"}
	if diff := cmp.Diff(want, OrderColumns(rec.Table)); diff != "" {
		t.Errorf("column order mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1.235", FormatValue(1.23456, 3))
	assert.Equal(t, "0", FormatValue(-0.0001, 3))
	assert.Equal(t, "170", FormatValue(170, 3))
	assert.Equal(t, "", FormatValue(math.NaN(), 3))
	assert.Equal(t, "-12.5", FormatValue(-12.5, 3))
}

func TestWriter_WriteCSV(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w := NewWriter(mfs, "/out", CSV, DefaultPrecision)

	path, err := w.Write(sampleRecording(t))
	require.NoError(t, err)
	assert.Equal(t, "/out/user1/session-a.csv", path)

	data, err := mfs.ReadFile(path)
	require.NoError(t, err)
	want := "delta_time_ms,head_pos_y,right_hand_pos_x,drawing,user,session\n" +
		"0,170,1.235,0,user1,session-a\n" +
		"11.112,,0,1,user1,session-a\n"
	assert.Equal(t, want, string(data))
	assert.Equal(t, []string{"/out/user1/session-a.csv"}, mfs.Files())
}

func TestWriter_WriteTSV(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w := NewWriter(mfs, "/out", TSV, 1)

	path, err := w.Write(sampleRecording(t))
	require.NoError(t, err)
	data, err := mfs.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "0\t170\t1.2\t0\tuser1\tsession-a", lines[1])
}

func TestWriter_FailedWriteLeavesNoFile(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.CloseErr = errors.New("disk full")
	w := NewWriter(mfs, "/out", CSV, DefaultPrecision)

	_, err := w.Write(sampleRecording(t))
	require.Error(t, err)
	assert.Empty(t, mfs.Files())
}

func TestWriter_RejectsEscapingName(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w := NewWriter(mfs, "/out", CSV, DefaultPrecision)
	rec := sampleRecording(t)
	rec.Name = "../../etc/passwd"

	_, err := w.Write(rec)
	assert.True(t, errors.Is(err, security.ErrUnsafeName))
	assert.Empty(t, mfs.Files())
}
