package datasets

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/xrmotion/internal/testutil"
)

func TestRawTable_NumericRenamesMappedColumns(t *testing.T) {
	path := testutil.WriteTable(t, filepath.Join(t.TempDir(), "raw.csv"), ",",
		[]string{"time", "x", "y", "note"},
		[]string{"1", "2", "3", "a"},
		[]string{"2", "", "5", "b"},
	)
	raw, err := readDelimited(path, ',')
	require.NoError(t, err)

	// "x" takes the name of a raw header that is itself renamed.
	tbl, err := raw.numeric(map[string]string{"time": "delta_time_ms", "x": "y", "y": "z"}, "time")
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"delta_time_ms", "y", "z"}, tbl.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2.0, tbl.Value("y", 0))
	assert.True(t, math.IsNaN(tbl.Value("y", 1)))
	assert.Equal(t, 5.0, tbl.Value("z", 1))
}

func TestRawTable_NumericRequiredColumn(t *testing.T) {
	path := testutil.WriteTable(t, filepath.Join(t.TempDir(), "raw.csv"), ",", []string{"x"}, []string{"1"})
	raw, err := readDelimited(path, ',')
	require.NoError(t, err)

	_, err = raw.numeric(map[string]string{"x": "y"}, "time")
	assert.ErrorIs(t, err, ErrParse)
}
