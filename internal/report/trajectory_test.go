package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/xrmotion/internal/motion"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func testRecording(t *testing.T) *motion.Recording {
	t.Helper()
	tbl := motion.NewTable(4)
	require.NoError(t, tbl.Set(motion.DeltaTimeColumn, []float64{0, 11, 22, 33}))
	require.NoError(t, tbl.Set(motion.PosColumn(motion.Head, 'y'), []float64{160, 161, 162, 161}))
	require.NoError(t, tbl.Set(motion.PosColumn(motion.RightHand, 'y'), []float64{100, 110, 120, 130}))
	return &motion.Recording{Dataset: "moore_cross_domain23", Name: "FAB001a_build1", Table: tbl}
}

func TestTrajectoryPlot(t *testing.T) {
	p, err := TrajectoryPlot(testRecording(t))
	require.NoError(t, err)
	assert.Equal(t, "FAB001a_build1", p.Title.Text)
}

func TestTrajectoryPlot_NothingToPlot(t *testing.T) {
	tbl := motion.NewTable(2)
	require.NoError(t, tbl.Set(motion.DeltaTimeColumn, []float64{0, 1}))
	_, err := TrajectoryPlot(&motion.Recording{Name: "empty", Table: tbl})
	assert.True(t, errors.Is(err, ErrNothingToPlot))

	_, err = TrajectoryPlot(&motion.Recording{Name: "no-table"})
	assert.True(t, errors.Is(err, ErrNothingToPlot))
}

func TestRenderTrajectory_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTrajectory(testRecording(t), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPlotTrajectory_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.png")
	require.NoError(t, PlotTrajectory(testRecording(t), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}
