package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"

	"github.com/banshee-data/xrmotion/internal/units"
)

func cloneTable(t *testing.T, tbl *Table) *Table {
	t.Helper()
	out, err := tbl.Select(tbl.Columns()...)
	require.NoError(t, err)
	for _, name := range out.Columns() {
		c := append([]float64(nil), out.Column(name)...)
		require.NoError(t, out.Set(name, c))
	}
	return out
}

func rawTable(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable(2)
	require.NoError(t, tbl.Set(DeltaTimeColumn, []float64{0, 11}))
	require.NoError(t, tbl.Set("head_pos_x", []float64{0.1, 0.2}))
	require.NoError(t, tbl.Set("head_pos_y", []float64{1.6, 1.7}))
	require.NoError(t, tbl.Set("head_pos_z", []float64{-0.3, 0.4}))
	require.NoError(t, tbl.Set("head_rot_x", []float64{0, 0.1}))
	require.NoError(t, tbl.Set("head_rot_y", []float64{0, 0.2}))
	require.NoError(t, tbl.Set("head_rot_z", []float64{0.6, 0.3}))
	require.NoError(t, tbl.Set("head_rot_w", []float64{0.8, 0.9}))
	return tbl
}

func TestScalePositions(t *testing.T) {
	for _, tc := range []struct {
		unit  string
		scale float64
	}{
		{units.Meters, 100},
		{units.Decimeters, 10},
	} {
		t.Run(tc.unit, func(t *testing.T) {
			tbl := rawTable(t)
			before := cloneTable(t, tbl)

			touched := ScalePositions(tbl, units.CentimeterScale(tc.unit))

			assert.ElementsMatch(t, []string{"head_pos_x", "head_pos_y", "head_pos_z"}, touched)
			for _, c := range touched {
				for i := 0; i < tbl.Len(); i++ {
					assert.InDelta(t, before.Value(c, i)*tc.scale, tbl.Value(c, i), 1e-3)
				}
			}
			assert.Equal(t, before.Column("head_rot_x"), tbl.Column("head_rot_x"))
			assert.Equal(t, before.Column(DeltaTimeColumn), tbl.Column(DeltaTimeColumn))
		})
	}
}

func TestFlipHandedness(t *testing.T) {
	tbl := rawTable(t)
	before := cloneTable(t, tbl)

	touched := FlipHandedness(tbl)

	assert.ElementsMatch(t, []string{"head_pos_z", "head_rot_z", "head_rot_w"}, touched)
	for _, c := range touched {
		for i := 0; i < tbl.Len(); i++ {
			assert.Equal(t, -before.Value(c, i), tbl.Value(c, i))
		}
	}
	assert.Equal(t, before.Column("head_pos_x"), tbl.Column("head_pos_x"))
}

func TestNormalization_RejectsUnknownUnit(t *testing.T) {
	tbl := rawTable(t)
	before := cloneTable(t, tbl)

	err := Normalization{PositionUnit: "meters", FlipHandedness: true}.Apply(tbl)

	require.ErrorIs(t, err, ErrUnknownUnit)
	assert.Contains(t, err.Error(), "m, dm, cm, mm")
	assert.Equal(t, before.Column("head_pos_x"), tbl.Column("head_pos_x"))
	assert.Equal(t, before.Column("head_rot_w"), tbl.Column("head_rot_w"))
}

func TestNormalization_EmptyUnitLeavesPositions(t *testing.T) {
	tbl := rawTable(t)
	require.NoError(t, Normalization{}.Apply(tbl))
	assert.Equal(t, 0.1, tbl.Value("head_pos_x", 0))
}

func TestNormalization_ApplyTwiceIsNotIdentity(t *testing.T) {
	tbl := rawTable(t)
	before := cloneTable(t, tbl)
	n := Normalization{PositionUnit: units.Meters, FlipHandedness: true}

	require.NoError(t, n.Apply(tbl))
	require.NoError(t, n.Apply(tbl))

	assert.NotEqual(t, before.Column("head_pos_z"), tbl.Column("head_pos_z"))
	assert.InDelta(t, before.Value("head_pos_x", 0)*10000, tbl.Value("head_pos_x", 0), 1e-6)
}

func TestEulerToQuat(t *testing.T) {
	t.Run("zero angles give identity", func(t *testing.T) {
		q := EulerToQuat(0, 0, 0, IntrinsicXYZ)
		assert.InDelta(t, 0, q.Imag, 1e-12)
		assert.InDelta(t, 0, q.Jmag, 1e-12)
		assert.InDelta(t, 0, q.Kmag, 1e-12)
		assert.InDelta(t, 1, q.Real, 1e-12)
	})

	t.Run("half turn about x has zero scalar", func(t *testing.T) {
		q := EulerToQuat(180, 0, 0, IntrinsicXYZ)
		assert.InDelta(t, 0, q.Real, 1e-9)
		assert.InDelta(t, 1, quat.Abs(q), 1e-9)
		assert.InDelta(t, 1, q.Imag, 1e-9)
	})

	t.Run("quarter turn about z", func(t *testing.T) {
		q := EulerToQuat(0, 0, 90, IntrinsicXYZ)
		assert.InDelta(t, math.Sqrt2/2, q.Real, 1e-9)
		assert.InDelta(t, math.Sqrt2/2, q.Kmag, 1e-9)
	})

	t.Run("canonical scalar is non-negative", func(t *testing.T) {
		q := EulerToQuat(10, 200, -30, IntrinsicXYZ)
		assert.GreaterOrEqual(t, q.Real, 0.0)
		assert.InDelta(t, 1, quat.Abs(q), 1e-9)
	})

	t.Run("sequences differ for compound rotations", func(t *testing.T) {
		a := EulerToQuat(30, 45, 60, IntrinsicXYZ)
		b := EulerToQuat(30, 45, 60, ExtrinsicXYZ)
		assert.NotEqual(t, a, b)
		// Intrinsic XYZ equals extrinsic ZYX with the angles reversed.
		c := quat.Mul(axisQuat(30, 0), quat.Mul(axisQuat(45, 1), axisQuat(60, 2)))
		assert.InDelta(t, c.Real, a.Real, 1e-9)
	})
}

func TestEulerToQuaternion_Table(t *testing.T) {
	tbl := NewTable(1)
	require.NoError(t, tbl.Set("head_rot_x", []float64{180}))
	require.NoError(t, tbl.Set("head_rot_y", []float64{0}))
	require.NoError(t, tbl.Set("head_rot_z", []float64{0}))
	// left_hand only has two angle columns and must be skipped.
	require.NoError(t, tbl.Set("left_hand_rot_x", []float64{90}))
	require.NoError(t, tbl.Set("left_hand_rot_y", []float64{0}))

	require.NoError(t, EulerToQuaternion(tbl, IntrinsicXYZ, Joints...))

	assert.InDelta(t, 1, tbl.Value("head_rot_x", 0), 1e-9)
	assert.InDelta(t, 0, tbl.Value("head_rot_w", 0), 1e-9)
	assert.False(t, tbl.Has("left_hand_rot_w"))
	assert.Equal(t, 90.0, tbl.Value("left_hand_rot_x", 0))

	assert.Error(t, EulerToQuaternion(tbl, EulerSequence("zyx"), Head))
}

func TestNormalization_EulerBeforeFlip(t *testing.T) {
	tbl := NewTable(1)
	require.NoError(t, tbl.Set("head_pos_z", []float64{1}))
	require.NoError(t, tbl.Set("head_rot_x", []float64{0}))
	require.NoError(t, tbl.Set("head_rot_y", []float64{0}))
	require.NoError(t, tbl.Set("head_rot_z", []float64{90}))

	n := Normalization{EulerJoints: []string{Head}, PositionUnit: units.Meters, FlipHandedness: true}
	require.NoError(t, n.Apply(tbl))

	// The quaternion for 90° about z is (0, 0, √½, √½); the flip negates z and w.
	assert.InDelta(t, -math.Sqrt2/2, tbl.Value("head_rot_z", 0), 1e-9)
	assert.InDelta(t, -math.Sqrt2/2, tbl.Value("head_rot_w", 0), 1e-9)
	assert.InDelta(t, -100, tbl.Value("head_pos_z", 0), 1e-9)
	assert.Equal(t, 0, CountNonUnitQuaternions(tbl, 1e-6))
}

func TestParseEulerSequence(t *testing.T) {
	seq, err := ParseEulerSequence("")
	require.NoError(t, err)
	assert.Equal(t, IntrinsicXYZ, seq)

	seq, err = ParseEulerSequence("xyz")
	require.NoError(t, err)
	assert.Equal(t, ExtrinsicXYZ, seq)

	_, err = ParseEulerSequence("ZXY")
	assert.Error(t, err)
}

func TestCanonical(t *testing.T) {
	q := Canonical(quat.Number{Real: -2})
	assert.Equal(t, quat.Number{Real: 1}, q)

	q = Canonical(quat.Number{Imag: 0, Jmag: -1})
	assert.Equal(t, quat.Number{Jmag: 1}, q)
}
