package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
)

var identity = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

func TestDecodePose_Identity(t *testing.T) {
	p := DecodePose(identity)
	assert.Equal(t, [3]float64{0, 0, 0}, p.Position)
	assert.InDelta(t, 1, p.Orientation.Real, 1e-12)
	assert.InDelta(t, 0, p.Orientation.Imag, 1e-12)
	assert.InDelta(t, 0, p.Orientation.Jmag, 1e-12)
	assert.InDelta(t, 0, p.Orientation.Kmag, 1e-12)
}

func TestDecodePose_TranslationAndRotation(t *testing.T) {
	// 90° about z, translated to (1, 2, 3).
	T := [16]float64{
		0, -1, 0, 1,
		1, 0, 0, 2,
		0, 0, 1, 3,
		0, 0, 0, 1,
	}
	p := DecodePose(T)
	assert.Equal(t, [3]float64{1, 2, 3}, p.Position)
	assert.InDelta(t, math.Sqrt2/2, p.Orientation.Real, 1e-9)
	assert.InDelta(t, math.Sqrt2/2, p.Orientation.Kmag, 1e-9)
	assert.InDelta(t, 1, quat.Abs(p.Orientation), 1e-12)
}

func TestRotationToQuat_Branches(t *testing.T) {
	// Half turns exercise every non-trace branch.
	tests := []struct {
		name string
		T    [16]float64
		want quat.Number
	}{
		{"x", [16]float64{1, 0, 0, 0, 0, -1, 0, 0, 0, 0, -1, 0, 0, 0, 0, 1}, quat.Number{Imag: 1}},
		{"y", [16]float64{-1, 0, 0, 0, 0, 1, 0, 0, 0, 0, -1, 0, 0, 0, 0, 1}, quat.Number{Jmag: 1}},
		{"z", [16]float64{-1, 0, 0, 0, 0, -1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}, quat.Number{Kmag: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := RotationToQuat(tt.T)
			assert.InDelta(t, tt.want.Real, q.Real, 1e-9)
			assert.InDelta(t, tt.want.Imag, q.Imag, 1e-9)
			assert.InDelta(t, tt.want.Jmag, q.Jmag, 1e-9)
			assert.InDelta(t, tt.want.Kmag, q.Kmag, 1e-9)
		})
	}
}

func TestRotationToQuat_RoundTripsEuler(t *testing.T) {
	q := EulerToQuat(20, -35, 110, IntrinsicXYZ)
	T := quatToMatrix(q)
	got := RotationToQuat(T)
	assert.InDelta(t, q.Real, got.Real, 1e-9)
	assert.InDelta(t, q.Imag, got.Imag, 1e-9)
	assert.InDelta(t, q.Jmag, got.Jmag, 1e-9)
	assert.InDelta(t, q.Kmag, got.Kmag, 1e-9)
}

func quatToMatrix(q quat.Number) [16]float64 {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return [16]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w), 0,
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w), 0,
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y), 0,
		0, 0, 0, 1,
	}
}

func TestParseTransform(t *testing.T) {
	t.Run("3x4 gets default bottom row", func(t *testing.T) {
		T, err := ParseTransform("1 0 0 0.5  0 1 0 1.5  0 0 1 -2")
		require.NoError(t, err)
		assert.Equal(t, [4]float64{0, 0, 0, 1}, [4]float64{T[12], T[13], T[14], T[15]})
		assert.Equal(t, 0.5, T[3])
		assert.True(t, IsValidTransformMatrix(T))
	})

	t.Run("4x4 kept verbatim", func(t *testing.T) {
		T, err := ParseTransform("1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1")
		require.NoError(t, err)
		assert.Equal(t, identity, T)
	})

	t.Run("wrong count", func(t *testing.T) {
		_, err := ParseTransform("1 0 0")
		assert.ErrorIs(t, err, ErrMalformedPose)
	})

	t.Run("non-numeric token", func(t *testing.T) {
		_, err := ParseTransform("1 0 0 0 0 1 0 0 0 0 x 0")
		assert.ErrorIs(t, err, ErrMalformedPose)
	})
}

func TestIsValidTransformMatrix(t *testing.T) {
	assert.True(t, IsValidTransformMatrix(identity))

	scaled := identity
	scaled[0] = 2
	assert.False(t, IsValidTransformMatrix(scaled))

	projective := identity
	projective[12] = 0.5
	assert.False(t, IsValidTransformMatrix(projective))
}
