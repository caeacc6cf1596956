package motion

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// MatrixValidationTolerance is the tolerance for checking rotation matrix validity
const MatrixValidationTolerance = 0.01

// ErrMalformedPose reports a pose matrix that cannot be parsed into 12 or
// 16 numeric values.
var ErrMalformedPose = errors.New("malformed pose matrix")

// Pose is a decoded device pose: world-space position and unit orientation.
type Pose struct {
	Position    [3]float64
	Orientation quat.Number
}

// ParseTransform parses a whitespace-separated, row-major 3x4 or 4x4
// homogeneous transform. A 3x4 input gets the bottom row [0 0 0 1].
func ParseTransform(s string) ([16]float64, error) {
	fields := strings.Fields(s)
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return [16]float64{}, fmt.Errorf("%w: token %d %q: %v", ErrMalformedPose, i, f, err)
		}
		vals[i] = v
	}
	return TransformFromValues(vals)
}

// TransformFromValues builds a row-major 4x4 transform from 12 or 16 values.
func TransformFromValues(vals []float64) ([16]float64, error) {
	var T [16]float64
	switch len(vals) {
	case 12:
		copy(T[:12], vals)
		T[15] = 1
	case 16:
		copy(T[:], vals)
	default:
		return T, fmt.Errorf("%w: got %d values, want 12 or 16", ErrMalformedPose, len(vals))
	}
	return T, nil
}

// DecodePose recovers position and orientation from a row-major 4x4 device
// pose matrix. The position is the image of the origin (0,0,0,1); the
// orientation comes from the top-left 3x3 rotation block.
func DecodePose(T [16]float64) Pose {
	m := mat.NewDense(4, 4, T[:])
	var p mat.VecDense
	p.MulVec(m, mat.NewVecDense(4, []float64{0, 0, 0, 1}))
	return Pose{
		Position:    [3]float64{p.AtVec(0), p.AtVec(1), p.AtVec(2)},
		Orientation: RotationToQuat(T),
	}
}

// RotationToQuat extracts a canonical unit quaternion from the rotation
// block of a row-major 4x4 transform. The branch on the largest diagonal
// term keeps the division well conditioned.
func RotationToQuat(T [16]float64) quat.Number {
	r00, r01, r02 := T[0], T[1], T[2]
	r10, r11, r12 := T[4], T[5], T[6]
	r20, r21, r22 := T[8], T[9], T[10]

	var q quat.Number
	switch tr := r00 + r11 + r22; {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{Real: s / 4, Imag: (r21 - r12) / s, Jmag: (r02 - r20) / s, Kmag: (r10 - r01) / s}
	case r00 > r11 && r00 > r22:
		s := math.Sqrt(1+r00-r11-r22) * 2
		q = quat.Number{Real: (r21 - r12) / s, Imag: s / 4, Jmag: (r01 + r10) / s, Kmag: (r02 + r20) / s}
	case r11 > r22:
		s := math.Sqrt(1+r11-r00-r22) * 2
		q = quat.Number{Real: (r02 - r20) / s, Imag: (r01 + r10) / s, Jmag: s / 4, Kmag: (r12 + r21) / s}
	default:
		s := math.Sqrt(1+r22-r00-r11) * 2
		q = quat.Number{Real: (r10 - r01) / s, Imag: (r02 + r20) / s, Jmag: (r12 + r21) / s, Kmag: s / 4}
	}
	return Canonical(q)
}

// IsValidTransformMatrix checks if a 4x4 matrix is a valid rigid transform.
// A valid rigid transform has:
// 1. Orthonormal rotation submatrix (det ≈ 1)
// 2. Last row is [0 0 0 1]
func IsValidTransformMatrix(T [16]float64) bool {
	r00, r01, r02 := T[0], T[1], T[2]
	r10, r11, r12 := T[4], T[5], T[6]
	r20, r21, r22 := T[8], T[9], T[10]

	// Check determinant ≈ 1 (proper rotation, not reflection)
	det := r00*(r11*r22-r12*r21) - r01*(r10*r22-r12*r20) + r02*(r10*r21-r11*r20)
	if math.Abs(det-1.0) > MatrixValidationTolerance {
		return false
	}

	if T[12] != 0 || T[13] != 0 || T[14] != 0 || math.Abs(T[15]-1.0) > 0.001 {
		return false
	}

	return true
}
