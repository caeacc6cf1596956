package motion

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"

	"github.com/banshee-data/xrmotion/internal/units"
)

// EulerSequence names the axis order used to interpret Euler angle triples.
// Upper case is intrinsic (rotating axes), lower case is extrinsic (fixed axes).
type EulerSequence string

const (
	IntrinsicXYZ EulerSequence = "XYZ"
	ExtrinsicXYZ EulerSequence = "xyz"
)

// ParseEulerSequence validates s as a supported sequence. The empty string
// selects IntrinsicXYZ.
func ParseEulerSequence(s string) (EulerSequence, error) {
	switch EulerSequence(s) {
	case "", IntrinsicXYZ:
		return IntrinsicXYZ, nil
	case ExtrinsicXYZ:
		return ExtrinsicXYZ, nil
	default:
		return "", fmt.Errorf("unsupported euler sequence %q (want XYZ or xyz)", s)
	}
}

// ErrUnknownUnit reports a position unit with no known scale to centimeters.
var ErrUnknownUnit = errors.New("unknown position unit")

// Normalization describes the conversion a dataset needs to reach the
// output convention: centimeters, right-up-forward, quaternion rotations.
//
// Apply always runs the steps in the same order: Euler angles to
// quaternions, unit scaling, then the handedness flip. The flip therefore
// acts on final quaternion components and never on Euler angles.
type Normalization struct {
	// EulerJoints lists joints whose rot_x/rot_y/rot_z columns hold Euler
	// angles in degrees.
	EulerJoints []string
	Sequence    EulerSequence
	// PositionUnit is the raw length unit of *_pos_* columns. Empty leaves
	// positions unscaled.
	PositionUnit string
	// FlipHandedness converts right-up-back input to right-up-forward.
	FlipHandedness bool
}

// Apply normalizes t in place. Applying the same Normalization twice is
// not a no-op: positions are scaled again. An unknown PositionUnit is
// rejected before the table is touched.
func (n Normalization) Apply(t *Table) error {
	if n.PositionUnit != "" && !units.IsValid(n.PositionUnit) {
		return fmt.Errorf("%w %q (valid: %s)", ErrUnknownUnit, n.PositionUnit, units.GetValidUnitsString())
	}
	if len(n.EulerJoints) > 0 {
		seq := n.Sequence
		if seq == "" {
			seq = IntrinsicXYZ
		}
		if err := EulerToQuaternion(t, seq, n.EulerJoints...); err != nil {
			return err
		}
	}
	if scale := units.CentimeterScale(n.PositionUnit); n.PositionUnit != "" && scale != 1 {
		ScalePositions(t, scale)
	}
	if n.FlipHandedness {
		FlipHandedness(t)
	}
	return nil
}

// ScalePositions multiplies every position column by factor and returns
// the names of the columns it touched.
func ScalePositions(t *Table, factor float64) []string {
	var touched []string
	for _, name := range t.names {
		if !IsPositionColumn(name) {
			continue
		}
		c := t.cols[name]
		for i := range c {
			c[i] *= factor
		}
		touched = append(touched, name)
	}
	return touched
}

// FlipHandedness negates every column ending in _z or _w, converting between
// right-up-back and right-up-forward. It returns the names it touched.
func FlipHandedness(t *Table) []string {
	var touched []string
	for _, name := range t.names {
		if !IsHandednessColumn(name) {
			continue
		}
		c := t.cols[name]
		for i := range c {
			c[i] = -c[i]
		}
		touched = append(touched, name)
	}
	return touched
}

// EulerToQuaternion replaces the Euler angle columns of each joint with a
// canonical unit quaternion (x, y, z, w). Joints missing any of the three
// angle columns are skipped. An existing rot_w column is overwritten.
func EulerToQuaternion(t *Table, seq EulerSequence, joints ...string) error {
	if _, err := ParseEulerSequence(string(seq)); err != nil {
		return err
	}
	for _, j := range joints {
		rc := RotColumns(j)
		ax, ay, az := t.Column(rc[0]), t.Column(rc[1]), t.Column(rc[2])
		if ax == nil || ay == nil || az == nil {
			continue
		}
		w := make([]float64, t.rows)
		for i := 0; i < t.rows; i++ {
			q := EulerToQuat(ax[i], ay[i], az[i], seq)
			ax[i], ay[i], az[i], w[i] = q.Imag, q.Jmag, q.Kmag, q.Real
		}
		if err := t.Set(rc[3], w); err != nil {
			return err
		}
	}
	return nil
}

// EulerToQuat converts an angle triple in degrees to a canonical unit quaternion.
func EulerToQuat(xDeg, yDeg, zDeg float64, seq EulerSequence) quat.Number {
	qx := axisQuat(xDeg, 0)
	qy := axisQuat(yDeg, 1)
	qz := axisQuat(zDeg, 2)
	var q quat.Number
	if seq == ExtrinsicXYZ {
		q = quat.Mul(qz, quat.Mul(qy, qx))
	} else {
		q = quat.Mul(qx, quat.Mul(qy, qz))
	}
	return Canonical(q)
}

func axisQuat(deg float64, axis int) quat.Number {
	half := deg * math.Pi / 360.0
	s, c := math.Sin(half), math.Cos(half)
	switch axis {
	case 0:
		return quat.Number{Real: c, Imag: s}
	case 1:
		return quat.Number{Real: c, Jmag: s}
	default:
		return quat.Number{Real: c, Kmag: s}
	}
}

// Canonical returns the unit quaternion representing the same rotation as q
// with a non-negative scalar part. When the scalar part is zero the first
// non-zero vector component is made positive.
func Canonical(q quat.Number) quat.Number {
	if n := quat.Abs(q); n > 0 && !math.IsNaN(n) && !math.IsInf(n, 0) {
		q = quat.Scale(1/n, q)
	}
	flip := false
	switch {
	case q.Real < 0:
		flip = true
	case q.Real == 0:
		for _, v := range []float64{q.Imag, q.Jmag, q.Kmag} {
			if v != 0 {
				flip = v < 0
				break
			}
		}
	}
	if flip {
		q = quat.Scale(-1, q)
	}
	return q
}
