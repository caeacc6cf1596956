package motion

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// DefaultMinFrames is the smallest number of frames a recording may have
// and still be emitted.
const DefaultMinFrames = 10

var (
	// ErrTooFewFrames reports a recording shorter than the frame minimum.
	ErrTooFewFrames = errors.New("recording is too short")
	// ErrNonMonotonicTime reports a delta-time column that decreases or is missing.
	ErrNonMonotonicTime = errors.New("delta time is not monotonically non-decreasing")
)

// Label is one identifying metadata column attached uniformly to every
// frame of a recording (user, session, scene, build, ...).
type Label struct {
	Key   string
	Value string
}

// Recording is one session of one user, ready to be written as one output file.
type Recording struct {
	Dataset string
	// Name is the output path stem relative to the output root, using '/'
	// separators and no extension.
	Name   string
	Source string
	Table  *Table
	Labels []Label
}

// SetLabel sets or replaces a label, keeping first-insertion order.
func (r *Recording) SetLabel(key, value string) {
	for i := range r.Labels {
		if r.Labels[i].Key == key {
			r.Labels[i].Value = value
			return
		}
	}
	r.Labels = append(r.Labels, Label{Key: key, Value: value})
}

// Label returns the value of the named label.
func (r *Recording) Label(key string) (string, bool) {
	for _, l := range r.Labels {
		if l.Key == key {
			return l.Value, true
		}
	}
	return "", false
}

// Frames returns the number of frames in the recording.
func (r *Recording) Frames() int {
	if r.Table == nil {
		return 0
	}
	return r.Table.Len()
}

// DurationMS returns the span of the delta-time column.
func (r *Recording) DurationMS() float64 {
	if r.Table == nil || r.Table.Len() == 0 {
		return 0
	}
	dt := r.Table.Column(DeltaTimeColumn)
	if dt == nil {
		return 0
	}
	return dt[len(dt)-1] - dt[0]
}

// Finalize rebases the delta-time column so the first frame is at 0,
// checks that it never decreases, and rejects recordings with fewer than
// minFrames frames.
func (r *Recording) Finalize(minFrames int) error {
	if r.Table == nil {
		return fmt.Errorf("%s: %w: no table", r.Name, ErrTooFewFrames)
	}
	if n := r.Table.Len(); n < minFrames {
		return fmt.Errorf("%s: %w: %d frames, need at least %d", r.Name, ErrTooFewFrames, n, minFrames)
	}
	dt := r.Table.Column(DeltaTimeColumn)
	if dt == nil {
		return fmt.Errorf("%s: %w: no %s column", r.Name, ErrNonMonotonicTime, DeltaTimeColumn)
	}
	origin := dt[0]
	for i := range dt {
		if math.IsNaN(dt[i]) {
			return fmt.Errorf("%s: %w: missing value at frame %d", r.Name, ErrNonMonotonicTime, i)
		}
		if i > 0 && dt[i] < dt[i-1] {
			return fmt.Errorf("%s: %w: frame %d at %.3fms precedes %.3fms", r.Name, ErrNonMonotonicTime, i, dt[i]-origin, dt[i-1]-origin)
		}
	}
	// The table is only touched once the whole column has been checked.
	for i := range dt {
		dt[i] -= origin
	}
	return nil
}

// CountNonUnitQuaternions returns how many joint-frames carry a quaternion
// whose norm differs from 1 by more than tol. Rows with missing components
// are ignored.
func CountNonUnitQuaternions(t *Table, tol float64) int {
	bad := 0
	for _, j := range Joints {
		rc := RotColumns(j)
		x, y, z, w := t.Column(rc[0]), t.Column(rc[1]), t.Column(rc[2]), t.Column(rc[3])
		if x == nil || y == nil || z == nil || w == nil {
			continue
		}
		for i := 0; i < t.Len(); i++ {
			q := quat.Number{Real: w[i], Imag: x[i], Jmag: y[i], Kmag: z[i]}
			n := quat.Abs(q)
			if math.IsNaN(n) {
				continue
			}
			if math.Abs(n-1) > tol {
				bad++
			}
		}
	}
	return bad
}
