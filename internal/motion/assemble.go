package motion

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/num/quat"
)

var (
	// ErrMissingTimestamp reports a device row without a usable timestamp.
	ErrMissingTimestamp = errors.New("missing timestamp")
	// ErrUnknownDevice reports a device index with no joint assigned.
	ErrUnknownDevice = errors.New("unknown device")
)

// DevicePose is one decoded pose of one device at one frame index.
type DevicePose struct {
	Device int
	Frame  int
	// TimestampMS is the wall-clock capture time in milliseconds.
	TimestampMS float64
	Pose        Pose
}

type assembledFrame struct {
	timestampMS float64
	values      []float64
}

// Assembler scatters interleaved per-device poses into a dense frame table.
// Device i owns the seven pose columns of joints[i].
type Assembler struct {
	joints []string
	frames map[int]*assembledFrame
	// InvalidMatrices counts accepted poses whose matrix was not a proper
	// rigid transform.
	InvalidMatrices int
}

// NewAssembler creates an assembler mapping device index i to joints[i].
func NewAssembler(joints ...string) *Assembler {
	return &Assembler{joints: joints, frames: make(map[int]*assembledFrame)}
}

// AddRow parses a raw transform string and adds the resulting pose. A row
// that cannot be used is rejected with an error and leaves no data behind.
func (a *Assembler) AddRow(device, frame int, timestampMS float64, transform string) error {
	if timestampMS == 0 || math.IsNaN(timestampMS) {
		return fmt.Errorf("frame %d device %d: %w", frame, device, ErrMissingTimestamp)
	}
	T, err := ParseTransform(transform)
	if err != nil {
		return fmt.Errorf("frame %d device %d: %w", frame, device, err)
	}
	if !IsValidTransformMatrix(T) {
		a.InvalidMatrices++
	}
	return a.Add(DevicePose{Device: device, Frame: frame, TimestampMS: timestampMS, Pose: DecodePose(T)})
}

// Add scatters one device pose into its frame. The last timestamp written
// for a frame wins.
func (a *Assembler) Add(p DevicePose) error {
	if p.Device < 0 || p.Device >= len(a.joints) {
		return fmt.Errorf("%w: %d (have %d joints)", ErrUnknownDevice, p.Device, len(a.joints))
	}
	if p.Frame < 0 {
		return fmt.Errorf("negative frame index %d", p.Frame)
	}
	if p.TimestampMS == 0 || math.IsNaN(p.TimestampMS) {
		return fmt.Errorf("frame %d device %d: %w", p.Frame, p.Device, ErrMissingTimestamp)
	}
	f, ok := a.frames[p.Frame]
	if !ok {
		f = &assembledFrame{values: make([]float64, 7*len(a.joints))}
		for i := range f.values {
			f.values[i] = math.NaN()
		}
		a.frames[p.Frame] = f
	}
	f.timestampMS = p.TimestampMS
	o := p.Device * 7
	q := p.Pose.Orientation
	copy(f.values[o:o+7], []float64{
		p.Pose.Position[0], p.Pose.Position[1], p.Pose.Position[2],
		q.Imag, q.Jmag, q.Kmag, q.Real,
	})
	return nil
}

// Frames returns the number of frame indices that received at least one pose.
func (a *Assembler) Frames() int { return len(a.frames) }

// Build orders the frames by time, fills interior device gaps by linear
// interpolation over time, drops frames that still have gaps (the leading
// and trailing boundary), and sets delta_time_ms relative to the first
// kept frame, rounded to whole milliseconds. It fails with ErrTooFewFrames
// when fewer than minFrames frames survive.
func (a *Assembler) Build(minFrames int) (*Table, error) {
	idx := make([]int, 0, len(a.frames))
	for k := range a.frames {
		idx = append(idx, k)
	}
	sort.Slice(idx, func(i, j int) bool {
		fi, fj := a.frames[idx[i]], a.frames[idx[j]]
		if fi.timestampMS != fj.timestampMS {
			return fi.timestampMS < fj.timestampMS
		}
		return idx[i] < idx[j]
	})

	n := len(idx)
	times := make([]float64, n)
	for r, k := range idx {
		times[r] = a.frames[k].timestampMS
	}

	names := PoseColumns(a.joints...)
	cols := make([][]float64, len(names))
	for c := range names {
		col := make([]float64, n)
		for r, k := range idx {
			col[r] = a.frames[k].values[c]
		}
		cols[c] = col
	}
	for j := range a.joints {
		o := 7*j + 3
		alignHemisphere(cols[o], cols[o+1], cols[o+2], cols[o+3])
	}

	t := NewTable(n)
	_ = t.Set(DeltaTimeColumn, times)
	for c, name := range names {
		InterpolateGaps(times, cols[c])
		_ = t.Set(name, cols[c])
	}
	renormalizeQuaternions(t, a.joints)

	out := t.DropIncomplete()
	if out.Len() == 0 || out.Len() < minFrames {
		return nil, fmt.Errorf("%w: %d frames after interpolation, need at least %d", ErrTooFewFrames, out.Len(), minFrames)
	}
	dt := out.Column(DeltaTimeColumn)
	origin := dt[0]
	for i := range dt {
		dt[i] = math.Round(dt[i] - origin)
	}
	return out, nil
}

// InterpolateGaps fills NaN runs in values that lie between two known
// samples, linearly in times. Leading and trailing NaNs are left in place.
// times must be sorted ascending. It returns the number of filled entries.
func InterpolateGaps(times, values []float64) int {
	filled := 0
	prev := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			t0, t1 := times[prev], times[i]
			v0, v1 := values[prev], v
			for k := prev + 1; k < i; k++ {
				if t1 == t0 {
					values[k] = v0
				} else {
					values[k] = v0 + (v1-v0)*(times[k]-t0)/(t1-t0)
				}
				filled++
			}
		}
		prev = i
	}
	return filled
}

// alignHemisphere negates quaternions so that each complete one lies in the
// same hemisphere as the previous complete one. q and -q are the same
// rotation, but filling between antipodal neighbours component-wise would
// pass through zero.
func alignHemisphere(x, y, z, w []float64) {
	prev := -1
	for i := range w {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) || math.IsNaN(z[i]) || math.IsNaN(w[i]) {
			continue
		}
		if prev >= 0 && x[prev]*x[i]+y[prev]*y[i]+z[prev]*z[i]+w[prev]*w[i] < 0 {
			x[i], y[i], z[i], w[i] = -x[i], -y[i], -z[i], -w[i]
		}
		prev = i
	}
}

// renormalizeQuaternions rescales every complete quaternion to unit length
// and restores the canonical sign. Linear interpolation between two unit
// quaternions shortens them.
func renormalizeQuaternions(t *Table, joints []string) {
	for _, j := range joints {
		rc := RotColumns(j)
		x, y, z, w := t.Column(rc[0]), t.Column(rc[1]), t.Column(rc[2]), t.Column(rc[3])
		if x == nil || y == nil || z == nil || w == nil {
			continue
		}
		for i := 0; i < t.Len(); i++ {
			q := quat.Number{Real: w[i], Imag: x[i], Jmag: y[i], Kmag: z[i]}
			n := quat.Abs(q)
			if n == 0 || math.IsNaN(n) {
				continue
			}
			q = Canonical(q)
			x[i], y[i], z[i], w[i] = q.Imag, q.Jmag, q.Kmag, q.Real
		}
	}
}
