package datasets

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/security"
	"github.com/banshee-data/xrmotion/internal/units"
)

// ballThrowDevices maps the device suffix of a per-joint file to its joint.
var ballThrowDevices = []struct {
	suffix string
	joint  string
}{
	{"Head", motion.Head},
	{"Left", motion.LeftHand},
	{"Right", motion.RightHand},
}

// ballThrowFields is the number of values per row: position xyz,
// quaternion wxyz and the trigger state.
const ballThrowFields = 8

// RMillerBall22 reads the ball-throwing study. Each session is stored as one
// headerless CSV per joint, VR Motions/{system}_{user}_{session}_{Head,Left,Right}.csv,
// holding several repetitions separated by non-numeric marker lines. Every
// repetition lasts three seconds.
type RMillerBall22 struct {
	opts Options
}

func (d *RMillerBall22) Name() string { return "rmiller_ball22" }

type ballThrowSession struct {
	system, user, session string
}

func (s ballThrowSession) stem() string {
	return s.system + "_" + s.user + "_" + s.session
}

func (d *RMillerBall22) Convert(ctx context.Context, root string, emit func(Result) error) error {
	dir := filepath.Join(root, "VR Motions")
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return err
	}

	seen := make(map[ballThrowSession]bool)
	var sessions []ballThrowSession
	for _, f := range files {
		parts := strings.Split(strings.TrimSuffix(filepath.Base(f), ".csv"), "_")
		if len(parts) != 4 {
			if err := emitFailure(emit, f, fmt.Errorf("%w: file name is not system_user_session_device", ErrParse)); err != nil {
				return err
			}
			continue
		}
		s := ballThrowSession{system: parts[0], user: parts[1], session: parts[2]}
		if !seen[s] {
			seen[s] = true
			sessions = append(sessions, s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.user != b.user {
			return a.user < b.user
		}
		if a.system != b.system {
			return a.system < b.system
		}
		return a.session < b.session
	})

	for _, s := range sessions {
		if err := ctx.Err(); err != nil {
			return err
		}
		source := filepath.Join(dir, s.stem())
		recs, err := d.loadSession(dir, s)
		if err != nil {
			if err := emitFailure(emit, source, err); err != nil {
				return err
			}
			continue
		}
		for _, rec := range recs {
			if err := emitRecording(emit, d.Name(), source, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *RMillerBall22) loadSession(dir string, s ballThrowSession) ([]*motion.Recording, error) {
	perJoint := make([][][][]float64, len(ballThrowDevices))
	reps := -1
	for i, dev := range ballThrowDevices {
		segments, err := readRepetitions(filepath.Join(dir, s.stem()+"_"+dev.suffix+".csv"))
		if err != nil {
			return nil, err
		}
		perJoint[i] = segments
		if reps < 0 || len(segments) < reps {
			reps = len(segments)
		}
	}

	recs := make([]*motion.Recording, 0, reps)
	for rep := 0; rep < reps; rep++ {
		n := -1
		for _, segments := range perJoint {
			if n < 0 || len(segments[rep]) < n {
				n = len(segments[rep])
			}
		}
		t := motion.NewTable(n)
		for i, dev := range ballThrowDevices {
			rows := perJoint[i][rep]
			// Raw quaternions are stored w first.
			cols := []string{
				motion.PosColumn(dev.joint, 'x'), motion.PosColumn(dev.joint, 'y'), motion.PosColumn(dev.joint, 'z'),
				motion.RotColumn(dev.joint, 'w'), motion.RotColumn(dev.joint, 'x'), motion.RotColumn(dev.joint, 'y'), motion.RotColumn(dev.joint, 'z'),
			}
			for c, name := range cols {
				col := make([]float64, n)
				for r := 0; r < n; r++ {
					col[r] = rows[r][c]
				}
				if err := t.Set(name, col); err != nil {
					return nil, err
				}
			}
		}
		norm := motion.Normalization{PositionUnit: units.Meters, FlipHandedness: true}
		if err := norm.Apply(t); err != nil {
			return nil, err
		}
		frameClock(t, units.FrameIntervalMS(float64(n/3)))

		rec := &motion.Recording{Name: fmt.Sprintf("%s_%d", security.SanitizeFilename(s.stem()), rep), Table: t}
		rec.SetLabel("system", s.system)
		rec.SetLabel("user", s.user)
		rec.SetLabel("session", s.session)
		rec.SetLabel("repetition", strconv.Itoa(rep))
		recs = append(recs, rec)
	}
	return recs, nil
}

// readRepetitions splits a headerless joint file into runs of numeric rows.
// Any row that is not fully numeric ends the current run.
func readRepetitions(path string) ([][][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var segments [][][]float64
	var cur [][]float64
	flush := func() {
		if len(cur) > 0 {
			segments = append(segments, cur)
			cur = nil
		}
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
		}
		row, ok := numericRow(rec)
		if !ok {
			flush()
			continue
		}
		cur = append(cur, row)
	}
	flush()
	return segments, nil
}

func numericRow(rec []string) ([]float64, bool) {
	if len(rec) < ballThrowFields {
		return nil, false
	}
	row := make([]float64, ballThrowFields)
	for i := range row {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
		if err != nil || math.IsNaN(v) {
			return nil, false
		}
		row[i] = v
	}
	return row, true
}
