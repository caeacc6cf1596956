package datasets

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/security"
	"github.com/banshee-data/xrmotion/internal/units"
)

// BeatSaberStudyFile is the single CSV holding every session of the study.
const BeatSaberStudyFile = "Data_Set_for_Exploring_the_Stability_of_Behavioral_Biometrics_in_Virtual_Reality.csv"

var beatSaberColumns = map[string]string{
	"frame-movements-pos-x-head":          "head_pos_x",
	"frame-movements-pos-y-head":          "head_pos_y",
	"frame-movements-pos-z-head":          "head_pos_z",
	"frame-movements-euler-x-head":        "head_rot_x",
	"frame-movements-euler-y-head":        "head_rot_y",
	"frame-movements-euler-z-head":        "head_rot_z",
	"frame-movements-pos-x-lcontroller":   "left_hand_pos_x",
	"frame-movements-pos-y-lcontroller":   "left_hand_pos_y",
	"frame-movements-pos-z-lcontroller":   "left_hand_pos_z",
	"frame-movements-euler-x-lcontroller": "left_hand_rot_x",
	"frame-movements-euler-y-lcontroller": "left_hand_rot_y",
	"frame-movements-euler-z-lcontroller": "left_hand_rot_z",
	"frame-movements-pos-x-rcontroller":   "right_hand_pos_x",
	"frame-movements-pos-y-rcontroller":   "right_hand_pos_y",
	"frame-movements-pos-z-rcontroller":   "right_hand_pos_z",
	"frame-movements-euler-x-rcontroller": "right_hand_rot_x",
	"frame-movements-euler-y-rcontroller": "right_hand_rot_y",
	"frame-movements-euler-z-rcontroller": "right_hand_rot_z",
}

const (
	beatSaberSessionColumn = "session-uuid"
	beatSaberUserColumn    = "user-token"
)

// LiebersBeatSaber23 splits the Beat Saber biometrics study CSV into one
// recording per session. The file carries no usable clock, so frames are
// spaced at the configured capture rate.
type LiebersBeatSaber23 struct {
	opts Options
}

func (d *LiebersBeatSaber23) Name() string { return "liebers_beat_saber23" }

func (d *LiebersBeatSaber23) Convert(ctx context.Context, root string, emit func(Result) error) error {
	path := filepath.Join(root, BeatSaberStudyFile)
	raw, err := readDelimited(path, ',')
	if err != nil {
		return emitFailure(emit, path, err)
	}
	sessions, ok := raw.column(beatSaberSessionColumn)
	if !ok {
		return emitFailure(emit, path, fmt.Errorf("%w: missing column %q", ErrParse, beatSaberSessionColumn))
	}
	users, ok := raw.column(beatSaberUserColumn)
	if !ok {
		return emitFailure(emit, path, fmt.Errorf("%w: missing column %q", ErrParse, beatSaberUserColumn))
	}

	groups := make(map[string][]int)
	for i, s := range sessions {
		groups[s] = append(groups[s], i)
	}
	ids := make([]string, 0, len(groups))
	for s := range groups {
		ids = append(ids, s)
	}
	sort.Strings(ids)

	for _, session := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows := groups[session]
		source := fmt.Sprintf("%s#%s", path, session)
		rec, err := d.load(raw.subset(rows), users[rows[0]], session)
		if err != nil {
			if err := emitFailure(emit, source, err); err != nil {
				return err
			}
			continue
		}
		if err := emitRecording(emit, d.Name(), source, rec); err != nil {
			return err
		}
	}
	return nil
}

func (d *LiebersBeatSaber23) load(raw *rawTable, user, session string) (*motion.Recording, error) {
	t, err := raw.numeric(beatSaberColumns)
	if err != nil {
		return nil, err
	}
	n := motion.Normalization{
		EulerJoints:    motion.Joints,
		Sequence:       d.opts.EulerSequence,
		PositionUnit:   units.Meters,
		FlipHandedness: true,
	}
	if err := n.Apply(t); err != nil {
		return nil, err
	}
	frameClock(t, units.FrameIntervalMS(d.opts.BeatSaberFPS))

	rec := &motion.Recording{Name: security.SanitizeFilename(user) + "_" + security.SanitizeFilename(session), Table: t}
	rec.SetLabel("user", user)
	rec.SetLabel("session", session)
	return rec, nil
}
