package datasets

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/security"
	"github.com/banshee-data/xrmotion/internal/units"
)

var labStudyColumns = map[string]string{
	"timestamp_ms":                  motion.DeltaTimeColumn,
	"CenterEyeAnchor_pos_X":         "head_pos_x",
	"CenterEyeAnchor_pos_Y":         "head_pos_y",
	"CenterEyeAnchor_pos_Z":         "head_pos_z",
	"CenterEyeAnchor_euler_X":       "head_rot_x",
	"CenterEyeAnchor_euler_Y":       "head_rot_y",
	"CenterEyeAnchor_euler_Z":       "head_rot_z",
	"LeftControllerAnchor_pos_X":    "left_hand_pos_x",
	"LeftControllerAnchor_pos_Y":    "left_hand_pos_y",
	"LeftControllerAnchor_pos_Z":    "left_hand_pos_z",
	"LeftControllerAnchor_euler_X":  "left_hand_rot_x",
	"LeftControllerAnchor_euler_Y":  "left_hand_rot_y",
	"LeftControllerAnchor_euler_Z":  "left_hand_rot_z",
	"RightControllerAnchor_pos_X":   "right_hand_pos_x",
	"RightControllerAnchor_pos_Y":   "right_hand_pos_y",
	"RightControllerAnchor_pos_Z":   "right_hand_pos_z",
	"RightControllerAnchor_euler_X": "right_hand_rot_x",
	"RightControllerAnchor_euler_Y": "right_hand_rot_y",
	"RightControllerAnchor_euler_Z": "right_hand_rot_z",
}

// LiebersLabStudy21 reads scene_user_norm_session_repetition.csv files with
// Euler-angle orientations in degrees.
type LiebersLabStudy21 struct {
	opts Options
}

func (d *LiebersLabStudy21) Name() string { return "liebers_lab_study21" }

func (d *LiebersLabStudy21) Convert(ctx context.Context, root string, emit func(Result) error) error {
	files, err := filepath.Glob(filepath.Join(root, "*.csv"))
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := d.load(path)
		if err != nil {
			if err := emitFailure(emit, path, err); err != nil {
				return err
			}
			continue
		}
		if err := emitRecording(emit, d.Name(), path, rec); err != nil {
			return err
		}
	}
	return nil
}

func (d *LiebersLabStudy21) load(path string) (*motion.Recording, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(stem, "_")
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: file name %q is not scene_user_norm_session_repetition", ErrParse, stem)
	}
	scene, user, norm, session, repetition := parts[0], parts[1], parts[2], parts[3], parts[4]
	// Sessions are tagged like "s1"/"s2"; only the second is marked.
	sessionNo := "1"
	if strings.HasSuffix(session, "2") {
		sessionNo = "2"
	}

	raw, err := readDelimited(path, ',')
	if err != nil {
		return nil, err
	}
	t, err := raw.numeric(labStudyColumns, "timestamp_ms")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
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

	rec := &motion.Recording{Name: security.SanitizeFilename(stem), Table: t}
	rec.SetLabel("scene", scene)
	rec.SetLabel("user", user)
	rec.SetLabel("norm", norm)
	rec.SetLabel("session", sessionNo)
	rec.SetLabel("repetition", repetition)
	return rec, nil
}
