package datasets

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/security"
	"github.com/banshee-data/xrmotion/internal/units"
)

var mooreColumns = map[string]string{
	"Timestamp":            motion.DeltaTimeColumn,
	"Head_position_x":      "head_pos_x",
	"Head_position_y":      "head_pos_y",
	"Head_position_z":      "head_pos_z",
	"Head_quat_x":          "head_rot_x",
	"Head_quat_y":          "head_rot_y",
	"Head_quat_z":          "head_rot_z",
	"Head_quat_w":          "head_rot_w",
	"LeftHand_position_x":  "left_hand_pos_x",
	"LeftHand_position_y":  "left_hand_pos_y",
	"LeftHand_position_z":  "left_hand_pos_z",
	"LeftHand_quat_x":      "left_hand_rot_x",
	"LeftHand_quat_y":      "left_hand_rot_y",
	"LeftHand_quat_z":      "left_hand_rot_z",
	"LeftHand_quat_w":      "left_hand_rot_w",
	"RightHand_position_x": "right_hand_pos_x",
	"RightHand_position_y": "right_hand_pos_y",
	"RightHand_position_z": "right_hand_pos_z",
	"RightHand_quat_x":     "right_hand_rot_x",
	"RightHand_quat_y":     "right_hand_rot_y",
	"RightHand_quat_z":     "right_hand_rot_z",
	"RightHand_quat_w":     "right_hand_rot_w",
}

var mooreUser = regexp.MustCompile(`FAB\d{3}.`)

// MooreCrossDomain23 reads data/<token>_<build>.csv files with seconds
// timestamps, meters and right-up-back quaternions.
type MooreCrossDomain23 struct {
	opts Options
}

func (d *MooreCrossDomain23) Name() string { return "moore_cross_domain23" }

func (d *MooreCrossDomain23) Convert(ctx context.Context, root string, emit func(Result) error) error {
	files, err := filepath.Glob(filepath.Join(root, "data", "*.csv"))
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

func (d *MooreCrossDomain23) load(path string) (*motion.Recording, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	token, build, ok := strings.Cut(stem, "_")
	if !ok || strings.Contains(build, "_") {
		return nil, fmt.Errorf("%w: file name %q is not <token>_<build>", ErrParse, stem)
	}
	user := mooreUser.FindString(token)
	if user == "" {
		return nil, fmt.Errorf("%w: no user id in %q", ErrParse, token)
	}

	raw, err := readDelimited(path, ',')
	if err != nil {
		return nil, err
	}
	t, err := raw.numeric(mooreColumns, "Timestamp")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	norm := motion.Normalization{PositionUnit: units.Meters, FlipHandedness: true}
	if err := norm.Apply(t); err != nil {
		return nil, err
	}
	scaleColumn(t, motion.DeltaTimeColumn, units.MillisecondScale(units.Seconds))

	rec := &motion.Recording{Name: security.SanitizeFilename(stem), Table: t}
	rec.SetLabel("user", user)
	rec.SetLabel("build", build)
	return rec, nil
}
