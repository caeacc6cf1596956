package datasets

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/security"
	"github.com/banshee-data/xrmotion/internal/units"
)

var handColumns = map[string]string{
	"Unity.realtimeSinceStartup":               motion.DeltaTimeColumn,
	"Unity.HeadPosition.position_x":            "head_pos_x",
	"Unity.HeadPosition.position_y":            "head_pos_y",
	"Unity.HeadPosition.position_z":            "head_pos_z",
	"Unity.HeadPosition.rotation.quaternion_x": "head_rot_x",
	"Unity.HeadPosition.rotation.quaternion_y": "head_rot_y",
	"Unity.HeadPosition.rotation.quaternion_z": "head_rot_z",
	"Unity.HeadPosition.rotation.quaternion_w": "head_rot_w",
	"Unity.L_Wrist.position_x":                 "left_hand_pos_x",
	"Unity.L_Wrist.position_y":                 "left_hand_pos_y",
	"Unity.L_Wrist.position_z":                 "left_hand_pos_z",
	"Unity.L_Wrist.rotation.quaternion_x":      "left_hand_rot_x",
	"Unity.L_Wrist.rotation.quaternion_y":      "left_hand_rot_y",
	"Unity.L_Wrist.rotation.quaternion_z":      "left_hand_rot_z",
	"Unity.L_Wrist.rotation.quaternion_w":      "left_hand_rot_w",
	"Unity.R_Wrist.position_x":                 "right_hand_pos_x",
	"Unity.R_Wrist.position_y":                 "right_hand_pos_y",
	"Unity.R_Wrist.position_z":                 "right_hand_pos_z",
	"Unity.R_Wrist.rotation.quaternion_x":      "right_hand_rot_x",
	"Unity.R_Wrist.rotation.quaternion_y":      "right_hand_rot_y",
	"Unity.R_Wrist.rotation.quaternion_z":      "right_hand_rot_z",
	"Unity.R_Wrist.rotation.quaternion_w":      "right_hand_rot_w",
}

// LiebersHand22 reads hand-tracking TSV exports named like
// PID-1_SESSION-2_XR-AR_SCENE-x.tsv.
type LiebersHand22 struct {
	opts Options
}

func (d *LiebersHand22) Name() string { return "liebers_hand22" }

func (d *LiebersHand22) Convert(ctx context.Context, root string, emit func(Result) error) error {
	files, err := filepath.Glob(filepath.Join(root, "*.tsv"))
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

// parseAttributes splits KEY-value pairs joined by underscores.
func parseAttributes(stem string) (map[string]string, error) {
	attrs := make(map[string]string)
	for _, part := range strings.Split(stem, "_") {
		k, v, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("%w: attribute %q in %q has no value", ErrParse, part, stem)
		}
		attrs[k] = v
	}
	return attrs, nil
}

func (d *LiebersHand22) load(path string) (*motion.Recording, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	attrs, err := parseAttributes(stem)
	if err != nil {
		return nil, err
	}
	labels := make([]motion.Label, 0, 4)
	for _, key := range []struct{ attr, label string }{
		{"PID", "user"}, {"SESSION", "session"}, {"XR", "xr"}, {"SCENE", "scene"},
	} {
		v, ok := attrs[key.attr]
		if !ok {
			return nil, fmt.Errorf("%w: %q has no %s attribute", ErrParse, stem, key.attr)
		}
		if key.attr == "PID" || key.attr == "SESSION" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s %q is not a number", ErrParse, key.attr, v)
			}
			v = strconv.Itoa(n)
		}
		labels = append(labels, motion.Label{Key: key.label, Value: v})
	}

	raw, err := readDelimited(path, '\t')
	if err != nil {
		return nil, err
	}
	t, err := raw.numeric(handColumns, "Unity.realtimeSinceStartup")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	norm := motion.Normalization{PositionUnit: units.Meters, FlipHandedness: true}
	if err := norm.Apply(t); err != nil {
		return nil, err
	}
	scaleColumn(t, motion.DeltaTimeColumn, units.MillisecondScale(units.Seconds))

	return &motion.Recording{Name: security.SanitizeFilename(stem), Table: t, Labels: labels}, nil
}
