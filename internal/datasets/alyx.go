package datasets

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/security"
)

var alyxColumns = map[string]string{
	motion.DeltaTimeColumn:   motion.DeltaTimeColumn,
	"hmd_pos_x":              "head_pos_x",
	"hmd_pos_y":              "head_pos_y",
	"hmd_pos_z":              "head_pos_z",
	"hmd_rot_x":              "head_rot_x",
	"hmd_rot_y":              "head_rot_y",
	"hmd_rot_z":              "head_rot_z",
	"hmd_rot_w":              "head_rot_w",
	"left_controller_pos_x":  "left_hand_pos_x",
	"left_controller_pos_y":  "left_hand_pos_y",
	"left_controller_pos_z":  "left_hand_pos_z",
	"left_controller_rot_x":  "left_hand_rot_x",
	"left_controller_rot_y":  "left_hand_rot_y",
	"left_controller_rot_z":  "left_hand_rot_z",
	"left_controller_rot_w":  "left_hand_rot_w",
	"right_controller_pos_x": "right_hand_pos_x",
	"right_controller_pos_y": "right_hand_pos_y",
	"right_controller_pos_z": "right_hand_pos_z",
	"right_controller_rot_x": "right_hand_rot_x",
	"right_controller_rot_y": "right_hand_rot_y",
	"right_controller_rot_z": "right_hand_rot_z",
	"right_controller_rot_w": "right_hand_rot_w",
}

// WhoIsAlyx reads players/<id>/<session>/vr-controllers*.csv. The raw data
// is already in centimeters and right-up-forward, so only columns are
// renamed. A session may be split into two parts; the second part's file
// name ends in "2".
type WhoIsAlyx struct {
	opts Options
}

func (d *WhoIsAlyx) Name() string { return "who_is_alyx" }

func (d *WhoIsAlyx) Convert(ctx context.Context, root string, emit func(Result) error) error {
	files, err := filepath.Glob(filepath.Join(root, "players", "*", "*", "vr-controllers*.csv"))
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

func (d *WhoIsAlyx) load(path string) (*motion.Recording, error) {
	sessionDir := filepath.Dir(path)
	session := filepath.Base(sessionDir)
	playerID := filepath.Base(filepath.Dir(sessionDir))
	player, err := strconv.Atoi(playerID)
	if err != nil {
		return nil, fmt.Errorf("%w: player directory %q is not a number", ErrParse, playerID)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	part := "1"
	if strings.HasSuffix(stem, "2") {
		part = "2"
	}

	raw, err := readDelimited(path, ',')
	if err != nil {
		return nil, err
	}
	t, err := raw.numeric(alyxColumns, motion.DeltaTimeColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rec := &motion.Recording{
		Name:  fmt.Sprintf("player_%02d/%s/recording_part-%s", player, security.SanitizeFilename(session), part),
		Table: t,
	}
	rec.SetLabel("player", strconv.Itoa(player))
	rec.SetLabel("session", session)
	rec.SetLabel("part", part)
	return rec, nil
}
