package datasets

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/xrmotion/internal/monitoring"
	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/security"
	"github.com/banshee-data/xrmotion/internal/units"
)

const (
	vrNetTimestamp = "timestamp"
	vrNetDevice    = "device_id"
	vrNetFrame     = "framecounter"
	vrNetTransform = "deviceToAbsoluteTracking"
)

// VRNet reads <game>/<recording>/pose.csv files. Each row holds one
// device's 3x4 tracking matrix for one frame; devices 0, 1 and 2 are the
// head, left and right hand. Positions are meters, already right-up-forward.
type VRNet struct {
	opts Options
}

func (d *VRNet) Name() string { return "vr_net" }

func (d *VRNet) Convert(ctx context.Context, root string, emit func(Result) error) error {
	files, err := filepath.Glob(filepath.Join(root, "*", "*", "pose.csv"))
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

type vrNetRow struct {
	timestampMS float64
	device      int
	frame       int
	transform   string
}

func (d *VRNet) load(path string) (*motion.Recording, error) {
	recDir := filepath.Dir(path)
	recording := filepath.Base(recDir)
	game := filepath.Base(filepath.Dir(recDir))

	raw, err := readDelimited(path, ',')
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for _, name := range []string{vrNetTimestamp, vrNetDevice, vrNetFrame, vrNetTransform} {
		i := raw.index(name)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s: missing column %q", ErrParse, path, name)
		}
		idx[name] = i
	}

	rows := make([]vrNetRow, 0, len(raw.records))
	skipped := 0
	for _, rec := range raw.records {
		ts, err := parseCell(rec[idx[vrNetTimestamp]])
		if err != nil {
			skipped++
			continue
		}
		dev, err1 := strconv.Atoi(strings.TrimSpace(rec[idx[vrNetDevice]]))
		frame, err2 := strconv.Atoi(strings.TrimSpace(rec[idx[vrNetFrame]]))
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}
		rows = append(rows, vrNetRow{timestampMS: ts, device: dev, frame: frame, transform: rec[idx[vrNetTransform]]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].timestampMS != rows[j].timestampMS {
			return rows[i].timestampMS < rows[j].timestampMS
		}
		return rows[i].device < rows[j].device
	})

	asm := motion.NewAssembler(motion.Joints...)
	for _, r := range rows {
		// Unusable rows leave a gap that interpolation may fill.
		if err := asm.AddRow(r.device, r.frame, r.timestampMS, r.transform); err != nil {
			skipped++
		}
	}
	if skipped > 0 {
		monitoring.Warnf("%s: %s: skipped %d unusable pose rows", d.Name(), path, skipped)
	}
	if asm.InvalidMatrices > 0 {
		monitoring.Warnf("%s: %s: %d pose matrices are not rigid transforms", d.Name(), path, asm.InvalidMatrices)
	}

	t, err := asm.Build(d.opts.MinFrames)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	norm := motion.Normalization{PositionUnit: units.Meters}
	if err := norm.Apply(t); err != nil {
		return nil, err
	}

	user, _, _ := strings.Cut(recording, " ")
	rec := &motion.Recording{Name: security.SanitizeFilename(game) + "_" + security.SanitizeFilename(recording), Table: t}
	rec.SetLabel("session", game)
	rec.SetLabel("user", user)
	return rec, nil
}
