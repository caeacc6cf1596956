package datasets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/security"
	"github.com/banshee-data/xrmotion/internal/units"
	"github.com/banshee-data/xrmotion/internal/xror"
)

// xrorApp describes the frame layout one application writes.
type xrorApp struct {
	columns []string
	// timeUnit is the unit of the first column.
	timeUnit string
}

var xrorApps = map[string]xrorApp{
	"Beat Saber": {
		columns:  append([]string{motion.DeltaTimeColumn}, motion.PoseColumns(motion.Joints...)...),
		timeUnit: units.Seconds,
	},
	"Tilt Brush": {
		columns:  append(append([]string{motion.DeltaTimeColumn}, motion.JointColumns(motion.RightHand)...), "drawing"),
		timeUnit: units.Milliseconds,
	},
}

// BOXRR23 reads <user>/*.xror containers. The frame layout depends on the
// application recorded in the container.
type BOXRR23 struct {
	opts Options
}

func (d *BOXRR23) Name() string { return "boxrr23" }

func (d *BOXRR23) Convert(ctx context.Context, root string, emit func(Result) error) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	var users []string
	for _, e := range entries {
		if e.IsDir() {
			users = append(users, e.Name())
		}
	}
	sort.Strings(users)
	if d.opts.MaxUsers > 0 && len(users) > d.opts.MaxUsers {
		users = users[:d.opts.MaxUsers]
	}

	for _, user := range users {
		files, err := filepath.Glob(filepath.Join(root, user, "*.xror"))
		if err != nil {
			return err
		}
		if d.opts.MaxRecordingsPerUser > 0 && len(files) > d.opts.MaxRecordingsPerUser {
			files = files[:d.opts.MaxRecordingsPerUser]
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
	}
	return nil
}

func (d *BOXRR23) load(path string) (*motion.Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := xror.Unpack(data)
	if err != nil {
		return nil, err
	}
	app, ok := xrorApps[f.Info.AppName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownApp, f.Info.AppName)
	}
	frames, err := f.Frames(len(app.columns))
	if err != nil {
		return nil, err
	}

	t := motion.NewTable(len(frames))
	for c, name := range app.columns {
		col := make([]float64, len(frames))
		for r, row := range frames {
			col[r] = row[c]
		}
		if err := t.Set(name, col); err != nil {
			return nil, err
		}
	}
	norm := motion.Normalization{PositionUnit: units.Meters, FlipHandedness: true}
	if err := norm.Apply(t); err != nil {
		return nil, err
	}
	scaleColumn(t, motion.DeltaTimeColumn, units.MillisecondScale(app.timeUnit))

	user := f.Info.UserID
	if user == "" {
		user = filepath.Base(filepath.Dir(path))
	}
	session := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	rec := &motion.Recording{
		Name:  security.SanitizeFilename(user) + "/" + security.SanitizeFilename(session),
		Table: t,
	}
	rec.SetLabel("user", user)
	rec.SetLabel("session", session)
	rec.SetLabel("app", f.Info.AppName)
	return rec, nil
}
