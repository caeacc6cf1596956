// Package report renders optional visual artifacts for converted
// recordings: a PNG height trace per recording and an HTML summary per run.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/xrmotion/internal/motion"
)

// ErrNothingToPlot reports a recording without time or joint height columns.
var ErrNothingToPlot = errors.New("nothing to plot")

var jointColors = map[string]color.RGBA{
	motion.Head:      {R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	motion.LeftHand:  {R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	motion.RightHand: {R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
}

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// TrajectoryPlot builds a plot of every joint's height over delta time.
func TrajectoryPlot(rec *motion.Recording) (*plot.Plot, error) {
	if rec.Table == nil {
		return nil, ErrNothingToPlot
	}
	dt := rec.Table.Column(motion.DeltaTimeColumn)
	if dt == nil {
		return nil, fmt.Errorf("%s: %w: no %s column", rec.Name, ErrNothingToPlot, motion.DeltaTimeColumn)
	}

	p := plot.New()
	p.Title.Text = rec.Name
	p.X.Label.Text = "Time (ms)"
	p.Y.Label.Text = "Height"
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	lines := 0
	for _, joint := range motion.Joints {
		ys := rec.Table.Column(motion.PosColumn(joint, 'y'))
		if ys == nil {
			continue
		}
		pts := make(plotter.XYs, 0, len(ys))
		for i := range ys {
			if math.IsNaN(ys[i]) || math.IsNaN(dt[i]) {
				continue
			}
			pts = append(pts, plotter.XY{X: dt[i], Y: ys[i]})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("%s line: %w", joint, err)
		}
		line.Color = jointColors[joint]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(joint, line)
		lines++
	}
	if lines == 0 {
		return nil, fmt.Errorf("%s: %w: no joint positions", rec.Name, ErrNothingToPlot)
	}
	return p, nil
}

// RenderTrajectory writes the trajectory plot of rec to w as PNG.
func RenderTrajectory(rec *motion.Recording, w io.Writer) error {
	p, err := TrajectoryPlot(rec)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("png writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// PlotTrajectory saves the trajectory plot of rec to path. The image
// format follows the file extension.
func PlotTrajectory(rec *motion.Recording, path string) error {
	p, err := TrajectoryPlot(rec)
	if err != nil {
		return err
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
