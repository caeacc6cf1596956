package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RecordingSummary is one recording's line in a run summary.
type RecordingSummary struct {
	Name   string
	Frames int
	Status string
}

// RunSummary describes one conversion run.
type RunSummary struct {
	RunID      string
	Dataset    string
	StartedAt  time.Time
	Converted  int
	Skipped    int
	Failed     int
	Recordings []RecordingSummary
}

// Page builds the summary page: outcome totals and frames per converted
// recording.
func (s *RunSummary) Page() *components.Page {
	totals := charts.NewBar()
	totals.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Conversion " + s.Dataset, Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: s.Dataset, Subtitle: subtitle(s)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	totals.SetXAxis([]string{"converted", "skipped", "failed"}).
		AddSeries("recordings", []opts.BarData{
			{Value: s.Converted},
			{Value: s.Skipped},
			{Value: s.Failed},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	names := make([]string, 0, len(s.Recordings))
	frames := make([]opts.BarData, 0, len(s.Recordings))
	for _, r := range s.Recordings {
		if r.Frames == 0 {
			continue
		}
		names = append(names, r.Name)
		frames = append(frames, opts.BarData{Name: r.Name, Value: r.Frames})
	}
	perRecording := charts.NewBar()
	perRecording.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Frames per recording"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithYAxisOpts(opts.YAxis{Name: "frames"}),
	)
	perRecording.SetXAxis(names).AddSeries("frames", frames)

	page := components.NewPage()
	page.AddCharts(totals, perRecording)
	return page
}

func subtitle(s *RunSummary) string {
	sub := fmt.Sprintf("%d converted, %d skipped, %d failed", s.Converted, s.Skipped, s.Failed)
	if s.RunID != "" {
		sub = "run " + s.RunID + " · " + sub
	}
	if !s.StartedAt.IsZero() {
		sub += " · " + s.StartedAt.Format(time.RFC3339)
	}
	return sub
}

// Render writes the summary page as HTML to w.
func (s *RunSummary) Render(w io.Writer) error {
	return s.Page().Render(w)
}

// WriteRunSummary renders s as an HTML page at path, replacing the file
// only once the page rendered completely.
func WriteRunSummary(s *RunSummary, path string) error {
	var buf bytes.Buffer
	if err := s.Render(&buf); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
