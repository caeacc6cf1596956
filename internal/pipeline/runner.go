// Package pipeline drives one dataset adapter through finalization,
// output, cataloguing and optional reports.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/xrmotion/internal/catalog"
	"github.com/banshee-data/xrmotion/internal/datasets"
	"github.com/banshee-data/xrmotion/internal/monitoring"
	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/output"
	"github.com/banshee-data/xrmotion/internal/report"
	"github.com/banshee-data/xrmotion/internal/security"
)

// DefaultQuaternionTolerance is the allowed deviation of a rotation's norm
// from 1 before a recording is flagged.
const DefaultQuaternionTolerance = 0.01

// Runner converts every recording of one dataset.
type Runner struct {
	Dataset datasets.Dataset
	Writer  *output.Writer
	// Catalog is optional; when set every run and recording is recorded.
	Catalog *catalog.Catalog

	MinFrames           int
	QuaternionTolerance float64
	// Workers bounds concurrent writes. Values below 1 mean 1.
	Workers int

	// PlotDir enables a trajectory PNG per converted recording.
	PlotDir string
	// ReportPath enables an HTML run summary.
	ReportPath string
}

// RecordingResult is the outcome of one recording or raw file.
type RecordingResult struct {
	Name       string
	Source     string
	OutputPath string
	Frames     int
	DurationMS float64
	Outcome    Outcome
	Err        error
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Dataset   string
	Converted int
	Skipped   int
	Failed    int
	// Results are sorted by source path, then name.
	Results []RecordingResult
}

func (s *Summary) add(res RecordingResult) {
	switch res.Outcome {
	case Converted:
		s.Converted++
	case Skipped:
		s.Skipped++
	default:
		s.Failed++
	}
	s.Results = append(s.Results, res)
}

// Report converts the summary into its HTML report form. Only converted
// recordings are charted.
func (s *Summary) Report() *report.RunSummary {
	rs := &report.RunSummary{
		RunID:     s.RunID,
		Dataset:   s.Dataset,
		Converted: s.Converted,
		Skipped:   s.Skipped,
		Failed:    s.Failed,
	}
	for _, r := range s.Results {
		if r.Outcome != Converted {
			continue
		}
		rs.Recordings = append(rs.Recordings, report.RecordingSummary{Name: r.Name, Frames: r.Frames, Status: string(r.Outcome)})
	}
	return rs
}

// Run converts the dataset rooted at root. Per-recording problems are
// counted in the summary; the returned error is reserved for problems that
// stop the whole run (cancellation, catalog or report failures, adapter
// traversal errors).
func (r *Runner) Run(ctx context.Context, root string) (*Summary, error) {
	name := r.Dataset.Name()
	summary := &Summary{Dataset: name}

	if r.PlotDir != "" {
		if err := os.MkdirAll(r.PlotDir, 0755); err != nil {
			return nil, fmt.Errorf("create plot directory: %w", err)
		}
	}

	var run *catalog.Run
	if r.Catalog != nil {
		var err error
		run, err = r.Catalog.StartRun(name, root, r.Writer.Root, string(r.Writer.Format))
		if err != nil {
			return nil, err
		}
		summary.RunID = run.RunID
	}

	err := r.convert(ctx, root, summary)

	sort.SliceStable(summary.Results, func(i, j int) bool {
		a, b := summary.Results[i], summary.Results[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Name < b.Name
	})

	if run != nil {
		status := catalog.RunCompleted
		if err != nil {
			status = catalog.RunAborted
		}
		if ferr := r.Catalog.FinishRun(run.RunID, status, summary.Converted, summary.Skipped, summary.Failed); ferr != nil && err == nil {
			err = ferr
		}
	}
	if err != nil {
		return summary, err
	}

	if r.ReportPath != "" {
		rs := summary.Report()
		if run != nil {
			rs.StartedAt = run.StartedAt
		}
		if err := report.WriteRunSummary(rs, r.ReportPath); err != nil {
			return summary, err
		}
	}
	monitoring.Logf("%s: %d converted, %d skipped, %d failed", name, summary.Converted, summary.Skipped, summary.Failed)
	return summary, nil
}

func (r *Runner) convert(ctx context.Context, root string, summary *Summary) error {
	g, gctx := errgroup.WithContext(ctx)
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	progress := monitoring.NewProgress("converting "+r.Dataset.Name(), 0)
	var mu sync.Mutex
	finish := func(res RecordingResult) error {
		r.logResult(res)
		progress.Add(1)
		mu.Lock()
		summary.add(res)
		mu.Unlock()
		return r.record(summary.RunID, res)
	}

	err := r.Dataset.Convert(gctx, root, func(res datasets.Result) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		if res.Err != nil {
			return finish(RecordingResult{Source: res.Source, Outcome: Classify(res.Err), Err: res.Err})
		}
		rec := res.Recording
		if err := r.finalize(rec); err != nil {
			return finish(RecordingResult{Name: rec.Name, Source: res.Source, Frames: rec.Frames(), Outcome: Classify(err), Err: err})
		}
		g.Go(func() error {
			return finish(r.write(rec))
		})
		return nil
	})
	if werr := g.Wait(); err == nil {
		err = werr
	}
	progress.Done()
	return err
}

func (r *Runner) finalize(rec *motion.Recording) error {
	minFrames := r.MinFrames
	if minFrames <= 0 {
		minFrames = motion.DefaultMinFrames
	}
	if err := rec.Finalize(minFrames); err != nil {
		return err
	}
	tol := r.QuaternionTolerance
	if tol <= 0 {
		tol = DefaultQuaternionTolerance
	}
	if n := motion.CountNonUnitQuaternions(rec.Table, tol); n > 0 {
		monitoring.Warnf("%s: %s has %d non-unit rotations", rec.Dataset, rec.Name, n)
	}
	return nil
}

func (r *Runner) write(rec *motion.Recording) RecordingResult {
	res := RecordingResult{
		Name:       rec.Name,
		Source:     rec.Source,
		Frames:     rec.Frames(),
		DurationMS: rec.DurationMS(),
	}
	path, err := r.Writer.Write(rec)
	if err != nil {
		res.Outcome, res.Err = Failed, err
		return res
	}
	res.OutputPath = path
	res.Outcome = Converted

	if r.PlotDir != "" {
		if err := r.plot(rec); err != nil {
			monitoring.Warnf("%s: no plot for %s: %v", rec.Dataset, rec.Name, err)
		}
	}
	return res
}

func (r *Runner) plot(rec *motion.Recording) error {
	if err := security.ValidateRecordingName(rec.Name); err != nil {
		return err
	}
	path := filepath.Join(r.PlotDir, filepath.FromSlash(rec.Name)+".png")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := security.ValidatePathWithinDirectory(path, r.PlotDir); err != nil {
		return err
	}
	return report.PlotTrajectory(rec, path)
}

func (r *Runner) logResult(res RecordingResult) {
	what := res.Source
	if res.Name != "" {
		what = res.Name
	}
	switch res.Outcome {
	case Skipped:
		monitoring.Warnf("%s: skipping %s: %v", r.Dataset.Name(), what, res.Err)
	case Failed:
		monitoring.Warnf("%s: failed %s: %v", r.Dataset.Name(), what, res.Err)
	}
}

func (r *Runner) record(runID string, res RecordingResult) error {
	if r.Catalog == nil {
		return nil
	}
	o := &catalog.Outcome{
		RunID:      runID,
		Name:       res.Name,
		SourcePath: res.Source,
		OutputPath: res.OutputPath,
		FrameCount: res.Frames,
		DurationMS: res.DurationMS,
		Status:     string(res.Outcome),
	}
	if res.Err != nil {
		o.Error = res.Err.Error()
	}
	return r.Catalog.RecordOutcome(o)
}
