// Package datasets converts raw files of public XR motion datasets into
// normalized recordings. Each adapter owns one raw layout; the shared math
// lives in the motion package.
package datasets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/xrmotion/internal/motion"
)

var (
	// ErrUnknownApp reports a container entry recorded by an application
	// with no known column layout.
	ErrUnknownApp = errors.New("unknown application")
	// ErrParse reports a delimited file that cannot be read as a table.
	ErrParse = errors.New("parse error")
)

// Result is the outcome of converting one recording (or one file that
// failed before any recording could be built). Exactly one of Recording
// and Err is set.
type Result struct {
	Source    string
	Recording *motion.Recording
	Err       error
}

// Options tunes the adapters.
type Options struct {
	// MinFrames is passed to frame assembly; recordings shorter than this
	// after interpolation are rejected.
	MinFrames     int
	EulerSequence motion.EulerSequence
	// BeatSaberFPS is the assumed capture rate of the Beat Saber study CSV.
	BeatSaberFPS float64
	// MaxUsers and MaxRecordingsPerUser limit user-directory datasets.
	// Zero means no limit.
	MaxUsers             int
	MaxRecordingsPerUser int
}

// DefaultOptions returns the options used when no config is given.
func DefaultOptions() Options {
	return Options{
		MinFrames:     motion.DefaultMinFrames,
		EulerSequence: motion.IntrinsicXYZ,
		BeatSaberFPS:  90,
	}
}

// Dataset converts one raw dataset rooted at a directory.
type Dataset interface {
	Name() string
	// Convert walks root and calls emit once per recording or failed file.
	// It stops early when emit returns an error or ctx is done.
	Convert(ctx context.Context, root string, emit func(Result) error) error
}

var registry = map[string]func(Options) Dataset{
	"boxrr23":              func(o Options) Dataset { return &BOXRR23{opts: o} },
	"liebers_beat_saber23": func(o Options) Dataset { return &LiebersBeatSaber23{opts: o} },
	"liebers_hand22":       func(o Options) Dataset { return &LiebersHand22{opts: o} },
	"liebers_lab_study21":  func(o Options) Dataset { return &LiebersLabStudy21{opts: o} },
	"moore_cross_domain23": func(o Options) Dataset { return &MooreCrossDomain23{opts: o} },
	"rmiller_ball22":       func(o Options) Dataset { return &RMillerBall22{opts: o} },
	"vr_net":               func(o Options) Dataset { return &VRNet{opts: o} },
	"who_is_alyx":          func(o Options) Dataset { return &WhoIsAlyx{opts: o} },
}

// Names returns the registered dataset names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New returns the adapter registered under name.
func New(name string, opts Options) (Dataset, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(opts), nil
}

// emitRecording stamps rec with its origin and hands it to emit.
func emitRecording(emit func(Result) error, dataset, source string, rec *motion.Recording) error {
	rec.Dataset = dataset
	rec.Source = source
	return emit(Result{Source: source, Recording: rec})
}

// emitFailure reports a file or entry that produced no recording.
func emitFailure(emit func(Result) error, source string, err error) error {
	return emit(Result{Source: source, Err: err})
}
