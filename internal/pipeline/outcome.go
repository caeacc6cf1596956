package pipeline

import (
	"errors"

	"github.com/banshee-data/xrmotion/internal/catalog"
	"github.com/banshee-data/xrmotion/internal/datasets"
	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/xror"
)

// Outcome is the fate of one recording or raw file in a run.
type Outcome string

const (
	Converted Outcome = catalog.StatusConverted
	// Skipped marks unreadable input: the file is logged and ignored.
	Skipped Outcome = catalog.StatusSkipped
	// Failed marks input that was read but could not become an output file.
	Failed Outcome = catalog.StatusFailed
)

// Classify maps a conversion error to its outcome. A nil error is a
// conversion.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Converted
	case errors.Is(err, datasets.ErrParse),
		errors.Is(err, xror.ErrInvalidContainer),
		errors.Is(err, motion.ErrMalformedPose),
		errors.Is(err, motion.ErrMissingTimestamp):
		return Skipped
	default:
		return Failed
	}
}
