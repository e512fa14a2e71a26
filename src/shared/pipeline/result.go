package pipeline

import (
	"time"

	"github.com/k0jin/acapella-maker/src/shared/tempo"
	"github.com/k0jin/acapella-maker/src/shared/trim"
)

// Options configures one run. Construct once, pass by value - the
// pipeline never modifies it.
type Options struct {
	// OutputPath overrides the derived <input-stem>_acapella.wav
	// location when set.
	OutputPath string

	ThresholdDB float64
	TrimEnabled bool
	FadeIn      time.Duration
	OnsetBuffer time.Duration

	// BPMSuffix appends the rounded tempo to the derived output file
	// name when the tempo is known.
	BPMSuffix bool
}

func DefaultOptions() Options {
	return Options{
		ThresholdDB: trim.DefaultThresholdDB,
		TrimEnabled: true,
		FadeIn:      trim.DefaultFadeIn,
		OnsetBuffer: trim.DefaultOnsetBuffer,
	}
}

// Result is the terminal artifact of a successful run.
type Result struct {
	OutputPath string
	Tempo      tempo.Estimate

	OriginalDuration time.Duration
	TrimmedDuration  time.Duration
	LeadingRemoved   time.Duration
	TrailingRemoved  time.Duration

	StageTimings map[Stage]time.Duration
}
