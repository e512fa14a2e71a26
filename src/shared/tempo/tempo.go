package tempo

import (
	"context"
	"math"

	"github.com/k0jin/acapella-maker/src/shared/audio"
)

// The accepted musical tempo range. Estimates that land outside get
// folded by octave back into range.
const (
	MinBPM = 40.0
	MaxBPM = 220.0
)

// Estimate is the outcome of one tempo analysis. The zero value is
// the "unknown" sentinel: no bpm, no confidence.
type Estimate struct {
	BPM        float64 `json:"bpm"`
	Confidence float64 `json:"confidence"`
}

func Unknown() Estimate {
	return Estimate{}
}

func (e Estimate) Known() bool {
	return e.BPM > 0
}

type Estimator interface {
	Estimate(ctx context.Context, waveform audio.Waveform) (Estimate, error)
}

// foldIntoRange halves or doubles bpm until it lands in the accepted
// musical range. Reports false if no octave of the value fits.
func foldIntoRange(bpm float64) (float64, bool) {
	if bpm <= 0 {
		return 0, false
	}

	for bpm > MaxBPM {
		bpm /= 2
	}

	for bpm < MinBPM {
		bpm *= 2
	}

	if bpm < MinBPM || bpm > MaxBPM {
		return 0, false
	}

	return bpm, true
}

func roundToDecimal(value float64) float64 {
	return math.Round(value*10) / 10
}
