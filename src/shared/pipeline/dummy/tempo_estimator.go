package dummy

import (
	"context"

	"github.com/k0jin/acapella-maker/src/shared/audio"
	"github.com/k0jin/acapella-maker/src/shared/tempo"
)

var _ tempo.Estimator = &TempoEstimator{}

func NewTempoEstimator(estimate tempo.Estimate) *TempoEstimator {
	return &TempoEstimator{Result: estimate}
}

type TempoEstimator struct {
	Result      tempo.Estimate
	Unavailable bool
}

func (t *TempoEstimator) Estimate(ctx context.Context, waveform audio.Waveform) (tempo.Estimate, error) {
	if t.Unavailable {
		return tempo.Estimate{}, NetworkFailure
	}

	return t.Result, nil
}
