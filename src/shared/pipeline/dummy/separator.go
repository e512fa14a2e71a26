package dummy

import (
	"context"
	"sync"

	"github.com/k0jin/acapella-maker/src/shared/audio"
	"github.com/k0jin/acapella-maker/src/shared/separate"
)

var _ separate.Separator = &Separator{}

func NewSeparator(vocals audio.Waveform) *Separator {
	return &Separator{
		Vocals:  vocals,
		Started: make(chan struct{}, 1),
	}
}

// Separator returns a canned vocal stem. With Blocking set it parks
// until the context is cancelled, standing in for a long model
// inference.
type Separator struct {
	Vocals      audio.Waveform
	Unavailable bool
	Blocking    bool

	// Started receives once separation has been entered, so tests can
	// coordinate cancellation timing.
	Started chan struct{}

	mutex         sync.Mutex
	separateCount int
}

func (s *Separator) Separate(ctx context.Context, waveform audio.Waveform) (audio.Waveform, error) {
	s.mutex.Lock()
	s.separateCount++
	s.mutex.Unlock()

	select {
	case s.Started <- struct{}{}:
	default:
	}

	if s.Blocking {
		<-ctx.Done()
		return audio.Waveform{}, ctx.Err()
	}

	if s.Unavailable {
		return audio.Waveform{}, NetworkFailure
	}

	return s.Vocals, nil
}

func (s *Separator) SeparateCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.separateCount
}
