package audio

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Waveform is an in-memory audio buffer. Samples are interleaved
// float64 values in [-1, 1]. A Waveform is treated as immutable -
// every processing stage returns a new value instead of mutating
// the one it was given.
type Waveform struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

func New(samples []float64, sampleRate int, channels int) (Waveform, error) {
	if sampleRate <= 0 {
		return Waveform{}, errors.Errorf("Sample rate must be positive, got %d", sampleRate)
	}

	if channels <= 0 {
		return Waveform{}, errors.Errorf("Channel count must be positive, got %d", channels)
	}

	if len(samples)%channels != 0 {
		return Waveform{}, errors.Errorf(
			"Sample count %d is inconsistent with channel count %d",
			len(samples), channels)
	}

	return Waveform{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// Frames is the number of sample frames, i.e. samples per channel.
func (w Waveform) Frames() int {
	if w.Channels == 0 {
		return 0
	}

	return len(w.Samples) / w.Channels
}

func (w Waveform) Duration() time.Duration {
	if w.SampleRate == 0 {
		return 0
	}

	seconds := float64(w.Frames()) / float64(w.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}

// Mono returns a single channel view of the waveform by averaging
// all channels per frame. A mono waveform is returned as is.
func (w Waveform) Mono() Waveform {
	if w.Channels == 1 {
		return w
	}

	frames := w.Frames()
	mixed := make([]float64, frames)
	scale := 1.0 / float64(w.Channels)

	for frame := 0; frame < frames; frame++ {
		sum := 0.0
		base := frame * w.Channels
		for channel := 0; channel < w.Channels; channel++ {
			sum += w.Samples[base+channel]
		}

		mixed[frame] = sum * scale
	}

	return Waveform{
		Samples:    mixed,
		SampleRate: w.SampleRate,
		Channels:   1,
	}
}

// Peak is the largest absolute sample value across all channels.
func (w Waveform) Peak() float64 {
	peak := 0.0
	for _, sample := range w.Samples {
		if sample < 0 {
			sample = -sample
		}

		if sample > peak {
			peak = sample
		}
	}

	return peak
}

// SliceFrames copies out the frame range [start, end). The copy keeps
// the returned waveform independent from its source.
func (w Waveform) SliceFrames(start int, end int) Waveform {
	if start < 0 {
		start = 0
	}

	if end > w.Frames() {
		end = w.Frames()
	}

	if start >= end {
		return Waveform{
			Samples:    []float64{},
			SampleRate: w.SampleRate,
			Channels:   w.Channels,
		}
	}

	section := make([]float64, (end-start)*w.Channels)
	copy(section, w.Samples[start*w.Channels:end*w.Channels])

	return Waveform{
		Samples:    section,
		SampleRate: w.SampleRate,
		Channels:   w.Channels,
	}
}
