package audio

import (
	"github.com/cockroachdb/errors"
)

// Resample converts the waveform to targetRate using linear
// interpolation per channel. Adequate for reconciling model output
// rates with the source rate - this is not a band-limited resampler.
func Resample(w Waveform, targetRate int) (Waveform, error) {
	if targetRate <= 0 {
		return Waveform{}, errors.Errorf("Target sample rate must be positive, got %d", targetRate)
	}

	if w.SampleRate == targetRate {
		return w, nil
	}

	srcFrames := w.Frames()
	if srcFrames == 0 {
		return Waveform{
			Samples:    []float64{},
			SampleRate: targetRate,
			Channels:   w.Channels,
		}, nil
	}

	ratio := float64(w.SampleRate) / float64(targetRate)
	dstFrames := int(float64(srcFrames) / ratio)
	if dstFrames == 0 {
		dstFrames = 1
	}

	resampled := make([]float64, dstFrames*w.Channels)

	for frame := 0; frame < dstFrames; frame++ {
		srcPos := float64(frame) * ratio
		srcFrame := int(srcPos)
		frac := srcPos - float64(srcFrame)

		nextFrame := srcFrame + 1
		if nextFrame >= srcFrames {
			nextFrame = srcFrames - 1
		}

		for channel := 0; channel < w.Channels; channel++ {
			current := w.Samples[srcFrame*w.Channels+channel]
			next := w.Samples[nextFrame*w.Channels+channel]
			resampled[frame*w.Channels+channel] = current + (next-current)*frac
		}
	}

	return Waveform{
		Samples:    resampled,
		SampleRate: targetRate,
		Channels:   w.Channels,
	}, nil
}
