package trim

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/k0jin/acapella-maker/src/shared/audio"
	"gonum.org/v1/gonum/floats"
)

// Analysis frame geometry. The envelope is computed on a mono view so
// the frame sizes are in sample frames regardless of channel count.
const (
	frameSize = 2048
	hopSize   = 512
)

const (
	// DefaultThresholdDB classifies frames quieter than 30 dB below
	// the loudest frame as silence.
	DefaultThresholdDB = 30.0

	// DefaultFadeIn smooths over the hard cut at the new start.
	DefaultFadeIn = 5 * time.Millisecond

	// DefaultOnsetBuffer keeps a little lead-up before the detected
	// onset so the attack isn't clipped.
	DefaultOnsetBuffer = 10 * time.Millisecond
)

type Options struct {
	ThresholdDB float64
	FadeIn      time.Duration
	OnsetBuffer time.Duration
}

func DefaultOptions() Options {
	return Options{
		ThresholdDB: DefaultThresholdDB,
		FadeIn:      DefaultFadeIn,
		OnsetBuffer: DefaultOnsetBuffer,
	}
}

type Result struct {
	Waveform        audio.Waveform
	LeadingRemoved  time.Duration
	TrailingRemoved time.Duration
}

// Trim removes leading and trailing silence from the waveform.
//
// A frame-wise RMS envelope is measured against the loudest frame:
// frames that fall ThresholdDB or more below it count as silent. Only
// the contiguous silent regions at each end are removed. If every
// frame is silent the waveform is returned unchanged rather than
// trimmed down to nothing. The cut points are refined to the exact
// samples where the level crosses the threshold, so trimming an
// already-trimmed waveform removes nothing. When a leading cut was
// made, a linear fade-in is applied at the new start to avoid an
// audible click.
func Trim(waveform audio.Waveform, options Options) (Result, error) {
	if waveform.SampleRate <= 0 || waveform.Channels <= 0 {
		return Result{}, errors.New("Waveform has no valid format")
	}

	if options.ThresholdDB <= 0 {
		return Result{}, errors.Errorf("Threshold must be positive dB below reference, got %f", options.ThresholdDB)
	}

	unchanged := Result{Waveform: waveform}

	mono := waveform.Mono()
	envelope := rmsEnvelope(mono.Samples)
	if len(envelope) == 0 {
		return unchanged, nil
	}

	reference := floats.Max(envelope)
	if reference == 0 {
		// digital silence, nothing to measure against
		return unchanged, nil
	}

	threshold := reference * math.Pow(10, -options.ThresholdDB/20.0)

	firstLoud, lastLoud, found := loudFrameBounds(envelope, threshold)
	if !found {
		return unchanged, nil
	}

	bufferFrames := durationToFrames(options.OnsetBuffer, waveform.SampleRate)

	onset := firstLoudSample(mono.Samples, firstLoud*hopSize, threshold)
	start := onset - bufferFrames
	if start < 0 {
		start = 0
	}

	release := lastLoudSample(mono.Samples, lastLoud*hopSize, threshold)
	end := release + 1 + bufferFrames
	if end > waveform.Frames() {
		end = waveform.Frames()
	}

	trimmed := waveform.SliceFrames(start, end)

	if start > 0 {
		applyFadeIn(trimmed, options.FadeIn)
	}

	return Result{
		Waveform:        trimmed,
		LeadingRemoved:  framesToDuration(start, waveform.SampleRate),
		TrailingRemoved: framesToDuration(waveform.Frames()-end, waveform.SampleRate),
	}, nil
}

// rmsEnvelope computes per-frame RMS over fixed windows with hop
// overlap. The trailing partial window is measured over what remains.
func rmsEnvelope(samples []float64) []float64 {
	if len(samples) == 0 {
		return nil
	}

	frameCount := 1 + (len(samples)-1)/hopSize
	envelope := make([]float64, 0, frameCount)

	for start := 0; start < len(samples); start += hopSize {
		end := start + frameSize
		if end > len(samples) {
			end = len(samples)
		}

		window := samples[start:end]
		meanSquare := floats.Dot(window, window) / float64(len(window))
		envelope = append(envelope, math.Sqrt(meanSquare))
	}

	return envelope
}

func loudFrameBounds(envelope []float64, threshold float64) (first int, last int, found bool) {
	first = -1
	for i, level := range envelope {
		if level > threshold {
			first = i
			break
		}
	}

	if first == -1 {
		return 0, 0, false
	}

	last = first
	for i := len(envelope) - 1; i >= first; i-- {
		if envelope[i] > threshold {
			last = i
			break
		}
	}

	return first, last, true
}

// firstLoudSample pinpoints the onset inside the first loud frame.
// The frame's window can begin well before the sound does, so cutting
// on the frame boundary alone would leave residual silence for a
// second pass to trim again.
func firstLoudSample(samples []float64, frameStart int, threshold float64) int {
	for i := frameStart; i < len(samples); i++ {
		if math.Abs(samples[i]) > threshold {
			return i
		}
	}

	return frameStart
}

func lastLoudSample(samples []float64, frameStart int, threshold float64) int {
	from := frameStart + frameSize - 1
	if from > len(samples)-1 {
		from = len(samples) - 1
	}

	for i := from; i >= 0; i-- {
		if math.Abs(samples[i]) > threshold {
			return i
		}
	}

	return from
}

// applyFadeIn ramps amplitude linearly from 0 to 1 over the fade
// duration. The waveform passed in is a fresh copy owned by Trim, so
// scaling in place doesn't leak mutation to the caller's value.
func applyFadeIn(waveform audio.Waveform, fade time.Duration) {
	fadeFrames := durationToFrames(fade, waveform.SampleRate)
	if fadeFrames <= 0 {
		return
	}

	if fadeFrames > waveform.Frames() {
		fadeFrames = waveform.Frames()
	}

	for frame := 0; frame < fadeFrames; frame++ {
		gain := float64(frame) / float64(fadeFrames)
		base := frame * waveform.Channels
		for channel := 0; channel < waveform.Channels; channel++ {
			waveform.Samples[base+channel] *= gain
		}
	}
}

func durationToFrames(d time.Duration, sampleRate int) int {
	return int(d.Seconds() * float64(sampleRate))
}

func framesToDuration(frames int, sampleRate int) time.Duration {
	seconds := float64(frames) / float64(sampleRate)
	return time.Duration(seconds * float64(time.Second))
}
