package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/k0jin/acapella-maker/src/shared/acquire"
	"github.com/k0jin/acapella-maker/src/shared/audio"
	"github.com/k0jin/acapella-maker/src/shared/lib/errors/mark"
	"github.com/k0jin/acapella-maker/src/shared/separate"
	"github.com/k0jin/acapella-maker/src/shared/tempo"
	"github.com/k0jin/acapella-maker/src/shared/trim"
)

// Acquirer resolves an input spec to a local audio file with scoped
// cleanup of any ephemeral backing storage.
type Acquirer interface {
	Acquire(ctx context.Context, inputSpec string) (acquire.Source, error)
}

// AudioIO decodes and encodes waveforms. One run sees a consistent
// sample rate between the load and the save.
type AudioIO interface {
	Load(path string) (audio.Waveform, error)
	Save(waveform audio.Waveform, path string) error
}

// ProgressFunc observes stage starts with an overall completion
// fraction. May be nil.
type ProgressFunc func(stage Stage, fraction float64)

// Pipeline sequences acquisition, decoding, separation, tempo
// estimation, trimming and saving into one deterministic run.
type Pipeline struct {
	acquirer       Acquirer
	audioIO        AudioIO
	separator      separate.Separator
	tempoEstimator tempo.Estimator
}

func NewPipeline(acquirer Acquirer, audioIO AudioIO, separator separate.Separator, tempoEstimator tempo.Estimator) Pipeline {
	return Pipeline{
		acquirer:       acquirer,
		audioIO:        audioIO,
		separator:      separator,
		tempoEstimator: tempoEstimator,
	}
}

type tempoOutcome struct {
	estimate tempo.Estimate
	elapsed  time.Duration
	err      error
}

// Run executes one full extraction. Stage failures come back as
// Error values marked with the failure taxonomy; a cancelled context
// comes back marked Cancelled. Ephemeral acquisition storage is
// cleaned up on every path out of this function.
func (p Pipeline) Run(ctx context.Context, inputSpec string, options Options, progress ProgressFunc) (Result, error) {
	timings := map[Stage]time.Duration{}

	notify := func(stage Stage) {
		if progress != nil {
			progress(stage, stageFractions[stage])
		}
	}

	if err := runCancelled(ctx); err != nil {
		return Result{}, err
	}

	notify(StageAcquire)
	acquireStart := time.Now()

	source, err := p.acquirer.Acquire(ctx, inputSpec)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, cancelledError(ctx)
		}

		return Result{}, stageError(StageAcquire, AcquisitionFailed, err)
	}

	defer source.Cleanup()

	timings[StageAcquire] = time.Since(acquireStart)

	if err := runCancelled(ctx); err != nil {
		return Result{}, err
	}

	notify(StageLoad)
	loadStart := time.Now()

	mixture, err := p.audioIO.Load(source.Path)
	if err != nil {
		return Result{}, stageError(StageLoad, DecodeFailed, err)
	}

	timings[StageLoad] = time.Since(loadStart)

	if err := runCancelled(ctx); err != nil {
		return Result{}, err
	}

	// tempo estimation is independent of separation, run it alongside.
	// the channel is buffered so an abandoned estimate doesn't leak
	// the goroutine.
	notify(StageTempo)
	tempoCh := make(chan tempoOutcome, 1)
	go func() {
		tempoStart := time.Now()
		estimate, err := p.tempoEstimator.Estimate(ctx, mixture)
		tempoCh <- tempoOutcome{
			estimate: estimate,
			elapsed:  time.Since(tempoStart),
			err:      err,
		}
	}()

	notify(StageSeparate)
	separateStart := time.Now()

	vocals, err := p.separator.Separate(ctx, mixture)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, cancelledError(ctx)
		}

		return Result{}, stageError(StageSeparate, SeparationFailed, err)
	}

	timings[StageSeparate] = time.Since(separateStart)

	detectedTempo := tempo.Unknown()
	outcome := <-tempoCh
	timings[StageTempo] = outcome.elapsed
	if outcome.err != nil {
		// tempo is an enrichment, not a correctness requirement -
		// degrade to unknown and keep going
		log.WithError(outcome.err).Warn("Tempo estimation failed, continuing with an unknown tempo")
	} else {
		detectedTempo = outcome.estimate
	}

	if err := runCancelled(ctx); err != nil {
		return Result{}, err
	}

	notify(StageTrim)
	trimStart := time.Now()

	trimmed := vocals
	leadingRemoved := time.Duration(0)
	trailingRemoved := time.Duration(0)

	if options.TrimEnabled {
		trimResult, err := trim.Trim(vocals, trim.Options{
			ThresholdDB: options.ThresholdDB,
			FadeIn:      options.FadeIn,
			OnsetBuffer: options.OnsetBuffer,
		})

		if err != nil {
			return Result{}, stageError(StageTrim, TrimmingFailed, err)
		}

		trimmed = trimResult.Waveform
		leadingRemoved = trimResult.LeadingRemoved
		trailingRemoved = trimResult.TrailingRemoved
	}

	timings[StageTrim] = time.Since(trimStart)

	if err := runCancelled(ctx); err != nil {
		return Result{}, err
	}

	notify(StageSave)
	saveStart := time.Now()

	outputPath := options.OutputPath
	if outputPath == "" {
		outputPath = deriveOutputPath(inputSpec, source, detectedTempo, options.BPMSuffix)
	}

	if err := p.saveAtomically(trimmed, outputPath); err != nil {
		return Result{}, stageError(StageSave, EncodeFailed, err)
	}

	timings[StageSave] = time.Since(saveStart)

	return Result{
		OutputPath:       outputPath,
		Tempo:            detectedTempo,
		OriginalDuration: vocals.Duration(),
		TrimmedDuration:  trimmed.Duration(),
		LeadingRemoved:   leadingRemoved,
		TrailingRemoved:  trailingRemoved,
		StageTimings:     timings,
	}, nil
}

// saveAtomically writes to a temp path next to the destination and
// renames into place, so a failed or cancelled run never leaves a
// partial output file behind.
func (p Pipeline) saveAtomically(waveform audio.Waveform, outputPath string) error {
	tempPath := outputPath + ".tmp"

	if err := p.audioIO.Save(waveform, tempPath); err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	return nil
}

// deriveOutputPath names the output <input-stem>_acapella.wav beside
// a local input, or in the working directory for a downloaded one.
// With a known tempo and the suffix option on, the rounded bpm gets
// appended to the stem.
func deriveOutputPath(inputSpec string, source acquire.Source, detectedTempo tempo.Estimate, bpmSuffix bool) string {
	dir := ""
	base := source.Path

	if !source.Ephemeral() {
		dir = filepath.Dir(inputSpec)
		base = inputSpec
	}

	stem := strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	name := stem + "_acapella"

	if bpmSuffix && detectedTempo.Known() {
		name = fmt.Sprintf("%s_%dbpm", name, int(math.Round(detectedTempo.BPM)))
	}

	return filepath.Join(dir, name+".wav")
}

func runCancelled(ctx context.Context) error {
	if ctx.Err() != nil {
		return cancelledError(ctx)
	}

	return nil
}

func cancelledError(ctx context.Context) error {
	return mark.Wrap(ctx.Err(), Cancelled, "The run was cancelled before completing")
}

func stageError(stage Stage, marker error, err error) error {
	return Error{
		Stage: stage,
		Err:   mark.Wrap(err, marker, marker.Error()),
	}
}
