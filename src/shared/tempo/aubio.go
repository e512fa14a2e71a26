package tempo

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/k0jin/acapella-maker/src/shared/audio"
	"github.com/k0jin/acapella-maker/src/shared/audio/codec"
	"github.com/k0jin/acapella-maker/src/shared/lib/executor"
	"github.com/k0jin/acapella-maker/src/shared/lib/working_dir"
	"gonum.org/v1/gonum/stat"
)

// minimum number of beats needed before intervals say anything useful
const minBeatCount = 3

var _ Estimator = AubioEstimator{}

// AubioEstimator shells out to aubio's beat tracker and derives the
// tempo from the detected beat intervals: bpm from the median
// interval, confidence from how evenly the intervals are spaced.
type AubioEstimator struct {
	aubioBinPath    string
	commandExecutor executor.Executor
	workingDir      working_dir.WorkingDir
}

func NewAubioEstimator(aubioBinPath string, commandExecutor executor.Executor, workingDirStr string) (AubioEstimator, error) {
	workingDir, err := working_dir.NewWorkingDir(workingDirStr)
	if err != nil {
		return AubioEstimator{}, errors.Wrap(err, "Failed to create working dir")
	}

	return AubioEstimator{
		aubioBinPath:    aubioBinPath,
		commandExecutor: commandExecutor,
		workingDir:      workingDir,
	}, nil
}

func (a AubioEstimator) Estimate(ctx context.Context, waveform audio.Waveform) (Estimate, error) {
	if ctx.Err() != nil {
		return Estimate{}, errors.Wrap(ctx.Err(), "Context cancelled before tempo analysis could happen")
	}

	tempDir, err := os.MkdirTemp(a.workingDir.TempDir(), "beats-*")
	if err != nil {
		return Estimate{}, errors.Wrap(err, "Failed to create temp dir for the analysis file")
	}

	defer os.RemoveAll(tempDir)

	analysisPath := filepath.Join(tempDir, "analysis.wav")
	if err := codec.Save(waveform.Mono(), analysisPath); err != nil {
		return Estimate{}, errors.Wrap(err, "Failed to write the analysis file")
	}

	beats, err := a.trackBeats(analysisPath)
	if err != nil {
		return Estimate{}, errors.Wrap(err, "Failed to track beats")
	}

	return estimateFromBeats(beats)
}

func (a AubioEstimator) trackBeats(audioFilePath string) ([]float64, error) {
	log.WithField("audio_file_path", audioFilePath).Info("Running aubio beat tracking")

	cmd := a.commandExecutor.Command(a.aubioBinPath, "beat", audioFilePath)
	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to run aubio: %s", string(output))
	}

	return parseBeatTimes(string(output))
}

// parseBeatTimes reads aubio's beat output, one timestamp in seconds
// per line.
func parseBeatTimes(output string) ([]float64, error) {
	beats := []float64{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		beat, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse beat timestamp %q", line)
		}

		beats = append(beats, beat)
	}

	return beats, nil
}

func estimateFromBeats(beats []float64) (Estimate, error) {
	if len(beats) < minBeatCount {
		return Estimate{}, errors.Errorf("Not enough beats detected to estimate a tempo: %d", len(beats))
	}

	intervals := make([]float64, 0, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		interval := beats[i] - beats[i-1]
		if interval <= 0 {
			return Estimate{}, errors.New("Beat timestamps are not increasing")
		}

		intervals = append(intervals, interval)
	}

	sorted := make([]float64, len(intervals))
	copy(sorted, intervals)
	sort.Float64s(sorted)

	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if median <= 0 {
		return Estimate{}, errors.New("Degenerate beat intervals")
	}

	bpm, ok := foldIntoRange(60.0 / median)
	if !ok {
		return Estimate{}, errors.Errorf("Detected tempo has no octave in the musical range: %f", 60.0/median)
	}

	mean, stddev := stat.MeanStdDev(intervals, nil)
	confidence := 1.0 - stddev/mean
	if confidence < 0 {
		confidence = 0
	}

	if confidence > 1 {
		confidence = 1
	}

	return Estimate{
		BPM:        roundToDecimal(bpm),
		Confidence: confidence,
	}, nil
}
