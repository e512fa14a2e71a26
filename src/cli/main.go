package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/k0jin/acapella-maker/src/shared/acquire"
	"github.com/k0jin/acapella-maker/src/shared/audio/codec"
	"github.com/k0jin/acapella-maker/src/shared/config"
	"github.com/k0jin/acapella-maker/src/shared/lib/executor"
	"github.com/k0jin/acapella-maker/src/shared/pipeline"
	"github.com/k0jin/acapella-maker/src/shared/pipeline/runner"
	"github.com/k0jin/acapella-maker/src/shared/separate"
	"github.com/k0jin/acapella-maker/src/shared/tempo"
	"github.com/k0jin/acapella-maker/src/shared/values/envvar"
)

var (
	outputPath  = flag.String("output", "", "Output file path (default: <input>_acapella.wav)")
	thresholdDB = flag.Float64("threshold", 30.0, "Silence threshold in dB below the loudest frame")
	fadeIn      = flag.Duration("fade", 5*time.Millisecond, "Fade-in duration applied after a leading trim")
	noTrim      = flag.Bool("no-trim", false, "Skip silence trimming")
	tempoOnly   = flag.Bool("tempo-only", false, "Only estimate the tempo, skip vocal extraction")
	bpmSuffix   = flag.Bool("bpm-suffix", false, "Append the detected bpm to the output file name")
	verbose     = flag.Bool("verbose", false, "Log debug detail")
)

var stageLabels = map[pipeline.Stage]string{
	pipeline.StageAcquire:  "Acquiring audio",
	pipeline.StageLoad:     "Decoding audio",
	pipeline.StageTempo:    "Estimating tempo",
	pipeline.StageSeparate: "Separating vocals",
	pipeline.StageTrim:     "Trimming silence",
	pipeline.StageSave:     "Saving output",
}

func main() {
	flag.Parse()

	log.SetHandler(cli.New(os.Stderr))
	if *verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: acapella-maker [flags] <file path or URL>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	inputSpec := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	workingDirPath := filepath.Join(os.TempDir(), "acapella-maker")

	if *tempoOnly {
		os.Exit(runTempoOnly(ctx, inputSpec, workingDirPath))
	}

	os.Exit(runExtraction(ctx, inputSpec, workingDirPath))
}

func runExtraction(ctx context.Context, inputSpec string, workingDirPath string) int {
	extractionPipeline, err := makePipeline(workingDirPath)
	if err != nil {
		log.WithError(err).Error("Failed to initialize")
		return 1
	}

	options := pipeline.DefaultOptions()
	options.OutputPath = *outputPath
	options.ThresholdDB = *thresholdDB
	options.FadeIn = *fadeIn
	options.TrimEnabled = !*noTrim
	options.BPMSuffix = *bpmSuffix

	pipelineRunner := runner.NewRunner(extractionPipeline, inputSpec, options)
	pipelineRunner.Start(ctx)

	for event := range pipelineRunner.Events() {
		label, ok := stageLabels[event.Stage]
		if !ok {
			label = string(event.Stage)
		}

		fmt.Printf("[%3.0f%%] %s\n", event.Fraction*100, label)
	}

	result, err := pipelineRunner.Wait()
	if err != nil {
		if stage, ok := pipeline.StageOf(err); ok {
			log.WithField("stage", stage).WithError(err).Error("Extraction failed")
		} else {
			log.WithError(err).Error("Extraction failed")
		}
		return 1
	}

	fmt.Printf("Done: %s\n", result.OutputPath)
	if result.Tempo.Known() {
		fmt.Printf("Tempo: %.1f bpm (confidence %.2f)\n", result.Tempo.BPM, result.Tempo.Confidence)
	}
	if result.LeadingRemoved > 0 || result.TrailingRemoved > 0 {
		fmt.Printf("Trimmed: %.2fs leading, %.2fs trailing\n",
			result.LeadingRemoved.Seconds(), result.TrailingRemoved.Seconds())
	}

	return 0
}

func runTempoOnly(ctx context.Context, inputSpec string, workingDirPath string) int {
	acquirer, err := makeAcquirer(workingDirPath)
	if err != nil {
		log.WithError(err).Error("Failed to initialize")
		return 1
	}

	estimator, err := makeTempoEstimator(workingDirPath)
	if err != nil {
		log.WithError(err).Error("Failed to initialize")
		return 1
	}

	source, err := acquirer.Acquire(ctx, inputSpec)
	if err != nil {
		log.WithError(err).Error("Failed to acquire the input audio")
		return 1
	}
	defer source.Cleanup()

	waveform, err := codec.Load(source.Path)
	if err != nil {
		log.WithError(err).Error("Failed to decode the input audio")
		return 1
	}

	estimate, err := estimator.Estimate(ctx, waveform)
	if err != nil {
		log.WithError(err).Error("Failed to estimate the tempo")
		return 1
	}

	if !estimate.Known() {
		fmt.Println("Tempo: unknown")
		return 0
	}

	fmt.Printf("Tempo: %.1f bpm (confidence %.2f)\n", estimate.BPM, estimate.Confidence)
	return 0
}

func makePipeline(workingDirPath string) (pipeline.Pipeline, error) {
	acquirer, err := makeAcquirer(workingDirPath)
	if err != nil {
		return pipeline.Pipeline{}, err
	}

	separator, err := separate.NewDemucsSeparator(
		config.BinFromEnvOrPath(envvar.DEMUCS_BIN_PATH, "demucs"),
		executor.BinaryFileExecutor{},
		filepath.Join(workingDirPath, "demucs"),
	)
	if err != nil {
		return pipeline.Pipeline{}, err
	}

	estimator, err := makeTempoEstimator(workingDirPath)
	if err != nil {
		return pipeline.Pipeline{}, err
	}

	return pipeline.NewPipeline(acquirer, codec.IO{}, separator, estimator), nil
}

func makeAcquirer(workingDirPath string) (acquire.Acquirer, error) {
	youtubedler := acquire.NewYoutubeDLer(
		config.BinFromEnvOrPath(envvar.YOUTUBEDL_BIN_PATH, "yt-dlp"),
		executor.BinaryFileExecutor{})

	selectdler := acquire.NewSelectDLer(youtubedler, acquire.NewGenericDLer())

	return acquire.NewAcquirer(selectdler, filepath.Join(workingDirPath, "download"))
}

func makeTempoEstimator(workingDirPath string) (tempo.AubioEstimator, error) {
	return tempo.NewAubioEstimator(
		config.BinFromEnvOrPath(envvar.AUBIO_BIN_PATH, "aubio"),
		executor.BinaryFileExecutor{},
		filepath.Join(workingDirPath, "aubio"),
	)
}
