package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors/markers"
	"github.com/k0jin/acapella-maker/src/shared/audio"
	"github.com/k0jin/acapella-maker/src/shared/pipeline"
	"github.com/k0jin/acapella-maker/src/shared/pipeline/dummy"
	"github.com/k0jin/acapella-maker/src/shared/tempo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const testSampleRate = 44100

// paddedVocals builds 1s silence, 2s signal, 1s silence.
func paddedVocals() audio.Waveform {
	samples := make([]float64, 4*testSampleRate)
	for i := testSampleRate; i < 3*testSampleRate; i++ {
		samples[i] = 0.5
	}

	return audio.Waveform{
		Samples:    samples,
		SampleRate: testSampleRate,
		Channels:   1,
	}
}

func mixture() audio.Waveform {
	samples := make([]float64, 4*testSampleRate)
	for i := range samples {
		samples[i] = 0.3
	}

	return audio.Waveform{
		Samples:    samples,
		SampleRate: testSampleRate,
		Channels:   1,
	}
}

var _ = Describe("Pipeline", func() {
	var (
		acquirer       *dummy.Acquirer
		audioIO        *dummy.AudioIO
		separator      *dummy.Separator
		tempoEstimator *dummy.TempoEstimator

		p pipeline.Pipeline

		inputDir  string
		inputSpec string
		options   pipeline.Options

		progressEvents []pipeline.Stage
		fractions      []float64

		result pipeline.Result
		runErr error
	)

	BeforeEach(func() {
		acquirer = dummy.NewAcquirer()
		audioIO = dummy.NewAudioIO(mixture())
		separator = dummy.NewSeparator(paddedVocals())
		tempoEstimator = dummy.NewTempoEstimator(tempo.Estimate{BPM: 128.3, Confidence: 0.9})

		p = pipeline.NewPipeline(acquirer, audioIO, separator, tempoEstimator)

		inputDir = GinkgoT().TempDir()
		inputSpec = filepath.Join(inputDir, "song.mp3")
		options = pipeline.DefaultOptions()

		progressEvents = nil
		fractions = nil
	})

	progress := func(stage pipeline.Stage, fraction float64) {
		progressEvents = append(progressEvents, stage)
		fractions = append(fractions, fraction)
	}

	JustBeforeEach(func() {
		result, runErr = p.Run(context.Background(), inputSpec, options, progress)
	})

	Describe("Happy path with a local input", func() {
		It("succeeds", func() {
			Expect(runErr).NotTo(HaveOccurred())
		})

		It("derives the output path beside the input", func() {
			Expect(result.OutputPath).To(Equal(filepath.Join(inputDir, "song_acapella.wav")))
			Expect(result.OutputPath).To(BeAnExistingFile())
		})

		It("saves the trimmed vocal stem", func() {
			saved, ok := audioIO.Saved[result.OutputPath+".tmp"]
			Expect(ok).To(BeTrue())
			Expect(saved.Duration().Seconds()).To(BeNumerically("~", 2.0, 0.15))
		})

		It("leaves no temp file behind", func() {
			Expect(result.OutputPath + ".tmp").NotTo(BeAnExistingFile())
		})

		It("reports the detected tempo", func() {
			Expect(result.Tempo.Known()).To(BeTrue())
			Expect(result.Tempo.BPM).To(Equal(128.3))
		})

		It("reports trim durations", func() {
			Expect(result.OriginalDuration.Seconds()).To(BeNumerically("~", 4.0, 0.01))
			Expect(result.TrimmedDuration.Seconds()).To(BeNumerically("~", 2.0, 0.15))
			Expect(result.LeadingRemoved.Seconds()).To(BeNumerically("~", 1.0, 0.1))
			Expect(result.TrailingRemoved.Seconds()).To(BeNumerically("~", 1.0, 0.1))
		})

		It("times every stage", func() {
			for _, stage := range []pipeline.Stage{
				pipeline.StageAcquire,
				pipeline.StageLoad,
				pipeline.StageTempo,
				pipeline.StageSeparate,
				pipeline.StageTrim,
				pipeline.StageSave,
			} {
				Expect(result.StageTimings).To(HaveKey(stage))
			}
		})

		It("announces stages in order with nondecreasing fractions", func() {
			Expect(progressEvents).To(Equal([]pipeline.Stage{
				pipeline.StageAcquire,
				pipeline.StageLoad,
				pipeline.StageTempo,
				pipeline.StageSeparate,
				pipeline.StageTrim,
				pipeline.StageSave,
			}))

			for i := 1; i < len(fractions); i++ {
				Expect(fractions[i]).To(BeNumerically(">=", fractions[i-1]))
			}
		})
	})

	Describe("Output path override", func() {
		var overridePath string

		BeforeEach(func() {
			overridePath = filepath.Join(inputDir, "custom.wav")
			options.OutputPath = overridePath
		})

		It("writes to the override", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(result.OutputPath).To(Equal(overridePath))
			Expect(overridePath).To(BeAnExistingFile())
		})
	})

	Describe("BPM suffix", func() {
		BeforeEach(func() {
			options.BPMSuffix = true
		})

		It("appends the rounded bpm to the stem", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(result.OutputPath).To(Equal(filepath.Join(inputDir, "song_acapella_128bpm.wav")))
		})

		When("the tempo is unknown", func() {
			BeforeEach(func() {
				tempoEstimator.Unavailable = true
			})

			It("leaves the name unsuffixed", func() {
				Expect(runErr).NotTo(HaveOccurred())
				Expect(result.OutputPath).To(Equal(filepath.Join(inputDir, "song_acapella.wav")))
			})
		})
	})

	Describe("Tempo estimation failure", func() {
		BeforeEach(func() {
			tempoEstimator.Unavailable = true
		})

		It("degrades to an unknown tempo instead of failing", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(result.Tempo.Known()).To(BeFalse())
			Expect(result.OutputPath).To(BeAnExistingFile())
		})
	})

	Describe("Trim disabled", func() {
		BeforeEach(func() {
			options.TrimEnabled = false
		})

		It("passes the stem through untouched", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(result.TrimmedDuration).To(Equal(result.OriginalDuration))
			Expect(result.LeadingRemoved).To(Equal(time.Duration(0)))
			Expect(result.TrailingRemoved).To(Equal(time.Duration(0)))
		})
	})

	Describe("Acquisition failure", func() {
		BeforeEach(func() {
			acquirer.Unavailable = true
		})

		It("fails marked as an acquisition failure", func() {
			Expect(runErr).To(HaveOccurred())
			Expect(markers.Is(runErr, pipeline.AcquisitionFailed)).To(BeTrue())

			stage, ok := pipeline.StageOf(runErr)
			Expect(ok).To(BeTrue())
			Expect(stage).To(Equal(pipeline.StageAcquire))
		})

		It("never reaches later stages", func() {
			Expect(separator.SeparateCount()).To(BeZero())
		})
	})

	Describe("Decode failure", func() {
		BeforeEach(func() {
			audioIO.LoadFails = true
		})

		It("fails marked as a decode failure", func() {
			Expect(runErr).To(HaveOccurred())
			Expect(markers.Is(runErr, pipeline.DecodeFailed)).To(BeTrue())
		})
	})

	Describe("Separation failure", func() {
		BeforeEach(func() {
			separator.Unavailable = true
		})

		It("fails marked as a separation failure", func() {
			Expect(runErr).To(HaveOccurred())
			Expect(markers.Is(runErr, pipeline.SeparationFailed)).To(BeTrue())

			stage, ok := pipeline.StageOf(runErr)
			Expect(ok).To(BeTrue())
			Expect(stage).To(Equal(pipeline.StageSeparate))
		})
	})

	Describe("Save failure", func() {
		BeforeEach(func() {
			audioIO.SaveFails = true
		})

		It("fails marked as an encode failure", func() {
			Expect(runErr).To(HaveOccurred())
			Expect(markers.Is(runErr, pipeline.EncodeFailed)).To(BeTrue())
		})

		It("leaves no output or temp file behind", func() {
			outputPath := filepath.Join(inputDir, "song_acapella.wav")
			Expect(outputPath).NotTo(BeAnExistingFile())
			Expect(outputPath + ".tmp").NotTo(BeAnExistingFile())
		})
	})

	Describe("Ephemeral source cleanup", func() {
		BeforeEach(func() {
			inputSpec = "https://www.youtube.com/watch?v=abc123"
			options.OutputPath = filepath.Join(inputDir, "out.wav")
		})

		It("removes the download dir after a successful run", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(acquirer.LastTempDir()).NotTo(BeADirectory())
		})

		When("a later stage fails", func() {
			BeforeEach(func() {
				separator.Unavailable = true
			})

			It("still removes the download dir", func() {
				Expect(runErr).To(HaveOccurred())
				Expect(acquirer.LastTempDir()).NotTo(BeADirectory())
			})
		})
	})

})

var _ = Describe("Cancellation before the run starts", func() {
	It("does nothing but report cancellation", func() {
		acquirer := dummy.NewAcquirer()
		p := pipeline.NewPipeline(
			acquirer,
			dummy.NewAudioIO(mixture()),
			dummy.NewSeparator(paddedVocals()),
			dummy.NewTempoEstimator(tempo.Unknown()),
		)

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		inputSpec := filepath.Join(GinkgoT().TempDir(), "song.mp3")
		_, err := p.Run(cancelled, inputSpec, pipeline.DefaultOptions(), nil)

		Expect(err).To(HaveOccurred())
		Expect(markers.Is(err, pipeline.Cancelled)).To(BeTrue())
		Expect(acquirer.AcquireCount()).To(BeZero())
	})
})

var _ = Describe("Cancellation during separation", func() {
	var (
		acquirer  *dummy.Acquirer
		audioIO   *dummy.AudioIO
		separator *dummy.Separator

		p pipeline.Pipeline

		outputPath string
	)

	BeforeEach(func() {
		acquirer = dummy.NewAcquirer()
		audioIO = dummy.NewAudioIO(mixture())
		separator = dummy.NewSeparator(paddedVocals())
		separator.Blocking = true

		p = pipeline.NewPipeline(acquirer, audioIO, separator, dummy.NewTempoEstimator(tempo.Unknown()))

		outputPath = filepath.Join(GinkgoT().TempDir(), "out.wav")
	})

	It("stops the run, reports cancellation and cleans up", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		options := pipeline.DefaultOptions()
		options.OutputPath = outputPath

		errCh := make(chan error, 1)
		go func() {
			_, err := p.Run(ctx, "https://www.youtube.com/watch?v=abc123", options, nil)
			errCh <- err
		}()

		// wait until the run is parked inside separation
		Eventually(separator.Started).Should(Receive())
		cancel()

		var runErr error
		Eventually(errCh).Should(Receive(&runErr))

		Expect(runErr).To(HaveOccurred())
		Expect(markers.Is(runErr, pipeline.Cancelled)).To(BeTrue())

		// the download dir is gone and no output was written
		Eventually(func() bool {
			_, err := os.Stat(acquirer.LastTempDir())
			return os.IsNotExist(err)
		}).Should(BeTrue())

		Expect(outputPath).NotTo(BeAnExistingFile())
		Expect(outputPath + ".tmp").NotTo(BeAnExistingFile())
	})
})
