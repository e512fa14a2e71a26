package integration_test_test

import (
	"context"
	"encoding/json"

	"github.com/k0jin/acapella-maker/src/shared/audio"
	"github.com/k0jin/acapella-maker/src/shared/config/prod"
	extractionentity "github.com/k0jin/acapella-maker/src/shared/extraction/entity"
	"github.com/k0jin/acapella-maker/src/shared/pipeline"
	pipelinedummy "github.com/k0jin/acapella-maker/src/shared/pipeline/dummy"
	"github.com/k0jin/acapella-maker/src/shared/tempo"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/integration_test/dummy"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/extract"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/job_message"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/job_router"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/save_result"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/start"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/worker"
	"github.com/k0jin/acapella-maker/src/worker/internal/lib/storagepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rabbitmq/amqp091-go"
)

const sampleRate = 44100

func steadyTone(amplitude float64, seconds float64) audio.Waveform {
	samples := make([]float64, int(seconds*sampleRate))
	for i := range samples {
		samples[i] = amplitude
	}

	waveform, err := audio.New(samples, sampleRate, 1)
	Expect(err).NotTo(HaveOccurred())
	return waveform
}

var _ = Describe("IntegrationTest", func() {
	var (
		extractionID string
		inputURL     string
		bucketName   string

		rabbitMQ        *dummy.RabbitMQ
		fileStore       *dummy.FileStore
		extractionStore *dummy.ExtractionStore
		separator       *pipelinedummy.Separator

		queueWorker worker.QueueWorker
		run         func()
	)

	BeforeEach(func() {
		By("Assigning data to variables", func() {
			extractionID = "extraction-ID"
			inputURL = "https://www.youtube.com/watch?v=abc123"
			bucketName = "bucket-head"
		})

		By("Instantiating all dummies", func() {
			rabbitMQ = dummy.NewRabbitMQ()
			fileStore = dummy.NewDummyFileStore()
			extractionStore = dummy.NewDummyExtractionStore()
			separator = pipelinedummy.NewSeparator(steadyTone(0.25, 1))
		})

		By("Setting up the extraction store", func() {
			extraction := extractionentity.Extraction{}
			extraction.Defined.ID = extractionID
			extraction.Defined.InputURL = inputURL
			extraction.Defined.Options = extractionentity.RequestOptions{
				ThresholdDB: 30,
				FadeInMS:    5,
				TrimEnabled: true,
			}
			extraction.Defined.Status = extractionentity.RequestedStatus

			err := extractionStore.SetExtraction(context.Background(), extraction)
			Expect(err).NotTo(HaveOccurred())
		})

		var startHandler start.JobHandler
		By("Creating the start job handler", func() {
			startHandler = start.NewJobHandler(extractionStore)
		})

		pathGenerator := storagepath.Generator{
			Host:   prod.GOOGLE_STORAGE_HOST,
			Bucket: bucketName,
		}

		var extractHandler extract.JobHandler
		By("Creating the extract job handler", func() {
			extractionPipeline := pipeline.NewPipeline(
				pipelinedummy.NewAcquirer(),
				pipelinedummy.NewAudioIO(steadyTone(0.5, 2)),
				separator,
				pipelinedummy.NewTempoEstimator(tempo.Estimate{BPM: 128.3, Confidence: 0.95}),
			)

			var err error
			extractHandler, err = extract.NewJobHandler(
				extractionStore,
				extractionPipeline,
				fileStore,
				pathGenerator,
				workingDir,
			)
			Expect(err).NotTo(HaveOccurred())
		})

		var saveHandler save_result.JobHandler
		By("Creating the save result job handler", func() {
			saveHandler = save_result.NewJobHandler(extractionStore)
		})

		By("Instantiating the worker", func() {
			router := job_router.NewJobRouter(
				extractionStore,
				rabbitMQ,
				startHandler,
				extractHandler,
				saveHandler,
			)
			queueWorker = worker.NewQueueWorker(rabbitMQ, "test-queue", router)
		})

		By("Setting up the run routine", func() {
			run = func() {
				go func() {
					defer GinkgoRecover()
					err := queueWorker.Start()
					Expect(err).NotTo(HaveOccurred())
				}()

				startJobParams := start.JobParams{
					ExtractionIdentifier: job_message.ExtractionIdentifier{
						ExtractionID: extractionID,
					},
				}

				jsonBytes, err := json.Marshal(startJobParams)
				Expect(err).NotTo(HaveOccurred())

				message := amqp091.Publishing{
					Type: start.JobType,
					Body: jsonBytes,
				}
				err = rabbitMQ.Publish(message)
				Expect(err).NotTo(HaveOccurred())
			}
		})
	})

	Describe("All jobs run successfully", func() {
		It("gets 3 acks", func() {
			run()

			Eventually(func() int {
				return rabbitMQ.AckCounter
			}).Should(Equal(3))
		})

		It("gets no nacks", func() {
			run()

			Consistently(func() int {
				return rabbitMQ.NackCounter
			}).Should(Equal(0))
		})

		It("uploads the acapella and completes the extraction", func() {
			run()

			expectedURL := prod.GOOGLE_STORAGE_HOST + "/" + bucketName + "/" + extractionID + "/acapella.wav"

			Eventually(func() bool {
				extraction, err := extractionStore.GetExtraction(context.Background(), extractionID)
				if err != nil {
					return false
				}

				if extraction.Defined.Status != extractionentity.CompletedStatus {
					return false
				}

				if extraction.Defined.Result.BPM != 128.3 {
					return false
				}

				if extraction.Defined.Result.OutputURL != expectedURL {
					return false
				}

				contents, err := fileStore.GetFile(context.Background(), expectedURL)
				if err != nil {
					return false
				}

				return len(contents) > 0
			}).Should(BeTrue())
		})
	})

	Describe("BPM suffix requested", func() {
		BeforeEach(func() {
			extraction, err := extractionStore.GetExtraction(context.Background(), extractionID)
			Expect(err).NotTo(HaveOccurred())

			extraction.Defined.Options.BPMSuffix = true
			err = extractionStore.SetExtraction(context.Background(), extraction)
			Expect(err).NotTo(HaveOccurred())
		})

		It("names the uploaded acapella with the rounded bpm", func() {
			run()

			expectedURL := prod.GOOGLE_STORAGE_HOST + "/" + bucketName + "/" + extractionID + "/acapella_128bpm.wav"

			Eventually(func() bool {
				extraction, err := extractionStore.GetExtraction(context.Background(), extractionID)
				if err != nil {
					return false
				}

				if extraction.Defined.Status != extractionentity.CompletedStatus {
					return false
				}

				if extraction.Defined.Result.OutputURL != expectedURL {
					return false
				}

				_, err = fileStore.GetFile(context.Background(), expectedURL)
				return err == nil
			}).Should(BeTrue())
		})
	})

	Describe("File storage is down", func() {
		BeforeEach(func() {
			fileStore.Unavailable = true
		})

		It("gets 1 ack for the start job", func() {
			run()

			Eventually(func() int {
				return rabbitMQ.AckCounter
			}).Should(Equal(1))
		})

		It("gets 1 nack for the extract job failing", func() {
			run()

			Eventually(func() int {
				return rabbitMQ.NackCounter
			}).Should(Equal(1))
		})

		It("reports the failed status", func() {
			run()

			Eventually(func() bool {
				extraction, err := extractionStore.GetExtraction(context.Background(), extractionID)
				if err != nil {
					return false
				}

				if extraction.Defined.Status != extractionentity.FailedStatus {
					return false
				}

				return extraction.Defined.FailureMessage == extract.ErrorMessage
			}).Should(BeTrue())
		})
	})

	Describe("Separation is down", func() {
		BeforeEach(func() {
			separator.Unavailable = true
		})

		It("reports the failed status with the separation stage", func() {
			run()

			Eventually(func() bool {
				extraction, err := extractionStore.GetExtraction(context.Background(), extractionID)
				if err != nil {
					return false
				}

				if extraction.Defined.Status != extractionentity.FailedStatus {
					return false
				}

				return extraction.Defined.FailureStage == string(pipeline.StageSeparate)
			}).Should(BeTrue())
		})
	})
})
