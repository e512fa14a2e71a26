package extraction_flow_test

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"time"

	server_app "github.com/k0jin/acapella-maker/src/server/application"
	"github.com/k0jin/acapella-maker/src/shared/audio"
	"github.com/k0jin/acapella-maker/src/shared/audio/codec"
	"github.com/k0jin/acapella-maker/src/shared/config"
	. "github.com/k0jin/acapella-maker/src/shared/testing"
	worker_app "github.com/k0jin/acapella-maker/src/worker/application"

	"github.com/fsouza/fake-gcs-server/fakestorage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const sampleRate = 44100

// a tone with silent padding on both ends, so that the trim stage has
// real work to do
func makeOriginalSongWAV() []byte {
	samples := make([]float64, 5*sampleRate)
	for i := sampleRate; i < 4*sampleRate; i++ {
		t := float64(i) / sampleRate
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*t)
	}

	waveform := ExpectSuccess(audio.New(samples, sampleRate, 1))

	wavPath := filepath.Join(GinkgoT().TempDir(), "original.wav")
	Expect(codec.Save(waveform, wavPath)).To(Succeed())

	return ExpectSuccess(os.ReadFile(wavPath))
}

var _ = Describe("ExtractionFlow", func() {
	var (
		server          server_app.App
		worker          worker_app.App
		cloudStorage    *fakestorage.Server
		originalSongURL string
	)

	ServerHealthCheck := func() (int, error) {
		response, err := RequestFactory{
			Method:  "GET",
			Target:  ServerEndpoint("/health-check"),
			JSONObj: nil,
			Mods:    nil,
		}.Do()

		if err != nil {
			return 0, err
		}

		return response.StatusCode, nil
	}

	GetFileURL := func(bucket string, fileName string) string {
		return fmt.Sprintf("%s/%s/%s", cloudStorage.PublicURL(), bucket, fileName)
	}

	ExpectFileExists := func(fileURL string) {
		response := ExpectSuccess(http.Get(fileURL))
		Expect(response.StatusCode).To(Equal(http.StatusOK))
		bodyBytes := ExpectSuccess(io.ReadAll(response.Body))
		Expect(bodyBytes).NotTo(BeEmpty())
	}

	GetExtraction := func(extractionID string) map[string]interface{} {
		factory := RequestFactory{
			Method: "GET",
			Target: ServerEndpoint(fmt.Sprintf("/extractions/%s", extractionID)),
		}

		response := ExpectSuccess(factory.Do())
		Expect(response.StatusCode).To(Equal(http.StatusOK))
		return DecodeJSON[map[string]interface{}](response.Body)
	}

	CreateExtraction := func(inputURL string) string {
		payload := map[string]interface{}{
			"input_url": inputURL,
			"options": map[string]interface{}{
				"trim_enabled": true,
			},
		}

		response := ExpectSuccess(RequestFactory{
			Method:  "POST",
			Target:  ServerEndpoint("/extractions"),
			JSONObj: payload,
		}.Do())

		Expect(response.StatusCode).To(Equal(http.StatusAccepted))
		extraction := DecodeJSON[map[string]interface{}](response.Body)

		extractionID, ok := extraction["id"].(string)
		Expect(ok).To(BeTrue())
		Expect(extractionID).NotTo(BeEmpty())
		return extractionID
	}

	BeforeEach(func() {
		ResetDB(db)
	})

	BeforeEach(func() {
		userBucket := "user-upload"
		songFileName := "original.wav"

		By("Initializing Fake Cloud Storage Server")
		cloudStorage = ExpectSuccess(fakestorage.NewServerWithOptions(fakestorage.Options{
			Scheme:     "http",
			PublicHost: "localhost:4443",
			Host:       "localhost",
			Port:       4443,
			InitialObjects: []fakestorage.Object{
				{
					ObjectAttrs: fakestorage.ObjectAttrs{
						BucketName: userBucket,
						Name:       songFileName,
					},
					Content: makeOriginalSongWAV(),
				},
			},
		}))

		cloudStorage.CreateBucket(bucketName)

		By("Checking that the original song is in the bucket")
		originalSongURL = GetFileURL(userBucket, songFileName)
		ExpectFileExists(originalSongURL)
	})

	AfterEach(func() {
		cloudStorage.Stop()
	})

	BeforeEach(func() {
		By("Initializing Worker")
		worker = worker_app.NewApp(
			WorkerConfig(region, config.LocalCloudStorage{
				StorageHost:  cloudStorage.PublicURL(),
				HostEndpoint: fmt.Sprintf("%s/storage/v1", cloudStorage.PublicURL()),
				BucketName:   bucketName,
			}),
		)

		go func() {
			defer GinkgoRecover()

			err := worker.Start()
			Expect(err).NotTo(HaveOccurred())
		}()
	})

	AfterEach(func() {
		worker.Stop()
	})

	BeforeEach(func() {
		By("Initializing Server")
		server = server_app.NewApp(ServerConfig(region))

		go func() {
			defer GinkgoRecover()

			err := server.Start()
			Expect(err).NotTo(HaveOccurred())
		}()

		Eventually(ServerHealthCheck).Should(Equal(http.StatusOK))
	})

	AfterEach(func() {
		err := server.Stop()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("A valid extraction request", func() {
		var (
			extractionID string
		)

		BeforeEach(func() {
			extractionID = CreateExtraction(originalSongURL)
		})

		It("extracts the acapella", func() {
			GetStatus := func() string {
				extraction := GetExtraction(extractionID)

				status, ok := extraction["status"].(string)
				Expect(ok).To(BeTrue())

				if status == "failed" {
					fmt.Println(extraction)
					Fail("Extraction has errored")
				}

				return status
			}

			By("detecting that the extraction completes")
			Eventually(GetStatus, 5*time.Minute, time.Second).Should(Equal("completed"))

			extraction := GetExtraction(extractionID)
			result, ok := extraction["result"].(map[string]interface{})
			Expect(ok).To(BeTrue())

			By("verifying the output URL points to a file")
			outputURL, ok := result["output_url"].(string)
			Expect(ok).To(BeTrue())
			ExpectFileExists(outputURL)

			By("verifying the trim accounting")
			originalDuration, ok := result["original_duration_s"].(float64)
			Expect(ok).To(BeTrue())
			Expect(originalDuration).To(BeNumerically("~", 5.0, 0.1))

			trimmedDuration, ok := result["trimmed_duration_s"].(float64)
			Expect(ok).To(BeTrue())
			Expect(trimmedDuration).To(BeNumerically(">", 0.0))
			Expect(trimmedDuration).To(BeNumerically("<", originalDuration))
		})
	})

	Describe("An extraction request for a missing file", func() {
		var (
			extractionID string
		)

		BeforeEach(func() {
			extractionID = CreateExtraction(GetFileURL("user-upload", "no-such-song.wav"))
		})

		It("reports the failure", func() {
			GetStatus := func() string {
				extraction := GetExtraction(extractionID)

				status, ok := extraction["status"].(string)
				Expect(ok).To(BeTrue())
				return status
			}

			Eventually(GetStatus, time.Minute, time.Second).Should(Equal("failed"))

			extraction := GetExtraction(extractionID)
			Expect(extraction["failure_message"]).NotTo(BeEmpty())
		})
	})
})
