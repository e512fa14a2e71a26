package store_test

import (
	"context"
	"fmt"

	. "github.com/k0jin/acapella-maker/src/shared/testing"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/cloud_storage/store"

	"github.com/fsouza/fake-gcs-server/fakestorage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/api/option"
)

var _ = Describe("GoogleFileStore", func() {
	const bucketName = "acapella-store-test"

	var (
		cloudStorage *fakestorage.Server
		fileStore    store.GoogleFileStore
	)

	BeforeEach(func() {
		cloudStorage = ExpectSuccess(fakestorage.NewServerWithOptions(fakestorage.Options{
			Scheme:     "http",
			PublicHost: "localhost:4443",
			Host:       "localhost",
			Port:       4443,
			InitialObjects: []fakestorage.Object{
				{
					ObjectAttrs: fakestorage.ObjectAttrs{
						BucketName: bucketName,
						Name:       "prior/contents.txt",
					},
					Content: []byte("already here"),
				},
			},
		}))

		fileStore = ExpectSuccess(store.NewGoogleFileStore(
			cloudStorage.PublicURL(),
			option.WithEndpoint(fmt.Sprintf("%s/storage/v1", cloudStorage.PublicURL())),
			option.WithAPIKey("fake_api_key"),
		))
	})

	AfterEach(func() {
		cloudStorage.Stop()
	})

	fileURL := func(objectPath string) string {
		return fmt.Sprintf("%s/%s/%s", cloudStorage.PublicURL(), bucketName, objectPath)
	}

	Describe("GetFile", func() {
		It("reads an existing object", func() {
			contents := ExpectSuccess(fileStore.GetFile(context.Background(), fileURL("prior/contents.txt")))
			Expect(contents).To(Equal([]byte("already here")))
		})

		It("fails for a missing object", func() {
			_, err := fileStore.GetFile(context.Background(), fileURL("nope.txt"))
			Expect(err).To(HaveOccurred())
		})

		It("fails for a URL outside the storage host", func() {
			_, err := fileStore.GetFile(context.Background(), "https://elsewhere.com/bucket/object.txt")
			Expect(err).To(HaveOccurred())
		})

		It("fails for a URL without an object path", func() {
			_, err := fileStore.GetFile(context.Background(), fmt.Sprintf("%s/%s", cloudStorage.PublicURL(), bucketName))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("WriteFile", func() {
		It("writes an object that can be read back", func() {
			url := fileURL("some-extraction-id/acapella.wav")

			err := fileStore.WriteFile(context.Background(), url, []byte("acapella bytes"))
			Expect(err).NotTo(HaveOccurred())

			contents := ExpectSuccess(fileStore.GetFile(context.Background(), url))
			Expect(contents).To(Equal([]byte("acapella bytes")))
		})

		It("overwrites an existing object", func() {
			url := fileURL("prior/contents.txt")

			err := fileStore.WriteFile(context.Background(), url, []byte("new contents"))
			Expect(err).NotTo(HaveOccurred())

			contents := ExpectSuccess(fileStore.GetFile(context.Background(), url))
			Expect(contents).To(Equal([]byte("new contents")))
		})
	})
})
