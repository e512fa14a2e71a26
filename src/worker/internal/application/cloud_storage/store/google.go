package store

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	cloudstorage "github.com/k0jin/acapella-maker/src/worker/internal/application/cloud_storage/entity"
	"github.com/k0jin/acapella-maker/src/worker/internal/lib/cerr"
	"google.golang.org/api/option"
)

var _ cloudstorage.FileStore = GoogleFileStore{}

func NewGoogleFileStore(storageHost string, opts ...option.ClientOption) (GoogleFileStore, error) {
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return GoogleFileStore{}, cerr.Wrap(err).Error("Failed to create cloud storage client")
	}

	return GoogleFileStore{
		storageHost:   storageHost,
		storageClient: client,
	}, nil
}

// GoogleFileStore reads and writes objects addressed by their public
// URL form, <host>/<bucket>/<object path>.
type GoogleFileStore struct {
	storageHost   string
	storageClient *storage.Client
}

func (g GoogleFileStore) GetFile(ctx context.Context, fileURL string) ([]byte, error) {
	bucket, objectPath, err := g.splitFileURL(fileURL)
	if err != nil {
		return nil, cerr.Wrap(err).Error("Failed to resolve the file URL")
	}

	reader, err := g.storageClient.Bucket(bucket).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, cerr.Field("file_url", fileURL).
			Wrap(err).Error("Failed to open the object for reading")
	}

	defer reader.Close()

	contents, err := io.ReadAll(reader)
	if err != nil {
		return nil, cerr.Field("file_url", fileURL).
			Wrap(err).Error("Failed to read the object contents")
	}

	return contents, nil
}

func (g GoogleFileStore) WriteFile(ctx context.Context, fileURL string, fileContent []byte) error {
	bucket, objectPath, err := g.splitFileURL(fileURL)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to resolve the file URL")
	}

	writer := g.storageClient.Bucket(bucket).Object(objectPath).NewWriter(ctx)

	if _, err := writer.Write(fileContent); err != nil {
		_ = writer.Close()
		return cerr.Field("file_url", fileURL).
			Wrap(err).Error("Failed to write the object contents")
	}

	if err := writer.Close(); err != nil {
		return cerr.Field("file_url", fileURL).
			Wrap(err).Error("Failed to finalize the object write")
	}

	return nil
}

func (g GoogleFileStore) splitFileURL(fileURL string) (bucket string, objectPath string, err error) {
	prefix := g.storageHost + "/"
	if !strings.HasPrefix(fileURL, prefix) {
		return "", "", cerr.Field("file_url", fileURL).
			Field("storage_host", g.storageHost).
			Error("File URL doesn't belong to this storage host")
	}

	remainder := strings.TrimPrefix(fileURL, prefix)
	parts := strings.SplitN(remainder, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", cerr.Field("file_url", fileURL).
			Error("File URL doesn't contain a bucket and object path")
	}

	return parts[0], parts[1], nil
}
