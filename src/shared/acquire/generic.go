package acquire

import (
	"io"
	"net/http"
	"os"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

var _ Downloader = GenericDLer{}

func NewGenericDLer() GenericDLer {
	return GenericDLer{}
}

// GenericDLer fetches direct audio file links over plain HTTP.
type GenericDLer struct{}

func (GenericDLer) Download(sourceURL string, outFilePath string) error {
	log.WithField("source_url", sourceURL).Info("Downloading direct audio link")

	resp, err := http.Get(sourceURL)
	if err != nil {
		return errors.Wrap(err, "Failed to fetch the source URL")
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("Source URL responded with status %s", resp.Status)
	}

	outFile, err := os.Create(outFilePath)
	if err != nil {
		return errors.Wrap(err, "Failed to create the output file")
	}

	defer outFile.Close()

	if _, err := io.Copy(outFile, resp.Body); err != nil {
		return errors.Wrap(err, "Failed to write the downloaded contents")
	}

	return nil
}
