package acquire

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

// Source is a resolved, locally readable audio file. Downloaded
// sources own a private temp dir that Cleanup deletes; user-supplied
// files are never touched.
type Source struct {
	Path    string
	tempDir string
}

func NewLocalSource(path string) Source {
	return Source{Path: path}
}

func NewEphemeralSource(path string, tempDir string) Source {
	return Source{Path: path, tempDir: tempDir}
}

func (s Source) Ephemeral() bool {
	return s.tempDir != ""
}

// Cleanup deletes the ephemeral backing storage. Callers defer this
// right after a successful Acquire so the temp dir goes away on every
// exit path. Safe to call on local sources and safe to call twice.
func (s Source) Cleanup() {
	if s.tempDir == "" {
		return
	}

	if err := os.RemoveAll(s.tempDir); err != nil {
		log.WithField("temp_dir", s.tempDir).
			WithError(err).
			Error("Failed to remove the acquisition temp dir")
	}
}

type Downloader interface {
	Download(sourceURL string, outFilePath string) error
}

type Acquirer struct {
	downloader Downloader
	tempParent string
}

// NewAcquirer creates an acquirer whose downloads land in private
// temp dirs under tempParent.
func NewAcquirer(downloader Downloader, tempParent string) (Acquirer, error) {
	if err := os.MkdirAll(tempParent, os.ModePerm); err != nil {
		return Acquirer{}, errors.Wrap(err, "Failed to create the download parent dir")
	}

	return Acquirer{
		downloader: downloader,
		tempParent: tempParent,
	}, nil
}

// Acquire resolves an input spec - a filesystem path or an http(s)
// URL - to a local audio file.
func (a Acquirer) Acquire(ctx context.Context, inputSpec string) (Source, error) {
	if IsURL(inputSpec) {
		return a.acquireRemote(ctx, inputSpec)
	}

	return a.acquireLocal(inputSpec)
}

func (a Acquirer) acquireLocal(inputPath string) (Source, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return Source{}, errors.Wrap(err, "Input file can't be opened for reading")
	}

	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Source{}, errors.Wrap(err, "Input file can't be inspected")
	}

	if info.IsDir() {
		return Source{}, errors.Errorf("Input path %s is a directory, not an audio file", inputPath)
	}

	return NewLocalSource(inputPath), nil
}

func (a Acquirer) acquireRemote(ctx context.Context, sourceURL string) (Source, error) {
	if ctx.Err() != nil {
		return Source{}, errors.Wrap(ctx.Err(), "Context cancelled before the download could happen")
	}

	log.WithField("source_url", sourceURL).Info("Creating temp dir to download the source into")

	tempDir, err := os.MkdirTemp(a.tempParent, "acquire-*")
	if err != nil {
		return Source{}, errors.Wrap(err, "Failed to create a temp dir to download to")
	}

	outFilePath := filepath.Join(tempDir, downloadFileName(sourceURL))

	if err := a.downloader.Download(sourceURL, outFilePath); err != nil {
		// nothing downstream will see this dir, remove it now
		_ = os.RemoveAll(tempDir)
		return Source{}, errors.Wrap(err, "Failed to download the source")
	}

	return NewEphemeralSource(outFilePath, tempDir), nil
}

// IsURL recognizes remote input specs by scheme. Anything else is
// treated as a filesystem path.
func IsURL(inputSpec string) bool {
	parsed, err := url.Parse(inputSpec)
	if err != nil {
		return false
	}

	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// downloadFileName preserves a direct link's audio extension so the
// codec layer can pick the right decoder. Extracted downloads come
// out as mp3.
func downloadFileName(sourceURL string) string {
	if HasDirectAudioExt(sourceURL) {
		parsed, err := url.Parse(sourceURL)
		if err == nil {
			return "source" + path.Ext(parsed.Path)
		}
	}

	return "source.mp3"
}
