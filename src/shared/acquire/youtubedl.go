package acquire

import (
	"fmt"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/k0jin/acapella-maker/src/shared/lib/executor"
)

var _ Downloader = YoutubeDLer{}

func NewYoutubeDLer(youtubedlBinPath string, commandExecutor executor.Executor) YoutubeDLer {
	return YoutubeDLer{
		youtubedlBinPath: youtubedlBinPath,
		commandExecutor:  commandExecutor,
	}
}

// YoutubeDLer downloads any URL yt-dlp understands and extracts the
// audio to mp3.
type YoutubeDLer struct {
	youtubedlBinPath string
	commandExecutor  executor.Executor
}

func (y YoutubeDLer) Download(sourceURL string, outFilePath string) error {
	err := y.download(sourceURL, outFilePath)
	// error may be fixable by clearing the cache dir
	// so try again in case that's the issue
	if err != nil {
		y.clearCache()
		return y.download(sourceURL, outFilePath)
	}

	return nil
}

func (y YoutubeDLer) download(sourceURL string, outFilePath string) error {
	log.Info("Running yt-dlp")

	cmd := y.commandExecutor.Command(y.youtubedlBinPath, "-o", outFilePath, "-x", "--audio-format", "mp3", "--audio-quality", "0", sourceURL)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("Failed to run yt-dlp: %s", string(output)))
	}

	return nil
}

func (y YoutubeDLer) clearCache() {
	log.Info("Clearing yt-dlp cache")
	cmd := y.commandExecutor.Command(y.youtubedlBinPath, "--rm-cache-dir")
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Error(fmt.Sprintf("Failed to clear cache: %s", string(output)))
	}
}
