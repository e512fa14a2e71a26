package acquire

import (
	"net/url"
	"path"
	"strings"
)

var directAudioExts = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
	".m4a":  true,
}

var _ Downloader = SelectDLer{}

func NewSelectDLer(youtubedler YoutubeDLer, genericdler GenericDLer) SelectDLer {
	return SelectDLer{
		youtubedler: youtubedler,
		genericdler: genericdler,
	}
}

// SelectDLer picks a download strategy from the URL's shape: direct
// audio file links go over plain HTTP, anything else goes through
// yt-dlp.
type SelectDLer struct {
	youtubedler YoutubeDLer
	genericdler GenericDLer
}

func (s SelectDLer) Download(sourceURL string, outFilePath string) error {
	if HasDirectAudioExt(sourceURL) {
		return s.genericdler.Download(sourceURL, outFilePath)
	}

	return s.youtubedler.Download(sourceURL, outFilePath)
}

func HasDirectAudioExt(sourceURL string) bool {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return false
	}

	ext := strings.ToLower(path.Ext(parsed.Path))
	return directAudioExts[ext]
}
