package codec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/k0jin/acapella-maker/src/shared/audio"
	"github.com/k0jin/acapella-maker/src/shared/lib/errors/mark"
)

// marker errors, to be checked with markers.Is
var (
	DecodeFailed = errors.New("Failed to decode the audio file")
	EncodeFailed = errors.New("Failed to encode the audio file")
)

type decodeFunc func(file *os.File) (audio.Waveform, error)

var decoders = map[string]decodeFunc{
	".wav": decodeWAV,
	".mp3": decodeMP3,
	".ogg": decodeVorbis,
	".oga": decodeVorbis,
}

// Load decodes the audio file at path into a normalized waveform.
// The container format is chosen by file extension.
func Load(path string) (audio.Waveform, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return audio.Waveform{}, mark.Message(DecodeFailed,
			fmt.Sprintf("No decoder is registered for %q files", ext))
	}

	file, err := os.Open(path)
	if err != nil {
		return audio.Waveform{}, mark.Wrap(err, DecodeFailed, "Failed to open the audio file")
	}

	defer file.Close()

	waveform, err := decode(file)
	if err != nil {
		return audio.Waveform{}, mark.Wrap(err, DecodeFailed, "Failed to decode the audio contents")
	}

	return waveform, nil
}

// Save writes the waveform to path as 16-bit PCM WAV at its native
// sample rate, whatever the path's extension says.
func Save(waveform audio.Waveform, path string) error {
	if len(waveform.Samples) == 0 {
		return mark.Message(EncodeFailed, "Refusing to write an empty waveform")
	}

	file, err := os.Create(path)
	if err != nil {
		return mark.Wrap(err, EncodeFailed, "Failed to create the output file")
	}

	defer file.Close()

	if err := encodeWAV(waveform, file); err != nil {
		return mark.Wrap(err, EncodeFailed, "Failed to encode the waveform")
	}

	return nil
}

// IO adapts the package functions to the orchestrator's audio IO
// dependency so it can be swapped out in tests.
type IO struct{}

func (IO) Load(path string) (audio.Waveform, error) {
	return Load(path)
}

func (IO) Save(waveform audio.Waveform, path string) error {
	return Save(waveform, path)
}
