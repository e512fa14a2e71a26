package codec

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/k0jin/acapella-maker/src/shared/audio"
)

// go-mp3 always emits 16-bit little-endian PCM with two channels.
const mp3Channels = 2

func decodeMP3(file *os.File) (audio.Waveform, error) {
	decoder, err := gomp3.NewDecoder(file)
	if err != nil {
		return audio.Waveform{}, errors.Wrap(err, "Failed to open the MP3 stream")
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return audio.Waveform{}, errors.Wrap(err, "Failed to read the MP3 stream")
	}

	sampleCount := len(pcm) / 2
	samples := make([]float64, sampleCount)
	for i := 0; i < sampleCount; i++ {
		low := uint16(pcm[2*i])
		high := uint16(pcm[2*i+1])
		value := int16(low | high<<8)
		samples[i] = float64(value) / 32768.0
	}

	return audio.New(samples, decoder.SampleRate(), mp3Channels)
}
