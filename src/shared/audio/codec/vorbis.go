package codec

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/jfreymuth/oggvorbis"
	"github.com/k0jin/acapella-maker/src/shared/audio"
)

func decodeVorbis(file *os.File) (audio.Waveform, error) {
	data, format, err := oggvorbis.ReadAll(file)
	if err != nil {
		return audio.Waveform{}, errors.Wrap(err, "Failed to read the Ogg Vorbis stream")
	}

	samples := make([]float64, len(data))
	for i, sample := range data {
		samples[i] = float64(sample)
	}

	return audio.New(samples, format.SampleRate, format.Channels)
}
