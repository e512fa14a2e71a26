package codec

import (
	"math"
	"os"

	"github.com/cockroachdb/errors"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/k0jin/acapella-maker/src/shared/audio"
)

func decodeWAV(file *os.File) (audio.Waveform, error) {
	decoder := wav.NewDecoder(file)

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return audio.Waveform{}, errors.Wrap(err, "Failed to read the PCM data")
	}

	if buf.Format == nil {
		return audio.Waveform{}, errors.New("WAV data carries no format information")
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 || bitDepth > 32 {
		return audio.Waveform{}, errors.Errorf("Unsupported WAV bit depth: %d", bitDepth)
	}

	scale := float64(int64(1) << (bitDepth - 1))

	samples := make([]float64, len(buf.Data))
	for i, sample := range buf.Data {
		samples[i] = float64(sample) / scale
	}

	return audio.New(samples, buf.Format.SampleRate, buf.Format.NumChannels)
}

func encodeWAV(waveform audio.Waveform, file *os.File) error {
	encoder := wav.NewEncoder(file, waveform.SampleRate, 16, waveform.Channels, 1)

	data := make([]int, len(waveform.Samples))
	for i, sample := range waveform.Samples {
		clamped := math.Max(-1.0, math.Min(1.0, sample))
		data[i] = int(math.Round(clamped * 32767.0))
	}

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: waveform.Channels,
			SampleRate:  waveform.SampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := encoder.Write(buf); err != nil {
		return errors.Wrap(err, "Failed to write the PCM data")
	}

	if err := encoder.Close(); err != nil {
		return errors.Wrap(err, "Failed to finalize the WAV file")
	}

	return nil
}
