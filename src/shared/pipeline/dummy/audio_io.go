package dummy

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/k0jin/acapella-maker/src/shared/audio"
	"github.com/k0jin/acapella-maker/src/shared/pipeline"
)

var _ pipeline.AudioIO = &AudioIO{}

func NewAudioIO(loadWaveform audio.Waveform) *AudioIO {
	return &AudioIO{
		LoadWaveform: loadWaveform,
		Saved:        map[string]audio.Waveform{},
	}
}

// AudioIO returns a canned waveform on load and records saves. Save
// still creates a real file so the pipeline's rename-into-place step
// behaves the same as with the codec-backed implementation.
type AudioIO struct {
	LoadWaveform audio.Waveform
	LoadFails    bool
	SaveFails    bool

	mutex     sync.Mutex
	LoadPaths []string
	Saved     map[string]audio.Waveform
}

func (a *AudioIO) Load(path string) (audio.Waveform, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.LoadFails {
		return audio.Waveform{}, errors.New("dummy decode failure")
	}

	a.LoadPaths = append(a.LoadPaths, path)

	return a.LoadWaveform, nil
}

func (a *AudioIO) Save(waveform audio.Waveform, path string) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.SaveFails {
		return errors.New("dummy encode failure")
	}

	if err := os.WriteFile(path, []byte("encoded audio"), 0644); err != nil {
		return errors.Wrap(err, "Failed to write dummy output file")
	}

	a.Saved[path] = waveform

	return nil
}
