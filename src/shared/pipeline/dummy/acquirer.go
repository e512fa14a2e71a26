package dummy

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/k0jin/acapella-maker/src/shared/acquire"
	"github.com/k0jin/acapella-maker/src/shared/pipeline"
)

var _ pipeline.Acquirer = &Acquirer{}

func NewAcquirer() *Acquirer {
	return &Acquirer{}
}

// Acquirer hands out real temp dirs for URL specs so that cleanup
// behavior can be observed from tests.
type Acquirer struct {
	Unavailable bool

	mutex        sync.Mutex
	lastTempDir  string
	acquireCount int
}

func (a *Acquirer) Acquire(ctx context.Context, inputSpec string) (acquire.Source, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.acquireCount++

	if a.Unavailable {
		return acquire.Source{}, NetworkFailure
	}

	if !acquire.IsURL(inputSpec) {
		return acquire.NewLocalSource(inputSpec), nil
	}

	tempDir, err := os.MkdirTemp("", "dummy-acquire-*")
	if err != nil {
		return acquire.Source{}, errors.Wrap(err, "Failed to create dummy temp dir")
	}

	sourcePath := filepath.Join(tempDir, "source.mp3")
	if err := os.WriteFile(sourcePath, []byte("downloaded media"), 0644); err != nil {
		return acquire.Source{}, errors.Wrap(err, "Failed to write dummy source file")
	}

	a.lastTempDir = tempDir

	return acquire.NewEphemeralSource(sourcePath, tempDir), nil
}

func (a *Acquirer) LastTempDir() string {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.lastTempDir
}

func (a *Acquirer) AcquireCount() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.acquireCount
}
