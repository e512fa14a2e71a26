package dummy

import (
	"context"
	"sync"

	extractionentity "github.com/k0jin/acapella-maker/src/shared/extraction/entity"
	"github.com/k0jin/acapella-maker/src/worker/internal/lib/cerr"
)

var _ extractionentity.Store = &ExtractionStore{}

func NewDummyExtractionStore() *ExtractionStore {
	return &ExtractionStore{
		Unavailable: false,
		State:       make(map[string]extractionentity.Extraction),
	}
}

type ExtractionStore struct {
	Unavailable bool
	State       map[string]extractionentity.Extraction
	mutex       sync.RWMutex
}

func (e *ExtractionStore) GetExtraction(ctx context.Context, id string) (extractionentity.Extraction, error) {
	if e.Unavailable {
		return extractionentity.Extraction{}, NetworkFailure
	}

	e.mutex.RLock()
	defer e.mutex.RUnlock()

	extraction, ok := e.State[id]
	if !ok {
		return extractionentity.Extraction{}, NotFound
	}

	return extraction, nil
}

func (e *ExtractionStore) SetExtraction(ctx context.Context, extraction extractionentity.Extraction) error {
	if e.Unavailable {
		return NetworkFailure
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.State[extraction.GetID()] = extraction
	return nil
}

func (e *ExtractionStore) UpdateExtraction(ctx context.Context, id string, updater extractionentity.Updater) error {
	if e.Unavailable {
		return NetworkFailure
	}

	extraction, err := e.GetExtraction(ctx, id)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to get extraction from DB")
	}

	updatedExtraction, err := updater(extraction)
	if err != nil {
		return cerr.Wrap(err).Error("Extraction update function failed")
	}

	return e.SetExtraction(ctx, updatedExtraction)
}
