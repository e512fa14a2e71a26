package extractionentity

import (
	"context"
)

type Updater func(extraction Extraction) (Extraction, error)

type Store interface {
	GetExtraction(ctx context.Context, id string) (Extraction, error)
	SetExtraction(ctx context.Context, extraction Extraction) error
	UpdateExtraction(ctx context.Context, id string, updater Updater) error
}
