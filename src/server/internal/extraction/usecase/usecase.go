package extractionusecase

import (
	"context"
	"encoding/json"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/k0jin/acapella-maker/src/server/internal/errors/api"
	"github.com/k0jin/acapella-maker/src/server/internal/extraction/errors"
	"github.com/k0jin/acapella-maker/src/shared/acquire"
	"github.com/k0jin/acapella-maker/src/shared/extraction/entity"
	"github.com/k0jin/acapella-maker/src/shared/extraction/storage"
	"github.com/k0jin/acapella-maker/src/shared/lib/rabbitmq"
	"github.com/rabbitmq/amqp091-go"
)

type Usecase struct {
	db        extractionentity.Store
	publisher rabbitmq.Publisher
}

func NewUsecase(db extractionentity.Store, publisher rabbitmq.Publisher) Usecase {
	return Usecase{
		db:        db,
		publisher: publisher,
	}
}

func (u Usecase) GetExtraction(ctx context.Context, id string) (extractionentity.Extraction, *api.Error) {
	extraction, err := u.db.GetExtraction(ctx, id)
	if err != nil {
		err = errors.Wrap(err, "Failed to get extraction from DB")
		switch {
		case markers.Is(err, extractionstorage.ExtractionNotFound):
			return extractionentity.Extraction{}, api.CommitError(err,
				extractionerrors.ExtractionNotFoundCode,
				"No extraction was found with this ID")

		case markers.Is(err, extractionstorage.UnmarshalMark):
			fallthrough
		case markers.Is(err, extractionstorage.DefaultErrorMark):
			fallthrough
		default:
			return extractionentity.Extraction{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown Error: Failed to fetch the extraction")
		}
	}

	return extraction, nil
}

func (u Usecase) CreateExtraction(ctx context.Context, extraction extractionentity.Extraction) (extractionentity.Extraction, *api.Error) {
	if !extraction.IsNew() {
		err := errors.New("Extraction has an ID set already")
		return extractionentity.Extraction{}, api.CommitError(err,
			extractionerrors.ExtractionOverwriteCode,
			"An extraction cannot be created with an ID. Check that this extraction hasn't already been requested")
	}

	if !acquire.IsURL(extraction.Defined.InputURL) {
		err := errors.New("Input URL is not a valid HTTP URL")
		return extractionentity.Extraction{}, api.CommitError(err,
			extractionerrors.InvalidInputURLCode,
			"The input URL must be a valid http or https URL")
	}

	extraction.CreateID()
	extraction.InitializeRequest()

	err := u.db.SetExtraction(ctx, extraction)
	if err != nil {
		err = errors.Wrap(err, "Failed to save the new extraction")
		return extractionentity.Extraction{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to save the extraction request. Please contact the developer")
	}

	// do this as non-blocking as it's long term async work
	go u.publishStartJob(extraction.GetID())

	return extraction, nil
}

type extractionIdentifier struct {
	ExtractionID string `json:"extraction_id"`
}

func (u Usecase) publishStartJob(extractionID string) {
	jsonBytes, err := json.Marshal(extractionIdentifier{
		ExtractionID: extractionID,
	})

	if err != nil {
		err = errors.Wrap(err, "Failed to marshal extraction ID for queue msg")
		u.markExtractionFailed(extractionID, err)
		return
	}

	publishMsg := amqp091.Publishing{
		Type: "start_job",
		Body: jsonBytes,
	}

	err = u.publisher.Publish(publishMsg)
	if err != nil {
		err = errors.Wrap(err, "Failed to publish message to rabbitmq")
		u.markExtractionFailed(extractionID, err)
		return
	}
}

func (u Usecase) markExtractionFailed(extractionID string, jobErr error) {
	updater := func(extraction extractionentity.Extraction) (extractionentity.Extraction, error) {
		extraction.Defined.Status = extractionentity.FailedStatus
		extraction.Defined.FailureMessage = jobErr.Error()
		return extraction, nil
	}

	err := u.db.UpdateExtraction(context.Background(), extractionID, updater)
	if err != nil {
		log.WithField("extraction_id", extractionID).
			Error("Failed to mark extraction as failed in DB")
		return
	}
}
