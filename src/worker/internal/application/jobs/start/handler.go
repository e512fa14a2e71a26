package start

import (
	"context"
	"encoding/json"

	extractionentity "github.com/k0jin/acapella-maker/src/shared/extraction/entity"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/job_message"
	"github.com/k0jin/acapella-maker/src/worker/internal/lib/cerr"
)

const JobType string = "start_job"
const ErrorMessage string = "Failed to start processing the extraction"

type StartJobHandler interface {
	HandleStartJob(message []byte) (JobParams, error)
}

type JobParams struct {
	job_message.ExtractionIdentifier
}

func NewJobHandler(extractionStore extractionentity.Store) JobHandler {
	return JobHandler{
		extractionStore: extractionStore,
	}
}

type JobHandler struct {
	extractionStore extractionentity.Store
}

func (d JobHandler) HandleStartJob(message []byte) (JobParams, error) {
	params, err := unmarshalMessage(message)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("extraction_id", params.ExtractionID)

	updater := func(extraction extractionentity.Extraction) (extractionentity.Extraction, error) {
		if extraction.Defined.Status != extractionentity.RequestedStatus {
			return extractionentity.Extraction{}, errctx.Error("Extraction is not in requested status, abort processing to be safe")
		}

		extraction.Defined.Status = extractionentity.ProcessingStatus

		return extraction, nil
	}

	err = d.extractionStore.UpdateExtraction(context.Background(), params.ExtractionID, updater)
	if err != nil {
		return JobParams{}, errctx.Wrap(err).Error("Failed to set the extraction status")
	}

	return params, nil
}

func unmarshalMessage(message []byte) (JobParams, error) {
	params := JobParams{}
	err := json.Unmarshal(message, &params)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	if params.ExtractionID == "" {
		return JobParams{}, cerr.Field("job_params", params).Error("Missing extraction ID")
	}

	return params, nil
}
