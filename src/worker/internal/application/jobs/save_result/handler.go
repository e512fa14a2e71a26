package save_result

import (
	"context"
	"encoding/json"

	extractionentity "github.com/k0jin/acapella-maker/src/shared/extraction/entity"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/job_message"
	"github.com/k0jin/acapella-maker/src/worker/internal/lib/cerr"
)

const JobType string = "save_result_job"
const ErrorMessage string = "Failed to save the extraction result"

type SaveResultJobHandler interface {
	HandleSaveResultJob(message []byte) error
}

type JobParams struct {
	job_message.ExtractionIdentifier
	Result extractionentity.ResultFields `json:"result"`
}

func NewJobHandler(extractionStore extractionentity.Store) JobHandler {
	return JobHandler{
		extractionStore: extractionStore,
	}
}

type JobHandler struct {
	extractionStore extractionentity.Store
}

func (s JobHandler) HandleSaveResultJob(message []byte) error {
	params, err := unmarshalMessage(message)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("extraction_id", params.ExtractionID)

	updater := func(extraction extractionentity.Extraction) (extractionentity.Extraction, error) {
		if extraction.Defined.Status != extractionentity.ProcessingStatus {
			return extractionentity.Extraction{}, errctx.Error("Extraction is not in processing status, refusing to record a result")
		}

		extraction.Defined.Status = extractionentity.CompletedStatus
		extraction.Defined.Result = params.Result

		return extraction, nil
	}

	err = s.extractionStore.UpdateExtraction(context.Background(), params.ExtractionID, updater)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to update the extraction")
	}

	return nil
}

func unmarshalMessage(message []byte) (JobParams, error) {
	params := JobParams{}
	err := json.Unmarshal(message, &params)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("job_params", params)

	if params.ExtractionID == "" {
		return JobParams{}, errctx.Error("Missing extraction ID")
	}

	if params.Result.OutputURL == "" {
		return JobParams{}, errctx.Error("Missing output URL")
	}

	return params, nil
}
