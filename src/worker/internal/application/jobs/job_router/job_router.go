package job_router

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"
	extractionentity "github.com/k0jin/acapella-maker/src/shared/extraction/entity"
	"github.com/k0jin/acapella-maker/src/shared/lib/rabbitmq"
	"github.com/k0jin/acapella-maker/src/shared/pipeline"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/extract"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/job_message"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/save_result"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/start"
	"github.com/k0jin/acapella-maker/src/worker/internal/lib/cerr"
)

// JobRouter dispatches queue messages to the job handlers and chains
// the next job on success. A failing job marks the extraction failed
// before the error bubbles up to the worker loop's nack.
type JobRouter struct {
	extractionStore   extractionentity.Store
	publisher         rabbitmq.Publisher
	startHandler      start.StartJobHandler
	extractHandler    extract.ExtractJobHandler
	saveResultHandler save_result.SaveResultJobHandler
}

func NewJobRouter(
	extractionStore extractionentity.Store,
	publisher rabbitmq.Publisher,
	startHandler start.StartJobHandler,
	extractHandler extract.ExtractJobHandler,
	saveResultHandler save_result.SaveResultJobHandler,
) JobRouter {
	return JobRouter{
		extractionStore:   extractionStore,
		publisher:         publisher,
		startHandler:      startHandler,
		extractHandler:    extractHandler,
		saveResultHandler: saveResultHandler,
	}
}

func (j JobRouter) HandleMessage(message amqp091.Delivery) error {
	switch message.Type {
	case start.JobType:
		return j.handleStartJob(message.Body)
	case extract.JobType:
		return j.handleExtractJob(message.Body)
	case save_result.JobType:
		return j.handleSaveResultJob(message.Body)
	default:
		return cerr.Field("message_type", message.Type).
			Error("Unrecognized message type")
	}
}

func (j JobRouter) handleStartJob(message []byte) error {
	params, err := j.startHandler.HandleStartJob(message)
	if err != nil {
		j.markExtractionFailed(message, start.ErrorMessage, err)
		return cerr.Wrap(err).Error(start.ErrorMessage)
	}

	nextParams := extract.JobParams{
		ExtractionIdentifier: params.ExtractionIdentifier,
	}

	return j.publishNextJob(extract.JobType, nextParams)
}

func (j JobRouter) handleExtractJob(message []byte) error {
	saveParams, err := j.extractHandler.HandleExtractJob(message)
	if err != nil {
		j.markExtractionFailed(message, extract.ErrorMessage, err)
		return cerr.Wrap(err).Error(extract.ErrorMessage)
	}

	return j.publishNextJob(save_result.JobType, saveParams)
}

func (j JobRouter) handleSaveResultJob(message []byte) error {
	if err := j.saveResultHandler.HandleSaveResultJob(message); err != nil {
		j.markExtractionFailed(message, save_result.ErrorMessage, err)
		return cerr.Wrap(err).Error(save_result.ErrorMessage)
	}

	return nil
}

func (j JobRouter) publishNextJob(jobType string, params any) error {
	jsonBytes, err := json.Marshal(params)
	if err != nil {
		return cerr.Field("job_type", jobType).
			Wrap(err).Error("Failed to marshal the next job params")
	}

	err = j.publisher.Publish(amqp091.Publishing{
		Type: jobType,
		Body: jsonBytes,
	})

	if err != nil {
		return cerr.Field("job_type", jobType).
			Wrap(err).Error("Failed to publish the next job")
	}

	return nil
}

// markExtractionFailed is best effort - the job error is what gets
// reported either way.
func (j JobRouter) markExtractionFailed(message []byte, errorMessage string, jobErr error) {
	params := job_message.ExtractionIdentifier{}
	if err := json.Unmarshal(message, &params); err != nil || params.ExtractionID == "" {
		cerr.Log(cerr.Wrap(jobErr).Error("Can't mark the extraction failed without an extraction ID"))
		return
	}

	failureStage := ""
	if stage, ok := pipeline.StageOf(jobErr); ok {
		failureStage = string(stage)
	}

	updater := func(extraction extractionentity.Extraction) (extractionentity.Extraction, error) {
		extraction.Defined.Status = extractionentity.FailedStatus
		extraction.Defined.FailureStage = failureStage
		extraction.Defined.FailureMessage = errorMessage

		return extraction, nil
	}

	err := j.extractionStore.UpdateExtraction(context.Background(), params.ExtractionID, updater)
	if err != nil {
		cerr.Log(cerr.Field("extraction_id", params.ExtractionID).
			Wrap(err).Error("Failed to mark the extraction failed"))
	}
}
