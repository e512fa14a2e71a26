package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	extractionentity "github.com/k0jin/acapella-maker/src/shared/extraction/entity"
	"github.com/k0jin/acapella-maker/src/shared/lib/working_dir"
	"github.com/k0jin/acapella-maker/src/shared/pipeline"
	"github.com/k0jin/acapella-maker/src/shared/tempo"
	cloudstorage "github.com/k0jin/acapella-maker/src/worker/internal/application/cloud_storage/entity"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/job_message"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/save_result"
	"github.com/k0jin/acapella-maker/src/worker/internal/lib/cerr"
	"github.com/k0jin/acapella-maker/src/worker/internal/lib/storagepath"
)

const JobType string = "extract_job"
const ErrorMessage string = "Failed to extract the vocal track"

const outputFileName = "acapella.wav"

type ExtractJobHandler interface {
	HandleExtractJob(message []byte) (save_result.JobParams, error)
}

type JobParams struct {
	job_message.ExtractionIdentifier
}

func NewJobHandler(
	extractionStore extractionentity.Store,
	extractionPipeline pipeline.Pipeline,
	fileStore cloudstorage.FileStore,
	pathGenerator storagepath.Generator,
	workingDirStr string,
) (JobHandler, error) {
	workingDir, err := working_dir.NewWorkingDir(workingDirStr)
	if err != nil {
		return JobHandler{}, cerr.Field("working_dir_str", workingDirStr).
			Wrap(err).Error("Failed to create working dir")
	}

	return JobHandler{
		extractionStore:    extractionStore,
		extractionPipeline: extractionPipeline,
		fileStore:          fileStore,
		pathGenerator:      pathGenerator,
		workingDir:         workingDir,
	}, nil
}

type JobHandler struct {
	extractionStore    extractionentity.Store
	extractionPipeline pipeline.Pipeline
	fileStore          cloudstorage.FileStore
	pathGenerator      storagepath.Generator
	workingDir         working_dir.WorkingDir
}

func (e JobHandler) HandleExtractJob(message []byte) (save_result.JobParams, error) {
	params, err := unmarshalMessage(message)
	if err != nil {
		return save_result.JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("extraction_id", params.ExtractionID)

	extraction, err := e.extractionStore.GetExtraction(context.Background(), params.ExtractionID)
	if err != nil {
		return save_result.JobParams{}, errctx.Wrap(err).Error("Failed to fetch the extraction")
	}

	if extraction.Defined.Status != extractionentity.ProcessingStatus {
		return save_result.JobParams{}, errctx.Error("Extraction is not in processing status, abort processing to be safe")
	}

	tempDir, err := os.MkdirTemp(e.workingDir.TempDir(), "extract-*")
	if err != nil {
		return save_result.JobParams{}, errctx.Wrap(err).Error("Failed to create a temp dir for the run output")
	}

	defer os.RemoveAll(tempDir)

	options := pipelineOptions(extraction.Defined.Options)
	options.OutputPath = filepath.Join(tempDir, outputFileName)

	result, err := e.extractionPipeline.Run(context.Background(), extraction.Defined.InputURL, options, nil)
	if err != nil {
		return save_result.JobParams{}, errctx.Field("input_url", extraction.Defined.InputURL).
			Wrap(err).Error("Failed to run the extraction pipeline")
	}

	log.Info("Reading run output to memory")
	fileContent, err := os.ReadFile(result.OutputPath)
	if err != nil {
		return save_result.JobParams{}, errctx.Wrap(err).Error("Failed to read the run output")
	}

	destinationURL := e.pathGenerator.GeneratePath(params.ExtractionID, outputName(extraction.Defined.Options, result.Tempo))

	log.Info("Writing acapella to the remote file store")
	err = e.fileStore.WriteFile(context.Background(), destinationURL, fileContent)
	if err != nil {
		return save_result.JobParams{}, errctx.Wrap(err).Error("Failed to write the acapella to the cloud")
	}

	return save_result.JobParams{
		ExtractionIdentifier: params.ExtractionIdentifier,
		Result:               resultFields(result, destinationURL),
	}, nil
}

func pipelineOptions(requested extractionentity.RequestOptions) pipeline.Options {
	options := pipeline.DefaultOptions()

	if requested.ThresholdDB > 0 {
		options.ThresholdDB = requested.ThresholdDB
	}

	if requested.FadeInMS > 0 {
		options.FadeIn = time.Duration(requested.FadeInMS) * time.Millisecond
	}

	options.TrimEnabled = requested.TrimEnabled

	return options
}

// outputName appends the rounded bpm to the stored object name when
// the request asked for it and a tempo was detected. The pipeline
// always writes to a fixed local path here, so the suffix has to be
// applied to the storage name instead.
func outputName(requested extractionentity.RequestOptions, detected tempo.Estimate) string {
	if !requested.BPMSuffix || !detected.Known() {
		return outputFileName
	}

	return fmt.Sprintf("acapella_%dbpm.wav", int(math.Round(detected.BPM)))
}

func resultFields(result pipeline.Result, outputURL string) extractionentity.ResultFields {
	stageTimings := map[string]int64{}
	for stage, elapsed := range result.StageTimings {
		stageTimings[string(stage)] = elapsed.Milliseconds()
	}

	return extractionentity.ResultFields{
		BPM:               result.Tempo.BPM,
		TempoConfidence:   result.Tempo.Confidence,
		OriginalDurationS: result.OriginalDuration.Seconds(),
		TrimmedDurationS:  result.TrimmedDuration.Seconds(),
		LeadingRemovedS:   result.LeadingRemoved.Seconds(),
		TrailingRemovedS:  result.TrailingRemoved.Seconds(),
		StageTimingsMS:    stageTimings,
		OutputURL:         outputURL,
	}
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
