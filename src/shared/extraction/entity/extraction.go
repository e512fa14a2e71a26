package extractionentity

import (
	"github.com/google/uuid"
	"github.com/k0jin/acapella-maker/src/shared/lib/jsonlib"
)

type Status string

const (
	RequestedStatus  Status = "requested"
	ProcessingStatus Status = "processing"
	CompletedStatus  Status = "completed"
	FailedStatus     Status = "failed"
)

// RequestOptions carries the caller-chosen processing knobs through
// the job chain.
type RequestOptions struct {
	ThresholdDB float64 `json:"threshold_db"`
	FadeInMS    int     `json:"fade_in_ms"`
	TrimEnabled bool    `json:"trim_enabled"`
	BPMSuffix   bool    `json:"bpm_suffix"`
}

// ResultFields is what a finished run reports back onto the record.
type ResultFields struct {
	BPM               float64          `json:"bpm"`
	TempoConfidence   float64          `json:"tempo_confidence"`
	OriginalDurationS float64          `json:"original_duration_s"`
	TrimmedDurationS  float64          `json:"trimmed_duration_s"`
	LeadingRemovedS   float64          `json:"leading_removed_s"`
	TrailingRemovedS  float64          `json:"trailing_removed_s"`
	StageTimingsMS    map[string]int64 `json:"stage_timings_ms"`
	OutputURL         string           `json:"output_url"`
}

type ExtractionFields struct {
	ID             string         `json:"id"`
	InputURL       string         `json:"input_url"`
	Options        RequestOptions `json:"options"`
	Status         Status         `json:"status"`
	FailureStage   string         `json:"failure_stage"`
	FailureMessage string         `json:"failure_message"`
	Result         ResultFields   `json:"result"`
}

// Extraction is one vocal extraction request and its lifecycle state.
// Unknown JSON fields round-trip untouched.
type Extraction struct {
	jsonlib.Flatten[ExtractionFields]
}

func (e Extraction) GetID() string {
	return e.Defined.ID
}

func (e Extraction) IsNew() bool {
	return e.Defined.ID == ""
}

func (e *Extraction) CreateID() {
	if !e.IsNew() {
		panic("Cannot assign an ID to an extraction that already has one")
	}

	e.Defined.ID = uuid.New().String()
}

func (e *Extraction) InitializeRequest() {
	e.Defined.Status = RequestedStatus
	e.Defined.FailureStage = ""
	e.Defined.FailureMessage = ""
	e.Defined.Result = ResultFields{}
}
