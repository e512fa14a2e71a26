package pipeline

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type Stage string

const (
	StageAcquire  Stage = "acquire"
	StageLoad     Stage = "load"
	StageTempo    Stage = "tempo"
	StageSeparate Stage = "separate"
	StageTrim     Stage = "trim"
	StageSave     Stage = "save"
)

// Overall completion fraction reported when a stage begins. Separation
// dominates the wall clock, so most of the budget sits behind it.
var stageFractions = map[Stage]float64{
	StageAcquire:  0.0,
	StageLoad:     0.15,
	StageTempo:    0.25,
	StageSeparate: 0.25,
	StageTrim:     0.85,
	StageSave:     0.95,
}

// marker errors for the run failure taxonomy, checked with markers.Is.
// TempoEstimationFailed never surfaces from a run - tempo failures
// degrade to an unknown tempo instead.
var (
	AcquisitionFailed     = errors.New("Failed to acquire the input source")
	DecodeFailed          = errors.New("Failed to decode the input audio")
	SeparationFailed      = errors.New("Failed to separate the vocal stem")
	TempoEstimationFailed = errors.New("Failed to estimate the tempo")
	TrimmingFailed        = errors.New("Failed to trim silence")
	EncodeFailed          = errors.New("Failed to write the output audio")
	Cancelled             = errors.New("The run was cancelled")
)

// Error is a run failure annotated with the stage it happened in.
type Error struct {
	Stage Stage
	Err   error
}

func (e Error) Error() string {
	return fmt.Sprintf("Stage %s failed: %s", e.Stage, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}

// StageOf reports which stage a run error came from.
func StageOf(err error) (Stage, bool) {
	var stageErr Error
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}

	return "", false
}
