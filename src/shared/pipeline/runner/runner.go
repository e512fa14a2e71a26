package runner

import (
	"context"
	"sync"

	"github.com/k0jin/acapella-maker/src/shared/pipeline"
)

// Event announces that a stage has begun, with the overall completion
// fraction. Fractions are nondecreasing over one run.
type Event struct {
	Stage    pipeline.Stage
	Fraction float64
}

// Runner executes one pipeline run off the caller's thread. The
// caller watches Events for progress and collects the terminal
// outcome from Wait. A Runner is single use.
type Runner struct {
	pipeline  pipeline.Pipeline
	inputSpec string
	options   pipeline.Options

	events chan Event
	done   chan struct{}

	mutex   sync.Mutex
	cancel  context.CancelFunc
	started bool

	result pipeline.Result
	err    error
}

func NewRunner(p pipeline.Pipeline, inputSpec string, options pipeline.Options) *Runner {
	return &Runner{
		pipeline:  p,
		inputSpec: inputSpec,
		options:   options,
		events:    make(chan Event, 16),
		done:      make(chan struct{}),
	}
}

// Start launches the run. The events channel closes when the run
// reaches a terminal state.
func (r *Runner) Start(ctx context.Context) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.started {
		panic("Runner can only be started once")
	}

	r.started = true

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	go func() {
		defer close(r.done)
		defer close(r.events)
		defer cancel()

		r.result, r.err = r.pipeline.Run(runCtx, r.inputSpec, r.options, r.notifyProgress)
	}()
}

func (r *Runner) Events() <-chan Event {
	return r.events
}

// Cancel requests a cooperative stop. The pipeline observes it
// between stages, so a long model inference may still run to its end
// before the run terminates.
func (r *Runner) Cancel() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run terminates and returns its outcome.
func (r *Runner) Wait() (pipeline.Result, error) {
	<-r.done
	return r.result, r.err
}

// notifyProgress drops events a slow listener hasn't drained rather
// than stalling the pipeline.
func (r *Runner) notifyProgress(stage pipeline.Stage, fraction float64) {
	select {
	case r.events <- Event{Stage: stage, Fraction: fraction}:
	default:
	}
}
