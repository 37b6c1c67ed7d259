package models

import (
	"context"

	"widedeep/internal/data"
	"widedeep/internal/evaluation"
)

// Input yields batches until io.EOF.
type Input interface {
	Next() (*data.Batch, error)
}

// StepResult describes one optimizer step. Loss is summed over the batch.
type StepResult struct {
	Step        int64
	Loss        float64
	AverageLoss float64
	Examples    int
}

// Hook observes a Train call.
type Hook interface {
	Begin(step int64)
	AfterStep(result StepResult)
	End(step int64)
}

// Estimator is a trainable classifier with explicit lifecycle: Train consumes
// an Input once, Evaluate scores one, Snapshot exposes state for
// checkpointing.
type Estimator interface {
	Name() string
	Type() ModelType
	Device() string
	Params() map[string]any
	GlobalStep() int64
	// Classes is the label vocabulary, unknown class last.
	Classes() []string
	Train(ctx context.Context, input Input, hooks ...Hook) error
	Evaluate(ctx context.Context, input Input) (evaluation.Metrics, error)
	Snapshot() *State
}

type BaseModel struct {
	name   string
	params map[string]any
}

func (bm *BaseModel) Name() string {
	return bm.name
}

func (bm *BaseModel) Params() map[string]any {
	return bm.params
}
