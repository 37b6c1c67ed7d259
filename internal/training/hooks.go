package training

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"widedeep/internal/config"
	"widedeep/internal/models"
)

// BuildHooks instantiates the named hooks. Unknown names are an error.
func BuildHooks(names []string, lossPrefix string, everyN int, log *zap.SugaredLogger) ([]models.Hook, error) {
	if everyN <= 0 {
		everyN = 1
	}
	hooks := make([]models.Hook, 0, len(names))
	for _, name := range names {
		switch config.CanonicalHook(name) {
		case config.LoggingTensorHook:
			hooks = append(hooks, &LoggingTensorHook{prefix: lossPrefix, everyN: everyN, log: log})
		case config.ExamplesPerSecondHook:
			hooks = append(hooks, &ExamplesPerSecondHook{everyN: everyN, log: log, now: time.Now})
		case config.StepCounterHook:
			hooks = append(hooks, &StepCounterHook{everyN: everyN, log: log, now: time.Now})
		default:
			return nil, fmt.Errorf("unrecognized training hook requested: %s", name)
		}
	}
	return hooks, nil
}

// LoggingTensorHook logs the batch loss and mean per-example loss every N
// steps.
type LoggingTensorHook struct {
	prefix string
	everyN int
	log    *zap.SugaredLogger
}

func (h *LoggingTensorHook) Begin(step int64) {}

func (h *LoggingTensorHook) AfterStep(r models.StepResult) {
	if r.Step%int64(h.everyN) != 0 {
		return
	}
	h.log.Infow("training",
		"step", r.Step,
		h.prefix+"loss", r.Loss,
		h.prefix+"average_loss", r.AverageLoss,
	)
}

func (h *LoggingTensorHook) End(step int64) {}

// ExamplesPerSecondHook logs throughput over the last N steps.
type ExamplesPerSecondHook struct {
	everyN int
	log    *zap.SugaredLogger
	now    func() time.Time

	start    time.Time
	examples int
	total    int
	elapsed  time.Duration
}

func (h *ExamplesPerSecondHook) Begin(step int64) {
	h.start = h.now()
	h.examples = 0
}

func (h *ExamplesPerSecondHook) AfterStep(r models.StepResult) {
	h.examples += r.Examples
	if r.Step%int64(h.everyN) != 0 {
		return
	}
	now := h.now()
	window := now.Sub(h.start)
	h.total += h.examples
	h.elapsed += window
	if window > 0 {
		h.log.Infow("throughput",
			"step", r.Step,
			"current_examples_per_sec", float64(h.examples)/window.Seconds(),
			"average_examples_per_sec", float64(h.total)/h.elapsed.Seconds(),
		)
	}
	h.start = now
	h.examples = 0
}

func (h *ExamplesPerSecondHook) End(step int64) {}

// StepCounterHook logs global steps per second every N steps.
type StepCounterHook struct {
	everyN int
	log    *zap.SugaredLogger
	now    func() time.Time

	start     time.Time
	startStep int64
}

func (h *StepCounterHook) Begin(step int64) {
	h.start = h.now()
	h.startStep = step
}

func (h *StepCounterHook) AfterStep(r models.StepResult) {
	if r.Step%int64(h.everyN) != 0 {
		return
	}
	now := h.now()
	if elapsed := now.Sub(h.start); elapsed > 0 {
		h.log.Infow("step counter",
			"step", r.Step,
			"global_step/sec", float64(r.Step-h.startStep)/elapsed.Seconds(),
		)
	}
	h.start = now
	h.startStep = r.Step
}

func (h *StepCounterHook) End(step int64) {}
