package training

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"widedeep/internal/config"
	"widedeep/internal/models"
)

func TestBuildHooks(t *testing.T) {
	hooks, err := BuildHooks([]string{config.LoggingTensorHook, "examplespersecondhook", config.StepCounterHook}, "dnn/", 10, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.Len(t, hooks, 3)
	assert.IsType(t, &LoggingTensorHook{}, hooks[0])
	assert.IsType(t, &ExamplesPerSecondHook{}, hooks[1])
	assert.IsType(t, &StepCounterHook{}, hooks[2])

	_, err = BuildHooks([]string{"NanTensorHook"}, "", 10, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestLoggingTensorHookUsesPrefixEveryN(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	hooks, err := BuildHooks([]string{config.LoggingTensorHook}, "linear/", 2, zap.New(core).Sugar())
	require.NoError(t, err)
	h := hooks[0]

	h.Begin(0)
	for step := int64(1); step <= 5; step++ {
		h.AfterStep(models.StepResult{Step: step, Loss: 4, AverageLoss: 1, Examples: 4})
	}
	h.End(5)

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(2), fields["step"])
	assert.Equal(t, 4.0, fields["linear/loss"])
	assert.Equal(t, 1.0, fields["linear/average_loss"])
}

func TestThroughputHooks(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core).Sugar()

	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	eps := &ExamplesPerSecondHook{everyN: 2, log: log, now: clock}
	steps := &StepCounterHook{everyN: 2, log: log, now: clock}

	eps.Begin(0)
	steps.Begin(0)
	for step := int64(1); step <= 2; step++ {
		now = now.Add(500 * time.Millisecond)
		eps.AfterStep(models.StepResult{Step: step, Examples: 10})
		steps.AfterStep(models.StepResult{Step: step, Examples: 10})
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, 20.0, entries[0].ContextMap()["current_examples_per_sec"])
	assert.Equal(t, 2.0, entries[1].ContextMap()["global_step/sec"])
}
