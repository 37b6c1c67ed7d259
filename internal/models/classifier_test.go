package models

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widedeep/internal/data"
	"widedeep/internal/evaluation"
)

// writeSeparable writes rows whose category is fully determined by root.
func writeSeparable(t *testing.T, n int) string {
	t.Helper()
	lines := make([]string, n)
	for i := range lines {
		root, category := "US", "news"
		if i%2 == 1 {
			root, category = "CA", "sports"
		}
		lines[i] = fmt.Sprintf("%s,%d,city%d,zone%d,%s,%s", []string{"M", "F"}[i%3%2], 15+i%40, i%11, i%5, root, category)
	}
	path := filepath.Join(t.TempDir(), "category_train.data")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func input(t *testing.T, path string, epochs int, shuffle bool) *data.Input {
	t.Helper()
	in, err := data.NewInput(path, data.InputOptions{
		Epochs:    epochs,
		Shuffle:   shuffle,
		BatchSize: 20,
		Rand:      rand.New(rand.NewSource(11)),
	})
	require.NoError(t, err)
	return in
}

func newEstimator(t *testing.T, modelType ModelType) Estimator {
	t.Helper()
	est, err := New(EstimatorConfig{
		ModelDir:  t.TempDir(),
		ModelType: modelType,
		Classes:   []string{"sports", "news"},
		Rand:      rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	return est
}

type countingHook struct {
	begins, steps, ends int
	last               StepResult
}

func (h *countingHook) Begin(step int64) { h.begins++ }
func (h *countingHook) AfterStep(r StepResult) { h.steps++; h.last = r }
func (h *countingHook) End(step int64) { h.ends++ }

func TestTrainingReducesLoss(t *testing.T) {
	path := writeSeparable(t, 200)
	ctx := context.Background()

	for _, modelType := range ModelTypes() {
		t.Run(string(modelType), func(t *testing.T) {
			est := newEstimator(t, modelType)

			before, err := est.Evaluate(ctx, input(t, path, 1, false))
			require.NoError(t, err)
			assert.Equal(t, 0.0, before[evaluation.KeyGlobalStep])

			hook := &countingHook{}
			require.NoError(t, est.Train(ctx, input(t, path, 5, true), hook))

			assert.Equal(t, int64(50), est.GlobalStep())
			assert.Equal(t, 1, hook.begins)
			assert.Equal(t, 50, hook.steps)
			assert.Equal(t, 1, hook.ends)
			assert.Equal(t, int64(50), hook.last.Step)
			assert.Equal(t, 20, hook.last.Examples)
			assert.InDelta(t, hook.last.Loss/20, hook.last.AverageLoss, 1e-12)

			after, err := est.Evaluate(ctx, input(t, path, 1, false))
			require.NoError(t, err)

			assert.Less(t, after[evaluation.KeyAverageLoss], before[evaluation.KeyAverageLoss])
			if modelType == Wide {
				assert.GreaterOrEqual(t, after[evaluation.KeyAccuracy], 0.9)
			}
			assert.Equal(t, 50.0, after[evaluation.KeyGlobalStep])
			assert.InDelta(t, after[evaluation.KeyAverageLoss]*20, after[evaluation.KeyLoss], 1e-9)
		})
	}
}

func TestLinearStartsAtUniformLoss(t *testing.T) {
	path := writeSeparable(t, 40)
	est := newEstimator(t, Wide)

	metrics, err := est.Evaluate(context.Background(), input(t, path, 1, false))
	require.NoError(t, err)
	assert.InDelta(t, math.Log(3), metrics[evaluation.KeyAverageLoss], 1e-9)
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := writeSeparable(t, 100)
	ctx := context.Background()

	for _, modelType := range ModelTypes() {
		t.Run(string(modelType), func(t *testing.T) {
			est := newEstimator(t, modelType)
			require.NoError(t, est.Train(ctx, input(t, path, 1, true)))

			state := est.Snapshot()
			assert.Equal(t, modelType, state.ModelType)
			assert.Equal(t, []string{"news", "sports", "<unk>"}, state.Classes)
			assert.Equal(t, est.GlobalStep(), state.GlobalStep)

			restored, err := FromState(t.TempDir(), state)
			require.NoError(t, err)
			assert.Equal(t, est.GlobalStep(), restored.GlobalStep())
			assert.Equal(t, est.Name(), restored.Name())

			want, err := est.Evaluate(ctx, input(t, path, 1, false))
			require.NoError(t, err)
			got, err := restored.Evaluate(ctx, input(t, path, 1, false))
			require.NoError(t, err)
			for k, v := range want {
				assert.InDelta(t, v, got[k], 1e-9, k)
			}
		})
	}
}

func TestRestoredLinearKeepsTraining(t *testing.T) {
	path := writeSeparable(t, 100)
	ctx := context.Background()

	est := newEstimator(t, Wide)
	require.NoError(t, est.Train(ctx, input(t, path, 2, true)))

	restored, err := FromState(t.TempDir(), est.Snapshot())
	require.NoError(t, err)

	require.NoError(t, restored.Train(ctx, input(t, path, 1, true)))
	after, err := restored.Evaluate(ctx, input(t, path, 1, false))
	require.NoError(t, err)

	assert.Equal(t, int64(15), restored.GlobalStep())
	assert.Less(t, after[evaluation.KeyAverageLoss], 0.75*math.Log(3))
}

func TestFromStateRejectsMismatch(t *testing.T) {
	state := newEstimator(t, Deep).Snapshot()
	state.DNN.Layers = state.DNN.Layers[1:]

	_, err := FromState(t.TempDir(), state)
	assert.Error(t, err)

	_, err = FromState(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestTrainStopsOnCancelledContext(t *testing.T) {
	path := writeSeparable(t, 40)
	est := newEstimator(t, Wide)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := est.Train(ctx, input(t, path, 1, false))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), est.GlobalStep())
}

func TestEvaluateEmptyInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.test")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := newEstimator(t, Wide).Evaluate(context.Background(), input(t, path, 1, false))
	assert.Error(t, err)
}
