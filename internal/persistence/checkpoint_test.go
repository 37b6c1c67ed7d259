package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widedeep/internal/evaluation"
	"widedeep/internal/models"
)

func TestCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()
	est, err := models.New(models.EstimatorConfig{
		ModelDir:  dir,
		ModelType: models.WideDeep,
		Classes:   []string{"news", "sports"},
	})
	require.NoError(t, err)

	fc := NewFileCheckpointer(dir)
	path, err := fc.Save(NewBundle(est, "run-1", 2, evaluation.Metrics{evaluation.KeyAccuracy: 0.5}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "model.ckpt-0"), path)

	latest, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, path, latest)

	restored, meta, err := Restore(dir)
	require.NoError(t, err)
	assert.Equal(t, "run-1", meta.RunID)
	assert.Equal(t, 2, meta.Epoch)
	assert.Equal(t, "DNNLinearCombinedClassifier", meta.ModelName)
	assert.Equal(t, 0.5, meta.Metrics[evaluation.KeyAccuracy])
	assert.Equal(t, models.WideDeep, restored.Type())
	assert.Equal(t, est.Snapshot(), restored.Snapshot())

	_, err = os.Stat(filepath.Join(dir, metadataFile))
	assert.NoError(t, err)
}

func TestLatestWithoutCheckpoint(t *testing.T) {
	_, err := Latest(t.TempDir())
	assert.Error(t, err)
}

func TestResetDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale"), []byte("x"), 0o644))

	require.NoError(t, ResetDir(dir))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ResetDir(dir))
	assert.Error(t, ResetDir("/"))
}
