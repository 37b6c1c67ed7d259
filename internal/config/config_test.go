package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	var flags Flags
	fs := pflag.NewFlagSet("train", pflag.ContinueOnError)
	flags.Register(fs)
	require.NoError(t, fs.Parse(ExpandShorthands(args)))
	return flags.Resolve(fs)
}

func TestDefaults(t *testing.T) {
	cfg, err := resolve(t)
	require.NoError(t, err)

	assert.Equal(t, "wide_deep", cfg.ModelType)
	assert.Equal(t, "/tmp/category_data", cfg.DataDir)
	assert.Equal(t, "/tmp/category_model", cfg.ModelDir)
	assert.Equal(t, 40, cfg.TrainEpochs)
	assert.Equal(t, 2, cfg.EpochsBetweenEvals)
	assert.Equal(t, 40, cfg.BatchSize)
	assert.Nil(t, cfg.StopThreshold)
	assert.Nil(t, cfg.Seed)
	assert.Equal(t, []string{LoggingTensorHook}, cfg.Hooks)
	assert.Equal(t, 20, cfg.Cycles())
	assert.Equal(t, "/tmp/category_data/category_train.data", cfg.TrainFile())
	assert.Equal(t, "/tmp/category_data/category.test", cfg.TestFile())
}

func TestFlagsOverrideYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model_type: deep
batch_size: 10
train_epochs: 6
stop_threshold: 0.8
`), 0o644))

	cfg, err := resolve(t, "--config", path, "--batch_size=5", "-st", "0.9")
	require.NoError(t, err)

	assert.Equal(t, "deep", cfg.ModelType)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, 6, cfg.TrainEpochs)
	assert.Equal(t, 2, cfg.EpochsBetweenEvals)
	require.NotNil(t, cfg.StopThreshold)
	assert.Equal(t, 0.9, *cfg.StopThreshold)
	assert.Equal(t, 3, cfg.Cycles())
}

func TestShorthands(t *testing.T) {
	cfg, err := resolve(t, "-dd", "/data", "-md=/models", "-te", "5", "-ebe", "2", "-bs", "8", "-hk", "stepcounterhook,ExamplesPerSecondHook", "--seed", "3")
	require.NoError(t, err)

	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, "/models", cfg.ModelDir)
	assert.Equal(t, 5, cfg.TrainEpochs)
	assert.Equal(t, 8, cfg.BatchSize)
	assert.Equal(t, []string{StepCounterHook, ExamplesPerSecondHook}, cfg.Hooks)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(3), *cfg.Seed)
	assert.Equal(t, 2, cfg.Cycles())
}

func TestValidate(t *testing.T) {
	_, err := resolve(t, "--model_type", "forest")
	assert.Error(t, err)

	_, err = resolve(t, "--hooks", "ProfilerHook")
	assert.Error(t, err)

	_, err = resolve(t, "--batch_size", "0")
	assert.Error(t, err)

	_, err = resolve(t, "--epochs_between_evals", "0")
	assert.Error(t, err)

	_, err = resolve(t, "--log_level", "loud")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
