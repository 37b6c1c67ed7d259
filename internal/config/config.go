package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"widedeep/internal/data"
	"widedeep/internal/logging"
	"widedeep/internal/models"
)

// Training hook names accepted by --hooks.
const (
	LoggingTensorHook     = "LoggingTensorHook"
	ExamplesPerSecondHook = "ExamplesPerSecondHook"
	StepCounterHook       = "StepCounterHook"
)

// KnownHook matches case-insensitively, as the flag value is typed by hand.
func KnownHook(name string) bool {
	return CanonicalHook(name) != ""
}

// CanonicalHook returns the registered spelling of name, or "".
func CanonicalHook(name string) string {
	for _, h := range []string{LoggingTensorHook, ExamplesPerSecondHook, StepCounterHook} {
		if strings.EqualFold(strings.TrimSpace(name), h) {
			return h
		}
	}
	return ""
}

// Config is the full set of options for one training run. It is built once
// and not modified afterwards.
type Config struct {
	ModelType          string   `yaml:"model_type"`
	DataDir            string   `yaml:"data_dir"`
	ModelDir           string   `yaml:"model_dir"`
	TrainEpochs        int      `yaml:"train_epochs"`
	EpochsBetweenEvals int      `yaml:"epochs_between_evals"`
	BatchSize          int      `yaml:"batch_size"`
	StopThreshold      *float64 `yaml:"stop_threshold"`
	Hooks              []string `yaml:"hooks"`
	Seed               *int64   `yaml:"seed"`
	LogLevel           string   `yaml:"log_level"`
	LogEveryNSteps     int      `yaml:"log_every_n_steps"`
}

func Default() Config {
	return Config{
		ModelType:          string(models.WideDeep),
		DataDir:            "/tmp/category_data",
		ModelDir:           "/tmp/category_model",
		TrainEpochs:        40,
		EpochsBetweenEvals: 2,
		BatchSize:          40,
		Hooks:              []string{LoggingTensorHook},
		LogLevel:           "info",
		LogEveryNSteps:     100,
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := models.ParseModelType(c.ModelType); err != nil {
		return err
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if c.ModelDir == "" {
		return fmt.Errorf("model_dir must be set")
	}
	if c.TrainEpochs <= 0 {
		return fmt.Errorf("train_epochs must be positive, got %d", c.TrainEpochs)
	}
	if c.EpochsBetweenEvals <= 0 {
		return fmt.Errorf("epochs_between_evals must be positive, got %d", c.EpochsBetweenEvals)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogEveryNSteps <= 0 {
		return fmt.Errorf("log_every_n_steps must be positive, got %d", c.LogEveryNSteps)
	}
	for _, h := range c.Hooks {
		if !KnownHook(h) {
			return fmt.Errorf("unrecognized training hook requested: %s", h)
		}
	}
	return nil
}

func (c Config) Type() models.ModelType {
	t, _ := models.ParseModelType(c.ModelType)
	return t
}

// Cycles is the number of train/evaluate rounds. Epochs that do not fill a
// whole round are not trained.
func (c Config) Cycles() int {
	return c.TrainEpochs / c.EpochsBetweenEvals
}

func (c Config) TrainFile() string {
	return data.TrainFile(c.DataDir)
}

func (c Config) TestFile() string {
	return data.TestFile(c.DataDir)
}

func (c Config) String() string {
	threshold := "none"
	if c.StopThreshold != nil {
		threshold = fmt.Sprintf("%g", *c.StopThreshold)
	}
	return fmt.Sprintf("model_type=%s data_dir=%s model_dir=%s train_epochs=%d epochs_between_evals=%d batch_size=%d stop_threshold=%s hooks=%s",
		c.ModelType, c.DataDir, c.ModelDir, c.TrainEpochs, c.EpochsBetweenEvals, c.BatchSize, threshold, strings.Join(c.Hooks, ","))
}
