package config

import (
	"strings"

	"github.com/spf13/pflag"
)

const configFlag = "config"

// Flags holds the raw command-line values. Only flags the user actually set
// override the YAML file.
type Flags struct {
	ConfigFile string
	values     Config
	threshold  float64
	seed       int64
}

// shorthands maps the multi-letter single-dash aliases to their long flags.
// pflag only supports one-letter shorthands, so these are rewritten before
// parsing.
var shorthands = map[string]string{
	"-mt":  "--model_type",
	"-dd":  "--data_dir",
	"-md":  "--model_dir",
	"-te":  "--train_epochs",
	"-ebe": "--epochs_between_evals",
	"-bs":  "--batch_size",
	"-st":  "--stop_threshold",
	"-hk":  "--hooks",
}

// ExpandShorthands rewrites aliases such as -dd or -dd=/data into their long
// form.
func ExpandShorthands(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg
		name, value, hasValue := strings.Cut(arg, "=")
		long, ok := shorthands[name]
		if !ok {
			continue
		}
		if hasValue {
			out[i] = long + "=" + value
		} else {
			out[i] = long
		}
	}
	return out
}

// Register adds the training flags to fs with the defaults as their values.
func (f *Flags) Register(fs *pflag.FlagSet) {
	d := Default()
	fs.SortFlags = false
	fs.StringVar(&f.values.ModelType, "model_type", d.ModelType, "model to train: one of wide|deep|wide_deep")
	fs.StringVar(&f.values.DataDir, "data_dir", d.DataDir, "directory holding the train and test files")
	fs.StringVar(&f.values.ModelDir, "model_dir", d.ModelDir, "directory for checkpoints; removed at start")
	fs.IntVar(&f.values.TrainEpochs, "train_epochs", d.TrainEpochs, "number of epochs to train")
	fs.IntVar(&f.values.EpochsBetweenEvals, "epochs_between_evals", d.EpochsBetweenEvals, "epochs to train between evaluations")
	fs.IntVar(&f.values.BatchSize, "batch_size", d.BatchSize, "examples per training and evaluation batch")
	fs.Float64Var(&f.threshold, "stop_threshold", 0, "stop once evaluation accuracy reaches this value")
	fs.StringSliceVar(&f.values.Hooks, "hooks", d.Hooks, "training hooks: LoggingTensorHook, ExamplesPerSecondHook, StepCounterHook")
	fs.Int64Var(&f.seed, "seed", 0, "random seed for shuffling and initialization (default: time based)")
	fs.StringVar(&f.values.LogLevel, "log_level", d.LogLevel, "log level: debug|info|warn|error")
	fs.IntVar(&f.values.LogEveryNSteps, "log_every_n_steps", d.LogEveryNSteps, "steps between training hook log lines")
	fs.StringVar(&f.ConfigFile, configFlag, "", "optional YAML config file; explicit flags take precedence")
}

// Resolve layers defaults, the YAML file (if any) and the flags that were
// set on fs, in that order.
func (f *Flags) Resolve(fs *pflag.FlagSet) (Config, error) {
	cfg := Default()
	if f.ConfigFile != "" {
		loaded, err := Load(f.ConfigFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("model_type", func() { cfg.ModelType = f.values.ModelType })
	set("data_dir", func() { cfg.DataDir = f.values.DataDir })
	set("model_dir", func() { cfg.ModelDir = f.values.ModelDir })
	set("train_epochs", func() { cfg.TrainEpochs = f.values.TrainEpochs })
	set("epochs_between_evals", func() { cfg.EpochsBetweenEvals = f.values.EpochsBetweenEvals })
	set("batch_size", func() { cfg.BatchSize = f.values.BatchSize })
	set("stop_threshold", func() {
		v := f.threshold
		cfg.StopThreshold = &v
	})
	set("hooks", func() { cfg.Hooks = append([]string(nil), f.values.Hooks...) })
	set("seed", func() {
		v := f.seed
		cfg.Seed = &v
	})
	set("log_level", func() { cfg.LogLevel = f.values.LogLevel })
	set("log_every_n_steps", func() { cfg.LogEveryNSteps = f.values.LogEveryNSteps })

	for i, h := range cfg.Hooks {
		if canonical := CanonicalHook(h); canonical != "" {
			cfg.Hooks[i] = canonical
		}
	}

	return cfg, cfg.Validate()
}
