package training

import (
	"context"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"widedeep/internal/config"
	"widedeep/internal/data"
	"widedeep/internal/evaluation"
	"widedeep/internal/models"
	"widedeep/internal/persistence"
)

type State int

const (
	Initializing State = iota
	Training
	Evaluating
	Stopped
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Training:
		return "training"
	case Evaluating:
		return "evaluating"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type EstimatorFactory func(models.EstimatorConfig) (models.Estimator, error)

type Option func(*Driver)

func WithOutput(out io.Writer) Option {
	return func(d *Driver) { d.out = out }
}

func WithEstimatorFactory(f EstimatorFactory) Option {
	return func(d *Driver) { d.newEstimator = f }
}

func WithCheckpointer(c persistence.Checkpointer) Option {
	return func(d *Driver) { d.checkpointer = c }
}

// WithoutCurve skips writing the training curve PNG.
func WithoutCurve() Option {
	return func(d *Driver) { d.curve = false }
}

// Driver runs train/evaluate cycles for one configuration.
type Driver struct {
	cfg          config.Config
	log          *zap.SugaredLogger
	out          io.Writer
	newEstimator EstimatorFactory
	checkpointer persistence.Checkpointer
	curve        bool

	state State
}

type Result struct {
	RunID        string
	Epochs       int
	Cycles       int
	GlobalStep   int64
	Metrics      evaluation.Metrics
	History      []EvalRecord
	StoppedEarly bool
	HistoryPath  string
	CurvePath    string
}

func NewDriver(cfg config.Config, log *zap.SugaredLogger, opts ...Option) *Driver {
	d := &Driver{
		cfg:          cfg,
		log:          log,
		out:          os.Stdout,
		newEstimator: models.New,
		checkpointer: persistence.NewFileCheckpointer(cfg.ModelDir),
		curve:        true,
		state:        Initializing,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) State() State {
	return d.state
}

// Run wipes the model directory, builds the estimator and alternates
// training for epochs_between_evals epochs with one evaluation pass, until
// train_epochs are done or accuracy reaches the stop threshold. Each cycle's
// checkpoint carries that cycle's evaluation metrics.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	defer func() { d.state = Stopped }()
	d.state = Initializing

	if err := d.cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := d.log.With("run_id", runID)

	if err := persistence.ResetDir(d.cfg.ModelDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(d.cfg.ModelDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create model directory")
	}

	trainFile, testFile := d.cfg.TrainFile(), d.cfg.TestFile()
	for _, path := range []string{trainFile, testFile} {
		if err := data.CheckFile(path); err != nil {
			return nil, err
		}
	}

	classes, stats, err := data.ScanLabels(trainFile, data.DefaultSchema())
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan training labels")
	}
	log.Infow("training data", "file", trainFile, "examples", stats.Examples, "classes", stats.Classes)

	seed := time.Now().UnixNano()
	if d.cfg.Seed != nil {
		seed = *d.cfg.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	modelType := d.cfg.Type()
	est, err := d.newEstimator(models.EstimatorConfig{
		ModelDir:  d.cfg.ModelDir,
		ModelType: modelType,
		Classes:   classes,
		Rand:      rng,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build estimator")
	}
	log.Infow("estimator", "name", est.Name(), "type", modelType, "device", est.Device(), "classes", est.Classes(), "params", est.Params())

	hooks, err := BuildHooks(d.cfg.Hooks, modelType.LossPrefix(), d.cfg.LogEveryNSteps, log)
	if err != nil {
		return nil, err
	}

	reporter := NewReporter(d.out)
	result := &Result{RunID: runID}

	cycles := d.cfg.Cycles()
	for n := 0; n < cycles; n++ {
		epoch := (n + 1) * d.cfg.EpochsBetweenEvals

		d.state = Training
		if err := d.train(ctx, est, trainFile, rng, hooks); err != nil {
			return result, errors.Wrapf(err, "training cycle %d", n+1)
		}

		d.state = Evaluating
		metrics, err := d.evaluate(ctx, est, testFile)
		if err != nil {
			return result, errors.Wrapf(err, "evaluation at epoch %d", epoch)
		}

		path, err := d.checkpointer.Save(persistence.NewBundle(est, runID, epoch, metrics))
		if err != nil {
			return result, errors.Wrap(err, "failed to save checkpoint")
		}
		log.Debugw("checkpoint saved", "path", path, "global_step", est.GlobalStep())

		reporter.Report(epoch, metrics)
		result.Cycles = n + 1
		result.Epochs = epoch
		result.GlobalStep = est.GlobalStep()
		result.Metrics = metrics
		result.History = append(result.History, newEvalRecord(runID, epoch, metrics))

		accuracy, _ := metrics.Accuracy()
		if pastStopThreshold(d.cfg.StopThreshold, accuracy) {
			log.Infof("Stop threshold of %v was passed with metric value %v.", *d.cfg.StopThreshold, accuracy)
			result.StoppedEarly = true
			break
		}
	}

	d.writeArtifacts(log, result)
	return result, nil
}

func (d *Driver) train(ctx context.Context, est models.Estimator, path string, rng *rand.Rand, hooks []models.Hook) error {
	input, err := data.NewInput(path, data.InputOptions{
		Epochs:    d.cfg.EpochsBetweenEvals,
		Shuffle:   true,
		BatchSize: d.cfg.BatchSize,
		Rand:      rng,
	})
	if err != nil {
		return err
	}
	defer input.Close()
	return est.Train(ctx, input, hooks...)
}

func (d *Driver) evaluate(ctx context.Context, est models.Estimator, path string) (evaluation.Metrics, error) {
	input, err := data.NewInput(path, data.InputOptions{
		Epochs:    1,
		BatchSize: d.cfg.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	defer input.Close()
	d.log.Debugw("evaluating", "file", input.Path(), "global_step", est.GlobalStep())
	return est.Evaluate(ctx, input)
}

func (d *Driver) writeArtifacts(log *zap.SugaredLogger, result *Result) {
	if len(result.History) == 0 {
		return
	}
	path, err := writeHistory(d.cfg.ModelDir, result.History)
	if err != nil {
		log.Warnw("could not write evaluation history", "error", err)
	} else {
		result.HistoryPath = path
	}

	if !d.curve {
		return
	}
	path, err = saveCurve(d.cfg.ModelDir, result.History)
	if err != nil {
		log.Warnw("could not write training curve", "error", err)
		return
	}
	result.CurvePath = path
}

// pastStopThreshold reports whether accuracy has reached threshold. A nil
// threshold never stops training.
func pastStopThreshold(threshold *float64, accuracy float64) bool {
	if threshold == nil {
		return false
	}
	return accuracy >= *threshold
}
