package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"widedeep/internal/data"
	"widedeep/internal/logging"
	"widedeep/internal/persistence"
	"widedeep/internal/training"
)

func main() {
	if err := newEvaluateCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newEvaluateCmd scores the newest checkpoint in a model dir against a test
// file.
func newEvaluateCmd() *cobra.Command {
	var (
		dataDir   string
		modelDir  string
		batchSize int
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:           "evaluate",
		Short:         "evaluate the latest checkpoint of a trained model",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(logLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			est, meta, err := persistence.Restore(modelDir)
			if err != nil {
				return err
			}
			logger.Infow("restored checkpoint",
				"model", meta.ModelName,
				"run_id", meta.RunID,
				"global_step", est.GlobalStep(),
				"classes", est.Classes(),
			)

			input, err := data.NewInput(data.TestFile(dataDir), data.InputOptions{Epochs: 1, BatchSize: batchSize})
			if err != nil {
				return err
			}
			defer input.Close()
			logger.Infow("evaluating", "file", input.Path(), "expected_examples", data.ValidationExamples)

			metrics, err := est.Evaluate(ctx, input)
			if err != nil {
				return err
			}
			training.NewReporter(os.Stdout).Report(meta.Epoch, metrics)
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVar(&dataDir, "data_dir", "/tmp/category_data", "directory holding the test file")
	cmd.Flags().StringVar(&modelDir, "model_dir", "/tmp/category_model", "directory with checkpoints from train")
	cmd.Flags().IntVar(&batchSize, "batch_size", 40, "examples per evaluation batch")
	cmd.Flags().StringVar(&logLevel, "log_level", "info", "log level: debug|info|warn|error")
	return cmd
}
