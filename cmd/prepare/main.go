package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"widedeep/internal/data"
	"widedeep/internal/logging"
)

func main() {
	if err := newPrepareCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newPrepareCmd() *cobra.Command {
	var (
		opts     data.PrepareOptions
		seed     int64
		logLevel string
	)

	cmd := &cobra.Command{
		Use:           "prepare",
		Short:         "split a raw headered category CSV into train and test files",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(logLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			opts.Seed = time.Now().UnixNano()
			if cmd.Flags().Changed("seed") {
				opts.Seed = seed
			}

			result, err := data.Prepare(opts)
			if err != nil {
				return err
			}
			logger.Infow("dataset prepared",
				"train", result.TrainPath,
				"train_examples", result.Train,
				"test", result.TestPath,
				"test_examples", result.Test,
				"skipped", result.Skipped,
			)
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVar(&opts.Input, "input", "", "raw CSV with a header row of gender,age,location1,location2,root,category")
	cmd.Flags().StringVar(&opts.DataDir, "data_dir", "/tmp/category_data", "output directory for the split files")
	cmd.Flags().Float64Var(&opts.TestSize, "test_size", 0.3, "fraction of rows held out for evaluation")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for the split (default: time based)")
	cmd.Flags().StringVar(&logLevel, "log_level", "info", "log level: debug|info|warn|error")
	cmd.MarkFlagRequired("input")
	return cmd
}
