package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"widedeep/internal/config"
	"widedeep/internal/logging"
	"widedeep/internal/training"
)

func main() {
	if err := newTrainCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTrainCmd() *cobra.Command {
	var flags config.Flags

	cmd := &cobra.Command{
		Use:           "train",
		Short:         "train a wide, deep or wide & deep classifier on the category dataset",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Resolve(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	flags.Register(cmd.Flags())
	cmd.SetArgs(config.ExpandShorthands(os.Args[1:]))
	return cmd
}

func run(cfg config.Config) error {
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infow("starting", "config", cfg.String())

	result, err := training.NewDriver(cfg, logger).Run(ctx)
	if err != nil {
		return err
	}

	logger.Infow("finished",
		"run_id", result.RunID,
		"epochs", result.Epochs,
		"global_step", result.GlobalStep,
		"stopped_early", result.StoppedEarly,
		"curve", result.CurvePath,
	)
	return nil
}
