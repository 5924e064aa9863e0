package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"iris-logreg/internal/checkpoint"
	"iris-logreg/internal/config"
	"iris-logreg/internal/trainer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("error: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:           "iris-logreg",
		Short:         "Train a linear softmax classifier on the iris dataset",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			format, err := checkpoint.ParseFormat(cfg.Format)
			if err != nil {
				return err
			}
			_, err = trainer.Run(cmd.Context(), trainer.RunConfig{
				Epochs:       cfg.Epochs,
				LearningRate: cfg.LearningRate,
				TestSize:     cfg.TestSize,
				LogInterval:  cfg.LogInterval,
				Output:       cfg.Output,
				Seed:         cfg.Seed,
				Device:       cfg.Device,
				Format:       format,
				DataPath:     cfg.DataPath,
			})
			return err
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "Path to YAML config")
	config.RegisterFlags(cmd.Flags())
	return cmd
}
