package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voicecmd/core/trainer"
)

var trainCommand []string

var trainCmd = &cobra.Command{
	Use:   "train <job.toml>",
	Short: "Hand a trainer job to the external training command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := trainer.LoadJob(args[0])
		if err != nil {
			return err
		}
		if err := job.Validate(); err != nil {
			return fmt.Errorf("job %s: %w", args[0], err)
		}
		for _, path := range []string{job.TrainManifest, job.ValManifest} {
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("manifest %s: %w", path, err)
			}
		}

		command := cfg.TrainerCommand
		if len(trainCommand) > 0 {
			command = trainCommand
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := trainer.Run(ctx, command, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "model written to %s\n", job.ModelOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().StringArrayVar(&trainCommand, "command", nil, "trainer command and arguments (repeat the flag per argument; default TRAINER_COMMAND)")
}
