package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voicecmd/core/augment"
	"voicecmd/core/manifest"
	"voicecmd/logger"
)

var (
	augmentSeed       int64
	augmentSampleRate int
	augmentManifest   string
)

var augmentCmd = &cobra.Command{
	Use:   "augment <input-dir> <output-dir>",
	Short: "Write the original and five augmented variants of every WAV file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := cfg.AugmentSeed
		if cmd.Flags().Changed("seed") {
			seed = augmentSeed
		}
		rate := cfg.SampleRate
		if cmd.Flags().Changed("sample-rate") {
			rate = augmentSampleRate
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := runAugment(ctx, args[0], args[1], seed, rate)
		if err != nil {
			return err
		}
		if augmentManifest != "" {
			if err := manifest.WriteEntries(augmentManifest, manifest.FromSamples(result.Samples)); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "augmented %d files (%d failed), wrote %d samples\n",
			result.Processed, result.Failed, len(result.Samples))
		return nil
	},
}

// runAugment wraps AugmentTree with a progress bar on terminals.
func runAugment(ctx context.Context, in, out string, seed int64, rate int) (augment.TreeResult, error) {
	total, err := augment.CountInputs(in, out)
	if err != nil {
		return augment.TreeResult{}, fmt.Errorf("count inputs: %w", err)
	}
	bar := newProgress(total, "augmenting")

	result, err := augment.AugmentTree(ctx, in, out, augment.NewEngine(seed), augment.TreeOptions{
		SampleRate: rate,
		OnFile: func(path string, err error) {
			if bar != nil {
				bar.Add(1) //nolint:errcheck
			}
		},
	})
	if bar != nil {
		bar.Finish() //nolint:errcheck
	}
	logger.Info("augmentation finished",
		logger.Int("processed", result.Processed),
		logger.Int("failed", result.Failed),
		logger.Int64("seed", seed))
	return result, err
}

func init() {
	rootCmd.AddCommand(augmentCmd)
	augmentCmd.Flags().Int64Var(&augmentSeed, "seed", augment.DefaultSeed, "random seed for noise and time shift (default AUGMENT_SEED)")
	augmentCmd.Flags().IntVar(&augmentSampleRate, "sample-rate", 16000, "resample inputs to this rate, 0 keeps the source rate (default SAMPLE_RATE)")
	augmentCmd.Flags().StringVar(&augmentManifest, "manifest", "", "also append the written samples to this manifest")
}
