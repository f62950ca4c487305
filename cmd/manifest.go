package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voicecmd/core/manifest"
	"voicecmd/logger"
)

var (
	manifestOut    string
	manifestAppend bool
	manifestWatch  bool
	splitTrainPath string
	splitValPath   string
	splitRatio     float64
	splitSeed      int64
	splitUnseeded  bool
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Build and split dataset manifests",
}

var manifestBuildCmd = &cobra.Command{
	Use:   "build <audio-dir>",
	Short: "Scan a directory and write one manifest line per readable audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]
		if !manifestAppend {
			if err := manifest.Truncate(manifestOut); err != nil {
				return err
			}
		}

		cat := newCatalog()
		samples, err := cat.Scan(root)
		if err != nil {
			return err
		}
		if err := manifest.WriteEntries(manifestOut, manifest.FromSamples(samples)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries to %s\n", len(samples), manifestOut)

		if !manifestWatch {
			return nil
		}

		known := make([]string, len(samples))
		for i, s := range samples {
			known[i] = s.Path
		}
		w, err := manifest.Open(manifestOut)
		if err != nil {
			return err
		}
		defer w.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return manifest.NewWatcher(root, cat, w, known).Run(ctx)
	},
}

var manifestSplitCmd = &cobra.Command{
	Use:   "split <manifest>",
	Short: "Shuffle a manifest and split it into train and validation files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ratio := cfg.TrainRatio
		if cmd.Flags().Changed("ratio") {
			ratio = splitRatio
		}
		seed := cfg.SplitSeed
		if cmd.Flags().Changed("seed") {
			seed = splitSeed
		}
		if splitUnseeded {
			seed = manifest.UnseededSeed()
			logger.Warn("unseeded split requested, result is not reproducible", logger.Int64("seed", seed))
		}

		nTrain, nVal, err := manifest.SplitFile(args[0], splitTrainPath, splitValPath, ratio, seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "train: %d entries -> %s\nvalidation: %d entries -> %s\n",
			nTrain, splitTrainPath, nVal, splitValPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.AddCommand(manifestBuildCmd, manifestSplitCmd)

	manifestBuildCmd.Flags().StringVarP(&manifestOut, "out", "o", "data_manifest.json", "manifest file to write")
	manifestBuildCmd.Flags().BoolVar(&manifestAppend, "append", false, "append to an existing manifest instead of starting fresh")
	manifestBuildCmd.Flags().BoolVarP(&manifestWatch, "watch", "w", false, "keep running and append entries for new files")

	manifestSplitCmd.Flags().StringVar(&splitTrainPath, "train", "train_manifest.json", "train manifest output")
	manifestSplitCmd.Flags().StringVar(&splitValPath, "val", "val_manifest.json", "validation manifest output")
	manifestSplitCmd.Flags().Float64Var(&splitRatio, "ratio", 0.8, "fraction of entries used for training (default TRAIN_RATIO)")
	manifestSplitCmd.Flags().Int64Var(&splitSeed, "seed", manifest.DefaultSeed, "shuffle seed (default SPLIT_SEED)")
	manifestSplitCmd.Flags().BoolVar(&splitUnseeded, "unseeded", false, "use a time-based seed; the split cannot be reproduced")
}
