package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"voicecmd/core/manifest"
	"voicecmd/core/trainer"
)

var (
	prepareNoAugment bool
	prepareEpochs    int
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <audio-dir> <work-dir>",
	Short: "Augment, build manifests, split them and write a trainer job",
	Long: `Runs the whole dataset pipeline:

  <work-dir>/augmented/          original and augmented WAV files
  <work-dir>/data_manifest.json  every sample
  <work-dir>/train_manifest.json
  <work-dir>/val_manifest.json
  <work-dir>/job.toml            trainer job for "voicecmd train"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, work := args[0], args[1]
		labels, err := loadLabels()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dataDir := in
		if !prepareNoAugment {
			dataDir = filepath.Join(work, "augmented")
			if _, err := runAugment(ctx, in, dataDir, cfg.AugmentSeed, cfg.SampleRate); err != nil {
				return err
			}
		}

		samples, err := newCatalog().Scan(dataDir)
		if err != nil {
			return err
		}
		dataManifest := filepath.Join(work, "data_manifest.json")
		if err := manifest.Truncate(dataManifest); err != nil {
			return err
		}
		if err := manifest.WriteEntries(dataManifest, manifest.FromSamples(samples)); err != nil {
			return err
		}

		job := trainer.DefaultJob()
		job.TrainManifest = filepath.Join(work, "train_manifest.json")
		job.ValManifest = filepath.Join(work, "val_manifest.json")
		job.Labels = labels
		job.SampleRate = cfg.SampleRate
		job.Seed = cfg.SplitSeed
		job.ModelOut = filepath.Join(work, "model.nemo")
		if prepareEpochs > 0 {
			job.MaxEpochs = prepareEpochs
		}

		nTrain, nVal, err := manifest.SplitFile(dataManifest, job.TrainManifest, job.ValManifest, cfg.TrainRatio, cfg.SplitSeed)
		if err != nil {
			return err
		}
		jobPath := filepath.Join(work, "job.toml")
		if err := trainer.WriteJob(jobPath, job); err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), renderTable(
			[]string{"Output", "Entries"},
			[][]string{
				{dataManifest, fmt.Sprint(len(samples))},
				{job.TrainManifest, fmt.Sprint(nTrain)},
				{job.ValManifest, fmt.Sprint(nVal)},
				{jobPath, "-"},
			},
			[]columnAlignment{alignLeft, alignRight},
		), "\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	prepareCmd.Flags().BoolVar(&prepareNoAugment, "no-augment", false, "use the input files as they are")
	prepareCmd.Flags().IntVar(&prepareEpochs, "epochs", 0, "max epochs written to the job (default 100)")
}
