package augment

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"voicecmd/core/audio"
	"voicecmd/core/catalog"
	"voicecmd/logger"
	"voicecmd/model"
)

// TreeOptions controls AugmentTree.
type TreeOptions struct {
	// SampleRate resamples every input before augmenting; 0 keeps the source rate.
	SampleRate int
	// OnFile is called after each input file, with a nil error on success.
	OnFile func(path string, err error)
}

// TreeResult lists the written samples (originals and variants, in write order).
type TreeResult struct {
	Samples   []model.AudioSample
	Processed int
	Failed    int
}

// CountInputs returns the number of WAV files AugmentTree would visit.
func CountInputs(inputDir, outputDir string) (int, error) {
	n := 0
	err := walkInputs(inputDir, outputDir, func(string) error {
		n++
		return nil
	})
	return n, err
}

func walkInputs(inputDir, outputDir string, fn func(path string) error) error {
	absOut, _ := filepath.Abs(outputDir)
	return filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if abs, _ := filepath.Abs(path); abs == absOut && path != inputDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".wav") {
			return nil
		}
		return fn(path)
	})
}

// AugmentTree mirrors inputDir into outputDir. For every WAV file it writes
// the (resampled) original plus one file per variant. A file that fails is
// logged and counted; the walk continues.
func AugmentTree(ctx context.Context, inputDir, outputDir string, engine *Engine, opts TreeOptions) (TreeResult, error) {
	var result TreeResult
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return result, fmt.Errorf("create output directory: %w", err)
	}

	err := walkInputs(inputDir, outputDir, func(path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		samples, err := augmentFile(path, inputDir, outputDir, engine, opts.SampleRate)
		if opts.OnFile != nil {
			opts.OnFile(path, err)
		}
		if err != nil {
			result.Failed++
			logger.Error("augmentation failed, skipping file",
				logger.String("path", path),
				logger.ErrorField(err))
			return nil
		}
		result.Processed++
		result.Samples = append(result.Samples, samples...)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("augment %s: %w", inputDir, err)
	}

	logger.Info("augmentation finished",
		logger.String("input", inputDir),
		logger.String("output", outputDir),
		logger.Int("processed", result.Processed),
		logger.Int("failed", result.Failed),
		logger.Int("written", len(result.Samples)))
	return result, nil
}

func augmentFile(path, inputDir, outputDir string, engine *Engine, targetRate int) ([]model.AudioSample, error) {
	wave, err := audio.ReadWAV(path)
	if err != nil {
		return nil, err
	}
	if targetRate > 0 && wave.SampleRate != targetRate {
		wave.Samples = Resample(wave.Samples, wave.SampleRate, targetRate)
		wave.SampleRate = targetRate
	}

	rel, err := filepath.Rel(inputDir, path)
	if err != nil {
		return nil, err
	}
	outPath := filepath.Join(outputDir, rel)
	label := catalog.ExtractLabel(path)
	duration := wave.Duration()

	if err := audio.WriteWAV(outPath, wave.Samples, wave.SampleRate); err != nil {
		return nil, err
	}
	written := []model.AudioSample{{
		Path: outPath, Label: label, Duration: duration, SampleRate: wave.SampleRate, Channels: 1,
	}}

	variants, err := engine.Augment(wave.Samples, wave.SampleRate)
	if err != nil {
		return nil, err
	}
	for _, v := range Variants {
		variantPath := DerivedPath(outPath, v.Suffix)
		if err := audio.WriteWAV(variantPath, variants[v.Name], wave.SampleRate); err != nil {
			return nil, err
		}
		written = append(written, model.AudioSample{
			Path: variantPath, Label: label, Duration: duration, SampleRate: wave.SampleRate, Channels: 1,
		})
	}
	return written, nil
}
