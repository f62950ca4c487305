package trainer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Job is everything the external trainer needs for one run.
type Job struct {
	TrainManifest string   `toml:"train_manifest"`
	ValManifest   string   `toml:"val_manifest"`
	Labels        []string `toml:"labels"`
	SampleRate    int      `toml:"sample_rate"`
	MaxEpochs     int      `toml:"max_epochs"`
	BatchSize     int      `toml:"batch_size"`
	LearningRate  float64  `toml:"learning_rate"`
	Seed          int64    `toml:"seed"`
	ModelOut      string   `toml:"model_out"`
}

// DefaultJob returns a job with the usual hyper-parameters filled in.
func DefaultJob() Job {
	return Job{
		SampleRate:   16000,
		MaxEpochs:    100,
		BatchSize:    32,
		LearningRate: 0.001,
		Seed:         42,
		ModelOut:     "model.nemo",
	}
}

// Validate checks the fields the trainer cannot run without.
func (j Job) Validate() error {
	switch {
	case j.TrainManifest == "":
		return errors.New("train manifest required")
	case j.ValManifest == "":
		return errors.New("validation manifest required")
	case len(j.Labels) == 0:
		return errors.New("label list required")
	case j.SampleRate <= 0:
		return errors.New("sample rate must be positive")
	case j.MaxEpochs <= 0:
		return errors.New("max epochs must be positive")
	case j.BatchSize <= 0:
		return errors.New("batch size must be positive")
	case j.ModelOut == "":
		return errors.New("model output path required")
	}
	return nil
}

// WriteJob serializes job to path as TOML.
func WriteJob(path string, job Job) error {
	data, err := toml.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create job directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write job: %w", err)
	}
	return nil
}

// LoadJob reads a TOML job file. Missing keys keep DefaultJob values.
func LoadJob(path string) (Job, error) {
	job := DefaultJob()
	file, err := os.Open(path)
	if err != nil {
		return job, fmt.Errorf("open job: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&job); err != nil {
		return job, fmt.Errorf("parse job: %w", err)
	}
	return job, nil
}
