package augment

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
)

// Variant names one augmentation and the suffix used for its output file.
type Variant struct {
	Name   string
	Suffix string
}

// Variants lists the transforms in the order they are produced and written.
var Variants = []Variant{
	{Name: "noise", Suffix: "_noise"},
	{Name: "timeshift", Suffix: "_timeshift"},
	{Name: "pitch", Suffix: "_pitch"},
	{Name: "lowpass", Suffix: "_lowpass"},
	{Name: "highpass", Suffix: "_highpass"},
}

// DefaultSeed keeps augmentation runs reproducible unless a seed is given.
const DefaultSeed int64 = 42

// Engine applies the five augmentation variants. It owns a random source and
// is not safe for concurrent use.
type Engine struct {
	NoiseFactor      float64
	ShiftMaxFraction float64
	PitchSemitones   float64
	LowPassCutoff    float64 // Hz
	HighPassCutoff   float64 // Hz

	rng *rand.Rand
}

// NewEngine returns an engine with the default parameters seeded with seed.
func NewEngine(seed int64) *Engine {
	return &Engine{
		NoiseFactor:      0.005,
		ShiftMaxFraction: 0.2,
		PitchSemitones:   2,
		LowPassCutoff:    3000,
		HighPassCutoff:   500,
		rng:              rand.New(rand.NewSource(seed)),
	}
}

// Augment produces one waveform per variant, keyed by variant name.
func (e *Engine) Augment(waveform []float64, sampleRate int) (map[string][]float64, error) {
	low, err := LowPass(waveform, sampleRate, e.LowPassCutoff)
	if err != nil {
		return nil, fmt.Errorf("lowpass: %w", err)
	}
	high, err := HighPass(waveform, sampleRate, e.HighPassCutoff)
	if err != nil {
		return nil, fmt.Errorf("highpass: %w", err)
	}

	// noise draws from the generator before timeshift; keep this order stable.
	noisy := AddNoise(waveform, e.NoiseFactor, e.rng)
	shifted := TimeShift(waveform, e.ShiftMaxFraction, e.rng)

	return map[string][]float64{
		"noise":     noisy,
		"timeshift": shifted,
		"pitch":     PitchShift(waveform, sampleRate, e.PitchSemitones),
		"lowpass":   low,
		"highpass":  high,
	}, nil
}

// DerivedPath inserts suffix before the extension: "a/1_su.wav" → "a/1_su_noise.wav".
func DerivedPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
