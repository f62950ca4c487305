package augment

import "math/rand"

// AddNoise adds zero-mean Gaussian noise with standard deviation
// factor × (max(w) − min(w)), then peak-normalizes.
func AddNoise(w []float64, factor float64, rng *rand.Rand) []float64 {
	lo, hi := minMax(w)
	scale := factor * (hi - lo)

	out := make([]float64, len(w))
	for i, s := range w {
		out[i] = s + scale*rng.NormFloat64()
	}
	return PeakNormalize(out)
}
