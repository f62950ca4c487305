package augment

import "math/rand"

// TimeShift rotates w circularly by a random offset in
// (-maxFraction×len, maxFraction×len), then peak-normalizes.
func TimeShift(w []float64, maxFraction float64, rng *rand.Rand) []float64 {
	bound := int(float64(len(w)) * maxFraction)
	shift := 0
	if bound > 0 {
		shift = rng.Intn(bound)
	}
	if rng.Intn(2) == 1 {
		shift = -shift
	}
	return PeakNormalize(Roll(w, shift))
}

// Roll moves every sample shift positions to the right, wrapping around.
// Negative shifts move left.
func Roll(w []float64, shift int) []float64 {
	n := len(w)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	for i, s := range w {
		out[((i+shift)%n+n)%n] = s
	}
	return out
}
