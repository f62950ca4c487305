package augment

import "math"

// PeakNormalize scales w so that max|w| == 1. Silent input is returned as an
// unchanged copy.
func PeakNormalize(w []float64) []float64 {
	out := make([]float64, len(w))
	copy(out, w)
	peak := maxAbs(w)
	if peak == 0 {
		return out
	}
	for i := range out {
		out[i] /= peak
	}
	return out
}

func maxAbs(w []float64) float64 {
	var peak float64
	for _, s := range w {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

func minMax(w []float64) (lo, hi float64) {
	if len(w) == 0 {
		return 0, 0
	}
	lo, hi = w[0], w[0]
	for _, s := range w[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	return lo, hi
}

func isSilent(w []float64) bool {
	return maxAbs(w) == 0
}
