package augment

import "math"

// Resample converts w from one sample rate to another by linear interpolation.
func Resample(w []float64, from, to int) []float64 {
	if from == to || from <= 0 || to <= 0 {
		out := make([]float64, len(w))
		copy(out, w)
		return out
	}
	outLen := int(math.Round(float64(len(w)) * float64(to) / float64(from)))
	return interpolate(w, outLen, float64(from)/float64(to))
}

// interpolate reads x at positions 0, step, 2·step, ... producing outLen
// samples. Positions past the end of x yield zero.
func interpolate(x []float64, outLen int, step float64) []float64 {
	out := make([]float64, outLen)
	last := len(x) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		switch {
		case j < last:
			frac := pos - float64(j)
			out[i] = x[j]*(1-frac) + x[j+1]*frac
		case j == last:
			out[i] = x[last]
		}
	}
	return out
}
