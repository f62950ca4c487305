package augment

import (
	"fmt"
	"math"
)

// firstOrder holds the coefficients of y[n] = b0·x[n] + b1·x[n-1] − a1·y[n-1].
type firstOrder struct {
	b0, b1, a1 float64
}

// butterworth designs a first-order digital Butterworth filter with the
// bilinear transform. cutoff is in Hz and must lie strictly inside (0, nyquist).
func butterworth(cutoff float64, sampleRate int, highpass bool) (firstOrder, error) {
	nyquist := 0.5 * float64(sampleRate)
	wn := cutoff / nyquist
	if wn <= 0 || wn >= 1 {
		return firstOrder{}, fmt.Errorf("cutoff %.1f Hz outside (0, %.1f) for sample rate %d", cutoff, nyquist, sampleRate)
	}

	k := math.Tan(math.Pi * wn / 2)
	f := firstOrder{a1: (k - 1) / (k + 1)}
	if highpass {
		f.b0 = 1 / (1 + k)
		f.b1 = -f.b0
	} else {
		f.b0 = k / (1 + k)
		f.b1 = f.b0
	}
	return f, nil
}

func (f firstOrder) apply(x []float64) []float64 {
	y := make([]float64, len(x))
	var xPrev, yPrev float64
	for i, s := range x {
		y[i] = f.b0*s + f.b1*xPrev - f.a1*yPrev
		xPrev, yPrev = s, y[i]
	}
	return y
}

// LowPass filters w with a first-order Butterworth low-pass, then peak-normalizes.
func LowPass(w []float64, sampleRate int, cutoff float64) ([]float64, error) {
	f, err := butterworth(cutoff, sampleRate, false)
	if err != nil {
		return nil, err
	}
	return PeakNormalize(f.apply(w)), nil
}

// HighPass filters w with a first-order Butterworth high-pass, then peak-normalizes.
func HighPass(w []float64, sampleRate int, cutoff float64) ([]float64, error) {
	f, err := butterworth(cutoff, sampleRate, true)
	if err != nil {
		return nil, err
	}
	return PeakNormalize(f.apply(w)), nil
}
