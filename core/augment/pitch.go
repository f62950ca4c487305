package augment

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	stftSize = 2048
	stftHop  = 512
)

// PitchShift moves the pitch of w by semitones while keeping its length:
// a phase-vocoder time stretch by 2^(-semitones/12) followed by resampling
// back to len(w). The result is peak-normalized.
func PitchShift(w []float64, sampleRate int, semitones float64) []float64 {
	if len(w) == 0 || semitones == 0 || isSilent(w) {
		return PeakNormalize(w)
	}
	rate := math.Pow(2, -semitones/12)

	stretched := timeStretch(w, rate)
	shifted := interpolate(stretched, len(w), 1/rate)
	return PeakNormalize(shifted)
}

func hannWindow(n int) []float64 {
	win := make([]float64, n)
	for i := range win {
		win[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return win
}

// timeStretch changes the duration of x by 1/rate without changing pitch.
func timeStretch(x []float64, rate float64) []float64 {
	fft := fourier.NewFFT(stftSize)
	win := hannWindow(stftSize)

	frames := stft(x, fft, win)
	stretched := phaseVocoder(frames, rate)
	length := int(math.Round(float64(len(x)) / rate))
	return istft(stretched, fft, win, length)
}

// stft computes centered frames (stftSize/2 zeros of padding on both sides).
func stft(x []float64, fft *fourier.FFT, win []float64) [][]complex128 {
	pad := stftSize / 2
	padded := make([]float64, len(x)+2*pad)
	copy(padded[pad:], x)

	nFrames := 1 + (len(padded)-stftSize)/stftHop
	frames := make([][]complex128, nFrames)
	buf := make([]float64, stftSize)
	for t := 0; t < nFrames; t++ {
		start := t * stftHop
		for i := 0; i < stftSize; i++ {
			buf[i] = padded[start+i] * win[i]
		}
		frames[t] = fft.Coefficients(nil, buf)
	}
	return frames
}

func phaseVocoder(frames [][]complex128, rate float64) [][]complex128 {
	if len(frames) == 0 {
		return nil
	}
	nBins := len(frames[0])
	empty := make([]complex128, nBins)
	// Two trailing silent frames so frame t+1 always exists.
	padded := append(append(frames[:len(frames):len(frames)], empty), empty)

	phiAdvance := make([]float64, nBins)
	phaseAcc := make([]float64, nBins)
	for k := range phiAdvance {
		phiAdvance[k] = math.Pi * stftHop * float64(k) / float64(nBins-1)
		phaseAcc[k] = cmplx.Phase(frames[0][k])
	}

	var out [][]complex128
	for step := 0.0; step < float64(len(frames)); step += rate {
		idx := int(step)
		alpha := step - float64(idx)
		left, right := padded[idx], padded[idx+1]

		frame := make([]complex128, nBins)
		for k := 0; k < nBins; k++ {
			mag := (1-alpha)*cmplx.Abs(left[k]) + alpha*cmplx.Abs(right[k])
			frame[k] = cmplx.Rect(mag, phaseAcc[k])

			dphase := cmplx.Phase(right[k]) - cmplx.Phase(left[k]) - phiAdvance[k]
			dphase -= 2 * math.Pi * math.Round(dphase/(2*math.Pi))
			phaseAcc[k] += phiAdvance[k] + dphase
		}
		out = append(out, frame)
	}
	return out
}

// istft overlap-adds frames and trims the centering pad, returning exactly length samples.
func istft(frames [][]complex128, fft *fourier.FFT, win []float64, length int) []float64 {
	out := make([]float64, length)
	if len(frames) == 0 {
		return out
	}
	total := stftSize + stftHop*(len(frames)-1)
	y := make([]float64, total)
	wsum := make([]float64, total)
	seq := make([]float64, stftSize)

	for t, frame := range frames {
		fft.Sequence(seq, frame)
		start := t * stftHop
		for i := 0; i < stftSize; i++ {
			// gonum leaves the inverse unscaled.
			y[start+i] += seq[i] / stftSize * win[i]
			wsum[start+i] += win[i] * win[i]
		}
	}
	for i := range y {
		if wsum[i] > 1e-10 {
			y[i] /= wsum[i]
		}
	}

	pad := stftSize / 2
	if pad < total {
		copy(out, y[pad:])
	}
	return out
}
