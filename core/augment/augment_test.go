package augment

import (
	"math"
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func tone(n, sampleRate int, freq, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func rms(x []float64) float64 {
	var sum float64
	for _, s := range x {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestPeakNormalize(t *testing.T) {
	in := []float64{0.1, -0.4, 0.2}
	out := PeakNormalize(in)
	if want := []float64{0.25, -1, 0.5}; !reflect.DeepEqual(out, want) {
		t.Fatalf("PeakNormalize(%v) = %v, want %v", in, out, want)
	}
	if in[1] != -0.4 {
		t.Fatalf("input was modified: %v", in)
	}

	zero := make([]float64, 4)
	if got := PeakNormalize(zero); !reflect.DeepEqual(got, zero) {
		t.Fatalf("silent input should be unchanged, got %v", got)
	}
}

func TestAugmentPeakNormalizesEveryVariant(t *testing.T) {
	wave := tone(16000, 16000, 300, 0.3)
	variants, err := NewEngine(DefaultSeed).Augment(wave, 16000)
	if err != nil {
		t.Fatalf("Augment: %v", err)
	}
	if len(variants) != len(Variants) {
		t.Fatalf("expected %d variants, got %d", len(Variants), len(variants))
	}
	for _, v := range Variants {
		out, ok := variants[v.Name]
		if !ok {
			t.Fatalf("missing variant %s", v.Name)
		}
		if len(out) != len(wave) {
			t.Errorf("%s: length %d, want %d", v.Name, len(out), len(wave))
		}
		if peak := maxAbs(out); math.Abs(peak-1) > 1e-9 {
			t.Errorf("%s: peak = %v, want 1", v.Name, peak)
		}
	}
}

func TestAugmentLeavesSilenceUnchanged(t *testing.T) {
	silent := make([]float64, 4096)
	variants, err := NewEngine(DefaultSeed).Augment(silent, 16000)
	if err != nil {
		t.Fatal(err)
	}
	for name, out := range variants {
		if !reflect.DeepEqual(out, silent) {
			t.Errorf("%s: silent input changed", name)
		}
	}
}

func TestRandomVariantsAreSeedDeterministic(t *testing.T) {
	wave := tone(4000, 8000, 220, 0.5)

	a, err := NewEngine(7).Augment(wave, 8000)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewEngine(7).Augment(wave, 8000)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"noise", "timeshift"} {
		if !reflect.DeepEqual(a[name], b[name]) {
			t.Errorf("%s differs between runs with the same seed", name)
		}
	}

	n1 := AddNoise(wave, 0.005, rand.New(rand.NewSource(1)))
	n2 := AddNoise(wave, 0.005, rand.New(rand.NewSource(2)))
	if reflect.DeepEqual(n1, n2) {
		t.Errorf("noise should depend on the seed")
	}
}

func TestRoll(t *testing.T) {
	in := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		shift int
		want  []float64
	}{
		{0, []float64{1, 2, 3, 4, 5}},
		{2, []float64{4, 5, 1, 2, 3}},
		{-1, []float64{2, 3, 4, 5, 1}},
		{7, []float64{4, 5, 1, 2, 3}},
	}
	for _, tt := range tests {
		if got := Roll(in, tt.shift); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Roll(%d) = %v, want %v", tt.shift, got, tt.want)
		}
	}
	if got := Roll(nil, 3); len(got) != 0 {
		t.Errorf("Roll(nil) = %v", got)
	}
}

func TestTimeShiftIsRotationWithinBound(t *testing.T) {
	wave := make([]float64, 100)
	wave[50] = 0.5
	out := TimeShift(wave, 0.2, rand.New(rand.NewSource(3)))

	pos := -1
	for i, s := range out {
		if s != 0 {
			if pos != -1 {
				t.Fatalf("more than one non-zero sample: %v", out)
			}
			pos = i
		}
	}
	if pos == -1 || out[pos] != 1 {
		t.Fatalf("impulse lost or not normalized: %v", out)
	}
	if d := pos - 50; d <= -20 || d >= 20 {
		t.Fatalf("shift %d exceeds bound of 20 samples", d)
	}

	sortedIn := PeakNormalize(wave)
	sortedOut := append([]float64(nil), out...)
	sort.Float64s(sortedIn)
	sort.Float64s(sortedOut)
	if !reflect.DeepEqual(sortedIn, sortedOut) {
		t.Fatalf("time shift must only reorder samples")
	}
}

func TestButterworthResponse(t *testing.T) {
	const sr = 16000
	low := tone(sr, sr, 50, 1)
	high := tone(sr, sr, 6000, 1)

	hp, err := butterworth(500, sr, true)
	if err != nil {
		t.Fatal(err)
	}
	if r := rms(hp.apply(low)) / rms(hp.apply(high)); r > 0.2 {
		t.Errorf("high-pass should attenuate 50 Hz relative to 6 kHz, ratio %v", r)
	}

	lp, err := butterworth(3000, sr, false)
	if err != nil {
		t.Fatal(err)
	}
	if r := rms(lp.apply(high)) / rms(lp.apply(low)); r > 0.6 {
		t.Errorf("low-pass should attenuate 6 kHz relative to 50 Hz, ratio %v", r)
	}

	// Unity gain at DC for the low-pass: a constant settles at its input value.
	dc := make([]float64, 2000)
	for i := range dc {
		dc[i] = 0.5
	}
	if got := lp.apply(dc)[len(dc)-1]; math.Abs(got-0.5) > 1e-6 {
		t.Errorf("low-pass DC output = %v, want 0.5", got)
	}
	if got := hp.apply(dc)[len(dc)-1]; math.Abs(got) > 1e-6 {
		t.Errorf("high-pass DC output = %v, want 0", got)
	}
}

func TestFilterRejectsCutoffAboveNyquist(t *testing.T) {
	if _, err := LowPass([]float64{1}, 4000, 3000); err == nil {
		t.Fatal("expected error for cutoff above nyquist")
	}
	if _, err := HighPass([]float64{1}, 16000, 0); err == nil {
		t.Fatal("expected error for zero cutoff")
	}
	if _, err := NewEngine(1).Augment([]float64{1, 0}, 4000); err == nil {
		t.Fatal("Augment should surface the filter error")
	}
}

func zeroCrossings(x []float64) int {
	n := 0
	for i := 1; i < len(x); i++ {
		if (x[i-1] < 0) != (x[i] < 0) {
			n++
		}
	}
	return n
}

func TestPitchShiftOctave(t *testing.T) {
	const sr = 16000
	wave := tone(sr, sr, 440, 0.5)
	out := PitchShift(wave, sr, 12)
	if len(out) != len(wave) {
		t.Fatalf("length %d, want %d", len(out), len(wave))
	}

	// Ignore the edges where the vocoder fades in and out.
	mid := func(x []float64) []float64 { return x[stftSize : len(x)-stftSize] }
	ratio := float64(zeroCrossings(mid(out))) / float64(zeroCrossings(mid(wave)))
	if ratio < 1.8 || ratio > 2.2 {
		t.Fatalf("octave shift should double the frequency, crossing ratio %v", ratio)
	}
	if peak := maxAbs(out); math.Abs(peak-1) > 1e-9 {
		t.Fatalf("peak = %v, want 1", peak)
	}
}

func TestPitchShiftShortInput(t *testing.T) {
	wave := tone(300, 16000, 1000, 0.2)
	out := PitchShift(wave, 16000, 2)
	if len(out) != len(wave) {
		t.Fatalf("length %d, want %d", len(out), len(wave))
	}
}

func TestResample(t *testing.T) {
	in := tone(441, 44100, 100, 1)
	out := Resample(in, 44100, 16000)
	if len(out) != 160 {
		t.Fatalf("len = %d, want 160", len(out))
	}
	same := Resample(in, 16000, 16000)
	if !reflect.DeepEqual(same, in) {
		t.Fatal("equal rates should copy")
	}
}

func TestDerivedPath(t *testing.T) {
	tests := []struct{ in, suffix, want string }{
		{"a/1_su.wav", "_noise", "a/1_su_noise.wav"},
		{"1_giu.WAV", "_pitch", "1_giu_pitch.WAV"},
		{"noext", "_lowpass", "noext_lowpass"},
	}
	for _, tt := range tests {
		if got := DerivedPath(tt.in, tt.suffix); got != tt.want {
			t.Errorf("DerivedPath(%q, %q) = %q, want %q", tt.in, tt.suffix, got, tt.want)
		}
	}
}
