package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func sine(n, sampleRate int, freq, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestWriteThenProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "a_avanti.wav")
	if err := WriteWAV(path, sine(16000, 16000, 440, 0.5), 16000); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	info, err := WAVProber{}.Probe(path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 {
		t.Fatalf("unexpected format %+v", info)
	}
	if math.Abs(info.Duration-1.0) > 1e-6 {
		t.Fatalf("duration = %v, want 1.0", info.Duration)
	}
}

func TestReadWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	in := sine(800, 8000, 200, 0.8)
	if err := WriteWAV(path, in, 8000); err != nil {
		t.Fatal(err)
	}

	w, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if w.SampleRate != 8000 || len(w.Samples) != len(in) {
		t.Fatalf("got %d samples at %d Hz", len(w.Samples), w.SampleRate)
	}
	for i := range in {
		if math.Abs(w.Samples[i]-in[i]) > 1e-3 {
			t.Fatalf("sample %d = %v, want %v", i, w.Samples[i], in[i])
		}
	}
}

func TestProbeCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("this is not a riff file"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := WAVProber{}.Probe(path)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Path != path {
		t.Fatalf("DecodeError.Path = %q, want %q", decodeErr.Path, path)
	}
}

func TestProbeMissingFile(t *testing.T) {
	_, err := WAVProber{}.Probe(filepath.Join(t.TempDir(), "missing.wav"))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || !os.IsNotExist(errors.Unwrap(err)) {
		t.Fatalf("expected wrapped not-exist DecodeError, got %v", err)
	}
}

func TestParseProbeOutput(t *testing.T) {
	raw := []byte(`{"streams":[{"sample_rate":"44100","channels":2}],"format":{"duration":"2.500000"}}`)
	info, err := parseProbeOutput("x.mp3", raw)
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if info.SampleRate != 44100 || info.Channels != 2 || info.Duration != 2.5 {
		t.Fatalf("unexpected info %+v", info)
	}

	if _, err := parseProbeOutput("x.mp3", []byte(`{"streams":[],"format":{}}`)); err == nil {
		t.Fatal("expected error when no audio streams are present")
	}
}
