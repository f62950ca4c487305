package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Info is the container metadata needed by the catalog.
type Info struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	Frames     int64
}

// Prober extracts Info from an audio file.
type Prober interface {
	Probe(path string) (Info, error)
}

// WAVProber reads RIFF headers with go-audio/wav.
type WAVProber struct{}

var errInvalidWAV = errors.New("not a valid WAV file")

// Probe computes duration as frames / sampleRate from the header and data chunk size.
func (WAVProber) Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Info{}, &DecodeError{Path: path, Err: errInvalidWAV}
	}
	if err := d.FwdToPCM(); err != nil {
		return Info{}, &DecodeError{Path: path, Err: err}
	}

	frameSize := int64(d.NumChans) * int64(d.BitDepth/8)
	if frameSize == 0 || d.SampleRate == 0 {
		return Info{}, &DecodeError{Path: path, Err: errInvalidWAV}
	}
	frames := d.PCMLen() / frameSize
	return Info{
		Duration:   float64(frames) / float64(d.SampleRate),
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		Frames:     frames,
	}, nil
}

// Waveform is mono audio as float samples in [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate == 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// ReadWAV decodes a PCM WAV file, downmixing to mono.
func ReadWAV(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Waveform{}, &DecodeError{Path: path, Err: errInvalidWAV}
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Waveform{}, &DecodeError{Path: path, Err: err}
	}

	channels := int(d.NumChans)
	if channels < 1 {
		channels = 1
	}
	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}
	scale := math.Exp2(float64(bitDepth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}
	return Waveform{Samples: samples, SampleRate: int(d.SampleRate)}, nil
}

// WriteWAV writes samples as 16-bit PCM mono. Samples are clipped to [-1, 1].
func WriteWAV(path string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(math.Round(s * math.MaxInt16))
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return f.Close()
}
