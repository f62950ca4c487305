package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"voicecmd/logger"
)

// FFmpegProcessor implements Processor with the ffmpeg/ffprobe binaries.
type FFmpegProcessor struct {
	ffmpegPath string
}

var _ Processor = (*FFmpegProcessor)(nil)

// NewFFmpegProcessor creates a new FFmpegProcessor.
func NewFFmpegProcessor(ffmpegPath string) *FFmpegProcessor {
	return &FFmpegProcessor{ffmpegPath: ffmpegPath}
}

// FFmpegPath returns the configured ffmpeg binary.
func (p *FFmpegProcessor) FFmpegPath() string {
	return p.ffmpegPath
}

func (p *FFmpegProcessor) ffprobePath() string {
	return strings.Replace(p.ffmpegPath, "ffmpeg", "ffprobe", 1)
}

type ffprobeOutput struct {
	Streams []struct {
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe asks ffprobe for duration, sample rate and channel count of the first audio stream.
func (p *FFmpegProcessor) Probe(inputFile string) (Info, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels:format=duration",
		"-of", "json",
		inputFile,
	}

	cmd := exec.Command(p.ffprobePath(), args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Info{}, &DecodeError{Path: inputFile, Err: fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))}
	}
	return parseProbeOutput(inputFile, out.Bytes())
}

func parseProbeOutput(inputFile string, raw []byte) (Info, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Info{}, &DecodeError{Path: inputFile, Err: fmt.Errorf("unmarshal ffprobe output: %w", err)}
	}
	if len(probe.Streams) == 0 {
		return Info{}, &DecodeError{Path: inputFile, Err: fmt.Errorf("no audio streams found")}
	}
	if probe.Format.Duration == "" {
		return Info{}, &DecodeError{Path: inputFile, Err: fmt.Errorf("duration not found in ffprobe output")}
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return Info{}, &DecodeError{Path: inputFile, Err: fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)}
	}
	sampleRate, _ := strconv.Atoi(probe.Streams[0].SampleRate)

	return Info{
		Duration:   duration,
		SampleRate: sampleRate,
		Channels:   probe.Streams[0].Channels,
		Frames:     int64(duration * float64(sampleRate)),
	}, nil
}

// ConvertToWAV re-encodes any ffmpeg-readable input to 16-bit PCM mono WAV.
func (p *FFmpegProcessor) ConvertToWAV(ctx context.Context, inputFile, outputFile string, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := []string{
		"-y",
		"-i", inputFile,
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		outputFile,
	}

	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("executing ffmpeg",
		logger.String("bin", p.ffmpegPath),
		logger.String("args", strings.Join(args, " ")))

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg execution failed for %s: %w\nFFmpeg Error: %s", inputFile, err, stderr.String())
	}
	return nil
}
