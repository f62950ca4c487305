package inference

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"voicecmd/logger"
	"voicecmd/model"
)

// CommandTranscriber runs an external program with the audio paths appended
// to its arguments. Stdout is either one JSON array or one JSON value per line.
type CommandTranscriber struct {
	Command []string
}

// NewCommandTranscriber creates a transcriber for command.
func NewCommandTranscriber(command []string) *CommandTranscriber {
	return &CommandTranscriber{Command: command}
}

func (t *CommandTranscriber) Transcribe(ctx context.Context, paths []string) ([]model.Prediction, error) {
	if len(t.Command) == 0 {
		return nil, fmt.Errorf("model command not configured")
	}
	args := append(append([]string{}, t.Command[1:]...), paths...)
	cmd := exec.CommandContext(ctx, t.Command[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("running model command",
		logger.String("bin", t.Command[0]),
		logger.String("args", strings.Join(args, " ")))

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("model command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseCommandOutput(stdout.Bytes())
}

func parseCommandOutput(out []byte) ([]model.Prediction, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, nil
	}

	if out[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(out, &raws); err == nil {
			return ParsePredictions(raws)
		}
	}

	var raws []json.RawMessage
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		raws = append(raws, json.RawMessage(append([]byte(nil), line...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read model output: %w", err)
	}
	return ParsePredictions(raws)
}
