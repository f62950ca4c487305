package trainer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"voicecmd/logger"
)

// Run executes command with jobPath appended and forwards each output line
// to the logger. It blocks until the trainer exits or ctx is cancelled.
func Run(ctx context.Context, command []string, jobPath string) error {
	if len(command) == 0 {
		return errors.New("trainer command not configured")
	}
	args := append(append([]string{}, command[1:]...), jobPath)
	cmd := exec.CommandContext(ctx, command[0], args...) //nolint:gosec

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	logger.Info("starting trainer",
		logger.String("bin", command[0]),
		logger.String("args", strings.Join(args, " ")))

	if err := cmd.Start(); err != nil {
		pw.Close()
		return fmt.Errorf("start trainer: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- streamLines(pr)
	}()

	waitErr := cmd.Wait()
	pw.Close()
	if err := <-done; err != nil {
		logger.Warn("trainer output truncated", logger.ErrorField(err))
	}
	if waitErr != nil {
		return fmt.Errorf("trainer failed: %w", waitErr)
	}
	logger.Info("trainer finished", logger.String("job", jobPath))
	return nil
}

func streamLines(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		logger.Info("trainer", logger.String("line", line))
	}
	err := scanner.Err()
	if err != nil {
		// Keep draining so the child never blocks on a full pipe.
		io.Copy(io.Discard, r) //nolint:errcheck
	}
	return err
}
