package trials

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"voicecmd/logger"
)

const (
	argsFile    = "cmd-args.log"
	metricsFile = "lightning_logs.txt"
)

var (
	argPattern     = regexp.MustCompile(`^--(\w+)=([\w.]+)`)
	valLossPattern = regexp.MustCompile(`val_loss\s*=\s*([\d.]+)`)
)

// Trial is one hyper-parameter search run.
type Trial struct {
	Dir     string
	Params  map[string]string
	ValLoss float64
	HasLoss bool
}

// ParamNames returns the parameter names in sorted order.
func (t Trial) ParamNames() []string {
	names := make([]string, 0, len(t.Params))
	for name := range t.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindBest walks dir for trial directories. A directory is a trial when it
// holds cmd-args.log; its score is the first val_loss in lightning_logs.txt.
// The best trial has the lowest val_loss and is nil when no trial reported one.
func FindBest(dir string) (*Trial, []Trial, error) {
	var found []Trial
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == dir {
			return nil
		}
		trial, ok, err := readTrial(path)
		if err != nil {
			logger.Warn("trial skipped", logger.String("dir", path), logger.ErrorField(err))
			return nil
		}
		if ok {
			found = append(found, trial)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan trials in %s: %w", dir, err)
	}

	var best *Trial
	for i := range found {
		t := &found[i]
		if t.HasLoss && (best == nil || t.ValLoss < best.ValLoss) {
			best = t
		}
	}
	return best, found, nil
}

func readTrial(dir string) (Trial, bool, error) {
	params, err := parseArgs(filepath.Join(dir, argsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Trial{}, false, nil
	}
	if err != nil {
		return Trial{}, false, err
	}

	trial := Trial{Dir: dir, Params: params}
	loss, ok, err := parseValLoss(filepath.Join(dir, metricsFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Trial{}, false, err
	}
	trial.ValLoss, trial.HasLoss = loss, ok
	return trial, true, nil
}

func parseArgs(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	params := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := argPattern.FindStringSubmatch(scanner.Text()); m != nil {
			params[m[1]] = m[2]
		}
	}
	return params, scanner.Err()
}

func parseValLoss(path string) (float64, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := valLossPattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return v, true, nil
	}
	return 0, false, scanner.Err()
}
