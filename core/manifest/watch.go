package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"voicecmd/logger"
	"voicecmd/model"
)

// Describer turns a file path into a sample; catalog.Catalog satisfies it.
type Describer interface {
	Accepts(path string) bool
	Describe(path string) (model.AudioSample, error)
}

// Watcher appends an entry for every audio file that appears below a root
// directory. Files that cannot be decoded yet (still being copied) are retried
// on their next write event.
type Watcher struct {
	root     string
	catalog  Describer
	writer   *Writer
	mu       sync.Mutex
	recorded map[string]bool
}

// NewWatcher creates a watcher appending to w. Paths listed in known are
// treated as already recorded.
func NewWatcher(root string, catalog Describer, w *Writer, known []string) *Watcher {
	recorded := make(map[string]bool, len(known))
	for _, p := range known {
		recorded[p] = true
	}
	return &Watcher{root: root, catalog: catalog, writer: w, recorded: recorded}
}

// Run blocks until ctx is cancelled or the watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := addTree(fw, w.root); err != nil {
		return err
	}
	// Files that landed before the watches were registered get no event.
	if n := w.sweep(w.root); n > 0 {
		logger.Info("recorded audio found while starting watch", logger.Int("entries", n))
	}
	logger.Info("watching for new audio", logger.String("root", w.root), logger.String("manifest", w.writer.Path()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(fw, event.Name); err != nil {
						logger.Warn("cannot watch new directory", logger.String("path", event.Name), logger.ErrorField(err))
					}
					// A directory moved or copied in arrives with its files already inside.
					w.sweep(event.Name)
					continue
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.handle(event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", logger.ErrorField(err))
		}
	}
}

// handle records path once it probes successfully. It returns true when a
// new entry was appended.
func (w *Watcher) handle(path string) bool {
	if !w.catalog.Accepts(path) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.recorded[path] {
		return false
	}

	sample, err := w.catalog.Describe(path)
	if err != nil {
		logger.Debug("audio not readable yet", logger.String("path", path), logger.ErrorField(err))
		return false
	}
	if err := w.writer.Append(FromSample(sample)); err != nil {
		logger.Error("append manifest entry failed", logger.String("path", path), logger.ErrorField(err))
		return false
	}
	w.recorded[path] = true
	logger.Info("manifest entry appended",
		logger.String("path", path),
		logger.String("label", sample.Label),
		logger.Float64("duration", sample.Duration))
	return true
}

// sweep handles every file below dir and returns how many entries it appended.
func (w *Watcher) sweep(dir string) int {
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("cannot read directory", logger.String("path", path), logger.ErrorField(err))
			return nil
		}
		if !d.IsDir() && w.handle(path) {
			n++
		}
		return nil
	})
	if err != nil {
		logger.Warn("sweep failed", logger.String("dir", dir), logger.ErrorField(err))
	}
	return n
}

func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}
