package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Writer appends entries to a manifest file. Each Append call holds an
// exclusive lock on "<path>.lock" so concurrent writers never interleave lines.
type Writer struct {
	path string
	file *os.File
	lock *flock.Flock
}

// Open opens path for appending, creating it and its directory if needed.
func Open(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create manifest directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	return &Writer{path: path, file: f, lock: flock.New(path + ".lock")}, nil
}

// Path returns the manifest location.
func (w *Writer) Path() string { return w.path }

// Append writes one JSON object per entry, in order.
func (w *Writer) Append(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := w.lock.Lock(); err != nil {
		return fmt.Errorf("lock manifest %s: %w", w.path, err)
	}
	defer w.lock.Unlock() //nolint:errcheck

	buf := bufio.NewWriter(w.file)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		// Encode terminates every record with '\n'.
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode manifest entry %s: %w", e.AudioFilepath, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("write manifest %s: %w", w.path, err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.file.Close()
}

// WriteEntries appends entries to path. Existing lines are never touched.
func WriteEntries(path string, entries []Entry) error {
	w, err := Open(path)
	if err != nil {
		return err
	}
	if err := w.Append(entries...); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Truncate empties (or creates) the manifest so a run can start fresh.
func Truncate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("truncate manifest %s: %w", path, err)
	}
	return f.Close()
}
