package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"voicecmd/core/audio"
	"voicecmd/logger"
	"voicecmd/model"
)

// Catalog discovers audio files below a root directory.
type Catalog struct {
	probers map[string]audio.Prober
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithProber registers prober for files with extension ext (e.g. ".flac").
func WithProber(ext string, prober audio.Prober) Option {
	return func(c *Catalog) {
		c.probers[strings.ToLower(ext)] = prober
	}
}

// New returns a catalog accepting ".wav" files plus any extension added through options.
func New(opts ...Option) *Catalog {
	c := &Catalog{probers: map[string]audio.Prober{".wav": audio.WAVProber{}}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Accepts reports whether path has an allowed audio extension.
func (c *Catalog) Accepts(path string) bool {
	_, ok := c.probers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions lists the allowed extensions.
func (c *Catalog) Extensions() []string {
	exts := make([]string, 0, len(c.probers))
	for ext := range c.probers {
		exts = append(exts, ext)
	}
	return exts
}

// Describe probes a single file and builds its AudioSample.
func (c *Catalog) Describe(path string) (model.AudioSample, error) {
	prober, ok := c.probers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return model.AudioSample{}, fmt.Errorf("unsupported audio extension for %s", path)
	}
	info, err := prober.Probe(path)
	if err != nil {
		return model.AudioSample{}, err
	}
	return model.AudioSample{
		Path:       path,
		Label:      ExtractLabel(path),
		Duration:   info.Duration,
		SampleRate: info.SampleRate,
		Channels:   info.Channels,
	}, nil
}

// Scan walks root recursively. Files that cannot be decoded are logged and
// skipped; only a failure to walk root itself is returned.
func (c *Catalog) Scan(root string) ([]model.AudioSample, error) {
	var samples []model.AudioSample
	skipped := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("cannot read directory entry, skipping",
				logger.String("path", path),
				logger.ErrorField(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !c.Accepts(path) {
			return nil
		}

		sample, err := c.Describe(path)
		if err != nil {
			skipped++
			var decodeErr *audio.DecodeError
			if errors.As(err, &decodeErr) {
				logger.Error("unreadable audio file skipped",
					logger.String("path", path),
					logger.ErrorField(decodeErr.Err))
			} else {
				logger.Error("audio file skipped",
					logger.String("path", path),
					logger.ErrorField(err))
			}
			return nil
		}
		samples = append(samples, sample)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	logger.Info("catalog scan finished",
		logger.String("root", root),
		logger.Int("samples", len(samples)),
		logger.Int("skipped", skipped))
	return samples, nil
}
