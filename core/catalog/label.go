package catalog

import (
	"path/filepath"
	"strings"
)

// augmentationSuffixes are the tags appended to derived files. They are not
// part of the spoken label.
var augmentationSuffixes = []string{"_noise", "_timeshift", "_pitch", "_lowpass", "_highpass"}

// ExtractLabel derives the command label from a file path. For "3_avanti.wav"
// it returns "avanti": everything after the first underscore, extension
// removed, augmentation suffix removed. Without an underscore the parent
// directory name is used.
func ExtractLabel(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if _, rest, ok := strings.Cut(stem, "_"); ok {
		for _, suffix := range augmentationSuffixes {
			if trimmed := strings.TrimSuffix(rest, suffix); trimmed != rest && trimmed != "" {
				rest = trimmed
				break
			}
		}
		if rest != "" {
			return rest
		}
	}

	parent := filepath.Base(filepath.Dir(path))
	if parent != "." && parent != string(filepath.Separator) && parent != "" {
		return parent
	}
	if stem == "" {
		return base
	}
	return stem
}
