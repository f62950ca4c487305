package inference

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// UniquePath returns dir/base+ext, or dir/base_N+ext with the smallest N that
// does not exist yet.
func UniquePath(dir, base, ext string) string {
	for n := 0; ; n++ {
		candidate := filepath.Join(dir, candidateName(base, ext, n))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// SaveUnique copies src into dir under the first free name in the UniquePath
// sequence. Names are claimed with O_EXCL so an existing file is never overwritten.
func SaveUnique(src, dir, base, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create save directory: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open staged audio: %w", err)
	}
	defer in.Close()

	base = safeName(base)
	for n := 0; ; n++ {
		target := filepath.Join(dir, candidateName(base, ext, n))
		out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", target, err)
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			os.Remove(target)
			return "", fmt.Errorf("copy audio to %s: %w", target, err)
		}
		if err := out.Close(); err != nil {
			os.Remove(target)
			return "", fmt.Errorf("close %s: %w", target, err)
		}
		return target, nil
	}
}

func candidateName(base, ext string, n int) string {
	if n == 0 {
		return base + ext
	}
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

// safeName keeps model-produced labels from escaping the save directory.
func safeName(label string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, label)
	if name == "" || name == "." || name == ".." {
		return "unnamed"
	}
	return name
}
