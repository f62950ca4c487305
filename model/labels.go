package model

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// UnknownLabel is returned whenever a class index falls outside the table.
const UnknownLabel = "Unknown"

// DefaultLabels is the command vocabulary, in class-index order.
var DefaultLabels = LabelTable{
	"avanti", "indietro", "sinistra", "destra",
	"cammina", "corri", "fermo", "salta",
	"vola", "su", "giu", "pausa",
	"continua", "esci",
}

// LabelTable maps class indices to command labels.
type LabelTable []string

// Lookup returns the label at index i, or UnknownLabel when i is out of range.
func (t LabelTable) Lookup(i int) string {
	if i < 0 || i >= len(t) {
		return UnknownLabel
	}
	return t[i]
}

// Contains reports whether label is part of the vocabulary (case-insensitive).
func (t LabelTable) Contains(label string) bool {
	for _, l := range t {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}

// Resolve turns a model prediction into a label.
func (t LabelTable) Resolve(p Prediction) string {
	switch p.Kind {
	case PredictionClassIndex:
		return t.Lookup(p.Index)
	case PredictionLabel:
		if p.Label == "" {
			return UnknownLabel
		}
		return p.Label
	default:
		return UnknownLabel
	}
}

// LoadLabels reads one label per line; blank lines and '#' comments are ignored.
func LoadLabels(path string) (LabelTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels file: %w", err)
	}
	defer f.Close()

	var table LabelTable
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		table = append(table, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels file: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return table, nil
}
