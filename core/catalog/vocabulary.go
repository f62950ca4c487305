package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"voicecmd/model"
)

// IssueKind classifies a vocabulary problem.
type IssueKind string

const (
	IssueNoUnderscore IssueKind = "no-underscore"
	IssueUnknownLabel IssueKind = "unknown-label"
)

// VocabIssue is one file whose name does not map onto the label table.
type VocabIssue struct {
	Path  string
	Label string
	Kind  IssueKind
}

// CheckVocabulary reports audio files whose name lacks the "<id>_<label>"
// shape or whose label is not in table. Files are not opened.
func (c *Catalog) CheckVocabulary(root string, table model.LabelTable) ([]VocabIssue, int, error) {
	var issues []VocabIssue
	checked := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !c.Accepts(path) {
			return nil
		}
		checked++

		stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if !strings.Contains(stem, "_") {
			issues = append(issues, VocabIssue{Path: path, Label: ExtractLabel(path), Kind: IssueNoUnderscore})
			return nil
		}
		label := ExtractLabel(path)
		if !table.Contains(label) {
			issues = append(issues, VocabIssue{Path: path, Label: label, Kind: IssueUnknownLabel})
		}
		return nil
	})
	if err != nil {
		return nil, checked, fmt.Errorf("check vocabulary in %s: %w", root, err)
	}
	return issues, checked, nil
}
