package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Inspect dataset labels",
}

var vocabCheckCmd = &cobra.Command{
	Use:   "check <audio-dir>",
	Short: "List files whose names do not map to a known label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		labels, err := loadLabels()
		if err != nil {
			return err
		}
		issues, checked, err := newCatalog().CheckVocabulary(args[0], labels)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(issues) == 0 {
			fmt.Fprintf(out, "all %d files use known labels\n", checked)
			return nil
		}
		rows := make([][]string, len(issues))
		for i, issue := range issues {
			rows[i] = []string{issue.Path, issue.Label, string(issue.Kind)}
		}
		fmt.Fprintln(out, renderTable([]string{"File", "Label", "Problem"}, rows, nil))
		return fmt.Errorf("%d of %d files have label problems", len(issues), checked)
	},
}

func init() {
	rootCmd.AddCommand(vocabCmd)
	vocabCmd.AddCommand(vocabCheckCmd)
}
