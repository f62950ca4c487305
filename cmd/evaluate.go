package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voicecmd/core/evaluate"
	"voicecmd/core/manifest"
)

var evaluateErrorsOnly bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <manifest>",
	Short: "Run the model over a manifest and report accuracy, WER and CER",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := manifest.ReadEntries(args[0])
		if err != nil {
			return err
		}
		labels, err := loadLabels()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ev := &evaluate.Evaluator{Transcriber: newTranscriber(), Labels: labels}
		report := ev.Run(ctx, entries)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderReportRows(report, evaluateErrorsOnly))
		fmt.Fprintln(out, renderTable(
			[]string{"Total", "Correct", "Incorrect", "Failed", "Accuracy", "WER", "CER"},
			[][]string{{
				fmt.Sprint(report.Total),
				fmt.Sprint(report.Correct),
				fmt.Sprint(report.Incorrect),
				fmt.Sprint(report.Failed),
				fmt.Sprintf("%.2f%%", report.Accuracy),
				fmt.Sprintf("%.4f", report.WER),
				fmt.Sprintf("%.4f", report.CER),
			}},
			[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
		))
		return nil
	},
}

func renderReportRows(report evaluate.Report, errorsOnly bool) string {
	rows := make([][]string, 0, len(report.Rows))
	for _, r := range report.Rows {
		if errorsOnly && r.Outcome == evaluate.OutcomeCorrect {
			continue
		}
		predicted := r.Predicted
		if r.Err != nil {
			predicted = "error: " + r.Err.Error()
		}
		rows = append(rows, []string{r.Path, r.Expected, predicted, string(r.Outcome)})
	}
	return renderTable([]string{"File", "Expected", "Predicted", "Result"}, rows, nil)
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().BoolVar(&evaluateErrorsOnly, "errors-only", false, "list only incorrect and failed entries")
}
