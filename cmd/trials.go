package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voicecmd/core/trials"
)

var trialsCmd = &cobra.Command{
	Use:   "trials",
	Short: "Inspect hyper-parameter search runs",
}

var trialsBestCmd = &cobra.Command{
	Use:   "best <experiment-dir>",
	Short: "Find the run with the lowest validation loss",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		best, all, err := trials.FindBest(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		rows := make([][]string, 0, len(all))
		for _, t := range all {
			loss := "-"
			if t.HasLoss {
				loss = fmt.Sprintf("%.4f", t.ValLoss)
			}
			rows = append(rows, []string{t.Dir, loss})
		}
		fmt.Fprintln(out, renderTable([]string{"Run", "val_loss"}, rows, []columnAlignment{alignLeft, alignRight}))

		if best == nil {
			return fmt.Errorf("no run in %s reported a val_loss", args[0])
		}
		params := make([][]string, 0, len(best.Params))
		for _, name := range best.ParamNames() {
			params = append(params, []string{name, best.Params[name]})
		}
		fmt.Fprintf(out, "best run: %s (val_loss %.4f)\n", best.Dir, best.ValLoss)
		fmt.Fprintln(out, strings.TrimRight(renderTable([]string{"Parameter", "Value"}, params, nil), "\n"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trialsCmd)
	trialsCmd.AddCommand(trialsBestCmd)
}
