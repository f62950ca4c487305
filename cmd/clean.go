package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicecmd/core/utils"
	"voicecmd/logger"
)

var cleanSuffix string

var cleanCmd = &cobra.Command{
	Use:   "clean <dir>",
	Short: "Delete files with a given suffix (default: Windows .Identifier streams)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := utils.RemoveBySuffix(args[0], cleanSuffix)
		for _, path := range removed {
			logger.Info("removed", logger.String("path", path))
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d files\n", len(removed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVar(&cleanSuffix, "suffix", ".Identifier", "file name suffix to delete")
}
