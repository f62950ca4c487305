package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"voicecmd/storage"
)

var (
	minioPrefix string
	minioStats  bool
	minioDelete bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the archive of saved recordings",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := storage.NewMinioClient(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		out := cmd.OutOrStdout()

		if minioDelete {
			if minioPrefix == "" {
				return fmt.Errorf("--delete needs --prefix")
			}
			n, err := client.DeletePrefix(ctx, minioPrefix)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "removed %d objects under %s\n", n, minioPrefix)
			return nil
		}

		objects, err := client.ListObjects(ctx, minioPrefix)
		if err != nil {
			return err
		}
		stats := storage.Summarize(objects)

		if minioStats {
			rows := make([][]string, 0, len(stats.ByLabel))
			for _, label := range stats.SortedLabels() {
				rows = append(rows, []string{label, fmt.Sprint(stats.ByLabel[label])})
			}
			fmt.Fprintln(out, renderTable([]string{"Label", "Recordings"}, rows, []columnAlignment{alignLeft, alignRight}))
		} else {
			rows := make([][]string, 0, len(objects))
			for _, obj := range objects {
				rows = append(rows, []string{obj.Key, storage.FormatSize(obj.Size), obj.LastModified.Format(time.RFC3339)})
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "Size", "Modified"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
		}
		fmt.Fprintf(out, "bucket %s: %d objects, %s\n", client.Bucket(), stats.TotalObjects, storage.FormatSize(stats.TotalSize))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "audio/", "object key prefix")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "show recordings per label")
	minioCmd.Flags().BoolVarP(&minioDelete, "delete", "d", false, "delete every object under --prefix")
}
