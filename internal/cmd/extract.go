package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [paths...]",
	Short: "Write speedtest rows from log files to CSV",
	Long: `Read each log file (or glob match) whole, keep the lines mentioning
Date, Download or Upload, group them into rows and write one CSV file per
input to the output directory. Nothing is written for a log without a
complete row.

Examples:
  piastats extract /home/kindaran/Logs/speedtest.log -d /home/kindaran/Logs
  piastats extract "logs/**/speedtest*.log.gz"`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	results, err := newRunner().RunAll(cmd.Context(), inputs(args))
	for _, res := range results {
		if res.Written {
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
		}
	}
	return err
}
