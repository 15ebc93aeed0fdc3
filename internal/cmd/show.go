package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kindaran/pia-stats/internal/output"
	"github.com/kindaran/pia-stats/internal/source"
)

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show [paths...]",
	Short: "Print the rows a log would export, without writing a file",
	Long: `Print the grouped rows of each log to the terminal. Rows merged from
an aborted run are flagged as MISALIGNED.

Examples:
  piastats show speedtest.log
  piastats show speedtest.log --format json | jq .download_speed`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "text", "output format: text, json")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	var renderer output.Renderer
	switch strings.ToLower(showFormat) {
	case "json":
		renderer = output.NewJSONRenderer(cmd.OutOrStdout())
	case "text":
		renderer = output.NewTextRenderer(cmd.OutOrStdout())
	default:
		return fmt.Errorf("unknown format %q", showFormat)
	}

	paths, err := source.Expand(inputs(args))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files matched the given patterns: %v", inputs(args))
	}

	runner := newRunner()
	for _, p := range paths {
		res, err := runner.Rows(cmd.Context(), p)
		if err != nil {
			return err
		}
		for _, row := range res.Rows {
			if err := renderer.Render(row); err != nil {
				return fmt.Errorf("render: %w", err)
			}
		}
	}
	return nil
}
