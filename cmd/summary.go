package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/songlens-cli/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the summary of the last run in the output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		m, err := report.Load(c.OutputDir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run: %s (%s)\n", m.RunID, m.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
		fmt.Fprintf(out, "Dataset: %s (%d rows, %d columns)\n", m.Dataset, m.Rows, m.Columns)
		for _, role := range sortedKeys(m.Roles) {
			fmt.Fprintf(out, "- %s: %s\n", role, m.Roles[role])
		}
		for _, e := range m.Analyses {
			fmt.Fprintf(out, "%s: %s\n", e.Name, e.Status)
			for _, ch := range e.Charts {
				fmt.Fprintf(out, "  chart: %s\n", ch)
			}
			if e.Reason != "" {
				fmt.Fprintf(out, "  reason: %s\n", e.Reason)
			}
			if e.Error != "" {
				fmt.Fprintf(out, "  error: %s\n", e.Error)
			}
			for _, n := range e.Notes {
				fmt.Fprintf(out, "  - %s\n", n)
			}
		}
		fmt.Fprintln(out, countsLine(m.Counts()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
