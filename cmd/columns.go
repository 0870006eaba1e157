package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/songlens-cli/internal/columns"
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Show which dataset column was picked for each role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		frame, path, err := loadDataset(ctx, c, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		res, err := resolveColumns(c, frame)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Dataset: %s\n", path)
		for _, role := range columns.Roles {
			m := res.Get(role)
			if !m.Found() {
				fmt.Fprintf(out, "- %s: (none)\n", role)
				continue
			}
			fmt.Fprintf(out, "- %s: %s (%s)\n", role, m.Column, m.Source)
		}
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the configured dataset into the cache and print its directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		dir, err := acquireDataset(ctx, c, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	rootCmd.AddCommand(fetchCmd)
}
