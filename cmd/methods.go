package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/proteo/internal/centrality"
	"github.com/papapumpkin/proteo/internal/scoring"
)

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List available scoring methods and centrality metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeMethods(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(methodsCmd)
}

func writeMethods(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODE\tDESCRIPTION")
	for _, m := range scoring.Methods() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Name, m.Mode, m.Description)
	}
	for _, m := range centrality.Metrics() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Name, "topology", m.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nteo accepts an aspect suffix: teo:BP, teo:MF or teo:CC.")
	return nil
}
