package main

import (
	"github.com/spf13/cobra"

	"asglink/internal/asg"
	"asglink/internal/asgfmt"
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [flags] file",
		Short: "Print the node tree of a graph file",
		Args:  cobra.ExactArgs(1),
		RunE:  dumpExecution,
	}
	cmd.Flags().String("format", "tree", "dump format (tree|ndjson)")
	cmd.Flags().Int("width", 0, "truncate tree lines to this many columns (0 keeps them whole)")
	cmd.Flags().Bool("refs", false, "list reference edges under each node")
	return cmd
}

func dumpExecution(cmd *cobra.Command, args []string) error {
	formatValue, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format, err := asgfmt.ParseFormat(formatValue)
	if err != nil {
		return err
	}
	width, err := cmd.Flags().GetInt("width")
	if err != nil {
		return err
	}
	refs, err := cmd.Flags().GetBool("refs")
	if err != nil {
		return err
	}
	g, err := asg.Load(args[0])
	if err != nil {
		return err
	}
	return asgfmt.Dump(cmd.OutOrStdout(), g, asgfmt.Options{Format: format, Width: width, Refs: refs})
}
