package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"asglink/internal/asg"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [flags] files...",
		Short: "Print the headers of graph files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  infoExecution,
	}
	cmd.Flags().String("format", "text", "output format (text|json)")
	return cmd
}

type fileHeader struct {
	Path   string            `json:"path"`
	Header map[string]string `json:"header"`
}

// readHeaders reads every header concurrently; results keep the order of paths.
func readHeaders(cmd *cobra.Command, paths []string) ([]fileHeader, error) {
	out := make([]fileHeader, len(paths))
	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := asg.ReadHeader(path)
			if err != nil {
				return err
			}
			out[i] = fileHeader{Path: path, Header: h}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func infoExecution(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}
	headers, err := readHeaders(cmd, args)
	if err != nil {
		return err
	}
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(headers)
	}
	renderHeaders(cmd.OutOrStdout(), headers)
	return nil
}

func renderHeaders(out io.Writer, headers []fileHeader) {
	for i, fh := range headers {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, fh.Path)
		keys := make([]string, 0, len(fh.Header))
		for k := range fh.Header {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %-12s %s\n", k+":", fh.Header[k])
		}
	}
}
