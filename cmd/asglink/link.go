package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"asglink/internal/asgfmt"
	"asglink/internal/diag"
	"asglink/internal/driver"
)

func newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link [flags] inputs...",
		Short: "Merge graph files into one graph",
		Long: `Merge the given graph files, and every extra dependency they declare,
into one graph. Settings from asglink.toml apply unless overridden by flags.`,
		RunE: linkExecution,
	}
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "merged graph to write")
	flags.String("base", "", "previously merged graph to link into")
	flags.String("changeset", "", "changeset id stored in the output header")
	flags.StringArray("filter-include", nil, "source path prefix kept even when excluded (repeatable)")
	flags.StringArray("filter-exclude", nil, "source path prefix to filter out (repeatable)")
	flags.Bool("reflective", false, "filter out external declarations known only reflectively")
	flags.String("dump", "", "write a debug dump of the merged graph")
	flags.String("dump-format", "tree", "debug dump format (tree|ndjson)")
	flags.Bool("strict-positions", false, "identify declarations by file, line and column")
	flags.String("ui", "auto", "progress UI (auto|on|off)")
	flags.Bool("timings", false, "print phase timings")
	flags.String("diag-format", "short", "diagnostics output format (short|json)")
	return cmd
}

// linkSettings merges asglink.toml and the command line.
type linkSettings struct {
	inputs     []string
	opts       driver.Options
	ui         uiMode
	timings    bool
	diagFormat string
}

func readLinkSettings(cmd *cobra.Command, args []string, cfg fileConfig) (linkSettings, error) {
	flags := cmd.Flags()
	var s linkSettings
	str := func(name, fromFile string) (string, error) {
		if flags.Changed(name) || fromFile == "" {
			return flags.GetString(name)
		}
		return fromFile, nil
	}
	var err error

	s.inputs = args
	if len(s.inputs) == 0 {
		s.inputs = cfg.paths(cfg.Link.Inputs)
	}
	if len(s.inputs) == 0 {
		return s, fmt.Errorf("no inputs: pass graph files or set [link].inputs in %s", configFileName)
	}

	if s.opts.Output, err = str("output", cfg.path(cfg.Link.Output)); err != nil {
		return s, err
	}
	if s.opts.Output == "" {
		return s, fmt.Errorf("no output: pass -o or set [link].output in %s", configFileName)
	}
	if s.opts.BasePath, err = str("base", cfg.path(cfg.Link.Base)); err != nil {
		return s, err
	}
	if s.opts.Changeset, err = str("changeset", cfg.Link.Changeset); err != nil {
		return s, err
	}
	if s.opts.DumpPath, err = str("dump", cfg.path(cfg.Link.Dump)); err != nil {
		return s, err
	}
	dumpFormat, err := str("dump-format", cfg.Link.DumpFormat)
	if err != nil {
		return s, err
	}
	if s.opts.DumpFormat, err = asgfmt.ParseFormat(dumpFormat); err != nil {
		return s, err
	}
	uiValue, err := str("ui", cfg.Link.UI)
	if err != nil {
		return s, err
	}
	if s.ui, err = readUIMode(uiValue); err != nil {
		return s, err
	}

	s.opts.Policy.StrictPositions = cfg.Link.StrictPositions
	if flags.Changed("strict-positions") {
		if s.opts.Policy.StrictPositions, err = flags.GetBool("strict-positions"); err != nil {
			return s, err
		}
	}

	s.opts.Filter = cfg.Filter
	if flags.Changed("filter-include") {
		if s.opts.Filter.Include, err = flags.GetStringArray("filter-include"); err != nil {
			return s, err
		}
	}
	if flags.Changed("filter-exclude") {
		if s.opts.Filter.Exclude, err = flags.GetStringArray("filter-exclude"); err != nil {
			return s, err
		}
	}
	if flags.Changed("reflective") {
		if s.opts.Filter.Reflective, err = flags.GetBool("reflective"); err != nil {
			return s, err
		}
	}

	if s.timings, err = flags.GetBool("timings"); err != nil {
		return s, err
	}
	s.opts.Timings = s.timings
	if s.diagFormat, err = flags.GetString("diag-format"); err != nil {
		return s, err
	}
	switch s.diagFormat {
	case "short", "json":
	default:
		return s, fmt.Errorf("invalid diag format: %q (expected: short|json)", s.diagFormat)
	}
	if s.opts.MaxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return s, err
	}
	return s, nil
}

func linkExecution(cmd *cobra.Command, args []string) error {
	cleanup, err := setupRuntime(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := readLinkSettings(cmd, args, cfg)
	if err != nil {
		return err
	}
	quiet := quietFlag(cmd)

	var (
		d    *driver.Driver
		code driver.ErrorCode
	)
	if !quiet && shouldUseTUI(s.ui) {
		d, code, err = runLinkWithUI(cmd.Context(), "linking "+s.opts.Output, s.inputs, s.opts)
	} else {
		d = driver.New(s.opts)
		code, err = d.Link(cmd.Context(), s.inputs)
	}

	if s.diagFormat == "json" {
		// stdout carries only the JSON document
		bag := d.Diagnostics()
		bag.Sort()
		if jerr := diag.JSON(cmd.OutOrStdout(), bag.Items(), diag.JSONOpts{IncludeNotes: true}); jerr != nil {
			return jerr
		}
	} else {
		printDiagnostics(cmd.ErrOrStderr(), d.Diagnostics(), quiet)
		if !quiet {
			printLinkStats(cmd.OutOrStdout(), s.opts.Output, code, d.Stats())
			if s.timings {
				printTimings(cmd.OutOrStdout(), d.Stats().Timings)
			}
		}
	}

	switch code {
	case driver.Ok, driver.LoadWarning:
		return err
	default:
		if err == nil {
			err = fmt.Errorf("link failed: %s", code)
		}
		return &exitError{code: 1, err: err}
	}
}

// printDiagnostics prints warnings always and info diagnostics unless quiet.
func printDiagnostics(out io.Writer, bag *diag.Bag, quiet bool) {
	if bag == nil {
		return
	}
	items := bag.Items()
	if quiet {
		items = bag.AtLeast(diag.SevWarning)
	}
	if len(items) > 0 {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = ""
		}
		fmt.Fprintln(out, diag.FormatShort(items, cwd, false))
	}
	if n := bag.Dropped(); n > 0 {
		fmt.Fprintf(out, "%d more diagnostics dropped (raise --max-diagnostics)\n", n)
	}
}
