package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"asglink/internal/driver"
	"asglink/internal/observ"
)

func printLinkStats(out io.Writer, output string, code driver.ErrorCode, st driver.Stats) {
	var status string
	switch code {
	case driver.Ok:
		status = color.GreenString("linked")
	case driver.LoadWarning:
		status = color.YellowString("linked with warnings")
	default:
		status = color.RedString("failed")
	}
	fmt.Fprintf(out, "%s %d files", status, st.Loaded)
	if st.Skipped > 0 {
		fmt.Fprintf(out, " (%s)", color.YellowString("%d skipped", st.Skipped))
	}
	if code == driver.Ok || code == driver.LoadWarning {
		fmt.Fprintf(out, " -> %s", output)
	}
	fmt.Fprintln(out)

	if st.Nodes > 0 {
		fmt.Fprintf(out, "  nodes     %d", st.Nodes)
		if st.Filtered > 0 {
			fmt.Fprintf(out, " (filtered %d)", st.Filtered)
		}
		fmt.Fprintln(out)
	}
	m := st.Merge
	fmt.Fprintf(out, "  merge     created %d, reused %d, promoted %d, widened %d, discarded %d\n",
		m.Created, m.Reused, m.Promoted, m.Widened, m.Discarded)
	if st.PeakRSS > 0 {
		fmt.Fprintf(out, "  peak RSS  %s\n", observ.FormatBytes(st.PeakRSS))
	}
	fmt.Fprintf(out, "  elapsed   %.1f ms\n", toMillis(st.Elapsed))
}

// printTimings folds repeated phases (one merge per file) into one line.
func printTimings(out io.Writer, report observ.Report) {
	fmt.Fprintln(out, "timings:")
	for _, st := range report.Stages {
		fmt.Fprintf(out, "  %-10s %8.2f ms", st.Name, st.DurationMS)
		if st.Runs > 1 {
			fmt.Fprintf(out, "  (%d runs)", st.Runs)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "  %-10s %8.2f ms\n", "total", report.TotalMS)
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
