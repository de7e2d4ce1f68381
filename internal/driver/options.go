package driver

import (
	"time"

	"asglink/internal/asgfmt"
	"asglink/internal/filter"
	"asglink/internal/fingerprint"
	"asglink/internal/linker"
	"asglink/internal/observ"
)

// ErrorCode is the overall outcome of a link.
type ErrorCode uint8

const (
	Ok ErrorCode = iota
	// LoadWarning: at least one input was skipped, the output was written.
	LoadWarning
	// LoadError: no input could be loaded, nothing was written.
	LoadError
	SaveError
)

func (c ErrorCode) String() string {
	switch c {
	case Ok:
		return "ok"
	case LoadWarning:
		return "load-warning"
	case LoadError:
		return "load-error"
	case SaveError:
		return "save-error"
	default:
		return "unknown"
	}
}

// Options configures a Driver.
type Options struct {
	// Output is the path of the merged graph.
	Output string
	// BasePath names a previously merged graph to link into.
	BasePath string
	// Changeset is written to the changeset header entry when set.
	Changeset string
	Filter    filter.Config
	Policy    fingerprint.Policy
	// DumpPath requests a debug dump of the final graph.
	DumpPath   string
	DumpFormat asgfmt.Format
	// Timings adds a timing report to the diagnostics.
	Timings bool
	// MaxDiagnostics caps the diagnostics bag; 0 selects a default.
	MaxDiagnostics int
	Sink           ProgressSink
	// Now stamps the create-time header; time.Now when nil.
	Now func() time.Time
}

// Stats is what a link did. It is complete after Link returns, whatever the
// outcome.
type Stats struct {
	// Loaded counts inputs merged successfully, Skipped those that failed to load.
	Loaded  int
	Skipped int
	// Files lists merged inputs in link order.
	Files    []string
	PeakRSS  uint64
	Elapsed  time.Duration
	Nodes    int
	Filtered int
	Timings  observ.Report
	Merge    linker.Stats
}
