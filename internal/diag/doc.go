// Package diag defines the diagnostics collected while linking.
//
// A link does not stop on a broken input: the driver records a Diagnostic
// for every input it had to skip or could only partially use and moves on.
// Diagnostics are plain data: Severity, a stable numeric Code, a short
// Message, the Location of the input they refer to and optional Notes.
//
// Producers emit through a Reporter (BagReporter collects into a Bag,
// DedupReporter drops repeats); the CLI renders the bag with FormatShort.
// The package does no IO of its own.
package diag
