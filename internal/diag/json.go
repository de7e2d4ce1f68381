package diag

import (
	"encoding/json"
	"io"
)

// LocationJSON is a location in JSON output; node is omitted for whole files.
type LocationJSON struct {
	File string `json:"file"`
	Node uint32 `json:"node,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root object of JSON output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// JSONOpts configures JSON output.
type JSONOpts struct {
	Max          int // truncates the output, not the Bag
	IncludeNotes bool
}

func makeLocation(loc Location) LocationJSON {
	return LocationJSON{File: loc.Path, Node: loc.Node}
}

// BuildDiagnosticsOutput assembles the JSON structure without encoding it.
// Timing diagnostics always carry their notes since the payload lives there.
func BuildDiagnosticsOutput(diags []Diagnostic, opts JSONOpts) DiagnosticsOutput {
	n := len(diags)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	out := make([]DiagnosticJSON, 0, n)
	for _, d := range diags[:n] {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: makeLocation(d.Primary),
		}
		if (opts.IncludeNotes || d.Code == ObsTimings) && len(d.Notes) > 0 {
			dj.Notes = make([]NoteJSON, len(d.Notes))
			for i, note := range d.Notes {
				dj.Notes[i] = NoteJSON{Message: note.Msg, Location: makeLocation(note.Loc)}
			}
		}
		out = append(out, dj)
	}
	return DiagnosticsOutput{Diagnostics: out, Count: len(out)}
}

// JSON writes diagnostics as one indented JSON document.
func JSON(w io.Writer, diags []Diagnostic, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(diags, opts))
}
