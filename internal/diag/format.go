package diag

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Loc      string
	Message  string
}

// FormatShort renders diagnostics one per line, sorted by location:
//
//	warning LNK1001 in/a.asg bad magic
//
// Paths are shown relative to baseDir when possible.
func FormatShort(diags []Diagnostic, baseDir string, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	rendered := make([]shortDiagnostic, 0, len(diags))
	for _, d := range diags {
		rendered = append(rendered, shortDiagnostic{
			Severity: d.Severity.Label(),
			Code:     d.Code.ID(),
			Loc:      relative(d.Primary, baseDir),
			Message:  sanitizeMessage(d.Message),
		})
		if !includeNotes {
			continue
		}
		for _, note := range d.Notes {
			rendered = append(rendered, shortDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Loc:      relative(note.Loc, baseDir),
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		return rendered[i].Loc < rendered[j].Loc
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s %s", d.Severity, d.Code, d.Loc, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func relative(loc Location, baseDir string) string {
	if baseDir != "" && loc.Path != "" {
		if rel, err := filepath.Rel(baseDir, loc.Path); err == nil && !strings.HasPrefix(rel, "..") {
			loc.Path = rel
		}
	}
	loc.Path = filepath.ToSlash(loc.Path)
	return loc.String()
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
