package diag

import "strconv"

// Location points at the input a diagnostic is about. Node is the id of the
// node inside that input, 0 when the whole file is meant.
type Location struct {
	Path string
	Node uint32
}

func (l Location) String() string {
	if l.Node == 0 {
		return l.Path
	}
	return l.Path + "#" + strconv.FormatUint(uint64(l.Node), 10)
}

type Note struct {
	Loc Location
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}

func New(sev Severity, code Code, primary Location, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewWarning(code Code, primary Location, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

func (d Diagnostic) WithNote(loc Location, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Loc: loc, Msg: msg})
	return d
}
