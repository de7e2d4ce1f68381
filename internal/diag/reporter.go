package diag

// Reporter receives diagnostics from the driver.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter collects into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

type dedupKey struct {
	sev  Severity
	code Code
	loc  Location
	msg  string
}

// DedupReporter forwards each distinct diagnostic once. A file reached both
// as an input and through extra-asg fails the same way twice.
type DedupReporter struct {
	next       Reporter
	seen       map[dedupKey]struct{}
	suppressed int
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[dedupKey]struct{})}
}

func (r *DedupReporter) Report(d Diagnostic) {
	key := dedupKey{d.Severity, d.Code, d.Primary, d.Message}
	if _, ok := r.seen[key]; ok {
		r.suppressed++
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(d)
	}
}

// Suppressed is the number of repeats that were not forwarded.
func (r *DedupReporter) Suppressed() int { return r.suppressed }

func ReportWarning(r Reporter, code Code, primary Location, msg string) {
	if r != nil {
		r.Report(NewWarning(code, primary, msg))
	}
}

func ReportInfo(r Reporter, code Code, primary Location, msg string) {
	if r != nil {
		r.Report(New(SevInfo, code, primary, msg))
	}
}
