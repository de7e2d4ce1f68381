package diag

import "sort"

// Bag collects the diagnostics of one link run up to a limit. Diagnostics
// past the limit are counted, not kept.
type Bag struct {
	items   []Diagnostic
	max     int
	dropped int
}

// NewBag creates a bag keeping at most max diagnostics; 0 keeps none.
func NewBag(max int) *Bag {
	return &Bag{items: make([]Diagnostic, 0, min(max, 64)), max: max}
}

// Add keeps d unless the bag is full and reports whether it was kept.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Len() int { return len(b.items) }

// Dropped is the number of diagnostics refused because the bag was full.
func (b *Bag) Dropped() int { return b.dropped }

// Items returns the bag's own storage; callers must not modify it.
func (b *Bag) Items() []Diagnostic { return b.items }

// Count returns the number of kept diagnostics of severity sev.
func (b *Bag) Count(sev Severity) int {
	n := 0
	for i := range b.items {
		if b.items[i].Severity == sev {
			n++
		}
	}
	return n
}

func (b *Bag) HasErrors() bool { return b.AtLeast(SevError) != nil }

func (b *Bag) HasWarnings() bool { return b.AtLeast(SevWarning) != nil }

// AtLeast returns the diagnostics of severity sev or higher, in order.
func (b *Bag) AtLeast(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if d.Severity >= sev {
			out = append(out, d)
		}
	}
	return out
}

// Sort orders by path, node, severity (highest first) and code.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.Path != dj.Primary.Path {
			return di.Primary.Path < dj.Primary.Path
		}
		if di.Primary.Node != dj.Primary.Node {
			return di.Primary.Node < dj.Primary.Node
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}
