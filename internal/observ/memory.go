package observ

import "github.com/dustin/go-humanize"

// MemSampler keeps the highest resident memory observed across samples.
type MemSampler struct {
	peak uint64
}

// Sample reads the current peak resident set size of the process, in bytes,
// and folds it into the sampler's peak.
func (m *MemSampler) Sample() uint64 {
	cur := residentPeak()
	if cur > m.peak {
		m.peak = cur
	}
	return cur
}

// Peak returns the highest value seen by Sample.
func (m *MemSampler) Peak() uint64 { return m.peak }

// FormatBytes renders n with a binary unit.
func FormatBytes(n uint64) string { return humanize.IBytes(n) }
