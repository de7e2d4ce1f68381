package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the last events of a run in memory. Built by New in ring
// mode it writes them to the configured output on Close, so a long link
// leaves only its tail behind.
type RingTracer struct {
	gate
	mu     sync.RWMutex
	events []Event
	head   int
	full   bool

	out    io.Writer
	format Format
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{gate: gate{level}, events: make([]Event, capacity)}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.accepts(ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[t.head] = *ev
	t.head = (t.head + 1) % len(t.events)
	if t.head == 0 {
		t.full = true
	}
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.full {
		return append([]Event(nil), t.events[:t.head]...)
	}
	out := make([]Event, 0, len(t.events))
	out = append(out, t.events[t.head:]...)
	return append(out, t.events[:t.head]...)
}

// Dump writes the stored events to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	s := &StreamTracer{gate: t.gate, w: w, format: format}
	if format == FormatChrome {
		if _, err := io.WriteString(w, "{\"traceEvents\":[\n"); err != nil {
			return err
		}
	}
	for _, ev := range t.Snapshot() {
		s.write(&ev)
	}
	if format == FormatChrome {
		_, err := io.WriteString(w, "\n]}\n")
		return err
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }

// Close dumps the ring to the output given by New, if any.
func (t *RingTracer) Close() error {
	if t.out == nil {
		return nil
	}
	out := t.out
	t.out = nil
	err := t.Dump(out, t.format)
	if c, ok := out.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
