package trace

import (
	"io"
	"sync"
)

// StreamTracer writes each accepted event to w as it arrives. Write errors
// are dropped: tracing never fails a link.
type StreamTracer struct {
	gate
	mu     sync.Mutex
	w      io.Writer
	format Format
	wrote  bool
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	t := &StreamTracer{gate: gate{level}, w: w, format: format}
	if format == FormatChrome {
		_, _ = io.WriteString(w, "{\"traceEvents\":[\n")
	}
	return t
}

func (t *StreamTracer) Emit(ev *Event) {
	if t.accepts(ev) {
		t.write(ev)
	}
}

func (t *StreamTracer) write(ev *Event) {
	data := FormatEvent(ev, t.format)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.format == FormatChrome && t.wrote {
		_, _ = io.WriteString(t.w, ",\n")
	}
	t.wrote = true
	_, _ = t.w.Write(data)
}

func (t *StreamTracer) Flush() error {
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close terminates the chrome event array and closes w when it is a Closer.
func (t *StreamTracer) Close() error {
	t.mu.Lock()
	if t.format == FormatChrome {
		_, _ = io.WriteString(t.w, "\n]}\n")
	}
	t.mu.Unlock()
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
