package trace

import (
	"cmp"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	seq     atomic.Uint64
	spanIDs atomic.Uint64
	open    sync.Map // span id -> *Span
)

// NextSeq returns the next event sequence number.
func NextSeq() uint64 { return seq.Add(1) }

// Span is one timed operation. Spans of a disabled tracer or a filtered
// scope are inert: every method is a no-op and ID is 0.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

// Begin starts a span below parent (0 for a root span).
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{tracer: Nop}
	}
	s := &Span{
		tracer:  t,
		id:      spanIDs.Add(1),
		parent:  parent,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	open.Store(s.id, s)
	t.Emit(s.event(KindSpanBegin, s.started, ""))
	return s
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	return &Event{
		Time:     at,
		Seq:      NextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
	}
}

// End emits the end event with the collected extras and returns the span
// duration. Only the first call emits.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.id == 0 {
		return 0
	}
	if _, ok := open.LoadAndDelete(s.id); !ok {
		return 0
	}
	now := time.Now()
	ev := s.event(KindSpanEnd, now, detail)
	ev.Extra = s.extra
	s.tracer.Emit(ev)
	return now.Sub(s.started)
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.id == 0 {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// Count attaches a counter to the end event.
func (s *Span) Count(key string, n int) *Span {
	if s == nil || s.id == 0 {
		return s
	}
	return s.WithExtra(key, strconv.Itoa(n))
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event below parent.
func Point(t Tracer, scope Scope, name string, parent uint64, detail string) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		Name:     name,
		Detail:   detail,
	})
}

// SpanInfo describes a span that has begun and not ended.
type SpanInfo struct {
	ID      uint64
	Parent  uint64
	Scope   Scope
	Name    string
	Elapsed time.Duration
}

// OpenSpans lists the unfinished spans of the process, outermost first.
func OpenSpans() []SpanInfo {
	now := time.Now()
	var out []SpanInfo
	open.Range(func(_, v any) bool {
		s := v.(*Span)
		out = append(out, SpanInfo{
			ID:      s.id,
			Parent:  s.parent,
			Scope:   s.scope,
			Name:    s.name,
			Elapsed: now.Sub(s.started),
		})
		return true
	})
	slices.SortFunc(out, func(a, b SpanInfo) int {
		if c := cmp.Compare(a.Scope, b.Scope); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
