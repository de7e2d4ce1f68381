package trace

import "time"

type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint     // driver state changes, queued dependencies
	KindHeartbeat // liveness, names the unfinished spans
)

var kindNames = [...]string{KindSpanBegin: "begin", KindSpanEnd: "end", KindPoint: "point", KindHeartbeat: "heartbeat"}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	// ScopeDriver covers a whole link run.
	ScopeDriver Scope = iota + 1
	// ScopeFile covers loading and linking one input graph.
	ScopeFile
	// ScopePass covers the merge, bind and finalize passes.
	ScopePass
	ScopeNode
)

var scopeNames = [...]string{ScopeDriver: "driver", ScopeFile: "file", ScopePass: "pass", ScopeNode: "node"}

func (s Scope) String() string {
	if s > 0 && int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is one trace record. Begin and end events of a span share SpanID.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64 // 0 for points and heartbeats
	ParentID uint64
	Name     string // "link", a file path, "merge", a driver state
	Detail   string
	Extra    map[string]string
}
