package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelPhase, ScopeDriver, true},
		{LevelPhase, ScopeFile, false},
		{LevelDetail, ScopeFile, true},
		{LevelDetail, ScopePass, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "text": FormatText, "NDJSON": FormatNDJSON, "chrome": FormatChrome} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestRingTracerWrapsAround(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(r, ScopeFile, name, 0, "")
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot has %d events, want 3", len(snap))
	}
	var names []string
	for _, ev := range snap {
		names = append(names, ev.Name)
	}
	if strings.Join(names, "") != "bcd" {
		t.Fatalf("events out of order: %v", names)
	}
}

func TestSpanThroughContext(t *testing.T) {
	r := NewRingTracer(16, LevelDetail)
	ctx := WithTracer(context.Background(), r)

	ctx, outer := Start(ctx, ScopeDriver, "link")
	if ParentSpan(ctx) != outer.ID() {
		t.Fatal("Start must make the span the parent")
	}
	mctx, inner := Start(ctx, ScopePass, "merge")
	inner.Count("visited", 12).End("")
	_, ignored := Start(mctx, ScopeNode, "ignored")
	if ignored.ID() != 0 {
		t.Fatal("filtered scopes yield inert spans")
	}
	ignored.End("")
	outer.End("done")
	if outer.End("again") != 0 {
		t.Fatal("a span ends once")
	}

	snap := r.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 events at detail level, got %d", len(snap))
	}
	end := snap[2]
	if end.Kind != KindSpanEnd || end.Name != "merge" || end.ParentID != outer.ID() {
		t.Fatalf("unexpected inner end event: %+v", end)
	}
	if end.Extra["visited"] != "12" {
		t.Fatalf("extra lost: %v", end.Extra)
	}

	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	text := buf.String()
	if !strings.Contains(text, "← merge {visited=12}") || !strings.Contains(text, "← link (done)") {
		t.Fatalf("text dump:\n%s", text)
	}
}

func TestNDJSONIsValidJSON(t *testing.T) {
	ev := &Event{Seq: 7, Kind: KindPoint, Scope: ScopeFile, Name: "extra-asg", Detail: "B.asg"}
	var decoded map[string]any
	if err := json.Unmarshal(FormatEvent(ev, FormatNDJSON), &decoded); err != nil {
		t.Fatalf("ndjson: %v", err)
	}
	if decoded["name"] != "extra-asg" || decoded["scope"] != "file" {
		t.Fatalf("decoded: %v", decoded)
	}
}

func TestNopTracerIsDefault(t *testing.T) {
	if FromContext(context.Background()).Enabled() {
		t.Fatal("context without tracer should yield the nop tracer")
	}
	span := Begin(Nop, ScopeDriver, "link", 0)
	if span.End("") != 0 {
		t.Fatal("nop span should not measure")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"off": LevelOff, "Phase": LevelPhase, "DEBUG": LevelDebug} {
		if got, err := ParseLevel(in); err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestDetectFormat(t *testing.T) {
	for path, want := range map[string]Format{"": FormatText, "-": FormatText, "t.ndjson": FormatNDJSON, "t.chrome.json": FormatChrome} {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestOpenSpansAndHeartbeat(t *testing.T) {
	r := NewRingTracer(16, LevelDetail)
	link := Begin(r, ScopeDriver, "link", 0)
	file := Begin(r, ScopeFile, "b.asg", link.ID())

	var names []string
	for _, s := range OpenSpans() {
		if s.ID == link.ID() || s.ID == file.ID() {
			names = append(names, s.Name)
		}
	}
	if strings.Join(names, ",") != "link,b.asg" {
		t.Fatalf("open spans: %v", names)
	}

	ev := heartbeatEvent(3, []SpanInfo{{Name: "link"}, {Name: "b.asg", Elapsed: 1500 * time.Millisecond}})
	if ev.Detail != "#3" || ev.Extra["open"] != "link > b.asg" || ev.Extra["elapsed"] != "1.5s" {
		t.Fatalf("heartbeat: %+v", ev)
	}

	file.End("")
	link.End("")
	for _, s := range OpenSpans() {
		if s.ID == link.ID() || s.ID == file.ID() {
			t.Fatalf("span %q still open", s.Name)
		}
	}
	StartHeartbeat(Nop, time.Second)()
}

func TestRingModeWritesOnClose(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDetail, Mode: ModeRing, RingSize: 2, Output: &buf, Format: FormatNDJSON})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a", "b", "c"} {
		Point(tr, ScopeFile, name, 0, "")
	}
	if buf.Len() != 0 {
		t.Fatal("ring mode writes nothing before Close")
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"name":"b"`) || !strings.Contains(lines[1], `"name":"c"`) {
		t.Fatalf("ring output:\n%s", buf.String())
	}
}

func TestChromeStreamIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatChrome)
	span := Begin(tr, ScopeDriver, "link", 0)
	Point(tr, ScopeFile, "extra-asg", span.ID(), "B.asg")
	span.End("")
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("chrome output: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 3 || doc.TraceEvents[0]["ph"] != "B" || doc.TraceEvents[2]["ph"] != "E" {
		t.Fatalf("events: %v", doc.TraceEvents)
	}
}

func TestNewOffReturnsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("New(off) = %v, %v", tr, err)
	}
	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeStream, Output: &buf, Format: FormatText})
	if err != nil {
		t.Fatal(err)
	}
	Begin(tr, ScopeDriver, "link", 0).End("")
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "→ link") {
		t.Fatalf("stream output: %q", buf.String())
	}
}
