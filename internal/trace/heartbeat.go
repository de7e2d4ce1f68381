package trace

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// StartHeartbeat emits a heartbeat every interval until the returned stop
// func is called. Each heartbeat names the unfinished spans, so a stuck link
// shows the file and pass it stopped in. Stop is safe to call more than once.
func StartHeartbeat(t Tracer, interval time.Duration) (stop func()) {
	if t == nil || !t.Enabled() || interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for n := 1; ; n++ {
			select {
			case <-ticker.C:
				t.Emit(heartbeatEvent(n, OpenSpans()))
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

func heartbeatEvent(n int, spans []SpanInfo) *Event {
	ev := &Event{
		Time:   time.Now(),
		Seq:    NextSeq(),
		Kind:   KindHeartbeat,
		Scope:  ScopeDriver,
		Name:   "heartbeat",
		Detail: "#" + strconv.Itoa(n),
	}
	if len(spans) == 0 {
		return ev
	}
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name
	}
	ev.Extra = map[string]string{
		"open":    strings.Join(names, " > "),
		"elapsed": spans[len(spans)-1].Elapsed.Round(time.Millisecond).String(),
	}
	return ev
}
