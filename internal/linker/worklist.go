package linker

import "asglink/internal/asg"

// Entry is the deferred edge set of one visited node. Raw holds the source
// ids of every edge of Kind's schema, in schema order, each edge's list
// closed by a NoNodeID sentinel.
type Entry struct {
	Merged asg.NodeID
	Source asg.NodeID
	Kind   asg.Kind
	Raw    []asg.NodeID
}

// Worklist carries deferred edges from the merge pass to the bind pass.
type Worklist struct {
	entries []Entry
	done    int
}

func (w *Worklist) Push(e Entry) { w.entries = append(w.entries, e) }

func (w *Worklist) Len() int { return len(w.entries) }

// Drain calls fn for every entry in push order and stops at the first error.
func (w *Worklist) Drain(fn func(Entry) error) error {
	for w.done < len(w.entries) {
		e := w.entries[w.done]
		w.done++
		if err := fn(e); err != nil {
			return err
		}
	}
	w.entries = w.entries[:0]
	w.done = 0
	return nil
}

// collectRaw flattens the edges of n into the sentinel-separated layout.
func collectRaw(n *asg.Node) []asg.NodeID {
	size := 0
	for _, ts := range n.Edges {
		size += len(ts) + 1
	}
	raw := make([]asg.NodeID, 0, size)
	for i := range asg.Schema(n.Kind) {
		if i < len(n.Edges) {
			raw = append(raw, n.Edges[i]...)
		}
		raw = append(raw, asg.NoNodeID)
	}
	return raw
}

// splitRaw walks the layout written by collectRaw and calls fn per edge with
// a non-empty target list.
func splitRaw(kind asg.Kind, raw []asg.NodeID, fn func(spec asg.EdgeSpec, targets []asg.NodeID) error) error {
	pos := 0
	for _, spec := range asg.Schema(kind) {
		start := pos
		for pos < len(raw) && raw[pos].IsValid() {
			pos++
		}
		targets := raw[start:pos]
		pos++
		if len(targets) == 0 {
			continue
		}
		if err := fn(spec, targets); err != nil {
			return err
		}
	}
	return nil
}
