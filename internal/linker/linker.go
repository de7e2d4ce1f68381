// Package linker merges source ASGs into one merged graph.
//
// Merging one source graph is a run of two passes. The merge pass visits every
// source node, finds or creates its merged counterpart and records the raw
// source ids of all its edges in a worklist. The bind pass then translates
// those ids into merged ids and attaches the edges. Binding only starts after
// every node of the file has a merged counterpart, which is what makes
// forward references and reference cycles (overrides, self-referencing types)
// resolvable.
package linker

import (
	"context"
	"fmt"

	"asglink/internal/asg"
	"asglink/internal/identity"
	"asglink/internal/trace"
)

// Linker owns the merged graph and its identity index for a whole link.
type Linker struct {
	merged *asg.Graph
	index  *identity.Index
}

// New enables the reverse index of merged: nodes discarded by arbitration
// must not stay referenced.
func New(merged *asg.Graph, index *identity.Index) *Linker {
	merged.EnableReverseEdges()
	return &Linker{merged: merged, index: index}
}

func (l *Linker) Merged() *asg.Graph     { return l.merged }
func (l *Linker) Index() *identity.Index { return l.index }

// Stats counts what one run did to the merged graph.
type Stats struct {
	Visited   int
	Created   int
	Reused    int
	Promoted  int
	Widened   int
	Bound     int
	Discarded int
}

func (s *Stats) Add(o Stats) {
	s.Visited += o.Visited
	s.Created += o.Created
	s.Reused += o.Reused
	s.Promoted += o.Promoted
	s.Widened += o.Widened
	s.Bound += o.Bound
	s.Discarded += o.Discarded
}

// run is the context of merging one source graph. Nothing in it outlives
// the call to Merge.
type run struct {
	merged   *asg.Graph
	source   *asg.Graph
	index    *identity.Index
	cache    map[asg.NodeID]asg.NodeID
	work     Worklist
	visited  map[asg.NodeID]struct{}
	inFlight map[string]int
	stats    Stats
}

// Merge links one source graph into the merged graph: the merge pass, then
// the bind pass. The source graph is not modified and can be dropped
// afterwards. A returned error leaves the merged graph partially updated.
func (l *Linker) Merge(ctx context.Context, source *asg.Graph) (Stats, error) {
	if source == nil {
		return Stats{}, fmt.Errorf("merge: nil source graph")
	}
	r := &run{
		merged:   l.merged,
		source:   source,
		index:    l.index,
		cache:    make(map[asg.NodeID]asg.NodeID, source.Live()),
		visited:  make(map[asg.NodeID]struct{}, source.Live()),
		inFlight: make(map[string]int),
	}
	_, span := trace.Start(ctx, trace.ScopePass, "merge")
	err := r.merge()
	span.Count("visited", r.stats.Visited).
		Count("created", r.stats.Created).
		End(errDetail(err))
	if err != nil {
		return r.stats, err
	}

	_, span = trace.Start(ctx, trace.ScopePass, "bind")
	err = r.bind()
	span.Count("entries", r.work.Len()).
		Count("discarded", r.stats.Discarded).
		End(errDetail(err))
	return r.stats, err
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
