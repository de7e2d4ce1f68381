package identity

import (
	"fmt"

	"asglink/internal/asg"
)

// Seed registers every node of an already merged graph, so linking into an
// existing output reuses its nodes instead of duplicating them. Containment
// order comes first so "first registration" is the same as in the run that
// produced the graph. It returns the number of nodes visited.
func Seed(x *Index, g *asg.Graph) (int, error) {
	if g == nil {
		return 0, nil
	}
	visited := make(map[asg.NodeID]struct{}, g.Live())
	var firstErr error
	register := func(h asg.Handle) {
		if firstErr != nil {
			return
		}
		visited[h.ID()] = struct{}{}
		if err := x.Register(h, h.ID(), nil); err != nil {
			firstErr = fmt.Errorf("seed identity index: %w", err)
		}
	}
	g.Walk(func(h asg.Handle) bool {
		register(h)
		return firstErr == nil
	})
	g.Each(func(id asg.NodeID, _ *asg.Node) {
		if _, ok := visited[id]; ok {
			return
		}
		register(g.Handle(id))
	})
	return len(visited), firstErr
}
