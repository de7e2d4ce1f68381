package testkit

import (
	"fmt"

	"asglink/internal/asg"
)

// CheckGraphInvariants runs the structural checks every linked graph must pass:
// 1) the root is live, if set
// 2) every edge target is live and of an accepted kind
// 3) every containment child points back at its container
// 4) required edges are set
func CheckGraphInvariants(g *asg.Graph) error {
	if g == nil {
		return fmt.Errorf("nil graph")
	}
	if root := g.Root(); root.IsValid() && !g.Exists(root) {
		return fmt.Errorf("root %d is not live", root)
	}
	var firstErr error
	g.Each(func(id asg.NodeID, n *asg.Node) {
		if firstErr != nil {
			return
		}
		firstErr = checkNode(g, id, n)
	})
	return firstErr
}

func checkNode(g *asg.Graph, id asg.NodeID, n *asg.Node) error {
	schema := asg.Schema(n.Kind)
	if len(n.Edges) != len(schema) {
		return fmt.Errorf("node %d (%s): %d edge slots, schema has %d", id, n.Kind, len(n.Edges), len(schema))
	}
	for i, spec := range schema {
		targets := n.Edges[i]
		if spec.Required && len(targets) == 0 {
			return fmt.Errorf("node %d (%s): required edge %s is empty", id, n.Kind, spec.Edge)
		}
		if !spec.Multi && len(targets) > 1 {
			return fmt.Errorf("node %d (%s): single edge %s has %d targets", id, n.Kind, spec.Edge, len(targets))
		}
		for _, t := range targets {
			tk := g.Kind(t)
			if tk == asg.KindInvalid {
				return fmt.Errorf("node %d (%s): edge %s points at dead node %d", id, n.Kind, spec.Edge, t)
			}
			if !spec.Accept.Contains(tk) {
				return fmt.Errorf("node %d (%s): edge %s does not accept %s", id, n.Kind, spec.Edge, tk)
			}
			if spec.Containment {
				child, err := g.Node(t)
				if err != nil {
					return err
				}
				if child.Parent != id {
					return fmt.Errorf("node %d (%s): child %d via %s has parent %d", id, n.Kind, t, spec.Edge, child.Parent)
				}
			}
		}
	}
	return nil
}

// CountKind returns the number of live nodes of kind k.
func CountKind(g *asg.Graph, k asg.Kind) int {
	n := 0
	g.Each(func(_ asg.NodeID, node *asg.Node) {
		if node.Kind == k {
			n++
		}
	})
	return n
}

// FindNamed returns the live nodes of kind k named name, in id order.
func FindNamed(g *asg.Graph, k asg.Kind, name string) []asg.NodeID {
	var out []asg.NodeID
	g.Each(func(id asg.NodeID, node *asg.Node) {
		if node.Kind == k && node.Name == name {
			out = append(out, id)
		}
	})
	return out
}
