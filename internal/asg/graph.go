package asg

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Ref is an incoming edge recorded by the reverse index.
type Ref struct {
	From NodeID
	Edge EdgeKind
}

// Graph exclusively owns the nodes created in it.
type Graph struct {
	nodes   *Arena[Node]
	root    NodeID
	header  Header
	live    int
	reverse map[NodeID][]Ref
}

// New creates an empty graph. capHint preallocates node slots.
func New(capHint uint) *Graph {
	return &Graph{
		nodes:  NewArena[Node](capHint),
		header: Header{},
	}
}

// NewNode allocates a node of the given kind with empty edge slots.
func (g *Graph) NewNode(kind Kind) NodeID {
	id := NodeID(g.nodes.Allocate(newNode(kind)))
	g.live++
	return id
}

// Node returns the live node stored at id.
func (g *Graph) Node(id NodeID) (*Node, error) {
	n := g.nodes.Get(uint32(id))
	if n == nil || n.Kind == KindInvalid {
		return nil, nodeErr("lookup", id, KindInvalid, EdgeNone, ErrNodeNotExist)
	}
	return n, nil
}

func (g *Graph) get(id NodeID) *Node {
	n := g.nodes.Get(uint32(id))
	if n == nil || n.Kind == KindInvalid {
		return nil
	}
	return n
}

func (g *Graph) Exists(id NodeID) bool { return g.get(id) != nil }

// Kind returns the kind of id, KindInvalid for missing nodes.
func (g *Graph) Kind(id NodeID) Kind {
	if n := g.get(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

func (g *Graph) Handle(id NodeID) Handle { return Handle{g: g, id: id} }

func (g *Graph) Root() NodeID        { return g.root }
func (g *Graph) SetRoot(id NodeID)   { g.root = id }
func (g *Graph) Header() Header      { return g.header }
func (g *Graph) SetHeader(h Header)  { g.header = h.Clone() }
func (g *Graph) SetMeta(k, v string) { g.header[k] = v }

// Len is the number of allocated slots, tombstones included.
func (g *Graph) Len() uint32 { return g.nodes.Len() }

// Live is the number of nodes that were not deleted.
func (g *Graph) Live() int { return g.live }

// Targets returns the target list of edge e. The result must not be modified.
func (g *Graph) Targets(id NodeID, e EdgeKind) []NodeID {
	return g.get(id).slot(e)
}

// Target returns the single target of edge e, or NoNodeID.
func (g *Graph) Target(id NodeID, e EdgeKind) NodeID {
	ts := g.Targets(id, e)
	if len(ts) == 0 {
		return NoNodeID
	}
	return ts[0]
}

func (g *Graph) spec(op string, id NodeID, e EdgeKind) (*Node, int, EdgeSpec, error) {
	n, err := g.Node(id)
	if err != nil {
		return nil, -1, EdgeSpec{}, err
	}
	slot := SlotOf(n.Kind, e)
	if slot < 0 {
		return nil, -1, EdgeSpec{}, nodeErr(op, id, n.Kind, e, ErrCannotCastNode)
	}
	return n, slot, schemas[n.Kind][slot], nil
}

func (g *Graph) checkTarget(op string, id NodeID, spec EdgeSpec, target NodeID) error {
	t := g.get(target)
	if t == nil {
		return nodeErr(op, target, KindInvalid, spec.Edge, ErrNodeNotExist)
	}
	if !spec.Accept.Contains(t.Kind) {
		return nodeErr(op, id, g.Kind(id), spec.Edge,
			fmt.Errorf("%w: %s not accepted", ErrCannotCastNode, t.Kind))
	}
	return nil
}

// SetTarget sets a single edge. NoNodeID clears it.
func (g *Graph) SetTarget(id NodeID, e EdgeKind, target NodeID) error {
	n, slot, spec, err := g.spec("set", id, e)
	if err != nil {
		return err
	}
	if spec.Multi {
		return nodeErr("set", id, n.Kind, e, fmt.Errorf("%w: edge is multi-valued", ErrCannotCastNode))
	}
	if target.IsValid() {
		if err := g.checkTarget("set", id, spec, target); err != nil {
			return err
		}
	}
	for _, old := range n.Edges[slot] {
		g.unlink(id, e, spec, old)
	}
	if target.IsValid() {
		n.Edges[slot] = []NodeID{target}
		g.link(id, e, spec, target)
	} else {
		n.Edges[slot] = nil
	}
	return nil
}

// AppendTarget appends to a multi edge.
func (g *Graph) AppendTarget(id NodeID, e EdgeKind, target NodeID) error {
	n, slot, spec, err := g.spec("append", id, e)
	if err != nil {
		return err
	}
	if !spec.Multi {
		return nodeErr("append", id, n.Kind, e, fmt.Errorf("%w: edge is single-valued", ErrCannotCastNode))
	}
	if err := g.checkTarget("append", id, spec, target); err != nil {
		return err
	}
	n.Edges[slot] = append(n.Edges[slot], target)
	g.link(id, e, spec, target)
	return nil
}

// SetTargets replaces the whole list of a multi edge.
func (g *Graph) SetTargets(id NodeID, e EdgeKind, targets []NodeID) error {
	n, slot, spec, err := g.spec("replace", id, e)
	if err != nil {
		return err
	}
	if !spec.Multi {
		return nodeErr("replace", id, n.Kind, e, fmt.Errorf("%w: edge is single-valued", ErrCannotCastNode))
	}
	for _, t := range targets {
		if err := g.checkTarget("replace", id, spec, t); err != nil {
			return err
		}
	}
	for _, old := range n.Edges[slot] {
		g.unlink(id, e, spec, old)
	}
	n.Edges[slot] = slices.Clone(targets)
	for _, t := range targets {
		g.link(id, e, spec, t)
	}
	return nil
}

func (g *Graph) link(from NodeID, e EdgeKind, spec EdgeSpec, to NodeID) {
	if spec.Containment {
		if t := g.get(to); t != nil {
			t.Parent = from
		}
	}
	if g.reverse != nil {
		g.reverse[to] = append(g.reverse[to], Ref{From: from, Edge: e})
	}
}

func (g *Graph) unlink(from NodeID, e EdgeKind, spec EdgeSpec, to NodeID) {
	if spec.Containment {
		if t := g.get(to); t != nil && t.Parent == from {
			t.Parent = NoNodeID
		}
	}
	if g.reverse == nil {
		return
	}
	refs := g.reverse[to]
	if i := slices.Index(refs, Ref{From: from, Edge: e}); i >= 0 {
		refs = slices.Delete(refs, i, i+1)
	}
	if len(refs) == 0 {
		delete(g.reverse, to)
	} else {
		g.reverse[to] = refs
	}
}

// Widen promotes id in place to a wider kind; the id is preserved.
func (g *Graph) Widen(id NodeID, to Kind) error {
	n, err := g.Node(id)
	if err != nil {
		return err
	}
	if n.Kind == to {
		return nil
	}
	if !n.Kind.WidensTo(to) {
		return nodeErr("widen", id, n.Kind, EdgeNone, fmt.Errorf("%w: %s to %s", ErrCannotCastNode, n.Kind, to))
	}
	n.Kind = to
	for len(n.Edges) < len(schemas[to]) {
		n.Edges = append(n.Edges, nil)
	}
	return nil
}

// EnableReverseEdges builds the reverse index; it is kept up to date afterwards.
// Deleting nodes without it leaves dangling references until Compact.
func (g *Graph) EnableReverseEdges() {
	if g.reverse != nil {
		return
	}
	g.reverse = make(map[NodeID][]Ref)
	g.Each(func(id NodeID, n *Node) {
		for i, spec := range schemas[n.Kind] {
			if i >= len(n.Edges) {
				break
			}
			for _, t := range n.Edges[i] {
				g.reverse[t] = append(g.reverse[t], Ref{From: id, Edge: spec.Edge})
			}
		}
	})
}

func (g *Graph) HasReverseEdges() bool { return g.reverse != nil }

// Referrers returns the incoming edges of id. Requires EnableReverseEdges.
func (g *Graph) Referrers(id NodeID) []Ref {
	return g.reverse[id]
}

// Delete turns id into a tombstone and drops its outgoing edges. With the
// reverse index enabled, incoming references are removed as well.
func (g *Graph) Delete(id NodeID) {
	n := g.get(id)
	if n == nil {
		return
	}
	for i, spec := range schemas[n.Kind] {
		if i >= len(n.Edges) {
			break
		}
		for _, t := range n.Edges[i] {
			g.unlink(id, spec.Edge, spec, t)
		}
	}
	if g.reverse != nil {
		for _, ref := range slices.Clone(g.reverse[id]) {
			from := g.get(ref.From)
			if from == nil {
				continue
			}
			slot := SlotOf(from.Kind, ref.Edge)
			if slot >= 0 {
				from.Edges[slot] = slices.DeleteFunc(from.Edges[slot], func(t NodeID) bool { return t == id })
			}
		}
		delete(g.reverse, id)
	}
	*n = Node{}
	g.live--
}

// DeleteSubtree deletes id and its containment descendants. Nodes for which
// keep returns true survive with their parent link cleared, together with
// their own descendants. It returns the deleted ids.
func (g *Graph) DeleteSubtree(id NodeID, keep func(Handle) bool) []NodeID {
	var order []NodeID
	seen := make(map[NodeID]struct{})
	var visit func(NodeID)
	visit = func(cur NodeID) {
		n := g.get(cur)
		if n == nil {
			return
		}
		if _, ok := seen[cur]; ok {
			return
		}
		seen[cur] = struct{}{}
		if cur != id && keep != nil && keep(g.Handle(cur)) {
			n.Parent = NoNodeID
			return
		}
		order = append(order, cur)
		for i, spec := range schemas[n.Kind] {
			if !spec.Containment || i >= len(n.Edges) {
				continue
			}
			for _, t := range n.Edges[i] {
				visit(t)
			}
		}
	}
	visit(id)
	for i := len(order) - 1; i >= 0; i-- {
		g.Delete(order[i])
	}
	return order
}

// Each calls fn for every live node in id order.
func (g *Graph) Each(fn func(NodeID, *Node)) {
	data := g.nodes.Slice()
	for i := range data {
		if data[i].Kind == KindInvalid {
			continue
		}
		fn(NodeID(i+1), &data[i])
	}
}

// Walk visits the containment tree from the root in pre-order, containers
// before members, following schema order. Returning false from fn skips the
// node's children.
func (g *Graph) Walk(fn func(Handle) bool) {
	seen := make(map[NodeID]struct{}, g.live)
	g.walkFrom(g.root, seen, fn)
}

func (g *Graph) walkFrom(id NodeID, seen map[NodeID]struct{}, fn func(Handle) bool) {
	n := g.get(id)
	if n == nil {
		return
	}
	if _, ok := seen[id]; ok {
		return
	}
	seen[id] = struct{}{}
	if !fn(g.Handle(id)) {
		return
	}
	for i, spec := range schemas[n.Kind] {
		if !spec.Containment || i >= len(n.Edges) {
			continue
		}
		for _, t := range n.Edges[i] {
			g.walkFrom(t, seen, fn)
		}
	}
}

// Compact drops tombstones and renumbers nodes: containment pre-order from
// the root first, then the remaining live nodes in id order. References to
// deleted nodes are removed. The returned table maps old ids to new ones.
func (g *Graph) Compact() map[NodeID]NodeID {
	order := make([]NodeID, 0, g.live)
	placed := make(map[NodeID]NodeID, g.live)
	g.Walk(func(h Handle) bool {
		order = append(order, h.id)
		placed[h.id] = NodeID(len(order))
		return true
	})
	g.Each(func(id NodeID, _ *Node) {
		if _, ok := placed[id]; ok {
			return
		}
		order = append(order, id)
		placed[id] = NodeID(len(order))
	})

	capHint, err := safecast.Conv[uint](len(order))
	if err != nil {
		capHint = 0
	}
	nodes := NewArena[Node](capHint)
	for _, old := range order {
		n := *g.get(old)
		n.Parent = placed[n.Parent]
		edges := make([][]NodeID, len(n.Edges))
		for i, ts := range n.Edges {
			for _, t := range ts {
				if nt, ok := placed[t]; ok {
					edges[i] = append(edges[i], nt)
				}
			}
		}
		n.Edges = edges
		nodes.Allocate(n)
	}
	g.nodes = nodes
	g.root = placed[g.root]
	g.live = len(order)
	if g.reverse != nil {
		g.reverse = nil
		g.EnableReverseEdges()
	}
	return placed
}
