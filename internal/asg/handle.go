package asg

// Handle pairs a NodeID with the graph that owns it. Node content is only
// ever read through a handle so an id cannot be resolved against the wrong
// graph.
type Handle struct {
	g  *Graph
	id NodeID
}

func (h Handle) Graph() *Graph { return h.g }
func (h Handle) ID() NodeID    { return h.id }

// Valid reports whether the handle addresses a live node.
func (h Handle) Valid() bool { return h.g != nil && h.g.Exists(h.id) }

// Node returns the node, or nil for invalid handles.
func (h Handle) Node() *Node {
	if h.g == nil {
		return nil
	}
	return h.g.get(h.id)
}

func (h Handle) Kind() Kind {
	if n := h.Node(); n != nil {
		return n.Kind
	}
	return KindInvalid
}

func (h Handle) Name() string {
	if n := h.Node(); n != nil {
		return n.Name
	}
	return ""
}

func (h Handle) Parent() Handle {
	if n := h.Node(); n != nil {
		return Handle{g: h.g, id: n.Parent}
	}
	return Handle{g: h.g}
}

func (h Handle) Target(e EdgeKind) Handle {
	if h.g == nil {
		return Handle{}
	}
	return Handle{g: h.g, id: h.g.Target(h.id, e)}
}

func (h Handle) Targets(e EdgeKind) []Handle {
	if h.g == nil {
		return nil
	}
	ids := h.g.Targets(h.id, e)
	out := make([]Handle, len(ids))
	for i, id := range ids {
		out[i] = Handle{g: h.g, id: id}
	}
	return out
}

// Children returns the containment children in schema order.
func (h Handle) Children() []Handle {
	n := h.Node()
	if n == nil {
		return nil
	}
	var out []Handle
	for i, spec := range schemas[n.Kind] {
		if !spec.Containment || i >= len(n.Edges) {
			continue
		}
		for _, id := range n.Edges[i] {
			out = append(out, Handle{g: h.g, id: id})
		}
	}
	return out
}
