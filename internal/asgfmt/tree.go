package asgfmt

import (
	"bufio"
	"fmt"
	"strings"

	"asglink/internal/asg"
)

type treeWriter struct {
	w    *bufio.Writer
	g    *asg.Graph
	opts Options
	seen map[asg.NodeID]struct{}
	err  error
}

func (t *treeWriter) line(prefix, text string) {
	if t.err != nil {
		return
	}
	_, t.err = t.w.WriteString(truncate(prefix+text, t.opts.Width) + "\n")
}

// dumpTree prints the containment tree from the root, then every node the
// tree does not reach under a "detached" header.
func dumpTree(w *bufio.Writer, g *asg.Graph, opts Options) error {
	t := &treeWriter{w: w, g: g, opts: opts, seen: make(map[asg.NodeID]struct{}, g.Live())}
	if root := g.Root(); g.Exists(root) {
		t.node(g.Handle(root), "", "")
	}
	var detached []asg.NodeID
	g.Each(func(id asg.NodeID, _ *asg.Node) {
		if _, ok := t.seen[id]; !ok {
			detached = append(detached, id)
		}
	})
	if len(detached) > 0 {
		t.line("", fmt.Sprintf("detached (%d)", len(detached)))
		for i, id := range detached {
			if _, ok := t.seen[id]; ok {
				continue
			}
			branch, indent := "├─ ", "│  "
			if i == len(detached)-1 {
				branch, indent = "└─ ", "   "
			}
			t.node(g.Handle(id), branch, indent)
		}
	}
	return t.err
}

type child struct {
	edge asg.EdgeKind
	h    asg.Handle
}

func (t *treeWriter) node(h asg.Handle, branch, indent string) {
	t.seen[h.ID()] = struct{}{}
	t.line(branch, Label(h))

	n := h.Node()
	var children []child
	var refs []string
	for i, spec := range asg.Schema(n.Kind) {
		if i >= len(n.Edges) || len(n.Edges[i]) == 0 {
			continue
		}
		if !spec.Containment {
			if t.opts.Refs {
				refs = append(refs, fmt.Sprintf("%s → %s", spec.Edge, idList(n.Edges[i])))
			}
			continue
		}
		for _, id := range n.Edges[i] {
			children = append(children, child{edge: spec.Edge, h: t.g.Handle(id)})
		}
	}

	total := len(refs) + len(children)
	k := 0
	next := func() (string, string) {
		k++
		if k == total {
			return indent + "└─ ", indent + "   "
		}
		return indent + "├─ ", indent + "│  "
	}
	for _, ref := range refs {
		b, _ := next()
		t.line(b, ref)
	}
	for _, c := range children {
		b, in := next()
		if _, ok := t.seen[c.h.ID()]; ok {
			t.line(b, fmt.Sprintf("%s: #%d (shared)", c.edge, c.h.ID()))
			continue
		}
		t.node(c.h, b+c.edge.String()+": ", in)
	}
}

func idList(ids []asg.NodeID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, ", ")
}
