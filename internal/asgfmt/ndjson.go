package asgfmt

import (
	"bufio"
	"encoding/json"

	"asglink/internal/asg"
)

// NodeJSON is one line of the NDJSON dump.
type NodeJSON struct {
	ID        asg.NodeID              `json:"id"`
	Kind      string                  `json:"kind"`
	Parent    asg.NodeID              `json:"parent,omitempty"`
	Name      string                  `json:"name,omitempty"`
	Path      string                  `json:"path,omitempty"`
	Line      uint32                  `json:"line,omitempty"`
	Col       uint32                  `json:"col,omitempty"`
	Text      string                  `json:"text,omitempty"`
	Signature string                  `json:"signature,omitempty"`
	External  bool                    `json:"external,omitempty"`
	Root      bool                    `json:"root,omitempty"`
	Edges     map[string][]asg.NodeID `json:"edges,omitempty"`
}

func nodeJSON(g *asg.Graph, id asg.NodeID, n *asg.Node) NodeJSON {
	out := NodeJSON{
		ID:       id,
		Kind:     n.Kind.String(),
		Parent:   n.Parent,
		Name:     n.Name,
		Text:     n.Text,
		External: n.IsExternal(),
		Root:     id == g.Root(),
	}
	if n.Range != nil {
		out.Path, out.Line, out.Col = n.Range.Path, n.Range.Line, n.Range.Col
	}
	if n.Type != nil {
		out.Signature = n.Type.Signature
	}
	for i, spec := range asg.Schema(n.Kind) {
		if i >= len(n.Edges) || len(n.Edges[i]) == 0 {
			continue
		}
		if out.Edges == nil {
			out.Edges = make(map[string][]asg.NodeID)
		}
		out.Edges[spec.Edge.String()] = n.Edges[i]
	}
	return out
}

// dumpNDJSON writes every live node in id order.
func dumpNDJSON(w *bufio.Writer, g *asg.Graph) error {
	enc := json.NewEncoder(w)
	var err error
	g.Each(func(id asg.NodeID, n *asg.Node) {
		if err != nil {
			return
		}
		err = enc.Encode(nodeJSON(g, id, n))
	})
	return err
}
