package asg

// Range is the source extent a node was built from.
type Range struct {
	Path    string `msgpack:"p"`
	Line    uint32 `msgpack:"l,omitempty"`
	Col     uint32 `msgpack:"c,omitempty"`
	EndLine uint32 `msgpack:"el,omitempty"`
	EndCol  uint32 `msgpack:"ec,omitempty"`
}

// Access is the declared accessibility of a member.
type Access uint8

const (
	AccessNone Access = iota
	AccessPublic
	AccessProtected
	AccessPackage
	AccessPrivate
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessProtected:
		return "protected"
	case AccessPackage:
		return "package"
	case AccessPrivate:
		return "private"
	default:
		return ""
	}
}

// Modifiers is the member component.
type Modifiers struct {
	Access    Access `msgpack:"a,omitempty"`
	Static    bool   `msgpack:"s,omitempty"`
	Abstract  bool   `msgpack:"ab,omitempty"`
	Final     bool   `msgpack:"f,omitempty"`
	Synthetic bool   `msgpack:"sy,omitempty"`
	// External marks a declaration known only from a binary or reflective
	// source, not from a linked compilation unit.
	External bool `msgpack:"x,omitempty"`
}

// TypeInfo is the component of type nodes.
type TypeInfo struct {
	Signature string `msgpack:"sig"`
	External  bool   `msgpack:"x,omitempty"`
}

// Node is one vertex of an ASG. Which components are meaningful is decided by
// Kind.Capabilities; Edges is aligned with Schema(Kind).
type Node struct {
	Kind   Kind       `msgpack:"k"`
	Parent NodeID     `msgpack:"up,omitempty"`
	Range  *Range     `msgpack:"r,omitempty"`
	Name   string     `msgpack:"n,omitempty"`
	Mods   *Modifiers `msgpack:"m,omitempty"`
	Text   string     `msgpack:"t,omitempty"`
	Type   *TypeInfo  `msgpack:"ty,omitempty"`
	Edges  [][]NodeID `msgpack:"e,omitempty"`
}

func newNode(kind Kind) Node {
	n := Node{Kind: kind}
	if schema := Schema(kind); len(schema) > 0 {
		n.Edges = make([][]NodeID, len(schema))
	}
	return n
}

// Path returns the file path of the node's range, or "".
func (n *Node) Path() string {
	if n == nil || n.Range == nil {
		return ""
	}
	return n.Range.Path
}

// IsExternal reports the external flag of members and type nodes.
func (n *Node) IsExternal() bool {
	if n == nil {
		return false
	}
	if n.Mods != nil && n.Mods.External {
		return true
	}
	return n.Type != nil && n.Type.External
}

// slot returns the target list of edge e, or nil when the kind has no such edge.
func (n *Node) slot(e EdgeKind) []NodeID {
	if n == nil {
		return nil
	}
	i := SlotOf(n.Kind, e)
	if i < 0 || i >= len(n.Edges) {
		return nil
	}
	return n.Edges[i]
}

// attributeCopiers holds one copy helper per capability; a node kind copies
// every capability it shares with the source.
var attributeCopiers = []struct {
	cap  Capability
	copy func(dst, src *Node)
}{
	{CapPositioned, func(dst, src *Node) {
		if src.Range == nil {
			dst.Range = nil
			return
		}
		r := *src.Range
		dst.Range = &r
	}},
	{CapNamed, func(dst, src *Node) { dst.Name = src.Name }},
	{CapModifiers, func(dst, src *Node) {
		if src.Mods == nil {
			dst.Mods = nil
			return
		}
		m := *src.Mods
		dst.Mods = &m
	}},
	{CapText, func(dst, src *Node) { dst.Text = src.Text }},
	{CapTypeInfo, func(dst, src *Node) {
		if src.Type == nil {
			dst.Type = nil
			return
		}
		t := *src.Type
		dst.Type = &t
	}},
}

// CopyAttributes copies the scalar components dst and src have in common.
// Edges and the parent link are never copied.
func CopyAttributes(dst, src *Node) {
	if dst == nil || src == nil {
		return
	}
	shared := dst.Kind.Capabilities() & src.Kind.Capabilities()
	for _, c := range attributeCopiers {
		if shared&c.cap != 0 {
			c.copy(dst, src)
		}
	}
}
