// Package filter removes declarations from a merged graph by source path or
// because they are only known reflectively, and records what it removed.
package filter

import (
	"strings"

	"asglink/internal/asg"
	"asglink/internal/fingerprint"
)

// Config selects what Apply removes.
type Config struct {
	// Include prefixes win over Exclude prefixes.
	Include []string `toml:"include" yaml:"include,omitempty"`
	Exclude []string `toml:"exclude" yaml:"exclude,omitempty"`
	// Reflective drops external declarations that carry no source range.
	Reflective bool `toml:"reflective" yaml:"reflective,omitempty"`
}

// Enabled reports whether any filter was configured. An include-only
// filter removes nothing but still gets a sidecar.
func (c Config) Enabled() bool {
	return len(c.Include) > 0 || len(c.Exclude) > 0 || c.Reflective
}

// Reason says why a subtree was removed.
type Reason string

const (
	ReasonPath       Reason = "path"
	ReasonReflective Reason = "reflective"
)

// Entry is one removed subtree, named by the fingerprint of its top node.
type Entry struct {
	Kind   string `yaml:"kind"`
	Name   string `yaml:"name"`
	Path   string `yaml:"path,omitempty"`
	Reason Reason `yaml:"reason"`
	Nodes  int    `yaml:"nodes"`
}

// Result lists the removed subtrees in pre-order.
type Result struct {
	Entries []Entry
	Nodes   int
}

func normalizePrefixes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, fingerprint.NormalizePath(p))
		}
	}
	return out
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func excluded(path string, include, exclude []string) bool {
	if path == "" || !hasPrefix(path, exclude) {
		return false
	}
	return !hasPrefix(path, include)
}

// IsReflective reports an external declaration stub with no source range:
// a type declaration, a normal method or a field.
func IsReflective(h asg.Handle) bool {
	n := h.Node()
	if n == nil || n.Range != nil || n.Mods == nil || !n.Mods.External {
		return false
	}
	switch {
	case n.Kind.IsTypeDeclaration(), n.Kind.IsNormalMethod():
		return true
	case n.Kind == asg.KindVariable:
		return h.Parent().Kind().IsTypeDeclaration()
	}
	return false
}

// Apply deletes every matching containment subtree of g. Nodes outside the
// containment tree are left alone; references into deleted subtrees are
// dropped by the reverse index or by the next Compact.
func Apply(g *asg.Graph, c Config, policy fingerprint.Policy) Result {
	var res Result
	if !c.Enabled() {
		return res
	}
	include, exclude := normalizePrefixes(c.Include), normalizePrefixes(c.Exclude)

	type match struct {
		id     asg.NodeID
		path   string
		reason Reason
	}
	var matches []match
	unitPath := make(map[asg.NodeID]string)
	g.Walk(func(h asg.Handle) bool {
		n := h.Node()
		path := fingerprint.NormalizePath(n.Path())
		if path == "" {
			path = unitPath[n.Parent]
		}
		unitPath[h.ID()] = path
		if n.Kind == asg.KindPackage {
			return true
		}
		switch {
		case excluded(path, include, exclude):
			matches = append(matches, match{id: h.ID(), path: path, reason: ReasonPath})
			return false
		case c.Reflective && IsReflective(h):
			matches = append(matches, match{id: h.ID(), reason: ReasonReflective})
			return false
		}
		return true
	})

	for _, m := range matches {
		h := g.Handle(m.id)
		if !h.Valid() {
			continue
		}
		name, err := policy.Fingerprint(h)
		if err != nil {
			name = h.Name()
		}
		e := Entry{Kind: h.Kind().String(), Name: name, Path: m.path, Reason: m.reason}
		e.Nodes = len(g.DeleteSubtree(m.id, nil))
		res.Entries = append(res.Entries, e)
		res.Nodes += e.Nodes
	}
	return res
}
