package fingerprint

import (
	"strings"

	"asglink/internal/asg"
)

// Erase strips generic argument lists: "a.Map<K,a.List<V>>[]" becomes "a.Map[]".
func Erase(sig string) string {
	if !strings.ContainsRune(sig, '<') {
		return sig
	}
	var sb strings.Builder
	depth := 0
	for _, r := range sig {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// typeSignature renders a type node. With identity set, resolved class types
// are named after their declaration so stubs and resolved references of the
// same declaration agree.
func typeSignature(h asg.Handle, identity bool) string {
	n := h.Node()
	if n == nil {
		return ""
	}
	sig := ""
	if n.Type != nil {
		sig = n.Type.Signature
	}
	switch n.Kind {
	case asg.KindClassType:
		decl := h.Target(asg.EdgeDeclaration)
		if decl.Valid() && (identity || sig == "") {
			name := qualifiedName(decl)
			if !identity {
				return name
			}
			// keep generic arguments of the written signature
			if i := strings.IndexByte(sig, '<'); i >= 0 {
				return name + sig[i:]
			}
			return name
		}
		return sig
	case asg.KindArrayType:
		if sig != "" && !identity {
			return sig
		}
		return typeSignature(h.Target(asg.EdgeComponentType), identity) + "[]"
	default:
		return sig
	}
}

// CanonicalTypeName renders the full type name of a type node, or of the type
// an expression or type expression refers to.
func CanonicalTypeName(h asg.Handle) string {
	switch h.Kind().Category() {
	case asg.CatType:
		return typeSignature(h, false)
	case asg.CatExpression:
		return CanonicalTypeName(h.Target(asg.EdgeType))
	}
	return ""
}

// SubtreeTypeName concatenates the canonical type names found in the
// containment subtree of h, in pre-order.
func SubtreeTypeName(h asg.Handle) string {
	var parts []string
	seen := make(map[asg.NodeID]struct{})
	var visit func(asg.Handle)
	visit = func(cur asg.Handle) {
		if !cur.Valid() {
			return
		}
		if _, ok := seen[cur.ID()]; ok {
			return
		}
		seen[cur.ID()] = struct{}{}
		if name := CanonicalTypeName(cur); name != "" {
			parts = append(parts, name)
		}
		for _, child := range cur.Children() {
			visit(child)
		}
	}
	visit(h)
	return strings.Join(parts, ",")
}

// ListTypeName renders a list of subtrees the way SubtreeTypeName renders one.
func ListTypeName(hs []asg.Handle) string {
	parts := make([]string, 0, len(hs))
	for _, h := range hs {
		parts = append(parts, SubtreeTypeName(h))
	}
	return strings.Join(parts, ",")
}

// IsStub reports an unresolved type reference: an external type, a class type
// without a declaration, or an expression without a type.
func IsStub(h asg.Handle) bool {
	n := h.Node()
	if n == nil {
		return true
	}
	switch n.Kind {
	case asg.KindPrimitiveType:
		return false
	case asg.KindClassType:
		return n.IsExternal() || !h.Target(asg.EdgeDeclaration).Valid()
	case asg.KindArrayType:
		return n.IsExternal() || IsStub(h.Target(asg.EdgeComponentType))
	}
	if n.Kind.Category() == asg.CatExpression {
		return IsStub(h.Target(asg.EdgeType))
	}
	return false
}
