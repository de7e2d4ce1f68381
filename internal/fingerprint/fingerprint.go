// Package fingerprint computes the identity of ASG nodes across graphs.
//
// Two nodes from different compilation units denote the same logical entity
// when their fingerprints match and their positions agree (or one of them is
// a position-less placeholder). Fingerprints use non-generic erasure so the
// generic and raw variants of a declaration collapse into one identity.
package fingerprint

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"asglink/internal/asg"
)

// PackagePosition is the position of every package node: packages are
// identified by name alone.
const PackagePosition = "<package>"

// maxOwnerDepth bounds owner chains; deeper chains mean a cyclic parent link.
const maxOwnerDepth = 512

// Policy renders fingerprints and positions.
type Policy struct {
	// StrictPositions adds line and column to positions.
	StrictPositions bool
}

// Fingerprint returns the canonical identity string of h.
func (p Policy) Fingerprint(h asg.Handle) (string, error) {
	return p.fingerprint(h, 0)
}

func (p Policy) fingerprint(h asg.Handle, depth int) (string, error) {
	n := h.Node()
	if n == nil {
		return "", &asg.NodeError{Op: "fingerprint", ID: h.ID(), Err: asg.ErrNodeNotExist}
	}
	if depth > maxOwnerDepth {
		return "", &asg.NodeError{Op: "fingerprint", ID: h.ID(), Kind: n.Kind,
			Err: fmt.Errorf("%w: owner chain too deep", asg.ErrCannotCastNode)}
	}

	switch n.Kind {
	case asg.KindCompilationUnit:
		return NormalizePath(n.Path()), nil
	case asg.KindPackage:
		return qualifiedPackage(h), nil
	case asg.KindComment:
		return p.Position(h) + "#c:" + n.Text, nil
	case asg.KindTypeParameter:
		owner, err := p.owner(h, depth)
		if err != nil {
			return "", err
		}
		return owner + "#tp:" + n.Name, nil
	case asg.KindParameter:
		return p.parameter(h, depth)
	case asg.KindMethod, asg.KindGenericMethod:
		owner, err := p.owner(h, depth)
		if err != nil {
			return "", err
		}
		var params []string
		for _, param := range h.Targets(asg.EdgeParameters) {
			params = append(params, Erase(CanonicalTypeName(param.Target(asg.EdgeDeclaredType))))
		}
		return join(owner, n.Name) + "(" + strings.Join(params, ",") + ")", nil
	}

	switch n.Kind.Category() {
	case asg.CatType:
		return Erase(typeSignature(h, true)), nil
	case asg.CatMember:
		owner, err := p.owner(h, depth)
		if err != nil {
			return "", err
		}
		return join(owner, n.Name), nil
	}

	// statements and expressions only pass their owner through, so local
	// declarations below them stay qualified by the enclosing member
	owner, err := p.owner(h, depth)
	if err != nil {
		return "", err
	}
	return owner + "/" + n.Kind.String(), nil
}

func (p Policy) owner(h asg.Handle, depth int) (string, error) {
	parent := h.Parent()
	if !parent.Valid() {
		return "", nil
	}
	return p.fingerprint(parent, depth+1)
}

func (p Policy) parameter(h asg.Handle, depth int) (string, error) {
	owner := h.Parent()
	if !owner.Kind().IsNormalMethod() {
		return "", &asg.NodeError{Op: "fingerprint", ID: h.ID(), Kind: asg.KindParameter, Err: asg.ErrWrongParameterNode}
	}
	ordinal := parameterOrdinal(owner, h)
	if ordinal < 0 {
		return "", &asg.NodeError{Op: "fingerprint", ID: h.ID(), Kind: asg.KindParameter, Edge: asg.EdgeParameters,
			Err: fmt.Errorf("%w: not listed by its owner", asg.ErrWrongParameterNode)}
	}
	ownerFP, err := p.fingerprint(owner, depth+1)
	if err != nil {
		return "", err
	}
	return ownerFP + "#p:" + strconv.Itoa(ordinal), nil
}

// parameterOrdinal is the index of h in the parameter list of owner, or -1.
func parameterOrdinal(owner, h asg.Handle) int {
	for i, param := range owner.Targets(asg.EdgeParameters) {
		if param.ID() == h.ID() {
			return i
		}
	}
	return -1
}

func qualifiedPackage(h asg.Handle) string {
	var parts []string
	for cur, i := h, 0; cur.Kind() == asg.KindPackage && i < maxOwnerDepth; cur, i = cur.Parent(), i+1 {
		if name := cur.Name(); name != "" {
			parts = append(parts, name)
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// qualifiedName renders the dotted name of a declaration without parameter lists.
func qualifiedName(h asg.Handle) string {
	var parts []string
	for cur, i := h, 0; cur.Valid() && i < maxOwnerDepth; cur, i = cur.Parent(), i+1 {
		switch cur.Kind().Category() {
		case asg.CatStructure, asg.CatMember, asg.CatTypeParameter:
			if name := cur.Name(); name != "" {
				parts = append(parts, name)
			}
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

func join(owner, name string) string {
	if owner == "" {
		return name
	}
	return owner + "." + name
}

// Position renders the source position used to tell apart declarations that
// share a fingerprint.
func (p Policy) Position(h asg.Handle) string {
	if p.StrictPositions {
		return StrictPosition(h)
	}
	n := h.Node()
	if n == nil {
		return ""
	}
	if n.Kind == asg.KindPackage {
		return PackagePosition
	}
	if !n.Kind.Has(asg.CapPositioned) || n.Path() == "" {
		return ""
	}
	return "[" + NormalizePath(n.Path()) + "]"
}

// StrictPosition always renders line and column. The position index uses it
// because a file path alone does not tell locals apart.
func StrictPosition(h asg.Handle) string {
	n := h.Node()
	if n == nil {
		return ""
	}
	if n.Kind == asg.KindPackage {
		return PackagePosition
	}
	if !n.Kind.Has(asg.CapPositioned) || n.Path() == "" {
		return ""
	}
	return fmt.Sprintf("[%s:%d:%d]", NormalizePath(n.Range.Path), n.Range.Line, n.Range.Col)
}

// NormalizePath makes paths from different producers comparable.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	return norm.NFC.String(filepath.ToSlash(filepath.Clean(path)))
}

// IsDedupEligible reports whether h is merged by fingerprint rather than
// copied fresh: compilation units, packages, type parameters and members,
// except locals outside a type declaration and parameters that are not
// listed in a normal method signature.
func IsDedupEligible(h asg.Handle) bool {
	k := h.Kind()
	switch k.Category() {
	case asg.CatStructure, asg.CatTypeParameter:
		return true
	case asg.CatMember:
		switch k {
		case asg.KindVariable:
			return h.Parent().Kind().IsTypeDeclaration()
		case asg.KindParameter:
			owner := h.Parent()
			return owner.Kind().IsNormalMethod() && parameterOrdinal(owner, h) >= 0
		}
		return true
	}
	return false
}

// NeedsPositionFallback is true for the locals and parameters excluded by
// IsDedupEligible; they are re-identified by position instead.
func NeedsPositionFallback(h asg.Handle) bool {
	switch h.Kind() {
	case asg.KindVariable, asg.KindParameter:
		return !IsDedupEligible(h)
	}
	return false
}

// IsUniqueByFingerprint reports comment and type nodes, which are shared by
// fingerprint alone.
func IsUniqueByFingerprint(h asg.Handle) bool {
	switch h.Kind().Category() {
	case asg.CatType, asg.CatComment:
		return true
	}
	return false
}
