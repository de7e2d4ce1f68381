// Package testkit builds small source graphs and checks graph invariants in tests.
package testkit

import (
	"fmt"

	"asglink/internal/asg"
)

// Builder assembles the source graph of one compilation unit. Positioned
// nodes get a range in Path; line 0 builds a position-less stub. The first
// failed edge is kept in Err and later calls keep going.
type Builder struct {
	G    *asg.Graph
	Path string
	err  error
}

// NewBuilder creates a graph with an unnamed root package.
func NewBuilder(path string) *Builder {
	g := asg.New(64)
	g.SetRoot(g.NewNode(asg.KindPackage))
	return &Builder{G: g, Path: path}
}

func (b *Builder) Err() error { return b.err }

func (b *Builder) Root() asg.NodeID { return b.G.Root() }

// Node returns the node for in-place edits; it panics on dead ids.
func (b *Builder) Node(id asg.NodeID) *asg.Node {
	n, err := b.G.Node(id)
	if err != nil {
		panic(err)
	}
	return n
}

func (b *Builder) fail(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

func (b *Builder) add(kind asg.Kind, name string, line uint32) asg.NodeID {
	id := b.G.NewNode(kind)
	n := b.Node(id)
	if kind.Has(asg.CapNamed) {
		n.Name = name
	}
	if line > 0 && kind.Has(asg.CapPositioned) {
		n.Range = &asg.Range{Path: b.Path, Line: line, Col: 1, EndLine: line, EndCol: 80}
	}
	if kind.Has(asg.CapModifiers) {
		n.Mods = &asg.Modifiers{Access: asg.AccessPublic, External: line == 0}
	}
	return id
}

// Link sets a single edge or appends to a multi edge.
func (b *Builder) Link(from asg.NodeID, e asg.EdgeKind, to asg.NodeID) {
	spec, ok := asg.SpecOf(b.G.Kind(from), e)
	if !ok {
		b.fail(fmt.Errorf("%s has no edge %s", b.G.Kind(from), e))
		return
	}
	if spec.Multi {
		b.fail(b.G.AppendTarget(from, e, to))
		return
	}
	b.fail(b.G.SetTarget(from, e, to))
}

func (b *Builder) Package(parent asg.NodeID, name string) asg.NodeID {
	id := b.add(asg.KindPackage, name, 0)
	b.Link(parent, asg.EdgeMembers, id)
	return id
}

// Unit adds the compilation unit of Path to pkg.
func (b *Builder) Unit(pkg asg.NodeID) asg.NodeID {
	id := b.add(asg.KindCompilationUnit, "", 1)
	b.Link(pkg, asg.EdgeCompilationUnits, id)
	return id
}

// Class declares a class member of owner; a non-zero cu lists it as a
// type declaration of that unit.
func (b *Builder) Class(owner, cu asg.NodeID, name string, line uint32) asg.NodeID {
	return b.typeDecl(asg.KindClass, owner, cu, name, line)
}

func (b *Builder) Interface(owner, cu asg.NodeID, name string, line uint32) asg.NodeID {
	return b.typeDecl(asg.KindInterface, owner, cu, name, line)
}

// GenericClass declares a class with the named type parameters.
func (b *Builder) GenericClass(owner, cu asg.NodeID, name string, line uint32, params ...string) asg.NodeID {
	id := b.typeDecl(asg.KindGenericClass, owner, cu, name, line)
	for _, p := range params {
		tp := b.add(asg.KindTypeParameter, p, line)
		b.Link(id, asg.EdgeTypeParameters, tp)
	}
	return id
}

func (b *Builder) typeDecl(kind asg.Kind, owner, cu asg.NodeID, name string, line uint32) asg.NodeID {
	id := b.add(kind, name, line)
	b.Link(owner, asg.EdgeMembers, id)
	if cu.IsValid() {
		b.Link(cu, asg.EdgeTypeDeclarations, id)
	}
	return id
}

// Method declares a method of owner with one parameter per type node.
func (b *Builder) Method(owner asg.NodeID, name string, line uint32, paramTypes ...asg.NodeID) asg.NodeID {
	id := b.add(asg.KindMethod, name, line)
	b.Link(owner, asg.EdgeMembers, id)
	for i, t := range paramTypes {
		p := b.add(asg.KindParameter, fmt.Sprintf("p%d", i), line)
		if r := b.Node(p).Range; r != nil {
			r.Col = uint32(10 + i)
		}
		b.Link(p, asg.EdgeDeclaredType, b.TypeExpr(t, 0))
		b.Link(id, asg.EdgeParameters, p)
	}
	return id
}

func (b *Builder) Returns(method, t asg.NodeID) asg.NodeID {
	te := b.TypeExpr(t, 0)
	b.Link(method, asg.EdgeReturnType, te)
	return te
}

func (b *Builder) Throws(method asg.NodeID, types ...asg.NodeID) {
	for _, t := range types {
		b.Link(method, asg.EdgeThrownExceptions, b.TypeExpr(t, 0))
	}
}

// Field declares a variable member of owner.
func (b *Builder) Field(owner asg.NodeID, name string, line uint32, t asg.NodeID) asg.NodeID {
	id := b.add(asg.KindVariable, name, line)
	b.Link(id, asg.EdgeDeclaredType, b.TypeExpr(t, 0))
	b.Link(owner, asg.EdgeMembers, id)
	return id
}

func (b *Builder) Comment(target asg.NodeID, text string, line uint32) asg.NodeID {
	id := b.add(asg.KindComment, "", line)
	b.Node(id).Text = text
	b.Link(target, asg.EdgeComments, id)
	return id
}

func (b *Builder) Prim(sig string) asg.NodeID {
	id := b.add(asg.KindPrimitiveType, "", 0)
	b.Node(id).Type = &asg.TypeInfo{Signature: sig}
	return id
}

// ClassRef is a class type; decl may be NoNodeID for an unresolved reference.
func (b *Builder) ClassRef(sig string, decl asg.NodeID) asg.NodeID {
	id := b.add(asg.KindClassType, "", 0)
	b.Node(id).Type = &asg.TypeInfo{Signature: sig, External: !decl.IsValid()}
	if decl.IsValid() {
		b.Link(id, asg.EdgeDeclaration, decl)
	}
	return id
}

func (b *Builder) Array(component asg.NodeID) asg.NodeID {
	id := b.add(asg.KindArrayType, "", 0)
	b.Link(id, asg.EdgeComponentType, component)
	return id
}

func (b *Builder) TypeExpr(t asg.NodeID, line uint32) asg.NodeID {
	id := b.add(asg.KindTypeExpr, "", line)
	b.Link(id, asg.EdgeType, t)
	return id
}

// Body gives method a block.
func (b *Builder) Body(method asg.NodeID, line uint32) asg.NodeID {
	id := b.add(asg.KindBlock, "", line)
	b.Link(method, asg.EdgeBody, id)
	return id
}

// Local declares a local variable statement in block.
func (b *Builder) Local(block asg.NodeID, name string, line uint32, t asg.NodeID) asg.NodeID {
	id := b.add(asg.KindVariable, name, line)
	b.Link(id, asg.EdgeDeclaredType, b.TypeExpr(t, 0))
	b.Link(block, asg.EdgeStatements, id)
	return id
}

// Ident builds an identifier referring to decl, typed t when t is set.
func (b *Builder) Ident(decl asg.NodeID, line uint32, t asg.NodeID) asg.NodeID {
	name := ""
	if decl.IsValid() {
		name = b.Node(decl).Name
	}
	id := b.add(asg.KindIdentifier, name, line)
	if decl.IsValid() {
		b.Link(id, asg.EdgeRefersTo, decl)
	}
	if t.IsValid() {
		b.Link(id, asg.EdgeType, t)
	}
	return id
}

func (b *Builder) Return(block, expr asg.NodeID, line uint32) asg.NodeID {
	id := b.add(asg.KindReturn, "", line)
	if expr.IsValid() {
		b.Link(id, asg.EdgeExpression, expr)
	}
	b.Link(block, asg.EdgeStatements, id)
	return id
}

func (b *Builder) Stmt(block, expr asg.NodeID, line uint32) asg.NodeID {
	id := b.add(asg.KindExpressionStatement, "", line)
	b.Link(id, asg.EdgeExpression, expr)
	b.Link(block, asg.EdgeStatements, id)
	return id
}

// Call builds an invocation of method.
func (b *Builder) Call(method asg.NodeID, line uint32, args ...asg.NodeID) asg.NodeID {
	id := b.add(asg.KindMethodInvocation, b.Node(method).Name, line)
	b.Link(id, asg.EdgeInvokes, method)
	for _, a := range args {
		b.Link(id, asg.EdgeArguments, a)
	}
	return id
}

// Build returns the graph, or the first edge error.
func (b *Builder) Build() (*asg.Graph, error) {
	return b.G, b.err
}
