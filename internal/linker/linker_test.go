package linker_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"asglink/internal/asg"
	"asglink/internal/fingerprint"
	"asglink/internal/identity"
	"asglink/internal/linker"
	"asglink/internal/testkit"
	"asglink/internal/trace"
)

func newLinker() *linker.Linker {
	return linker.New(asg.New(0), identity.New(fingerprint.Policy{}))
}

func merge(t *testing.T, l *linker.Linker, graphs ...*asg.Graph) {
	t.Helper()
	for _, g := range graphs {
		if _, err := l.Merge(context.Background(), g); err != nil {
			t.Fatalf("merge: %v", err)
		}
	}
	if err := testkit.CheckGraphInvariants(l.Merged()); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func build(t *testing.T, b *testkit.Builder) *asg.Graph {
	t.Helper()
	g, err := b.Build()
	if err != nil {
		t.Fatalf("build %s: %v", b.Path, err)
	}
	return g
}

// fileC declares a.C with m(int) returning int through a local, and get()
// returning a.C.
func fileC(t *testing.T) *asg.Graph {
	b := testkit.NewBuilder("src/a/C.java")
	pkg := b.Package(b.Root(), "a")
	cu := b.Unit(pkg)
	c := b.Class(pkg, cu, "C", 3)
	b.Comment(c, "/** C */", 2)
	intT := b.Prim("int")

	m := b.Method(c, "m", 5, intT)
	b.Returns(m, intT)
	body := b.Body(m, 5)
	x := b.Local(body, "x", 6, intT)
	b.Return(body, b.Ident(x, 7, intT), 7)

	get := b.Method(c, "get", 9)
	b.Returns(get, b.ClassRef("a.C", c))
	return build(t, b)
}

// fileD uses a.C through position-less stubs.
func fileD(t *testing.T) *asg.Graph {
	b := testkit.NewBuilder("src/b/D.java")
	pkgA := b.Package(b.Root(), "a")
	pkgB := b.Package(b.Root(), "b")
	cu := b.Unit(pkgB)
	d := b.Class(pkgB, cu, "D", 1)
	intT := b.Prim("int")

	c := b.Class(pkgA, asg.NoNodeID, "C", 0)
	m := b.Method(c, "m", 0, intT)
	b.Returns(m, intT)
	get := b.Method(c, "get", 0)
	b.Returns(get, b.ClassRef("java.lang.Object", asg.NoNodeID))

	n := b.Method(d, "n", 3)
	body := b.Body(n, 3)
	lit := b.Ident(asg.NoNodeID, 4, intT)
	b.Stmt(body, b.Call(m, 4, lit), 4)
	return build(t, b)
}

func onlyNamed(t *testing.T, g *asg.Graph, k asg.Kind, name string) asg.NodeID {
	t.Helper()
	ids := testkit.FindNamed(g, k, name)
	if len(ids) != 1 {
		t.Fatalf("want one %s %q, got %v", k, name, ids)
	}
	return ids[0]
}

func TestMerge_IdempotentRelink(t *testing.T) {
	l := newLinker()
	merge(t, l, fileC(t))
	live := l.Merged().Live()

	merge(t, l, fileC(t))
	if got := l.Merged().Live(); got != live {
		t.Fatalf("relinking the same file changed the graph: %d -> %d nodes", live, got)
	}
	onlyNamed(t, l.Merged(), asg.KindClass, "C")
	onlyNamed(t, l.Merged(), asg.KindMethod, "m")
	if n := testkit.CountKind(l.Merged(), asg.KindComment); n != 1 {
		t.Fatalf("comments are shared by fingerprint, got %d", n)
	}
}

func TestMerge_PlaceholderPromotion(t *testing.T) {
	l := newLinker()
	merge(t, l, fileD(t), fileC(t))
	g := l.Merged()

	c := onlyNamed(t, g, asg.KindClass, "C")
	n, _ := g.Node(c)
	if n.Path() != "src/a/C.java" {
		t.Fatalf("class C was not promoted to its declaration, path %q", n.Path())
	}
	if n.IsExternal() {
		t.Fatal("promoted class C kept the stub modifiers")
	}
	policy := l.Index().Policy()
	if _, ok := l.Index().Placeholder("a.C"); ok {
		t.Fatal("placeholder of a.C still registered")
	}
	if id, ok := l.Index().Lookup("a.C", policy.Position(g.Handle(c))); !ok || id != c {
		t.Fatalf("a.C not registered at its position: %d %v", id, ok)
	}

	m := onlyNamed(t, g, asg.KindMethod, "m")
	call := onlyNamed(t, g, asg.KindMethodInvocation, "m")
	if got := g.Target(call, asg.EdgeInvokes); got != m {
		t.Fatalf("invocation bound to %d, want %d", got, m)
	}
	if params := g.Targets(m, asg.EdgeParameters); len(params) != 1 {
		t.Fatalf("m has %d parameters, want 1", len(params))
	}
}

func TestMerge_StubAfterDeclaration(t *testing.T) {
	forward := newLinker()
	merge(t, forward, fileD(t), fileC(t))
	backward := newLinker()
	merge(t, backward, fileC(t), fileD(t))

	if a, b := forward.Merged().Live(), backward.Merged().Live(); a != b {
		t.Fatalf("link order changed the node count: %d vs %d", a, b)
	}
	c := onlyNamed(t, backward.Merged(), asg.KindClass, "C")
	n, _ := backward.Merged().Node(c)
	if n.Path() != "src/a/C.java" || n.IsExternal() {
		t.Fatalf("stub overwrote the declaration: %+v", n.Range)
	}
}

func returnSignature(t *testing.T, g *asg.Graph, method string) string {
	t.Helper()
	m := g.Handle(onlyNamed(t, g, asg.KindMethod, method))
	typ := m.Target(asg.EdgeReturnType).Target(asg.EdgeType)
	if !typ.Valid() {
		t.Fatalf("%s has no return type", method)
	}
	return typ.Node().Type.Signature
}

func TestMerge_PrecisionIsOrderIndependent(t *testing.T) {
	for _, tc := range []struct {
		name  string
		order func(t *testing.T) []*asg.Graph
	}{
		{"stub first", func(t *testing.T) []*asg.Graph { return []*asg.Graph{fileD(t), fileC(t)} }},
		{"declaration first", func(t *testing.T) []*asg.Graph { return []*asg.Graph{fileC(t), fileD(t)} }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			l := newLinker()
			merge(t, l, tc.order(t)...)
			if sig := returnSignature(t, l.Merged(), "get"); sig != "a.C" {
				t.Fatalf("return type of get = %q, want the resolved a.C", sig)
			}
			get := onlyNamed(t, l.Merged(), asg.KindMethod, "get")
			te := l.Merged().Target(get, asg.EdgeReturnType)
			if n, _ := l.Merged().Node(te); n.Parent != get {
				t.Fatalf("return type expression parent = %d, want %d", n.Parent, get)
			}
		})
	}
}

func TestMerge_ListsAreReplacedNotConcatenated(t *testing.T) {
	declared := func(t *testing.T) *asg.Graph {
		b := testkit.NewBuilder("src/a/E.java")
		pkg := b.Package(b.Root(), "a")
		cu := b.Unit(pkg)
		e := b.Class(pkg, cu, "E", 1)
		f := b.Method(e, "f", 2)
		b.Throws(f, b.ClassRef("a.E", e))
		return build(t, b)
	}
	stubbed := func(t *testing.T) *asg.Graph {
		b := testkit.NewBuilder("src/b/F.java")
		pkg := b.Package(b.Root(), "a")
		e := b.Class(pkg, asg.NoNodeID, "E", 0)
		f := b.Method(e, "f", 0)
		b.Throws(f, b.ClassRef("Exception", asg.NoNodeID), b.ClassRef("Error", asg.NoNodeID))
		return build(t, b)
	}
	for _, order := range [][]func(*testing.T) *asg.Graph{{declared, stubbed}, {stubbed, declared}} {
		l := newLinker()
		merge(t, l, order[0](t), order[1](t))
		g := l.Merged()
		f := g.Handle(onlyNamed(t, g, asg.KindMethod, "f"))
		thrown := f.Targets(asg.EdgeThrownExceptions)
		if len(thrown) != 1 {
			t.Fatalf("f throws %d types, want 1", len(thrown))
		}
		if sig := thrown[0].Target(asg.EdgeType).Node().Type.Signature; sig != "a.E" {
			t.Fatalf("f throws %q, want a.E", sig)
		}
	}
}

func TestMerge_WidensPlainStubToGeneric(t *testing.T) {
	stub := testkit.NewBuilder("src/b/U.java")
	stub.Class(stub.Package(stub.Root(), "a"), asg.NoNodeID, "G", 0)
	decl := testkit.NewBuilder("src/a/G.java")
	pkg := decl.Package(decl.Root(), "a")
	decl.GenericClass(pkg, decl.Unit(pkg), "G", 1, "T")

	l := newLinker()
	merge(t, l, build(t, stub), build(t, decl))
	g := l.Merged()
	ids := append(testkit.FindNamed(g, asg.KindClass, "G"), testkit.FindNamed(g, asg.KindGenericClass, "G")...)
	if len(ids) != 1 {
		t.Fatalf("want one node for G, got %v", ids)
	}
	if k := g.Kind(ids[0]); k != asg.KindGenericClass {
		t.Fatalf("G is %s, want GenericClass", k)
	}
	if tps := g.Targets(ids[0], asg.EdgeTypeParameters); len(tps) != 1 {
		t.Fatalf("G has %d type parameters, want 1", len(tps))
	}
}

func TestMerge_KindConflict(t *testing.T) {
	stub := testkit.NewBuilder("src/b/U.java")
	stub.Interface(stub.Package(stub.Root(), "a"), asg.NoNodeID, "C", 0)

	l := newLinker()
	merge(t, l, build(t, stub))
	_, err := l.Merge(context.Background(), fileC(t))
	if !errors.Is(err, asg.ErrCannotCastNode) {
		t.Fatalf("want ErrCannotCastNode, got %v", err)
	}
}

func TestMerge_RejectsEdgeOfWrongKind(t *testing.T) {
	b := testkit.NewBuilder("src/a/W.java")
	pkg := b.Package(b.Root(), "a")
	c := b.Class(pkg, b.Unit(pkg), "W", 1)
	m := b.Method(c, "w", 2)
	body := b.Body(m, 2)
	id := b.Ident(asg.NoNodeID, 3, asg.NoNodeID)
	b.Stmt(body, id, 3)
	b.Node(id).Edges[asg.SlotOf(asg.KindIdentifier, asg.EdgeRefersTo)] = []asg.NodeID{body}

	_, err := newLinker().Merge(context.Background(), build(t, b))
	if !errors.Is(err, asg.ErrCannotCastNode) {
		t.Fatalf("want ErrCannotCastNode, got %v", err)
	}
}

func TestMerge_DanglingEdge(t *testing.T) {
	b := testkit.NewBuilder("src/a/X.java")
	pkg := b.Package(b.Root(), "a")
	c := b.Class(pkg, b.Unit(pkg), "X", 1)
	m := b.Method(c, "x", 2)
	te := b.Returns(m, b.Prim("int"))
	b.Node(te).Edges[asg.SlotOf(asg.KindTypeExpr, asg.EdgeType)] = []asg.NodeID{999}

	_, err := newLinker().Merge(context.Background(), build(t, b))
	if !errors.Is(err, asg.ErrNodeNotExist) {
		t.Fatalf("want ErrNodeNotExist, got %v", err)
	}
}

// fieldFile declares a.D with fields f and g of type t. g takes the type
// expression of f when shareType is set.
func fieldFile(t *testing.T, typ string, shareType bool) *asg.Graph {
	b := testkit.NewBuilder("src/a/D.java")
	pkg := b.Package(b.Root(), "a")
	d := b.Class(pkg, b.Unit(pkg), "D", 1)
	f := b.Field(d, "f", 2, b.Prim(typ))
	if shareType {
		g := b.G.NewNode(asg.KindVariable)
		b.Node(g).Name = "g"
		b.Node(g).Range = &asg.Range{Path: b.Path, Line: 3, Col: 1}
		b.Link(d, asg.EdgeMembers, g)
		te := b.G.Target(f, asg.EdgeDeclaredType)
		b.Node(g).Edges[asg.SlotOf(asg.KindVariable, asg.EdgeDeclaredType)] = []asg.NodeID{te}
	}
	return build(t, b)
}

func TestMerge_RequiredTargetDiscarded(t *testing.T) {
	l := newLinker()
	merge(t, l, fieldFile(t, "long", false))

	// f keeps "long", so the incoming "int" expression is discarded before g
	// binds to it
	_, err := l.Merge(context.Background(), fieldFile(t, "int", true))
	if !errors.Is(err, asg.ErrNodeNotBuilt) {
		t.Fatalf("want ErrNodeNotBuilt, got %v", err)
	}
	var ne *asg.NodeError
	if !errors.As(err, &ne) || ne.Edge != asg.EdgeDeclaredType {
		t.Fatalf("error does not name the edge: %v", err)
	}
}

func TestMerge_UnlistedParameterFallsBackToPosition(t *testing.T) {
	b := testkit.NewBuilder("src/a/P.java")
	pkg := b.Package(b.Root(), "a")
	c := b.Class(pkg, b.Unit(pkg), "P", 1)
	intT := b.Prim("int")
	m := b.Method(c, "m", 2, intT)
	stray := b.G.NewNode(asg.KindParameter)
	b.Node(stray).Name = "stray"
	b.Node(stray).Range = &asg.Range{Path: b.Path, Line: 2, Col: 30}
	b.Node(stray).Parent = m
	b.Link(stray, asg.EdgeDeclaredType, b.TypeExpr(intT, 0))
	src := build(t, b)

	l := newLinker()
	merge(t, l, src)
	g := l.Merged()
	ids := testkit.FindNamed(g, asg.KindParameter, "stray")
	if len(ids) != 1 {
		t.Fatalf("want one stray parameter, got %v", ids)
	}
	if id, ok := l.Index().PositionLookup(fingerprint.StrictPosition(src.Handle(stray))); !ok || id != ids[0] {
		t.Fatalf("position index points at %d, want %d", id, ids[0])
	}
	if n := len(g.Targets(onlyNamed(t, g, asg.KindMethod, "m"), asg.EdgeParameters)); n != 1 {
		t.Fatalf("method lists %d parameters, want 1", n)
	}
}

func TestMerge_ForwardReference(t *testing.T) {
	b := testkit.NewBuilder("src/a/F.java")
	pkg := b.Package(b.Root(), "a")
	c := b.Class(pkg, b.Unit(pkg), "F", 1)
	first := b.Method(c, "first", 2)
	body := b.Body(first, 2)
	// second is created after the call that refers to it
	second := b.G.NewNode(asg.KindMethod)
	b.Node(second).Name = "second"
	b.Node(second).Range = &asg.Range{Path: b.Path, Line: 5, Col: 1}
	b.Stmt(body, b.Call(second, 3), 3)
	b.Link(c, asg.EdgeMembers, second)

	l := newLinker()
	merge(t, l, build(t, b))
	g := l.Merged()
	call := onlyNamed(t, g, asg.KindMethodInvocation, "second")
	if got := g.Target(call, asg.EdgeInvokes); got != onlyNamed(t, g, asg.KindMethod, "second") {
		t.Fatalf("forward call bound to %d", got)
	}
}

func TestMerge_LongerBodyReplacesShorter(t *testing.T) {
	short := fileC(t)

	b := testkit.NewBuilder("src/a/C.java")
	pkg := b.Package(b.Root(), "a")
	c := b.Class(pkg, b.Unit(pkg), "C", 3)
	intT := b.Prim("int")
	m := b.Method(c, "m", 5, intT)
	b.Returns(m, intT)
	body := b.Body(m, 5)
	x := b.Local(body, "x", 6, intT)
	y := b.Local(body, "y", 7, b.ClassRef("a.C", c))
	b.Stmt(body, b.Ident(y, 8, b.ClassRef("a.C", c)), 8)
	b.Return(body, b.Ident(x, 9, intT), 9)
	long := build(t, b)

	l := newLinker()
	merge(t, l, short, long)
	g := l.Merged()
	if n := testkit.CountKind(g, asg.KindBlock); n != 1 {
		t.Fatalf("want the losing body discarded, %d blocks left", n)
	}
	mm := g.Handle(onlyNamed(t, g, asg.KindMethod, "m"))
	if stmts := mm.Target(asg.EdgeBody).Targets(asg.EdgeStatements); len(stmts) != 4 {
		t.Fatalf("body has %d statements, want 4", len(stmts))
	}
	xs := testkit.FindNamed(g, asg.KindVariable, "x")
	if len(xs) != 1 {
		t.Fatalf("want one local x, got %v", xs)
	}
	if id, ok := l.Index().PositionLookup(fingerprint.StrictPosition(g.Handle(xs[0]))); !ok || id != xs[0] {
		t.Fatalf("position index points at %d, want %d", id, xs[0])
	}
}

func TestMerge_TracesPasses(t *testing.T) {
	r := trace.NewRingTracer(16, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), r)
	ctx, file := trace.Start(ctx, trace.ScopeFile, "C.asg")

	st, err := newLinker().Merge(ctx, fileC(t))
	if err != nil {
		t.Fatal(err)
	}
	file.End("")

	ends := map[string]trace.Event{}
	for _, ev := range r.Snapshot() {
		if ev.Kind == trace.KindSpanEnd {
			ends[ev.Name] = ev
		}
	}
	for _, name := range []string{"merge", "bind"} {
		ev, ok := ends[name]
		if !ok {
			t.Fatalf("no %s span", name)
		}
		if ev.ParentID != file.ID() {
			t.Fatalf("%s span parent = %d, want %d", name, ev.ParentID, file.ID())
		}
	}
	if ends["merge"].Extra["created"] != strconv.Itoa(st.Created) {
		t.Fatalf("merge extras: %v", ends["merge"].Extra)
	}
}
