package fingerprint_test

import (
	"errors"
	"testing"

	"asglink/internal/asg"
	"asglink/internal/fingerprint"
	"asglink/internal/testkit"
)

type unit struct {
	g                       *asg.Graph
	pkg, cls, m, param, loc asg.NodeID
	intT, listT, refT       asg.NodeID
}

func buildUnit(t *testing.T) unit {
	t.Helper()
	b := testkit.NewBuilder("src/a/C.java")
	var u unit
	u.pkg = b.Package(b.Root(), "a")
	u.cls = b.Class(u.pkg, b.Unit(u.pkg), "C", 3)
	u.intT = b.Prim("int")
	u.listT = b.ClassRef("java.util.List<a.C>", asg.NoNodeID)
	u.m = b.Method(u.cls, "m", 4, u.intT, u.listT)
	u.param = b.G.Targets(u.m, asg.EdgeParameters)[0]
	u.refT = b.ClassRef("C", u.cls)
	u.loc = b.Local(b.Body(u.m, 4), "x", 5, u.refT)
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	u.g = g
	return u
}

func fp(t *testing.T, g *asg.Graph, id asg.NodeID) string {
	t.Helper()
	s, err := fingerprint.Policy{}.Fingerprint(g.Handle(id))
	if err != nil {
		t.Fatalf("fingerprint #%d: %v", id, err)
	}
	return s
}

func TestFingerprints(t *testing.T) {
	u := buildUnit(t)
	tests := []struct {
		name string
		id   asg.NodeID
		want string
	}{
		{"package", u.pkg, "a"},
		{"class", u.cls, "a.C"},
		{"method erases generic parameters", u.m, "a.C.m(int,java.util.List)"},
		{"parameter by ordinal", u.param, "a.C.m(int,java.util.List)#p:0"},
		{"primitive", u.intT, "int"},
		{"resolved class type uses its declaration", u.refT, "a.C"},
		{"local below the method", u.loc, "a.C.m(int,java.util.List)/Block.x"},
	}
	for _, tt := range tests {
		if got := fp(t, u.g, tt.id); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPositions(t *testing.T) {
	u := buildUnit(t)
	h := u.g.Handle(u.cls)
	if got := (fingerprint.Policy{}).Position(h); got != "[src/a/C.java]" {
		t.Fatalf("position = %q", got)
	}
	if got := (fingerprint.Policy{StrictPositions: true}).Position(h); got != "[src/a/C.java:3:1]" {
		t.Fatalf("strict position = %q", got)
	}
	if got := (fingerprint.Policy{}).Position(u.g.Handle(u.pkg)); got != fingerprint.PackagePosition {
		t.Fatalf("package position = %q", got)
	}
	if got := (fingerprint.Policy{}).Position(u.g.Handle(u.intT)); got != "" {
		t.Fatalf("types have no position, got %q", got)
	}
}

func TestParameterWithoutMethod(t *testing.T) {
	g := asg.New(2)
	p := g.NewNode(asg.KindParameter)
	_, err := fingerprint.Policy{}.Fingerprint(g.Handle(p))
	if !errors.Is(err, asg.ErrWrongParameterNode) {
		t.Fatalf("err = %v", err)
	}
}

func TestUnlistedParameterUsesPosition(t *testing.T) {
	u := buildUnit(t)
	stray := u.g.NewNode(asg.KindParameter)
	n, err := u.g.Node(stray)
	if err != nil {
		t.Fatal(err)
	}
	n.Parent = u.m
	n.Range = &asg.Range{Path: "src/a/C.java", Line: 4, Col: 40}
	h := u.g.Handle(stray)
	if fingerprint.IsDedupEligible(h) || !fingerprint.NeedsPositionFallback(h) {
		t.Fatal("a parameter its method does not list is identified by position")
	}
	if _, err = (fingerprint.Policy{}).Fingerprint(h); !errors.Is(err, asg.ErrWrongParameterNode) {
		t.Fatalf("err = %v", err)
	}
}

func TestClassification(t *testing.T) {
	u := buildUnit(t)
	h := u.g.Handle
	if !fingerprint.IsDedupEligible(h(u.cls)) || !fingerprint.IsDedupEligible(h(u.param)) {
		t.Fatal("declarations and method parameters are dedup-eligible")
	}
	if fingerprint.IsDedupEligible(h(u.loc)) || !fingerprint.NeedsPositionFallback(h(u.loc)) {
		t.Fatal("locals fall back to positions")
	}
	if !fingerprint.IsUniqueByFingerprint(h(u.intT)) || fingerprint.IsUniqueByFingerprint(h(u.cls)) {
		t.Fatal("only types and comments are unique by fingerprint")
	}
	if !fingerprint.IsStub(h(u.listT)) || fingerprint.IsStub(h(u.refT)) || fingerprint.IsStub(h(u.intT)) {
		t.Fatal("stub classification")
	}
}

func TestErase(t *testing.T) {
	for in, want := range map[string]string{
		"int":                  "int",
		"a.Map<K,a.List<V>>[]": "a.Map[]",
		"java.util.List<a.C>":  "java.util.List",
		"a.Outer<T>.Inner<U>":  "a.Outer.Inner",
	} {
		if got := fingerprint.Erase(in); got != want {
			t.Errorf("Erase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	if got := fingerprint.NormalizePath("src//a/../a/C.java"); got != "src/a/C.java" {
		t.Fatalf("NormalizePath = %q", got)
	}
	if got := fingerprint.NormalizePath(""); got != "" {
		t.Fatalf("empty path = %q", got)
	}
}

func TestSubtreeTypeName(t *testing.T) {
	u := buildUnit(t)
	if got := fingerprint.SubtreeTypeName(u.g.Handle(u.loc)); got != "C" {
		t.Fatalf("SubtreeTypeName(local) = %q", got)
	}
	params := u.g.Handle(u.m).Targets(asg.EdgeParameters)
	if got := fingerprint.ListTypeName(params); got != "int,java.util.List<a.C>" {
		t.Fatalf("ListTypeName = %q", got)
	}
}
