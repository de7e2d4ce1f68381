package identity_test

import (
	"testing"

	"asglink/internal/asg"
	"asglink/internal/fingerprint"
	"asglink/internal/identity"
	"asglink/internal/testkit"
)

// twoUnits returns a stub and a declared class C of package a, plus a local
// variable of the declared class' method.
func twoUnits(t *testing.T) (stub, decl, local asg.Handle) {
	t.Helper()
	sb := testkit.NewBuilder("lib/Stub.java")
	sc := sb.Class(sb.Package(sb.Root(), "a"), asg.NoNodeID, "C", 0)
	sg, err := sb.Build()
	if err != nil {
		t.Fatal(err)
	}

	db := testkit.NewBuilder("src/a/C.java")
	pkg := db.Package(db.Root(), "a")
	dc := db.Class(pkg, db.Unit(pkg), "C", 3)
	m := db.Method(dc, "run", 4)
	loc := db.Local(db.Body(m, 4), "x", 5, db.Prim("int"))
	dg, err := db.Build()
	if err != nil {
		t.Fatal(err)
	}
	return sg.Handle(sc), dg.Handle(dc), dg.Handle(loc)
}

func TestPlaceholderPromotion(t *testing.T) {
	stub, decl, _ := twoUnits(t)
	x := identity.New(fingerprint.Policy{})

	if err := x.Register(stub, 5, nil); err != nil {
		t.Fatal(err)
	}
	if id, ok := x.Placeholder("a.C"); !ok || id != 5 {
		t.Fatalf("placeholder = %d, %v", id, ok)
	}
	if err := x.Register(decl, 5, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := x.Placeholder("a.C"); ok {
		t.Fatal("placeholder should be promoted")
	}
	if id, ok := x.Lookup("a.C", "[src/a/C.java]"); !ok || id != 5 {
		t.Fatalf("lookup = %d, %v", id, ok)
	}
	if x.Len() != 1 {
		t.Fatalf("Len = %d, want 1", x.Len())
	}
}

func TestPlaceholderKeptForOtherHolder(t *testing.T) {
	stub, decl, _ := twoUnits(t)

	x := identity.New(fingerprint.Policy{})
	_ = x.Register(stub, 5, nil)
	_ = x.Register(decl, 7, nil)
	if id, ok := x.Placeholder("a.C"); !ok || id != 5 {
		t.Fatalf("placeholder = %d, %v", id, ok)
	}
	if id, _ := x.First("a.C"); id != 5 {
		t.Fatalf("First = %d, want the placeholder", id)
	}

	inFlight := func(fp string) bool { return fp == "a.C" }
	y := identity.New(fingerprint.Policy{})
	_ = y.Register(stub, 5, nil)
	_ = y.Register(decl, 5, inFlight)
	if _, ok := y.Placeholder("a.C"); !ok {
		t.Fatal("in-flight fingerprint must keep its placeholder")
	}
}

func TestOnlyFirstPlaceholder(t *testing.T) {
	stub, decl, _ := twoUnits(t)
	x := identity.New(fingerprint.Policy{})
	_ = x.Register(decl, 2, nil)
	_ = x.Register(stub, 9, nil)
	if _, ok := x.Placeholder("a.C"); ok {
		t.Fatal("placeholder must not be added to a populated bucket")
	}
	if !x.Has("a.C") || x.Has("a.D") {
		t.Fatal("Has")
	}
}

func TestRegisterUniqueFirstWins(t *testing.T) {
	x := identity.New(fingerprint.Policy{})
	x.RegisterUnique("int", 3)
	x.RegisterUnique("int", 8)
	if id, ok := x.LookupUnique("int"); !ok || id != 3 {
		t.Fatalf("LookupUnique = %d, %v", id, ok)
	}
}

func TestPositionIndex(t *testing.T) {
	_, _, local := twoUnits(t)
	pos := fingerprint.StrictPosition(local)
	if pos != "[src/a/C.java:5:1]" {
		t.Fatalf("position = %q", pos)
	}

	x := identity.New(fingerprint.Policy{})
	_ = x.Register(local, 10, nil)
	_ = x.Register(local, 11, nil)
	if x.Len() != 0 {
		t.Fatalf("locals must not enter the fingerprint index, Len = %d", x.Len())
	}
	if id, _ := x.PositionLookup(pos); id != 11 {
		t.Fatalf("PositionLookup = %d, want latest 11", id)
	}
	x.Forget(11)
	if id, _ := x.PositionLookup(pos); id != 10 {
		t.Fatalf("after Forget = %d, want 10", id)
	}
	x.Forget(10)
	if _, ok := x.PositionLookup(pos); ok {
		t.Fatal("position should be empty")
	}
	x.Forget(42)
}

func TestSeed(t *testing.T) {
	_, decl, local := twoUnits(t)
	g := decl.Graph()

	x := identity.New(fingerprint.Policy{})
	n, err := identity.Seed(x, g)
	if err != nil {
		t.Fatal(err)
	}
	if n != g.Live() {
		t.Fatalf("visited %d of %d nodes", n, g.Live())
	}
	if id, ok := x.Lookup("a.C", "[src/a/C.java]"); !ok || id != decl.ID() {
		t.Fatalf("class lookup = %d, %v", id, ok)
	}
	if id, ok := x.Lookup("a", fingerprint.PackagePosition); !ok || id == asg.NoNodeID {
		t.Fatal("package not seeded")
	}
	if id, _ := x.PositionLookup(fingerprint.StrictPosition(local)); id != local.ID() {
		t.Fatalf("local position = %d", id)
	}
	if _, ok := x.LookupUnique("int"); !ok {
		t.Fatal("primitive type not seeded")
	}

	if n, err := identity.Seed(x, nil); n != 0 || err != nil {
		t.Fatalf("nil graph: %d, %v", n, err)
	}
}
