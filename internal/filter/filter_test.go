package filter

import (
	"path/filepath"
	"strings"
	"testing"

	"asglink/internal/asg"
	"asglink/internal/fingerprint"
	"asglink/internal/testkit"
)

type fixture struct {
	g            *asg.Graph
	c, gen, ext  asg.NodeID
	genUnit, mth asg.NodeID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	b := testkit.NewBuilder("src/a/C.java")
	pkg := b.Package(b.Root(), "a")
	var f fixture
	f.c = b.Class(pkg, b.Unit(pkg), "C", 3)
	b.Method(f.c, "m", 4, b.Prim("int"))

	b.Path = "gen/a/G.java"
	f.genUnit = b.Unit(pkg)
	f.gen = b.Class(pkg, f.genUnit, "G", 2)
	b.Field(f.gen, "x", 3, b.Prim("int"))

	f.ext = b.Class(pkg, asg.NoNodeID, "Ext", 0)
	f.mth = b.Method(f.ext, "call", 0)

	g, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	g.EnableReverseEdges()
	f.g = g
	return f
}

func TestIncludeOnlyKeepsEverything(t *testing.T) {
	f := newFixture(t)
	live := f.g.Live()
	cfg := Config{Include: []string{"src/"}}
	if !cfg.Enabled() {
		t.Fatal("include-only config counts as configured")
	}
	res := Apply(f.g, cfg, fingerprint.Policy{})
	if len(res.Entries) != 0 || f.g.Live() != live {
		t.Fatalf("nothing should be filtered: %+v", res)
	}
}

func TestExcludeByPath(t *testing.T) {
	f := newFixture(t)
	res := Apply(f.g, Config{Exclude: []string{"gen/"}}, fingerprint.Policy{})

	if f.g.Exists(f.gen) || f.g.Exists(f.genUnit) {
		t.Fatal("generated unit and class should be deleted")
	}
	if !f.g.Exists(f.c) || !f.g.Exists(f.ext) {
		t.Fatal("unrelated declarations must survive")
	}
	if len(res.Entries) != 2 {
		t.Fatalf("expected unit and class entries, got %+v", res.Entries)
	}
	for _, e := range res.Entries {
		if e.Reason != ReasonPath || e.Path != "gen/a/G.java" {
			t.Fatalf("unexpected entry %+v", e)
		}
	}
	f.g.Compact()
	if err := testkit.CheckGraphInvariants(f.g); err != nil {
		t.Fatalf("invariants after filter: %v", err)
	}
}

func TestIncludeWinsOverExclude(t *testing.T) {
	f := newFixture(t)
	res := Apply(f.g, Config{Include: []string{"src/a/C.java"}, Exclude: []string{"src/", "gen/"}}, fingerprint.Policy{})
	if !f.g.Exists(f.c) {
		t.Fatal("included class was removed")
	}
	if f.g.Exists(f.gen) {
		t.Fatal("excluded class survived")
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries: %+v", res.Entries)
	}
}

func TestReflectiveStubs(t *testing.T) {
	f := newFixture(t)
	res := Apply(f.g, Config{Reflective: true}, fingerprint.Policy{})
	if f.g.Exists(f.ext) || f.g.Exists(f.mth) {
		t.Fatal("reflective class and its method should be deleted")
	}
	if !f.g.Exists(f.c) || !f.g.Exists(f.gen) {
		t.Fatal("declarations with ranges must survive")
	}
	if len(res.Entries) != 1 {
		t.Fatalf("expected one entry for the class subtree, got %+v", res.Entries)
	}
	e := res.Entries[0]
	if e.Reason != ReasonReflective || e.Kind != "Class" || !strings.Contains(e.Name, "Ext") || e.Nodes != 2 {
		t.Fatalf("unexpected entry %+v", e)
	}
	if res.Nodes != 2 {
		t.Fatalf("nodes = %d, want 2", res.Nodes)
	}
}

func TestSidecarWriteRead(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(t.TempDir(), "merged.asg")
	cfg := Config{Exclude: []string{"gen/"}, Reflective: true}
	res := Apply(f.g, cfg, fingerprint.Policy{})

	if err := WriteSidecar(NewSidecar(out, cfg, res)); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadSidecar(SidecarPath(out))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Graph != out || !got.Reflective || len(got.Exclude) != 1 {
		t.Fatalf("unexpected sidecar header: %+v", got)
	}
	if len(got.Filtered) != len(res.Entries) || got.Nodes != res.Nodes {
		t.Fatalf("filtered entries differ: %+v vs %+v", got.Filtered, res.Entries)
	}

	if err := RemoveSidecar(out); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := RemoveSidecar(out); err != nil {
		t.Fatalf("second remove should ignore a missing file: %v", err)
	}
}
