package asgfmt

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"asglink/internal/asg"
	"asglink/internal/testkit"
)

func sampleGraph(t *testing.T) *asg.Graph {
	t.Helper()
	b := testkit.NewBuilder("src/a/C.java")
	pkg := b.Package(b.Root(), "a")
	cu := b.Unit(pkg)
	c := b.Class(pkg, cu, "C", 3)
	b.Comment(c, "/** C */", 2)
	m := b.Method(c, "m", 4, b.Prim("int"))
	b.Body(m, 4)
	g, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return g
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatTree, "tree": FormatTree, "NDJSON": FormatNDJSON, "json": FormatNDJSON}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestTreeDump(t *testing.T) {
	g := sampleGraph(t)
	var buf bytes.Buffer
	if err := Dump(&buf, g, Options{Format: FormatTree, Refs: true}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Package #1",
		"members: Package #2 a",
		"Class #",
		" C [src/a/C.java:3:1]",
		"comments → #",
		"members: Method #",
		"body: Block #",
		"detached (",
		"PrimitiveType #",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("tree dump missing %q:\n%s", want, out)
		}
	}
	// comments are shared by fingerprint, so the tree lists them as detached
	_, detached, _ := strings.Cut(out, "detached (")
	if !strings.Contains(detached, "Comment #") {
		t.Errorf("comment not listed under detached:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if strings.HasPrefix(lines[0], "├─") || strings.HasPrefix(lines[0], "└─") {
		t.Fatalf("root line must not carry a branch: %q", lines[0])
	}
	var last string
	for _, l := range lines {
		if strings.Contains(l, "─") {
			last = l
		}
	}
	if !strings.Contains(last, "└─ ") {
		t.Fatalf("last branch should close the tree: %q", last)
	}
}

func TestTreeDumpTruncates(t *testing.T) {
	g := sampleGraph(t)
	var buf bytes.Buffer
	if err := Dump(&buf, g, Options{Width: 20}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	sc := bufio.NewScanner(&buf)
	truncated := 0
	for sc.Scan() {
		line := sc.Text()
		w := runewidth.StringWidth(line)
		if w > 20 {
			t.Fatalf("line wider than 20 cells (%d): %q", w, line)
		}
		if strings.HasSuffix(line, "...") {
			truncated++
			if w != 20 {
				t.Fatalf("truncated line is %d cells, want 20: %q", w, line)
			}
		}
	}
	if truncated == 0 {
		t.Fatal("expected at least one truncated line")
	}
}

func TestNDJSONDump(t *testing.T) {
	g := sampleGraph(t)
	var buf bytes.Buffer
	if err := Dump(&buf, g, Options{Format: FormatNDJSON}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	sc := bufio.NewScanner(&buf)
	count := 0
	var sawClass bool
	for sc.Scan() {
		var n NodeJSON
		if err := json.Unmarshal(sc.Bytes(), &n); err != nil {
			t.Fatalf("line %d: %v", count+1, err)
		}
		count++
		if count == 1 && !n.Root {
			t.Fatalf("first node should be the root: %+v", n)
		}
		if n.Kind == "Class" {
			sawClass = true
			if n.Name != "C" || n.Path != "src/a/C.java" || n.Line != 3 {
				t.Fatalf("unexpected class line: %+v", n)
			}
			if len(n.Edges["members"]) != 1 || len(n.Edges["comments"]) != 1 {
				t.Fatalf("class edges: %v", n.Edges)
			}
		}
	}
	if count != g.Live() {
		t.Fatalf("wrote %d lines for %d live nodes", count, g.Live())
	}
	if !sawClass {
		t.Fatal("class missing from dump")
	}
}
