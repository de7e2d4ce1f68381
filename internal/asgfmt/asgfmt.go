// Package asgfmt renders graphs for debugging: an indented containment tree
// or one JSON object per node.
package asgfmt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"

	"asglink/internal/asg"
)

// Format selects the dump layout.
type Format uint8

const (
	FormatTree Format = iota
	FormatNDJSON
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "tree":
		return FormatTree, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatTree, fmt.Errorf("invalid dump format: %q (expected: tree|ndjson)", s)
}

// Options configures a dump.
type Options struct {
	Format Format
	// Width truncates tree lines to this many terminal cells; 0 keeps them whole.
	Width int
	// Refs lists non-containment edges under each node of the tree.
	Refs bool
}

// Dump writes g to w.
func Dump(w io.Writer, g *asg.Graph, opts Options) error {
	bw := bufio.NewWriter(w)
	var err error
	switch opts.Format {
	case FormatNDJSON:
		err = dumpNDJSON(bw, g)
	default:
		err = dumpTree(bw, g, opts)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

// DumpFile writes g to path, replacing the file.
func DumpFile(path string, g *asg.Graph, opts Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return Dump(f, g, opts)
}

// Label renders the one-line summary of a node used by the tree dump.
func Label(h asg.Handle) string {
	n := h.Node()
	if n == nil {
		return fmt.Sprintf("#%d <deleted>", h.ID())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s #%d", n.Kind, h.ID())
	if n.Name != "" {
		sb.WriteString(" ")
		sb.WriteString(n.Name)
	}
	if n.Type != nil && n.Type.Signature != "" {
		sb.WriteString(" : ")
		sb.WriteString(n.Type.Signature)
	}
	if n.Text != "" {
		fmt.Fprintf(&sb, " %q", truncate(n.Text, 32))
	}
	if n.Range != nil && n.Range.Path != "" {
		fmt.Fprintf(&sb, " [%s:%d:%d]", n.Range.Path, n.Range.Line, n.Range.Col)
	}
	if n.IsExternal() {
		sb.WriteString(" external")
	}
	return sb.String()
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
