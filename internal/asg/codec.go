package asg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/minio/highwayhash"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	fileMagic = "ASGL"
	// SchemaVersion must be incremented when the node encoding changes.
	SchemaVersion uint16 = 1
)

var checksumKey = []byte("asglink-node-table-checksum-key!")

// prelude is decoded on its own by ReadHeader.
type prelude struct {
	Schema   uint16 `msgpack:"schema"`
	Root     NodeID `msgpack:"root"`
	Header   Header `msgpack:"header"`
	Count    uint32 `msgpack:"count"`
	Checksum uint64 `msgpack:"checksum"`
}

func checksum(data []byte) (uint64, error) {
	h, err := highwayhash.New64(checksumKey)
	if err != nil {
		return 0, err
	}
	_, err = h.Write(data)
	return h.Sum64(), err
}

// Encode writes g as: magic, prelude, node table blob.
func Encode(w io.Writer, g *Graph) error {
	blob, err := msgpack.Marshal(g.nodes.Slice())
	if err != nil {
		return fmt.Errorf("encode node table: %w", err)
	}
	sum, err := checksum(blob)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	enc := msgpack.NewEncoder(bw)
	if err := enc.EncodeString(fileMagic); err != nil {
		return err
	}
	p := prelude{
		Schema:   SchemaVersion,
		Root:     g.root,
		Header:   g.header,
		Count:    g.nodes.Len(),
		Checksum: sum,
	}
	if err := enc.Encode(&p); err != nil {
		return err
	}
	if err := enc.EncodeBytes(blob); err != nil {
		return err
	}
	return bw.Flush()
}

func decodePrelude(dec *msgpack.Decoder) (prelude, error) {
	magic, err := dec.DecodeString()
	if err != nil || magic != fileMagic {
		return prelude{}, ErrBadMagic
	}
	var p prelude
	if err := dec.Decode(&p); err != nil {
		return prelude{}, fmt.Errorf("decode header: %w", err)
	}
	if p.Schema != SchemaVersion {
		return prelude{}, fmt.Errorf("%w: %d", ErrSchema, p.Schema)
	}
	return p, nil
}

// Decode reads a graph written by Encode and verifies its checksum.
func Decode(r io.Reader) (*Graph, error) {
	dec := msgpack.NewDecoder(bufio.NewReader(r))
	p, err := decodePrelude(dec)
	if err != nil {
		return nil, err
	}
	blob, err := dec.DecodeBytes()
	if err != nil {
		return nil, fmt.Errorf("decode node table: %w", err)
	}
	sum, err := checksum(blob)
	if err != nil {
		return nil, err
	}
	if sum != p.Checksum {
		return nil, ErrChecksum
	}
	var nodes []Node
	if err := msgpack.Unmarshal(blob, &nodes); err != nil {
		return nil, fmt.Errorf("decode node table: %w", err)
	}
	count, err := safecast.Conv[uint32](len(nodes))
	if err != nil || count != p.Count {
		return nil, fmt.Errorf("decode node table: expected %d nodes, got %d", p.Count, len(nodes))
	}

	g := New(uint(count))
	for i := range nodes {
		n := nodes[i]
		if !n.Kind.Valid() {
			n = Node{}
		} else {
			want := len(schemas[n.Kind])
			if len(n.Edges) > want {
				return nil, nodeErr("decode", NodeID(i+1), n.Kind, EdgeNone,
					fmt.Errorf("%w: %d edge slots, schema has %d", ErrCannotCastNode, len(n.Edges), want))
			}
			for len(n.Edges) < want {
				n.Edges = append(n.Edges, nil)
			}
			g.live++
		}
		g.nodes.Allocate(n)
	}
	g.root = p.Root
	if p.Header != nil {
		g.header = p.Header
	}
	return g, nil
}

// Load reads a graph file.
func Load(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ReadHeader decodes only the header of a graph file.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	p, err := decodePrelude(msgpack.NewDecoder(bufio.NewReader(f)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Header == nil {
		p.Header = Header{}
	}
	return p.Header, nil
}

// Save writes g to path through a temporary file and an atomic rename.
func Save(path string, g *Graph) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".asg-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err = Encode(f, g); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	err = os.Rename(f.Name(), path)
	return err
}
