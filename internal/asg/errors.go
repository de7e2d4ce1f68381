package asg

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotBuilt is returned when a required edge target was never merged.
	ErrNodeNotBuilt = errors.New("node not built")
	// ErrNodeNotExist is returned for ids that address no live slot of a graph.
	ErrNodeNotExist = errors.New("node does not exist")
	// ErrCannotCastNode is returned when a node's kind does not fit the expected shape.
	ErrCannotCastNode = errors.New("cannot cast node")
	// ErrWrongParameterNode is returned when a parameter has no normal-method owner.
	ErrWrongParameterNode = errors.New("parameter is not owned by a normal method")

	ErrBadMagic = errors.New("not an asg file")
	ErrChecksum = errors.New("node table checksum mismatch")
	ErrSchema   = errors.New("unsupported asg schema version")
)

// NodeError attaches the node and edge an operation failed on.
type NodeError struct {
	Op   string
	ID   NodeID
	Kind Kind
	Edge EdgeKind
	Err  error
}

func (e *NodeError) Error() string {
	msg := fmt.Sprintf("%s: node %d", e.Op, e.ID)
	if e.Kind != KindInvalid {
		msg += " (" + e.Kind.String() + ")"
	}
	if e.Edge != EdgeNone {
		msg += " edge " + e.Edge.String()
	}
	return msg + ": " + e.Err.Error()
}

func (e *NodeError) Unwrap() error { return e.Err }

func nodeErr(op string, id NodeID, kind Kind, edge EdgeKind, err error) error {
	return &NodeError{Op: op, ID: id, Kind: kind, Edge: edge, Err: err}
}
