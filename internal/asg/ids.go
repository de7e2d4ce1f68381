package asg

// NodeID addresses a node inside exactly one Graph.
type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }
