// Package identity maps node fingerprints and positions to merged-graph ids.
package identity

import (
	"slices"

	"asglink/internal/asg"
	"asglink/internal/fingerprint"
)

type bucket struct {
	order []string // positions in registration order
	ids   map[string]asg.NodeID
}

func (b *bucket) put(pos string, id asg.NodeID) {
	if _, ok := b.ids[pos]; !ok {
		b.order = append(b.order, pos)
	}
	b.ids[pos] = id
}

func (b *bucket) drop(pos string) {
	delete(b.ids, pos)
	b.order = slices.DeleteFunc(b.order, func(p string) bool { return p == pos })
}

// Index is the identity index of one merged graph: (fingerprint, position)
// pairs of dedup-eligible nodes, fingerprints of comment and type nodes, and
// the position index of locals and parameters.
type Index struct {
	policy    fingerprint.Policy
	buckets   map[string]*bucket
	unique    map[string]asg.NodeID
	positions map[string][]asg.NodeID
	placed    map[asg.NodeID]string
}

func New(policy fingerprint.Policy) *Index {
	return &Index{
		policy:    policy,
		buckets:   make(map[string]*bucket),
		unique:    make(map[string]asg.NodeID),
		positions: make(map[string][]asg.NodeID),
		placed:    make(map[asg.NodeID]string),
	}
}

func (x *Index) Policy() fingerprint.Policy { return x.policy }

// Lookup returns the node registered for the exact pair.
func (x *Index) Lookup(fp, pos string) (asg.NodeID, bool) {
	b := x.buckets[fp]
	if b == nil {
		return asg.NoNodeID, false
	}
	id, ok := b.ids[pos]
	return id, ok
}

// Placeholder returns the position-less entry of fp.
func (x *Index) Placeholder(fp string) (asg.NodeID, bool) {
	return x.Lookup(fp, "")
}

// First returns the earliest registered entry of fp.
func (x *Index) First(fp string) (asg.NodeID, bool) {
	b := x.buckets[fp]
	if b == nil || len(b.order) == 0 {
		return asg.NoNodeID, false
	}
	return b.ids[b.order[0]], true
}

func (x *Index) Has(fp string) bool {
	b := x.buckets[fp]
	return b != nil && len(b.order) > 0
}

func (x *Index) LookupUnique(fp string) (asg.NodeID, bool) {
	id, ok := x.unique[fp]
	return id, ok
}

// RegisterUnique records a comment or type node; the first registration wins.
func (x *Index) RegisterUnique(fp string, id asg.NodeID) {
	if _, ok := x.unique[fp]; !ok {
		x.unique[fp] = id
	}
}

// PositionLookup returns the latest live node registered at pos.
func (x *Index) PositionLookup(pos string) (asg.NodeID, bool) {
	ids := x.positions[pos]
	if len(ids) == 0 {
		return asg.NoNodeID, false
	}
	return ids[len(ids)-1], true
}

func (x *Index) putPosition(pos string, id asg.NodeID) {
	ids := slices.DeleteFunc(x.positions[pos], func(v asg.NodeID) bool { return v == id })
	x.positions[pos] = append(ids, id)
	x.placed[id] = pos
}

// Forget drops position index entries of a deleted node, so the entry of an
// older twin at the same position becomes visible again.
func (x *Index) Forget(id asg.NodeID) {
	pos, ok := x.placed[id]
	if !ok {
		return
	}
	delete(x.placed, id)
	ids := slices.DeleteFunc(x.positions[pos], func(v asg.NodeID) bool { return v == id })
	if len(ids) == 0 {
		delete(x.positions, pos)
		return
	}
	x.positions[pos] = ids
}

// Len returns the number of (fingerprint, position) entries.
func (x *Index) Len() int {
	n := 0
	for _, b := range x.buckets {
		n += len(b.order)
	}
	return n
}

// Register indexes h (a node of any graph) under mergedID.
//
// Non-eligible nodes only enter the position index. For eligible nodes a
// position-less placeholder registered earlier under the same id is promoted
// to the real position unless a node with the same fingerprint is being
// created right now (inFlight). Only the first position-less registration of
// a fingerprint is kept.
func (x *Index) Register(h asg.Handle, mergedID asg.NodeID, inFlight func(fp string) bool) error {
	if fingerprint.IsUniqueByFingerprint(h) {
		fp, err := x.policy.Fingerprint(h)
		if err != nil {
			return err
		}
		x.RegisterUnique(fp, mergedID)
		return nil
	}
	if !fingerprint.IsDedupEligible(h) {
		if fingerprint.NeedsPositionFallback(h) {
			if pos := fingerprint.StrictPosition(h); pos != "" {
				x.putPosition(pos, mergedID)
			}
		}
		return nil
	}

	fp, err := x.policy.Fingerprint(h)
	if err != nil {
		return err
	}
	pos := x.policy.Position(h)
	b := x.buckets[fp]
	if b == nil {
		b = &bucket{ids: make(map[string]asg.NodeID)}
		x.buckets[fp] = b
	}

	if pos == "" {
		if len(b.order) == 0 {
			b.put("", mergedID)
		}
		return nil
	}
	if holder, ok := b.ids[""]; ok && holder == mergedID && (inFlight == nil || !inFlight(fp)) {
		b.drop("")
	}
	if _, taken := b.ids[pos]; !taken {
		b.put(pos, mergedID)
	}
	return nil
}
