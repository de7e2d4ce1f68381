package linker

import (
	"asglink/internal/asg"
	"asglink/internal/fingerprint"
)

// preferIncoming decides a single arbitrated edge that already has a target.
// A resolved subtree beats a stub; between equals the subtree with the longer
// rendered type names wins, and a tie keeps what is there. The incoming side
// is rendered from the source graph because its merged copy is not bound yet.
func (r *run) preferIncoming(existing, raw asg.NodeID) bool {
	old := r.merged.Handle(existing)
	incoming := r.source.Handle(raw)
	if oldStub, newStub := fingerprint.IsStub(old), fingerprint.IsStub(incoming); oldStub != newStub {
		return oldStub
	}
	return len(fingerprint.SubtreeTypeName(incoming)) > len(fingerprint.SubtreeTypeName(old))
}

// preferIncomingList decides an arbitrated list. A list whose first element
// is a stub loses against one whose first element is not.
func (r *run) preferIncomingList(existing, raws []asg.NodeID) bool {
	old := make([]asg.Handle, len(existing))
	for i, id := range existing {
		old[i] = r.merged.Handle(id)
	}
	incoming := make([]asg.Handle, len(raws))
	for i, id := range raws {
		incoming[i] = r.source.Handle(id)
	}
	if oldStub, newStub := fingerprint.IsStub(old[0]), fingerprint.IsStub(incoming[0]); oldStub != newStub {
		return oldStub
	}
	return len(fingerprint.ListTypeName(incoming)) > len(fingerprint.ListTypeName(old))
}

// shared nodes are reachable from other subtrees and survive a discarded one.
func shared(h asg.Handle) bool {
	return fingerprint.IsDedupEligible(h) || fingerprint.IsUniqueByFingerprint(h)
}

// discardIncoming deletes the merged copies of a losing incoming subtree.
func (r *run) discardIncoming(raw asg.NodeID) {
	var doomed []asg.NodeID
	seen := make(map[asg.NodeID]struct{})
	var walk func(asg.Handle)
	walk = func(h asg.Handle) {
		if !h.Valid() || shared(h) {
			return
		}
		if _, ok := seen[h.ID()]; ok {
			return
		}
		seen[h.ID()] = struct{}{}
		if id, ok := r.cache[h.ID()]; ok && r.merged.Exists(id) {
			doomed = append(doomed, id)
		}
		for _, child := range h.Children() {
			walk(child)
		}
	}
	walk(r.source.Handle(raw))
	for i := len(doomed) - 1; i >= 0; i-- {
		r.drop(doomed[i])
	}
}

// discardExisting deletes a losing subtree of the merged graph.
func (r *run) discardExisting(id asg.NodeID) {
	if shared(r.merged.Handle(id)) {
		return
	}
	for _, gone := range r.merged.DeleteSubtree(id, shared) {
		r.index.Forget(gone)
		r.stats.Discarded++
	}
}

func (r *run) drop(id asg.NodeID) {
	r.merged.Delete(id)
	r.index.Forget(id)
	r.stats.Discarded++
}
