package linker

import (
	"asglink/internal/asg"
	"asglink/internal/fingerprint"
)

// remap translates a source id into the merged id of its counterpart. The
// cache filled by the merge pass answers almost every call; entries pointing
// at nodes discarded since then are resolved again through the index.
// NoNodeID with a nil error means the target has no counterpart.
func (r *run) remap(raw asg.NodeID) (asg.NodeID, error) {
	if !raw.IsValid() {
		return asg.NoNodeID, nil
	}
	if id, ok := r.cache[raw]; ok && r.merged.Exists(id) {
		return id, nil
	}
	id, err := r.resolve(raw)
	if err != nil {
		return asg.NoNodeID, err
	}
	if id.IsValid() {
		r.cache[raw] = id
	} else {
		delete(r.cache, raw)
	}
	return id, nil
}

func (r *run) resolve(raw asg.NodeID) (asg.NodeID, error) {
	h := r.source.Handle(raw)
	if !h.Valid() {
		return asg.NoNodeID, &asg.NodeError{Op: "remap", ID: raw, Err: asg.ErrNodeNotExist}
	}
	policy := r.index.Policy()
	var (
		id asg.NodeID
		ok bool
	)
	switch {
	case fingerprint.IsUniqueByFingerprint(h):
		fp, err := policy.Fingerprint(h)
		if err != nil {
			return asg.NoNodeID, err
		}
		id, ok = r.index.LookupUnique(fp)
	case fingerprint.IsDedupEligible(h):
		fp, err := policy.Fingerprint(h)
		if err != nil {
			return asg.NoNodeID, err
		}
		id, ok = r.index.Lookup(fp, policy.Position(h))
	case fingerprint.NeedsPositionFallback(h):
		id, ok = r.index.PositionLookup(fingerprint.StrictPosition(h))
	}
	if !ok || !r.merged.Exists(id) {
		return asg.NoNodeID, nil
	}
	return id, nil
}
