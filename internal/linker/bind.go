package linker

import (
	"slices"

	"asglink/internal/asg"
)

// bind drains the worklist and attaches edges in the merged graph. Entries of
// nodes discarded earlier in the same pass are skipped.
func (r *run) bind() error {
	return r.work.Drain(func(e Entry) error {
		if !r.merged.Exists(e.Merged) {
			return nil
		}
		return splitRaw(e.Kind, e.Raw, func(spec asg.EdgeSpec, raws []asg.NodeID) error {
			if spec.Multi {
				return r.bindList(e, spec, raws)
			}
			return r.bindSingle(e, spec, raws[0])
		})
	})
}

func (r *run) unresolved(e Entry, spec asg.EdgeSpec) error {
	if !spec.Required {
		return nil
	}
	return &asg.NodeError{Op: "bind", ID: e.Merged, Kind: r.merged.Kind(e.Merged), Edge: spec.Edge,
		Err: asg.ErrNodeNotBuilt}
}

func (r *run) bindSingle(e Entry, spec asg.EdgeSpec, raw asg.NodeID) error {
	target, err := r.remap(raw)
	if err != nil {
		return err
	}
	if !target.IsValid() {
		return r.unresolved(e, spec)
	}
	existing := r.merged.Target(e.Merged, spec.Edge)
	if existing == target {
		return nil
	}
	if existing.IsValid() && spec.Arbitrated {
		if !r.preferIncoming(existing, raw) {
			r.discardIncoming(raw)
			return nil
		}
	}
	if err := r.merged.SetTarget(e.Merged, spec.Edge, target); err != nil {
		return err
	}
	r.stats.Bound++
	if existing.IsValid() && spec.Containment {
		r.discardExisting(existing)
	}
	return nil
}

func (r *run) bindList(e Entry, spec asg.EdgeSpec, raws []asg.NodeID) error {
	targets := make([]asg.NodeID, 0, len(raws))
	for _, raw := range raws {
		target, err := r.remap(raw)
		if err != nil {
			return err
		}
		if !target.IsValid() {
			if err := r.unresolved(e, spec); err != nil {
				return err
			}
			continue
		}
		targets = append(targets, target)
	}

	existing := slices.Clone(r.merged.Targets(e.Merged, spec.Edge))
	if spec.Arbitrated && len(existing) > 0 {
		if slices.Equal(existing, targets) {
			return nil
		}
		// lists are replaced as a whole, never concatenated
		if !r.preferIncomingList(existing, raws) {
			for _, raw := range raws {
				r.discardIncoming(raw)
			}
			return nil
		}
		if err := r.merged.SetTargets(e.Merged, spec.Edge, targets); err != nil {
			return err
		}
		r.stats.Bound += len(targets)
		for _, old := range existing {
			if !slices.Contains(targets, old) {
				r.discardExisting(old)
			}
		}
		return nil
	}

	for _, target := range targets {
		if slices.Contains(r.merged.Targets(e.Merged, spec.Edge), target) {
			continue
		}
		if err := r.merged.AppendTarget(e.Merged, spec.Edge, target); err != nil {
			return err
		}
		r.stats.Bound++
	}
	return nil
}
