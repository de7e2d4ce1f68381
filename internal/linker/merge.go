package linker

import (
	"fmt"

	"asglink/internal/asg"
	"asglink/internal/fingerprint"
)

// merge visits the source graph: the containment tree from the root first,
// so containers are merged before their members, then every node the tree
// does not reach, in id order.
func (r *run) merge() error {
	if err := r.visitTree(r.source.Handle(r.source.Root())); err != nil {
		return err
	}
	var err error
	r.source.Each(func(id asg.NodeID, _ *asg.Node) {
		if err != nil {
			return
		}
		err = r.visitTree(r.source.Handle(id))
	})
	if err != nil {
		return err
	}
	if root := r.source.Root(); !r.merged.Root().IsValid() && root.IsValid() {
		r.merged.SetRoot(r.cache[root])
	}
	return nil
}

func (r *run) visitTree(h asg.Handle) error {
	if !h.Valid() {
		return nil
	}
	if _, ok := r.visited[h.ID()]; ok {
		return nil
	}
	r.visited[h.ID()] = struct{}{}

	fp, created, err := r.visit(h)
	if err != nil {
		return err
	}
	if created && fp != "" {
		r.inFlight[fp]++
		defer func() {
			if r.inFlight[fp]--; r.inFlight[fp] == 0 {
				delete(r.inFlight, fp)
			}
		}()
	}
	for _, child := range h.Children() {
		if err := r.visitTree(child); err != nil {
			return err
		}
	}
	return nil
}

// visit merges one source node and queues its edges for binding. It returns
// the fingerprint of dedup-eligible nodes and whether a node was created.
func (r *run) visit(h asg.Handle) (string, bool, error) {
	r.stats.Visited++
	src := h.Node()
	res, err := r.lookupOrCreate(h)
	if err != nil {
		return "", false, err
	}
	r.cache[h.ID()] = res.id

	if res.update {
		dst, err := r.merged.Node(res.id)
		if err != nil {
			return "", false, err
		}
		asg.CopyAttributes(dst, src)
		if err := r.index.Register(h, res.id, r.isInFlight); err != nil {
			return "", false, err
		}
	}
	if len(asg.Schema(src.Kind)) > 0 {
		r.work.Push(Entry{Merged: res.id, Source: h.ID(), Kind: src.Kind, Raw: collectRaw(src)})
	}
	return res.fp, res.created, nil
}

func (r *run) isInFlight(fp string) bool { return r.inFlight[fp] > 0 }

type lookup struct {
	id      asg.NodeID
	fp      string
	update  bool
	created bool
}

// lookupOrCreate finds the merged counterpart of h:
//
//  1. comment and type nodes are shared by fingerprint alone;
//  2. nodes that are not dedup-eligible are always created fresh;
//  3. an exact (fingerprint, position) hit is reused;
//  4. a positioned node claims the position-less placeholder of its
//     fingerprint, unless a node with that fingerprint is being created;
//  5. a position-less node reuses the first node of its fingerprint;
//  6. otherwise a new node is created.
//
// Attributes are copied only when the source node carries a position or the
// node is new, so a stub never overwrites a resolved declaration.
func (r *run) lookupOrCreate(h asg.Handle) (lookup, error) {
	kind := h.Kind()
	policy := r.index.Policy()

	if fingerprint.IsUniqueByFingerprint(h) {
		fp, err := policy.Fingerprint(h)
		if err != nil {
			return lookup{}, err
		}
		if id, ok := r.index.LookupUnique(fp); ok && r.merged.Exists(id) {
			r.stats.Reused++
			// a resolved type replaces the attributes of a stub it met first
			update := fingerprint.IsStub(r.merged.Handle(id)) && !fingerprint.IsStub(h)
			return lookup{id: id, update: update}, r.fit(id, kind)
		}
		return r.create(kind, ""), nil
	}
	if !fingerprint.IsDedupEligible(h) {
		return r.create(kind, ""), nil
	}

	fp, err := policy.Fingerprint(h)
	if err != nil {
		return lookup{}, err
	}
	pos := policy.Position(h)

	if id, ok := r.index.Lookup(fp, pos); ok && r.merged.Exists(id) {
		r.stats.Reused++
		return lookup{id: id, fp: fp, update: pos != ""}, r.fit(id, kind)
	}
	if pos != "" && !r.isInFlight(fp) {
		if id, ok := r.index.Placeholder(fp); ok && r.merged.Exists(id) {
			r.stats.Promoted++
			return lookup{id: id, fp: fp, update: true}, r.fit(id, kind)
		}
	}
	if pos == "" {
		if id, ok := r.index.First(fp); ok && r.merged.Exists(id) {
			r.stats.Reused++
			return lookup{id: id, fp: fp}, r.fit(id, kind)
		}
	}
	return r.create(kind, fp), nil
}

func (r *run) create(kind asg.Kind, fp string) lookup {
	r.stats.Created++
	return lookup{id: r.merged.NewNode(kind), fp: fp, update: true, created: true}
}

// fit reconciles the kind of a reused node with the incoming kind. A plain
// class or method is widened to its generic variant; a generic node absorbs
// a plain one as is.
func (r *run) fit(id asg.NodeID, kind asg.Kind) error {
	have := r.merged.Kind(id)
	switch {
	case have == kind, kind.WidensTo(have):
		return nil
	case have.WidensTo(kind):
		r.stats.Widened++
		return r.merged.Widen(id, kind)
	}
	return &asg.NodeError{Op: "merge", ID: id, Kind: have,
		Err: fmt.Errorf("%w: %s into %s", asg.ErrCannotCastNode, kind, have)}
}
