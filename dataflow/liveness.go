package dataflow

import (
	"sort"

	"golang.org/x/tools/container/intsets"

	"github.com/viant/ilscope/cfg"
)

// Liveness holds per-block LiveIn/LiveOut local-variable sets.
type Liveness struct {
	LiveIn  map[string][]string
	LiveOut map[string][]string
}

// blockUseDef computes a block's upward-exposed uses and its kills, in
// per-instruction order: a load of a slot not yet defined earlier in the
// block is a use; any store kills the slot for the rest of the block.
func blockUseDef(b *cfg.BasicBlock) (use, def map[int]bool) {
	use = map[int]bool{}
	def = map[int]bool{}
	for _, ins := range b.Instructions {
		acc, ok := classifyLocal(ins)
		if !ok {
			continue
		}
		if acc.isDef {
			def[acc.slot] = true
			continue
		}
		if !def[acc.slot] {
			use[acc.slot] = true
		}
	}
	return
}

// ComputeLiveness runs the classic backward use/def fixpoint (§4.3):
// LiveOut(b) = ∪ LiveIn(s) for s ∈ succ(b); LiveIn(b) = use(b) ∪
// (LiveOut(b) \ def(b)). Iterated to a fixpoint over a bit-vector per
// block keyed by local slot index.
func ComputeLiveness(c *cfg.CFG) *Liveness {
	ids := allBlockIDs(c)
	use := map[string]*intsets.Sparse{}
	def := map[string]*intsets.Sparse{}
	liveIn := map[string]*intsets.Sparse{}
	liveOut := map[string]*intsets.Sparse{}

	for _, id := range ids {
		b, _ := c.Block(id)
		u, d := blockUseDef(b)
		use[id] = toSparse(u)
		def[id] = toSparse(d)
		liveIn[id] = &intsets.Sparse{}
		liveOut[id] = &intsets.Sparse{}
	}

	succ := map[string][]string{}
	for _, e := range c.Edges {
		if e.Kind == cfg.EdgeException {
			continue
		}
		succ[e.From] = append(succ[e.From], e.To)
	}

	order := reversePostOrder(c.EntryBlockID, succ, ids)
	// liveness converges faster walked in reverse of a forward RPO.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	changed := true
	for changed {
		changed = false
		for _, id := range order {
			var out intsets.Sparse
			for _, s := range succ[id] {
				out.UnionWith(liveIn[s])
			}
			var in intsets.Sparse
			in.Copy(&out)
			in.DifferenceWith(def[id])
			in.UnionWith(use[id])

			if !out.Equals(liveOut[id]) {
				liveOut[id] = &out
				changed = true
			}
			if !in.Equals(liveIn[id]) {
				liveIn[id] = &in
				changed = true
			}
		}
	}

	result := &Liveness{LiveIn: map[string][]string{}, LiveOut: map[string][]string{}}
	for _, id := range ids {
		result.LiveIn[id] = namesOf(liveIn[id])
		result.LiveOut[id] = namesOf(liveOut[id])
	}
	return result
}

func toSparse(slots map[int]bool) *intsets.Sparse {
	s := &intsets.Sparse{}
	for slot := range slots {
		s.Insert(slot)
	}
	return s
}

func namesOf(s *intsets.Sparse) []string {
	var out []string
	for _, slot := range s.AppendTo(nil) {
		out = append(out, slotName(slot))
	}
	sort.Strings(out)
	return out
}
