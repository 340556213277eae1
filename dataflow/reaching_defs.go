package dataflow

import (
	"fmt"
	"sort"

	"golang.org/x/tools/container/intsets"

	"github.com/viant/ilscope/cfg"
)

// Definition is one store-to-local site.
type Definition struct {
	ID      string // "<blockID>@<offset>"
	BlockID string
	Offset  int
	Slot    int
}

// ReachingDefs holds per-block ReachIn/ReachOut definition-site sets.
type ReachingDefs struct {
	Defs     []Definition
	ReachIn  map[string][]string
	ReachOut map[string][]string
}

// ComputeReachingDefinitions runs the forward gen/kill fixpoint (§4.3):
// ReachOut(b) = gen(b) ∪ (ReachIn(b) \ kill(b)); ReachIn(b) = ∪
// ReachOut(p) for p ∈ preds(b). gen(b) keeps only the last definition of
// each slot within b (earlier same-slot defs in the same block are
// locally killed); kill(b) is every definition of a slot b defines,
// anywhere else in the method.
func ComputeReachingDefinitions(c *cfg.CFG) *ReachingDefs {
	ids := allBlockIDs(c)

	var all []Definition
	idxOf := map[string]int{}
	slotDefs := map[int][]int{} // slot -> indices into all

	for _, id := range ids {
		b, _ := c.Block(id)
		for _, ins := range b.Instructions {
			acc, ok := classifyLocal(ins)
			if !ok || !acc.isDef {
				continue
			}
			d := Definition{ID: fmt.Sprintf("%s@%d", id, ins.Offset), BlockID: id, Offset: ins.Offset, Slot: acc.slot}
			idxOf[d.ID] = len(all)
			slotDefs[acc.slot] = append(slotDefs[acc.slot], len(all))
			all = append(all, d)
		}
	}

	gen := map[string]*intsets.Sparse{}
	kill := map[string]*intsets.Sparse{}
	for _, id := range ids {
		gen[id] = &intsets.Sparse{}
		kill[id] = &intsets.Sparse{}
	}

	lastInBlock := map[string]map[int]int{} // block -> slot -> index into all (last def)
	for i, d := range all {
		if lastInBlock[d.BlockID] == nil {
			lastInBlock[d.BlockID] = map[int]int{}
		}
		lastInBlock[d.BlockID][d.Slot] = i
	}
	for blockID, bySlot := range lastInBlock {
		for _, i := range bySlot {
			gen[blockID].Insert(i)
		}
	}
	for _, id := range ids {
		definedSlots := map[int]bool{}
		for slot := range lastInBlock[id] {
			definedSlots[slot] = true
		}
		for slot := range definedSlots {
			for _, i := range slotDefs[slot] {
				if all[i].BlockID != id {
					kill[id].Insert(i)
				}
			}
		}
	}

	reachIn := map[string]*intsets.Sparse{}
	reachOut := map[string]*intsets.Sparse{}
	for _, id := range ids {
		reachIn[id] = &intsets.Sparse{}
		reachOut[id] = &intsets.Sparse{}
	}

	succ := map[string][]string{}
	pred := map[string][]string{}
	for _, e := range c.Edges {
		if e.Kind == cfg.EdgeException {
			continue
		}
		succ[e.From] = append(succ[e.From], e.To)
		pred[e.To] = append(pred[e.To], e.From)
	}
	order := reversePostOrder(c.EntryBlockID, succ, ids)

	changed := true
	for changed {
		changed = false
		for _, id := range order {
			var in intsets.Sparse
			for _, p := range pred[id] {
				in.UnionWith(reachOut[p])
			}
			var out intsets.Sparse
			out.Copy(&in)
			out.DifferenceWith(kill[id])
			out.UnionWith(gen[id])

			if !in.Equals(reachIn[id]) {
				reachIn[id] = &in
				changed = true
			}
			if !out.Equals(reachOut[id]) {
				reachOut[id] = &out
				changed = true
			}
		}
	}

	result := &ReachingDefs{Defs: all, ReachIn: map[string][]string{}, ReachOut: map[string][]string{}}
	for _, id := range ids {
		result.ReachIn[id] = defIDsOf(all, reachIn[id])
		result.ReachOut[id] = defIDsOf(all, reachOut[id])
	}
	return result
}

func defIDsOf(all []Definition, s *intsets.Sparse) []string {
	var out []string
	for _, i := range s.AppendTo(nil) {
		out = append(out, all[i].ID)
	}
	sort.Strings(out)
	return out
}
