package dataflow

import (
	"sort"

	"golang.org/x/tools/container/intsets"

	"github.com/viant/ilscope/cfg"
)

// virtualExitID is the synthetic sink node used by post-dominance (§4.3):
// it is not a real cfg.BasicBlock ID, so it can never collide.
const virtualExitID = "$virtual_exit"

// DominatorTree is either a dominator tree (IsPost=false) or a
// post-dominator tree (IsPost=true) over a CFG. Dominance frontiers are
// computed separately (DominanceFrontier, CFGDominanceFrontier).
type DominatorTree struct {
	IsPost   bool
	Entry    string              // entry node (or virtualExitID for post-dominance)
	IDom     map[string]string   // block -> immediate dominator; empty for Entry
	DomSet   map[string][]string // block -> all dominators (includes self)
	Children map[string][]string // idom -> immediate children, sorted by ID
}

// adjacency is the normal-edge (non-exception) successor/predecessor map
// used by both dominance directions.
type adjacency struct {
	succ map[string][]string
	pred map[string][]string
}

func buildAdjacency(c *cfg.CFG) adjacency {
	a := adjacency{succ: map[string][]string{}, pred: map[string][]string{}}
	for _, e := range c.Edges {
		if e.Kind == cfg.EdgeException {
			continue
		}
		a.succ[e.From] = append(a.succ[e.From], e.To)
		a.pred[e.To] = append(a.pred[e.To], e.From)
	}
	return a
}

// reversed swaps succ/pred, for post-dominance.
func (a adjacency) reversed() adjacency {
	return adjacency{succ: a.pred, pred: a.succ}
}

// reversePostOrder returns blocks reachable from root in reverse
// postorder, followed by any unreached blocks (kept for determinism: a
// block with no path from root still gets a trivial {self} dominator
// set instead of being silently dropped).
func reversePostOrder(root string, succ map[string][]string, all []string) []string {
	visited := map[string]bool{}
	var post []string
	var dfs func(n string)
	dfs = func(n string) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, s := range succ[n] {
			dfs(s)
		}
		post = append(post, n)
	}
	dfs(root)
	rpo := make([]string, len(post))
	for i, n := range post {
		rpo[len(post)-1-i] = n
	}
	for _, n := range all {
		if !visited[n] {
			rpo = append(rpo, n)
		}
	}
	return rpo
}

// computeGeneric runs the iterative dominator fixpoint (§4.3:
// dom(entry)={entry}, dom(b)={b} ∪ ∩ dom(p) for p ∈ preds(b)) over the
// given adjacency, using an intsets.Sparse bit-vector per node to keep
// the fixpoint cheap even on large methods.
func computeGeneric(entry string, adj adjacency, allNodes []string) *DominatorTree {
	idx := map[string]int{}
	names := make([]string, len(allNodes))
	for i, n := range allNodes {
		idx[n] = i
		names[i] = n
	}
	full := &intsets.Sparse{}
	for i := range allNodes {
		full.Insert(i)
	}

	dom := make([]*intsets.Sparse, len(allNodes))
	for i, n := range allNodes {
		s := &intsets.Sparse{}
		if n == entry {
			s.Insert(i)
		} else {
			s.Copy(full)
		}
		dom[i] = s
	}

	order := reversePostOrder(entry, adj.succ, allNodes)

	changed := true
	for changed {
		changed = false
		for _, n := range order {
			if n == entry {
				continue
			}
			ni := idx[n]
			preds := adj.pred[n]
			if len(preds) == 0 {
				continue
			}
			var merged intsets.Sparse
			first := true
			for _, p := range preds {
				pi, ok := idx[p]
				if !ok {
					continue
				}
				if first {
					merged.Copy(dom[pi])
					first = false
					continue
				}
				merged.IntersectionWith(dom[pi])
			}
			if first {
				continue
			}
			merged.Insert(ni)
			if !merged.Equals(dom[ni]) {
				dom[ni] = &merged
				changed = true
			}
		}
	}

	tree := &DominatorTree{
		Entry:    entry,
		IDom:     map[string]string{},
		DomSet:   map[string][]string{},
		Children: map[string][]string{},
	}
	for i, n := range allNodes {
		var set []string
		for _, m := range dom[i].AppendTo(nil) {
			set = append(set, names[m])
		}
		sort.Strings(set)
		tree.DomSet[n] = set
	}
	for i, n := range allNodes {
		if n == entry {
			continue
		}
		best := -1
		bestSize := -1
		for _, m := range dom[i].AppendTo(nil) {
			if m == i {
				continue
			}
			sz := dom[m].Len()
			if sz > bestSize || (sz == bestSize && names[m] < names[best]) {
				best = m
				bestSize = sz
			}
		}
		if best >= 0 {
			tree.IDom[n] = names[best]
			tree.Children[names[best]] = append(tree.Children[names[best]], n)
		}
	}
	for _, kids := range tree.Children {
		sort.Strings(kids)
	}
	return tree
}

func allBlockIDs(c *cfg.CFG) []string {
	ids := make([]string, len(c.Blocks))
	for i, b := range c.Blocks {
		ids[i] = b.ID
	}
	return ids
}

// ComputeDominators builds the dominator tree over c's normal edges.
func ComputeDominators(c *cfg.CFG) *DominatorTree {
	adj := buildAdjacency(c)
	return computeGeneric(c.EntryBlockID, adj, allBlockIDs(c))
}

// ComputePostDominators builds the post-dominator tree: the same
// computation on the reverse graph, with a virtual exit node that sinks
// every cfg.ExitBlockID (§4.3).
func ComputePostDominators(c *cfg.CFG) *DominatorTree {
	adj := buildAdjacency(c)
	rev := adj.reversed()
	rev.succ[virtualExitID] = append([]string{}, c.ExitBlockIDs...)
	for _, exit := range c.ExitBlockIDs {
		rev.pred[exit] = append(rev.pred[exit], virtualExitID)
	}
	nodes := append(append([]string{}, allBlockIDs(c)...), virtualExitID)
	tree := computeGeneric(virtualExitID, rev, nodes)
	tree.IsPost = true
	return tree
}

// DominanceFrontier computes DF(n) for every node per §4.3: for each
// block b with ≥2 predecessors, for each predecessor p, walk
// runner := p; while runner != idom(b) { DF(runner) += b; runner =
// idom(runner) }.
func DominanceFrontier(tree *DominatorTree, adj func() adjacency) map[string][]string {
	a := adj()
	df := map[string]map[string]bool{}
	for b, preds := range a.pred {
		if len(preds) < 2 {
			continue
		}
		idomB := tree.IDom[b]
		for _, p := range preds {
			runner := p
			for runner != "" && runner != idomB {
				if df[runner] == nil {
					df[runner] = map[string]bool{}
				}
				df[runner][b] = true
				next, ok := tree.IDom[runner]
				if !ok {
					break
				}
				runner = next
			}
		}
	}
	out := map[string][]string{}
	for n, set := range df {
		var list []string
		for m := range set {
			list = append(list, m)
		}
		sort.Strings(list)
		out[n] = list
	}
	return out
}

// CFGDominanceFrontier computes the CFG dominance frontier (entry
// dominator direction).
func CFGDominanceFrontier(c *cfg.CFG, tree *DominatorTree) map[string][]string {
	return DominanceFrontier(tree, func() adjacency { return buildAdjacency(c) })
}

// ControlDependence is the post-dominator frontier: from each branching
// block b and each successor s, walk upward in the post-dominator tree
// until b's immediate post-dominator, adding every visited node before
// it to controlDep(b) (§4.3). Equivalently, it is the dominance frontier of
// the post-dominator tree over the reversed graph.
func ControlDependence(c *cfg.CFG, postDom *DominatorTree) map[string][]string {
	adj := buildAdjacency(c)
	out := map[string][]string{}
	for _, b := range allBlockIDs(c) {
		succs := adj.succ[b]
		if len(succs) < 2 {
			continue
		}
		seen := map[string]bool{}
		stop := postDom.IDom[b]
		for _, s := range succs {
			runner := s
			for runner != stop {
				if seen[runner] {
					break
				}
				seen[runner] = true
				next, ok := postDom.IDom[runner]
				if !ok {
					break
				}
				runner = next
			}
		}
		var list []string
		for n := range seen {
			list = append(list, n)
		}
		sort.Strings(list)
		out[b] = list
	}
	return out
}

func postDominates(postDom *DominatorTree, a, b string) bool {
	for _, d := range postDom.DomSet[b] {
		if d == a {
			return true
		}
	}
	return false
}
