package callgraph

import "sort"

// RecursionKind discriminates a self-loop from a longer cycle.
type RecursionKind string

const (
	RecursionDirect   RecursionKind = "direct_recursion"
	RecursionIndirect RecursionKind = "indirect_recursion"
)

// Recursion is one cycle discovered in the call graph.
type Recursion struct {
	Kind  RecursionKind
	Cycle []string // method IDs, in DFS discovery order (call order for a simple cycle)
}

// DetectRecursion runs Tarjan's SCC algorithm over the resolved edges of
// g (edges with an empty CalleeID, e.g. unresolved reflection calls, do
// not participate) and reports a Recursion for every self-loop and every
// strongly-connected component of size > 1 (§4.4).
func DetectRecursion(g *CallGraph) []Recursion {
	succ := map[string][]string{}
	nodes := map[string]bool{}
	for _, e := range g.Edges {
		if e.CalleeID == "" {
			continue
		}
		nodes[e.CallerID] = true
		nodes[e.CalleeID] = true
		succ[e.CallerID] = append(succ[e.CallerID], e.CalleeID)
	}

	var ordered []string
	for n := range nodes {
		ordered = append(ordered, n)
	}
	sort.Strings(ordered) // deterministic traversal start order

	t := &tarjan{
		succ:    succ,
		index:   map[string]int{},
		low:     map[string]int{},
		onStack: map[string]bool{},
	}
	for _, n := range ordered {
		if _, seen := t.index[n]; !seen {
			t.strongConnect(n)
		}
	}

	var out []Recursion
	for _, scc := range t.sccs {
		if len(scc) == 1 {
			n := scc[0]
			if containsEdge(succ[n], n) {
				out = append(out, Recursion{Kind: RecursionDirect, Cycle: []string{n}})
			}
			continue
		}
		out = append(out, Recursion{Kind: RecursionIndirect, Cycle: scc})
	}
	return out
}

func containsEdge(targets []string, n string) bool {
	for _, t := range targets {
		if t == n {
			return true
		}
	}
	return false
}

// tarjan is a standard iterative-by-recursion Tarjan SCC finder.
type tarjan struct {
	succ    map[string][]string
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	sccs    [][]string
}

func (t *tarjan) strongConnect(v string) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.succ[v] {
		if _, seen := t.index[w]; !seen {
			t.strongConnect(w)
			if t.low[w] < t.low[v] {
				t.low[v] = t.low[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.low[v] {
				t.low[v] = t.index[w]
			}
		}
	}

	if t.low[v] == t.index[v] {
		var scc []string
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		// popped in reverse discovery order; flip so the cycle follows
		// the call edges from its root
		for i, j := 0, len(scc)-1; i < j; i, j = i+1, j-1 {
			scc[i], scc[j] = scc[j], scc[i]
		}
		t.sccs = append(t.sccs, scc)
	}
}
