package cfg

import "fmt"

// computeLoops performs a DFS from the entry block; any edge to an
// ancestor still on the DFS stack is a back-edge (re-typed back_edge),
// and its natural loop body is the set reachable backward from the tail
// without leaving the header, plus the header itself (§4.2).
func computeLoops(c *CFG) {
	if c.EntryBlockID == "" {
		return
	}
	succ := map[string][]string{}
	for _, e := range c.Edges {
		if e.Kind == EdgeException {
			continue
		}
		succ[e.From] = append(succ[e.From], e.To)
	}

	onStack := map[string]bool{}
	visited := map[string]bool{}
	var backEdges []struct{ tail, head string }

	var dfs func(id string)
	dfs = func(id string) {
		visited[id] = true
		onStack[id] = true
		for _, next := range succ[id] {
			if onStack[next] {
				backEdges = append(backEdges, struct{ tail, head string }{tail: id, head: next})
				continue
			}
			if !visited[next] {
				dfs(next)
			}
		}
		onStack[id] = false
	}
	dfs(c.EntryBlockID)

	// re-type back-edges in place
	for _, be := range backEdges {
		for i := range c.Edges {
			if c.Edges[i].From == be.tail && c.Edges[i].To == be.head && c.Edges[i].Kind != EdgeException {
				c.Edges[i].Kind = EdgeBackEdge
				break
			}
		}
	}

	pred := map[string][]string{}
	for from, tos := range succ {
		for _, to := range tos {
			pred[to] = append(pred[to], from)
		}
	}

	// group back-edges by header: a header can have several back-edge
	// sources (e.g. a loop entered at one point, continued from several).
	byHeader := map[string][]string{}
	var headerOrder []string
	for _, be := range backEdges {
		if _, ok := byHeader[be.head]; !ok {
			headerOrder = append(headerOrder, be.head)
		}
		byHeader[be.head] = append(byHeader[be.head], be.tail)
	}

	var loops []*LoopInfo
	for _, header := range headerOrder {
		tails := byHeader[header]
		body := map[string]bool{header: true}
		var worklist []string
		for _, tail := range tails {
			if !body[tail] {
				body[tail] = true
				worklist = append(worklist, tail)
			}
		}
		for len(worklist) > 0 {
			n := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for _, p := range pred[n] {
				if !body[p] {
					body[p] = true
					worklist = append(worklist, p)
				}
			}
		}
		bodyIDs := make([]string, 0, len(body))
		for _, b := range c.Blocks {
			if body[b.ID] {
				bodyIDs = append(bodyIDs, b.ID)
			}
		}
		var exits []string
		for _, id := range bodyIDs {
			for _, s := range succ[id] {
				if !body[s] {
					exits = append(exits, id)
					break
				}
			}
		}
		loops = append(loops, &LoopInfo{
			LoopID:          fmt.Sprintf("loop%d", len(loops)),
			HeaderID:        header,
			BodyIDs:         bodyIDs,
			BackEdgeSources: tails,
			ExitIDs:         exits,
		})
	}

	// nesting by subset containment: A nested in B iff A.body ⊊ B.body;
	// the immediate parent is the smallest such B.
	bodySet := func(l *LoopInfo) map[string]bool {
		s := map[string]bool{}
		for _, id := range l.BodyIDs {
			s[id] = true
		}
		return s
	}
	sets := make([]map[string]bool, len(loops))
	for i, l := range loops {
		sets[i] = bodySet(l)
	}
	isProperSubset := func(a, b map[string]bool) bool {
		if len(a) >= len(b) {
			return false
		}
		for k := range a {
			if !b[k] {
				return false
			}
		}
		return true
	}
	for i, l := range loops {
		var parent *LoopInfo
		for j, other := range loops {
			if i == j {
				continue
			}
			if isProperSubset(sets[i], sets[j]) {
				if parent == nil || len(sets[j]) < len(bodySet(parent)) {
					parent = other
				}
			}
		}
		if parent != nil {
			l.ParentLoopID = parent.LoopID
		}
	}
	levelOf := make(map[string]int)
	var level func(l *LoopInfo) int
	byID := map[string]*LoopInfo{}
	for _, l := range loops {
		byID[l.LoopID] = l
	}
	level = func(l *LoopInfo) int {
		if v, ok := levelOf[l.LoopID]; ok {
			return v
		}
		if l.ParentLoopID == "" {
			levelOf[l.LoopID] = 0
			return 0
		}
		v := level(byID[l.ParentLoopID]) + 1
		levelOf[l.LoopID] = v
		return v
	}
	for _, l := range loops {
		l.NestingLevel = level(l)
	}

	for _, l := range loops {
		for _, id := range l.BodyIDs {
			if id == l.HeaderID {
				if b, ok := c.blockByID[id]; ok {
					b.IsLoopHeader = true
					b.LoopID = l.LoopID
				}
			}
		}
	}

	c.Loops = loops
}
