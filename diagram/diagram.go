// Package diagram renders CFGs and dependency graphs as Mermaid-like
// textual diagrams (§6): directed edges `A --> B`, labeled edges
// `A -->|label| B`, and styled nodes `id["text"]`. This is a convenience
// export only — no guarantees beyond the stated grammar — grounded in
// the pack's Mermaid formatter shape (node-ID sanitization, one line per
// node/edge).
package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/viant/ilscope/cfg"
	"github.com/viant/ilscope/depgraph"
)

// sanitizeID replaces characters Mermaid node IDs cannot contain.
func sanitizeID(id string) string {
	replacer := strings.NewReplacer(
		".", "_", "/", "_", "-", "_", ":", "_",
		"*", "_", " ", "_", "(", "_", ")", "_", "$", "_",
	)
	return replacer.Replace(id)
}

// CFG renders a control-flow graph: one styled node per block (labeled
// with its ID and terminator kind) and one edge per CFG edge, labeled
// with the edge's kind.
func CFG(g *cfg.CFG) string {
	var b strings.Builder
	blocks := append([]*cfg.BasicBlock(nil), g.Blocks...)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })
	for _, block := range blocks {
		label := fmt.Sprintf("%s [%s]", block.ID, block.TerminatorKind)
		fmt.Fprintf(&b, "%s[\"%s\"]\n", sanitizeID(block.ID), label)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "%s -->|%s| %s\n", sanitizeID(e.From), e.Kind, sanitizeID(e.To))
	}
	return b.String()
}

// DependencyGraph renders a depgraph.Graph: one styled node per Graph
// node and one edge per Graph edge, labeled with its kind and weight.
func DependencyGraph(g *depgraph.Graph) string {
	var b strings.Builder
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := g.Nodes[id]
		label := n.Name
		if n.IsExternal {
			label += " (external)"
		}
		fmt.Fprintf(&b, "%s[\"%s\"]\n", sanitizeID(id), label)
	}
	for _, e := range g.Edges {
		label := fmt.Sprintf("%s x%d", e.Kind, e.Weight)
		fmt.Fprintf(&b, "%s -->|%s| %s\n", sanitizeID(e.From), label, sanitizeID(e.To))
	}
	return b.String()
}
