// Package callgraph builds the inter-procedural call graph from a
// Module's method bodies: direct/virtual/constructor/delegate/lambda/
// reflection edges, virtual-call resolution against a shared type
// hierarchy, and Tarjan-style recursion detection (§4.4).
package callgraph

// EdgeKind discriminates why a call edge exists.
type EdgeKind string

const (
	EdgeDirect      EdgeKind = "direct"
	EdgeVirtual     EdgeKind = "virtual"
	EdgeConstructor EdgeKind = "constructor"
	EdgeDelegate    EdgeKind = "delegate"
	EdgeLambda      EdgeKind = "lambda"
	EdgeReflection  EdgeKind = "reflection"
)

// Edge is one caller-to-callee relationship discovered in a method body.
type Edge struct {
	CallerID           string
	CalleeID           string // empty when the target could not be resolved
	CalleeName         string // "DeclaringType.Name", for display when unresolved
	Kind               EdgeKind
	Offset             int
	RequiresResolution bool     // true for virtual edges pending resolution
	IsPolymorphic      bool     // virtual edges with >1 candidate
	Candidates         []string // virtual edges: candidate callee IDs
	IsCompilerGenerated bool
	IsExternal         bool // callee not defined in this module
}

// CallGraph is the complete, built call graph for one module.
type CallGraph struct {
	Edges []Edge

	byCaller map[string][]Edge
}

// EdgesFrom returns the edges whose caller is callerID, in discovery
// order.
func (g *CallGraph) EdgesFrom(callerID string) []Edge {
	return g.byCaller[callerID]
}
