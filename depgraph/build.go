package depgraph

import (
	"strings"

	"github.com/viant/ilscope/index"
	"github.com/viant/ilscope/model"
)

func isSystemType(fullName string) bool {
	return strings.HasPrefix(fullName, "System.") || strings.HasPrefix(fullName, "Microsoft.")
}

func namespaceOf(types *index.TypeIndex, fullName string) string {
	if te, ok := types.ByFullName(fullName); ok {
		return te.Namespace
	}
	if i := strings.LastIndexByte(fullName, '.'); i >= 0 {
		return fullName[:i]
	}
	return fullName
}

// Build constructs the dependency graph at level from m's types. When
// rootType is non-empty, the graph is pruned by a breadth-first walk
// from rootType out to maxDepth edge hops (maxDepth ≤ 0 means
// unlimited) — the "type depth limit caps recursive type expansion"
// control §4.6 calls out.
func Build(m *model.Module, types *index.TypeIndex, level Level, rootType string, maxDepth int) *Graph {
	typeGraph := buildTypeLevel(m, types)
	if rootType != "" {
		typeGraph = pruneByDepth(typeGraph, rootType, maxDepth)
	}
	if level == LevelType {
		return typeGraph
	}
	return aggregate(typeGraph, level, types)
}

func buildTypeLevel(m *model.Module, types *index.TypeIndex) *Graph {
	g := newGraph(LevelType)

	var walk func(t *model.TypeDef)
	walk = func(t *model.TypeDef) {
		_, isLocal := types.ByFullName(t.FullName)
		g.node(t.FullName, t.FullName, !isLocal)

		if t.BaseType != "" {
			_, baseLocal := types.ByFullName(t.BaseType)
			g.node(t.BaseType, t.BaseType, !baseLocal)
			g.addEdge(t.FullName, t.BaseType, EdgeInheritance, false)
		}
		for _, iface := range t.Interfaces {
			_, ifaceLocal := types.ByFullName(iface)
			g.node(iface, iface, !ifaceLocal)
			g.addEdge(t.FullName, iface, EdgeImplementation, false)
		}

		usage := func(target string) {
			if target == "" || isSystemType(target) {
				return
			}
			_, local := types.ByFullName(target)
			g.node(target, target, !local)
			g.addEdge(t.FullName, target, EdgeUsage, false)
		}
		for _, f := range t.Fields {
			usage(f.FieldType)
		}
		for _, meth := range t.Methods {
			usage(meth.ReturnType)
			for _, p := range meth.Parameters {
				usage(p.Type)
			}
			if meth.Body == nil {
				continue
			}
			for _, lv := range meth.Body.LocalVariables {
				usage(lv.Type)
			}
			for _, ins := range meth.Body.Instructions {
				switch ins.Operand.Kind {
				case model.OperandTypeRef:
					usage(ins.Operand.TypeRef)
				case model.OperandMethodRef:
					if ins.Operand.MethodRef != nil {
						usage(ins.Operand.MethodRef.DeclaringType)
					}
				case model.OperandFieldRef:
					if ins.Operand.FieldRef != nil {
						usage(ins.Operand.FieldRef.DeclaringType)
					}
				}
			}
		}
		for _, nested := range t.NestedTypes {
			walk(nested)
		}
	}
	for _, t := range m.Types {
		walk(t)
	}
	return g
}

// pruneByDepth keeps only nodes within maxDepth hops of rootType and the
// edges between them.
func pruneByDepth(g *Graph, rootType string, maxDepth int) *Graph {
	if _, ok := g.Nodes[rootType]; !ok {
		return newGraph(LevelType)
	}
	succ := map[string][]*Edge{}
	for _, e := range g.Edges {
		succ[e.From] = append(succ[e.From], e)
	}

	depth := map[string]int{rootType: 0}
	queue := []string{rootType}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if maxDepth > 0 && depth[cur] >= maxDepth {
			continue
		}
		for _, e := range succ[cur] {
			if _, seen := depth[e.To]; !seen {
				depth[e.To] = depth[cur] + 1
				queue = append(queue, e.To)
			}
		}
	}

	out := newGraph(LevelType)
	for id := range depth {
		n := g.Nodes[id]
		out.node(n.ID, n.Name, n.IsExternal)
	}
	for _, e := range g.Edges {
		if _, okFrom := depth[e.From]; !okFrom {
			continue
		}
		if _, okTo := depth[e.To]; !okTo {
			continue
		}
		for i := 0; i < e.Weight; i++ {
			out.addEdge(e.From, e.To, e.Kind, false)
		}
	}
	return out
}

// aggregate rolls a type-level graph up to namespace or assembly
// granularity: duplicate (from,to) pairs merge kind (first kind wins)
// and accumulate weight (§4.6).
func aggregate(typeGraph *Graph, level Level, types *index.TypeIndex) *Graph {
	out := newGraph(level)
	keyFor := func(fullName string, external bool) (id, name string) {
		if level == LevelAssembly {
			if !external {
				return "(this module)", "(this module)"
			}
			return "external:" + namespaceOf(types, fullName), "external:" + namespaceOf(types, fullName)
		}
		ns := namespaceOf(types, fullName)
		return ns, ns
	}
	for _, n := range typeGraph.Nodes {
		id, name := keyFor(n.ID, n.IsExternal)
		out.node(id, name, n.IsExternal)
	}
	for _, e := range typeGraph.Edges {
		fromNode := typeGraph.Nodes[e.From]
		toNode := typeGraph.Nodes[e.To]
		fromID, _ := keyFor(fromNode.ID, fromNode.IsExternal)
		toID, _ := keyFor(toNode.ID, toNode.IsExternal)
		for i := 0; i < e.Weight; i++ {
			out.addEdge(fromID, toID, e.Kind, true)
		}
	}
	return out
}
