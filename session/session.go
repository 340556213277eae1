// Package session is the procedural façade (§6) wiring every analysis
// component over one loaded Module: it owns the shared indexes and
// hierarchy built once per session, threads cancellation through every
// long-running operation, and wraps every return in the coreerr error
// taxonomy (§7).
package session

import (
	"github.com/viant/ilscope/callgraph"
	"github.com/viant/ilscope/cancel"
	"github.com/viant/ilscope/cfg"
	"github.com/viant/ilscope/config"
	"github.com/viant/ilscope/coreerr"
	"github.com/viant/ilscope/dataflow"
	"github.com/viant/ilscope/depgraph"
	"github.com/viant/ilscope/identity"
	"github.com/viant/ilscope/index"
	"github.com/viant/ilscope/model"
	"github.com/viant/ilscope/obfuscation"
	"github.com/viant/ilscope/pattern"
	"github.com/viant/ilscope/search"
	"github.com/viant/ilscope/xref"
)

// Session wraps one loaded Module and the indexes built over it. Every
// field is read-only for the session's lifetime (§5 Shared resources).
type Session struct {
	module    *model.Module
	cfg       config.Config
	gen       *identity.Generator
	types     *index.TypeIndex
	members   *index.MemberIndex
	hierarchy *index.TypeHierarchy
	scanner   *xref.Scanner
}

// New builds a Session over m with the built-in default config,
// constructing the type index, member index, and type hierarchy exactly
// once (§4.1, §5).
func New(m *model.Module) *Session {
	return NewWithConfig(m, config.Default())
}

// NewWithConfig builds a Session over m, applying cfg's tunables to the
// obfuscation and call-graph components before any analysis runs.
func NewWithConfig(m *model.Module, cfg config.Config) *Session {
	obfuscation.Configure(cfg.Obfuscation.KnownTools, cfg.Obfuscation.ShortNameMaxLen, cfg.Obfuscation.ScoreObfuscatedAt)
	callgraph.Configure(cfg.CallGraph.LambdaScanWindow, cfg.CallGraph.ReflectionScanWindow)

	gen := identity.NewGenerator()
	types := index.BuildTypeIndex(m, gen)
	members := index.BuildMemberIndex(m, types, gen)
	hierarchy := index.BuildTypeHierarchy(m)
	return &Session{
		module:    m,
		cfg:       cfg,
		gen:       gen,
		types:     types,
		members:   members,
		hierarchy: hierarchy,
		scanner:   xref.NewScanner(m, hierarchy, types),
	}
}

// BuildTypeIndex returns the session's already-built type index.
func (s *Session) BuildTypeIndex() *index.TypeIndex { return s.types }

// BuildMemberIndex returns the session's already-built member index.
func (s *Session) BuildMemberIndex() *index.MemberIndex { return s.members }

// Diagnostics returns every skipped/malformed-item notice accumulated
// while building the session's indexes, type index first then member
// index, each in discovery order.
func (s *Session) Diagnostics() []index.Diagnostic {
	var out []index.Diagnostic
	out = append(out, s.types.Diagnostics()...)
	out = append(out, s.members.Diagnostics()...)
	return out
}

// TypeDetail is the denormalized view get_type_detail returns: the type
// entry plus its own declared members (§6).
type TypeDetail struct {
	Type    *index.TypeIndexEntry
	Members []*index.MemberIndexEntry
}

// GetTypeDetail looks up typeID in the type index and its members in the
// member index.
func (s *Session) GetTypeDetail(typeID string) coreerr.Result[TypeDetail] {
	te, ok := s.types.ByID(typeID)
	if !ok {
		return coreerr.Fail[TypeDetail](coreerr.NotFoundf("type %q not found", typeID))
	}
	return coreerr.Ok(TypeDetail{Type: te, Members: s.members.ByDeclaringType(typeID)})
}

// BrowseNamespace returns every type in namespace ns, in discovery
// order.
func (s *Session) BrowseNamespace(ns string) coreerr.Result[[]*index.TypeIndexEntry] {
	var out []*index.TypeIndexEntry
	for _, te := range s.types.All() {
		if te.Namespace == ns {
			out = append(out, te)
		}
	}
	return coreerr.Ok(out)
}

func findMethodDef(t *model.TypeDef, name string) *model.MethodDef {
	for _, m := range t.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// methodID derives the stable ID build_cfg's caller would need to look
// the method back up in the member index.
func (s *Session) methodID(t *model.TypeDef, m *model.MethodDef) string {
	params := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		params[i] = p.Type
	}
	return s.gen.MemberID(s.module.GUID, identity.MethodSignature(t.FullName, m.Name, params))
}

// BuildCFG builds the control-flow graph for typeName.methodName
// (§4.2): NotFound when the type or method does not exist, NoBody when
// the method has no instructions to build a graph from.
func (s *Session) BuildCFG(typeName, methodName string) coreerr.Result[*cfg.CFG] {
	te, ok := s.types.ByFullName(typeName)
	if !ok {
		return coreerr.Fail[*cfg.CFG](coreerr.NotFoundf("type %q not found", typeName))
	}
	method := findMethodDef(te.Type, methodName)
	if method == nil {
		return coreerr.Fail[*cfg.CFG](coreerr.NotFoundf("method %q not found on %q", methodName, typeName))
	}
	if method.Body == nil {
		return coreerr.Fail[*cfg.CFG](coreerr.New(coreerr.NoBody, "method "+typeName+"."+methodName+" has no body"))
	}
	id := s.methodID(te.Type, method)
	graph := cfg.Build(id, method)
	if graph.Error != "" {
		return coreerr.Fail[*cfg.CFG](coreerr.New(coreerr.NoBody, graph.Error))
	}
	return coreerr.Ok(graph)
}

// Dominance bundles every per-method analysis analyze_dominators (§6)
// exposes together.
type Dominance struct {
	Dominators        *dataflow.DominatorTree
	PostDominators    *dataflow.DominatorTree
	DominanceFrontier map[string][]string
	ControlDependence map[string][]string
}

// AnalyzeDominators computes the dominator/post-dominator trees,
// dominance frontier, and control dependence over an already-built CFG
// (§4.3).
func (s *Session) AnalyzeDominators(c *cfg.CFG) coreerr.Result[Dominance] {
	if c.Error != "" {
		return coreerr.Fail[Dominance](coreerr.New(coreerr.InvalidInput, "cfg has no blocks: "+c.Error))
	}
	dom := dataflow.ComputeDominators(c)
	postDom := dataflow.ComputePostDominators(c)
	return coreerr.Ok(Dominance{
		Dominators:        dom,
		PostDominators:    postDom,
		DominanceFrontier: dataflow.CFGDominanceFrontier(c, dom),
		ControlDependence: dataflow.ControlDependence(c, postDom),
	})
}

// AnalyzeLiveness runs the backward use/def fixpoint over c (§4.3).
func (s *Session) AnalyzeLiveness(c *cfg.CFG) coreerr.Result[*dataflow.Liveness] {
	if c.Error != "" {
		return coreerr.Fail[*dataflow.Liveness](coreerr.New(coreerr.InvalidInput, "cfg has no blocks: "+c.Error))
	}
	return coreerr.Ok(dataflow.ComputeLiveness(c))
}

// AnalyzeReachingDefs runs the forward gen/kill fixpoint over c (§4.3).
func (s *Session) AnalyzeReachingDefs(c *cfg.CFG) coreerr.Result[*dataflow.ReachingDefs] {
	if c.Error != "" {
		return coreerr.Fail[*dataflow.ReachingDefs](coreerr.New(coreerr.InvalidInput, "cfg has no blocks: "+c.Error))
	}
	return coreerr.Ok(dataflow.ComputeReachingDefinitions(c))
}

// BuildCallGraph builds the inter-procedural call graph over every
// method body in the module (§4.4).
func (s *Session) BuildCallGraph(token cancel.Token) coreerr.Result[*callgraph.CallGraph] {
	graph, cancelled := callgraph.Build(s.module, s.gen, s.hierarchy, s.members, token)
	if cancelled {
		return coreerr.Fail[*callgraph.CallGraph](coreerr.New(coreerr.Cancelled, "build_call_graph cancelled"))
	}
	return coreerr.Ok(graph)
}

// DetectRecursion runs Tarjan's SCC algorithm over an already-built call
// graph (§4.4).
func (s *Session) DetectRecursion(g *callgraph.CallGraph) coreerr.Result[[]callgraph.Recursion] {
	return coreerr.Ok(callgraph.DetectRecursion(g))
}

// FindReferencesToType (§4.5).
func (s *Session) FindReferencesToType(typeName string, token cancel.Token) coreerr.Result[[]xref.Reference] {
	refs, cancelled := s.scanner.FindReferencesToType(typeName, token)
	if cancelled {
		return coreerr.Fail[[]xref.Reference](coreerr.New(coreerr.Cancelled, "find_references_to_type cancelled"))
	}
	if _, ok := s.types.ByFullName(typeName); !ok {
		return coreerr.Fail[[]xref.Reference](coreerr.NotFoundf("type %q not found", typeName))
	}
	return coreerr.Ok(refs)
}

// FindCallsToMethod (§4.5).
func (s *Session) FindCallsToMethod(typeName, methodName string, token cancel.Token) coreerr.Result[[]xref.Reference] {
	refs, cancelled := s.scanner.FindCallsToMethod(typeName, methodName, token)
	if cancelled {
		return coreerr.Fail[[]xref.Reference](coreerr.New(coreerr.Cancelled, "find_calls_to_method cancelled"))
	}
	if !s.methodExists(typeName, methodName) {
		return coreerr.Fail[[]xref.Reference](coreerr.NotFoundf("method %q not found on %q", methodName, typeName))
	}
	return coreerr.Ok(refs)
}

// FindFieldUsages (§4.5).
func (s *Session) FindFieldUsages(typeName, fieldName string, token cancel.Token) coreerr.Result[[]xref.Reference] {
	refs, cancelled := s.scanner.FindFieldUsages(typeName, fieldName, token)
	if cancelled {
		return coreerr.Fail[[]xref.Reference](coreerr.New(coreerr.Cancelled, "find_field_usages cancelled"))
	}
	if !s.fieldExists(typeName, fieldName) {
		return coreerr.Fail[[]xref.Reference](coreerr.NotFoundf("field %q not found on %q", fieldName, typeName))
	}
	return coreerr.Ok(refs)
}

// FindMethodOverrides (§4.5).
func (s *Session) FindMethodOverrides(typeName, methodName string, token cancel.Token) coreerr.Result[[]xref.Reference] {
	refs, cancelled := s.scanner.FindMethodOverrides(typeName, methodName, token)
	if cancelled {
		return coreerr.Fail[[]xref.Reference](coreerr.New(coreerr.Cancelled, "find_method_overrides cancelled"))
	}
	if !s.methodExists(typeName, methodName) {
		return coreerr.Fail[[]xref.Reference](coreerr.NotFoundf("method %q not found on %q", methodName, typeName))
	}
	return coreerr.Ok(refs)
}

// FindInterfaceImpls (§4.5).
func (s *Session) FindInterfaceImpls(ifaceName, methodName string, token cancel.Token) coreerr.Result[[]xref.Reference] {
	refs, cancelled := s.scanner.FindInterfaceImpls(ifaceName, methodName, token)
	if cancelled {
		return coreerr.Fail[[]xref.Reference](coreerr.New(coreerr.Cancelled, "find_interface_impls cancelled"))
	}
	if _, ok := s.types.ByFullName(ifaceName); !ok {
		return coreerr.Fail[[]xref.Reference](coreerr.NotFoundf("interface %q not found", ifaceName))
	}
	return coreerr.Ok(refs)
}

func (s *Session) methodExists(typeName, methodName string) bool {
	te, ok := s.types.ByFullName(typeName)
	if !ok {
		return false
	}
	return findMethodDef(te.Type, methodName) != nil
}

func (s *Session) fieldExists(typeName, fieldName string) bool {
	te, ok := s.types.ByFullName(typeName)
	if !ok {
		return false
	}
	for _, f := range te.Type.Fields {
		if f.Name == fieldName {
			return true
		}
	}
	return false
}

// BuildDependencyGraph builds a dependency graph at level, optionally
// pruned to rootType's reachable neighborhood within maxDepth hops
// (§4.6). rootType == "" builds the unpruned graph.
func (s *Session) BuildDependencyGraph(level depgraph.Level, rootType string, maxDepth int) coreerr.Result[*depgraph.Graph] {
	if rootType != "" {
		if _, ok := s.types.ByFullName(rootType); !ok {
			return coreerr.Fail[*depgraph.Graph](coreerr.NotFoundf("root type %q not found", rootType))
		}
	}
	return coreerr.Ok(depgraph.Build(s.module, s.types, level, rootType, maxDepth))
}

// Search runs the multi-strategy search engine (§4.7).
func (s *Session) Search(req search.Request, token cancel.Token) coreerr.Result[search.Response] {
	if req.Query == "" {
		return coreerr.Fail[search.Response](coreerr.New(coreerr.InvalidInput, "search query must not be empty"))
	}
	if req.Limit <= 0 {
		req.Limit = s.cfg.Search.DefaultLimit
	}
	if token == nil {
		token = cancel.None
	}
	resp := search.Run(s.types, s.members, req, token)
	if token.Cancelled() {
		return coreerr.Fail[search.Response](coreerr.New(coreerr.Cancelled, "search cancelled"))
	}
	return coreerr.Ok(resp)
}

// DetectPatterns runs the GoF pattern detectors, optionally filtered to
// one type's full name (§4.8).
func (s *Session) DetectPatterns(typeNameFilter string) coreerr.Result[[]pattern.DetectedPattern] {
	if typeNameFilter != "" {
		if _, ok := s.types.ByFullName(typeNameFilter); !ok {
			return coreerr.Fail[[]pattern.DetectedPattern](coreerr.NotFoundf("type %q not found", typeNameFilter))
		}
	}
	return coreerr.Ok(pattern.DetectAll(s.module, typeNameFilter))
}

// DetectObfuscation runs the seven obfuscation heuristics over the whole
// module (§4.9).
func (s *Session) DetectObfuscation() coreerr.Result[obfuscation.Report] {
	return coreerr.Ok(obfuscation.Detect(s.module))
}
