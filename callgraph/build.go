package callgraph

import (
	"strings"
	"sync"

	"github.com/viant/ilscope/cancel"
	"github.com/viant/ilscope/identity"
	"github.com/viant/ilscope/index"
	"github.com/viant/ilscope/model"
)

// lambdaScanWindow and reflectionScanWindow are the backward byte
// windows §4.4 specifies for associating a newobj/reflection call with
// the load-function-pointer or load-string/load-token instruction that
// names its real target. Configure overrides these from loaded config.
var (
	lambdaScanWindow     = 20
	reflectionScanWindow = 50
)

// Configure overrides the backward-scan windows from loaded config
// (config.CallGraph); zero values are ignored so a partial config file
// does not silently disable a window.
func Configure(lambdaWindow, reflectionWindow int) {
	if lambdaWindow > 0 {
		lambdaScanWindow = lambdaWindow
	}
	if reflectionWindow > 0 {
		reflectionScanWindow = reflectionWindow
	}
}

var closureMarkers = []string{"<>c", "<>c__DisplayClass", "d__"}

var reflectionAPIs = map[string]bool{
	"System.Type.GetMethod":               true,
	"System.Type.GetProperty":             true,
	"System.Type.GetField":                true,
	"System.Type.InvokeMember":            true,
	"System.Reflection.MethodInfo.Invoke": true,
	"System.Activator.CreateInstance":     true,
	"System.Reflection.PropertyInfo.GetValue": true,
	"System.Reflection.PropertyInfo.SetValue": true,
	"System.Reflection.FieldInfo.GetValue":    true,
	"System.Reflection.FieldInfo.SetValue":    true,
}

func isReflectionCall(ref *model.MemberRef) bool {
	if ref == nil {
		return false
	}
	if reflectionAPIs[ref.DeclaringType+"."+ref.Name] {
		return true
	}
	switch ref.Name {
	case "GetValue", "SetValue", "InvokeMember":
		return strings.Contains(ref.DeclaringType, "Reflection")
	}
	return false
}

func isClosureType(fullName string) bool {
	for _, marker := range closureMarkers {
		if strings.Contains(fullName, marker) {
			return true
		}
	}
	return false
}

func isDelegateType(h *index.TypeHierarchy, fullName string) bool {
	if t, ok := h.TypeByName(fullName); ok {
		return t.BaseType == "System.MulticastDelegate" || t.BaseType == "System.Delegate"
	}
	// external delegate types (Action, Func<...>, EventHandler, custom
	// *Delegate aliases) are not in the module's own type list.
	base := fullName
	if idx := strings.IndexByte(base, '<'); idx >= 0 {
		base = base[:idx]
	}
	switch base {
	case "System.Action", "System.Func", "System.EventHandler", "System.Predicate", "System.Comparison":
		return true
	}
	return strings.HasSuffix(base, "Delegate") || strings.HasSuffix(base, "Callback") || strings.HasSuffix(base, "Handler")
}

func paramTypes(params []model.Parameter) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}

func splitSignatureParams(sig string) []string {
	if sig == "" {
		return nil
	}
	return strings.Split(sig, ",")
}

func methodID(gen *identity.Generator, guid model.GUID, declaringType, name string, params []string) string {
	return gen.MemberID(guid, identity.MethodSignature(declaringType, name, params))
}

func callerID(gen *identity.Generator, guid model.GUID, m *model.MethodDef) string {
	return methodID(gen, guid, m.DeclaringType, m.Name, paramTypes(m.Parameters))
}

func refID(gen *identity.Generator, guid model.GUID, ref *model.MemberRef) string {
	if ref == nil {
		return ""
	}
	return methodID(gen, guid, ref.DeclaringType, ref.Name, splitSignatureParams(ref.Signature))
}

// Build constructs the call graph over every method body in m. hierarchy
// is the shared type-hierarchy index used for virtual resolution;
// members, if non-nil, is used to mark callee edges IsExternal when the
// target is not defined in this module. Processing is parallel-safe at
// the per-method level: each method appends to its own edge list, merged
// into the shared graph under a lock (§4.4, §5).
func Build(m *model.Module, gen *identity.Generator, hierarchy *index.TypeHierarchy, members *index.MemberIndex, token cancel.Token) (*CallGraph, bool) {
	if token == nil {
		token = cancel.None
	}
	graph := &CallGraph{byCaller: map[string][]Edge{}}

	var methods []*model.MethodDef
	var walk func(t *model.TypeDef)
	walk = func(t *model.TypeDef) {
		methods = append(methods, t.Methods...)
		for _, nested := range t.NestedTypes {
			walk(nested)
		}
	}
	for _, t := range m.Types {
		walk(t)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, 8)
	var cancelled bool

	for _, method := range methods {
		if token.Cancelled() {
			cancelled = true
			break
		}
		if method.Body == nil {
			continue
		}
		method := method
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			edges := scanMethod(m, gen, hierarchy, method)
			mu.Lock()
			caller := callerID(gen, m.GUID, method)
			for _, e := range edges {
				if members != nil && e.CalleeID != "" {
					if _, ok := members.ByID(e.CalleeID); !ok {
						e.IsExternal = true
					}
				}
				graph.Edges = append(graph.Edges, e)
				graph.byCaller[caller] = append(graph.byCaller[caller], e)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if cancelled {
		return graph, true
	}
	return graph, false
}

// scanMethod is the single-pass edge extractor for one method body
// (§4.4).
func scanMethod(m *model.Module, gen *identity.Generator, hierarchy *index.TypeHierarchy, method *model.MethodDef) []Edge {
	caller := callerID(gen, m.GUID, method)
	ins := method.Body.Instructions
	var edges []Edge

	for i, cur := range ins {
		switch cur.Opcode {
		case "call":
			ref := cur.Operand.MethodRef
			if ref == nil {
				continue
			}
			if isReflectionCall(ref) {
				if e, ok := reflectionEdge(gen, m.GUID, caller, ins, i, ref); ok {
					edges = append(edges, e)
				}
				continue
			}
			edges = append(edges, Edge{CallerID: caller, CalleeID: refID(gen, m.GUID, ref), CalleeName: ref.DeclaringType + "." + ref.Name, Kind: EdgeDirect, Offset: cur.Offset})
		case "callvirt":
			ref := cur.Operand.MethodRef
			if ref == nil {
				continue
			}
			if isReflectionCall(ref) {
				if e, ok := reflectionEdge(gen, m.GUID, caller, ins, i, ref); ok {
					edges = append(edges, e)
				}
				continue
			}
			edges = append(edges, virtualEdge(gen, m.GUID, caller, hierarchy, ref, cur.Offset))
		case "newobj":
			ref := cur.Operand.MethodRef
			if ref == nil {
				continue
			}
			if e, ok := newObjEdge(gen, m.GUID, caller, hierarchy, ins, i, ref, cur.Offset); ok {
				edges = append(edges, e)
			}
		}
	}
	return edges
}

func virtualEdge(gen *identity.Generator, guid model.GUID, caller string, hierarchy *index.TypeHierarchy, ref *model.MemberRef, offset int) Edge {
	var candidates []string
	for _, t := range hierarchy.TransitiveDescendants(ref.DeclaringType) {
		for _, cm := range t.Methods {
			if cm.Name == ref.Name && cm.Flags.IsVirtual {
				candidates = append(candidates, methodID(gen, guid, t.FullName, cm.Name, paramTypes(cm.Parameters)))
			}
		}
	}
	return Edge{
		CallerID:           caller,
		CalleeID:           refID(gen, guid, ref),
		CalleeName:         ref.DeclaringType + "." + ref.Name,
		Kind:               EdgeVirtual,
		Offset:             offset,
		RequiresResolution: true,
		IsPolymorphic:      len(candidates) > 1,
		Candidates:         candidates,
	}
}

// newObjEdge classifies a newobj per §4.4: delegate construction
// (preceded by ldftn/ldvirtftn) takes precedence, then compiler-generated
// closure/lambda construction, then a plain constructor edge.
func newObjEdge(gen *identity.Generator, guid model.GUID, caller string, hierarchy *index.TypeHierarchy, ins []model.Instruction, i int, ref *model.MemberRef, offset int) (Edge, bool) {
	constructedType := ref.DeclaringType

	if isDelegateType(hierarchy, constructedType) {
		if target, ok := scanBackwardForFunctionPointer(ins, i, lambdaScanWindow); ok {
			if isClosureType(constructedType) || (target.Operand.MethodRef != nil && isClosureType(target.Operand.MethodRef.DeclaringType)) {
				return Edge{CallerID: caller, CalleeID: refID(gen, guid, target.Operand.MethodRef), CalleeName: closureTargetName(target), Kind: EdgeLambda, Offset: offset, IsCompilerGenerated: true}, true
			}
			return Edge{CallerID: caller, CalleeID: refID(gen, guid, target.Operand.MethodRef), CalleeName: closureTargetName(target), Kind: EdgeDelegate, Offset: offset}, true
		}
	}

	if isClosureType(constructedType) {
		if target, ok := scanBackwardForFunctionPointer(ins, i, lambdaScanWindow); ok {
			return Edge{CallerID: caller, CalleeID: refID(gen, guid, target.Operand.MethodRef), CalleeName: closureTargetName(target), Kind: EdgeLambda, Offset: offset, IsCompilerGenerated: true}, true
		}
	}

	return Edge{CallerID: caller, CalleeID: refID(gen, guid, ref), CalleeName: constructedType + ".ctor", Kind: EdgeConstructor, Offset: offset}, true
}

func closureTargetName(ins model.Instruction) string {
	if ins.Operand.MethodRef == nil {
		return ""
	}
	return ins.Operand.MethodRef.DeclaringType + "." + ins.Operand.MethodRef.Name
}

func scanBackwardForFunctionPointer(ins []model.Instruction, i, window int) (model.Instruction, bool) {
	cur := ins[i]
	for j := i - 1; j >= 0; j-- {
		if cur.Offset-ins[j].Offset > window {
			break
		}
		if ins[j].Opcode == "ldftn" || ins[j].Opcode == "ldvirtftn" {
			return ins[j], true
		}
	}
	return model.Instruction{}, false
}

// reflectionEdge performs the best-effort backward scan for a
// load-string/load-token operand naming the reflection call's real
// target (§4.4). No edge is produced when nothing is found in the
// window.
func reflectionEdge(gen *identity.Generator, guid model.GUID, caller string, ins []model.Instruction, i int, ref *model.MemberRef) (Edge, bool) {
	cur := ins[i]
	for j := i - 1; j >= 0; j-- {
		if cur.Offset-ins[j].Offset > reflectionScanWindow {
			break
		}
		cand := ins[j]
		switch cand.Operand.Kind {
		case model.OperandLiteralString:
			return Edge{CallerID: caller, CalleeName: cand.Operand.StringValue, Kind: EdgeReflection, Offset: cur.Offset}, true
		case model.OperandTypeRef:
			return Edge{CallerID: caller, CalleeName: cand.Operand.TypeRef, Kind: EdgeReflection, Offset: cur.Offset}, true
		case model.OperandMethodRef, model.OperandFieldRef:
			target := cand.Operand.MethodRef
			if target == nil {
				target = cand.Operand.FieldRef
			}
			return Edge{CallerID: caller, CalleeID: refID(gen, guid, target), CalleeName: target.DeclaringType + "." + target.Name, Kind: EdgeReflection, Offset: cur.Offset}, true
		}
	}
	return Edge{}, false
}
