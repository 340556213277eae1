package index

import "github.com/viant/ilscope/model"

// TypeHierarchy maps each type name to its direct subtypes (by BaseType)
// and to the types that directly implement it (by Interfaces), built
// once per session and shared read-only by virtual-call resolution
// (§4.4) and cross-reference override/interface-impl discovery (§4.5).
type TypeHierarchy struct {
	byFullName   map[string]*model.TypeDef
	subtypesOf   map[string][]*model.TypeDef // BaseType -> direct derived types
	implementors map[string][]*model.TypeDef // interface full name -> direct implementors
}

// BuildTypeHierarchy walks every type (including nested) once.
func BuildTypeHierarchy(m *model.Module) *TypeHierarchy {
	h := &TypeHierarchy{
		byFullName:   map[string]*model.TypeDef{},
		subtypesOf:   map[string][]*model.TypeDef{},
		implementors: map[string][]*model.TypeDef{},
	}
	var walk func(t *model.TypeDef)
	walk = func(t *model.TypeDef) {
		h.byFullName[t.FullName] = t
		if t.BaseType != "" {
			h.subtypesOf[t.BaseType] = append(h.subtypesOf[t.BaseType], t)
		}
		for _, iface := range t.Interfaces {
			h.implementors[iface] = append(h.implementors[iface], t)
		}
		for _, nested := range t.NestedTypes {
			walk(nested)
		}
	}
	for _, t := range m.Types {
		walk(t)
	}
	return h
}

// TypeByName looks up a type by its full name.
func (h *TypeHierarchy) TypeByName(fullName string) (*model.TypeDef, bool) {
	t, ok := h.byFullName[fullName]
	return t, ok
}

// DirectSubtypes returns the types directly deriving from fullName.
func (h *TypeHierarchy) DirectSubtypes(fullName string) []*model.TypeDef {
	return h.subtypesOf[fullName]
}

// DirectImplementors returns the types directly implementing the
// interface named fullName.
func (h *TypeHierarchy) DirectImplementors(fullName string) []*model.TypeDef {
	return h.implementors[fullName]
}

// TransitiveDescendants returns every type transitively derived from
// fullName (subtypes) or, when fullName names an interface, every
// transitive implementor plus every type deriving from a direct
// implementor (§4.4: "transitive subtype of T, or implementor of T if T
// is an interface").
func (h *TypeHierarchy) TransitiveDescendants(fullName string) []*model.TypeDef {
	seen := map[string]bool{}
	var out []*model.TypeDef
	var visit func(name string)
	visit = func(name string) {
		roots := append(append([]*model.TypeDef{}, h.subtypesOf[name]...), h.implementors[name]...)
		for _, t := range roots {
			if seen[t.FullName] {
				continue
			}
			seen[t.FullName] = true
			out = append(out, t)
			visit(t.FullName)
		}
	}
	visit(fullName)
	return out
}
