// Package index builds the Type and Member indexes once per module
// (§4.1): lookup by stable ID, by simple name (case-insensitive,
// possibly multi-valued), by declaring type, and substring search with a
// limit. Built indexes are read-only and safe for concurrent readers.
package index

import (
	"sort"
	"strings"

	"github.com/viant/ilscope/identity"
	"github.com/viant/ilscope/model"
)

// TypeIndexEntry is a denormalized summary of one TypeDef.
type TypeIndexEntry struct {
	ID         string
	FullName   string
	Namespace  string
	Name       string
	Visibility model.Visibility
	Flags      model.TypeFlags
	Type       *model.TypeDef
	// DeclaringTypeID is non-empty for nested types.
	DeclaringTypeID string
}

// Diagnostic is a short, typed notice for a skipped or malformed item
// encountered while building an index, so filtering never silently
// vanishes an item with no trail.
type Diagnostic struct {
	Category string // "skipped_type", "skipped_member"
	Message  string
}

// TypeIndex is the built, read-only index of a module's types.
type TypeIndex struct {
	guid model.GUID

	byID        map[string]*TypeIndexEntry
	byName      map[string][]*TypeIndexEntry // lower(name) -> entries, discovery order
	byFullName  map[string]*TypeIndexEntry
	order       []*TypeIndexEntry // module order, then nested-type order
	diagnostics []Diagnostic
}

// isFiltered reports whether a type is excluded from the index per
// §4.1: the pseudo-type <Module>, names starting with "<", and
// compiler-generated markers containing "__".
func isFiltered(name string) bool {
	if name == "<Module>" {
		return true
	}
	if strings.HasPrefix(name, "<") {
		return true
	}
	if strings.Contains(name, "__") {
		return true
	}
	return false
}

// BuildTypeIndex walks m.Types (including nested types, depth-first, in
// declaration order) and builds a TypeIndex.
func BuildTypeIndex(m *model.Module, gen *identity.Generator) *TypeIndex {
	idx := &TypeIndex{
		guid:       m.GUID,
		byID:       map[string]*TypeIndexEntry{},
		byName:     map[string][]*TypeIndexEntry{},
		byFullName: map[string]*TypeIndexEntry{},
	}
	var walk func(t *model.TypeDef, declaringID string)
	walk = func(t *model.TypeDef, declaringID string) {
		if isFiltered(t.Name) {
			idx.diagnostics = append(idx.diagnostics, Diagnostic{
				Category: "skipped_type",
				Message:  "skipped malformed type " + t.Name,
			})
			return
		}
		id := gen.MemberID(m.GUID, identity.TypeSignature(t.FullName))
		entry := &TypeIndexEntry{
			ID:              id,
			FullName:        t.FullName,
			Namespace:       t.Namespace,
			Name:            t.Name,
			Visibility:      t.Visibility,
			Flags:           t.Flags,
			Type:            t,
			DeclaringTypeID: declaringID,
		}
		idx.byID[id] = entry
		key := strings.ToLower(t.Name)
		idx.byName[key] = append(idx.byName[key], entry)
		idx.byFullName[t.FullName] = entry
		idx.order = append(idx.order, entry)
		for _, nested := range t.NestedTypes {
			walk(nested, id)
		}
	}
	for _, t := range m.Types {
		walk(t, "")
	}
	return idx
}

// ByID looks up a type by its stable ID. The second return is false when
// absent.
func (idx *TypeIndex) ByID(id string) (*TypeIndexEntry, bool) {
	e, ok := idx.byID[id]
	return e, ok
}

// ByName looks up types by simple name, case-insensitively; results
// preserve discovery order (module order, then nested-type order), which
// is the tie-breaker for all searches (§4.1).
func (idx *TypeIndex) ByName(name string) []*TypeIndexEntry {
	return idx.byName[strings.ToLower(name)]
}

// ByFullName looks up a type by its exact full name.
func (idx *TypeIndex) ByFullName(fullName string) (*TypeIndexEntry, bool) {
	e, ok := idx.byFullName[fullName]
	return e, ok
}

// ByDeclaringType returns the nested types declared directly within the
// type with the given ID.
func (idx *TypeIndex) ByDeclaringType(declaringID string) []*TypeIndexEntry {
	var out []*TypeIndexEntry
	for _, e := range idx.order {
		if e.DeclaringTypeID == declaringID {
			out = append(out, e)
		}
	}
	return out
}

// Search performs a case-insensitive substring search over full names,
// truncated to limit (0 or negative means unlimited), preserving
// discovery order.
func (idx *TypeIndex) Search(substr string, limit int) []*TypeIndexEntry {
	substr = strings.ToLower(substr)
	var out []*TypeIndexEntry
	for _, e := range idx.order {
		if strings.Contains(strings.ToLower(e.FullName), substr) {
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// All returns every indexed type in discovery order.
func (idx *TypeIndex) All() []*TypeIndexEntry {
	out := make([]*TypeIndexEntry, len(idx.order))
	copy(out, idx.order)
	return out
}

// Diagnostics returns every skipped/malformed-type notice recorded while
// building the index, in discovery order.
func (idx *TypeIndex) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(idx.diagnostics))
	copy(out, idx.diagnostics)
	return out
}

// Namespaces returns the sorted, de-duplicated set of namespaces present
// in the index.
func (idx *TypeIndex) Namespaces() []string {
	set := map[string]bool{}
	for _, e := range idx.order {
		set[e.Namespace] = true
	}
	out := make([]string, 0, len(set))
	for ns := range set {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}
