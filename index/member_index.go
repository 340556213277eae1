package index

import (
	"strings"

	"github.com/viant/ilscope/identity"
	"github.com/viant/ilscope/model"
)

// MemberKind discriminates the four member flavors the index tracks.
type MemberKind string

const (
	MemberMethod   MemberKind = "method"
	MemberField    MemberKind = "field"
	MemberProperty MemberKind = "property"
	MemberEvent    MemberKind = "event"
)

// MemberIndexEntry is a denormalized summary of one member.
type MemberIndexEntry struct {
	ID              string
	Kind            MemberKind
	Name            string
	DeclaringTypeID string
	DeclaringType   string // full name, for convenience
	Method          *model.MethodDef
	Field           *model.FieldDef
	Property        *model.PropertyDef
	Event           *model.EventDef
}

// MemberIndex is the built, read-only index of a module's members.
// Ordering follows module order, then type order, then
// field/method/property/event order (§4.1); this is the tie-breaker for
// all searches.
type MemberIndex struct {
	byID        map[string]*MemberIndexEntry
	byName      map[string][]*MemberIndexEntry
	order       []*MemberIndexEntry
	diagnostics []Diagnostic
}

// isStaticConstructor reports whether m is a static constructor
// (".cctor"), which §4.1 excludes from the member index.
func isStaticConstructor(m *model.MethodDef) bool {
	return m.Flags.IsConstructor && m.Flags.IsStatic
}

// BuildMemberIndex walks the TypeIndex's types in discovery order and
// indexes their fields, methods, properties, and events in that order.
func BuildMemberIndex(m *model.Module, types *TypeIndex, gen *identity.Generator) *MemberIndex {
	idx := &MemberIndex{
		byID:   map[string]*MemberIndexEntry{},
		byName: map[string][]*MemberIndexEntry{},
	}
	skip := func(declaringType, name string) {
		idx.diagnostics = append(idx.diagnostics, Diagnostic{
			Category: "skipped_member",
			Message:  "skipped malformed member " + declaringType + "." + name,
		})
	}
	add := func(e *MemberIndexEntry) {
		idx.byID[e.ID] = e
		key := strings.ToLower(e.Name)
		idx.byName[key] = append(idx.byName[key], e)
		idx.order = append(idx.order, e)
	}
	for _, te := range types.order {
		t := te.Type
		if isFiltered(t.Name) {
			continue
		}
		for _, f := range t.Fields {
			if strings.Contains(f.Name, "__") {
				skip(t.FullName, f.Name)
				continue
			}
			id := gen.MemberID(m.GUID, identity.FieldSignature(t.FullName, f.Name))
			add(&MemberIndexEntry{
				ID: id, Kind: MemberField, Name: f.Name,
				DeclaringTypeID: te.ID, DeclaringType: t.FullName, Field: f,
			})
		}
		for _, meth := range t.Methods {
			if isStaticConstructor(meth) {
				continue
			}
			if strings.Contains(meth.Name, "__") {
				skip(t.FullName, meth.Name)
				continue
			}
			paramTypes := make([]string, len(meth.Parameters))
			for i, p := range meth.Parameters {
				paramTypes[i] = p.Type
			}
			id := gen.MemberID(m.GUID, identity.MethodSignature(t.FullName, meth.Name, paramTypes))
			add(&MemberIndexEntry{
				ID: id, Kind: MemberMethod, Name: meth.Name,
				DeclaringTypeID: te.ID, DeclaringType: t.FullName, Method: meth,
			})
		}
		for _, p := range t.Properties {
			id := gen.MemberID(m.GUID, identity.FieldSignature(t.FullName, p.Name+"$prop"))
			add(&MemberIndexEntry{
				ID: id, Kind: MemberProperty, Name: p.Name,
				DeclaringTypeID: te.ID, DeclaringType: t.FullName, Property: p,
			})
		}
		for _, ev := range t.Events {
			id := gen.MemberID(m.GUID, identity.FieldSignature(t.FullName, ev.Name+"$event"))
			add(&MemberIndexEntry{
				ID: id, Kind: MemberEvent, Name: ev.Name,
				DeclaringTypeID: te.ID, DeclaringType: t.FullName, Event: ev,
			})
		}
	}
	return idx
}

// Diagnostics returns every skipped/malformed-member notice recorded
// while building the index, in discovery order.
func (idx *MemberIndex) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(idx.diagnostics))
	copy(out, idx.diagnostics)
	return out
}

// ByID looks up a member by its stable ID.
func (idx *MemberIndex) ByID(id string) (*MemberIndexEntry, bool) {
	e, ok := idx.byID[id]
	return e, ok
}

// ByName looks up members by simple name, case-insensitively, preserving
// discovery order.
func (idx *MemberIndex) ByName(name string) []*MemberIndexEntry {
	return idx.byName[strings.ToLower(name)]
}

// ByDeclaringType returns the members declared directly on the type with
// the given ID, in discovery order.
func (idx *MemberIndex) ByDeclaringType(declaringTypeID string) []*MemberIndexEntry {
	var out []*MemberIndexEntry
	for _, e := range idx.order {
		if e.DeclaringTypeID == declaringTypeID {
			out = append(out, e)
		}
	}
	return out
}

// Search performs a case-insensitive substring search over member names,
// truncated to limit (0 or negative means unlimited).
func (idx *MemberIndex) Search(substr string, limit int) []*MemberIndexEntry {
	substr = strings.ToLower(substr)
	var out []*MemberIndexEntry
	for _, e := range idx.order {
		if strings.Contains(strings.ToLower(e.Name), substr) {
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// All returns every indexed member in discovery order.
func (idx *MemberIndex) All() []*MemberIndexEntry {
	out := make([]*MemberIndexEntry, len(idx.order))
	copy(out, idx.order)
	return out
}
