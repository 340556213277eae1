package xref

import (
	"strings"

	"github.com/viant/ilscope/cancel"
	"github.com/viant/ilscope/index"
	"github.com/viant/ilscope/model"
)

// Kind discriminates the flavor of cross-reference a Reference records.
type Kind string

const (
	KindTypeReference Kind = "type_reference"
	KindCall          Kind = "call"
	KindFieldRead     Kind = "field_read"
	KindFieldWrite    Kind = "field_write"
	KindOverride      Kind = "override"
	KindInterfaceImpl Kind = "interface_impl"
)

// Reference is one discovered cross-reference. Offset is -1 for
// references that are not tied to a single IL instruction (type
// signature references, overrides, interface implementations).
type Reference struct {
	SourceType   string
	SourceMember string
	Kind         Kind
	Offset       int
}

type refKey struct {
	sourceType   string
	sourceMember string
	kind         Kind
	offset       int
}

// dedup collapses references sharing (source_type, source_member, kind,
// il_offset) per §4.5/invariant 9.
func dedup(refs []Reference) []Reference {
	seen := map[refKey]bool{}
	var out []Reference
	for _, r := range refs {
		k := refKey{r.SourceType, r.SourceMember, r.Kind, r.Offset}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// Scanner answers cross-reference queries over one module.
type Scanner struct {
	module    *model.Module
	hierarchy *index.TypeHierarchy
	types     *index.TypeIndex
}

// NewScanner builds a Scanner over an already-built type index and
// hierarchy, both shared read-only for the session's lifetime (§5).
func NewScanner(m *model.Module, hierarchy *index.TypeHierarchy, types *index.TypeIndex) *Scanner {
	return &Scanner{module: m, hierarchy: hierarchy, types: types}
}

// enclosingFullName returns te's enclosing type's full name, or "" when
// te is a top-level type.
func (s *Scanner) enclosingFullName(te *index.TypeIndexEntry) string {
	if te.DeclaringTypeID == "" {
		return ""
	}
	if enclosing, ok := s.types.ByID(te.DeclaringTypeID); ok {
		return enclosing.FullName
	}
	return ""
}

// scopeTypes implements §4.5's scope pruning. effAccess AccessPrivate
// restricts to declaringTypeFullName and all of its nested types
// (recursively); every other access level scans the whole module (friend
// modules are not separately loaded in a single-module session, so they
// do not expand the scan set beyond the conservative "current module"
// baseline the spec calls out for family/assembly visibility).
func (s *Scanner) scopeTypes(effAccess model.Access, declaringTypeFullName string) []*index.TypeIndexEntry {
	if effAccess != model.AccessPrivate {
		return s.types.All()
	}
	decl, ok := s.types.ByFullName(declaringTypeFullName)
	if !ok {
		return nil
	}
	out := []*index.TypeIndexEntry{decl}
	var collect func(id string)
	collect = func(id string) {
		for _, nested := range s.types.ByDeclaringType(id) {
			out = append(out, nested)
			collect(nested.ID)
		}
	}
	collect(decl.ID)
	return out
}

// unwrapTypeNames recursively unwraps a type reference string into
// every nominal type name it embeds: generic arguments, and the element
// type of arrays/by-refs/pointers (§4.5).
func unwrapTypeNames(t string) []string {
	t = strings.TrimSpace(t)
	if t == "" {
		return nil
	}
	var out []string
	base := t
	if open := strings.IndexByte(base, '<'); open >= 0 && strings.HasSuffix(base, ">") {
		args := base[open+1 : len(base)-1]
		base = base[:open]
		for _, arg := range splitTopLevel(args) {
			out = append(out, unwrapTypeNames(arg)...)
		}
	}
	for strings.HasSuffix(base, "[]") || strings.HasSuffix(base, "&") || strings.HasSuffix(base, "*") {
		base = strings.TrimSuffix(base, "[]")
		base = strings.TrimSuffix(base, "&")
		base = strings.TrimSuffix(base, "*")
	}
	out = append(out, base)
	return out
}

// splitTopLevel splits a generic argument list on commas that are not
// nested inside another angle-bracket pair.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func containsTypeName(typeRef, target string) bool {
	for _, n := range unwrapTypeNames(typeRef) {
		if n == target {
			return true
		}
	}
	return false
}

func checkCancel(token cancel.Token) cancel.Token {
	if token == nil {
		return cancel.None
	}
	return token
}
