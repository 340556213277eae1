// Package xref answers scope-aware cross-reference queries over a
// module: who references a type, who calls a method, who reads/writes a
// field, which methods override a virtual method, and which types
// implement an interface method (§4.5).
package xref

import "github.com/viant/ilscope/model"

// accessRank orders model.Access from most to least restrictive; lower
// is more restrictive.
func accessRank(a model.Access) int {
	switch a {
	case model.AccessPrivate:
		return 0
	case model.AccessAssembly, model.AccessFamANDAssem:
		return 1
	case model.AccessFamily:
		return 2
	case model.AccessFamORAssem:
		return 3
	default: // AccessPublic
		return 4
	}
}

func rankToAccess(r int) model.Access {
	switch r {
	case 0:
		return model.AccessPrivate
	case 1:
		return model.AccessAssembly
	case 2:
		return model.AccessFamily
	case 3:
		return model.AccessFamORAssem
	default:
		return model.AccessPublic
	}
}

// VisibilityToAccess maps a TypeDef's Visibility onto the same
// restrictiveness scale as a member's Access, folding the nested
// variants onto their non-nested equivalent.
func VisibilityToAccess(v model.Visibility) model.Access {
	switch v {
	case model.VisibilityAssembly, model.VisibilityNestedAssembly:
		return model.AccessAssembly
	case model.VisibilityNestedFamily:
		return model.AccessFamily
	case model.VisibilityNestedPrivate:
		return model.AccessPrivate
	default: // Public, NestedPublic
		return model.AccessPublic
	}
}

// EffectiveAccess is the minimum (most restrictive) of a member's own
// access and its declaring type's visibility, following ECMA-335's
// nested-visibility rule (§4.5).
func EffectiveAccess(member model.Access, declaring model.Visibility) model.Access {
	mr := accessRank(member)
	tr := accessRank(VisibilityToAccess(declaring))
	if tr < mr {
		return rankToAccess(tr)
	}
	return member
}
