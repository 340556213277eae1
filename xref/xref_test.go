package xref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ilscope/identity"
	"github.com/viant/ilscope/index"
	"github.com/viant/ilscope/model"
)

func TestEffectiveAccess_MinimumWins(t *testing.T) {
	assert.Equal(t, model.AccessPrivate, EffectiveAccess(model.AccessPublic, model.VisibilityNestedPrivate))
	assert.Equal(t, model.AccessAssembly, EffectiveAccess(model.AccessPublic, model.VisibilityAssembly))
	assert.Equal(t, model.AccessPrivate, EffectiveAccess(model.AccessPrivate, model.VisibilityPublic))
}

func TestUnwrapTypeNames_GenericAndArray(t *testing.T) {
	assert.Equal(t, []string{"System.String"}, unwrapTypeNames("System.String[]"))
	assert.ElementsMatch(t, []string{"System.Collections.Generic.List", "System.String"}, unwrapTypeNames("System.Collections.Generic.List<System.String>"))
}

func buildModule() (*model.Module, *index.TypeIndex, *index.TypeHierarchy) {
	base := &model.TypeDef{FullName: "Shape", Name: "Shape", Visibility: model.VisibilityPublic, Methods: []*model.MethodDef{
		{Name: "Area", FullName: "Shape.Area", DeclaringType: "Shape", Access: model.AccessPublic, ReturnType: "System.Double", Flags: model.MethodFlags{IsVirtual: true, IsAbstract: true}},
	}}
	circle := &model.TypeDef{FullName: "Circle", Name: "Circle", Visibility: model.VisibilityPublic, BaseType: "Shape", Methods: []*model.MethodDef{
		{Name: "Area", FullName: "Circle.Area", DeclaringType: "Circle", Access: model.AccessPublic, ReturnType: "System.Double", Flags: model.MethodFlags{IsVirtual: true}},
	}}
	iface := &model.TypeDef{FullName: "IDrawable", Name: "IDrawable", Visibility: model.VisibilityPublic, Flags: model.TypeFlags{IsInterface: true}, Methods: []*model.MethodDef{
		{Name: "Draw", FullName: "IDrawable.Draw", DeclaringType: "IDrawable", ReturnType: "System.Void"},
	}}
	square := &model.TypeDef{FullName: "Square", Name: "Square", Visibility: model.VisibilityPublic, Interfaces: []string{"IDrawable"}, Fields: []*model.FieldDef{
		{Name: "_side", FieldType: "System.Int32", Access: model.AccessPrivate},
	}, Methods: []*model.MethodDef{
		{Name: "Draw", FullName: "Square.Draw", DeclaringType: "Square", Access: model.AccessPublic, ReturnType: "System.Void", Body: &model.MethodBody{
			Instructions: []model.Instruction{
				{Offset: 0, Opcode: "ldfld", Operand: model.Operand{Kind: model.OperandFieldRef, FieldRef: &model.MemberRef{DeclaringType: "Square", Name: "_side"}}},
				{Offset: 1, Opcode: "ret", FlowControl: model.FlowReturn},
			},
		}},
		{Name: "Resize", FullName: "Square.Resize", DeclaringType: "Square", Access: model.AccessPublic, ReturnType: "System.Void", Body: &model.MethodBody{
			Instructions: []model.Instruction{
				{Offset: 0, Opcode: "stfld", Operand: model.Operand{Kind: model.OperandFieldRef, FieldRef: &model.MemberRef{DeclaringType: "Square", Name: "_side"}}},
				{Offset: 1, Opcode: "call", Operand: model.Operand{Kind: model.OperandMethodRef, MethodRef: &model.MemberRef{DeclaringType: "Circle", Name: "Area"}}},
				{Offset: 2, Opcode: "ret", FlowControl: model.FlowReturn},
			},
		}},
	}}
	m := &model.Module{Types: []*model.TypeDef{base, circle, iface, square}}
	gen := identity.NewGenerator()
	types := index.BuildTypeIndex(m, gen)
	hierarchy := index.BuildTypeHierarchy(m)
	return m, types, hierarchy
}

func TestScanner_FindCallsToMethod(t *testing.T) {
	m, types, hierarchy := buildModule()
	s := NewScanner(m, hierarchy, types)
	refs, cancelled := s.FindCallsToMethod("Circle", "Area", nil)
	require.False(t, cancelled)
	require.Len(t, refs, 1)
	assert.Equal(t, "Square", refs[0].SourceType)
	assert.Equal(t, "Resize", refs[0].SourceMember)
	assert.Equal(t, KindCall, refs[0].Kind)
}

func TestScanner_FindFieldUsages(t *testing.T) {
	m, types, hierarchy := buildModule()
	s := NewScanner(m, hierarchy, types)
	refs, cancelled := s.FindFieldUsages("Square", "_side", nil)
	require.False(t, cancelled)
	require.Len(t, refs, 2)
	var kinds []Kind
	for _, r := range refs {
		kinds = append(kinds, r.Kind)
	}
	assert.Contains(t, kinds, KindFieldRead)
	assert.Contains(t, kinds, KindFieldWrite)
}

func TestScanner_FindMethodOverrides(t *testing.T) {
	m, types, hierarchy := buildModule()
	s := NewScanner(m, hierarchy, types)
	refs, cancelled := s.FindMethodOverrides("Shape", "Area", nil)
	require.False(t, cancelled)
	require.Len(t, refs, 1)
	assert.Equal(t, "Circle", refs[0].SourceType)
	assert.Equal(t, KindOverride, refs[0].Kind)
}

func TestScanner_FindInterfaceImpls(t *testing.T) {
	m, types, hierarchy := buildModule()
	s := NewScanner(m, hierarchy, types)
	refs, cancelled := s.FindInterfaceImpls("IDrawable", "Draw", nil)
	require.False(t, cancelled)
	require.Len(t, refs, 1)
	assert.Equal(t, "Square", refs[0].SourceType)
	assert.Equal(t, KindInterfaceImpl, refs[0].Kind)
}

func TestScanner_PrivateFieldScope_ExcludesUnrelatedTypes(t *testing.T) {
	m, types, hierarchy := buildModule()
	s := NewScanner(m, hierarchy, types)
	scope := s.scopeTypes(model.AccessPrivate, "Square")
	var names []string
	for _, te := range scope {
		names = append(names, te.FullName)
	}
	assert.Equal(t, []string{"Square"}, names)
}
