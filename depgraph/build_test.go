package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ilscope/identity"
	"github.com/viant/ilscope/index"
	"github.com/viant/ilscope/model"
)

func buildGraphFixture() (*model.Module, *index.TypeIndex) {
	shape := &model.TypeDef{FullName: "Geometry.Shape", Namespace: "Geometry", Name: "Shape"}
	circle := &model.TypeDef{
		FullName: "Geometry.Circle", Namespace: "Geometry", Name: "Circle",
		BaseType: "Geometry.Shape",
		Fields:   []*model.FieldDef{{Name: "radius", FieldType: "System.Double"}},
		Methods: []*model.MethodDef{
			{Name: "Describe", FullName: "Geometry.Circle.Describe", ReturnType: "System.String", Body: &model.MethodBody{
				Instructions: []model.Instruction{
					{Offset: 0, Opcode: "call", Operand: model.Operand{Kind: model.OperandMethodRef, MethodRef: &model.MemberRef{DeclaringType: "Geometry.Logger", Name: "Log"}}},
					{Offset: 1, Opcode: "call", Operand: model.Operand{Kind: model.OperandMethodRef, MethodRef: &model.MemberRef{DeclaringType: "System.Console", Name: "WriteLine"}}},
					{Offset: 2, Opcode: "ret", FlowControl: model.FlowReturn},
				},
			}},
		},
	}
	logger := &model.TypeDef{FullName: "Geometry.Logger", Namespace: "Geometry", Name: "Logger"}
	m := &model.Module{Types: []*model.TypeDef{shape, circle, logger}}
	gen := identity.NewGenerator()
	types := index.BuildTypeIndex(m, gen)
	return m, types
}

func TestBuild_TypeLevel_InheritanceAndUsage(t *testing.T) {
	m, types := buildGraphFixture()
	g := Build(m, types, LevelType, "", 0)

	require.Contains(t, g.Nodes, "Geometry.Circle")
	require.Contains(t, g.Nodes, "Geometry.Shape")
	assert.False(t, g.Nodes["Geometry.Shape"].IsExternal)

	var sawInheritance, sawLoggerUsage, sawSystemUsage bool
	for _, e := range g.Edges {
		if e.From == "Geometry.Circle" && e.To == "Geometry.Shape" && e.Kind == EdgeInheritance {
			sawInheritance = true
		}
		if e.From == "Geometry.Circle" && e.To == "Geometry.Logger" && e.Kind == EdgeUsage {
			sawLoggerUsage = true
		}
		if e.To == "System.Console" {
			sawSystemUsage = true
		}
	}
	assert.True(t, sawInheritance)
	assert.True(t, sawLoggerUsage)
	assert.False(t, sawSystemUsage, "system types must be excluded from usage edges at type level")
}

func TestBuild_TypeLevel_SystemFieldTypeHasNoUsageEdge(t *testing.T) {
	m, types := buildGraphFixture()
	g := Build(m, types, LevelType, "", 0)
	var found bool
	for _, e := range g.Edges {
		if e.From == "Geometry.Circle" && e.To == "System.Double" {
			found = true
		}
	}
	assert.False(t, found, "System.* field types are excluded from usage edges")
}

func TestBuild_NamespaceLevel_DropsSelfEdges(t *testing.T) {
	m, types := buildGraphFixture()
	g := Build(m, types, LevelNamespace, "", 0)
	require.Contains(t, g.Nodes, "Geometry")
	for _, e := range g.Edges {
		assert.NotEqual(t, "Geometry", e.To, "no self edges at namespace level")
	}
}

func TestBuild_PruneByDepth_LimitsReachableNodes(t *testing.T) {
	m, types := buildGraphFixture()
	g := Build(m, types, LevelType, "Geometry.Circle", 1)
	assert.Contains(t, g.Nodes, "Geometry.Circle")
	assert.Contains(t, g.Nodes, "Geometry.Shape")
	assert.Contains(t, g.Nodes, "Geometry.Logger")
}

func TestBuild_PruneByDepth_UnknownRootYieldsEmptyGraph(t *testing.T) {
	m, types := buildGraphFixture()
	g := Build(m, types, LevelType, "Nonexistent.Type", 1)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestAddEdge_TypeLevelKeepsKindDistinct(t *testing.T) {
	g := newGraph(LevelType)
	g.node("A", "A", false)
	g.node("B", "B", false)
	g.addEdge("A", "B", EdgeInheritance, false)
	g.addEdge("A", "B", EdgeUsage, false)
	require.Len(t, g.Edges, 2)
}

func TestAddEdge_MergedKindAccumulatesWeight(t *testing.T) {
	g := newGraph(LevelNamespace)
	g.node("A", "A", false)
	g.node("B", "B", false)
	g.addEdge("A", "B", EdgeInheritance, true)
	g.addEdge("A", "B", EdgeUsage, true)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, 2, g.Edges[0].Weight)
	assert.Equal(t, EdgeInheritance, g.Edges[0].Kind, "first kind wins on merge")
}
