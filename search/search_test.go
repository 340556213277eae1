package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ilscope/identity"
	"github.com/viant/ilscope/index"
	"github.com/viant/ilscope/model"
)

func buildFixture() (*index.TypeIndex, *index.MemberIndex) {
	circle := &model.TypeDef{
		FullName: "Geometry.Circle", Namespace: "Geometry", Name: "Circle", MetadataTok: 0x02000010,
		Fields: []*model.FieldDef{
			{Name: "MaxRadius", FieldType: "System.Double", IsConstant: true, ConstValue: float64(100), MetadataTok: 0x04000021},
		},
		Methods: []*model.MethodDef{
			{Name: "Describe", FullName: "Geometry.Circle.Describe", ReturnType: "System.String", MetadataTok: 0x06000031, Body: &model.MethodBody{
				Instructions: []model.Instruction{
					{Offset: 0, Opcode: "ldstr", Operand: model.Operand{Kind: model.OperandLiteralString, StringValue: "a circle"}},
					{Offset: 1, Opcode: "ret", FlowControl: model.FlowReturn},
				},
			}},
		},
	}
	square := &model.TypeDef{FullName: "Geometry.Square", Namespace: "Geometry", Name: "Square", MetadataTok: 0x02000011}
	m := &model.Module{Types: []*model.TypeDef{circle, square}}
	gen := identity.NewGenerator()
	types := index.BuildTypeIndex(m, gen)
	members := index.BuildMemberIndex(m, types, gen)
	return types, members
}

func TestCompile_QueryDSL(t *testing.T) {
	q := Compile("+circle -square")
	assert.True(t, q.Matches("my circle type"))
	assert.False(t, q.Matches("my square type"))
}

func TestCompile_ExactAndFuzzy(t *testing.T) {
	q := Compile("=Circle")
	assert.True(t, q.Matches("Circle"))
	assert.False(t, q.Matches("CircleShape"))

	fuzzy := Compile("~crl")
	assert.True(t, fuzzy.Matches("Circle"))
}

func TestCompile_RegexForm(t *testing.T) {
	q := Compile("/^circ.*$/")
	require.NotNil(t, q.Regex)
	assert.True(t, q.Matches("Circle"))
}

func TestDetectMode(t *testing.T) {
	assert.Equal(t, ModeToken, DetectMode("0x02000010"))
	assert.Equal(t, ModeLiteral, DetectMode(`"a circle"`))
	assert.Equal(t, ModeLiteral, DetectMode("42"))
	assert.Equal(t, Mode(""), DetectMode("Circle"))
}

func TestTypeStrategy_MatchesNameAndFullName(t *testing.T) {
	types, members := buildFixture()
	out := TypeStrategy{}.Search(types, members, Compile("circle"), "")
	require.Len(t, out, 1)
	assert.Equal(t, "Circle", out[0].Name)
	assert.Equal(t, KindClass, out[0].Kind)
}

func TestMemberStrategy_ConstantBoostsRelevance(t *testing.T) {
	types, members := buildFixture()
	out := MemberStrategy{}.Search(types, members, Compile("maxradius"), "")
	require.Len(t, out, 1)
	assert.Greater(t, out[0].Relevance, 1.0)
}

func TestLiteralStrategy_MatchesStringConstant(t *testing.T) {
	types, members := buildFixture()
	out := LiteralStrategy{}.Search(types, members, Compile("a circle"), "")
	require.Len(t, out, 1)
	assert.Equal(t, KindLiteral, out[0].Kind)
}

func TestTokenStrategy_ResolvesHexToken(t *testing.T) {
	types, members := buildFixture()
	out := TokenStrategy{}.Search(types, members, Compile("0x02000010"), "")
	require.Len(t, out, 1)
	assert.Equal(t, "Circle", out[0].Name)
}

func TestRun_DeterministicOrderAndLimit(t *testing.T) {
	types, members := buildFixture()
	resp := Run(types, members, Request{Query: "circle", Mode: ModeType, Limit: 1}, nil)
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.HasMore)
}

func TestRun_Idempotent(t *testing.T) {
	types, members := buildFixture()
	a := Run(types, members, Request{Query: "circle"}, nil)
	b := Run(types, members, Request{Query: "circle"}, nil)
	require.Equal(t, len(a.Results), len(b.Results))
	for i := range a.Results {
		assert.Equal(t, a.Results[i].Name, b.Results[i].Name)
	}
}
