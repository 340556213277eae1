package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ilscope/model"
)

func findPattern(patterns []DetectedPattern, kind Kind) *DetectedPattern {
	for i := range patterns {
		if patterns[i].Kind == kind {
			return &patterns[i]
		}
	}
	return nil
}

func TestDetectSingleton(t *testing.T) {
	logger := &model.TypeDef{
		FullName: "Logger", Name: "Logger", Flags: model.TypeFlags{IsSealed: true},
		Fields: []*model.FieldDef{
			{Name: "_instance", FieldType: "Logger", IsStatic: true, Access: model.AccessPrivate},
		},
		Methods: []*model.MethodDef{
			{Name: "Logger", Flags: model.MethodFlags{IsConstructor: true}, Access: model.AccessPrivate},
			{Name: "GetInstance", Flags: model.MethodFlags{IsStatic: true}, Access: model.AccessPublic, ReturnType: "Logger"},
		},
	}
	m := &model.Module{Types: []*model.TypeDef{logger}}
	patterns := DetectAll(m, "")
	p := findPattern(patterns, KindSingleton)
	require.NotNil(t, p)
	assert.GreaterOrEqual(t, p.Confidence, 0.8)
	assert.Contains(t, p.Evidence, "Private constructor")
	assert.Contains(t, p.Evidence, "Static instance field")
}

func TestDetectFactory(t *testing.T) {
	factory := &model.TypeDef{
		FullName: "ShapeFactory", Name: "ShapeFactory",
		Methods: []*model.MethodDef{
			{Name: "CreateCircle", Access: model.AccessPublic, ReturnType: "Circle"},
			{Name: "CreateSquare", Access: model.AccessPublic, ReturnType: "Square"},
		},
	}
	m := &model.Module{Types: []*model.TypeDef{factory}}
	patterns := DetectAll(m, "")
	p := findPattern(patterns, KindFactory)
	require.NotNil(t, p)
	assert.GreaterOrEqual(t, p.Confidence, 0.9)
}

func TestDetectStrategy_InterfaceWithSingleMethod(t *testing.T) {
	strat := &model.TypeDef{
		FullName: "ISortStrategy", Name: "ISortStrategy", Flags: model.TypeFlags{IsInterface: true},
		Methods: []*model.MethodDef{{Name: "Sort"}},
	}
	m := &model.Module{Types: []*model.TypeDef{strat}}
	patterns := DetectAll(m, "")
	p := findPattern(patterns, KindStrategy)
	require.NotNil(t, p)
}

func TestDetectAll_SkipsCompilerGeneratedTypes(t *testing.T) {
	closure := &model.TypeDef{FullName: "App.<>c", Name: "<>c"}
	m := &model.Module{Types: []*model.TypeDef{closure}}
	patterns := DetectAll(m, "")
	assert.Empty(t, patterns)
}

func TestDetectAll_ConfidenceNeverExceedsOne(t *testing.T) {
	logger := &model.TypeDef{
		FullName: "Instance", Name: "Instance", Flags: model.TypeFlags{IsSealed: true},
		Fields: []*model.FieldDef{
			{Name: "Instance", FieldType: "Instance", IsStatic: true, Access: model.AccessPrivate},
		},
		Methods: []*model.MethodDef{
			{Name: "Instance", Flags: model.MethodFlags{IsConstructor: true}, Access: model.AccessPrivate},
			{Name: "Instance", Flags: model.MethodFlags{IsStatic: true}, Access: model.AccessPublic, ReturnType: "Instance"},
		},
	}
	m := &model.Module{Types: []*model.TypeDef{logger}}
	patterns := DetectAll(m, "")
	for _, p := range patterns {
		assert.LessOrEqual(t, p.Confidence, 1.0)
	}
}

func TestRunDetector_RecoversPanicAsDetectorFailure(t *testing.T) {
	d := detector{kind: KindSingleton, match: func(t *model.TypeDef) *DetectedPattern {
		panic("boom")
	}}
	p := runDetector(d, &model.TypeDef{FullName: "Broken"})
	require.NotNil(t, p)
	assert.Equal(t, KindDetectorFailure, p.Kind)
	assert.Equal(t, "Broken", p.TypeName)
	require.Len(t, p.Evidence, 1)
	assert.Contains(t, p.Evidence[0], "singleton")
	assert.Contains(t, p.Evidence[0], "boom")
}

func TestDetectAll_TypeNameFilter(t *testing.T) {
	a := &model.TypeDef{FullName: "A", Name: "A"}
	b := &model.TypeDef{
		FullName: "BFactory", Name: "BFactory",
		Methods: []*model.MethodDef{{Name: "CreateThing", Access: model.AccessPublic, ReturnType: "Thing"}},
	}
	m := &model.Module{Types: []*model.TypeDef{a, b}}
	patterns := DetectAll(m, "BFactory")
	require.Len(t, patterns, 1)
	assert.Equal(t, "BFactory", patterns[0].TypeName)
}
