package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ilscope/identity"
	"github.com/viant/ilscope/model"
)

func sampleModule() *model.Module {
	logger := &model.TypeDef{
		FullName:  "App.Logger",
		Namespace: "App",
		Name:      "Logger",
		Fields: []*model.FieldDef{
			{Name: "_instance", Access: model.AccessPrivate, IsStatic: true, FieldType: "App.Logger"},
		},
		Methods: []*model.MethodDef{
			{Name: ".ctor", FullName: "App.Logger..ctor", DeclaringType: "App.Logger", Access: model.AccessPrivate, Flags: model.MethodFlags{IsConstructor: true}},
			{Name: ".cctor", FullName: "App.Logger..cctor", DeclaringType: "App.Logger", Access: model.AccessPrivate, Flags: model.MethodFlags{IsConstructor: true, IsStatic: true}},
			{Name: "Log", FullName: "App.Logger.Log", DeclaringType: "App.Logger", Access: model.AccessPublic},
		},
		NestedTypes: []*model.TypeDef{
			{FullName: "App.Logger+<>c__DisplayClass0", Name: "<>c__DisplayClass0"},
		},
	}
	module := &model.TypeDef{FullName: "<Module>", Name: "<Module>"}
	return &model.Module{
		GUID:  model.GUID{9, 9, 9},
		Types: []*model.TypeDef{module, logger},
	}
}

func TestBuildTypeIndex_FiltersAndNesting(t *testing.T) {
	m := sampleModule()
	gen := identity.NewGenerator()
	idx := BuildTypeIndex(m, gen)

	all := idx.All()
	require.Len(t, all, 1, "<Module> and the __-marked nested type must be filtered")
	assert.Equal(t, "App.Logger", all[0].FullName)

	found := idx.ByName("Logger")
	require.Len(t, found, 1)
	assert.Equal(t, all[0].ID, found[0].ID)

	_, ok := idx.ByID("missing")
	assert.False(t, ok)
}

func TestBuildMemberIndex_ExcludesStaticCtor(t *testing.T) {
	m := sampleModule()
	gen := identity.NewGenerator()
	types := BuildTypeIndex(m, gen)
	members := BuildMemberIndex(m, types, gen)

	names := map[string]int{}
	for _, e := range members.All() {
		names[e.Name]++
	}
	assert.Equal(t, 1, names[".ctor"])
	assert.Equal(t, 0, names[".cctor"], "static constructor must be excluded")
	assert.Equal(t, 1, names["Log"])
	assert.Equal(t, 1, names["_instance"])
}

func TestBuildTypeIndex_RecordsDiagnosticsForFilteredTypes(t *testing.T) {
	m := sampleModule()
	gen := identity.NewGenerator()
	idx := BuildTypeIndex(m, gen)

	diags := idx.Diagnostics()
	require.Len(t, diags, 2, "<Module> and the nested __-marked type each produce a diagnostic")
	for _, d := range diags {
		assert.Equal(t, "skipped_type", d.Category)
		assert.NotEmpty(t, d.Message)
	}
}

func TestTypeIndex_Search(t *testing.T) {
	m := sampleModule()
	gen := identity.NewGenerator()
	idx := BuildTypeIndex(m, gen)
	res := idx.Search("logger", 10)
	require.Len(t, res, 1)
	assert.Equal(t, "App.Logger", res[0].FullName)
}
