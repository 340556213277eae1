package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ilscope/model"
)

const sampleYAML = `
assembly: GeometryLib
types:
  - fullName: Geometry.Shape
    namespace: Geometry
    name: Shape
    abstract: true
    methods:
      - name: Area
        returnType: System.Double
        virtual: true
        abstract: true
  - fullName: Geometry.Circle
    namespace: Geometry
    name: Circle
    baseType: Geometry.Shape
    fields:
      - name: radius
        type: System.Double
    methods:
      - name: Area
        returnType: System.Double
        virtual: true
        calls:
          - type: System.Math
            method: PI
`

func TestParse_DecodesYAMLIntoSpec(t *testing.T) {
	spec, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, spec.Types, 2)
	assert.Equal(t, "Geometry.Circle", spec.Types[1].FullName)
	assert.Equal(t, "radius", spec.Types[1].Fields[0].Name)
}

func TestBuild_ProducesModuleWithBodiesAndAbstractMethods(t *testing.T) {
	spec, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	m := Build(spec)
	require.Len(t, m.Types, 2)

	shape := m.Types[0]
	assert.True(t, shape.Flags.IsAbstract)
	require.Len(t, shape.Methods, 1)
	assert.Nil(t, shape.Methods[0].Body)

	circle := m.Types[1]
	require.Len(t, circle.Methods, 1)
	require.NotNil(t, circle.Methods[0].Body)
	assert.Equal(t, "ret", circle.Methods[0].Body.Instructions[len(circle.Methods[0].Body.Instructions)-1].Opcode)
}

func TestBuild_DeterministicGUIDFromAssemblyName(t *testing.T) {
	spec, _ := Parse([]byte(sampleYAML))
	a := Build(spec)
	b := Build(spec)
	assert.Equal(t, a.GUID, b.GUID)
}

func TestLoadModule_ReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	m, err := LoadModule(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, m.Types, 2)
}

func TestProvider_LoadReturnsWrappedModule(t *testing.T) {
	spec, _ := Parse([]byte(sampleYAML))
	m := Build(spec)
	p := NewProvider(m)

	loaded, loadErr := p.Load("ignored")
	require.Nil(t, loadErr)
	assert.Same(t, m, loaded)
}

func TestProvider_ResolveFindsMethodAndField(t *testing.T) {
	spec, _ := Parse([]byte(sampleYAML))
	m := Build(spec)
	p := NewProvider(m)

	resolved := p.Resolve("Geometry.Circle", &model.MemberRef{Name: "Area"})
	assert.Equal(t, "method", string(resolved.Kind))

	resolved = p.Resolve("Geometry.Circle", &model.MemberRef{Name: "radius"})
	assert.Equal(t, "field", string(resolved.Kind))

	resolved = p.Resolve("Nope.Nothing", nil)
	assert.Equal(t, "unresolved", string(resolved.Kind))
}
