// Package fixture builds an in-memory provider.ModuleProvider from a
// small YAML-described module, loaded via afs exactly like config's
// YAML loading, for use by tests and the CLI's smoke path.
package fixture

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/viant/ilscope/model"
	"github.com/viant/ilscope/provider"
)

// ParamSpec describes one method parameter.
type ParamSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// CallSpec describes one call instruction a method body emits, in
// declaration order.
type CallSpec struct {
	Type   string `yaml:"type"`
	Method string `yaml:"method"`
	Opcode string `yaml:"opcode"` // defaults to "call" when empty
}

// FieldSpec describes one field.
type FieldSpec struct {
	Name       string      `yaml:"name"`
	Type       string      `yaml:"type"`
	Static     bool        `yaml:"static"`
	Const      bool        `yaml:"const"`
	ConstValue interface{} `yaml:"constValue"`
	Access     string      `yaml:"access"` // "", "public", "private"
}

// MethodSpec describes one method. A method with NoBody or Abstract true
// gets a nil Body, matching an abstract/extern method (§4.2's NoBody
// case); any other method gets a body of its Calls followed by a ret,
// so a method with no Calls has a single-ret body.
type MethodSpec struct {
	Name       string      `yaml:"name"`
	ReturnType string      `yaml:"returnType"`
	Params     []ParamSpec `yaml:"params"`
	Static     bool        `yaml:"static"`
	Virtual    bool        `yaml:"virtual"`
	Abstract   bool        `yaml:"abstract"`
	Access     string      `yaml:"access"`
	NoBody     bool        `yaml:"noBody"`
	Calls      []CallSpec  `yaml:"calls"`
}

// TypeSpec describes one type.
type TypeSpec struct {
	FullName   string      `yaml:"fullName"`
	Namespace  string      `yaml:"namespace"`
	Name       string      `yaml:"name"`
	BaseType   string      `yaml:"baseType"`
	Interfaces []string    `yaml:"interfaces"`
	Abstract   bool        `yaml:"abstract"`
	Sealed     bool        `yaml:"sealed"`
	Interface  bool        `yaml:"interface"`
	Enum       bool        `yaml:"enum"`
	Fields     []FieldSpec `yaml:"fields"`
	Methods    []MethodSpec `yaml:"methods"`
}

// Spec is the top-level YAML document shape.
type Spec struct {
	Assembly string     `yaml:"assembly"`
	Types    []TypeSpec `yaml:"types"`
}

func access(a string) model.Access {
	switch a {
	case "private":
		return model.AccessPrivate
	case "family":
		return model.AccessFamily
	default:
		return model.AccessPublic
	}
}

// Build converts Spec into a model.Module, synthesizing a deterministic
// GUID from the assembly name so repeated builds of the same fixture
// yield identical stable IDs.
func Build(spec Spec) *model.Module {
	m := &model.Module{
		GUID:     guidFromName(spec.Assembly),
		Assembly: model.Assembly{Name: spec.Assembly},
	}
	for _, ts := range spec.Types {
		m.Types = append(m.Types, buildType(ts))
	}
	return m
}

func buildType(ts TypeSpec) *model.TypeDef {
	t := &model.TypeDef{
		FullName:   ts.FullName,
		Namespace:  ts.Namespace,
		Name:       ts.Name,
		BaseType:   ts.BaseType,
		Interfaces: ts.Interfaces,
		Visibility: model.VisibilityPublic,
		Flags: model.TypeFlags{
			IsAbstract:  ts.Abstract,
			IsSealed:    ts.Sealed,
			IsInterface: ts.Interface,
			IsEnum:      ts.Enum,
		},
	}
	for _, fs := range ts.Fields {
		t.Fields = append(t.Fields, &model.FieldDef{
			Name: fs.Name, FieldType: fs.Type, IsStatic: fs.Static,
			IsConstant: fs.Const, ConstValue: fs.ConstValue, Access: access(fs.Access),
		})
	}
	for _, ms := range ts.Methods {
		t.Methods = append(t.Methods, buildMethod(ts.FullName, ms))
	}
	return t
}

func buildMethod(declaringType string, ms MethodSpec) *model.MethodDef {
	var params []model.Parameter
	for _, p := range ms.Params {
		params = append(params, model.Parameter{Name: p.Name, Type: p.Type})
	}
	m := &model.MethodDef{
		Name: ms.Name, FullName: declaringType + "." + ms.Name, DeclaringType: declaringType,
		ReturnType: ms.ReturnType, Parameters: params, Access: access(ms.Access),
		Flags: model.MethodFlags{IsStatic: ms.Static, IsVirtual: ms.Virtual, IsAbstract: ms.Abstract},
	}
	if ms.Abstract || ms.NoBody {
		return m
	}
	var instructions []model.Instruction
	offset := 0
	for _, c := range ms.Calls {
		opcode := c.Opcode
		if opcode == "" {
			opcode = "call"
		}
		instructions = append(instructions, model.Instruction{
			Offset: offset, Opcode: opcode,
			Operand: model.Operand{Kind: model.OperandMethodRef, MethodRef: &model.MemberRef{DeclaringType: c.Type, Name: c.Method}},
		})
		offset++
	}
	instructions = append(instructions, model.Instruction{Offset: offset, Opcode: "ret", FlowControl: model.FlowReturn})
	m.Body = &model.MethodBody{Instructions: instructions}
	return m
}

func guidFromName(name string) model.GUID {
	var g model.GUID
	copy(g[:], []byte(fmt.Sprintf("%16s", name))[:16])
	return g
}

// Parse decodes raw YAML bytes into a Spec.
func Parse(data []byte) (Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// LoadModule fetches path via afs, parses it as a fixture Spec, and
// builds the resulting Module.
func LoadModule(ctx context.Context, path string) (*model.Module, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, err
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Build(spec), nil
}

// Provider is a reference provider.ModuleProvider over a single
// in-memory Module, for tests and the CLI's smoke path.
type Provider struct {
	module *model.Module
}

// NewProvider wraps an already-built Module.
func NewProvider(m *model.Module) *Provider { return &Provider{module: m} }

// Load ignores path and returns the wrapped module; a real
// ModuleProvider parses the binary at path instead.
func (p *Provider) Load(path string) (*model.Module, *provider.LoadError) {
	if p.module == nil {
		return nil, &provider.LoadError{Code: provider.LoadErrFileNotFound, Message: "no fixture module loaded"}
	}
	return p.module, nil
}

// Resolve looks up typeRef/methodRef against the wrapped module's own
// type list only; references to types outside the fixture resolve as
// ResolvedUnresolved, mirroring a provider that has not loaded the
// referenced assembly.
func (p *Provider) Resolve(typeRef string, methodRef *model.MemberRef) provider.Resolved {
	var target *model.TypeDef
	for _, t := range p.module.Types {
		if t.FullName == typeRef {
			target = t
			break
		}
	}
	if target == nil {
		return provider.Resolved{Kind: provider.ResolvedUnresolved}
	}
	if methodRef == nil {
		return provider.Resolved{Kind: provider.ResolvedType, Type: target}
	}
	for _, meth := range target.Methods {
		if meth.Name == methodRef.Name {
			return provider.Resolved{Kind: provider.ResolvedMethod, Type: target, Method: meth}
		}
	}
	for _, f := range target.Fields {
		if f.Name == methodRef.Name {
			return provider.Resolved{Kind: provider.ResolvedField, Type: target, Field: f}
		}
	}
	return provider.Resolved{Kind: provider.ResolvedUnresolved}
}

// Resources always returns none: the fixture format carries no embedded
// resource blobs.
func (p *Provider) Resources(m *model.Module) []provider.Resource { return nil }
