package xref

import (
	"strings"

	"github.com/viant/ilscope/cancel"
	"github.com/viant/ilscope/model"
)

// FindReferencesToType scans the scope-pruned set of types for any
// reference to targetTypeFullName: base type, implemented interfaces,
// field/parameter/return/local types, and TypeRef operands (§4.5). The
// second return is true when the scan was cancelled before completion.
func (s *Scanner) FindReferencesToType(targetTypeFullName string, token cancel.Token) ([]Reference, bool) {
	token = checkCancel(token)
	target, ok := s.types.ByFullName(targetTypeFullName)
	if !ok {
		return nil, false
	}
	eff := VisibilityToAccess(target.Visibility)
	scope := s.scopeTypes(eff, s.enclosingFullName(target))

	var refs []Reference
	for _, te := range scope {
		if token.Cancelled() {
			return nil, true
		}
		t := te.Type
		if t.BaseType != "" && containsTypeName(t.BaseType, targetTypeFullName) {
			refs = append(refs, Reference{SourceType: t.FullName, Kind: KindTypeReference, Offset: -1})
		}
		for _, iface := range t.Interfaces {
			if containsTypeName(iface, targetTypeFullName) {
				refs = append(refs, Reference{SourceType: t.FullName, Kind: KindTypeReference, Offset: -1})
			}
		}
		for _, f := range t.Fields {
			if containsTypeName(f.FieldType, targetTypeFullName) {
				refs = append(refs, Reference{SourceType: t.FullName, SourceMember: f.Name, Kind: KindTypeReference, Offset: -1})
			}
		}
		for _, meth := range t.Methods {
			if containsTypeName(meth.ReturnType, targetTypeFullName) {
				refs = append(refs, Reference{SourceType: t.FullName, SourceMember: meth.Name, Kind: KindTypeReference, Offset: -1})
			}
			for _, p := range meth.Parameters {
				if containsTypeName(p.Type, targetTypeFullName) {
					refs = append(refs, Reference{SourceType: t.FullName, SourceMember: meth.Name, Kind: KindTypeReference, Offset: -1})
				}
			}
			if meth.Body == nil {
				continue
			}
			for _, lv := range meth.Body.LocalVariables {
				if containsTypeName(lv.Type, targetTypeFullName) {
					refs = append(refs, Reference{SourceType: t.FullName, SourceMember: meth.Name, Kind: KindTypeReference, Offset: -1})
				}
			}
			for _, ins := range meth.Body.Instructions {
				if ins.Operand.Kind == model.OperandTypeRef && containsTypeName(ins.Operand.TypeRef, targetTypeFullName) {
					refs = append(refs, Reference{SourceType: t.FullName, SourceMember: meth.Name, Kind: KindTypeReference, Offset: ins.Offset})
				}
			}
		}
	}
	return dedup(refs), false
}

func normalizeNativeModule(name string) string {
	name = strings.ToLower(name)
	for _, suffix := range []string{".dll", ".so", ".dylib"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return strings.TrimPrefix(name, "lib")
}

// matchesCallTarget compares a call-site operand against a target
// method, applying the P/Invoke entry-point/native-module equality
// extension (§4.5) when the target is a P/Invoke method.
func matchesCallTarget(ref *model.MemberRef, typeFullName, methodName string, pinvoke *model.PInvokeInfo) bool {
	if ref == nil {
		return false
	}
	if ref.DeclaringType == typeFullName && ref.Name == methodName {
		return true
	}
	if pinvoke == nil {
		return false
	}
	entryPoint := pinvoke.EntryPoint
	if entryPoint == "" {
		entryPoint = methodName
	}
	return ref.Name == entryPoint && normalizeNativeModule(ref.DeclaringType) == normalizeNativeModule(pinvoke.ModuleName)
}

func findMethod(t *model.TypeDef, name string) *model.MethodDef {
	for _, m := range t.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// FindCallsToMethod scans the scope-pruned set of types for call,
// callvirt, newobj, ldftn, and ldvirtftn operands targeting
// typeFullName.methodName (§4.5).
func (s *Scanner) FindCallsToMethod(typeFullName, methodName string, token cancel.Token) ([]Reference, bool) {
	token = checkCancel(token)
	declEntry, ok := s.types.ByFullName(typeFullName)
	if !ok {
		return nil, false
	}
	target := findMethod(declEntry.Type, methodName)
	if target == nil {
		return nil, false
	}
	eff := EffectiveAccess(target.Access, declEntry.Visibility)
	scope := s.scopeTypes(eff, typeFullName)

	var refs []Reference
	for _, te := range scope {
		if token.Cancelled() {
			return nil, true
		}
		for _, meth := range te.Type.Methods {
			if meth.Body == nil {
				continue
			}
			for _, ins := range meth.Body.Instructions {
				switch ins.Opcode {
				case "call", "callvirt", "newobj", "ldftn", "ldvirtftn":
					if matchesCallTarget(ins.Operand.MethodRef, typeFullName, methodName, target.PInvoke) {
						refs = append(refs, Reference{SourceType: te.FullName, SourceMember: meth.Name, Kind: KindCall, Offset: ins.Offset})
					}
				}
			}
		}
	}
	return dedup(refs), false
}

// FindFieldUsages scans the scope-pruned set of types for ldfld/ldflda/
// ldsfld/ldsflda (read) and stfld/stsfld (write) operands targeting
// typeFullName.fieldName (§4.5).
func (s *Scanner) FindFieldUsages(typeFullName, fieldName string, token cancel.Token) ([]Reference, bool) {
	token = checkCancel(token)
	declEntry, ok := s.types.ByFullName(typeFullName)
	if !ok {
		return nil, false
	}
	var target *model.FieldDef
	for _, f := range declEntry.Type.Fields {
		if f.Name == fieldName {
			target = f
			break
		}
	}
	if target == nil {
		return nil, false
	}
	eff := EffectiveAccess(target.Access, declEntry.Visibility)
	scope := s.scopeTypes(eff, typeFullName)

	var refs []Reference
	for _, te := range scope {
		if token.Cancelled() {
			return nil, true
		}
		for _, meth := range te.Type.Methods {
			if meth.Body == nil {
				continue
			}
			for _, ins := range meth.Body.Instructions {
				ref := ins.Operand.FieldRef
				if ref == nil || ref.DeclaringType != typeFullName || ref.Name != fieldName {
					continue
				}
				switch ins.Opcode {
				case "ldfld", "ldflda", "ldsfld", "ldsflda":
					refs = append(refs, Reference{SourceType: te.FullName, SourceMember: meth.Name, Kind: KindFieldRead, Offset: ins.Offset})
				case "stfld", "stsfld":
					refs = append(refs, Reference{SourceType: te.FullName, SourceMember: meth.Name, Kind: KindFieldWrite, Offset: ins.Offset})
				}
			}
		}
	}
	return dedup(refs), false
}

func sameParamTypes(a, b []model.Parameter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type {
			return false
		}
	}
	return true
}

// FindMethodOverrides walks every transitive descendant of typeFullName
// for a virtual method matching methodName's name, parameter types (in
// order), and return type (§4.5).
func (s *Scanner) FindMethodOverrides(typeFullName, methodName string, token cancel.Token) ([]Reference, bool) {
	token = checkCancel(token)
	declEntry, ok := s.types.ByFullName(typeFullName)
	if !ok {
		return nil, false
	}
	base := findMethod(declEntry.Type, methodName)
	if base == nil {
		return nil, false
	}
	var refs []Reference
	for _, t := range s.hierarchy.TransitiveDescendants(typeFullName) {
		if token.Cancelled() {
			return nil, true
		}
		for _, meth := range t.Methods {
			if !meth.Flags.IsVirtual || meth.Name != methodName {
				continue
			}
			if meth.ReturnType != base.ReturnType || !sameParamTypes(meth.Parameters, base.Parameters) {
				continue
			}
			refs = append(refs, Reference{SourceType: t.FullName, SourceMember: meth.Name, Kind: KindOverride, Offset: -1})
		}
	}
	return dedup(refs), false
}

// FindInterfaceImpls finds every type implementing
// ifaceFullName.methodName, whether explicit (via the method's Overrides
// list) or implicit (a public method with matching name and signature on
// a type whose Interfaces list contains ifaceFullName) (§4.5).
func (s *Scanner) FindInterfaceImpls(ifaceFullName, methodName string, token cancel.Token) ([]Reference, bool) {
	token = checkCancel(token)
	ifaceEntry, ok := s.types.ByFullName(ifaceFullName)
	if !ok {
		return nil, false
	}
	ifaceMethod := findMethod(ifaceEntry.Type, methodName)

	explicitName := ifaceFullName + "." + methodName
	var refs []Reference
	for _, t := range s.hierarchy.TransitiveDescendants(ifaceFullName) {
		if token.Cancelled() {
			return nil, true
		}
		for _, meth := range t.Methods {
			for _, ov := range meth.Overrides {
				if ov == explicitName {
					refs = append(refs, Reference{SourceType: t.FullName, SourceMember: meth.Name, Kind: KindInterfaceImpl, Offset: -1})
				}
			}
			if ifaceMethod == nil || meth.Name != methodName || meth.Access != model.AccessPublic {
				continue
			}
			if !implementsInterface(t, ifaceFullName) {
				continue
			}
			if meth.ReturnType == ifaceMethod.ReturnType && sameParamTypes(meth.Parameters, ifaceMethod.Parameters) {
				refs = append(refs, Reference{SourceType: t.FullName, SourceMember: meth.Name, Kind: KindInterfaceImpl, Offset: -1})
			}
		}
	}
	return dedup(refs), false
}

func implementsInterface(t *model.TypeDef, ifaceFullName string) bool {
	for _, iface := range t.Interfaces {
		if iface == ifaceFullName {
			return true
		}
	}
	return false
}
