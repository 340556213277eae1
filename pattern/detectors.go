package pattern

import (
	"strings"

	"github.com/viant/ilscope/model"
)

func fieldOfOwnType(t *model.TypeDef) *model.FieldDef {
	for _, f := range t.Fields {
		if f.IsStatic && f.FieldType == t.FullName {
			return f
		}
	}
	return nil
}

func hasPrivateCtor(t *model.TypeDef) bool {
	for _, m := range t.Methods {
		if m.Flags.IsConstructor && !m.Flags.IsStatic && m.Access == model.AccessPrivate {
			return true
		}
	}
	return false
}

func hasPublicStaticAccessor(t *model.TypeDef, namePart string) bool {
	for _, m := range t.Methods {
		if m.Flags.IsStatic && m.Access == model.AccessPublic && strings.Contains(m.Name, namePart) {
			return true
		}
	}
	for _, p := range t.Properties {
		if strings.Contains(p.Name, namePart) && p.Getter != "" {
			if g := findMethodNamed(t, p.Getter); g != nil && g.Flags.IsStatic && g.Access == model.AccessPublic {
				return true
			}
		}
	}
	return false
}

func findMethodNamed(t *model.TypeDef, name string) *model.MethodDef {
	for _, m := range t.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// detectSingleton: static field of own type, private ctor, public static
// "Instance" accessor. Base 0.5 + 0.3 ctor + 0.1 sealed + 0.1 field named
// "Instance" or "_instance", case-insensitive (§4.8 table row 1).
func detectSingleton(t *model.TypeDef) *DetectedPattern {
	field := fieldOfOwnType(t)
	if field == nil || !hasPrivateCtor(t) || !hasPublicStaticAccessor(t, "Instance") {
		return nil
	}
	conf := 0.5 + 0.3
	var evidence []string
	evidence = append(evidence, "Static instance field", "Private constructor", "Public static Instance accessor")
	if t.Flags.IsSealed {
		conf += 0.1
		evidence = append(evidence, "Sealed type")
	}
	if strings.EqualFold(field.Name, "Instance") || strings.EqualFold(field.Name, "_instance") {
		conf += 0.1
		evidence = append(evidence, "Instance field name")
	}
	return &DetectedPattern{TypeID: t.FullName, Confidence: conf, Evidence: evidence}
}

// detectFactory: ≥1 public Create*/Make*/Build*/New* method returning a
// type other than t. Base 0.4 + 0.2 (≥2 methods) + 0.1 (≥3) + 0.3 name
// contains "Factory" (§4.8 table row 2).
func detectFactory(t *model.TypeDef) *DetectedPattern {
	prefixes := []string{"Create", "Make", "Build", "New"}
	count := 0
	var evidence []string
	for _, m := range t.Methods {
		if m.Access != model.AccessPublic || m.Flags.IsAbstract {
			continue
		}
		if hasMethodPrefix(m.Name, prefixes...) && m.ReturnType != "" && m.ReturnType != t.FullName {
			count++
			evidence = append(evidence, "Factory method "+m.Name)
		}
	}
	if count == 0 {
		return nil
	}
	conf := 0.4
	if count >= 2 {
		conf += 0.2
	}
	if count >= 3 {
		conf += 0.1
	}
	if strings.Contains(t.Name, "Factory") {
		conf += 0.3
		evidence = append(evidence, "Type name contains Factory")
	}
	return &DetectedPattern{TypeID: t.FullName, Confidence: conf, Evidence: evidence}
}

// detectAbstractFactory: abstract type or interface with ≥2 abstract
// Create* methods. Base 0.5 + 0.2 (≥2) or 0.3 (≥3+) (§4.8 table row 3).
func detectAbstractFactory(t *model.TypeDef) *DetectedPattern {
	if !t.Flags.IsAbstract && !t.Flags.IsInterface {
		return nil
	}
	count := 0
	var evidence []string
	for _, m := range t.Methods {
		if (m.Flags.IsAbstract || t.Flags.IsInterface) && hasMethodPrefix(m.Name, "Create") {
			count++
			evidence = append(evidence, "Abstract factory method "+m.Name)
		}
	}
	if count < 2 {
		return nil
	}
	conf := 0.5
	if count >= 3 {
		conf += 0.3
	} else {
		conf += 0.2
	}
	return &DetectedPattern{TypeID: t.FullName, Confidence: conf, Evidence: evidence}
}

// detectBuilder: a Build method plus ≥2 fluent With*/Set* methods
// returning the declaring type. Base 0.4 + 0.2 (≥2 fluent) / 0.1 more +
// 0.3 name contains "Builder" (§4.8 table row 4).
func detectBuilder(t *model.TypeDef) *DetectedPattern {
	hasBuild := false
	fluent := 0
	var evidence []string
	for _, m := range t.Methods {
		if m.Access != model.AccessPublic {
			continue
		}
		if m.Name == "Build" {
			hasBuild = true
			evidence = append(evidence, "Build method")
		}
		if hasMethodPrefix(m.Name, "With", "Set") && m.ReturnType == t.FullName {
			fluent++
		}
	}
	if !hasBuild || fluent < 2 {
		return nil
	}
	conf := 0.4 + 0.2
	if fluent >= 3 {
		conf += 0.1
	}
	evidence = append(evidence, "Fluent chained setters")
	if strings.Contains(t.Name, "Builder") {
		conf += 0.3
		evidence = append(evidence, "Type name contains Builder")
	}
	return &DetectedPattern{TypeID: t.FullName, Confidence: conf, Evidence: evidence}
}

// detectObserver: implements IObserver<T>, has events, or a
// Subscribe/Unsubscribe pair (§4.8 table row 5, "composed").
func detectObserver(t *model.TypeDef) *DetectedPattern {
	conf := 0.0
	var evidence []string
	for _, iface := range t.Interfaces {
		if strings.HasPrefix(iface, "IObserver") || strings.HasPrefix(iface, "System.IObserver") {
			conf += 0.5
			evidence = append(evidence, "Implements IObserver<T>")
		}
	}
	if len(t.Events) > 0 {
		conf += 0.3
		evidence = append(evidence, "Declares events")
	}
	hasSub, hasUnsub := false, false
	for _, m := range t.Methods {
		if strings.HasPrefix(m.Name, "Subscribe") {
			hasSub = true
		}
		if strings.HasPrefix(m.Name, "Unsubscribe") {
			hasUnsub = true
		}
	}
	if hasSub && hasUnsub {
		conf += 0.3
		evidence = append(evidence, "Subscribe/Unsubscribe pair")
	}
	if conf == 0 {
		return nil
	}
	return &DetectedPattern{TypeID: t.FullName, Confidence: conf, Evidence: evidence}
}

// detectPrototype: implements ICloneable or defines a parameterless
// Clone method (§4.8 table row 6).
func detectPrototype(t *model.TypeDef) *DetectedPattern {
	conf := 0.0
	var evidence []string
	for _, iface := range t.Interfaces {
		if iface == "ICloneable" || iface == "System.ICloneable" {
			conf += 0.4
			evidence = append(evidence, "Implements ICloneable")
		}
	}
	for _, m := range t.Methods {
		if m.Name == "Clone" && len(m.Parameters) == 0 {
			conf += 0.4
			evidence = append(evidence, "Parameterless Clone method")
		}
	}
	if conf == 0 {
		return nil
	}
	if conf > 0.4 {
		conf += 0.2
	}
	return &DetectedPattern{TypeID: t.FullName, Confidence: conf, Evidence: evidence}
}

// detectBridge: a field typed as an "Implementor"-shaped type the
// abstraction delegates to, structural signal (§4.8 table row 7).
func detectBridge(t *model.TypeDef) *DetectedPattern {
	for _, f := range t.Fields {
		if strings.HasSuffix(f.FieldType, "Implementor") || strings.Contains(f.FieldType, "Impl") {
			return &DetectedPattern{TypeID: t.FullName, Confidence: 0.5, Evidence: []string{"Holds an implementor-typed field: " + f.Name}}
		}
	}
	return nil
}

// detectComposite: a field whose type is a collection of t's own type
// (self-referential aggregate), structural signal (§4.8 table row 7).
// Collections of t's interfaces are not matched.
func detectComposite(t *model.TypeDef) *DetectedPattern {
	for _, f := range t.Fields {
		if containsElementType(f.FieldType, t.FullName) {
			return &DetectedPattern{TypeID: t.FullName, Confidence: 0.6, Evidence: []string{"Self-referential collection field: " + f.Name}}
		}
	}
	return nil
}

func containsElementType(collectionType, element string) bool {
	return strings.Contains(collectionType, element) && (strings.Contains(collectionType, "[]") || strings.Contains(collectionType, "List") || strings.Contains(collectionType, "Collection"))
}

// detectDecorator: implements one of its own declared interfaces while
// also holding a field of that same interface type (wraps another
// implementor), structural signal (§4.8 table row 7).
func detectDecorator(t *model.TypeDef) *DetectedPattern {
	for _, iface := range t.Interfaces {
		for _, f := range t.Fields {
			if f.FieldType == iface {
				return &DetectedPattern{TypeID: t.FullName, Confidence: 0.55, Evidence: []string{"Wraps a field of its own interface type: " + f.Name}}
			}
		}
	}
	return nil
}

// detectFacade: a type with no declared interfaces/base type and ≥3
// fields of distinct non-system types, structural signal (§4.8 table
// row 7). The type's methods are not inspected.
func detectFacade(t *model.TypeDef) *DetectedPattern {
	if len(t.Interfaces) > 0 || t.BaseType != "" {
		return nil
	}
	distinct := map[string]bool{}
	for _, f := range t.Fields {
		if !strings.HasPrefix(f.FieldType, "System.") {
			distinct[f.FieldType] = true
		}
	}
	if len(distinct) < 3 {
		return nil
	}
	return &DetectedPattern{TypeID: t.FullName, Confidence: 0.5, Evidence: []string{"Aggregates multiple subsystem fields"}}
}

// detectFlyweight: a static dictionary-shaped cache field, structural
// signal (§4.8 table row 7).
func detectFlyweight(t *model.TypeDef) *DetectedPattern {
	for _, f := range t.Fields {
		if f.IsStatic && (strings.Contains(f.FieldType, "Dictionary") || strings.Contains(f.FieldType, "Map")) {
			return &DetectedPattern{TypeID: t.FullName, Confidence: 0.5, Evidence: []string{"Static dictionary cache field: " + f.Name}}
		}
	}
	return nil
}

// detectProxy: implements an interface and holds a field of that same
// interface type, with at least one method body calling that interface;
// confidence is 0.5 + 0.1 per delegating method, structural signal (§4.8
// table row 7).
func detectProxy(t *model.TypeDef) *DetectedPattern {
	for _, iface := range t.Interfaces {
		for _, f := range t.Fields {
			if f.FieldType != iface {
				continue
			}
			delegating := 0
			for _, m := range t.Methods {
				if m.Body == nil {
					continue
				}
				for _, ins := range m.Body.Instructions {
					if (ins.Opcode == "call" || ins.Opcode == "callvirt") && ins.Operand.MethodRef != nil && ins.Operand.MethodRef.DeclaringType == iface {
						delegating++
						break
					}
				}
			}
			if delegating > 0 {
				return &DetectedPattern{TypeID: t.FullName, Confidence: 0.5 + 0.1*float64(delegating), Evidence: []string{"Proxied interface field with delegating calls: " + f.Name}}
			}
		}
	}
	return nil
}

// detectStrategy: an interface with 1–3 abstract methods. Base 0.4 +
// name contains "Strategy" + single-method bonus (§4.8 table row 8).
func detectStrategy(t *model.TypeDef) *DetectedPattern {
	if !t.Flags.IsInterface {
		return nil
	}
	n := len(t.Methods)
	if n < 1 || n > 3 {
		return nil
	}
	conf := 0.4
	var evidence []string
	if n == 1 {
		conf += 0.2
		evidence = append(evidence, "Single-method interface")
	}
	if strings.Contains(t.Name, "Strategy") {
		conf += 0.3
		evidence = append(evidence, "Type name contains Strategy")
	}
	return &DetectedPattern{TypeID: t.FullName, Confidence: conf, Evidence: evidence}
}

// detectCommand: implements an ICommand-shaped interface or declares an
// Execute/Undo pair, method-name signal (§4.8 table row 9).
func detectCommand(t *model.TypeDef) *DetectedPattern {
	conf := 0.0
	var evidence []string
	for _, iface := range t.Interfaces {
		if strings.Contains(iface, "ICommand") {
			conf += 0.5
			evidence = append(evidence, "Implements ICommand-shaped interface")
		}
	}
	hasExecute, hasUndo := false, false
	for _, m := range t.Methods {
		if m.Name == "Execute" {
			hasExecute = true
		}
		if m.Name == "Undo" {
			hasUndo = true
		}
	}
	if hasExecute {
		conf += 0.3
		evidence = append(evidence, "Execute method")
	}
	if hasUndo {
		conf += 0.2
		evidence = append(evidence, "Undo method")
	}
	if conf == 0 {
		return nil
	}
	return &DetectedPattern{TypeID: t.FullName, Confidence: conf, Evidence: evidence}
}

// detectState: 0.5 for implementing an IState-shaped interface plus 0.3
// for a Handle/Transition* method, either alone sufficing; fields are
// not inspected. Mixed abstract/method-name signal (§4.8 table row 9).
func detectState(t *model.TypeDef) *DetectedPattern {
	conf := 0.0
	var evidence []string
	for _, iface := range t.Interfaces {
		if strings.Contains(iface, "IState") {
			conf += 0.5
			evidence = append(evidence, "Implements IState-shaped interface")
		}
	}
	for _, m := range t.Methods {
		if m.Name == "Handle" || strings.HasPrefix(m.Name, "Transition") {
			conf += 0.3
			evidence = append(evidence, "State transition method: "+m.Name)
			break
		}
	}
	if conf == 0 {
		return nil
	}
	return &DetectedPattern{TypeID: t.FullName, Confidence: conf, Evidence: evidence}
}

// detectTemplateMethod: a non-abstract method with a body (of any
// access) holding ≥2 call sites to the type's own abstract/virtual
// methods, abstract/virtual-mix signal (§4.8 table row 9).
func detectTemplateMethod(t *model.TypeDef) *DetectedPattern {
	abstractOrVirtual := map[string]bool{}
	for _, m := range t.Methods {
		if m.Flags.IsAbstract || m.Flags.IsVirtual {
			abstractOrVirtual[m.Name] = true
		}
	}
	if len(abstractOrVirtual) < 2 {
		return nil
	}
	for _, m := range t.Methods {
		if m.Flags.IsAbstract || m.Body == nil {
			continue
		}
		calls := 0
		for _, ins := range m.Body.Instructions {
			if ins.Operand.MethodRef != nil && ins.Operand.MethodRef.DeclaringType == t.FullName && abstractOrVirtual[ins.Operand.MethodRef.Name] {
				calls++
			}
		}
		if calls >= 2 {
			return &DetectedPattern{TypeID: t.FullName, Confidence: 0.5, Evidence: []string{"Template method " + m.Name + " orchestrates abstract/virtual steps"}}
		}
	}
	return nil
}

// detectVisitor: declares Visit* methods, or a type with an Accept
// method taking a visitor-shaped parameter, method-name signal (§4.8
// table row 9).
func detectVisitor(t *model.TypeDef) *DetectedPattern {
	visitCount := 0
	for _, m := range t.Methods {
		if strings.HasPrefix(m.Name, "Visit") {
			visitCount++
		}
	}
	hasAccept := false
	for _, m := range t.Methods {
		if m.Name == "Accept" && len(m.Parameters) == 1 && strings.Contains(m.Parameters[0].Type, "Visitor") {
			hasAccept = true
		}
	}
	if visitCount == 0 && !hasAccept {
		return nil
	}
	conf := 0.0
	var evidence []string
	if visitCount > 0 {
		conf += 0.4 + 0.1*float64(minInt(visitCount, 3))
		evidence = append(evidence, "Declares Visit* methods")
	}
	if hasAccept {
		conf += 0.3
		evidence = append(evidence, "Accept(visitor) method")
	}
	return &DetectedPattern{TypeID: t.FullName, Confidence: conf, Evidence: evidence}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
