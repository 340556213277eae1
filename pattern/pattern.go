// Package pattern implements the GoF design-pattern heuristic detectors
// (§4.8): each is a structural shape matcher over one TypeDef, scored by
// the confidence formula the spec's detector-contract table assigns it.
// Detectors never fail a whole scan for one type (§7): a panic inside one
// detector is recovered and reported as a KindDetectorFailure result for
// that type/pattern pair only; the other detectors still run.
package pattern

import (
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"

	"github.com/viant/ilscope/model"
)

// Kind enumerates the GoF patterns a detector may recognize.
type Kind string

const (
	KindSingleton       Kind = "singleton"
	KindFactory         Kind = "factory"
	KindAbstractFactory Kind = "abstract_factory"
	KindBuilder         Kind = "builder"
	KindObserver        Kind = "observer"
	KindPrototype       Kind = "prototype"
	KindBridge          Kind = "bridge"
	KindComposite       Kind = "composite"
	KindDecorator       Kind = "decorator"
	KindFacade          Kind = "facade"
	KindFlyweight       Kind = "flyweight"
	KindProxy           Kind = "proxy"
	KindStrategy        Kind = "strategy"
	KindCommand         Kind = "command"
	KindState           Kind = "state"
	KindTemplateMethod  Kind = "template_method"
	KindVisitor         Kind = "visitor"

	// KindDetectorFailure marks a recovered detector panic (§7): the
	// failing detector's own Kind could not complete, so this stands in
	// for it, carrying the exception text as Evidence instead of vanishing.
	KindDetectorFailure Kind = "detector_failure"
)

// DetectedPattern is one detector's finding for one type.
type DetectedPattern struct {
	Kind       Kind
	TypeID     string
	TypeName   string
	Confidence float64
	Evidence   []string
}

// detector is a value + trait pairing a Kind with its matcher function
// (§9 design note: no open-world inheritance hierarchy, just a list of
// values iterated at detect time).
type detector struct {
	kind  Kind
	match func(t *model.TypeDef) *DetectedPattern
}

var detectors = []detector{
	{KindSingleton, detectSingleton},
	{KindFactory, detectFactory},
	{KindAbstractFactory, detectAbstractFactory},
	{KindBuilder, detectBuilder},
	{KindObserver, detectObserver},
	{KindPrototype, detectPrototype},
	{KindBridge, detectBridge},
	{KindComposite, detectComposite},
	{KindDecorator, detectDecorator},
	{KindFacade, detectFacade},
	{KindFlyweight, detectFlyweight},
	{KindProxy, detectProxy},
	{KindStrategy, detectStrategy},
	{KindCommand, detectCommand},
	{KindState, detectState},
	{KindTemplateMethod, detectTemplateMethod},
	{KindVisitor, detectVisitor},
}

// isCompilerGenerated reports whether a type name should be skipped per
// §4.8 ("names containing `<` or `$`").
func isCompilerGenerated(name string) bool {
	return strings.ContainsAny(name, "<$")
}

// DetectAll runs every detector over every type in m, skipping
// compiler-generated types, and optionally restricting to one type when
// typeNameFilter is non-empty (detect_patterns(type_name?), §6).
func DetectAll(m *model.Module, typeNameFilter string) []DetectedPattern {
	var out []DetectedPattern
	var walk func(t *model.TypeDef)
	walk = func(t *model.TypeDef) {
		if isCompilerGenerated(t.Name) {
			return
		}
		if typeNameFilter == "" || t.FullName == typeNameFilter {
			out = append(out, detectType(t)...)
		}
		for _, nested := range t.NestedTypes {
			walk(nested)
		}
	}
	for _, t := range m.Types {
		walk(t)
	}
	return out
}

// detectType runs every detector against t, recovering from any panic so
// one misbehaving detector cannot fail the whole scan (§7).
func detectType(t *model.TypeDef) []DetectedPattern {
	var out []DetectedPattern
	for _, d := range detectors {
		if p := runDetector(d, t); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

func runDetector(d detector, t *model.TypeDef) (result *DetectedPattern) {
	defer func() {
		if r := recover(); r != nil {
			stack := goerrors.Wrap(r, 1)
			result = &DetectedPattern{
				Kind:     KindDetectorFailure,
				TypeID:   t.FullName,
				TypeName: t.FullName,
				Evidence: []string{fmt.Sprintf("%s detector panicked: %v", d.kind, stack.Error())},
			}
		}
	}()
	p := d.match(t)
	if p == nil {
		return nil
	}
	p.Kind = d.kind
	p.TypeName = t.FullName
	if p.Confidence > 1 {
		p.Confidence = 1
	}
	return p
}

func hasMethodPrefix(name string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
