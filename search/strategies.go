package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/ilscope/index"
	"github.com/viant/ilscope/model"
)

// Strategy is one pluggable search source; each declares the Modes it
// answers and returns its Results, which Run merges (§4.7, §9 design note:
// heterogeneous dispatch via a value + trait, not an inheritance
// hierarchy).
type Strategy interface {
	Modes() []Mode
	Search(types *index.TypeIndex, members *index.MemberIndex, q *Query, namespaceFilter string) []Result
}

func supports(s Strategy, mode Mode) bool {
	if mode == "" || mode == ModeAuto {
		// no token or literal shape detected: type-and-member search
		return supports(s, ModeType) || supports(s, ModeMember)
	}
	for _, m := range s.Modes() {
		if m == mode {
			return true
		}
	}
	return false
}

func inNamespace(ns, filter string) bool {
	return filter == "" || ns == filter
}

func typeKind(t *model.TypeDef) Kind {
	switch {
	case t.Flags.IsInterface:
		return KindInterface
	case t.Flags.IsEnum:
		return KindEnum
	case t.BaseType == "System.MulticastDelegate" || t.BaseType == "System.Delegate":
		return KindDelegate
	case t.Flags.IsValueType:
		return KindStruct
	default:
		return KindClass
	}
}

// TypeStrategy matches against type name and full name (§4.7 #1).
type TypeStrategy struct{}

func (TypeStrategy) Modes() []Mode { return []Mode{ModeType} }

func (TypeStrategy) Search(types *index.TypeIndex, _ *index.MemberIndex, q *Query, namespaceFilter string) []Result {
	var out []Result
	for _, te := range types.All() {
		if !inNamespace(te.Namespace, namespaceFilter) {
			continue
		}
		if !q.Matches(te.Name) && !q.Matches(te.FullName) {
			continue
		}
		out = append(out, Result{
			ID: te.ID, Name: te.Name, Kind: typeKind(te.Type),
			Relevance: score(te.Name, q, false),
		})
	}
	return out
}

// MemberStrategy matches against method/field/property/event names
// (§4.7 #2).
type MemberStrategy struct{}

func (MemberStrategy) Modes() []Mode { return []Mode{ModeMember} }

func (MemberStrategy) Search(_ *index.TypeIndex, members *index.MemberIndex, q *Query, namespaceFilter string) []Result {
	var out []Result
	for _, me := range members.All() {
		if namespaceFilter != "" && !strings.HasPrefix(me.DeclaringType, namespaceFilter+".") && me.DeclaringType != namespaceFilter {
			continue
		}
		if !q.Matches(me.Name) {
			continue
		}
		isConstant := me.Kind == index.MemberField && me.Field != nil && me.Field.IsConstant
		out = append(out, Result{
			ID: me.ID, Name: me.Name, Kind: Kind(me.Kind), DeclaringType: me.DeclaringType,
			Relevance: score(me.Name, q, isConstant),
		})
	}
	return out
}

// literalString renders a constant value as its searchable string form.
func literalString(v interface{}) string {
	switch n := v.(type) {
	case string:
		return n
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// LiteralStrategy scans method bodies for load-string/integer/float
// constants and static fields with constant values (§4.7 #3).
type LiteralStrategy struct{}

func (LiteralStrategy) Modes() []Mode { return []Mode{ModeLiteral} }

func (LiteralStrategy) Search(types *index.TypeIndex, _ *index.MemberIndex, q *Query, namespaceFilter string) []Result {
	var out []Result
	for _, te := range types.All() {
		if !inNamespace(te.Namespace, namespaceFilter) {
			continue
		}
		for _, f := range te.Type.Fields {
			if !f.IsConstant {
				continue
			}
			s := literalString(f.ConstValue)
			if q.Matches(s) {
				out = append(out, Result{
					Name: s, Kind: KindLiteral, DeclaringType: te.FullName,
					Detail: f.Name, Relevance: score(s, q, true),
				})
			}
		}
		for _, meth := range te.Type.Methods {
			if meth.Body == nil {
				continue
			}
			for _, ins := range meth.Body.Instructions {
				var s string
				switch ins.Operand.Kind {
				case model.OperandLiteralString:
					s = ins.Operand.StringValue
				case model.OperandLiteralI4:
					s = strconv.FormatInt(int64(ins.Operand.I4Value), 10)
				case model.OperandLiteralI8:
					s = strconv.FormatInt(ins.Operand.I8Value, 10)
				case model.OperandLiteralR4:
					s = strconv.FormatFloat(float64(ins.Operand.R4Value), 'g', -1, 32)
				case model.OperandLiteralR8:
					s = strconv.FormatFloat(ins.Operand.R8Value, 'g', -1, 64)
				default:
					continue
				}
				if q.Matches(s) {
					out = append(out, Result{
						Name: s, Kind: KindLiteral, DeclaringType: te.FullName,
						Detail: meth.Name, Relevance: score(s, q, false),
					})
				}
			}
		}
	}
	return out
}

// TokenStrategy parses a hex metadata token and returns the unique
// type/method/field whose token equals the value (§4.7 #4).
type TokenStrategy struct{}

func (TokenStrategy) Modes() []Mode { return []Mode{ModeToken} }

func (TokenStrategy) Search(types *index.TypeIndex, members *index.MemberIndex, q *Query, _ string) []Result {
	raw := strings.TrimSpace(q.Raw)
	val, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X"), 16, 32)
	if err != nil {
		return nil
	}
	tok := uint32(val)
	var out []Result
	for _, te := range types.All() {
		if te.Type.MetadataTok == tok {
			out = append(out, Result{ID: te.ID, Name: te.Name, Kind: typeKind(te.Type), Relevance: 1.0})
		}
	}
	for _, me := range members.All() {
		var metaTok uint32
		switch me.Kind {
		case index.MemberMethod:
			metaTok = me.Method.MetadataTok
		case index.MemberField:
			metaTok = me.Field.MetadataTok
		default:
			continue
		}
		if metaTok == tok {
			out = append(out, Result{ID: me.ID, Name: me.Name, Kind: Kind(me.Kind), DeclaringType: me.DeclaringType, Relevance: 1.0})
		}
	}
	return out
}
