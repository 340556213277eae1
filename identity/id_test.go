package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilscope/model"
)

func TestGenerator_MemberID_Stable(t *testing.T) {
	g := NewGenerator()
	guid := model.GUID{1, 2, 3, 4}
	sig := MethodSignature("My.Ns.Type", "DoThing", []string{"int32", "string"})

	a := g.MemberID(guid, sig)
	b := g.MemberID(guid, sig)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}

func TestGenerator_MemberID_DistinctInputs(t *testing.T) {
	g := NewGenerator()
	guid1 := model.GUID{1}
	guid2 := model.GUID{2}
	sig := TypeSignature("My.Ns.Type")

	assert.NotEqual(t, g.MemberID(guid1, sig), g.MemberID(guid2, sig))
	assert.NotEqual(t,
		g.MemberID(guid1, TypeSignature("A")),
		g.MemberID(guid1, TypeSignature("B")),
	)
}

func TestMethodSignature_Overloads(t *testing.T) {
	a := MethodSignature("T", "M", []string{"int32"})
	b := MethodSignature("T", "M", []string{"string"})
	assert.NotEqual(t, a, b)
}

func TestSanitizer(t *testing.T) {
	s := NewSanitizer()
	assert.Equal(t, `abc\x00\x7F`, s.Sanitize("abc\x00\x7F"))
	assert.Equal(t, "<>c__DisplayClass", s.SanitizeTypeName("<>c__DisplayClass"))
}
