// Package identity derives stable, content-addressed IDs for types and
// members, keyed by (module GUID, fully-qualified signature), so that
// re-parsing an unchanged module yields identical IDs (§4.1). The hash
// algorithm mirrors the teacher repo's inspector/graph/hash.go use of
// highwayhash for content addressing.
package identity

import (
	"encoding/hex"
	"fmt"

	"github.com/minio/highwayhash"
	"github.com/pkg/errors"

	"github.com/viant/ilscope/model"
)

// key is a fixed 32-byte HighwayHash key. It need not be secret: IDs only
// need to be stable and collision-resistant within a single analysis
// session, not cryptographically unforgeable.
var key = []byte("ilscope-member-id-highwayhash-32")

// Generator is the canonical provider.MemberIDGenerator implementation.
type Generator struct{}

// NewGenerator constructs a Generator.
func NewGenerator() *Generator { return &Generator{} }

// MemberID derives a stable ID from a module GUID and a fully-qualified
// signature (e.g. "MyNamespace.MyType.MyMethod(int,string)" or a
// type's full name). Equal inputs always produce equal IDs; the GUID is
// mixed in so identically-named members in different module versions do
// not collide.
func (g *Generator) MemberID(guid model.GUID, signature string) string {
	h, err := highwayhash.New64(key)
	if err != nil {
		// key length is a compile-time invariant; a failure here means
		// the constant above was edited incorrectly.
		panic(errors.Wrap(err, "identity: invalid highwayhash key"))
	}
	_, _ = h.Write(guid[:])
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(signature))
	sum := h.Sum64()
	return fmt.Sprintf("id-%s", hex.EncodeToString(encodeUint64(sum)))
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// TypeSignature builds the canonical signature string for a type used
// as MemberID input: its full name alone, since types are uniquely keyed
// by (module_guid, full_name) per §3.
func TypeSignature(fullName string) string {
	return fullName
}

// MethodSignature builds the canonical signature string for a method,
// folding in the declaring type, name, and ordered parameter types so
// overloads receive distinct IDs.
func MethodSignature(declaringType, name string, paramTypes []string) string {
	sig := declaringType + "." + name + "("
	for i, p := range paramTypes {
		if i > 0 {
			sig += ","
		}
		sig += p
	}
	sig += ")"
	return sig
}

// FieldSignature builds the canonical signature string for a field.
func FieldSignature(declaringType, name string) string {
	return declaringType + "::" + name
}
