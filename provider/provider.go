// Package provider declares the collaborator contracts the analysis core
// consumes (§6): the binary parser/loader, stable-ID generation, and
// string sanitization. The core never implements these itself — the
// fixture package supplies a reference implementation for tests and the
// CLI, and a production integration wires a real CIL metadata reader.
package provider

import "github.com/viant/ilscope/model"

// LoadErrorCode enumerates why a ModuleProvider failed to load a module.
type LoadErrorCode string

const (
	LoadErrFileNotFound LoadErrorCode = "file_not_found"
	LoadErrInvalidFmt   LoadErrorCode = "invalid_format"
	LoadErrAccessDenied LoadErrorCode = "access_denied"
	LoadErrUnknown      LoadErrorCode = "unknown"
)

// LoadError is returned by ModuleProvider.Load when a module cannot be
// parsed; it propagates upward unchanged per the §7 propagation policy
// for parse-time/fatal metadata errors.
type LoadError struct {
	Code    LoadErrorCode
	Message string
}

func (e *LoadError) Error() string { return string(e.Code) + ": " + e.Message }

// ResolvedKind discriminates what Resolve found, if anything.
type ResolvedKind string

const (
	ResolvedType       ResolvedKind = "type"
	ResolvedMethod     ResolvedKind = "method"
	ResolvedField      ResolvedKind = "field"
	ResolvedUnresolved ResolvedKind = "unresolved"
)

// Resolved is the outcome of resolving a type/method reference against a
// module's metadata tables.
type Resolved struct {
	Kind       ResolvedKind
	Type       *model.TypeDef
	Method     *model.MethodDef
	Field      *model.FieldDef
}

// Resource is a named, embedded module resource (e.g. a .resources
// blob); only its presence and raw bytes are exposed, no decoding.
type Resource struct {
	Name string
	Data []byte
}

// ModuleProvider is the contract the core consumes from the binary
// parser/loader collaborator. The core treats a *model.Module returned
// from Load as immutable for the lifetime of the GUID (§3 Lifecycle).
type ModuleProvider interface {
	// Load parses path into a Module, or returns a LoadError.
	Load(path string) (*model.Module, *LoadError)

	// Resolve looks up a type or method reference by its declaring-type
	// full name and member name/signature, returning ResolvedUnresolved
	// when the reference cannot be found (e.g. it targets another
	// assembly the provider has not loaded).
	Resolve(typeRef string, methodRef *model.MemberRef) Resolved

	// Resources enumerates the embedded resources of a loaded module.
	Resources(m *model.Module) []Resource
}

// MemberIDGenerator is a pure function from (module GUID, fully-qualified
// signature) to a stable string ID. identity.Generator is the canonical
// implementation; this interface exists so session wiring can accept an
// alternate generator without depending on identity directly.
type MemberIDGenerator interface {
	MemberID(guid model.GUID, signature string) string
}

// StringSanitizer escapes non-printable/non-ASCII bytes out of strings
// the core embeds in evidence/diagnostic output (§4.9, §7).
type StringSanitizer interface {
	Sanitize(s string) string
	SanitizeTypeName(s string) string
	SanitizeMethodName(s string) string
}
