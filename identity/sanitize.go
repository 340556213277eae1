package identity

import (
	"fmt"
	"strings"
)

// Sanitizer is the canonical provider.StringSanitizer implementation.
// Evidence strings and diagnostics that embed raw type/method/identifier
// names must pass through it before being surfaced (§4.9, §7).
type Sanitizer struct{}

// NewSanitizer constructs a Sanitizer.
func NewSanitizer() *Sanitizer { return &Sanitizer{} }

// Sanitize escapes bytes outside the printable ASCII range as \xHH.
func (s *Sanitizer) Sanitize(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c < 0x20 || c > 0x7E {
			fmt.Fprintf(&b, `\x%02X`, c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// SanitizeTypeName sanitizes a type name, except that a leading
// compiler-marker segment (from "<" through the first ">") is passed
// through unescaped (e.g. "<>c__DisplayClass" keeps its leading marker).
func (s *Sanitizer) SanitizeTypeName(v string) string {
	if strings.HasPrefix(v, "<") {
		end := strings.IndexByte(v, '>')
		if end >= 0 {
			return v[:end+1] + s.Sanitize(v[end+1:])
		}
	}
	return s.Sanitize(v)
}

// SanitizeMethodName sanitizes a method name.
func (s *Sanitizer) SanitizeMethodName(v string) string {
	return s.Sanitize(v)
}
