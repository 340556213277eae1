package obfuscation

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/viant/ilscope/identity"
	"github.com/viant/ilscope/model"
)

var knownTools = []string{
	"Dotfuscator", "ConfuserEx", "SmartAssembly", "Eazfuscator", "Babel",
	".NET Reactor", "VMProtect", "Enigma", "Obfuscar",
}

// shortNameMaxLen is the name-length threshold pass 3 flags at or below (§4.9).
var shortNameMaxLen = 2

// scoreObfuscatedAt is the composite-score cutoff Detect uses for
// IsObfuscated (§4.9).
var scoreObfuscatedAt float64 = 30

// Configure overrides the marker tool list, short-name threshold, and
// obfuscated-at cutoff from loaded config (config.Obfuscation); a
// nil/zero argument leaves the built-in default in place.
func Configure(tools []string, shortNameMax int, obfuscatedAt float64) {
	if len(tools) > 0 {
		knownTools = tools
	}
	if shortNameMax > 0 {
		shortNameMaxLen = shortNameMax
	}
	if obfuscatedAt > 0 {
		scoreObfuscatedAt = obfuscatedAt
	}
}

// detectMarkers implements pass 1: known tool names in custom-attribute
// type names (module or assembly level) or in the first 100 type names.
func detectMarkers(m *model.Module, s *identity.Sanitizer) ([]Indicator, []string) {
	var indicators []Indicator
	var tools []string
	seen := map[string]bool{}

	scanAttrs := func(attrs []model.CustomAttribute, location string) {
		for _, a := range attrs {
			for _, tool := range knownTools {
				if strings.Contains(a.TypeName, tool) {
					if !seen[tool] {
						seen[tool] = true
						tools = append(tools, tool)
					}
					indicators = append(indicators, Indicator{
						Category: CategoryMarker, Severity: SeverityHigh,
						Description: "known obfuscation tool attribute", Location: location,
						Evidence: []string{s.SanitizeTypeName(a.TypeName)},
					})
				}
			}
		}
	}
	scanAttrs(m.Assembly.CustomAttrs, m.Assembly.Name)

	limit := len(m.Types)
	if limit > 100 {
		limit = 100
	}
	for _, t := range m.Types[:limit] {
		for _, tool := range knownTools {
			if strings.Contains(t.Name, tool) {
				if !seen[tool] {
					seen[tool] = true
					tools = append(tools, tool)
				}
				indicators = append(indicators, Indicator{
					Category: CategoryMarker, Severity: SeverityHigh,
					Description: "known obfuscation tool name in type", Location: t.FullName,
					Evidence: []string{s.SanitizeTypeName(t.Name)},
				})
			}
		}
	}
	return indicators, tools
}

func isLetterOrUnderscore(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

// hasInvalidBytes reports whether name contains a byte outside the
// printable identifier range §4.9 pass 2 excludes (control bytes and
// high bytes); callers strip a leading "<" compiler marker first.
func hasInvalidBytes(name string) bool {
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b <= 0x1F || b >= 0x7F {
			return true
		}
	}
	return false
}

// detectInvalidIdentifiers implements pass 2, returning indicators and
// the invalid/total type-name ratio the composite score weights by 50.
func detectInvalidIdentifiers(m *model.Module, s *identity.Sanitizer) ([]Indicator, float64) {
	var indicators []Indicator
	invalid := 0
	total := 0
	for _, t := range allTypes(m) {
		total++
		name := t.Name
		bad := false
		switch {
		case name == "":
			bad = true
		case strings.HasPrefix(name, "<"):
			// well-formed compiler marker: leading "<...>" is exempt
			bad = hasInvalidBytes(strings.TrimPrefix(name, "<"))
		case !isLetterOrUnderscore(rune(name[0])):
			bad = true
		default:
			for _, r := range name {
				if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
					bad = true
					break
				}
			}
			if !bad {
				bad = hasInvalidBytes(name)
			}
		}
		if bad {
			invalid++
			indicators = append(indicators, Indicator{
				Category: CategoryInvalidIdentifier, Severity: SeverityMedium,
				Description: "invalid type identifier", Location: t.FullName,
				Evidence: []string{s.SanitizeTypeName(name)},
			})
		}
	}
	if total == 0 {
		return indicators, 0
	}
	return indicators, float64(invalid) / float64(total)
}

var commonShortNames = map[string]bool{
	"T": true, "K": true, "V": true, "E": true, "I": true,
	"Id": true, "ID": true, "OK": true, "UI": true,
}

var vowels = map[rune]bool{'a': true, 'e': true, 'i': true, 'o': true, 'u': true, 'A': true, 'E': true, 'I': true, 'O': true, 'U': true}

func maxConsecutive(name string, isMember func(rune) bool) int {
	best, cur := 0, 0
	for _, r := range name {
		if isMember(r) {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 0
		}
	}
	return best
}

func isConsonant(r rune) bool {
	return unicode.IsLetter(r) && !vowels[r]
}

func isRandomLooking(name string) bool {
	if len(name) < 8 {
		return false
	}
	if maxConsecutive(name, isConsonant) > 5 {
		return true
	}
	if maxConsecutive(name, func(r rune) bool { return vowels[r] }) > 4 {
		return true
	}
	if len(name) > 10 {
		digits := 0
		for _, r := range name {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		if float64(digits)/float64(len(name)) > 0.3 {
			return true
		}
	}
	return matchesAllCapsOrLowerRun(name) || matchesAlnumRun20(name)
}

// matchesAllCapsOrLowerRun implements `^[A-Z]{10,}$|^[a-z]{10,}$` without
// compiling a regex per call.
func matchesAllCapsOrLowerRun(name string) bool {
	if len(name) < 10 {
		return false
	}
	allUpper, allLower := true, true
	for _, r := range name {
		if r < 'A' || r > 'Z' {
			allUpper = false
		}
		if r < 'a' || r > 'z' {
			allLower = false
		}
	}
	return allUpper || allLower
}

// matchesAlnumRun20 implements `^[A-Za-z0-9]{20,}$`.
func matchesAlnumRun20(name string) bool {
	if len(name) < 20 {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// detectShortRandomNames implements pass 3.
func detectShortRandomNames(m *model.Module, s *identity.Sanitizer) []Indicator {
	var indicators []Indicator
	for _, t := range allTypes(m) {
		if len(t.Name) <= shortNameMaxLen && !commonShortNames[t.Name] {
			indicators = append(indicators, Indicator{
				Category: CategoryShortRandomNames, Severity: SeverityLow,
				Description: "suspiciously short type name", Location: t.FullName,
				Evidence: []string{s.SanitizeTypeName(t.Name)},
			})
			continue
		}
		if isRandomLooking(t.Name) {
			indicators = append(indicators, Indicator{
				Category: CategoryShortRandomNames, Severity: SeverityMedium,
				Description: "random-looking type name", Location: t.FullName,
				Evidence: []string{s.SanitizeTypeName(t.Name)},
			})
		}
	}
	return indicators
}

func countBranchesAndLocals(body *model.MethodBody) (branches, switches int) {
	for _, ins := range body.Instructions {
		switch ins.Operand.Kind {
		case model.OperandInstructionArray:
			switches++
		case model.OperandInstruction:
			if ins.FlowControl == model.FlowCondBranch || ins.FlowControl == model.FlowBranch {
				branches++
			}
		}
	}
	return
}

// detectCFGFlattening implements pass 4: method with instruction count >
// 100, ≥1 switch, >20 branches, and >5 locals.
func detectCFGFlattening(m *model.Module, s *identity.Sanitizer) []Indicator {
	var indicators []Indicator
	for _, t := range allTypes(m) {
		for _, meth := range t.Methods {
			if meth.Body == nil {
				continue
			}
			branches, switches := countBranchesAndLocals(meth.Body)
			if len(meth.Body.Instructions) > 100 && switches >= 1 && branches > 20 && len(meth.Body.LocalVariables) > 5 {
				indicators = append(indicators, Indicator{
					Category: CategoryCFGFlattening, Severity: SeverityHigh,
					Description: "control-flow flattening shape", Location: t.FullName + "." + meth.Name,
					Evidence: []string{s.SanitizeMethodName(meth.Name)},
				})
			}
		}
	}
	return indicators
}

// detectStringEncryption implements pass 5: decrypt/deobfuscate-named
// methods, GetString(i32) call sites, and > 20 static byte[] fields.
func detectStringEncryption(m *model.Module, s *identity.Sanitizer) []Indicator {
	var indicators []Indicator
	byteArrayFields := 0
	for _, t := range allTypes(m) {
		for _, f := range t.Fields {
			if f.IsStatic && f.FieldType == "System.Byte[]" {
				byteArrayFields++
			}
		}
		for _, meth := range t.Methods {
			lower := strings.ToLower(meth.Name)
			if strings.Contains(lower, "decrypt") || strings.Contains(lower, "deobfuscate") {
				indicators = append(indicators, Indicator{
					Category: CategoryStringEncryption, Severity: SeverityMedium,
					Description: "decryption-named method", Location: t.FullName + "." + meth.Name,
					Evidence: []string{s.SanitizeMethodName(meth.Name)},
				})
			}
			if meth.Body == nil {
				continue
			}
			for _, ins := range meth.Body.Instructions {
				ref := ins.Operand.MethodRef
				if ref != nil && ref.Name == "GetString" && len(ref.Signature) > 0 && strings.Contains(ref.Signature, "Int32") {
					indicators = append(indicators, Indicator{
						Category: CategoryStringEncryption, Severity: SeverityMedium,
						Description: "indexed string-table lookup", Location: t.FullName + "." + meth.Name,
						Evidence: []string{"GetString(int32) call"},
					})
				}
			}
		}
	}
	if byteArrayFields > 20 {
		indicators = append(indicators, Indicator{
			Category: CategoryStringEncryption, Severity: SeverityHigh,
			Description: "excessive static byte[] fields", Evidence: []string{strconv.Itoa(byteArrayFields)},
		})
	}
	return indicators
}

var antiDebugTargets = map[string]bool{
	"Debugger.IsAttached": true, "IsDebuggerPresent": true,
	"CheckRemoteDebuggerPresent": true, "OutputDebugString": true,
	"Debugger.IsLogging": true,
}

// detectAntiDebug implements pass 6.
func detectAntiDebug(m *model.Module, s *identity.Sanitizer) []Indicator {
	var indicators []Indicator
	for _, t := range allTypes(m) {
		for _, meth := range t.Methods {
			if meth.Body == nil {
				continue
			}
			for _, ins := range meth.Body.Instructions {
				ref := ins.Operand.MethodRef
				if ref == nil {
					continue
				}
				candidate := ref.Name
				if strings.Contains(ref.DeclaringType, "Debugger") {
					candidate = "Debugger." + ref.Name
				}
				if antiDebugTargets[candidate] || antiDebugTargets[ref.Name] {
					indicators = append(indicators, Indicator{
						Category: CategoryAntiDebug, Severity: SeverityHigh,
						Description: "anti-debug API call", Location: t.FullName + "." + meth.Name,
						Evidence: []string{s.SanitizeMethodName(candidate)},
					})
				}
			}
		}
	}
	return indicators
}

// isProxyShape reports whether body matches pass 7's proxy shape: 2-5
// instructions, only argument loads, exactly one call/callvirt, and ret.
func isProxyShape(body *model.MethodBody) bool {
	n := len(body.Instructions)
	if n < 2 || n > 5 {
		return false
	}
	calls := 0
	for i, ins := range body.Instructions {
		switch {
		case ins.Opcode == "call" || ins.Opcode == "callvirt":
			calls++
		case ins.Opcode == "ret":
			if i != n-1 {
				return false
			}
		case strings.HasPrefix(ins.Opcode, "ldarg"):
			// argument load, expected
		default:
			return false
		}
	}
	return calls == 1 && body.Instructions[n-1].Opcode == "ret"
}

// detectProxyMethods implements pass 7.
func detectProxyMethods(m *model.Module, s *identity.Sanitizer) []Indicator {
	var indicators []Indicator
	for _, t := range allTypes(m) {
		for _, meth := range t.Methods {
			if meth.Body == nil {
				continue
			}
			if isProxyShape(meth.Body) {
				indicators = append(indicators, Indicator{
					Category: CategoryProxyMethods, Severity: SeverityLow,
					Description: "proxy/forwarding method shape", Location: t.FullName + "." + meth.Name,
					Evidence: []string{s.SanitizeMethodName(meth.Name)},
				})
			}
		}
	}
	return indicators
}

func allTypes(m *model.Module) []*model.TypeDef {
	var out []*model.TypeDef
	var walk func(t *model.TypeDef)
	walk = func(t *model.TypeDef) {
		out = append(out, t)
		for _, nested := range t.NestedTypes {
			walk(nested)
		}
	}
	for _, t := range m.Types {
		walk(t)
	}
	return out
}
