// Package obfuscation implements the seven heuristic passes and the
// composite scoring formula of §4.9: each pass emits zero or more
// Indicators, the detector never fails the whole scan for one type (a
// panic inside one pass downgrades to a medium-severity indicator
// instead, per §7), and the final Score/Confidence are deterministic
// functions of the indicator counts.
package obfuscation

import (
	"fmt"

	goerrors "github.com/go-errors/errors"

	"github.com/viant/ilscope/identity"
	"github.com/viant/ilscope/model"
)

// Severity is how serious one Indicator is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Category discriminates which of the seven passes produced an Indicator.
type Category string

const (
	CategoryMarker            Category = "marker"
	CategoryInvalidIdentifier Category = "invalid_identifier"
	CategoryShortRandomNames  Category = "short_random_names"
	CategoryCFGFlattening     Category = "cfg_flattening"
	CategoryStringEncryption  Category = "string_encryption"
	CategoryAntiDebug         Category = "anti_debug"
	CategoryProxyMethods      Category = "proxy_methods"
)

// Indicator is one discovered obfuscation signal.
type Indicator struct {
	Category    Category
	Severity    Severity
	Description string
	Location    string
	Evidence    []string
}

// Confidence is the total/partial-ordered bucket a Score falls into.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Report is the full result of detect_obfuscation() (§6).
type Report struct {
	Score         float64
	IsObfuscated  bool
	Confidence    Confidence
	Indicators    []Indicator
	DetectedTools []string
}

// confidenceFor maps a clamped score to its bucket: high ≥ 70, medium ≥
// 40, else low (§4.9, invariant 10's "confidence mapping is total").
func confidenceFor(score float64) Confidence {
	switch {
	case score >= 70:
		return ConfidenceHigh
	case score >= 40:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Detect runs every pass over m and folds the results into the §4.9
// composite score.
func Detect(m *model.Module) Report {
	sanitizer := identity.NewSanitizer()

	var indicators []Indicator
	var tools []string

	markers, detectedTools := safePass(func() ([]Indicator, []string) { return detectMarkers(m, sanitizer) })
	indicators = append(indicators, markers...)
	tools = append(tools, detectedTools...)

	invalid, invalidRatio := safePass1(func() ([]Indicator, float64) { return detectInvalidIdentifiers(m, sanitizer) })
	indicators = append(indicators, invalid...)

	shortNames := safePass0(func() []Indicator { return detectShortRandomNames(m, sanitizer) })
	indicators = append(indicators, shortNames...)

	flattened := safePass0(func() []Indicator { return detectCFGFlattening(m, sanitizer) })
	indicators = append(indicators, flattened...)

	encryption := safePass0(func() []Indicator { return detectStringEncryption(m, sanitizer) })
	indicators = append(indicators, encryption...)

	antiDebug := safePass0(func() []Indicator { return detectAntiDebug(m, sanitizer) })
	indicators = append(indicators, antiDebug...)

	proxy := safePass0(func() []Indicator { return detectProxyMethods(m, sanitizer) })
	indicators = append(indicators, proxy...)

	score := 30*boolToFloat(len(markers) > 0) +
		50*invalidRatio +
		minFloat(float64(len(shortNames)), 20) +
		10*boolToFloat(len(flattened) > 0) +
		5*float64(len(encryption)) +
		minFloat(float64(len(proxy))/5, 10) +
		15*boolToFloat(len(antiDebug) > 0)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Report{
		Score:         score,
		IsObfuscated:  score >= scoreObfuscatedAt,
		Confidence:    confidenceFor(score),
		Indicators:    indicators,
		DetectedTools: tools,
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// safePass0/safePass1/safePass wrap each heuristic pass so a panic in
// one degrades to "no indicators from this pass" rather than aborting
// the whole scan (§7); the degraded case is itself surfaced as a
// medium-severity indicator carrying the exception text.
func safePass0(fn func() []Indicator) (out []Indicator) {
	defer func() {
		if r := recover(); r != nil {
			out = []Indicator{recoveredIndicator(r)}
		}
	}()
	return fn()
}

func safePass1(fn func() ([]Indicator, float64)) (out []Indicator, ratio float64) {
	defer func() {
		if r := recover(); r != nil {
			out, ratio = []Indicator{recoveredIndicator(r)}, 0
		}
	}()
	return fn()
}

func safePass(fn func() ([]Indicator, []string)) (out []Indicator, tools []string) {
	defer func() {
		if r := recover(); r != nil {
			out = []Indicator{recoveredIndicator(r)}
		}
	}()
	return fn()
}

func recoveredIndicator(r interface{}) Indicator {
	stack := goerrors.Wrap(r, 1)
	return Indicator{
		Category:    CategoryMarker,
		Severity:    SeverityMedium,
		Description: "heuristic pass failed",
		Evidence:    []string{fmt.Sprintf("%v", stack.Error())},
	}
}
