package search

import "strings"

// Kind discriminates what a Result points at.
type Kind string

const (
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindStruct    Kind = "struct"
	KindEnum      Kind = "enum"
	KindDelegate  Kind = "delegate"
	KindMethod    Kind = "method"
	KindField     Kind = "field"
	KindProperty  Kind = "property"
	KindEvent     Kind = "event"
	KindLiteral   Kind = "literal"
	KindToken     Kind = "token"
)

// Result is one match surfaced by a strategy, before relevance scoring.
type Result struct {
	ID            string
	Name          string
	Kind          Kind
	DeclaringType string
	Detail        string
	Relevance     float64
}

// score implements §4.7's relevance formula: base 1.0; ×2 exact match;
// ×1.5 prefix match of any keyword; × max(0.5, 1 − len(name)/100);
// constants get ×1.5.
func score(name string, q *Query, isConstant bool) float64 {
	r := 1.0
	lc := strings.ToLower(name)
	if q.Regex == nil {
		for _, t := range q.Terms {
			if t.qual == qualMustNot {
				continue
			}
			if trimArity(lc) == t.text {
				r *= 2
				break
			}
		}
		for _, t := range q.Terms {
			if t.qual == qualMustNot {
				continue
			}
			if strings.HasPrefix(lc, t.text) {
				r *= 1.5
				break
			}
		}
	}
	lenFactor := 1 - float64(len(name))/100
	if lenFactor < 0.5 {
		lenFactor = 0.5
	}
	r *= lenFactor
	if isConstant {
		r *= 1.5
	}
	return r
}

// sortAndTruncate deduplicates by ID (first occurrence wins), sorts by
// (relevance desc, name length asc, name asc, ID asc), then truncates to
// limit, reporting whether more results existed (§4.7, §5).
func sortAndTruncate(results []Result, limit int) ([]Result, bool) {
	seen := map[string]bool{}
	var deduped []Result
	for _, r := range results {
		if r.ID != "" {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
		}
		deduped = append(deduped, r)
	}
	stableSortResults(deduped)
	if limit <= 0 || len(deduped) <= limit {
		return deduped, false
	}
	return deduped[:limit], true
}

func stableSortResults(results []Result) {
	// insertion sort: stable, and the result sets here are small enough
	// that O(n^2) is not a concern; preserves discovery order on ties.
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && less(results[j], results[j-1]); j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

func less(a, b Result) bool {
	if a.Relevance != b.Relevance {
		return a.Relevance > b.Relevance
	}
	if len(a.Name) != len(b.Name) {
		return len(a.Name) < len(b.Name)
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
