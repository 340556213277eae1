package search

import (
	"sync"

	"github.com/viant/ilscope/cancel"
	"github.com/viant/ilscope/index"
)

// Request is one search invocation's parameters.
type Request struct {
	Query           string
	Mode            Mode // "" or ModeAuto lets DetectMode decide per-strategy eligibility
	NamespaceFilter string
	Limit           int
}

// Response is a completed search's output (§4.7, §5).
type Response struct {
	Results []Result
	HasMore bool
}

var defaultStrategies = []Strategy{
	TypeStrategy{},
	MemberStrategy{},
	LiteralStrategy{},
	TokenStrategy{},
}

// Run compiles req.Query and fans it out across every strategy whose
// Modes include the effective mode, concurrently, merging into a shared
// sink before a deterministic final sort (§4.7, §5, §9). token is polled
// once per strategy.
func Run(types *index.TypeIndex, members *index.MemberIndex, req Request, token cancel.Token) Response {
	if token == nil {
		token = cancel.None
	}
	mode := req.Mode
	if mode == "" || mode == ModeAuto {
		if detected := DetectMode(req.Query); detected != "" {
			mode = detected
		}
	}
	q := Compile(req.Query)

	var mu sync.Mutex
	var all []Result
	var wg sync.WaitGroup
	for _, strat := range defaultStrategies {
		if !supports(strat, mode) {
			continue
		}
		if token.Cancelled() {
			break
		}
		strat := strat
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := strat.Search(types, members, q, req.NamespaceFilter)
			mu.Lock()
			all = append(all, res...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if token.Cancelled() {
		return Response{}
	}
	results, hasMore := sortAndTruncate(all, req.Limit)
	return Response{Results: results, HasMore: hasMore}
}
