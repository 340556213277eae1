// Package cfg builds per-method control-flow graphs: leader discovery,
// basic-block construction, edge construction (including exception
// regions), and natural-loop discovery (§4.2).
package cfg

import "github.com/viant/ilscope/model"

// TerminatorKind classifies a basic block's last instruction.
type TerminatorKind string

const (
	TermReturn     TerminatorKind = "return"
	TermThrow      TerminatorKind = "throw"
	TermBranch     TerminatorKind = "branch"
	TermCondBranch TerminatorKind = "cond_branch"
	TermSwitch      TerminatorKind = "switch"
	TermFallThrough TerminatorKind = "fall_through"
)

// BasicBlock is a maximal straight-line instruction run with a single
// entry and single exit.
type BasicBlock struct {
	ID             string
	StartOffset    int
	EndOffset      int // exclusive
	Instructions   []model.Instruction
	TerminatorKind TerminatorKind
	IsInTry        bool
	HandlerKind    model.ExceptionHandlerKind // empty unless this is a handler entry block
	IsLoopHeader   bool
	LoopID         string // empty unless IsLoopHeader
}

// EdgeKind discriminates the CFG edge flavors §3/§4.2 define.
type EdgeKind string

const (
	EdgeFallThrough  EdgeKind = "fall_through"
	EdgeUnconditional EdgeKind = "unconditional"
	EdgeCondTrue     EdgeKind = "cond_true"
	EdgeCondFalse    EdgeKind = "cond_false"
	EdgeSwitch       EdgeKind = "switch"
	EdgeException    EdgeKind = "exception"
	EdgeBackEdge     EdgeKind = "back_edge"
)

// Edge is one CFG edge; Label carries the switch case value or the
// exception catch-type/kind for the kinds that need it.
type Edge struct {
	From  string
	To    string
	Kind  EdgeKind
	Label string
}

// ExceptionRegion is one EH clause mapped onto block IDs.
type ExceptionRegion struct {
	Kind            model.ExceptionHandlerKind
	TryBlockIDs     []string
	HandlerBlockIDs []string
	FilterBlockIDs  []string // non-empty only for Kind == HandlerFilter
	CatchType       string
}

// LoopInfo is one natural loop.
type LoopInfo struct {
	LoopID          string
	HeaderID        string
	BodyIDs         []string
	BackEdgeSources []string
	ExitIDs         []string
	ParentLoopID    string
	NestingLevel    int
}

// CFG is the complete control-flow graph for one method.
type CFG struct {
	MethodID         string
	EntryBlockID     string
	ExitBlockIDs     []string
	Blocks           []*BasicBlock
	Edges            []Edge
	ExceptionRegions []ExceptionRegion
	Loops            []*LoopInfo

	// Error is set when the method has no body or the body is otherwise
	// unbuildable; Blocks/Edges are empty in that case (§4.2 failure
	// semantics) but CFG itself is never nil.
	Error string

	blockByID    map[string]*BasicBlock
	blockByStart map[int]*BasicBlock
}

// Block looks up a block by ID.
func (c *CFG) Block(id string) (*BasicBlock, bool) {
	b, ok := c.blockByID[id]
	return b, ok
}

// BlockAt looks up the block starting exactly at offset.
func (c *CFG) BlockAt(offset int) (*BasicBlock, bool) {
	b, ok := c.blockByStart[offset]
	return b, ok
}

// Successors returns the normal-edge (non-exception) successor block IDs
// of id, in edge-list order.
func (c *CFG) Successors(id string) []string {
	var out []string
	for _, e := range c.Edges {
		if e.From == id && e.Kind != EdgeException {
			out = append(out, e.To)
		}
	}
	return out
}

// Predecessors returns the normal-edge predecessor block IDs of id.
func (c *CFG) Predecessors(id string) []string {
	var out []string
	for _, e := range c.Edges {
		if e.To == id && e.Kind != EdgeException {
			out = append(out, e.From)
		}
	}
	return out
}
