package cfg

import (
	"fmt"
	"sort"

	"github.com/viant/ilscope/model"
)

// Build constructs the CFG for method, whose stable ID is methodID. It
// never returns nil: a method with no body yields a CFG with Error set
// and no blocks (§4.2 failure semantics).
func Build(methodID string, method *model.MethodDef) *CFG {
	if method.Body == nil {
		return &CFG{MethodID: methodID, Error: fmt.Sprintf("method %q has no body (abstract, extern, or P/Invoke)", method.FullName)}
	}
	body := method.Body
	if len(body.Instructions) == 0 {
		return &CFG{MethodID: methodID, blockByID: map[string]*BasicBlock{}, blockByStart: map[int]*BasicBlock{}}
	}

	leaders := discoverLeaders(body)
	blocks := buildBlocks(body, leaders)

	c := &CFG{
		MethodID:     methodID,
		blockByID:    map[string]*BasicBlock{},
		blockByStart: map[int]*BasicBlock{},
	}
	for _, b := range blocks {
		c.Blocks = append(c.Blocks, b)
		c.blockByID[b.ID] = b
		c.blockByStart[b.StartOffset] = b
	}
	if len(blocks) > 0 {
		c.EntryBlockID = blocks[0].ID
	}

	buildEdges(c, blocks)
	buildExceptionRegions(c, body)
	computeExits(c)
	computeLoops(c)

	return c
}

// discoverLeaders computes the sorted, de-duplicated set of leader
// offsets per §4.2: offset 0; every branch target (single or switch
// array); every instruction immediately after a branch/return/throw;
// every try_start/try_end/handler_start/handler_end/filter_start.
func discoverLeaders(body *model.MethodBody) []int {
	set := map[int]bool{}
	if len(body.Instructions) > 0 {
		set[body.Instructions[0].Offset] = true
	}
	offsetIndex := map[int]int{}
	for i, ins := range body.Instructions {
		offsetIndex[ins.Offset] = i
	}
	for i, ins := range body.Instructions {
		switch ins.Operand.Kind {
		case model.OperandInstruction:
			set[ins.Operand.TargetOffset] = true
		case model.OperandInstructionArray:
			for _, t := range ins.Operand.TargetOffsets {
				set[t] = true
			}
		}
		switch ins.FlowControl {
		case model.FlowBranch, model.FlowCondBranch, model.FlowReturn, model.FlowThrow:
			if i+1 < len(body.Instructions) {
				set[body.Instructions[i+1].Offset] = true
			}
		}
	}
	for _, eh := range body.ExceptionHandlers {
		set[eh.TryStart] = true
		set[eh.TryEnd] = true
		set[eh.HandlerStart] = true
		set[eh.HandlerEnd] = true
		if eh.Kind == model.HandlerFilter {
			set[eh.FilterStart] = true
		}
	}
	leaders := make([]int, 0, len(set))
	for off := range set {
		leaders = append(leaders, off)
	}
	sort.Ints(leaders)
	return leaders
}

// buildBlocks partitions body.Instructions into blocks spanning
// [leaders[i], leaders[i+1]); only non-empty blocks are emitted.
func buildBlocks(body *model.MethodBody, leaders []int) []*BasicBlock {
	var blocks []*BasicBlock
	n := len(body.Instructions)
	insIdx := 0
	for i, start := range leaders {
		end := int(^uint(0) >> 1) // max int: last block runs to end of method
		if i+1 < len(leaders) {
			end = leaders[i+1]
		}
		// advance insIdx to the first instruction at/after start
		for insIdx < n && body.Instructions[insIdx].Offset < start {
			insIdx++
		}
		blockStart := insIdx
		for insIdx < n && body.Instructions[insIdx].Offset < end {
			insIdx++
		}
		if insIdx == blockStart {
			continue // empty block, not emitted
		}
		ins := body.Instructions[blockStart:insIdx]
		b := &BasicBlock{
			ID:             fmt.Sprintf("b%d", len(blocks)),
			StartOffset:    ins[0].Offset,
			EndOffset:      end,
			Instructions:   ins,
			TerminatorKind: terminatorKind(ins[len(ins)-1]),
		}
		blocks = append(blocks, b)
	}
	return blocks
}

func terminatorKind(last model.Instruction) TerminatorKind {
	if last.Operand.Kind == model.OperandInstructionArray {
		return TermSwitch
	}
	switch last.FlowControl {
	case model.FlowReturn:
		return TermReturn
	case model.FlowThrow:
		return TermThrow
	case model.FlowBranch:
		return TermBranch
	case model.FlowCondBranch:
		return TermCondBranch
	default:
		return TermFallThrough
	}
}

// buildEdges constructs the normal-flow edges per block per §4.2.
func buildEdges(c *CFG, blocks []*BasicBlock) {
	for i, b := range blocks {
		last := b.Instructions[len(b.Instructions)-1]
		var next *BasicBlock
		if i+1 < len(blocks) {
			next = blocks[i+1]
		}
		switch b.TerminatorKind {
		case TermReturn, TermThrow:
			// no normal successor
		case TermBranch:
			if target, ok := c.blockByStart[last.Operand.TargetOffset]; ok {
				c.Edges = append(c.Edges, Edge{From: b.ID, To: target.ID, Kind: EdgeUnconditional})
			}
			// missing target: dropped silently, never mismapped (§4.2)
		case TermCondBranch:
			if target, ok := c.blockByStart[last.Operand.TargetOffset]; ok {
				c.Edges = append(c.Edges, Edge{From: b.ID, To: target.ID, Kind: EdgeCondTrue})
			}
			if next != nil {
				c.Edges = append(c.Edges, Edge{From: b.ID, To: next.ID, Kind: EdgeCondFalse})
			}
		case TermSwitch:
			for caseIdx, off := range last.Operand.TargetOffsets {
				if target, ok := c.blockByStart[off]; ok {
					c.Edges = append(c.Edges, Edge{From: b.ID, To: target.ID, Kind: EdgeSwitch, Label: fmt.Sprintf("%d", caseIdx)})
				}
			}
			if next != nil {
				c.Edges = append(c.Edges, Edge{From: b.ID, To: next.ID, Kind: EdgeSwitch, Label: "default"})
			}
		case TermFallThrough:
			if next != nil {
				c.Edges = append(c.Edges, Edge{From: b.ID, To: next.ID, Kind: EdgeFallThrough})
			}
		}
	}
}

// blocksInRange returns the blocks whose instruction offsets fall within
// [start, end), ordered by start offset.
func blocksInRange(blocks []*BasicBlock, start, end int) []*BasicBlock {
	var out []*BasicBlock
	for _, b := range blocks {
		if b.StartOffset >= start && b.StartOffset < end {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartOffset < out[j].StartOffset })
	return out
}

// buildExceptionRegions maps each handler onto block IDs and adds the
// try -> handler exception edge per §4.2.
func buildExceptionRegions(c *CFG, body *model.MethodBody) {
	for _, eh := range body.ExceptionHandlers {
		tryBlocks := blocksInRange(c.Blocks, eh.TryStart, eh.TryEnd)
		handlerBlocks := blocksInRange(c.Blocks, eh.HandlerStart, eh.HandlerEnd)
		var filterBlocks []*BasicBlock
		region := ExceptionRegion{Kind: eh.Kind, CatchType: eh.CatchType}

		for _, b := range tryBlocks {
			b.IsInTry = true
			region.TryBlockIDs = append(region.TryBlockIDs, b.ID)
		}
		for _, b := range handlerBlocks {
			region.HandlerBlockIDs = append(region.HandlerBlockIDs, b.ID)
		}
		if len(handlerBlocks) > 0 {
			handlerBlocks[0].HandlerKind = eh.Kind
		}
		if eh.Kind == model.HandlerFilter {
			filterEnd := eh.HandlerStart
			filterBlocks = blocksInRange(c.Blocks, eh.FilterStart, filterEnd)
			for _, b := range filterBlocks {
				region.FilterBlockIDs = append(region.FilterBlockIDs, b.ID)
			}
		}
		c.ExceptionRegions = append(c.ExceptionRegions, region)

		if len(tryBlocks) > 0 && len(handlerBlocks) > 0 {
			last := tryBlocks[len(tryBlocks)-1]
			label := eh.CatchType
			if label == "" {
				label = string(eh.Kind)
			}
			c.Edges = append(c.Edges, Edge{From: last.ID, To: handlerBlocks[0].ID, Kind: EdgeException, Label: label})
		}
	}
}

// computeExits records the blocks with no normal successor (return/throw
// terminators); every other block must reach one of these (invariant 1).
func computeExits(c *CFG) {
	hasSucc := map[string]bool{}
	for _, e := range c.Edges {
		if e.Kind != EdgeException {
			hasSucc[e.From] = true
		}
	}
	for _, b := range c.Blocks {
		if b.TerminatorKind == TermReturn || b.TerminatorKind == TermThrow || !hasSucc[b.ID] {
			c.ExitBlockIDs = append(c.ExitBlockIDs, b.ID)
		}
	}
}
