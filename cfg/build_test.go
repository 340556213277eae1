package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ilscope/model"
)

func ins(offset int, opcode string, fc model.FlowControl) model.Instruction {
	return model.Instruction{Offset: offset, Opcode: opcode, FlowControl: fc}
}

func branchTo(offset int, opcode string, fc model.FlowControl, target int) model.Instruction {
	return model.Instruction{Offset: offset, Opcode: opcode, FlowControl: fc, Operand: model.Operand{Kind: model.OperandInstruction, TargetOffset: target}}
}

func switchIns(offset int, targets []int) model.Instruction {
	return model.Instruction{Offset: offset, Opcode: "switch", FlowControl: model.FlowCondBranch, Operand: model.Operand{Kind: model.OperandInstructionArray, TargetOffsets: targets}}
}

func method(name string, body *model.MethodBody) *model.MethodDef {
	return &model.MethodDef{Name: name, FullName: "T." + name, DeclaringType: "T", Body: body}
}

func TestBuild_SimpleAdd(t *testing.T) {
	body := &model.MethodBody{Instructions: []model.Instruction{
		ins(0, "ldarg.0", model.FlowNext),
		ins(1, "ldarg.1", model.FlowNext),
		ins(2, "add", model.FlowNext),
		ins(3, "ret", model.FlowReturn),
	}}
	c := Build("m1", method("Add", body))
	require.Empty(t, c.Error)
	assert.Len(t, c.Blocks, 1)
	assert.Empty(t, c.Edges)
	assert.Equal(t, c.Blocks[0].ID, c.EntryBlockID)
	require.Len(t, c.ExitBlockIDs, 1)
	assert.Equal(t, c.Blocks[0].ID, c.ExitBlockIDs[0])
	assert.Equal(t, TermReturn, c.Blocks[0].TerminatorKind)
}

func TestBuild_IfElse_Abs(t *testing.T) {
	body := &model.MethodBody{Instructions: []model.Instruction{
		ins(0, "ldarg.0", model.FlowNext),
		ins(1, "ldc.i4.0", model.FlowNext),
		ins(2, "clt", model.FlowNext),
		branchTo(3, "brfalse", model.FlowCondBranch, 7),
		ins(4, "ldarg.0", model.FlowNext),
		ins(5, "neg", model.FlowNext),
		ins(6, "ret", model.FlowReturn),
		ins(7, "ldarg.0", model.FlowNext),
		ins(8, "ret", model.FlowReturn),
	}}
	c := Build("m2", method("Abs", body))
	require.Empty(t, c.Error)

	condBlock, ok := c.BlockAt(0)
	require.True(t, ok)
	assert.Equal(t, TermCondBranch, condBlock.TerminatorKind)

	var trueEdges, falseEdges int
	for _, e := range c.Edges {
		if e.From != condBlock.ID {
			continue
		}
		switch e.Kind {
		case EdgeCondTrue:
			trueEdges++
		case EdgeCondFalse:
			falseEdges++
		}
	}
	assert.Equal(t, 1, trueEdges)
	assert.Equal(t, 1, falseEdges)
	assert.Len(t, c.ExitBlockIDs, 2)
}

func TestBuild_WhileLoop_Sum(t *testing.T) {
	body := &model.MethodBody{Instructions: []model.Instruction{
		ins(0, "ldc.i4.0", model.FlowNext),
		ins(1, "stloc.0", model.FlowNext),
		branchTo(2, "br", model.FlowBranch, 11),
		ins(3, "ldloc.0", model.FlowNext),
		ins(4, "ldarg.0", model.FlowNext),
		ins(5, "add", model.FlowNext),
		ins(6, "stloc.0", model.FlowNext),
		ins(7, "ldarg.0", model.FlowNext),
		ins(8, "ldc.i4.1", model.FlowNext),
		ins(9, "sub", model.FlowNext),
		ins(10, "starg.0", model.FlowNext),
		ins(11, "ldarg.0", model.FlowNext),
		ins(12, "ldc.i4.0", model.FlowNext),
		ins(13, "cgt", model.FlowNext),
		branchTo(14, "brtrue", model.FlowCondBranch, 3),
		ins(15, "ldloc.0", model.FlowNext),
		ins(16, "ret", model.FlowReturn),
	}}
	c := Build("m3", method("Sum", body))
	require.Empty(t, c.Error)

	var backEdges int
	for _, e := range c.Edges {
		if e.Kind == EdgeBackEdge {
			backEdges++
		}
	}
	assert.Equal(t, 1, backEdges)
	require.Len(t, c.Loops, 1)

	header, ok := c.Block(c.Loops[0].HeaderID)
	require.True(t, ok)
	assert.True(t, header.IsLoopHeader)
	assert.NotEmpty(t, c.Loops[0].ExitIDs)
}

func TestBuild_Switch_NArmsPlusFallthrough(t *testing.T) {
	// Three single-instruction arms plus the fall-through block that
	// begins right after the switch instruction.
	body := &model.MethodBody{Instructions: []model.Instruction{
		ins(0, "ldarg.0", model.FlowNext),
		switchIns(1, []int{20, 21, 22}),
		ins(2, "ldc.i4.m1", model.FlowNext), // default (fall-through) block
		ins(3, "ret", model.FlowReturn),
		ins(20, "ldc.i4.0", model.FlowNext),
		ins(21, "ldc.i4.1", model.FlowNext),
		ins(22, "ldc.i4.2", model.FlowNext),
	}}
	c := Build("m4", method("Switch", body))
	require.Empty(t, c.Error)

	sw, ok := c.BlockAt(0)
	require.True(t, ok)
	assert.Equal(t, TermSwitch, sw.TerminatorKind)

	var successors int
	for _, e := range c.Edges {
		if e.From == sw.ID {
			successors++
		}
	}
	assert.Equal(t, 4, successors, "N=3 arms + 1 default fall-through")
}

func TestBuild_NoBody(t *testing.T) {
	c := Build("m5", &model.MethodDef{Name: "Abstract", FullName: "T.Abstract"})
	assert.NotEmpty(t, c.Error)
	assert.Empty(t, c.Blocks)
}

func TestBuild_ExceptionRegion(t *testing.T) {
	body := &model.MethodBody{
		Instructions: []model.Instruction{
			ins(0, "nop", model.FlowNext),
			ins(1, "ret", model.FlowThrow),
			ins(2, "nop", model.FlowNext),
			ins(3, "ret", model.FlowReturn),
		},
		ExceptionHandlers: []model.ExceptionHandler{
			{Kind: model.HandlerCatch, TryStart: 0, TryEnd: 2, HandlerStart: 2, HandlerEnd: 4, CatchType: "System.Exception"},
		},
	}
	c := Build("m6", method("Try", body))
	require.Empty(t, c.Error)
	require.Len(t, c.ExceptionRegions, 1)

	tryBlock, _ := c.BlockAt(0)
	handlerBlock, _ := c.BlockAt(2)
	assert.True(t, tryBlock.IsInTry)
	assert.Equal(t, model.HandlerCatch, handlerBlock.HandlerKind)

	var found bool
	for _, e := range c.Edges {
		if e.Kind == EdgeException && e.From == tryBlock.ID && e.To == handlerBlock.ID {
			found = true
			assert.Equal(t, "System.Exception", e.Label)
		}
	}
	assert.True(t, found)
}
