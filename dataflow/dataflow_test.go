package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ilscope/cfg"
	"github.com/viant/ilscope/model"
)

func ins(offset int, opcode string, fc model.FlowControl) model.Instruction {
	return model.Instruction{Offset: offset, Opcode: opcode, FlowControl: fc}
}

func branchTo(offset int, opcode string, fc model.FlowControl, target int) model.Instruction {
	return model.Instruction{Offset: offset, Opcode: opcode, FlowControl: fc, Operand: model.Operand{Kind: model.OperandInstruction, TargetOffset: target}}
}

func buildAbs() *cfg.CFG {
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
	return cfg.Build("abs", &model.MethodDef{Name: "Abs", FullName: "T.Abs", Body: body})
}

func buildSum() *cfg.CFG {
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
	return cfg.Build("sum", &model.MethodDef{Name: "Sum", FullName: "T.Sum", Body: body})
}

func TestComputeDominators_Abs(t *testing.T) {
	c := buildAbs()
	tree := ComputeDominators(c)

	cond, ok := c.BlockAt(0)
	require.True(t, ok)
	negBlock, ok := c.BlockAt(4)
	require.True(t, ok)
	elseBlock, ok := c.BlockAt(7)
	require.True(t, ok)

	assert.Equal(t, cond.ID, tree.IDom[negBlock.ID])
	assert.Equal(t, cond.ID, tree.IDom[elseBlock.ID])
	assert.NotContains(t, tree.DomSet[elseBlock.ID], negBlock.ID)
}

func TestComputePostDominators_Abs(t *testing.T) {
	c := buildAbs()
	tree := ComputePostDominators(c)
	cond, _ := c.BlockAt(0)
	negBlock, _ := c.BlockAt(4)
	// each branch arm ends in its own return, so neither one
	// post-dominates the conditional block (both paths remain live).
	assert.NotContains(t, tree.DomSet[cond.ID], negBlock.ID)
}

func TestDominanceFrontier_Abs(t *testing.T) {
	c := buildAbs()
	tree := ComputeDominators(c)
	df := CFGDominanceFrontier(c, tree)

	negBlock, _ := c.BlockAt(4)
	elseBlock, _ := c.BlockAt(7)
	// both arms return directly, so there is no merge block and the
	// frontier set for each arm is empty.
	assert.Empty(t, df[negBlock.ID])
	assert.Empty(t, df[elseBlock.ID])
}

func TestComputeDominators_Sum_LoopHeaderDominatesBody(t *testing.T) {
	c := buildSum()
	tree := ComputeDominators(c)

	require.Len(t, c.Loops, 1)
	header := c.Loops[0].HeaderID
	for _, bodyID := range c.Loops[0].BodyIDs {
		if bodyID == header {
			continue
		}
		assert.Contains(t, tree.DomSet[bodyID], header, "loop header must dominate every loop body block")
	}
}

func TestControlDependence_Abs(t *testing.T) {
	c := buildAbs()
	postDom := ComputePostDominators(c)
	cd := ControlDependence(c, postDom)

	cond, _ := c.BlockAt(0)
	negBlock, _ := c.BlockAt(4)
	elseBlock, _ := c.BlockAt(7)
	assert.Contains(t, cd[cond.ID], negBlock.ID)
	assert.Contains(t, cd[cond.ID], elseBlock.ID)
}

func TestComputeLiveness_Sum(t *testing.T) {
	c := buildSum()
	live := ComputeLiveness(c)

	header, ok := c.BlockAt(11)
	require.True(t, ok)
	assert.Contains(t, live.LiveIn[header.ID], "local0", "the accumulator must be live into the loop check")
}

func TestComputeReachingDefinitions_Sum(t *testing.T) {
	c := buildSum()
	rd := ComputeReachingDefinitions(c)
	require.NotEmpty(t, rd.Defs)

	header, ok := c.BlockAt(11)
	require.True(t, ok)
	var sawLocal0Def bool
	for _, id := range rd.ReachIn[header.ID] {
		for _, d := range rd.Defs {
			if d.ID == id && d.Slot == 0 {
				sawLocal0Def = true
			}
		}
	}
	assert.True(t, sawLocal0Def, "a definition of local0 must reach the loop check")
}

func TestComputeReachingDefinitions_KillsEarlierDefInSameBlock(t *testing.T) {
	body := &model.MethodBody{Instructions: []model.Instruction{
		ins(0, "ldc.i4.0", model.FlowNext),
		ins(1, "stloc.0", model.FlowNext),
		ins(2, "ldc.i4.1", model.FlowNext),
		ins(3, "stloc.0", model.FlowNext),
		ins(4, "ldloc.0", model.FlowNext),
		ins(5, "ret", model.FlowReturn),
	}}
	c := cfg.Build("m", &model.MethodDef{Name: "M", FullName: "T.M", Body: body})
	rd := ComputeReachingDefinitions(c)
	require.Len(t, c.Blocks, 1)
	out := rd.ReachOut[c.Blocks[0].ID]
	require.Len(t, out, 1)
	assert.Equal(t, c.Blocks[0].ID+"@3", out[0])
}
