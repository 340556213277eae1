package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilscope/cfg"
	"github.com/viant/ilscope/depgraph"
	"github.com/viant/ilscope/model"
)

func TestCFG_RendersNodesAndLabeledEdges(t *testing.T) {
	method := &model.MethodDef{
		FullName: "App.Widget::Render",
		Body: &model.MethodBody{
			Instructions: []model.Instruction{
				{Offset: 0, Opcode: "brtrue", FlowControl: model.FlowCondBranch, Operand: model.Operand{Kind: model.OperandInstruction, TargetOffset: 2}},
				{Offset: 1, Opcode: "ldarg.0"},
				{Offset: 2, Opcode: "ret"},
			},
		},
	}
	graph := cfg.Build("App.Widget::Render", method)
	out := CFG(graph)

	assert.Contains(t, out, `["`)
	assert.Contains(t, out, "-->|")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.True(t, strings.Contains(line, "[\"") || strings.Contains(line, "-->|"))
	}
}

func TestDependencyGraph_SanitizesIDsAndLabelsWeight(t *testing.T) {
	g := &depgraph.Graph{
		Level: depgraph.LevelType,
		Nodes: map[string]*depgraph.Node{
			"App.Circle":       {ID: "App.Circle", Name: "Circle"},
			"System.Console": {ID: "System.Console", Name: "Console", IsExternal: true},
		},
		Edges: []*depgraph.Edge{
			{From: "App.Circle", To: "System.Console", Kind: depgraph.EdgeUsage, Weight: 3},
		},
	}
	out := DependencyGraph(g)

	assert.NotContains(t, out, "App.Circle[")
	assert.Contains(t, out, "App_Circle[\"Circle\"]")
	assert.Contains(t, out, "System_Console[\"Console (external)\"]")
	assert.Contains(t, out, "App_Circle -->|usage x3| System_Console")
}

func TestDependencyGraph_EmptyGraphProducesEmptyOutput(t *testing.T) {
	g := &depgraph.Graph{Level: depgraph.LevelType, Nodes: map[string]*depgraph.Node{}}
	assert.Empty(t, DependencyGraph(g))
}
