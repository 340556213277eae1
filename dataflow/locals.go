// Package dataflow computes dominator/post-dominator trees, dominance
// frontiers, control dependence, liveness, and reaching definitions over
// a built cfg.CFG (§4.3).
package dataflow

import (
	"strconv"
	"strings"

	"github.com/viant/ilscope/model"
)

// localAccess classifies one instruction's local-variable touch, if any.
type localAccess struct {
	slot  int
	isDef bool // store vs load
}

// classifyLocal recognizes the local-variable kind from the opcode
// family (load-local/store-local with embedded or explicit slot index),
// per §4.3. Returns ok=false for instructions that do not touch a local.
func classifyLocal(ins model.Instruction) (localAccess, bool) {
	op := ins.Opcode
	isLoad := strings.HasPrefix(op, "ldloc")
	isStore := strings.HasPrefix(op, "stloc")
	if !isLoad && !isStore {
		return localAccess{}, false
	}
	if ins.Operand.Kind == model.OperandLocalSlot {
		return localAccess{slot: ins.Operand.LocalIndex, isDef: isStore}, true
	}
	// embedded slot index, e.g. "ldloc.0", "stloc.1", "ldloc.s" (explicit
	// via operand, already handled above) -- fall back to parsing the
	// trailing numeric suffix.
	if idx := strings.LastIndexByte(op, '.'); idx >= 0 {
		if n, err := strconv.Atoi(op[idx+1:]); err == nil {
			return localAccess{slot: n, isDef: isStore}, true
		}
	}
	return localAccess{}, false
}

// slotName renders a local slot index as a stable variable name used as
// the dataflow value identity (e.g. "local0").
func slotName(slot int) string {
	return "local" + strconv.Itoa(slot)
}
