package passes

import (
	"treeopt/internal/effects"
	"treeopt/internal/ir"
)

// NopElim removes inert placeholders left behind by rewriting passes:
// every Nop child of a Block is dropped. A nop in any other position
// (loop body, if arm) stays, since those positions must keep a node.
type NopElim struct{}

// Name implements Pass.
func (NopElim) Name() string { return "nop-elim" }

// RunFunc implements Pass.
func (NopElim) RunFunc(_ *ir.Module, fn *ir.Func, _ effects.Options) {
	ir.Walk(fn, func(s ir.Slot) {
		e := s.Get()
		if e.Kind != ir.ExprBlock {
			return
		}
		kept := e.Kids[:0]
		for _, k := range e.Kids {
			if k.Kind == ir.ExprNop {
				continue
			}
			kept = append(kept, k)
		}
		e.Kids = kept
	})
}
