package passes

import (
	"treeopt/internal/cfg"
	"treeopt/internal/effects"
	"treeopt/internal/ir"
)

// LICM hoists loop-invariant statements out of loops: any none-typed
// expression that runs unconditionally from a loop's top and does not
// interfere with the rest of the loop body is moved in front of the
// loop, so it executes once instead of once per entry.
//
// Single scan only: an opportunity created by this rewrite needs a
// second invocation to be found.
type LICM struct{}

// Name implements Pass.
func (LICM) Name() string { return "licm" }

// RunFunc implements Pass. All state is per invocation, so functions can
// be processed concurrently.
func (LICM) RunFunc(_ *ir.Module, fn *ir.Func, opts effects.Options) {
	p := &licmState{
		opts:      opts,
		exprLoops: make(map[*ir.Expr]*ir.Expr),
		moved:     make(map[*ir.Expr][]*ir.Expr),
	}
	p.run(fn)
}

// blockInfo is the per-basic-block contents collected during the CFG
// walk: the interesting tree positions in program order, meaning loop
// entries and in-loop movable statements.
type blockInfo struct {
	items []ir.Slot
}

type licmState struct {
	opts effects.Options
	// exprLoops maps a statement to its nearest lexically enclosing
	// loop, recorded once during the walk and read-only afterwards.
	exprLoops map[*ir.Expr]*ir.Expr
	// moved maps each loop to the code hoisted out of it, in discovery
	// order. Consumed exactly once by the final rewrite.
	moved map[*ir.Expr][]*ir.Expr
}

func (p *licmState) run(fn *ir.Func) {
	w := cfg.Walk(fn, cfg.Hooks[blockInfo]{
		OnLoopEnter: p.noteLoop,
		OnNode:      p.noteNode,
	})
	p.findAndMove(w)
	p.rewriteLoops(fn)
}

// noteLoop records a loop-entry marker in the block that flows into the
// loop top. The scanner uses markers to know which loop later items
// belong to.
func (p *licmState) noteLoop(w *cfg.Walker[blockInfo], s ir.Slot) {
	if b := w.Current(); b != nil {
		b.Contents.items = append(b.Contents.items, s)
	}
}

// noteNode records a movable statement and its nearest enclosing loop.
// Nesting comes from the stack of open constructs, not from basic-block
// membership: a basic block can span a lexical loop boundary when no
// branch separates the adjacent code, so block membership alone would
// misattribute nesting.
func (p *licmState) noteNode(w *cfg.Walker[blockInfo], s ir.Slot) {
	b := w.Current()
	if b == nil {
		return
	}
	e := s.Get()
	if e.Kind == ir.ExprLoop || e.Type != ir.TypeNone {
		// Loops are markers, not candidates. Value-producing
		// expressions cannot move without moving their consumer.
		return
	}
	stack := w.ControlStack()
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Kind == ir.ExprLoop {
			b.Contents.items = append(b.Contents.items, s)
			p.exprLoops[e] = stack[i]
			break
		}
	}
}

// findAndMove scans chains of straight-line blocks and hoists what it
// can. Only code reached through blocks with exactly one successor is
// guaranteed to run on every pass over the loop top; once a branch is
// seen, nothing later on the chain can be assumed unconditional.
func (p *licmState) findAndMove(w *cfg.Walker[blockInfo]) {
	for _, start := range w.Blocks {
		block := start
		var loop *ir.Expr
		for {
			stop := false
			items := block.Contents.items
			for i := range items {
				s := items[i]
				if !s.Valid() {
					// Already relocated by an earlier chain over this block.
					continue
				}
				curr := s.Get()
				if curr.Kind == ir.ExprLoop {
					loop = curr
					continue
				}
				if loop == nil {
					continue
				}
				if effects.Analyze(p.opts, curr).Branches {
					stop = true
					break
				}
				if interestingToMove(curr) && p.move(s, loop) {
					items[i] = ir.Slot{}
				}
			}
			if stop || len(block.Out) != 1 {
				break
			}
			block = block.Out[0]
		}
	}
}

// interestingToMove keeps statement-like expressions that are not
// already placeholders.
func interestingToMove(e *ir.Expr) bool {
	return e.Type == ir.TypeNone && e.Kind != ir.ExprNop
}

// move decides whether the statement at s can leave loop, and if so
// records it and leaves a nop in its place. Failure leaves the tree
// untouched; there are no retries.
func (p *licmState) move(s ir.Slot, loop *ir.Expr) bool {
	curr := s.Get()
	// The nesting recorded during the walk must match the loop this
	// chain is scanning; earlier rewrites can leave stale items behind.
	if p.exprLoops[curr] != loop {
		return false
	}
	my := effects.Analyze(p.opts, curr)
	// A call done once instead of once per iteration changes observable
	// behavior, and a control transfer must stay where it is. Other side
	// effects are fine as long as they do not interfere with the rest of
	// the loop.
	if my.Calls || my.Branches {
		return false
	}
	// Analyze the loop with the candidate taken out.
	s.Set(ir.NewNop())
	loopFx := effects.Analyze(p.opts, loop)
	// Branches inside the loop are not a hazard for this decision: the
	// chain restriction already limits us to code that runs
	// unconditionally from the loop top.
	loopFx.Branches = false
	if loopFx.Invalidates(my) {
		s.Set(curr)
		return false
	}
	p.moved[loop] = append(p.moved[loop], curr)
	return true
}

// rewriteLoops replaces every loop with hoisted code by a sequence of
// that code, in discovery order, followed by the loop itself. Hoisted
// statements are all none-typed, so the sequence keeps the loop's
// result type.
func (p *licmState) rewriteLoops(fn *ir.Func) {
	if len(p.moved) == 0 {
		return
	}
	ir.Walk(fn, func(s ir.Slot) {
		e := s.Get()
		if e.Kind != ir.ExprLoop {
			return
		}
		code := p.moved[e]
		if len(code) == 0 {
			return
		}
		delete(p.moved, e)
		s.Set(ir.NewBlock("", append(code, e)...))
	})
}
