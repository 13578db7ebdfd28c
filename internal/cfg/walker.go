// Package cfg builds a basic-block control-flow graph for a function by
// driving a single post-order traversal of its body tree.
//
// The walker is generic over the per-block contents C: a pass attaches
// whatever bookkeeping it needs to each block through its hooks, while
// the walker owns block creation, successor edges, and the stack of open
// ancestor control-flow constructs.
package cfg

import (
	"fortio.org/safecast"

	"treeopt/internal/ir"
)

// BlockID identifies a basic block within one walk.
type BlockID uint32

// Block is a maximal straight-line run of tree positions. Out holds the
// successor edges, established once during the walk.
type Block[C any] struct {
	ID       BlockID
	Contents C
	Out      []*Block[C]
}

// Hooks are the client callbacks driven by the walk.
type Hooks[C any] struct {
	// OnLoopEnter fires when a loop node is reached, before its body is
	// walked and before the loop-top block is started. The slot names
	// the loop's own tree position.
	OnLoopEnter func(w *Walker[C], s ir.Slot)
	// OnNode fires for every node in post order (children first). The
	// current block may be nil when the node is unreachable.
	OnNode func(w *Walker[C], s ir.Slot)
}

// Walker holds the state of one CFG construction. It is single-use:
// build with Walk, then read Blocks.
type Walker[C any] struct {
	// Blocks lists every created block in walk order, reachable or not.
	Blocks []*Block[C]
	// Entry is the block control enters the function through.
	Entry *Block[C]

	current  *Block[C]
	control  []*ir.Expr
	branches map[*ir.Expr][]*Block[C]
	hooks    Hooks[C]
}

// Walk builds the CFG of fn's body, invoking hooks along the way.
func Walk[C any](fn *ir.Func, hooks Hooks[C]) *Walker[C] {
	w := &Walker[C]{
		branches: make(map[*ir.Expr][]*Block[C]),
		hooks:    hooks,
	}
	w.Entry = w.newBlock()
	w.current = w.Entry
	if fn != nil && fn.Body != nil {
		w.walk(ir.BodySlot(fn))
	}
	return w
}

// Current returns the block under construction, or nil while walking
// unreachable code.
func (w *Walker[C]) Current() *Block[C] { return w.current }

// ControlStack returns the open ancestor control-flow constructs,
// outermost first. The returned slice is only valid during a hook call.
func (w *Walker[C]) ControlStack() []*ir.Expr { return w.control }

func (w *Walker[C]) newBlock() *Block[C] {
	id, err := safecast.Conv[BlockID](len(w.Blocks))
	if err != nil {
		panic("cfg: block count overflow")
	}
	b := &Block[C]{ID: id}
	w.Blocks = append(w.Blocks, b)
	return b
}

// startBlock begins a fresh block with a fallthrough edge from the
// current one, if any.
func (w *Walker[C]) startBlock() *Block[C] {
	b := w.newBlock()
	if w.current != nil {
		w.link(w.current, b)
	}
	w.current = b
	return b
}

func (w *Walker[C]) link(from, to *Block[C]) {
	from.Out = append(from.Out, to)
}

func (w *Walker[C]) visit(s ir.Slot) {
	if w.hooks.OnNode != nil {
		w.hooks.OnNode(w, s)
	}
}

// findLabel resolves a branch target against the open constructs,
// innermost label first.
func (w *Walker[C]) findLabel(label string) *ir.Expr {
	for i := len(w.control) - 1; i >= 0; i-- {
		c := w.control[i]
		if c.Name == label && (c.Kind == ir.ExprBlock || c.Kind == ir.ExprLoop) {
			return c
		}
	}
	return nil
}

func (w *Walker[C]) walk(s ir.Slot) {
	e := s.Get()
	switch e.Kind {
	case ir.ExprBlock:
		w.control = append(w.control, e)
		for i := range e.Kids {
			w.walk(ir.KidSlot(e, i))
		}
		w.control = w.control[:len(w.control)-1]
		if srcs, ok := w.branches[e]; ok {
			delete(w.branches, e)
			// Branches to the label land after the block.
			post := w.startBlock()
			for _, b := range srcs {
				w.link(b, post)
			}
		}
		w.visit(s)

	case ir.ExprLoop:
		if w.hooks.OnLoopEnter != nil {
			w.hooks.OnLoopEnter(w, s)
		}
		top := w.startBlock()
		w.control = append(w.control, e)
		w.walk(ir.KidSlot(e, 0))
		w.control = w.control[:len(w.control)-1]
		// Branches to the loop label are back edges to the loop top.
		for _, b := range w.branches[e] {
			w.link(b, top)
		}
		delete(w.branches, e)
		w.visit(s)

	case ir.ExprIf:
		w.walk(ir.KidSlot(e, 0))
		cond := w.current
		w.control = append(w.control, e)
		w.current = w.newBlock()
		if cond != nil {
			w.link(cond, w.current)
		}
		w.walk(ir.KidSlot(e, 1))
		thenEnd := w.current
		var elseEnd *Block[C]
		hasElse := len(e.Kids) > 2
		if hasElse {
			w.current = w.newBlock()
			if cond != nil {
				w.link(cond, w.current)
			}
			w.walk(ir.KidSlot(e, 2))
			elseEnd = w.current
		}
		w.control = w.control[:len(w.control)-1]
		post := w.newBlock()
		if thenEnd != nil {
			w.link(thenEnd, post)
		}
		if hasElse {
			if elseEnd != nil {
				w.link(elseEnd, post)
			}
		} else if cond != nil {
			w.link(cond, post)
		}
		w.current = post
		w.visit(s)

	case ir.ExprBr:
		conditional := len(e.Kids) > 0
		if conditional {
			w.walk(ir.KidSlot(e, 0))
		}
		w.visit(s)
		if target := w.findLabel(e.Name); target != nil && w.current != nil {
			w.branches[target] = append(w.branches[target], w.current)
		}
		if conditional {
			// Fall through into a fresh block; the pre-branch block now
			// has two successors.
			w.startBlock()
		} else {
			// Code after an unconditional transfer is unreachable.
			w.current = nil
		}

	case ir.ExprReturn:
		for i := range e.Kids {
			w.walk(ir.KidSlot(e, i))
		}
		w.visit(s)
		w.current = nil

	default:
		for i := range e.Kids {
			w.walk(ir.KidSlot(e, i))
		}
		w.visit(s)
	}
}
