package passes_test

import (
	"context"
	"testing"

	"treeopt/internal/effects"
	"treeopt/internal/ir"
	"treeopt/internal/passes"
)

func runLICM(fn *ir.Func) {
	passes.LICM{}.RunFunc(nil, fn, effects.Options{})
}

// TestLICM_NoLoops tests that a function without loops is left
// structurally identical.
func TestLICM_NoLoops(t *testing.T) {
	body := ir.NewBlock("",
		ir.NewStore(ir.NewConstI64(0), ir.NewConstI64(1)),
		ir.NewIf(
			ir.NewLocalGet("c", ir.TypeI64),
			ir.NewGlobalSet("g", ir.NewConstI64(2)),
			nil,
		),
		ir.NewDrop(ir.NewLocalGet("x", ir.TypeI64)),
	)
	fn := &ir.Func{Name: "test", Body: body}
	want := ir.Clone(body)

	runLICM(fn)

	if !ir.Equal(fn.Body, want) {
		t.Errorf("tree changed without any loop:\ngot  %s\nwant %s", ir.String(fn.Body), ir.String(want))
	}
}

// TestLICM_HoistsStraightLineStatements tests that two independent
// statements at the top of a loop body move out, in order.
func TestLICM_HoistsStraightLineStatements(t *testing.T) {
	s1 := ir.NewDrop(ir.NewConstI64(7))
	s2 := ir.NewGlobalSet("g", ir.NewConstI64(1))
	loop := ir.NewLoop("l", ir.NewBlock("", s1, s2))
	fn := &ir.Func{Name: "test", Body: loop}

	runLICM(fn)

	root := fn.Body
	if root.Kind != ir.ExprBlock {
		t.Fatalf("expected a block wrapping the loop, got %s", root.Kind)
	}
	if len(root.Kids) < 3 {
		t.Fatalf("expected hoisted code + loop, got %d children", len(root.Kids))
	}
	if root.Kids[0] != s1 || root.Kids[1] != s2 {
		t.Errorf("hoisted statements out of order: got %s then %s",
			ir.String(root.Kids[0]), ir.String(root.Kids[1]))
	}
	last := root.Kids[len(root.Kids)-1]
	if last.Kind != ir.ExprLoop {
		t.Errorf("expected the loop last in the sequence, got %s", last.Kind)
	}
	// The vacated positions hold placeholders (or were emptied).
	if last.Kids[0].Kind == ir.ExprBlock {
		for _, k := range last.Kids[0].Kids {
			if k.Kind != ir.ExprNop {
				t.Errorf("loop body still holds %s", ir.String(k))
			}
		}
	}
}

// TestLICM_CallNeverHoisted tests that a statement with a call effect
// stays put regardless of the rest of its profile.
func TestLICM_CallNeverHoisted(t *testing.T) {
	call := ir.NewCall("f", ir.TypeNone)
	loop := ir.NewLoop("l", ir.NewBlock("", call))
	fn := &ir.Func{Name: "test", Body: loop}
	want := ir.Clone(loop)

	runLICM(fn)

	if !ir.Equal(fn.Body, want) {
		t.Errorf("call was moved:\ngot  %s", ir.String(fn.Body))
	}
}

// TestLICM_NothingMovesPastBranch tests that an otherwise eligible
// statement after a branch in the same chain is not hoisted.
func TestLICM_NothingMovesPastBranch(t *testing.T) {
	stmt := ir.NewGlobalSet("g", ir.NewConstI64(1))
	loop := ir.NewLoop("l", ir.NewBlock("",
		ir.NewBr("l", ir.NewLocalGet("c", ir.TypeI64)),
		stmt,
	))
	fn := &ir.Func{Name: "test", Body: loop}
	want := ir.Clone(loop)

	runLICM(fn)

	if !ir.Equal(fn.Body, want) {
		t.Errorf("statement after branch was moved:\ngot  %s", ir.String(fn.Body))
	}
}

// TestLICM_ConflictBlocksHoist tests that a memory read is pinned by a
// memory write elsewhere in the loop, and moves once the write is gone.
func TestLICM_ConflictBlocksHoist(t *testing.T) {
	read := ir.NewDrop(ir.NewLoad(ir.TypeI64, ir.NewConstI64(8)))
	write := ir.NewStore(ir.NewConstI64(8), ir.NewConstI64(1))
	backEdge := ir.NewBr("l", ir.NewLocalGet("c", ir.TypeI64))
	loop := ir.NewLoop("l", ir.NewBlock("", read, write, backEdge))
	fn := &ir.Func{Name: "test", Body: loop}
	want := ir.Clone(loop)

	runLICM(fn)

	if !ir.Equal(fn.Body, want) {
		t.Fatalf("read was moved despite a conflicting write:\ngot  %s", ir.String(fn.Body))
	}

	// Same loop without the write: the read is invariant now.
	read2 := ir.NewDrop(ir.NewLoad(ir.TypeI64, ir.NewConstI64(8)))
	loop2 := ir.NewLoop("l", ir.NewBlock("",
		read2,
		ir.NewBr("l", ir.NewLocalGet("c", ir.TypeI64)),
	))
	fn2 := &ir.Func{Name: "test", Body: loop2}

	runLICM(fn2)

	if fn2.Body.Kind != ir.ExprBlock || fn2.Body.Kids[0] != read2 {
		t.Errorf("read was not moved after removing the write:\ngot  %s", ir.String(fn2.Body))
	}
}

// TestLICM_ValueExpressionsIgnored tests that value-producing
// expressions are never candidates, no matter how pure.
func TestLICM_ValueExpressionsIgnored(t *testing.T) {
	loop := ir.NewLoop("l", ir.NewBlock("", ir.NewLocalGet("x", ir.TypeI64)))
	fn := &ir.Func{Name: "test", Body: loop}
	want := ir.Clone(loop)

	runLICM(fn)

	if !ir.Equal(fn.Body, want) {
		t.Errorf("value expression was moved:\ngot  %s", ir.String(fn.Body))
	}
}

// TestLICM_NearestEnclosingLoop tests that nested loops are handled by
// nearest enclosing association: inner statements hoist out of the
// inner loop only, and a statement lexically after an inner loop in the
// same basic block is not misattributed to it.
func TestLICM_NearestEnclosingLoop(t *testing.T) {
	inner := ir.NewGlobalSet("a", ir.NewConstI64(1))
	after := ir.NewGlobalSet("b", ir.NewConstI64(2))
	innerLoop := ir.NewLoop("in", ir.NewBlock("", inner))
	outerLoop := ir.NewLoop("out", ir.NewBlock("",
		innerLoop,
		after,
		ir.NewBr("out", ir.NewLocalGet("c", ir.TypeI64)),
	))
	fn := &ir.Func{Name: "test", Body: outerLoop}

	runLICM(fn)

	// The inner statement must sit directly before the inner loop,
	// still inside the outer loop.
	var wrapped *ir.Expr
	ir.Walk(fn, func(s ir.Slot) {
		e := s.Get()
		if e.Kind == ir.ExprBlock && len(e.Kids) > 0 && e.Kids[len(e.Kids)-1] == innerLoop {
			wrapped = e
		}
	})
	if wrapped == nil {
		t.Fatalf("inner loop was not wrapped:\ngot %s", ir.String(fn.Body))
	}
	if wrapped.Kids[0] != inner {
		t.Errorf("inner statement not hoisted to just before the inner loop")
	}
	// "after" belongs to the outer loop but the chain's loop context is
	// the inner loop by then; it must stay where it was.
	moved := true
	ir.Walk(fn, func(s ir.Slot) {
		e := s.Get()
		if e == outerLoop {
			moved = false
		}
	})
	if moved {
		t.Fatalf("outer loop disappeared")
	}
	found := false
	ir.Walk(fn, func(s ir.Slot) {
		if s.Get() == after {
			found = true
		}
	})
	if !found {
		t.Fatalf("statement after inner loop disappeared")
	}
	if outerBody := outerLoop.Kids[0]; !containsExpr(outerBody, after) {
		t.Errorf("statement after inner loop left the outer loop:\ngot %s", ir.String(fn.Body))
	}
}

func containsExpr(root, target *ir.Expr) bool {
	if root == target {
		return true
	}
	for _, k := range root.Kids {
		if containsExpr(k, target) {
			return true
		}
	}
	return false
}

// TestLICM_SecondRunFindsNothing tests single-pass exhaustiveness: an
// immediate second run does not change the tree further.
func TestLICM_SecondRunFindsNothing(t *testing.T) {
	loop := ir.NewLoop("l", ir.NewBlock("",
		ir.NewGlobalSet("a", ir.NewConstI64(1)),
		ir.NewGlobalSet("b", ir.NewConstI64(2)),
		ir.NewBr("l", ir.NewLocalGet("c", ir.TypeI64)),
	))
	fn := &ir.Func{Name: "test", Body: loop}

	runLICM(fn)
	if fn.Body.Kind != ir.ExprBlock {
		t.Fatalf("first run hoisted nothing:\ngot %s", ir.String(fn.Body))
	}
	afterFirst := ir.Clone(fn.Body)

	runLICM(fn)

	if !ir.Equal(fn.Body, afterFirst) {
		t.Errorf("second run changed the tree:\nfirst  %s\nsecond %s",
			ir.String(afterFirst), ir.String(fn.Body))
	}
}

// TestLICM_TrapPinnedByLoopSideEffects tests that a possibly-trapping
// candidate stays when the loop has other side effects, and moves under
// ignore_implicit_traps.
func TestLICM_TrapPinnedByLoopSideEffects(t *testing.T) {
	load := ir.NewDrop(ir.NewLoad(ir.TypeI64, ir.NewConstI64(16)))
	counter := ir.NewLocalSet("i", ir.NewConstI64(0))
	mk := func() *ir.Func {
		return &ir.Func{Name: "test", Body: ir.NewLoop("l", ir.NewBlock("",
			ir.Clone(load),
			ir.Clone(counter),
			ir.NewBr("l", ir.NewLocalGet("i", ir.TypeI64)),
		))}
	}

	fn := mk()
	passes.LICM{}.RunFunc(nil, fn, effects.Options{})
	if fn.Body.Kind == ir.ExprBlock {
		t.Errorf("trapping load moved past the loop's local write:\ngot %s", ir.String(fn.Body))
	}

	fn = mk()
	passes.LICM{}.RunFunc(nil, fn, effects.Options{IgnoreImplicitTraps: true})
	if fn.Body.Kind != ir.ExprBlock {
		t.Errorf("trapping load not moved with ignore_implicit_traps:\ngot %s", ir.String(fn.Body))
	}
}

// TestRun_UnknownPass tests the runner's error for unregistered names.
func TestRun_UnknownPass(t *testing.T) {
	m := &ir.Module{}
	m.AddFunc("f", ir.NewNop())
	err := passes.Run(context.Background(), m, []string{"no-such-pass"}, effects.Options{}, 1)
	if err == nil {
		t.Fatalf("expected an error for an unknown pass")
	}
}

// TestRun_ManyFunctions tests the concurrent runner over a module with
// many independent functions.
func TestRun_ManyFunctions(t *testing.T) {
	m := &ir.Module{}
	var loops []*ir.Expr
	for range 32 {
		stmt := ir.NewGlobalSet("g", ir.NewConstI64(1))
		loop := ir.NewLoop("l", ir.NewBlock("",
			stmt,
			ir.NewBr("l", ir.NewLocalGet("c", ir.TypeI64)),
		))
		loops = append(loops, loop)
		m.AddFunc("f", loop)
	}

	if err := passes.Run(context.Background(), m, []string{"licm"}, effects.Options{}, 4); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for i, f := range m.Funcs {
		if f.Body.Kind != ir.ExprBlock {
			t.Errorf("func %d: loop not rewritten:\ngot %s", i, ir.String(f.Body))
		}
		if f.Body.Kids[len(f.Body.Kids)-1] != loops[i] {
			t.Errorf("func %d: loop not last in the hoist sequence", i)
		}
	}
}
