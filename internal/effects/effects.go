// Package effects summarizes what a subtree reads, writes, calls, or
// transfers control to, and decides whether two such summaries can be
// reordered safely.
package effects

import "treeopt/internal/ir"

// Options tunes the analysis. It is forwarded opaquely from pass
// configuration.
type Options struct {
	// IgnoreImplicitTraps treats possibly-trapping operations (loads,
	// stores, integer division) as non-trapping for conflict purposes.
	IgnoreImplicitTraps bool
	// TrapsNeverHappen asserts the program never reaches a trap, which
	// likewise drops trap-based conflicts.
	TrapsNeverHappen bool
}

// Effects is the profile of one subtree.
type Effects struct {
	// Calls is set when the subtree invokes a function. A call may do
	// anything to memory and globals, and its count is observable.
	Calls bool
	// Branches is set when the subtree transfers control (br, return).
	Branches bool

	ReadsMemory  bool
	WritesMemory bool
	// ImplicitTrap is set when the subtree may trap (memory access,
	// integer division).
	ImplicitTrap bool

	LocalsRead     map[string]struct{}
	LocalsWritten  map[string]struct{}
	GlobalsRead    map[string]struct{}
	GlobalsWritten map[string]struct{}
}

// Analyze computes the effect profile of the subtree rooted at e.
func Analyze(opts Options, e *ir.Expr) *Effects {
	fx := &Effects{
		LocalsRead:     make(map[string]struct{}),
		LocalsWritten:  make(map[string]struct{}),
		GlobalsRead:    make(map[string]struct{}),
		GlobalsWritten: make(map[string]struct{}),
	}
	fx.scan(e)
	if opts.IgnoreImplicitTraps || opts.TrapsNeverHappen {
		fx.ImplicitTrap = false
	}
	return fx
}

func (fx *Effects) scan(e *ir.Expr) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ir.ExprLocalGet:
		fx.LocalsRead[e.Name] = struct{}{}
	case ir.ExprLocalSet:
		fx.LocalsWritten[e.Name] = struct{}{}
	case ir.ExprGlobalGet:
		fx.GlobalsRead[e.Name] = struct{}{}
	case ir.ExprGlobalSet:
		fx.GlobalsWritten[e.Name] = struct{}{}
	case ir.ExprLoad:
		fx.ReadsMemory = true
		fx.ImplicitTrap = true
	case ir.ExprStore:
		fx.WritesMemory = true
		fx.ImplicitTrap = true
	case ir.ExprCall:
		fx.Calls = true
	case ir.ExprBr, ir.ExprReturn:
		fx.Branches = true
	case ir.ExprBinary:
		if e.Op == "div" || e.Op == "rem" {
			fx.ImplicitTrap = true
		}
	}
	for _, k := range e.Kids {
		fx.scan(k)
	}
}

// HasSideEffects reports whether repeating or dropping the subtree is
// observable on its own.
func (fx *Effects) HasSideEffects() bool {
	return fx.Calls || fx.Branches || fx.WritesMemory || fx.ImplicitTrap ||
		len(fx.LocalsWritten) > 0 || len(fx.GlobalsWritten) > 0
}

// AccessesMemory reports any memory read or write.
func (fx *Effects) AccessesMemory() bool { return fx.ReadsMemory || fx.WritesMemory }

func (fx *Effects) accessesGlobals() bool {
	return len(fx.GlobalsRead) > 0 || len(fx.GlobalsWritten) > 0
}

// callConflicts reports what a call could interfere with on the other
// side: anything but this function's locals.
func callConflicts(other *Effects) bool {
	return other.Calls || other.AccessesMemory() || other.accessesGlobals() ||
		other.ImplicitTrap
}

// Invalidates reports whether the relative order or repetition count of
// fx and other is observable, i.e. the two cannot be reordered.
func (fx *Effects) Invalidates(other *Effects) bool {
	// Control transfer on either side pins any side effect on the other.
	if (fx.Branches && other.HasSideEffects()) ||
		(other.Branches && fx.HasSideEffects()) {
		return true
	}
	// Calls may touch memory and globals arbitrarily.
	if (fx.Calls && callConflicts(other)) || (other.Calls && callConflicts(fx)) {
		return true
	}
	if (fx.WritesMemory && other.AccessesMemory()) ||
		(other.WritesMemory && fx.AccessesMemory()) {
		return true
	}
	if intersects(fx.LocalsWritten, other.LocalsRead) ||
		intersects(fx.LocalsWritten, other.LocalsWritten) ||
		intersects(other.LocalsWritten, fx.LocalsRead) {
		return true
	}
	if intersects(fx.GlobalsWritten, other.GlobalsRead) ||
		intersects(fx.GlobalsWritten, other.GlobalsWritten) ||
		intersects(other.GlobalsWritten, fx.GlobalsRead) {
		return true
	}
	// A possible trap cannot change order relative to side effects: the
	// trap deciding whether the effect happens is observable.
	if (fx.ImplicitTrap && other.HasSideEffects()) ||
		(other.ImplicitTrap && fx.HasSideEffects()) {
		return true
	}
	return false
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
