package ir

import "fmt"

// Slot is a stable, rewritable handle to one tree position: either a
// child index under a parent node or a function's body root. The zero
// Slot is the nulled state — it names nothing and must not be
// dereferenced; passes null a slot to mark its content as relocated.
type Slot struct {
	parent *Expr
	fn     *Func
	index  int
}

// KidSlot names child index under parent.
func KidSlot(parent *Expr, index int) Slot {
	return Slot{parent: parent, index: index}
}

// BodySlot names the body root of fn.
func BodySlot(fn *Func) Slot {
	return Slot{fn: fn}
}

// Valid reports whether the slot still names a tree position.
func (s Slot) Valid() bool { return s.parent != nil || s.fn != nil }

// Get returns the expression occupying the slot.
func (s Slot) Get() *Expr {
	switch {
	case s.fn != nil:
		return s.fn.Body
	case s.parent != nil:
		if s.index < 0 || s.index >= len(s.parent.Kids) {
			panic(fmt.Sprintf("ir: slot index %d out of range 0..%d", s.index, len(s.parent.Kids)-1))
		}
		return s.parent.Kids[s.index]
	default:
		panic("ir: get on nulled slot")
	}
}

// Set replaces the expression occupying the slot.
func (s Slot) Set(e *Expr) {
	switch {
	case s.fn != nil:
		s.fn.Body = e
	case s.parent != nil:
		if s.index < 0 || s.index >= len(s.parent.Kids) {
			panic(fmt.Sprintf("ir: slot index %d out of range 0..%d", s.index, len(s.parent.Kids)-1))
		}
		s.parent.Kids[s.index] = e
	default:
		panic("ir: set on nulled slot")
	}
}
