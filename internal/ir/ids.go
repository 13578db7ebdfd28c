// Package ir provides the expression-tree intermediate representation
// that the optimizer passes operate on.
//
// A function body is a single expression tree in which every node has a
// result type: either a value type or none (statement-like). Passes
// mutate the tree in place through Slot handles, which name rewritable
// child positions without aliasing raw pointers into parents.
package ir

// FuncID identifies a function within a module.
type FuncID uint32

// NoFuncID is the invalid sentinel (zero).
const NoFuncID FuncID = 0

// IsValid reports whether the ID is valid (non-zero).
func (id FuncID) IsValid() bool { return id != NoFuncID }
