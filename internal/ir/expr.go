package ir

// Type classifies the result of an expression: either it produces a
// value, or it is a statement with no result.
type Type uint8

const (
	// TypeNone marks statement-like expressions with no result value.
	TypeNone Type = iota
	// TypeI64 is a 64-bit integer result.
	TypeI64
	// TypeF64 is a 64-bit float result.
	TypeF64
)

// String returns a human-readable name for the type.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeI64:
		return "i64"
	case TypeF64:
		return "f64"
	default:
		return "unknown"
	}
}

// IsValue reports whether the type carries a result value.
func (t Type) IsValue() bool { return t != TypeNone }

// ExprKind enumerates IR expression kinds. The set is closed: passes
// dispatch on the kind discriminant rather than on per-node behavior.
type ExprKind uint8

const (
	// ExprNop is an inert placeholder with no result and no effects.
	ExprNop ExprKind = iota
	// ExprConst is an integer or float literal.
	ExprConst
	// ExprLocalGet reads a local variable.
	ExprLocalGet
	// ExprLocalSet writes a local variable (Kids[0] = value).
	ExprLocalSet
	// ExprGlobalGet reads a module global.
	ExprGlobalGet
	// ExprGlobalSet writes a module global (Kids[0] = value).
	ExprGlobalSet
	// ExprLoad reads memory (Kids[0] = address). May trap.
	ExprLoad
	// ExprStore writes memory (Kids[0] = address, Kids[1] = value). May trap.
	ExprStore
	// ExprCall invokes a function by name (Kids = arguments).
	ExprCall
	// ExprBinary applies a binary operator (Kids[0], Kids[1]).
	ExprBinary
	// ExprUnary applies a unary operator (Kids[0]).
	ExprUnary
	// ExprDrop evaluates Kids[0] and discards its value.
	ExprDrop
	// ExprBlock is a labeled sequence; its result is its last child's.
	// Branches to the label exit the block.
	ExprBlock
	// ExprLoop is a labeled loop (Kids[0] = body). The body executes at
	// least once per entry; branches to the label re-enter it.
	ExprLoop
	// ExprIf is a conditional (Kids[0] = condition, Kids[1] = then,
	// optional Kids[2] = else).
	ExprIf
	// ExprBr transfers control to an enclosing label. With a condition
	// child (Kids[0]) the transfer only happens when it is non-zero.
	ExprBr
	// ExprReturn leaves the function (optional Kids[0] = value).
	ExprReturn
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprNop:
		return "Nop"
	case ExprConst:
		return "Const"
	case ExprLocalGet:
		return "LocalGet"
	case ExprLocalSet:
		return "LocalSet"
	case ExprGlobalGet:
		return "GlobalGet"
	case ExprGlobalSet:
		return "GlobalSet"
	case ExprLoad:
		return "Load"
	case ExprStore:
		return "Store"
	case ExprCall:
		return "Call"
	case ExprBinary:
		return "Binary"
	case ExprUnary:
		return "Unary"
	case ExprDrop:
		return "Drop"
	case ExprBlock:
		return "Block"
	case ExprLoop:
		return "Loop"
	case ExprIf:
		return "If"
	case ExprBr:
		return "Br"
	case ExprReturn:
		return "Return"
	default:
		return "Unknown"
	}
}

// Expr is a single IR tree node. Children in Kids are owned exclusively
// by their parent; sharing a subtree between two parents is invalid.
type Expr struct {
	Kind ExprKind
	Type Type

	// Name is the local/global name for get/set, the call target for
	// calls, the label for blocks and loops, and the target label for
	// branches. Empty when the kind has no name.
	Name string
	// Op is the operator for ExprBinary and ExprUnary ("add", "div", ...).
	Op string
	// Int and Float carry the ExprConst payload, selected by Type.
	Int   int64
	Float float64

	Kids []*Expr
}
