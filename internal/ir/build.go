package ir

// Constructors for every node kind. Each returns a fresh node with its
// result type finalized; callers own the returned node.

// NewNop returns an inert placeholder.
func NewNop() *Expr { return &Expr{Kind: ExprNop} }

// NewConstI64 returns an i64 literal.
func NewConstI64(v int64) *Expr {
	return &Expr{Kind: ExprConst, Type: TypeI64, Int: v}
}

// NewConstF64 returns an f64 literal.
func NewConstF64(v float64) *Expr {
	return &Expr{Kind: ExprConst, Type: TypeF64, Float: v}
}

// NewLocalGet reads the named local as type t.
func NewLocalGet(name string, t Type) *Expr {
	return &Expr{Kind: ExprLocalGet, Type: t, Name: name}
}

// NewLocalSet writes value into the named local.
func NewLocalSet(name string, value *Expr) *Expr {
	return &Expr{Kind: ExprLocalSet, Name: name, Kids: []*Expr{value}}
}

// NewGlobalGet reads the named global as type t.
func NewGlobalGet(name string, t Type) *Expr {
	return &Expr{Kind: ExprGlobalGet, Type: t, Name: name}
}

// NewGlobalSet writes value into the named global.
func NewGlobalSet(name string, value *Expr) *Expr {
	return &Expr{Kind: ExprGlobalSet, Name: name, Kids: []*Expr{value}}
}

// NewLoad reads memory at addr as type t.
func NewLoad(t Type, addr *Expr) *Expr {
	return &Expr{Kind: ExprLoad, Type: t, Kids: []*Expr{addr}}
}

// NewStore writes value to memory at addr.
func NewStore(addr, value *Expr) *Expr {
	return &Expr{Kind: ExprStore, Kids: []*Expr{addr, value}}
}

// NewCall invokes target with the given result type and arguments.
func NewCall(target string, t Type, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Type: t, Name: target, Kids: args}
}

// NewBinary applies op to l and r; the result type follows the operands.
func NewBinary(op string, l, r *Expr) *Expr {
	return &Expr{Kind: ExprBinary, Type: l.Type, Op: op, Kids: []*Expr{l, r}}
}

// NewUnary applies op to k; the result type follows the operand.
func NewUnary(op string, k *Expr) *Expr {
	return &Expr{Kind: ExprUnary, Type: k.Type, Op: op, Kids: []*Expr{k}}
}

// NewDrop evaluates v and discards its value.
func NewDrop(v *Expr) *Expr {
	return &Expr{Kind: ExprDrop, Kids: []*Expr{v}}
}

// NewBlock builds a sequence. Its result type is finalized from the last
// child: a block ending in a value expression yields that value.
func NewBlock(label string, kids ...*Expr) *Expr {
	b := &Expr{Kind: ExprBlock, Name: label, Kids: kids}
	if n := len(kids); n > 0 {
		b.Type = kids[n-1].Type
	}
	return b
}

// NewLoop builds a loop around body; the loop yields the body's result.
func NewLoop(label string, body *Expr) *Expr {
	return &Expr{Kind: ExprLoop, Type: body.Type, Name: label, Kids: []*Expr{body}}
}

// NewIf builds a conditional; els may be nil. The result is a value only
// when both arms produce the same value type.
func NewIf(cond, then, els *Expr) *Expr {
	e := &Expr{Kind: ExprIf, Kids: []*Expr{cond, then}}
	if els != nil {
		e.Kids = append(e.Kids, els)
		if then.Type == els.Type {
			e.Type = then.Type
		}
	}
	return e
}

// NewBr branches to an enclosing label; cond may be nil for an
// unconditional transfer.
func NewBr(label string, cond *Expr) *Expr {
	e := &Expr{Kind: ExprBr, Name: label}
	if cond != nil {
		e.Kids = []*Expr{cond}
	}
	return e
}

// NewReturn leaves the function; v may be nil.
func NewReturn(v *Expr) *Expr {
	e := &Expr{Kind: ExprReturn}
	if v != nil {
		e.Kids = []*Expr{v}
	}
	return e
}
