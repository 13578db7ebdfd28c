package ir

// Equal reports deep structural equality of two trees.
func Equal(a, b *Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Type != b.Type ||
		a.Name != b.Name || a.Op != b.Op ||
		a.Int != b.Int || a.Float != b.Float ||
		len(a.Kids) != len(b.Kids) {
		return false
	}
	for i := range a.Kids {
		if !Equal(a.Kids[i], b.Kids[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the tree.
func Clone(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	c := &Expr{
		Kind:  e.Kind,
		Type:  e.Type,
		Name:  e.Name,
		Op:    e.Op,
		Int:   e.Int,
		Float: e.Float,
	}
	if len(e.Kids) > 0 {
		c.Kids = make([]*Expr, len(e.Kids))
		for i, k := range e.Kids {
			c.Kids[i] = Clone(k)
		}
	}
	return c
}
