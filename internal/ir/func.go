package ir

// Func is a single function: a name and a body expression tree.
type Func struct {
	ID   FuncID
	Name string
	Body *Expr
}

// Module is an ordered collection of functions. Functions do not share
// tree state, so passes may process them concurrently.
type Module struct {
	Funcs []*Func
}

// AddFunc appends a function and assigns it the next ID.
func (m *Module) AddFunc(name string, body *Expr) *Func {
	f := &Func{
		ID:   FuncID(len(m.Funcs) + 1), //nolint:gosec // G115: bounded by function count
		Name: name,
		Body: body,
	}
	m.Funcs = append(m.Funcs, f)
	return f
}

// Func returns the function with the given name, or nil.
func (m *Module) Func(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}
