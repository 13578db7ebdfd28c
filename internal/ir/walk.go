package ir

// Walk visits every tree position of fn's body in post order (children
// before their parent), handing each position to visit as a Slot. The
// visitor may replace the node at the slot with Slot.Set; the new node's
// subtree is not re-visited.
func Walk(fn *Func, visit func(Slot)) {
	if fn == nil || fn.Body == nil {
		return
	}
	walkSlot(BodySlot(fn), visit)
}

func walkSlot(s Slot, visit func(Slot)) {
	e := s.Get()
	for i := range e.Kids {
		walkSlot(KidSlot(e, i), visit)
	}
	visit(s)
}
