package ast

// Inspect traverses the tree depth-first, calling f for each node. If f
// returns false, the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch x := n.(type) {
	case *And:
		Inspect(x.Left, f)
		Inspect(x.Right, f)
	case *Or:
		Inspect(x.Left, f)
		Inspect(x.Right, f)
	case *Not:
		Inspect(x.Operand, f)
	}
}

// Refs returns every named reference in the tree, in source order.
func Refs(n Node) []*Ref {
	var refs []*Ref
	Inspect(n, func(n Node) bool {
		if r, ok := n.(*Ref); ok {
			refs = append(refs, r)
		}
		return true
	})
	return refs
}

// Replace returns a copy of the tree in which every Ref is substituted by
// the result of f. Leaves that are not references are shared with the input.
func Replace(n Node, f func(*Ref) (Node, error)) (Node, error) {
	switch x := n.(type) {
	case *Ref:
		return f(x)
	case *And:
		l, err := Replace(x.Left, f)
		if err != nil {
			return nil, err
		}
		r, err := Replace(x.Right, f)
		if err != nil {
			return nil, err
		}
		return &And{Left: l, Right: r}, nil
	case *Or:
		l, err := Replace(x.Left, f)
		if err != nil {
			return nil, err
		}
		r, err := Replace(x.Right, f)
		if err != nil {
			return nil, err
		}
		return &Or{Left: l, Right: r}, nil
	case *Not:
		o, err := Replace(x.Operand, f)
		if err != nil {
			return nil, err
		}
		return &Not{Operand: o}, nil
	}
	return n, nil
}
