package ast

import "fmt"

// The three preparation passes below turn a freshly parsed tree into one
// EvalBound can run. They are separate walks because they have separate
// inputs: Resolve needs only the tree, Bind needs storage slots that the
// engine creates after seeing Resolve's variable table, and InjectContext
// needs the owning engine.

// Resolve registers every variable name the tree reads or writes into vt
// and attaches catalog entries to function calls. A call to a function the
// catalog does not know is the one construct that fails compilation.
func Resolve(n Node, vt *VariableTable) error {
	switch n := n.(type) {
	case *NumberLiteral:

	case *VariableRef:
		vt.Add(n.Name)

	case *UnaryOp:
		return Resolve(n.Operand, vt)

	case *BinaryOp:
		if err := Resolve(n.Left, vt); err != nil {
			return err
		}
		return Resolve(n.Right, vt)

	case *Assignment:
		vt.Add(n.Name)
		return Resolve(n.Value, vt)

	case *FunctionCall:
		fn := LookupFunc(n.Name)
		if fn == nil {
			return fmt.Errorf("%w: %s", ErrUnknownFunction, n.Name)
		}
		n.Fn = fn
		size := len(n.Args)
		if size < fn.Arity {
			size = fn.Arity
		}
		n.Scratch = make([]float64, size)
		for _, a := range n.Args {
			if err := Resolve(a, vt); err != nil {
				return err
			}
		}

	case *ArrayAccess:
		return Resolve(n.Index, vt)

	case *ArrayAssignment:
		if err := Resolve(n.Index, vt); err != nil {
			return err
		}
		return Resolve(n.Value, vt)

	case *WhileLoop:
		if err := Resolve(n.Cond, vt); err != nil {
			return err
		}
		return Resolve(n.Body, vt)

	case *CountedLoop:
		if err := Resolve(n.Count, vt); err != nil {
			return err
		}
		return Resolve(n.Body, vt)

	case *StatementSequence:
		for _, s := range n.Stmts {
			if err := Resolve(s, vt); err != nil {
				return err
			}
		}
	}
	return nil
}

// Bind points every VariableRef and Assignment at its storage slot. slot
// must return a stable pointer for every name Resolve registered; the
// engine guarantees that by allocating slots from the variable table
// before calling Bind.
func Bind(n Node, slot func(name string) *float64) {
	switch n := n.(type) {
	case *VariableRef:
		n.Ptr = slot(n.Name)

	case *UnaryOp:
		Bind(n.Operand, slot)

	case *BinaryOp:
		Bind(n.Left, slot)
		Bind(n.Right, slot)

	case *Assignment:
		n.Ptr = slot(n.Name)
		Bind(n.Value, slot)

	case *FunctionCall:
		for _, a := range n.Args {
			Bind(a, slot)
		}

	case *ArrayAccess:
		Bind(n.Index, slot)

	case *ArrayAssignment:
		Bind(n.Index, slot)
		Bind(n.Value, slot)

	case *WhileLoop:
		Bind(n.Cond, slot)
		Bind(n.Body, slot)

	case *CountedLoop:
		Bind(n.Count, slot)
		Bind(n.Body, slot)

	case *StatementSequence:
		for _, s := range n.Stmts {
			Bind(s, slot)
		}
	}
}

// InjectContext attaches ctx to every node that consults the engine at
// evaluation time.
func InjectContext(n Node, ctx Context) {
	switch n := n.(type) {
	case *UnaryOp:
		InjectContext(n.Operand, ctx)

	case *BinaryOp:
		InjectContext(n.Left, ctx)
		InjectContext(n.Right, ctx)

	case *Assignment:
		InjectContext(n.Value, ctx)

	case *FunctionCall:
		n.Ctx = ctx
		for _, a := range n.Args {
			InjectContext(a, ctx)
		}

	case *ArrayAccess:
		n.Ctx = ctx
		InjectContext(n.Index, ctx)

	case *ArrayAssignment:
		n.Ctx = ctx
		InjectContext(n.Index, ctx)
		InjectContext(n.Value, ctx)

	case *WhileLoop:
		InjectContext(n.Cond, ctx)
		InjectContext(n.Body, ctx)

	case *CountedLoop:
		InjectContext(n.Count, ctx)
		InjectContext(n.Body, ctx)

	case *StatementSequence:
		for _, s := range n.Stmts {
			InjectContext(s, ctx)
		}
	}
}
