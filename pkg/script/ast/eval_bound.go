package ast

// EvalBound evaluates a fully prepared tree: every VariableRef and
// Assignment carries a storage pointer, every FunctionCall a catalog entry
// and scratch buffer, and every array or context node an engine Context.
// Preparation is the resolve, bind and inject passes; a tree that passed
// all three cannot fail here, which is why EvalBound returns no error.
//
// This is the per-pixel path. It must not allocate.
func EvalBound(n Node) float64 {
	switch n := n.(type) {
	case *NumberLiteral:
		return n.Value

	case *VariableRef:
		return *n.Ptr

	case *UnaryOp:
		v := EvalBound(n.Operand)
		if n.Negate {
			return -v
		}
		return v

	case *BinaryOp:
		l := EvalBound(n.Left)
		r := EvalBound(n.Right)
		return applyBinOp(n.Op, l, r)

	case *Assignment:
		v := EvalBound(n.Value)
		*n.Ptr = v
		return v

	case *FunctionCall:
		// Scratch is at least as long as Args and its tail beyond Args
		// stays zero, which is how missing arguments read as 0.
		for i, a := range n.Args {
			n.Scratch[i] = EvalBound(a)
		}
		return n.Fn.Eval(n.Ctx, n.Scratch)

	case *ArrayAccess:
		return n.Ctx.ArrayRead(n.Name, int(EvalBound(n.Index)))

	case *ArrayAssignment:
		i := int(EvalBound(n.Index))
		v := EvalBound(n.Value)
		n.Ctx.ArrayWrite(n.Name, i, v)
		return v

	case *WhileLoop:
		var v float64
		for i := 0; i < MaxLoopIterations; i++ {
			if EvalBound(n.Cond) == 0 {
				break
			}
			v = EvalBound(n.Body)
		}
		return v

	case *CountedLoop:
		count := int(EvalBound(n.Count))
		if count > MaxLoopIterations {
			count = MaxLoopIterations
		}
		var v float64
		for i := 0; i < count; i++ {
			v = EvalBound(n.Body)
		}
		return v

	case *StatementSequence:
		var v float64
		for _, s := range n.Stmts {
			v = EvalBound(s)
		}
		return v
	}
	return 0
}

// applyBinOp gives both evaluation strategies identical operator
// semantics. Division and modulo by zero yield 0; bitwise and modulo
// operators truncate their operands toward zero first.
func applyBinOp(op BinOp, l, r float64) float64 {
	switch op {
	case OpAdd:
		return l + r
	case OpSub:
		return l - r
	case OpMul:
		return l * r
	case OpDiv:
		if r == 0 {
			return 0
		}
		return l / r
	case OpMod:
		ri := int64(r)
		if ri == 0 {
			return 0
		}
		return float64(int64(l) % ri)
	case OpAnd:
		return float64(int64(l) & int64(r))
	case OpOr:
		return float64(int64(l) | int64(r))
	case OpLT:
		return bool2f(l < r)
	case OpGT:
		return bool2f(l > r)
	case OpLE:
		return bool2f(l <= r)
	case OpGE:
		return bool2f(l >= r)
	case OpEQ:
		return bool2f(l == r)
	case OpNE:
		return bool2f(l != r)
	}
	return 0
}
