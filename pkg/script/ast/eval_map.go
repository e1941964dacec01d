package ast

import (
	"errors"
	"fmt"
)

// ErrUnknownFunction is returned when a tree calls a function the catalog
// does not know. It is the language's only hard evaluation error; every
// other questionable construct evaluates to 0 instead.
var ErrUnknownFunction = errors.New("unknown function")

// EvalMap evaluates a tree against a name-to-value map instead of bound
// pointers. No preparation passes are required: variables read through env
// (absent names read as 0), assignments write into env, and arrays and
// context functions go through ctx. It is the strategy behind the one-shot
// Evaluate API and the reference semantics EvalBound is tested against.
func EvalMap(n Node, env map[string]float64, ctx Context) (float64, error) {
	switch n := n.(type) {
	case *NumberLiteral:
		return n.Value, nil

	case *VariableRef:
		return env[n.Name], nil

	case *UnaryOp:
		v, err := EvalMap(n.Operand, env, ctx)
		if err != nil {
			return 0, err
		}
		if n.Negate {
			return -v, nil
		}
		return v, nil

	case *BinaryOp:
		l, err := EvalMap(n.Left, env, ctx)
		if err != nil {
			return 0, err
		}
		r, err := EvalMap(n.Right, env, ctx)
		if err != nil {
			return 0, err
		}
		return applyBinOp(n.Op, l, r), nil

	case *Assignment:
		v, err := EvalMap(n.Value, env, ctx)
		if err != nil {
			return 0, err
		}
		env[n.Name] = v
		return v, nil

	case *FunctionCall:
		fn := n.Fn
		if fn == nil {
			if fn = LookupFunc(n.Name); fn == nil {
				return 0, fmt.Errorf("%w: %s", ErrUnknownFunction, n.Name)
			}
		}
		size := len(n.Args)
		if size < fn.Arity {
			size = fn.Arity
		}
		args := make([]float64, size)
		for i, a := range n.Args {
			v, err := EvalMap(a, env, ctx)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return fn.Eval(ctx, args), nil

	case *ArrayAccess:
		idx, err := EvalMap(n.Index, env, ctx)
		if err != nil {
			return 0, err
		}
		return ctx.ArrayRead(n.Name, int(idx)), nil

	case *ArrayAssignment:
		idx, err := EvalMap(n.Index, env, ctx)
		if err != nil {
			return 0, err
		}
		v, err := EvalMap(n.Value, env, ctx)
		if err != nil {
			return 0, err
		}
		ctx.ArrayWrite(n.Name, int(idx), v)
		return v, nil

	case *WhileLoop:
		var v float64
		for i := 0; i < MaxLoopIterations; i++ {
			cond, err := EvalMap(n.Cond, env, ctx)
			if err != nil {
				return 0, err
			}
			if cond == 0 {
				break
			}
			if v, err = EvalMap(n.Body, env, ctx); err != nil {
				return 0, err
			}
		}
		return v, nil

	case *CountedLoop:
		cf, err := EvalMap(n.Count, env, ctx)
		if err != nil {
			return 0, err
		}
		count := int(cf)
		if count > MaxLoopIterations {
			count = MaxLoopIterations
		}
		var v float64
		for i := 0; i < count; i++ {
			if v, err = EvalMap(n.Body, env, ctx); err != nil {
				return 0, err
			}
		}
		return v, nil

	case *StatementSequence:
		var v float64
		for _, s := range n.Stmts {
			var err error
			if v, err = EvalMap(s, env, ctx); err != nil {
				return 0, err
			}
		}
		return v, nil
	}
	return 0, nil
}
