package ast

import "math"

// Func is a catalog function. Arity is the number of arguments the
// implementation reads; callers with fewer arguments see zeros in the
// missing positions and surplus arguments are evaluated then ignored.
type Func struct {
	Name  string
	Arity int
	Eval  func(ctx Context, args []float64) float64
}

// LookupFunc returns the catalog function for name, or nil when no such
// function exists. Unknown names are the only hard compile error in the
// language, so this is consulted by the resolve pass as well as by map
// evaluation.
func LookupFunc(name string) *Func {
	return functions[name]
}

var functions = map[string]*Func{}

func register(name string, arity int, eval func(ctx Context, args []float64) float64) {
	functions[name] = &Func{Name: name, Arity: arity, Eval: eval}
}

func unary(fn func(float64) float64) func(Context, []float64) float64 {
	return func(_ Context, args []float64) float64 { return fn(args[0]) }
}

func binary(fn func(float64, float64) float64) func(Context, []float64) float64 {
	return func(_ Context, args []float64) float64 { return fn(args[0], args[1]) }
}

func init() {
	register("sin", 1, unary(math.Sin))
	register("cos", 1, unary(math.Cos))
	register("tan", 1, unary(math.Tan))
	register("asin", 1, unary(math.Asin))
	register("acos", 1, unary(math.Acos))
	register("atan", 1, unary(math.Atan))
	register("sqrt", 1, unary(math.Sqrt))
	register("abs", 1, unary(math.Abs))
	register("log", 1, unary(math.Log))
	register("log10", 1, unary(math.Log10))
	register("floor", 1, unary(math.Floor))
	register("ceil", 1, unary(math.Ceil))
	register("pow", 2, binary(math.Pow))
	register("atan2", 2, binary(math.Atan2))
	register("min", 2, binary(math.Min))
	register("max", 2, binary(math.Max))

	register("sign", 1, unary(func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	}))
	register("sqr", 1, unary(func(x float64) float64 { return x * x }))
	register("invsqrt", 1, unary(func(x float64) float64 { return 1 / math.Sqrt(x) }))
	register("sigmoid", 2, binary(func(x, c float64) float64 {
		return 1 / (1 + math.Exp(-x*c))
	}))

	// Logical forms. Arguments are already evaluated by the time these
	// run, so there is no short-circuiting.
	register("if", 3, func(_ Context, args []float64) float64 {
		if args[0] != 0 {
			return args[1]
		}
		return args[2]
	})
	register("above", 2, binary(func(a, b float64) float64 { return bool2f(a > b) }))
	register("below", 2, binary(func(a, b float64) float64 { return bool2f(a < b) }))
	register("equal", 2, binary(func(a, b float64) float64 { return bool2f(a == b) }))
	register("band", 2, binary(func(a, b float64) float64 { return bool2f(a != 0 && b != 0) }))
	register("bor", 2, binary(func(a, b float64) float64 { return bool2f(a != 0 || b != 0) }))
	register("bnot", 1, unary(func(x float64) float64 { return bool2f(x == 0) }))

	register("rand", 1, func(ctx Context, args []float64) float64 {
		return ctx.Rand(args[0])
	})
	register("gettime", 0, func(ctx Context, _ []float64) float64 {
		return ctx.Uptime()
	})

	// Heritage functions whose data sources have no counterpart here.
	// They parse and evaluate to 0 so old presets load unmodified.
	register("getosc", 0, zeroFunc)
	register("getspec", 0, zeroFunc)
	register("getkbmouse", 0, zeroFunc)
	register("megabuf", 0, zeroFunc)
	register("gmegabuf", 0, zeroFunc)
}

func zeroFunc(_ Context, _ []float64) float64 { return 0 }

func bool2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
