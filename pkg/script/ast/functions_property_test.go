package ast

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPropertyDivisionByZeroIsZero(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("x/0 evaluates to 0 for all x", prop.ForAll(
		func(x float64) bool {
			n := &BinaryOp{Op: OpDiv, Left: num(x), Right: num(0)}
			got, err := EvalMap(n, map[string]float64{}, newFakeContext())
			return err == nil && got == 0
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("x%0 evaluates to 0 for all x", prop.ForAll(
		func(x float64) bool {
			n := &BinaryOp{Op: OpMod, Left: num(x), Right: num(0)}
			got, err := EvalMap(n, map[string]float64{}, newFakeContext())
			return err == nil && got == 0
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPropertyComparisonsAreBoolean(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	ops := []BinOp{OpLT, OpGT, OpLE, OpGE, OpEQ, OpNE}
	properties.Property("comparison results are 0 or 1", prop.ForAll(
		func(l, r float64) bool {
			for _, op := range ops {
				v := applyBinOp(op, l, r)
				if v != 0 && v != 1 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPropertySignRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	sign := LookupFunc("sign")
	properties.Property("sign(x) is -1, 0 or 1", prop.ForAll(
		func(x float64) bool {
			v := sign.Eval(nil, []float64{x})
			return v == -1 || v == 0 || v == 1
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPropertySigmoidBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	sigmoid := LookupFunc("sigmoid")
	properties.Property("sigmoid(x, c) stays within [0, 1]", prop.ForAll(
		func(x, c float64) bool {
			v := sigmoid.Eval(nil, []float64{x, c})
			return v >= 0 && v <= 1
		},
		gen.Float64Range(-1e3, 1e3),
		gen.Float64Range(-100, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPropertyBitwiseTruncates(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// Fractions point away from zero so truncating toward zero lands
	// back on the original integer.
	withFrac := func(v int64, f float64) float64 {
		if v < 0 {
			return float64(v) - f
		}
		return float64(v) + f
	}
	properties.Property("a&b and a|b match int64 truncation", prop.ForAll(
		func(a, b int64) bool {
			fa, fb := withFrac(a, 0.7), withFrac(b, 0.2)
			andGot := applyBinOp(OpAnd, fa, fb)
			orGot := applyBinOp(OpOr, fa, fb)
			return andGot == float64(a&b) && orGot == float64(a|b)
		},
		gen.Int64Range(-1<<20, 1<<20),
		gen.Int64Range(-1<<20, 1<<20),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
