package parser

import (
	"testing"

	"github.com/veskel/phosphene/pkg/script/ast"
)

func mustParse(t *testing.T, src string) ast.Node {
	t.Helper()
	root, err := ParseString(src)
	if err != nil {
		t.Fatalf("parse %q failed: %v", src, err)
	}
	return root
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"2*3+4", 10},
		{"10-2-3", 5},
		{"24/4/2", 3},
		{"2*6%4", 0},
		{"7%4*2", 6},
		{"1+2==3", 1},
		{"1<2 & 2<3", 1},
		{"2|4>3", 3},
		{"1|2==2", 1},
		{"-2+3", 1},
		{"-(2+3)", -5},
		{"--5", 5},
		{"2--3", 5},
		{"+4*2", 8},
		{"1 <= 1 & 2 >= 3", 0},
		{"3 != 3 | 1 == 1", 1},
	}

	for i, tt := range tests {
		root := mustParse(t, tt.input)
		got, err := ast.EvalMap(root, map[string]float64{}, nil)
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error for %q: %v", i, tt.input, err)
		}
		if got != tt.expected {
			t.Fatalf("tests[%d] - %q value wrong. expected=%v, got=%v", i, tt.input, tt.expected, got)
		}
	}
}

func TestAssignmentStatement(t *testing.T) {
	root := mustParse(t, "x = 1 + 2")
	assign, ok := root.(*ast.Assignment)
	if !ok {
		t.Fatalf("root type wrong. expected=*ast.Assignment, got=%T", root)
	}
	if assign.Name != "x" {
		t.Fatalf("name wrong. expected=%q, got=%q", "x", assign.Name)
	}
	if _, ok := assign.Value.(*ast.BinaryOp); !ok {
		t.Fatalf("value type wrong. expected=*ast.BinaryOp, got=%T", assign.Value)
	}
}

func TestArrayAssignmentVersusAccess(t *testing.T) {
	root := mustParse(t, "buf[i+1] = 2")
	if _, ok := root.(*ast.ArrayAssignment); !ok {
		t.Fatalf("root type wrong. expected=*ast.ArrayAssignment, got=%T", root)
	}

	root = mustParse(t, "buf[i+1] + 2")
	bin, ok := root.(*ast.BinaryOp)
	if !ok {
		t.Fatalf("root type wrong. expected=*ast.BinaryOp, got=%T", root)
	}
	if _, ok := bin.Left.(*ast.ArrayAccess); !ok {
		t.Fatalf("left type wrong. expected=*ast.ArrayAccess, got=%T", bin.Left)
	}

	// A nested bracketed index must not confuse the '=' lookahead.
	root = mustParse(t, "buf[buf[0]] = 3")
	arr, ok := root.(*ast.ArrayAssignment)
	if !ok {
		t.Fatalf("root type wrong. expected=*ast.ArrayAssignment, got=%T", root)
	}
	if _, ok := arr.Index.(*ast.ArrayAccess); !ok {
		t.Fatalf("index type wrong. expected=*ast.ArrayAccess, got=%T", arr.Index)
	}

	// Comparison after an index is an expression, not an assignment.
	root = mustParse(t, "buf[0] == 3")
	if _, ok := root.(*ast.BinaryOp); !ok {
		t.Fatalf("root type wrong. expected=*ast.BinaryOp, got=%T", root)
	}
}

func TestFunctionCalls(t *testing.T) {
	root := mustParse(t, "atan2(y, x)")
	call, ok := root.(*ast.FunctionCall)
	if !ok {
		t.Fatalf("root type wrong. expected=*ast.FunctionCall, got=%T", root)
	}
	if call.Name != "atan2" {
		t.Fatalf("name wrong. expected=%q, got=%q", "atan2", call.Name)
	}
	if len(call.Args) != 2 {
		t.Fatalf("argument count wrong. expected=2, got=%d", len(call.Args))
	}

	root = mustParse(t, "gettime()")
	call, ok = root.(*ast.FunctionCall)
	if !ok {
		t.Fatalf("root type wrong. expected=*ast.FunctionCall, got=%T", root)
	}
	if len(call.Args) != 0 {
		t.Fatalf("argument count wrong. expected=0, got=%d", len(call.Args))
	}
}

func TestWhileAndLoopForms(t *testing.T) {
	root := mustParse(t, "loop(3, x=x+1; y=y+2)")
	cl, ok := root.(*ast.CountedLoop)
	if !ok {
		t.Fatalf("root type wrong. expected=*ast.CountedLoop, got=%T", root)
	}
	body, ok := cl.Body.(*ast.StatementSequence)
	if !ok {
		t.Fatalf("body type wrong. expected=*ast.StatementSequence, got=%T", cl.Body)
	}
	if len(body.Stmts) != 2 {
		t.Fatalf("body length wrong. expected=2, got=%d", len(body.Stmts))
	}

	root = mustParse(t, "while(x<3, x=x+1)")
	wl, ok := root.(*ast.WhileLoop)
	if !ok {
		t.Fatalf("root type wrong. expected=*ast.WhileLoop, got=%T", root)
	}
	if _, ok := wl.Body.(*ast.Assignment); !ok {
		t.Fatalf("single-statement body not unwrapped. got=%T", wl.Body)
	}

	// Nested calls inside a body keep their commas to themselves.
	root = mustParse(t, "loop(2, x = min(x, 5); while(y<1, y=y+1))")
	if _, ok := root.(*ast.CountedLoop); !ok {
		t.Fatalf("root type wrong. expected=*ast.CountedLoop, got=%T", root)
	}
}

func TestProgramSequence(t *testing.T) {
	root := mustParse(t, "x=1; y=2; x+y")
	seq, ok := root.(*ast.StatementSequence)
	if !ok {
		t.Fatalf("root type wrong. expected=*ast.StatementSequence, got=%T", root)
	}
	if len(seq.Stmts) != 3 {
		t.Fatalf("statement count wrong. expected=3, got=%d", len(seq.Stmts))
	}

	// One statement comes back bare.
	root = mustParse(t, "x=1")
	if _, ok := root.(*ast.Assignment); !ok {
		t.Fatalf("root type wrong. expected=*ast.Assignment, got=%T", root)
	}

	// Stray semicolons are not statements.
	root = mustParse(t, ";;x=1;;")
	if _, ok := root.(*ast.Assignment); !ok {
		t.Fatalf("root type wrong. expected=*ast.Assignment, got=%T", root)
	}
}

func TestEmptySourceParsesToNil(t *testing.T) {
	for i, src := range []string{"", "   ", "// just a comment", ";;;"} {
		root, err := ParseString(src)
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if root != nil {
			t.Fatalf("tests[%d] - expected nil root, got=%T", i, root)
		}
	}
}

func TestIdentifierCaseFolding(t *testing.T) {
	root := mustParse(t, "Y = SIN($PI)")
	assign, ok := root.(*ast.Assignment)
	if !ok {
		t.Fatalf("root type wrong. expected=*ast.Assignment, got=%T", root)
	}
	if assign.Name != "y" {
		t.Fatalf("name not folded. expected=%q, got=%q", "y", assign.Name)
	}
	call, ok := assign.Value.(*ast.FunctionCall)
	if !ok {
		t.Fatalf("value type wrong. expected=*ast.FunctionCall, got=%T", assign.Value)
	}
	if call.Name != "sin" {
		t.Fatalf("call name not folded. expected=%q, got=%q", "sin", call.Name)
	}
	ref, ok := call.Args[0].(*ast.VariableRef)
	if !ok || ref.Name != "$pi" {
		t.Fatalf("argument wrong. expected $pi ref, got=%T %+v", call.Args[0], call.Args[0])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"1 2",          // missing ';'
		"f(1,)",        // dangling comma
		"(1+2",         // unclosed paren
		"buf[1 = 2",    // unclosed index
		"while(1)",     // missing body
		"loop(3 x=1)",  // missing comma
		"foo(",         // unclosed call
		"x = ",         // missing value
		"* 3",          // operator in factor position
		"x = 1; ; = 2", // assignment without target
	}

	for i, src := range tests {
		if _, err := ParseString(src); err == nil {
			t.Fatalf("tests[%d] - expected parse error for %q, got none", i, src)
		}
	}
}

func TestWhileLoopEvaluation(t *testing.T) {
	root := mustParse(t, "x=0; loop(4, x=x+2); x")
	got, err := ast.EvalMap(root, map[string]float64{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 8 {
		t.Fatalf("value wrong. expected=8, got=%v", got)
	}

	root = mustParse(t, "n=0; s=0; while(n<5, n=n+1; s=s+n); s")
	got, err = ast.EvalMap(root, map[string]float64{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 15 {
		t.Fatalf("value wrong. expected=15, got=%v", got)
	}
}
