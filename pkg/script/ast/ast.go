// Package ast defines the node model of the phosphene expression language
// and its two evaluation strategies.
//
// The node set is closed: evaluation is a single recursive type switch per
// strategy rather than a method per node, so the hot pointer-bound path
// (EvalBound) pays no interface method dispatch and the switch stays
// exhaustive by inspection. The slower map-based strategy (EvalMap) exists
// for the one-shot Evaluate API and for cross-checking the two paths in
// tests; the two must agree on every program.
//
// A node tree is owned by exactly one compiled script. Trees are trees:
// no sharing of subtrees, no cycles.
package ast

// Node is the interface for all AST nodes.
type Node interface {
	node()
}

// BinOp enumerates binary operators.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd // bitwise & over int-truncated operands
	OpOr  // bitwise | over int-truncated operands
	OpLT
	OpGT
	OpLE
	OpGE
	OpEQ
	OpNE
)

// NumberLiteral is a numeric constant.
type NumberLiteral struct {
	Value float64
}

// VariableRef reads a variable. In map mode the name is looked up per
// evaluation; in bound mode Ptr points directly at the variable's storage
// slot and the name is never consulted again.
type VariableRef struct {
	Name string
	Ptr  *float64
}

// UnaryOp is prefix '+' or '-'.
type UnaryOp struct {
	Negate  bool
	Operand Node
}

// BinaryOp applies Op to the values of Left and Right.
type BinaryOp struct {
	Op    BinOp
	Left  Node
	Right Node
}

// Assignment stores the value of Value into a named variable. Like
// VariableRef it carries a bound pointer for the fast path. Its value is
// the assigned value.
type Assignment struct {
	Name  string
	Ptr   *float64
	Value Node
}

// FunctionCall invokes a catalog function. Fn and Ctx are fixed by the
// resolve and inject passes; Scratch is a reusable argument buffer sized
// by resolve so bound evaluation never allocates.
type FunctionCall struct {
	Name    string
	Args    []Node
	Fn      *Func
	Ctx     Context
	Scratch []float64
}

// ArrayAccess reads one element of a named array through the engine
// context. Reads out of range yield 0.
type ArrayAccess struct {
	Name  string
	Index Node
	Ctx   Context
}

// ArrayAssignment writes one element of a named array through the engine
// context. Its value is the assigned value.
type ArrayAssignment struct {
	Name  string
	Index Node
	Value Node
	Ctx   Context
}

// WhileLoop is the while(cond, body) construct. Iteration is capped.
type WhileLoop struct {
	Cond Node
	Body Node
}

// CountedLoop is the loop(count, body) construct. The requested count is
// clamped to the iteration cap.
type CountedLoop struct {
	Count Node
	Body  Node
}

// StatementSequence evaluates statements in order; its value is the last
// statement's value.
type StatementSequence struct {
	Stmts []Node
}

func (*NumberLiteral) node()     {}
func (*VariableRef) node()       {}
func (*UnaryOp) node()           {}
func (*BinaryOp) node()          {}
func (*Assignment) node()        {}
func (*FunctionCall) node()      {}
func (*ArrayAccess) node()       {}
func (*ArrayAssignment) node()   {}
func (*WhileLoop) node()         {}
func (*CountedLoop) node()       {}
func (*StatementSequence) node() {}

// MaxLoopIterations bounds while and loop execution. Scripts are
// user-authored and run every frame; a runaway loop must cost bounded
// time, not hang the renderer.
const MaxLoopIterations = 1_000_000

// Context supplies the engine services some nodes need: named arrays,
// engine uptime for gettime, and the engine's random source. It is fixed
// on the relevant nodes by the inject pass for bound evaluation and passed
// explicitly to EvalMap.
type Context interface {
	// ArrayRead returns element index of the named array, 0 when out of
	// range or when the array does not exist.
	ArrayRead(name string, index int) float64
	// ArrayWrite stores value at element index of the named array,
	// growing it as needed. Negative indexes are ignored.
	ArrayWrite(name string, index int, value float64)
	// Uptime returns seconds since the engine was created.
	Uptime() float64
	// Rand returns a uniformly distributed integer-valued float in
	// [0, max); it returns 0 when max < 1.
	Rand(max float64) float64
}

// VariableTable collects the variable names a tree references, in first-use
// order. It is populated by the resolve pass and consulted by the engine to
// create storage slots before binding; it never holds values.
type VariableTable struct {
	names []string
	index map[string]int
}

// NewVariableTable creates an empty VariableTable.
func NewVariableTable() *VariableTable {
	return &VariableTable{index: make(map[string]int)}
}

// Add registers a name and returns its slot index. Adding an existing name
// returns the original index.
func (vt *VariableTable) Add(name string) int {
	if i, ok := vt.index[name]; ok {
		return i
	}
	i := len(vt.names)
	vt.names = append(vt.names, name)
	vt.index[name] = i
	return i
}

// Index returns the slot index for name.
func (vt *VariableTable) Index(name string) (int, bool) {
	i, ok := vt.index[name]
	return i, ok
}

// Names returns the registered names in insertion order. The returned
// slice is the table's own backing; callers must not modify it.
func (vt *VariableTable) Names() []string {
	return vt.names
}

// Len returns the number of registered names.
func (vt *VariableTable) Len() int {
	return len(vt.names)
}
