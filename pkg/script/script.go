// Package script is the expression engine behind scriptable effects. An
// Engine owns variable storage and hands out compiled scripts; effects
// compile once and execute per frame or per pixel.
//
// Compilation runs lex, parse, resolve, bind and inject in one call and
// never fails loudly: a bad script compiles to an inert empty script with
// the error text retained, and executing it returns 0. The one hard error
// in the language is calling an unknown function; everything else
// (division by zero, out-of-range array reads, NaN results) quietly
// evaluates to a fallback value, because these scripts are user-authored
// and run inside the render loop where an abort would take the whole
// frame down.
package script

import (
	"github.com/veskel/phosphene/pkg/script/ast"
	"github.com/veskel/phosphene/pkg/script/parser"
)

// Compiled is a ready-to-run script. Its variable references point
// directly into the storage of the Engine that compiled it, so a Compiled
// must only ever run on that engine. Share by pointer; the zero value is
// an empty script.
type Compiled struct {
	root    ast.Node
	errText string
}

// IsEmpty reports whether the script has nothing to run, either because
// the source was blank or because compilation failed.
func (c *Compiled) IsEmpty() bool {
	return c == nil || c.root == nil
}

// ErrorText returns the compile error, or "" when compilation succeeded.
func (c *Compiled) ErrorText() string {
	if c == nil {
		return ""
	}
	return c.errText
}

// Compile builds a Compiled script from source. It always returns a
// usable object: on any lex, grammar or unknown-function failure the
// result is empty with ErrorText set, and executing it is a no-op.
func (e *Engine) Compile(source string) *Compiled {
	root, err := parser.ParseString(source)
	if err != nil {
		return &Compiled{errText: err.Error()}
	}
	if root == nil {
		return &Compiled{}
	}

	vt := ast.NewVariableTable()
	if err := ast.Resolve(root, vt); err != nil {
		return &Compiled{errText: err.Error()}
	}
	for _, name := range vt.Names() {
		e.VarRef(name)
	}
	ast.Bind(root, e.VarRef)
	ast.InjectContext(root, e)
	return &Compiled{root: root}
}

// Execute runs a compiled script and returns its last statement's value.
// Dynamic MIDI scalars are synced into storage first so bound reads see
// the current frame. Executing an empty script returns 0.
func (e *Engine) Execute(c *Compiled) float64 {
	if c.IsEmpty() {
		return 0
	}
	e.syncDynamic()
	return ast.EvalBound(c.root)
}

// Evaluate is the one-shot path: parse source fresh, run it against a
// map seeded from current storage plus the dynamic MIDI scalars, then
// persist every non-reserved name back into storage. Errors (grammar or
// unknown function) are recorded on the engine and yield 0.
func (e *Engine) Evaluate(source string) float64 {
	root, err := parser.ParseString(source)
	if err != nil {
		e.lastErr = err.Error()
		return 0
	}
	if root == nil {
		return 0
	}

	env := make(map[string]float64, len(e.vars)+4)
	for name, p := range e.vars {
		env[name] = *p
	}
	if e.midi != nil {
		env["midi_note_count"] = float64(e.midi.NoteCount)
		env["any_note_on"] = b2f(e.midi.AnyNoteOn)
		env["midi_pitch_bend"] = e.midi.PitchBend
	}

	v, err := ast.EvalMap(root, env, e)
	if err != nil {
		e.lastErr = err.Error()
		return 0
	}
	for name, val := range env {
		if reservedNames[name] {
			continue
		}
		*e.VarRef(name) = val
	}
	return v
}

// LastError returns the most recent Evaluate error, or "" if none has
// occurred.
func (e *Engine) LastError() string {
	return e.lastErr
}
