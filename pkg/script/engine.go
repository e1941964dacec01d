package script

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/veskel/phosphene/pkg/audio"
	"github.com/veskel/phosphene/pkg/midi"
)

// Storage grows one chunk at a time. Chunks are never resized or moved,
// which is what keeps handed-out variable addresses stable for the life
// of the engine.
const chunkSize = 64

// audioStride spaces the v1..v8/vr1..vr8/s1..s8 taps across the 576
// samples of an audio frame.
const audioStride = 72

// reservedNames are read-only context inputs excluded from Evaluate's
// write-back, so a script assigning to them cannot poison the next
// frame's context. The three MIDI scalars must stay in step with
// syncDynamic.
var reservedNames = map[string]bool{
	"w":               true,
	"h":               true,
	"beat":            true,
	"midi_note_count": true,
	"any_note_on":     true,
	"midi_pitch_bend": true,
}

// Engine owns variable storage and user arrays for one family of
// compiled scripts. It is not safe for concurrent use: one engine, one
// goroutine. Effects that run scripts in parallel each own an engine.
type Engine struct {
	chunks [][]float64
	used   int // slots handed out in the last chunk
	vars   map[string]*float64
	arrays map[string][]float64

	midi    *midi.State
	start   time.Time
	rnd     *rand.Rand
	lastErr string

	// Hot context slots, resolved once at construction.
	pW, pH, pX, pY     *float64
	pR, pG, pB         *float64
	pBeat              *float64
	pWaveL, pWaveR     [8]*float64
	pSpec              [8]*float64
	pNoteCount, pAnyOn *float64
	pBend              *float64
}

// New creates an engine with the mathematical constants seeded and all
// context variables allocated.
func New() *Engine {
	e := &Engine{
		vars:   make(map[string]*float64),
		arrays: make(map[string][]float64),
		start:  time.Now(),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	*e.VarRef("$pi") = math.Pi
	*e.VarRef("$e") = math.E
	*e.VarRef("$phi") = math.Phi

	e.pW = e.VarRef("w")
	e.pH = e.VarRef("h")
	e.pX = e.VarRef("x")
	e.pY = e.VarRef("y")
	e.pR = e.VarRef("r")
	e.pG = e.VarRef("g")
	e.pB = e.VarRef("b")
	e.pBeat = e.VarRef("beat")
	names := [8]string{"1", "2", "3", "4", "5", "6", "7", "8"}
	for i, n := range names {
		e.pWaveL[i] = e.VarRef("v" + n)
		e.pWaveR[i] = e.VarRef("vr" + n)
		e.pSpec[i] = e.VarRef("s" + n)
	}
	e.pNoteCount = e.VarRef("midi_note_count")
	e.pAnyOn = e.VarRef("any_note_on")
	e.pBend = e.VarRef("midi_pitch_bend")
	return e
}

// VarRef returns the storage address for name, creating the variable
// seeded to 0 on first use. The address stays valid for the engine's
// lifetime no matter how much storage grows afterwards. Names are
// case-insensitive.
func (e *Engine) VarRef(name string) *float64 {
	name = strings.ToLower(name)
	if p, ok := e.vars[name]; ok {
		return p
	}
	if len(e.chunks) == 0 || e.used == chunkSize {
		e.chunks = append(e.chunks, make([]float64, chunkSize))
		e.used = 0
	}
	p := &e.chunks[len(e.chunks)-1][e.used]
	e.used++
	e.vars[name] = p
	return p
}

// SetPixelContext publishes the current pixel position: w and h as-is,
// x and y normalized to [0,1] by coord/(dimension-1), or 0 when the
// dimension has no span.
func (e *Engine) SetPixelContext(x, y, width, height int) {
	*e.pW = float64(width)
	*e.pH = float64(height)
	if width > 1 {
		*e.pX = float64(x) / float64(width-1)
	} else {
		*e.pX = 0
	}
	if height > 1 {
		*e.pY = float64(y) / float64(height-1)
	} else {
		*e.pY = 0
	}
}

// SetColorContext publishes the current pixel color as r, g, b.
func (e *Engine) SetColorContext(r, g, b float64) {
	*e.pR = r
	*e.pG = g
	*e.pB = b
}

// SetAudioContext derives the fixed audio taps from one frame: v1..v8
// and vr1..vr8 from the left/right waveform, s1..s8 from the left
// spectrum, each sampled every audioStride samples and normalized by
// 1/127, plus the beat flag.
func (e *Engine) SetAudioContext(f *audio.Frame) {
	for i := 0; i < 8; i++ {
		*e.pWaveL[i] = float64(f.Waveform[0][i*audioStride]) / 127
		*e.pWaveR[i] = float64(f.Waveform[1][i*audioStride]) / 127
		*e.pSpec[i] = float64(f.Spectrum[0][i*audioStride]) / 127
	}
	*e.pBeat = b2f(f.Beat)
}

// SetMIDIState points the engine at the frame's MIDI snapshot. The
// snapshot is read through the reserved midi_* arrays and synced scalars;
// the engine never writes it.
func (e *Engine) SetMIDIState(st *midi.State) {
	e.midi = st
}

// syncDynamic refreshes the MIDI scalars in storage. Runs before every
// Execute so bound scripts read current values.
func (e *Engine) syncDynamic() {
	if e.midi == nil {
		*e.pNoteCount = 0
		*e.pAnyOn = 0
		*e.pBend = 0
		return
	}
	*e.pNoteCount = float64(e.midi.NoteCount)
	*e.pAnyOn = b2f(e.midi.AnyNoteOn)
	*e.pBend = e.midi.PitchBend
}

// ArrayRead implements ast.Context. The reserved MIDI arrays take
// precedence over user arrays of the same name; out-of-range reads are 0.
func (e *Engine) ArrayRead(name string, index int) float64 {
	switch name {
	case "midi_cc":
		if e.midi != nil && index >= 0 && index < 128 {
			return float64(e.midi.CC[index]) / 127
		}
		return 0
	case "midi_note":
		if e.midi != nil && index >= 0 && index < 128 {
			return float64(e.midi.NoteVel[index]) / 127
		}
		return 0
	case "midi_note_idx":
		if e.midi != nil && index >= 0 && index < len(e.midi.Active) {
			return float64(e.midi.Active[index])
		}
		return 0
	}
	a := e.arrays[name]
	if index < 0 || index >= len(a) {
		return 0
	}
	return a[index]
}

// ArrayWrite implements ast.Context. Writes to the reserved MIDI arrays
// and to negative indexes are dropped; writes past the end grow the
// array, zero-filling the gap.
func (e *Engine) ArrayWrite(name string, index int, value float64) {
	switch name {
	case "midi_cc", "midi_note", "midi_note_idx":
		return
	}
	if index < 0 {
		return
	}
	a := e.arrays[name]
	if index >= len(a) {
		if index >= cap(a) {
			grown := make([]float64, index+1, max(index+1, 2*cap(a)))
			copy(grown, a)
			a = grown
		} else {
			a = a[:index+1]
		}
	}
	a[index] = value
	e.arrays[name] = a
}

// Uptime implements ast.Context.
func (e *Engine) Uptime() float64 {
	return time.Since(e.start).Seconds()
}

// Rand implements ast.Context: an integer-valued float uniform in
// [0, max), or 0 when max is NaN or below 1. Bounds beyond the int64
// range are clamped rather than overflowing the conversion.
func (e *Engine) Rand(max float64) float64 {
	if math.IsNaN(max) || max < 1 {
		return 0
	}
	n := int64(math.MaxInt64)
	if max < math.MaxInt64 {
		n = int64(max)
	}
	return float64(e.rnd.Int63n(n))
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
