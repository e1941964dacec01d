// Package engine drives the renderer. It owns the effect chain, the two
// frame buffers, the audio analyzer and the MIDI ring, and advances the
// whole pipeline one frame at a time.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/veskel/phosphene/pkg/audio"
	"github.com/veskel/phosphene/pkg/effects"
	"github.com/veskel/phosphene/pkg/midi"
	"github.com/veskel/phosphene/pkg/parallel"
	"github.com/veskel/phosphene/pkg/params"
	"github.com/veskel/phosphene/pkg/preset"
	"github.com/veskel/phosphene/pkg/render"
)

// Config carries construction options for an Engine. Zero values pick
// the defaults noted on each field.
type Config struct {
	Width      int // frame width, default 640
	Height     int // frame height, default 480
	SampleRate int // PCM rate fed to the analyzer, default SampleRate
	Logger     *slog.Logger
	Pool       *parallel.Pool
}

// Engine is one render pipeline. It is not safe for concurrent use: Step
// must be called from a single goroutine (the render loop). The MIDI ring
// and the analyzer's PCM input are the only two inputs other goroutines
// may feed.
type Engine struct {
	log  *slog.Logger
	pool *parallel.Pool

	chain    *effects.Chain
	sections []preset.Section
	faults   []string

	buf, alt *render.Buffer
	analyzer *audio.Analyzer
	ring     *midi.Ring
	state    *midi.State

	frames uint64
	beat   bool
}

// New creates an Engine with black frame buffers and an empty chain.
func New(cfg Config) *Engine {
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = SampleRate
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	pool := cfg.Pool
	if pool == nil {
		pool = parallel.Default()
	}

	return &Engine{
		log:      log,
		pool:     pool,
		chain:    &effects.Chain{},
		buf:      render.NewBuffer(cfg.Width, cfg.Height),
		alt:      render.NewBuffer(cfg.Width, cfg.Height),
		analyzer: audio.NewAnalyzer(cfg.SampleRate),
		ring:     midi.NewRing(1024),
		state:    &midi.State{},
	}
}

// LoadPreset replaces the effect chain with the one described by f. The
// sections' parameter stores stay live: changing a value later rebuilds
// that effect on its next render.
func (e *Engine) LoadPreset(f *preset.File) error {
	chain := &effects.Chain{}
	for _, sec := range f.Sections {
		eff, err := effects.New(sec.Name, sec.Params)
		if err != nil {
			return fmt.Errorf("failed to build effect chain: %w", err)
		}
		chain.Effects = append(chain.Effects, eff)
	}

	e.chain = chain
	e.sections = f.Sections
	e.faults = make([]string, len(chain.Effects))
	e.log.Info("effect chain loaded", "effects", len(chain.Effects))
	return nil
}

// EffectParams returns the parameter store of the first chain section
// with the given name, or nil. Writes to the store take effect on the
// next frame.
func (e *Engine) EffectParams(name string) *params.Store {
	for i := range e.sections {
		if e.sections[i].Name == name {
			return e.sections[i].Params
		}
	}
	return nil
}

// Ring returns the MIDI event ring. Exactly one producer may push to it.
func (e *Engine) Ring() *midi.Ring { return e.ring }

// Analyzer returns the PCM analyzer feeding the chain's audio frames.
func (e *Engine) Analyzer() *audio.Analyzer { return e.analyzer }

// MIDI returns the per-frame MIDI snapshot. Valid between Steps; the
// next Step mutates it.
func (e *Engine) MIDI() *midi.State { return e.state }

// Buffer returns the buffer holding the most recently rendered frame.
func (e *Engine) Buffer() *render.Buffer { return e.buf }

// Size returns the current frame dimensions.
func (e *Engine) Size() (w, h int) { return e.buf.W, e.buf.H }

// Frames returns how many frames have been rendered.
func (e *Engine) Frames() uint64 { return e.frames }

// Beat reports whether the last rendered frame carried a beat.
func (e *Engine) Beat() bool { return e.beat }

// Resize reallocates the frame buffers. The old image is dropped;
// effects notice the new resolution and rebuild their tables.
func (e *Engine) Resize(w, h int) {
	if w < 1 || h < 1 || (w == e.buf.W && h == e.buf.H) {
		return
	}
	e.buf = render.NewBuffer(w, h)
	e.alt = render.NewBuffer(w, h)
	e.log.Info("resized", "w", w, "h", h)
}

// Step renders one frame: drains queued MIDI events into the snapshot,
// pulls an analyzed audio frame, and runs the chain. The returned buffer
// is owned by the engine and valid until the next Step.
func (e *Engine) Step() *render.Buffer {
	e.state.Drain(e.ring)
	frame := e.analyzer.Snapshot()
	e.beat = frame.Beat

	ctx := &effects.Context{
		Frame: &frame,
		MIDI:  e.state,
		Buf:   e.buf,
		Alt:   e.alt,
		Pool:  e.pool,
	}
	out := e.chain.Render(ctx)
	e.buf, e.alt = ctx.Buf, ctx.Alt
	e.frames++

	e.logFaults()
	return out
}

// logFaults reports effect script errors once per distinct message, so a
// bad script shows up in the log without flooding it every frame.
func (e *Engine) logFaults() {
	for i, eff := range e.chain.Effects {
		f, ok := eff.(interface{ Error() string })
		if !ok {
			continue
		}
		msg := f.Error()
		if msg == "" || msg == e.faults[i] {
			continue
		}
		e.faults[i] = msg
		e.log.Warn("effect script error", "effect", e.sections[i].Name, "err", msg)
	}
}
