package effects

import (
	"github.com/veskel/phosphene/pkg/grid"
	"github.com/veskel/phosphene/pkg/parallel"
	"github.com/veskel/phosphene/pkg/params"
	"github.com/veskel/phosphene/pkg/render"
	"github.com/veskel/phosphene/pkg/script"
)

// Warp is the scripted coordinate-grid transform. Four scripts share one
// engine: "init" runs once, "frame" every frame, "beat" on beat frames,
// and "point" at every grid control point to compute where that region
// of the frame pulls its pixels from.
//
// Parameters: the four script sources, "grid_w"/"grid_h" (cells per
// axis), "rect" (point script works on x,y instead of d,r), "wrap",
// "subpixel", "precise" (per-pixel interpolation instead of stepping)
// and "blend" (50/50 mix with the pre-transform frame).
type Warp struct {
	ps  *params.Store
	eng *script.Engine

	lastRev                  uint64
	built                    bool
	init, frame, beat, point *script.Compiled
	g                        *grid.Grid
	ran                      bool
}

// NewWarp creates the effect around its parameter store.
func NewWarp(ps *params.Store) *Warp {
	return &Warp{ps: ps, eng: script.New()}
}

// Error returns the first compile error among the four scripts, if any.
func (wp *Warp) Error() string {
	for _, c := range []*script.Compiled{wp.init, wp.frame, wp.beat, wp.point} {
		if c != nil && c.ErrorText() != "" {
			return c.ErrorText()
		}
	}
	return ""
}

func (wp *Warp) Render(ctx *Context) int {
	w, h := ctx.Buf.W, ctx.Buf.H
	if rev := wp.ps.Revision(); !wp.built || wp.g == nil || wp.g.W != w || wp.g.H != h || rev != wp.lastRev {
		wp.rebuild(w, h)
		wp.lastRev = rev
		wp.built = true
	}
	if ctx.Frame != nil {
		wp.eng.SetAudioContext(ctx.Frame)
	}
	if ctx.MIDI != nil {
		wp.eng.SetMIDIState(ctx.MIDI)
	}
	if !wp.ran {
		wp.eng.Execute(wp.init)
		wp.ran = true
	}
	wp.eng.Execute(wp.frame)
	if ctx.Frame != nil && ctx.Frame.Beat {
		wp.eng.Execute(wp.beat)
	}

	mode := grid.Polar
	if wp.ps.Bool("rect", false) {
		mode = grid.Rect
	}
	wp.g.Generate(wp.eng, wp.point, mode)

	p := ctx.Pool
	if p == nil {
		p = parallel.Default()
	}
	alg := grid.Sequential
	switch {
	case wp.ps.Bool("precise", false):
		alg = grid.Precise
	case p.Workers() > 1:
		alg = grid.Parallel
	}
	wp.g.Apply(ctx.Alt, ctx.Buf, p, grid.Options{
		Algorithm: alg,
		Subpixel:  wp.ps.Bool("subpixel", true),
		Wrap:      wp.ps.Bool("wrap", false),
	})
	if wp.ps.Bool("blend", false) {
		in, out := ctx.Buf.Pix, ctx.Alt.Pix
		p.ForRows(h, func(y0, y1 int) {
			for i := y0 * w; i < y1*w; i++ {
				out[i] = render.Blend5050(out[i], in[i])
			}
		})
	}
	return 1
}

func (wp *Warp) rebuild(w, h int) {
	wp.init = wp.eng.Compile(wp.ps.String("init", ""))
	wp.frame = wp.eng.Compile(wp.ps.String("frame", ""))
	wp.beat = wp.eng.Compile(wp.ps.String("beat", ""))
	wp.point = wp.eng.Compile(wp.ps.String("point", ""))
	gw := wp.ps.Int("grid_w", 16)
	gh := wp.ps.Int("grid_h", 16)
	if gw < 1 {
		gw = 1
	}
	if gh < 1 {
		gh = 1
	}
	wp.g = grid.New(gw+1, gh+1, w, h)
	wp.ran = false
}
