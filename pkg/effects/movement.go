package effects

import (
	"math"
	"math/rand"

	"github.com/veskel/phosphene/pkg/parallel"
	"github.com/veskel/phosphene/pkg/params"
	"github.com/veskel/phosphene/pkg/render"
	"github.com/veskel/phosphene/pkg/script"
)

// maxPackedPixels bounds the subpixel lookup-table format: the base
// index gets 22 bits, the two 5-bit fractions fill the rest of a uint32.
// Larger frames fall back to plain index entries.
const maxPackedPixels = 1 << 22

// Movement remaps every pixel of the frame through a cached lookup
// table. The table comes from a built-in preset or a custom expression
// evaluated once per pixel, and is rebuilt only when the parameters or
// the resolution change; per frame the effect is nothing but table
// lookups and blends.
//
// Parameters: "preset" (index into the built-in table), "expr" (custom
// expression, overrides the preset when non-empty), "rect" (custom
// expression reads back x,y instead of d,r), "wrap" (modulo source
// addressing), "subpixel" (bilinear table entries when the resolution
// permits), "source_map" (forward scatter instead of inverse pull) and
// "blend" (50/50 mix with the pre-transform frame).
type Movement struct {
	ps  *params.Store
	eng *script.Engine
	rng *rand.Rand

	lastRev uint64
	built   bool
	w, h    int
	lut     []uint32
	subpix  bool
	noop    bool
	errText string
}

// NewMovement creates the effect around its parameter store. The jitter
// source is fixed-seeded so a given preset builds the same table on
// every run.
func NewMovement(ps *params.Store) *Movement {
	return &Movement{ps: ps, eng: script.New(), rng: rand.New(rand.NewSource(0x5eed))}
}

// Error returns the compile error of the active expression, if any.
func (m *Movement) Error() string {
	return m.errText
}

func (m *Movement) Render(ctx *Context) int {
	w, h := ctx.Buf.W, ctx.Buf.H
	if rev := m.ps.Revision(); !m.built || w != m.w || h != m.h || rev != m.lastRev {
		m.rebuild(w, h)
		m.lastRev = rev
		m.built = true
	}
	blend := m.ps.Bool("blend", false)
	if m.noop && !blend {
		return 0
	}
	p := ctx.Pool
	if p == nil {
		p = parallel.Default()
	}
	in, out := ctx.Buf.Pix, ctx.Alt.Pix
	switch {
	case m.ps.Bool("source_map", false):
		m.applyForward(in, out, blend)
	case m.subpix:
		m.applyPacked(in, out, blend, p)
	default:
		m.applyPlain(in, out, blend, p)
	}
	return 1
}

func (m *Movement) rebuild(w, h int) {
	m.w, m.h = w, h
	size := w * h
	m.subpix = m.ps.Bool("subpixel", true) && size < maxPackedPixels && w > 1 && h > 1
	if len(m.lut) != size {
		m.lut = make([]uint32, size)
	}
	idx := m.ps.Int("preset", 0)
	if idx < 0 || idx >= len(presets) {
		idx = 0
	}
	pre := presets[idx]
	expr := m.ps.String("expr", "")
	m.noop = idx == 0 && expr == ""
	m.errText = ""
	wrap := m.ps.Bool("wrap", false)
	switch {
	case expr != "":
		m.buildScript(expr, m.ps.Bool("rect", false), wrap)
	case pre.remap != nil:
		// Index remaps carry no fractional information.
		m.subpix = false
		pre.remap(m)
	case pre.native != nil:
		m.buildNative(pre.native, wrap)
	default:
		m.buildScript(pre.expr, pre.rect, wrap)
	}
}

// buildScript fills the table by running a compiled expression at every
// pixel. The script sees both coordinate conventions at once: x and y
// normalized to [-1,1], d as the distance from center normalized to
// [0,1] and r as the angle rotated 90 degrees from atan2. The rect flag
// picks which pair is read back. Non-finite outputs fall back to the
// pixel's own coordinates.
func (m *Movement) buildScript(src string, rect, wrap bool) {
	c := m.eng.Compile(src)
	m.errText = c.ErrorText()
	xv := m.eng.VarRef("x")
	yv := m.eng.VarRef("y")
	dv := m.eng.VarRef("d")
	rv := m.eng.VarRef("r")
	*m.eng.VarRef("w") = float64(m.w)
	*m.eng.VarRef("h") = float64(m.h)
	cx := float64(m.w) / 2
	cy := float64(m.h) / 2
	maxd := math.Hypot(cx, cy)
	halfW := float64(m.w-1) / 2
	halfH := float64(m.h-1) / 2
	i := 0
	for y := 0; y < m.h; y++ {
		pdy := float64(y) - cy
		ny := 0.0
		if halfH > 0 {
			ny = (float64(y) - halfH) / halfH
		}
		for x := 0; x < m.w; x++ {
			pdx := float64(x) - cx
			nx := 0.0
			if halfW > 0 {
				nx = (float64(x) - halfW) / halfW
			}
			d0 := math.Hypot(pdx, pdy) / maxd
			r0 := math.Atan2(pdy, pdx) + math.Pi/2
			*xv, *yv, *dv, *rv = nx, ny, d0, r0
			m.eng.Execute(c)
			var sx, sy float64
			if rect {
				ox, oy := *xv, *yv
				if !finite(ox) {
					ox = nx
				}
				if !finite(oy) {
					oy = ny
				}
				sx = ox*halfW + halfW
				sy = oy*halfH + halfH
			} else {
				od, orr := *dv, *rv
				if !finite(od) {
					od = d0
				}
				if !finite(orr) {
					orr = r0
				}
				dist := od * maxd
				sx = cx + dist*math.Sin(orr)
				sy = cy - dist*math.Cos(orr)
			}
			m.lut[i] = m.pack(sx, sy, wrap)
			i++
		}
	}
}

// buildNative fills the table from a closed-form polar formula, skipping
// the script machinery for the presets where numerical fidelity and
// build speed matter most.
func (m *Movement) buildNative(fn nativeFn, wrap bool) {
	cx := float64(m.w) / 2
	cy := float64(m.h) / 2
	maxd := math.Hypot(cx, cy)
	i := 0
	for y := 0; y < m.h; y++ {
		pdy := float64(y) - cy
		for x := 0; x < m.w; x++ {
			pdx := float64(x) - cx
			d0 := math.Hypot(pdx, pdy) / maxd
			r0 := math.Atan2(pdy, pdx) + math.Pi/2
			d1, r1 := fn(d0, r0, maxd)
			dist := d1 * maxd
			m.lut[i] = m.pack(cx+dist*math.Sin(r1), cy-dist*math.Cos(r1), wrap)
			i++
		}
	}
}

// pack converts a source coordinate to one table entry. Without
// subpixel the entry is the nearest pixel's index. With subpixel the
// entry packs base<<10 | yfrac<<5 | xfrac, where the base is clamped so
// the four corner reads always land inside the buffer; the last column
// and row are reached with a full fraction on the previous base instead
// of their own index.
func (m *Movement) pack(sx, sy float64, wrap bool) uint32 {
	// Bound the coordinates before the float-to-int conversions; a script
	// can hand back anything.
	sx = math.Min(math.Max(sx, -1e9), 1e9)
	sy = math.Min(math.Max(sy, -1e9), 1e9)
	if !m.subpix {
		xi := int(math.Floor(sx + 0.5))
		yi := int(math.Floor(sy + 0.5))
		if wrap {
			xi = imod(xi, m.w)
			yi = imod(yi, m.h)
		} else {
			xi = clampi(xi, 0, m.w-1)
			yi = clampi(yi, 0, m.h-1)
		}
		return uint32(yi*m.w + xi)
	}
	fx := math.Floor(sx)
	fy := math.Floor(sy)
	xi := int(fx)
	yi := int(fy)
	xf := uint32(int((sx-fx)*32) & 31)
	yf := uint32(int((sy-fy)*32) & 31)
	if wrap {
		xi = imod(xi, m.w)
		yi = imod(yi, m.h)
	} else {
		xi = clampi(xi, 0, m.w-1)
		yi = clampi(yi, 0, m.h-1)
	}
	if xi >= m.w-1 {
		xi = m.w - 2
		xf = 31
	}
	if yi >= m.h-1 {
		yi = m.h - 2
		yf = 31
	}
	return uint32(yi*m.w+xi)<<10 | yf<<5 | xf
}

func (m *Movement) applyPlain(in, out []uint32, blend bool, p *parallel.Pool) {
	w := m.w
	p.ForRows(m.h, func(y0, y1 int) {
		for i := y0 * w; i < y1*w; i++ {
			c := in[m.lut[i]]
			if blend {
				c = render.Blend5050(c, in[i])
			}
			out[i] = c
		}
	})
}

func (m *Movement) applyPacked(in, out []uint32, blend bool, p *parallel.Pool) {
	w := m.w
	uw := uint32(w)
	p.ForRows(m.h, func(y0, y1 int) {
		for i := y0 * w; i < y1*w; i++ {
			e := m.lut[i]
			idx := e >> 10
			c := render.BlendBilinear(
				in[idx], in[idx+1],
				in[idx+uw], in[idx+uw+1],
				frac5to8(e&31), frac5to8(e>>5&31))
			if blend {
				c = render.Blend5050(c, in[i])
			}
			out[i] = c
		}
	})
}

// applyForward scatters each source pixel onto its table destination.
// Destinations start black because several sources can land on one
// destination and unmapped destinations receive nothing; collisions
// combine with a channel max so splat order cannot matter.
func (m *Movement) applyForward(in, out []uint32, blend bool) {
	for i := range out {
		out[i] = 0
	}
	shift := uint(0)
	if m.subpix {
		shift = 10
	}
	for i, e := range m.lut {
		j := e >> shift
		out[j] = render.BlendMax(out[j], in[i])
	}
	if blend {
		for i := range out {
			out[i] = render.Blend5050(out[i], in[i])
		}
	}
}

// frac5to8 widens a 5-bit fraction to 8 bits so that 0 stays 0 and 31
// becomes a full 255.
func frac5to8(f uint32) uint8 {
	return uint8(f<<3 | f>>2)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func imod(v, m int) int {
	v %= m
	if v < 0 {
		v += m
	}
	return v
}
