// Package grid builds sparse control-point coordinate grids and applies
// them as dense per-pixel image remaps.
//
// A grid covers a w×h pixel area with Cols×Rows control points. Each
// point stores the source coordinate its neighborhood pulls from, in
// 16.16 fixed point. Points come from evaluating a compiled script in
// one of two coordinate conventions, or from values supplied directly.
// Apply interpolates the sparse points into a per-pixel remap using one
// of three algorithms that agree within fixed-point rounding.
package grid

import (
	"math"

	"github.com/veskel/phosphene/pkg/script"
)

// Mode selects the coordinate convention scripts see during Generate.
type Mode int

const (
	// Rect exposes x and y, each normalized to [-1, 1].
	Rect Mode = iota
	// Polar exposes d, the distance from center normalized to [0, 1],
	// and r, the angle rotated 90 degrees from the atan2 convention so
	// that r=0 points straight up.
	Polar
)

// Point is one control point: a source coordinate in 16.16 fixed point.
type Point struct {
	X, Y int32
}

// Grid maps a W×H pixel area through Cols×Rows control points. The
// control points sit at px[j] = j*W/(Cols-1) horizontally and the
// matching positions vertically, so the outer points land exactly on the
// area's edges.
type Grid struct {
	Cols, Rows int
	W, H       int
	Pts        []Point // Rows*Cols, row-major

	px, py []int // control-point pixel positions; px[Cols-1] == W
}

// New allocates an identity grid. Fewer than two points per axis is
// raised to two.
func New(cols, rows, w, h int) *Grid {
	if cols < 2 {
		cols = 2
	}
	if rows < 2 {
		rows = 2
	}
	g := &Grid{Cols: cols, Rows: rows, W: w, H: h}
	g.px = make([]int, cols)
	for j := range g.px {
		g.px[j] = j * w / (cols - 1)
	}
	g.py = make([]int, rows)
	for i := range g.py {
		g.py[i] = i * h / (rows - 1)
	}
	g.Pts = make([]Point, rows*cols)
	g.Identity()
	return g
}

// Identity resets every control point to pull from its own position.
func (g *Grid) Identity() {
	for i := 0; i < g.Rows; i++ {
		for j := 0; j < g.Cols; j++ {
			g.Pts[i*g.Cols+j] = Point{int32(g.px[j]) << 16, int32(g.py[i]) << 16}
		}
	}
}

// SetSource overrides the control point at grid row i, column j with an
// externally computed source coordinate in pixels.
func (g *Grid) SetSource(i, j int, sx, sy float64) {
	g.Pts[i*g.Cols+j] = Point{ToFixed(sx), ToFixed(sy)}
}

// Source returns the control point at grid row i, column j in pixels.
func (g *Grid) Source(i, j int) (float64, float64) {
	p := g.Pts[i*g.Cols+j]
	return FromFixed(p.X), FromFixed(p.Y)
}

// Generate evaluates a compiled script at every control point and stores
// the transformed source coordinates. The script must have been compiled
// on eng. In Rect mode the script reads and writes x and y; in Polar
// mode d and r. Non-finite outputs are discarded in favor of the value
// the variable held before the script ran, so a broken script degrades
// to identity instead of spreading NaNs through the grid. An empty or
// failed script leaves the inputs untouched and therefore produces an
// identity grid.
func (g *Grid) Generate(eng *script.Engine, c *script.Compiled, mode Mode) {
	*eng.VarRef("w") = float64(g.W)
	*eng.VarRef("h") = float64(g.H)
	switch mode {
	case Polar:
		g.generatePolar(eng, c)
	default:
		g.generateRect(eng, c)
	}
}

func (g *Grid) generateRect(eng *script.Engine, c *script.Compiled) {
	xv := eng.VarRef("x")
	yv := eng.VarRef("y")
	w := float64(g.W)
	h := float64(g.H)
	for i := 0; i < g.Rows; i++ {
		ny := 2*float64(g.py[i])/h - 1
		for j := 0; j < g.Cols; j++ {
			nx := 2*float64(g.px[j])/w - 1
			*xv, *yv = nx, ny
			eng.Execute(c)
			ox, oy := *xv, *yv
			if !isFinite(ox) {
				ox = nx
			}
			if !isFinite(oy) {
				oy = ny
			}
			g.Pts[i*g.Cols+j] = Point{ToFixed((ox + 1) * w / 2), ToFixed((oy + 1) * h / 2)}
		}
	}
}

func (g *Grid) generatePolar(eng *script.Engine, c *script.Compiled) {
	dv := eng.VarRef("d")
	rv := eng.VarRef("r")
	cx := float64(g.W) / 2
	cy := float64(g.H) / 2
	maxd := math.Hypot(cx, cy)
	for i := 0; i < g.Rows; i++ {
		dy := float64(g.py[i]) - cy
		for j := 0; j < g.Cols; j++ {
			dx := float64(g.px[j]) - cx
			d0 := math.Hypot(dx, dy) / maxd
			r0 := math.Atan2(dy, dx) + math.Pi/2
			*dv, *rv = d0, r0
			eng.Execute(c)
			d1, r1 := *dv, *rv
			if !isFinite(d1) {
				d1 = d0
			}
			if !isFinite(r1) {
				r1 = r0
			}
			dist := d1 * maxd
			g.Pts[i*g.Cols+j] = Point{
				ToFixed(cx + dist*math.Sin(r1)),
				ToFixed(cy - dist*math.Cos(r1)),
			}
		}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
