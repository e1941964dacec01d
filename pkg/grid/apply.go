package grid

import (
	"github.com/veskel/phosphene/pkg/parallel"
	"github.com/veskel/phosphene/pkg/render"
)

// Algorithm selects how Apply interpolates the sparse grid into the
// dense per-pixel remap. All three produce the same output within
// fixed-point rounding; Sequential and Parallel are bit-identical.
type Algorithm int

const (
	// Sequential is the classic row-major stepping walk. Column
	// interpolation state carries down from one row to the next, which
	// makes it the cheapest per pixel and impossible to parallelize.
	Sequential Algorithm = iota
	// Parallel recomputes each row's column points from the band start
	// with one multiply, removing the row-to-row dependency so rows can
	// split across workers. It uses the same truncated per-row delta as
	// Sequential and therefore lands on identical coordinates.
	Parallel
	// Precise interpolates all four enclosing grid points per pixel.
	Precise
)

// Options selects the apply algorithm and sampling behavior.
type Options struct {
	Algorithm Algorithm
	Subpixel  bool // bilinear source sampling instead of nearest
	Wrap      bool // modulo source addressing instead of edge clamping
}

// Apply remaps src into dst through the grid. Both buffers must match
// the grid's pixel dimensions; mismatched buffers are left untouched.
// A nil pool falls back to the shared one.
func (g *Grid) Apply(dst, src *render.Buffer, p *parallel.Pool, opt Options) {
	if dst.W != g.W || dst.H != g.H || src.W != g.W || src.H != g.H {
		return
	}
	if p == nil {
		p = parallel.Default()
	}
	switch opt.Algorithm {
	case Precise:
		g.applyPrecise(dst, src, p, opt)
	case Parallel:
		g.applyParallel(dst, src, p, opt)
	default:
		g.applySequential(dst, src, opt)
	}
}

func (g *Grid) applyPrecise(dst, src *render.Buffer, p *parallel.Pool, opt Options) {
	colCell, colFrac := axisLUT(g.px, g.W)
	rowCell, rowFrac := axisLUT(g.py, g.H)
	smp := newSampler(src, opt.Subpixel, opt.Wrap)
	cols := g.Cols
	p.ForRows(g.H, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			i := rowCell[y]
			fy := rowFrac[y]
			top := g.Pts[i*cols : (i+1)*cols]
			bot := g.Pts[(i+1)*cols : (i+2)*cols]
			row := dst.Pix[y*g.W : (y+1)*g.W]
			for x := range row {
				j := colCell[x]
				fx := colFrac[x]
				a := lerpPoint(top[j], top[j+1], fx)
				b := lerpPoint(bot[j], bot[j+1], fx)
				pt := lerpPoint(a, b, fy)
				row[x] = smp(pt.X, pt.Y)
			}
		}
	})
}

func (g *Grid) applyParallel(dst, src *render.Buffer, p *parallel.Pool, opt Options) {
	cols := g.Cols
	rowBand := make([]int, g.H)
	rowOff := make([]int32, g.H)
	for i := 0; i+1 < g.Rows; i++ {
		for y := g.py[i]; y < g.py[i+1] && y < g.H; y++ {
			rowBand[y] = i
			rowOff[y] = int32(y - g.py[i])
		}
	}
	dyTab := g.bandDeltas()
	smp := newSampler(src, opt.Subpixel, opt.Wrap)
	p.ForRows(g.H, func(y0, y1 int) {
		rowPt := make([]Point, cols)
		for y := y0; y < y1; y++ {
			i := rowBand[y]
			yoff := rowOff[y]
			base := g.Pts[i*cols : (i+1)*cols]
			dys := dyTab[i*cols : (i+1)*cols]
			for j := 0; j < cols; j++ {
				rowPt[j] = Point{base[j].X + dys[j].X*yoff, base[j].Y + dys[j].Y*yoff}
			}
			g.walkRow(dst.Pix[y*g.W:(y+1)*g.W], rowPt, smp)
		}
	})
}

func (g *Grid) applySequential(dst, src *render.Buffer, opt Options) {
	cols := g.Cols
	smp := newSampler(src, opt.Subpixel, opt.Wrap)
	colPt := make([]Point, cols)
	dy := make([]Point, cols)
	for i := 0; i+1 < g.Rows; i++ {
		y0, y1 := g.py[i], g.py[i+1]
		if y1 <= y0 {
			continue
		}
		bh := int32(y1 - y0)
		for j := 0; j < cols; j++ {
			a := g.Pts[i*cols+j]
			b := g.Pts[(i+1)*cols+j]
			colPt[j] = a
			dy[j] = Point{(b.X - a.X) / bh, (b.Y - a.Y) / bh}
		}
		for y := y0; y < y1 && y < g.H; y++ {
			g.walkRow(dst.Pix[y*g.W:(y+1)*g.W], colPt, smp)
			for j := 0; j < cols; j++ {
				colPt[j].X += dy[j].X
				colPt[j].Y += dy[j].Y
			}
		}
	}
}

// bandDeltas precomputes, for each grid band, the per-output-row vertical
// step of every column. The division truncates exactly like the
// Sequential walk's, which is what keeps the two algorithms
// pixel-identical.
func (g *Grid) bandDeltas() []Point {
	cols := g.Cols
	dyTab := make([]Point, (g.Rows-1)*cols)
	for i := 0; i+1 < g.Rows; i++ {
		bh := int32(g.py[i+1] - g.py[i])
		if bh == 0 {
			continue
		}
		for j := 0; j < cols; j++ {
			a := g.Pts[i*cols+j]
			b := g.Pts[(i+1)*cols+j]
			dyTab[i*cols+j] = Point{(b.X - a.X) / bh, (b.Y - a.Y) / bh}
		}
	}
	return dyTab
}

// walkRow fills one output row from that row's interpolated column
// points. Each horizontal segment walks with a precomputed fixed-point
// delta, one add per pixel.
func (g *Grid) walkRow(row []uint32, rowPt []Point, smp sampleFn) {
	for j := 0; j+1 < g.Cols; j++ {
		x0, x1 := g.px[j], g.px[j+1]
		if x1 <= x0 {
			continue
		}
		sw := int32(x1 - x0)
		dx := Point{(rowPt[j+1].X - rowPt[j].X) / sw, (rowPt[j+1].Y - rowPt[j].Y) / sw}
		cur := rowPt[j]
		for x := x0; x < x1 && x < g.W; x++ {
			row[x] = smp(cur.X, cur.Y)
			cur.X += dx.X
			cur.Y += dx.Y
		}
	}
}

// axisLUT expands one axis of control-point positions into per-pixel
// cell indices and 16.16 fractions within the cell.
func axisLUT(pos []int, size int) ([]int, []int32) {
	cell := make([]int, size)
	frac := make([]int32, size)
	for j := 0; j+1 < len(pos); j++ {
		x0, x1 := pos[j], pos[j+1]
		if x1 <= x0 {
			continue
		}
		for x := x0; x < x1 && x < size; x++ {
			cell[x] = j
			frac[x] = int32(((x - x0) << 16) / (x1 - x0))
		}
	}
	return cell, frac
}

type sampleFn func(sx, sy int32) uint32

func newSampler(src *render.Buffer, subpixel, wrap bool) sampleFn {
	switch {
	case subpixel && wrap:
		return func(sx, sy int32) uint32 { return sampleBilinearWrap(src, sx, sy) }
	case subpixel:
		return func(sx, sy int32) uint32 { return sampleBilinearClamp(src, sx, sy) }
	case wrap:
		return func(sx, sy int32) uint32 { return sampleNearestWrap(src, sx, sy) }
	default:
		return func(sx, sy int32) uint32 { return sampleNearestClamp(src, sx, sy) }
	}
}

// SamplePixel reads one source pixel at a 16.16 coordinate pair, using
// either nearest-neighbor rounding or 4-corner bilinear blending, with
// either edge clamping or modulo wrap-around addressing.
func SamplePixel(src *render.Buffer, sx, sy int32, subpixel, wrap bool) uint32 {
	switch {
	case subpixel && wrap:
		return sampleBilinearWrap(src, sx, sy)
	case subpixel:
		return sampleBilinearClamp(src, sx, sy)
	case wrap:
		return sampleNearestWrap(src, sx, sy)
	default:
		return sampleNearestClamp(src, sx, sy)
	}
}

func sampleNearestClamp(src *render.Buffer, sx, sy int32) uint32 {
	x := clampi((int(sx)+0x8000)>>16, 0, src.W-1)
	y := clampi((int(sy)+0x8000)>>16, 0, src.H-1)
	return src.Pix[y*src.W+x]
}

func sampleNearestWrap(src *render.Buffer, sx, sy int32) uint32 {
	x := imod((int(sx)+0x8000)>>16, src.W)
	y := imod((int(sy)+0x8000)>>16, src.H)
	return src.Pix[y*src.W+x]
}

func sampleBilinearClamp(src *render.Buffer, sx, sy int32) uint32 {
	x0 := int(sx) >> 16
	y0 := int(sy) >> 16
	xf := uint8(sx >> 8)
	yf := uint8(sy >> 8)
	x1 := clampi(x0+1, 0, src.W-1)
	y1 := clampi(y0+1, 0, src.H-1)
	x0 = clampi(x0, 0, src.W-1)
	y0 = clampi(y0, 0, src.H-1)
	w := src.W
	return render.BlendBilinear(
		src.Pix[y0*w+x0], src.Pix[y0*w+x1],
		src.Pix[y1*w+x0], src.Pix[y1*w+x1],
		xf, yf)
}

func sampleBilinearWrap(src *render.Buffer, sx, sy int32) uint32 {
	x0 := imod(int(sx)>>16, src.W)
	y0 := imod(int(sy)>>16, src.H)
	xf := uint8(sx >> 8)
	yf := uint8(sy >> 8)
	x1 := x0 + 1
	if x1 == src.W {
		x1 = 0
	}
	y1 := y0 + 1
	if y1 == src.H {
		y1 = 0
	}
	w := src.W
	return render.BlendBilinear(
		src.Pix[y0*w+x0], src.Pix[y0*w+x1],
		src.Pix[y1*w+x0], src.Pix[y1*w+x1],
		xf, yf)
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
