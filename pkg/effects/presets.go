package effects

import "math"

// nativeFn is a closed-form polar transform. d is the distance from
// center normalized to [0,1], r the angle rotated 90 degrees from atan2,
// maxd the half-diagonal in pixels for formulas that move by absolute
// pixel amounts.
type nativeFn func(d, r, maxd float64) (float64, float64)

// presetEntry describes one built-in movement transform. Exactly one of
// remap, native and expr is set: remaps rewrite pixel indices directly
// with no coordinate math, natives are closed-form polar formulas, and
// the rest are expression scripts compiled like user input.
type presetEntry struct {
	name   string
	rect   bool
	remap  func(m *Movement)
	native nativeFn
	expr   string
}

var presets = []presetEntry{
	{name: "none", remap: remapNone},
	{name: "slight fuzzify", remap: remapFuzzify},
	{name: "shift rotate left", remap: remapShiftRotateLeft},
	{name: "big swirl out", native: nativeBigSwirl},
	{name: "medium swirl", native: nativeMediumSwirl},
	{name: "sunburster", expr: "d=d*(0.94+cos((r-$pi*0.5)*32)*0.06)"},
	{name: "swirl to center", native: nativeSwirlToCenter},
	{name: "blocky partial out", remap: remapBlockyPartialOut},
	{name: "swirling around both ways at once", expr: "r=r+0.1*sin(d*$pi*5)"},
	{name: "bubbling outward", native: nativeBubble},
	{name: "bubbling outward with swirl", native: nativeBubbleSwirl},
	{name: "5 pointed distro", expr: "d=d*(0.95+cos((r-$pi*0.5)*5-$pi/2.5)*0.03)"},
	{name: "tunneling", native: nativeTunnel},
	{name: "bleedin'", expr: "t=cos(d*$pi); r=r+0.07*t; d=d*(0.98+t*0.1)"},
	{name: "shifted big swirl out", rect: true,
		expr: "d=sqrt(x*x+y*y); r=atan2(y,x); r=r+0.1-0.2*d; d=d*0.96; x=cos(r)*d+0.0625; y=sin(r)*d"},
	{name: "psychotic beaming outward", expr: "d=0.15"},
	{name: "cosine radial 3-way", expr: "r=cos(r*3)"},
	{name: "spinny tube", expr: "d=d*(1-(d-0.35)*0.5); r=r+0.1"},
	{name: "radial swirlies", expr: "d=d*(1-sin((r-$pi*0.5)*7)*0.03); r=r+cos(d*12)*0.03"},
	{name: "swill",
		expr: "d=d*(1-sin((r-$pi*0.5)*12)*0.05); r=r+cos(d*18)*0.05; d=d*(1+cos(d*4)*0.03); r=r+sin(d*12)*0.03"},
	{name: "gridley", rect: true, expr: "x=x+cos(y*18)*0.02; y=y+sin(x*14)*0.03"},
	{name: "grapevine", rect: true, expr: "x=x+cos(abs(y)*18)*0.02; y=y+sin(abs(x)*14)*0.03"},
	{name: "quadrant", rect: true, expr: "y=y*(1+sin(abs(x)*$pi)*0.031); x=x*(1+cos(abs(y)*$pi)*0.031)"},
	{name: "6-way kaleida (use wrap)", rect: true, expr: "y=r*6/$pi; x=d"},
}

// PresetNames lists the built-in movement presets in table order, for
// UIs and preset files that select by name.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.name
	}
	return names
}

// PresetIndex resolves a preset name to its table index, or -1.
func PresetIndex(name string) int {
	for i, p := range presets {
		if p.name == name {
			return i
		}
	}
	return -1
}

func remapNone(m *Movement) {
	for i := range m.lut {
		m.lut[i] = uint32(i)
	}
}

// remapFuzzify displaces every pixel by up to one position in each axis.
func remapFuzzify(m *Movement) {
	w, h := m.w, m.h
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			xj := clampi(x+m.rng.Intn(3)-1, 0, w-1)
			yj := clampi(y+m.rng.Intn(3)-1, 0, h-1)
			m.lut[i] = uint32(yj*w + xj)
			i++
		}
	}
}

// remapShiftRotateLeft rotates each row left by 1/64 of the width.
func remapShiftRotateLeft(m *Movement) {
	w := m.w
	shift := w / 64
	if shift < 1 {
		shift = 1
	}
	i := 0
	for y := 0; y < m.h; y++ {
		for x := 0; x < w; x++ {
			m.lut[i] = uint32(y*w + (x+shift)%w)
			i++
		}
	}
}

// remapBlockyPartialOut pulls every other 2x2 block 1/8 of the way out
// from the center and leaves the rest alone.
func remapBlockyPartialOut(m *Movement) {
	w, h := m.w, m.h
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x&2 != 0 || y&2 != 0 {
				m.lut[i] = uint32(i)
			} else {
				xp := clampi(w/2+((x&^1)-w/2)*7/8, 0, w-1)
				yp := clampi(h/2+((y&^1)-h/2)*7/8, 0, h-1)
				m.lut[i] = uint32(yp*w + xp)
			}
			i++
		}
	}
}

func nativeBigSwirl(d, r, _ float64) (float64, float64) {
	return d * 0.96, r + 0.1 - 0.2*d
}

func nativeMediumSwirl(d, r, _ float64) (float64, float64) {
	d *= 0.99 * (1 - math.Sin(r-math.Pi/2)/32)
	return d, r + 0.03*math.Sin(d*math.Pi*4)
}

func nativeSwirlToCenter(d, r, _ float64) (float64, float64) {
	d *= 1.01 + math.Cos((r-math.Pi/2)*4)*0.04
	return d, r + 0.03*math.Sin(d*math.Pi*4)
}

// nativeBubble moves pixels by up to 8 absolute pixels along the radius,
// which is why it needs maxd: the offset is constant in pixels, not in
// normalized distance.
func nativeBubble(d, r, maxd float64) (float64, float64) {
	t := math.Sin(d * math.Pi)
	return d - 8*t*t*t*t*t/maxd, r
}

func nativeBubbleSwirl(d, r, maxd float64) (float64, float64) {
	d, r = nativeBubble(d, r, maxd)
	t := math.Cos(d * math.Pi / 2)
	return d, r + 0.1*t*t*t*t*t
}

func nativeTunnel(d, r, _ float64) (float64, float64) {
	return d * (0.96 + math.Cos(d*math.Pi)*0.05), r + 0.04
}
