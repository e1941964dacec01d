package effects

import (
	"github.com/veskel/phosphene/pkg/params"
	"github.com/veskel/phosphene/pkg/script"
)

// ColorMod rewrites every pixel's color through expression scripts. The
// point script runs once per pixel with r, g, b holding the channels
// normalized to [0,1] and x, y the pixel position normalized to [0,1];
// whatever it leaves in r, g, b becomes the new color. This is the
// hottest script path in the renderer, which is why it leans entirely on
// the pointer-bound execution mode.
//
// Parameters: "init", "frame", "beat" and "point" script sources.
type ColorMod struct {
	ps  *params.Store
	eng *script.Engine

	lastRev                  uint64
	built                    bool
	init, frame, beat, point *script.Compiled
	ran                      bool
	rv, gv, bv               *float64
}

// NewColorMod creates the effect around its parameter store.
func NewColorMod(ps *params.Store) *ColorMod {
	eng := script.New()
	return &ColorMod{
		ps:  ps,
		eng: eng,
		rv:  eng.VarRef("r"),
		gv:  eng.VarRef("g"),
		bv:  eng.VarRef("b"),
	}
}

// Error returns the first compile error among the four scripts, if any.
func (cm *ColorMod) Error() string {
	for _, c := range []*script.Compiled{cm.init, cm.frame, cm.beat, cm.point} {
		if c != nil && c.ErrorText() != "" {
			return c.ErrorText()
		}
	}
	return ""
}

func (cm *ColorMod) Render(ctx *Context) int {
	if rev := cm.ps.Revision(); !cm.built || rev != cm.lastRev {
		cm.init = cm.eng.Compile(cm.ps.String("init", ""))
		cm.frame = cm.eng.Compile(cm.ps.String("frame", ""))
		cm.beat = cm.eng.Compile(cm.ps.String("beat", ""))
		cm.point = cm.eng.Compile(cm.ps.String("point", ""))
		cm.ran = false
		cm.lastRev = rev
		cm.built = true
	}
	if ctx.Frame != nil {
		cm.eng.SetAudioContext(ctx.Frame)
	}
	if ctx.MIDI != nil {
		cm.eng.SetMIDIState(ctx.MIDI)
	}
	if !cm.ran {
		cm.eng.Execute(cm.init)
		cm.ran = true
	}
	cm.eng.Execute(cm.frame)
	if ctx.Frame != nil && ctx.Frame.Beat {
		cm.eng.Execute(cm.beat)
	}
	if cm.point.IsEmpty() {
		return 0
	}
	w, h := ctx.Buf.W, ctx.Buf.H
	pix := ctx.Buf.Pix
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := pix[i]
			cm.eng.SetPixelContext(x, y, w, h)
			cm.eng.SetColorContext(
				float64(c>>16&0xFF)/255,
				float64(c>>8&0xFF)/255,
				float64(c&0xFF)/255)
			cm.eng.Execute(cm.point)
			pix[i] = c&0xFF000000 |
				channel(*cm.rv)<<16 |
				channel(*cm.gv)<<8 |
				channel(*cm.bv)
			i++
		}
	}
	return 0
}

// channel converts a normalized channel value back to a byte. NaN and
// negatives go to 0, anything above 1 saturates.
func channel(v float64) uint32 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint32(v*255 + 0.5)
}
