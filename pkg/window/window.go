// Package window presents the renderer in an ebiten window.
package window

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/veskel/phosphene/pkg/effects"
	"github.com/veskel/phosphene/pkg/engine"
	"github.com/veskel/phosphene/pkg/render"
)

var (
	hudColor    = color.White
	defaultFace = text.NewGoXFace(basicfont.Face7x13)
	presetNames = effects.PresetNames()
)

// Game implements ebiten.Game. Update advances the engine one frame;
// Draw uploads the rendered frame and a HUD line. ESC quits, SPACE
// cycles the movement preset, TAB toggles the HUD.
type Game struct {
	engine *engine.Engine
	hud    bool
	pix    []byte
}

// NewGame wraps an engine for the ebiten game loop.
func NewGame(e *engine.Engine) *Game {
	return &Game{engine: e, hud: true}
}

// Update handles input and renders the next frame.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.CycleMovementPreset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.hud = !g.hud
	}
	g.engine.Step()
	return nil
}

// CycleMovementPreset advances the first movement section to its next
// built-in preset. It is a no-op without a movement effect in the chain.
func (g *Game) CycleMovementPreset() {
	ps := g.engine.EffectParams("movement")
	if ps == nil {
		return
	}
	cur := ps.Int("preset", 0)
	if cur < 0 || cur >= len(presetNames) {
		cur = 0
	}
	ps.SetInt("preset", (cur+1)%len(presetNames))
}

// MovementPresetName names what the movement effect is running: the
// built-in preset, or "custom" when an expression override is set.
func (g *Game) MovementPresetName() string {
	ps := g.engine.EffectParams("movement")
	if ps == nil {
		return ""
	}
	if ps.String("expr", "") != "" {
		return "custom"
	}
	idx := ps.Int("preset", 0)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(presetNames) {
		idx = len(presetNames) - 1
	}
	return presetNames[idx]
}

// Draw uploads the current frame and the HUD.
func (g *Game) Draw(screen *ebiten.Image) {
	g.pix = frameBytes(g.engine.Buffer(), g.pix)
	screen.WritePixels(g.pix)

	if g.hud {
		line := hudLine(ebiten.ActualFPS(), g.engine.Beat(), g.MovementPresetName())
		op := &text.DrawOptions{}
		op.GeoM.Translate(4, 4)
		op.ColorScale.ScaleWithColor(hudColor)
		text.Draw(screen, line, defaultFace, op)
	}
}

// Layout reports the engine's frame size; ebiten scales it to the window
// with the aspect ratio preserved.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.engine.Size()
}

// frameBytes converts packed ARGB pixels to the RGBA byte layout
// WritePixels wants, reusing scratch when it is large enough.
func frameBytes(buf *render.Buffer, scratch []byte) []byte {
	n := buf.W * buf.H * 4
	if cap(scratch) < n {
		scratch = make([]byte, n)
	}
	pix := scratch[:n]
	for i, c := range buf.Pix {
		pix[i*4+0] = uint8(c >> 16)
		pix[i*4+1] = uint8(c >> 8)
		pix[i*4+2] = uint8(c)
		pix[i*4+3] = 0xFF
	}
	return pix
}

func hudLine(fps float64, beat bool, preset string) string {
	mark := " "
	if beat {
		mark = "*"
	}
	if preset == "" {
		return fmt.Sprintf("%5.1f fps %s", fps, mark)
	}
	return fmt.Sprintf("%5.1f fps %s %s", fps, mark, preset)
}

// Run opens the window and drives the game loop until ESC or the window
// is closed.
func Run(e *engine.Engine, title string) error {
	w, h := e.Size()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(NewGame(e)); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	return nil
}
