//go:build ebiten

package app

import (
	"time"

	"sandfall/internal/render"
	"sandfall/internal/sims/sand"
	"sandfall/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var digitKeys = []ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6,
	ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

// Game adapts a sand Session to the ebiten.Game interface.
type Game struct {
	session *Session
	painter *render.GridPainter
	overlay *ui.Overlay
	hud     *ui.HUD

	scale int
}

// New constructs a Game for session drawn at scale with a HUD panel of
// hudWidth pixels (0 hides it).
func New(session *Session, scale, hudWidth int) *Game {
	if scale <= 0 {
		scale = 1
	}
	world := session.World()
	size := world.Size()
	return &Game{
		session: session,
		painter: render.NewGridPainter(size.W, size.H),
		overlay: ui.NewOverlay(world.Registry(), scale),
		hud:     ui.NewHUD(world, hudWidth),
		scale:   scale,
	}
}

// Update handles input and advances the simulation.
func (g *Game) Update() error {
	s := g.session
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		s.TogglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		s.RequestStep()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		s.Reset(s.Seed())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		s.Reset(time.Now().UnixNano())
	}
	elements := g.overlay.Elements()
	for i, key := range digitKeys {
		if i < len(elements) && inpututil.IsKeyJustPressed(key) {
			s.Select(elements[i].ID)
		}
	}
	if _, wy := ebiten.Wheel(); wy > 0 {
		s.AdjustBrush(1)
	} else if wy < 0 {
		s.AdjustBrush(-1)
	}

	g.handleMouse(elements)
	g.hud.Update(g.worldWidth(), s.Status())
	s.Advance()
	return nil
}

func (g *Game) handleMouse(elements []sand.Element) {
	mx, my := ebiten.CursorPosition()
	if n, ok := ui.SwatchAt(mx, my, len(elements)); ok {
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			g.session.Select(elements[n].ID)
		}
		return
	}
	cx, cy, ok := g.cursorCell()
	if !ok {
		return
	}
	switch {
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		g.session.Paint(cx, cy)
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight):
		g.session.Erase(cx, cy)
	}
}

// cursorCell maps the mouse position to a world cell.
func (g *Game) cursorCell() (int, int, bool) {
	mx, my := ebiten.CursorPosition()
	if mx < 0 || my < 0 || mx >= g.worldWidth() {
		return 0, 0, false
	}
	size := g.session.World().Size()
	cx, cy := mx/g.scale, my/g.scale
	if cy >= size.H {
		return 0, 0, false
	}
	return cx, cy, true
}

func (g *Game) worldWidth() int { return g.session.World().Size().W * g.scale }

// Draw renders the world, overlay and HUD.
func (g *Game) Draw(screen *ebiten.Image) {
	world := g.session.World()
	g.painter.Blit(screen, world.Cells(), world.Palette(), g.scale)
	cx, cy, inWorld := g.cursorCell()
	g.overlay.Draw(screen, g.session.Selected(), cx, cy, world.BrushSize(), inWorld)
	g.hud.Draw(screen, g.worldWidth(), g.scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.session.World().Size()
	return s.W*g.scale + g.hud.Width(), s.H * g.scale
}
