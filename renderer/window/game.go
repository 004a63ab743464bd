package window

import (
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rotblauer/globe/app"
	"github.com/rotblauer/globe/params"
	"github.com/rotblauer/globe/rgeo"
	"image/color"
	"log/slog"
	"sync/atomic"
)

var background = color.RGBA{R: 0x0a, G: 0x0e, B: 0x1a, A: 0xff}

// Game is the ebiten.Game for the globe.
//
// Controls: drag to rotate, wheel to zoom, Q/E to roll, R to reset the roll,
// space toggles the wireframe, O toggles the overlay and Escape quits.
type Game struct {
	config  *params.WindowConfig
	engine  *app.Engine
	backend *Backend
	locator *rgeo.Locator
	logger  *slog.Logger

	quit     atomic.Bool
	overlay  bool
	dragging bool
	lastX    int
	lastY    int
	width    int
	height   int
}

// NewGame builds the game. A nil locator leaves the place name out of the overlay.
func NewGame(config *params.WindowConfig, engine *app.Engine, backend *Backend, locator *rgeo.Locator) *Game {
	if config == nil {
		config = params.DefaultWindowConfig()
	}
	return &Game{
		config:  config,
		engine:  engine,
		backend: backend,
		locator: locator,
		logger:  slog.With("component", "window"),
		overlay: true,
		width:   config.Width,
		height:  config.Height,
	}
}

// Run opens the window and blocks until it is closed.
func (g *Game) Run() error {
	ebiten.SetWindowSize(g.config.Width, g.config.Height)
	ebiten.SetWindowTitle(g.config.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(g.config.TPS)
	err := ebiten.RunGame(g)
	if err == ebiten.Termination {
		return nil
	}
	return err
}

// Quit closes the window on the next tick. It is safe from any goroutine.
func (g *Game) Quit() { g.quit.Store(true) }

func (g *Game) Update() error {
	if g.quit.Load() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.backend.Wireframe = !g.backend.Wireframe
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		g.overlay = !g.overlay
	}

	cam := g.engine.Camera
	if _, dy := ebiten.Wheel(); dy != 0 {
		cam.Scroll(dy)
	}
	x, y := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			cam.Drag(float64(x-g.lastX), float64(y-g.lastY))
		}
		g.dragging = true
		g.lastX, g.lastY = x, y
	} else {
		g.dragging = false
	}
	if ebiten.IsKeyPressed(ebiten.KeyQ) {
		cam.Roll -= 0.02
	}
	if ebiten.IsKeyPressed(ebiten.KeyE) {
		cam.Roll += 0.02
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		cam.Roll = 0
	}

	g.engine.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	g.backend.Target = screen
	g.backend.Culled = 0
	stats := g.engine.Render(float64(g.width) / float64(g.height))

	if !g.overlay {
		return
	}
	lat, lon := g.engine.Camera.Target()
	snap := g.engine.Metrics().Snapshot()
	place := ""
	if g.locator != nil {
		place = "  " + g.locator.Place(lat, lon)
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"FPS %0.1f  TPS %0.1f\n"+
			"lat %0.4f  lon %0.4f  alt %s m%s\n"+
			"nodes %d  drawn %d (%d loaded, %d culled)  zoom %d\n"+
			"tiles %s loaded  %s pending  %s failed  %s\n"+
			"[drag] rotate  [wheel] zoom  [q/e/r] roll  [space] wire  [o] overlay",
		ebiten.ActualFPS(), ebiten.ActualTPS(),
		lat, lon, humanize.Comma(int64(g.engine.Camera.Altitude)), place,
		stats.Nodes, stats.Drawn, stats.DrawnLoaded, g.backend.Culled, stats.MaxDrawnZoom,
		humanize.Comma(snap.TilesLoaded), humanize.Comma(snap.TilesPending),
		humanize.Comma(snap.TilesFailed), humanize.Bytes(uint64(snap.BytesFetched)),
	))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		g.width, g.height = outsideWidth, outsideHeight
	}
	return g.width, g.height
}
