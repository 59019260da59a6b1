package ui

import (
	"log/slog"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/warren/camera"
	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/game"
	"github.com/pthm-cable/warren/telemetry"
)

// chartTicks is how many recent ticks the HUD chart shows.
const chartTicks = 600

// Camera controls
const (
	panSpeed   = 8    // screen pixels per frame for arrow keys
	zoomFactor = 1.15 // per mouse wheel notch
)

// Viewer runs the interactive window around a game.
type Viewer struct {
	game      *game.Game
	layout    Layout
	hud       *HUD
	renderer  *Renderer
	camera    *camera.Camera
	inspector *Inspector
	cellSize  float32
	paused    bool

	// OnFrame is called after every simulated tick with the new frame.
	OnFrame func(*telemetry.Frame)
}

// NewViewer creates a viewer for g. Call Run to open the window.
func NewViewer(g *game.Game) *Viewer {
	cfg := g.Config()
	layout := NewLayout(cfg.World.Width, cfg.World.Height, cfg.Screen.CellSize, cfg.Screen.HUDHeight)
	renderer := NewRenderer()
	return &Viewer{
		game:      g,
		layout:    layout,
		hud:       NewHUD(layout),
		renderer:  renderer,
		camera:    camera.New(layout.World.W, layout.World.H, layout.World.W, layout.World.H),
		inspector: NewInspector(renderer),
		cellSize:  float32(cfg.Screen.CellSize),
	}
}

// Run opens the window and steps the game once per frame until the window
// closes or maxTicks is reached (0 = unlimited).
func (v *Viewer) Run(maxTicks int) {
	w, h := v.layout.WindowSize()
	rl.InitWindow(w, h, "Warren")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(v.game.Config().Screen.TargetFPS))

	for !rl.WindowShouldClose() {
		v.handleInput()

		if !v.paused {
			v.game.Step()
			if v.OnFrame != nil {
				v.OnFrame(v.game.Frame())
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(v.renderer.Theme.Grass)
		v.drawWorld()
		v.hud.Draw(v.hudData())
		v.drawControls()
		v.inspector.Draw(v.game, w)
		rl.EndDrawing()

		if maxTicks > 0 && int(v.game.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", v.game.Tick())
			return
		}
	}
}

// handleInput maps keys to operator commands.
func (v *Viewer) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		v.game.Enqueue(game.CommandRefill)
	}
	if rl.IsKeyPressed(rl.KeyC) {
		v.game.Enqueue(game.CommandClear)
	}
	if rl.IsKeyPressed(rl.KeyS) {
		v.game.Enqueue(game.CommandDump)
	}
	if rl.IsKeyPressed(rl.KeyP) {
		v.paused = !v.paused
	}
	v.handleCamera()
	v.handleSelection()
}

func (v *Viewer) handleCamera() {
	if rl.IsKeyDown(rl.KeyLeft) {
		v.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyRight) {
		v.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.camera.Pan(0, -panSpeed)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.camera.Reset()
	}

	mouse := rl.GetMousePosition()
	if !v.inWorld(mouse) {
		return
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		factor := float32(zoomFactor)
		if wheel < 0 {
			factor = 1 / factor
		}
		v.camera.ZoomAt(mouse.X, mouse.Y, factor)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.camera.Pan(-d.X, -d.Y)
	}
}

// handleSelection selects the clicked cell, or clears the selection on grass.
func (v *Viewer) handleSelection() {
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	mouse := rl.GetMousePosition()
	if !v.inWorld(mouse) {
		return
	}
	wx, wy := v.camera.ScreenToWorld(mouse.X, mouse.Y)
	c := components.Coord{X: int(wx / v.cellSize), Y: int(wy / v.cellSize)}
	if _, ok := v.game.Inspect(c); ok {
		v.inspector.Select(c)
	} else {
		v.inspector.Deselect()
	}
}

func (v *Viewer) inWorld(p rl.Vector2) bool {
	w := v.layout.World
	return p.X >= w.X && p.X < w.X+w.W && p.Y >= w.Y && p.Y < w.Y+w.H
}

func (v *Viewer) drawControls() {
	buttons := []struct {
		label string
		cmd   game.Command
	}{
		{"Refill", game.CommandRefill},
		{"Clear", game.CommandClear},
		{"Dump", game.CommandDump},
	}
	for i, b := range buttons {
		r := v.layout.ButtonAt(i)
		if gui.Button(rl.Rectangle{X: r.X, Y: r.Y, Width: r.W, Height: r.H}, b.label) {
			v.game.Enqueue(b.cmd)
		}
	}

	r := v.layout.ButtonAt(len(buttons))
	label := "Pause"
	if v.paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: r.X, Y: r.Y, Width: r.W, Height: r.H}, label) {
		v.paused = !v.paused
	}
}

func (v *Viewer) drawWorld() {
	f := v.game.Frame()
	cs := v.cellSize
	size := cs * v.camera.Zoom
	for _, a := range f.Agents {
		wx, wy := float32(a.X)*cs, float32(a.Y)*cs
		if !v.camera.IsVisible(wx, wy, cs) {
			continue
		}
		sx, sy := v.camera.WorldToScreen(wx, wy)
		rl.DrawRectangleV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: size, Y: size}, v.renderer.SpeciesColor(a.Species))
	}

	if c, ok := v.inspector.Selected(); ok {
		sx, sy := v.camera.WorldToScreen(float32(c.X)*cs, float32(c.Y)*cs)
		rl.DrawRectangleLinesEx(rl.Rectangle{X: sx - 1, Y: sy - 1, Width: size + 2, Height: size + 2}, 1, v.renderer.Theme.Highlight)
	}
}

func (v *Viewer) hudData() HUDData {
	data := HUDData{
		Tick:           v.game.Tick(),
		Epoch:          v.game.Epoch(),
		Counts:         v.game.Counts(),
		PredatorTarget: v.game.PredatorTarget(),
		FPS:            rl.GetFPS(),
		Paused:         v.paused,
	}
	tail := v.game.History().Tail(chartTicks)
	for _, s := range components.AllSpecies {
		series := make([]float64, len(tail))
		for i, rec := range tail {
			series[i] = float64(rec.Count(s))
		}
		data.Series[s] = series
	}
	return data
}
