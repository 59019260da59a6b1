package ui

import (
	"fmt"

	"github.com/dustin/go-humanize"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/warren/components"
)

// HUDData holds everything the HUD shows.
type HUDData struct {
	Tick           int32
	Epoch          int
	Counts         [components.NumSpecies]int
	PredatorTarget int
	FPS            int32
	Paused         bool
	Series         [components.NumSpecies][]float64 // recent counts, oldest first
}

// HUD renders the status panel and population chart below the world.
type HUD struct {
	renderer *Renderer
	layout   Layout
}

// NewHUD creates a HUD for the given layout.
func NewHUD(layout Layout) *HUD {
	return &HUD{renderer: NewRenderer(), layout: layout}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	hud := h.layout.HUD
	r.DrawPanel(int32(hud.X), int32(hud.Y), int32(hud.W), int32(hud.H))

	x := int32(hud.X) + r.Theme.Padding
	y := int32(hud.Y) + r.Theme.Padding

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	rl.DrawText(fmt.Sprintf("Epoch %s  %s", humanize.Comma(int64(data.Epoch)), status), x, y, r.Theme.TitleSize, r.Theme.Highlight)
	y += r.Theme.LineHeight + 4

	for _, s := range components.AllSpecies {
		rl.DrawRectangle(x, y+3, 10, 10, r.SpeciesColor(s))
		r.DrawLabelValue(x+16, y, s.String(), humanize.Comma(int64(data.Counts[s])), 80)
		y += r.Theme.LineHeight
	}
	y = r.DrawLabelValue(x, y, "tick", humanize.Comma(int64(data.Tick)), 96)
	r.DrawLabelValue(x, y, "pred target", fmt.Sprintf("%d  (%d fps)", data.PredatorTarget, data.FPS), 96)

	h.drawChart(data.Series)
}

func (h *HUD) drawChart(series [components.NumSpecies][]float64) {
	r := h.renderer
	c := h.layout.Chart
	rl.DrawRectangleLines(int32(c.X), int32(c.Y), int32(c.W), int32(c.H), r.Theme.PanelBorder)

	top := SeriesMax(series[:]...)
	for _, s := range components.AllSpecies {
		pts := ChartPoints(series[s], c, top)
		color := r.SpeciesColor(s)
		for i := 1; i < len(pts); i++ {
			rl.DrawLineV(rl.Vector2{X: pts[i-1].X, Y: pts[i-1].Y}, rl.Vector2{X: pts[i].X, Y: pts[i].Y}, color)
		}
	}
	rl.DrawText(humanize.Comma(int64(top)), int32(c.X)+4, int32(c.Y)+2, r.Theme.FontSize-2, r.Theme.LabelColor)
}
