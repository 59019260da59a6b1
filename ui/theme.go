// Package ui draws the interactive lattice viewer: the world, a HUD with the
// population chart, and operator controls.
package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/warren/components"
)

// Theme holds UI styling constants.
type Theme struct {
	Grass       rl.Color
	PanelBg     rl.Color
	PanelBorder rl.Color
	LabelColor  rl.Color
	ValueColor  rl.Color
	Highlight   rl.Color
	Species     [components.NumSpecies]rl.Color
	Padding     int32
	LineHeight  int32
	FontSize    int32
	TitleSize   int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		Grass:       rl.Color{R: 126, G: 178, B: 92, A: 255},
		PanelBg:     rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder: rl.Color{R: 60, G: 70, B: 80, A: 255},
		LabelColor:  rl.LightGray,
		ValueColor:  rl.RayWhite,
		Highlight:   rl.Yellow,
		Species:     [components.NumSpecies]rl.Color{
			components.SpeciesForager:  rl.Color{R: 190, G: 190, B: 190, A: 255},
			components.SpeciesPredator: rl.Color{R: 230, G: 126, B: 34, A: 255},
			components.SpeciesFood:     rl.Color{R: 39, G: 120, B: 39, A: 255},
		},
		Padding:    10,
		LineHeight: 18,
		FontSize:   14,
		TitleSize:  18,
	}
}

// Renderer handles UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawLabelValue draws a label and value on the same line and returns the next Y.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string, labelWidth int32) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+labelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// SpeciesColor returns the fill color for s.
func (r *Renderer) SpeciesColor(s components.Species) rl.Color {
	if int(s) >= len(r.Theme.Species) {
		return rl.Magenta
	}
	return r.Theme.Species[s]
}
