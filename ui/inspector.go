package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/game"
)

// Inspector panel dimensions
const (
	InspectorWidth  = 220
	InspectorMargin = 10
)

// Inspector tracks the selected cell and draws the agent standing there.
type Inspector struct {
	renderer *Renderer
	cell     components.Coord
	selected bool
}

// NewInspector creates an inspector with nothing selected.
func NewInspector(r *Renderer) *Inspector {
	return &Inspector{renderer: r}
}

// Select follows the given cell.
func (ins *Inspector) Select(c components.Coord) {
	ins.cell = c
	ins.selected = true
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() {
	ins.selected = false
}

// Selected returns the followed cell.
func (ins *Inspector) Selected() (components.Coord, bool) {
	return ins.cell, ins.selected
}

// InspectorLines formats an agent for display, one label/value pair per line.
func InspectorLines(a game.AgentInfo) [][2]string {
	lines := [][2]string{
		{"id", fmt.Sprintf("%d", a.ID)},
		{"cell", fmt.Sprintf("%d,%d", a.Pos.X, a.Pos.Y)},
		{"speed", fmt.Sprintf("%d", a.Speed)},
		{"clock", fmt.Sprintf("%d", a.Clock)},
	}
	if a.Species == components.SpeciesFood {
		return append(lines,
			[2]string{"ripeness", fmt.Sprintf("%d/%d", a.FoodCounter, a.FoodThreshold)},
			[2]string{"age", fmt.Sprintf("%d/%d", a.Starvation, a.DeathThreshold)},
		)
	}
	return append(lines,
		[2]string{"starving", fmt.Sprintf("%d/%d", a.Starvation, a.DeathThreshold)},
		[2]string{"food", fmt.Sprintf("%d/%d", a.FoodCounter, a.FoodThreshold)},
		[2]string{"eaten", fmt.Sprintf("%d", a.FoodEaten)},
		[2]string{"pending", fmt.Sprintf("%t", a.WantsReproduce)},
		[2]string{"reward", fmt.Sprintf("%.2f", a.Reward)},
	)
}

// Draw renders the panel for g's agent at the selected cell, if any.
// The selection drops when the cell empties.
func (ins *Inspector) Draw(g *game.Game, screenW int32) {
	if !ins.selected {
		return
	}
	info, ok := g.Inspect(ins.cell)
	if !ok {
		ins.Deselect()
		return
	}

	r := ins.renderer
	lines := InspectorLines(info)
	x := screenW - InspectorWidth - InspectorMargin
	y := int32(InspectorMargin)
	h := r.Theme.Padding*2 + r.Theme.LineHeight*int32(len(lines)+1) + 4
	r.DrawPanel(x, y, InspectorWidth, h)

	x += r.Theme.Padding
	y += r.Theme.Padding
	rl.DrawRectangle(x, y+3, 10, 10, r.SpeciesColor(info.Species))
	rl.DrawText(info.Species.String(), x+16, y, r.Theme.TitleSize, r.Theme.Highlight)
	y += r.Theme.LineHeight + 4
	for _, l := range lines {
		y = r.DrawLabelValue(x, y, l[0], l[1], 80)
	}
}
