package ui

// Rect is a screen-space rectangle in pixels.
type Rect struct {
	X, Y, W, H float32
}

// Point is a screen-space point in pixels.
type Point struct {
	X, Y float32
}

// Layout places the world view, HUD and chart in the window.
type Layout struct {
	World  Rect
	HUD    Rect
	Chart  Rect
	Button Rect // first control button; the rest follow to the right
}

// ButtonGap is the horizontal gap between control buttons.
const ButtonGap = 8

// NewLayout computes the window layout for a world of w x h cells.
func NewLayout(w, h, cellSize, hudHeight int) Layout {
	worldW := float32(w * cellSize)
	worldH := float32(h * cellSize)
	hud := Rect{X: 0, Y: worldH, W: worldW, H: float32(hudHeight)}

	chartW := worldW * 0.45
	return Layout{
		World:  Rect{W: worldW, H: worldH},
		HUD:    hud,
		Chart:  Rect{X: worldW - chartW - 10, Y: hud.Y + 8, W: chartW, H: hud.H - 16},
		Button: Rect{X: 10, Y: hud.Y + hud.H - 38, W: 80, H: 28},
	}
}

// WindowSize returns the window dimensions in pixels.
func (l Layout) WindowSize() (int32, int32) {
	return int32(l.World.W), int32(l.World.H + l.HUD.H)
}

// ButtonAt returns the rectangle of the i-th control button.
func (l Layout) ButtonAt(i int) Rect {
	b := l.Button
	b.X += float32(i) * (b.W + ButtonGap)
	return b
}

// ChartPoints maps a series onto r: x spreads samples evenly across the width,
// y scales [0, maxValue] to the bottom..top edge. Values above maxValue are clamped.
func ChartPoints(series []float64, r Rect, maxValue float64) []Point {
	if len(series) == 0 {
		return nil
	}
	if maxValue <= 0 {
		maxValue = 1
	}
	pts := make([]Point, len(series))
	step := float32(0)
	if len(series) > 1 {
		step = r.W / float32(len(series)-1)
	}
	for i, v := range series {
		frac := v / maxValue
		if frac < 0 {
			frac = 0
		} else if frac > 1 {
			frac = 1
		}
		pts[i] = Point{
			X: r.X + float32(i)*step,
			Y: r.Y + r.H - float32(frac)*r.H,
		}
	}
	return pts
}

// SeriesMax returns the largest value across all series, at least 1.
func SeriesMax(series ...[]float64) float64 {
	m := 1.0
	for _, s := range series {
		for _, v := range s {
			m = max(m, v)
		}
	}
	return m
}
