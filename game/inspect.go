package game

import "github.com/pthm-cable/warren/components"

// AgentInfo is a read-only copy of one agent's state for inspection.
type AgentInfo struct {
	ID             uint32
	Species        components.Species
	Pos            components.Coord
	Speed          int
	Clock          int
	Starvation     int
	DeathThreshold int
	FoodCounter    int
	FoodThreshold  int
	FoodEaten      int
	WantsReproduce bool
	HasPolicy      bool
	Reward         float64 // pending reward, for policies that expose it
}

// rewarder is implemented by policies that can report their pending reward.
type rewarder interface {
	Reward() float64
}

// Inspect returns the agent occupying c, if any.
func (g *Game) Inspect(c components.Coord) (AgentInfo, bool) {
	occ, ok := g.occ.Get(c)
	if !ok || !g.world.Alive(occ.Entity) {
		return AgentInfo{}, false
	}
	id := g.idMap.Get(occ.Entity)
	lc := g.lcMap.Get(occ.Entity)
	mind := g.mindMap.Get(occ.Entity)
	info := AgentInfo{
		ID:             id.ID,
		Species:        id.Species,
		Pos:            g.posMap.Get(occ.Entity).Coord,
		Speed:          id.Speed,
		Clock:          lc.Clock,
		Starvation:     lc.Starvation,
		DeathThreshold: lc.DeathThreshold,
		FoodCounter:    lc.FoodCounter,
		FoodThreshold:  lc.FoodThreshold,
		FoodEaten:      lc.FoodEaten,
		WantsReproduce: lc.WantsReproduce,
		HasPolicy:      mind.Policy != nil,
	}
	if r, ok := mind.Policy.(rewarder); ok {
		info.Reward = r.Reward()
	}
	return info, true
}
