package neural

// Action is a movement decision: stay or one step in one of eight directions.
type Action uint8

const (
	ActionStay Action = iota
	ActionWest
	ActionNorth
	ActionEast
	ActionSouth
	ActionNorthWest
	ActionNorthEast
	ActionSouthEast
	ActionSouthWest
)

// NumActions is the size of the action set.
const NumActions = 9

var actionOffsets = [NumActions][2]int{
	ActionStay:      {0, 0},
	ActionWest:      {-1, 0},
	ActionNorth:     {0, -1},
	ActionEast:      {1, 0},
	ActionSouth:     {0, 1},
	ActionNorthWest: {-1, -1},
	ActionNorthEast: {1, -1},
	ActionSouthEast: {1, 1},
	ActionSouthWest: {-1, 1},
}

// Offset returns the lattice delta of the action. Unknown codes map to stay.
func (a Action) Offset() (dx, dy int) {
	if int(a) >= NumActions {
		return 0, 0
	}
	o := actionOffsets[a]
	return o[0], o[1]
}

// IsStay reports whether the action leaves the agent in place.
func (a Action) IsStay() bool {
	dx, dy := a.Offset()
	return dx == 0 && dy == 0
}

func (a Action) String() string {
	switch a {
	case ActionStay:
		return "stay"
	case ActionWest:
		return "west"
	case ActionNorth:
		return "north"
	case ActionEast:
		return "east"
	case ActionSouth:
		return "south"
	case ActionNorthWest:
		return "north-west"
	case ActionNorthEast:
		return "north-east"
	case ActionSouthEast:
		return "south-east"
	case ActionSouthWest:
		return "south-west"
	default:
		return "invalid"
	}
}

// Policy is the decision module attached to foragers and predators.
//
// The simulation only calls these methods; it never inspects internals.
// Decide and AccumulateReward may run concurrently across different agents,
// so implementations must not share mutable state between instances.
type Policy interface {
	// Decide maps an observation window to an action.
	Decide(observation []float32) Action
	// AccumulateReward receives per-ring observation deltas, innermost ring first,
	// already weighted by ring priority.
	AccumulateReward(ringDeltas []float32)
	// RewardOnce applies the fixed bonus for a successful meal.
	RewardOnce()
	// UpdateParameters applies one step using the accumulated reward.
	UpdateParameters()
	// CloneParametersFrom copies decision parameters for inheritance.
	CloneParametersFrom(other Policy)
	// Mutate stochastically perturbs parameters on the epoch-decaying schedule.
	Mutate(epoch int)
}

// Factory builds a fresh policy for an agent whose observation window has the given cell count.
type Factory func(inputs int) Policy
