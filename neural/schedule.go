package neural

import "math"

// Schedule is the epoch-decaying mutation probability:
// p(epoch) = BaseProbability / exp(epoch / Decay), and zero once epoch > Decay * CutoffMultiple.
type Schedule struct {
	Decay           float64
	CutoffMultiple  float64
	BaseProbability float64
}

// Cutoff returns the epoch past which mutation is disabled.
func (s Schedule) Cutoff() float64 {
	return s.Decay * s.CutoffMultiple
}

// Probability returns the per-tensor mutation probability at epoch.
func (s Schedule) Probability(epoch int) float64 {
	if s.Decay <= 0 {
		return 0
	}
	e := float64(epoch)
	if e < 0 {
		e = 0
	}
	if e > s.Cutoff() {
		return 0
	}
	return s.BaseProbability / math.Exp(e/s.Decay)
}
