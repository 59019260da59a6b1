package neural

import (
	"math"
	"testing"
)

func TestScheduleProbability(t *testing.T) {
	s := Schedule{Decay: 500, CutoffMultiple: 6, BaseProbability: 0.5}

	tests := []struct {
		name  string
		epoch int
		want  float64
	}{
		{"epoch zero", 0, 0.5},
		{"one decay", 500, 0.5 / math.E},
		{"two decays", 1000, 0.5 / (math.E * math.E)},
		{"at cutoff", 3000, 0.5 / math.Exp(6)},
		{"past cutoff", 3001, 0},
		{"negative epoch clamps", -10, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Probability(tt.epoch)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Probability(%d) = %v, want %v", tt.epoch, got, tt.want)
			}
		})
	}
}

func TestScheduleMonotonic(t *testing.T) {
	s := Schedule{Decay: 100, CutoffMultiple: 6, BaseProbability: 0.5}
	prev := s.Probability(0)
	for e := 1; e <= 600; e++ {
		p := s.Probability(e)
		if p > prev {
			t.Fatalf("probability increased at epoch %d: %v > %v", e, p, prev)
		}
		prev = p
	}
}

func TestScheduleZeroDecay(t *testing.T) {
	if p := (Schedule{}).Probability(0); p != 0 {
		t.Errorf("zero schedule probability = %v, want 0", p)
	}
}
