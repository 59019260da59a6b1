package neural

import (
	"encoding/json"
	"math/rand"
	"testing"
)

func testConfig() FFNNConfig {
	return FFNNConfig{
		Inputs:       25,
		Hidden:       []int{8, 8},
		RewardOnce:   5,
		LearningRate: 0.01,
		InitSigma:    0.5,
		Schedule:     Schedule{Decay: 500, CutoffMultiple: 6, BaseProbability: 0.5},
	}
}

func TestNewFFNN(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, testConfig())

	if len(nn.layers) != 3 {
		t.Fatalf("layers = %d, want 3", len(nn.layers))
	}
	wantDims := [][2]int{{8, 25}, {8, 8}, {NumActions, 8}}
	for i, l := range nn.layers {
		r, c := l.W.Dims()
		if r != wantDims[i][0] || c != wantDims[i][1] {
			t.Errorf("layer %d dims = %dx%d, want %dx%d", i, r, c, wantDims[i][0], wantDims[i][1])
		}
	}
}

func TestDecideInRangeAndDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, testConfig())

	inputs := make([]float32, 25)
	for i := range inputs {
		inputs[i] = float32(i%3) - 1
	}

	a1 := nn.Decide(inputs)
	a2 := nn.Decide(inputs)
	if a1 != a2 {
		t.Errorf("Decide not deterministic: %v then %v", a1, a2)
	}
	if int(a1) >= NumActions {
		t.Errorf("action %d out of range", a1)
	}
}

func TestDecideShortInputPadsWithZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	nn := NewFFNN(rng, testConfig())

	full := make([]float32, 25)
	full[0] = 1
	if nn.Decide([]float32{1}) != nn.Decide(full) {
		t.Error("short input should behave as zero-padded")
	}
}

func TestRewardIgnoredBeforeFirstDecision(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, testConfig())

	nn.AccumulateReward([]float32{1, 2, 3})
	nn.RewardOnce()
	if nn.Reward() != 0 {
		t.Errorf("reward = %v before any decision, want 0", nn.Reward())
	}
}

func TestAccumulateAndRewardOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, testConfig())
	nn.Decide(make([]float32, 25))

	nn.AccumulateReward([]float32{0.5, -0.25})
	nn.RewardOnce()
	if got, want := nn.Reward(), 5.25; got != want {
		t.Errorf("reward = %v, want %v", got, want)
	}
}

func TestUpdateParametersMovesChosenRow(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	nn := NewFFNN(rng, testConfig())

	inputs := make([]float32, 25)
	for i := range inputs {
		inputs[i] = 1
	}
	action := nn.Decide(inputs)
	last := nn.layers[len(nn.layers)-1]
	beforeBias := last.B.AtVec(int(action))
	var otherBefore float64
	other := (int(action) + 1) % NumActions
	otherBefore = last.B.AtVec(other)

	nn.RewardOnce()
	nn.UpdateParameters()

	if last.B.AtVec(int(action)) <= beforeBias {
		t.Errorf("bias of chosen action did not increase: %v -> %v", beforeBias, last.B.AtVec(int(action)))
	}
	if last.B.AtVec(other) != otherBefore {
		t.Error("bias of another action changed")
	}
	if nn.Reward() != 0 {
		t.Errorf("reward not cleared after update: %v", nn.Reward())
	}
}

func TestCloneParametersFrom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	parent := NewFFNN(rng, testConfig())
	child := NewFFNN(rng, testConfig())

	child.CloneParametersFrom(parent)
	if child.layers[0].W.At(0, 0) != parent.layers[0].W.At(0, 0) {
		t.Error("clone has different weights")
	}

	child.layers[0].W.Set(0, 0, 999)
	if parent.layers[0].W.At(0, 0) == 999 {
		t.Error("clone is not independent")
	}
}

func TestCloneParametersFromMismatchedShape(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	small := testConfig()
	small.Inputs = 9
	a := NewFFNN(rng, testConfig())
	b := NewFFNN(rng, small)

	before := a.layers[1].W.At(0, 0)
	a.CloneParametersFrom(b)
	if a.layers[1].W.At(0, 0) != before {
		t.Error("mismatched shapes should leave weights untouched")
	}
}

func TestMutatePastCutoffIsNoop(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cfg := testConfig()
	cfg.Schedule.BaseProbability = 1
	nn := NewFFNN(rng, cfg)
	before := nn.MarshalWeights()

	nn.Mutate(int(cfg.Schedule.Cutoff()) + 1)

	after := nn.MarshalWeights()
	for i := range before.Layers {
		for j := range before.Layers[i].W {
			if before.Layers[i].W[j] != after.Layers[i].W[j] {
				t.Fatalf("weight changed past cutoff at layer %d index %d", i, j)
			}
		}
	}
}

func TestMutateAtCertainProbabilityRedraws(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cfg := testConfig()
	cfg.Schedule.BaseProbability = 1
	nn := NewFFNN(rng, cfg)
	before := nn.layers[0].W.At(0, 0)

	nn.Mutate(0)

	if nn.layers[0].W.At(0, 0) == before {
		t.Error("Mutate with probability 1 did not change weights")
	}
}

func TestWeightsJSONRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, testConfig())
	data, err := json.Marshal(nn)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	restored := NewFFNN(rand.New(rand.NewSource(99)), testConfig())
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	inputs := make([]float32, 25)
	inputs[3] = 1
	if nn.Decide(inputs) != restored.Decide(inputs) {
		t.Error("restored network decides differently")
	}
}

func TestUnmarshalWeightsShapeMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, testConfig())
	other := testConfig()
	other.Hidden = []int{4}
	bw := NewFFNN(rng, other).MarshalWeights()

	if err := nn.UnmarshalWeights(bw); err == nil {
		t.Error("expected shape mismatch error")
	}
}

func TestActionOffsets(t *testing.T) {
	tests := []struct {
		a      Action
		dx, dy int
	}{
		{ActionStay, 0, 0},
		{ActionWest, -1, 0},
		{ActionNorth, 0, -1},
		{ActionEast, 1, 0},
		{ActionSouth, 0, 1},
		{ActionNorthWest, -1, -1},
		{ActionNorthEast, 1, -1},
		{ActionSouthEast, 1, 1},
		{ActionSouthWest, -1, 1},
		{Action(200), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.a.String(), func(t *testing.T) {
			dx, dy := tt.a.Offset()
			if dx != tt.dx || dy != tt.dy {
				t.Errorf("Offset() = (%d,%d), want (%d,%d)", dx, dy, tt.dx, tt.dy)
			}
		})
	}
}

func BenchmarkDecide(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	cfg := testConfig()
	cfg.Inputs = 121
	nn := NewFFNN(rng, cfg)

	inputs := make([]float32, 121)
	for i := range inputs {
		inputs[i] = 0.5
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		nn.Decide(inputs)
	}
}
