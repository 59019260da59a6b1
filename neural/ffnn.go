// Package neural provides decision policies for agents.
package neural

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FFNNConfig sizes and tunes a feedforward policy.
type FFNNConfig struct {
	Inputs       int
	Hidden       []int
	RewardOnce   float64
	LearningRate float64
	InitSigma    float64
	Schedule     Schedule
}

type layer struct {
	W *mat.Dense    // out x in
	B *mat.VecDense // out
}

// FFNN is a ReLU multilayer perceptron scoring the nine actions; Decide takes the argmax.
type FFNN struct {
	cfg    FFNNConfig
	rng    *rand.Rand
	layers []layer

	// Scratch reused by Decide (one network per agent, never shared).
	in   *mat.VecDense
	outs []*mat.VecDense

	decided    bool
	lastAction Action
	reward     float64
}

// NewFFNN creates a randomly initialized network.
// rng is used only at construction and in Mutate, both of which run on the simulation goroutine.
func NewFFNN(rng *rand.Rand, cfg FFNNConfig) *FFNN {
	sizes := make([]int, 0, len(cfg.Hidden)+2)
	sizes = append(sizes, cfg.Inputs)
	sizes = append(sizes, cfg.Hidden...)
	sizes = append(sizes, NumActions)

	nn := &FFNN{
		cfg: cfg,
		rng: rng,
		in:  mat.NewVecDense(cfg.Inputs, nil),
	}
	for i := 1; i < len(sizes); i++ {
		rows, cols := sizes[i], sizes[i-1]
		w := mat.NewDense(rows, cols, nil)
		fillNormal(rng, w.RawMatrix().Data, cfg.InitSigma)
		nn.layers = append(nn.layers, layer{W: w, B: mat.NewVecDense(rows, nil)})
		nn.outs = append(nn.outs, mat.NewVecDense(rows, nil))
	}
	return nn
}

// Forward computes raw action scores. The returned slice is scratch owned by the network.
func (nn *FFNN) Forward(inputs []float32) []float64 {
	n := nn.in.Len()
	for i := 0; i < n; i++ {
		var v float64
		if i < len(inputs) {
			v = float64(inputs[i])
		}
		nn.in.SetVec(i, v)
	}

	var x mat.Vector = nn.in
	last := len(nn.layers) - 1
	for i, l := range nn.layers {
		out := nn.outs[i]
		out.MulVec(l.W, x)
		out.AddVec(out, l.B)
		if i < last {
			relu(out.RawVector().Data)
		}
		x = out
	}
	return nn.outs[last].RawVector().Data
}

// Decide implements Policy.
func (nn *FFNN) Decide(observation []float32) Action {
	scores := nn.Forward(observation)
	nn.lastAction = Action(floats.MaxIdx(scores))
	nn.decided = true
	return nn.lastAction
}

// AccumulateReward implements Policy. Rewards before the first decision are dropped.
func (nn *FFNN) AccumulateReward(ringDeltas []float32) {
	if !nn.decided {
		return
	}
	for _, d := range ringDeltas {
		nn.reward += float64(d)
	}
}

// RewardOnce implements Policy.
func (nn *FFNN) RewardOnce() {
	if !nn.decided {
		return
	}
	nn.reward += nn.cfg.RewardOnce
}

// Reward returns the reward accumulated since the last update.
func (nn *FFNN) Reward() float64 {
	return nn.reward
}

// UpdateParameters implements Policy: the output row of the last chosen action
// moves along its input activations, scaled by the accumulated reward.
func (nn *FFNN) UpdateParameters() {
	if !nn.decided || nn.reward == 0 {
		nn.reward = 0
		return
	}

	last := len(nn.layers) - 1
	var hidden []float64
	if last == 0 {
		hidden = nn.in.RawVector().Data
	} else {
		hidden = nn.outs[last-1].RawVector().Data
	}

	step := nn.cfg.LearningRate * nn.reward
	row := nn.layers[last].W.RawRowView(int(nn.lastAction))
	floats.AddScaled(row, step, hidden)
	b := nn.layers[last].B
	b.SetVec(int(nn.lastAction), b.AtVec(int(nn.lastAction))+step)

	nn.reward = 0
}

// CloneParametersFrom implements Policy. Networks of a different shape are ignored.
func (nn *FFNN) CloneParametersFrom(other Policy) {
	src, ok := other.(*FFNN)
	if !ok || !nn.sameShape(src) {
		return
	}
	for i := range nn.layers {
		nn.layers[i].W.Copy(src.layers[i].W)
		nn.layers[i].B.CopyVec(src.layers[i].B)
	}
}

// Mutate implements Policy: each weight matrix and bias vector is independently
// redrawn from N(0,1) with the schedule's probability for this epoch.
func (nn *FFNN) Mutate(epoch int) {
	p := nn.cfg.Schedule.Probability(epoch)
	if p <= 0 {
		return
	}
	for _, l := range nn.layers {
		if nn.rng.Float64() < p {
			fillNormal(nn.rng, l.W.RawMatrix().Data, 1)
		}
		if nn.rng.Float64() < p {
			fillNormal(nn.rng, l.B.RawVector().Data, 1)
		}
	}
}

// Clone creates a deep copy with fresh scratch and no accumulated reward.
func (nn *FFNN) Clone() *FFNN {
	clone := NewFFNN(nn.rng, nn.cfg)
	clone.CloneParametersFrom(nn)
	return clone
}

func (nn *FFNN) sameShape(o *FFNN) bool {
	if len(nn.layers) != len(o.layers) {
		return false
	}
	for i := range nn.layers {
		r1, c1 := nn.layers[i].W.Dims()
		r2, c2 := o.layers[i].W.Dims()
		if r1 != r2 || c1 != c2 {
			return false
		}
	}
	return true
}

func relu(x []float64) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}

func fillNormal(rng *rand.Rand, dst []float64, sigma float64) {
	for i := range dst {
		dst[i] = rng.NormFloat64() * sigma
	}
}

// NewFactory returns a Factory producing FFNN policies sharing rng.
func NewFactory(rng *rand.Rand, cfg FFNNConfig) Factory {
	return func(inputs int) Policy {
		c := cfg
		c.Inputs = inputs
		return NewFFNN(rng, c)
	}
}
