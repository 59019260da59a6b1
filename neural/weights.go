package neural

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LayerWeights holds one flattened layer (row-major W) for serialization.
type LayerWeights struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	W    []float64 `json:"w"`
	B    []float64 `json:"b"`
}

// BrainWeights holds flattened network weights for serialization.
type BrainWeights struct {
	Layers []LayerWeights `json:"layers"`
}

// MarshalWeights flattens the network weights.
func (nn *FFNN) MarshalWeights() BrainWeights {
	bw := BrainWeights{Layers: make([]LayerWeights, len(nn.layers))}
	for i, l := range nn.layers {
		r, c := l.W.Dims()
		bw.Layers[i] = LayerWeights{
			Rows: r,
			Cols: c,
			W:    append([]float64(nil), l.W.RawMatrix().Data...),
			B:    append([]float64(nil), l.B.RawVector().Data...),
		}
	}
	return bw
}

// UnmarshalWeights restores network weights. The shape must match the network.
func (nn *FFNN) UnmarshalWeights(bw BrainWeights) error {
	if len(bw.Layers) != len(nn.layers) {
		return fmt.Errorf("weights have %d layers, network has %d", len(bw.Layers), len(nn.layers))
	}
	for i, lw := range bw.Layers {
		r, c := nn.layers[i].W.Dims()
		if lw.Rows != r || lw.Cols != c || len(lw.W) != r*c || len(lw.B) != r {
			return fmt.Errorf("layer %d: weights %dx%d, network %dx%d", i, lw.Rows, lw.Cols, r, c)
		}
	}
	for i, lw := range bw.Layers {
		nn.layers[i].W.Copy(mat.NewDense(lw.Rows, lw.Cols, lw.W))
		nn.layers[i].B.CopyVec(mat.NewVecDense(lw.Rows, lw.B))
	}
	return nil
}

// MarshalJSON encodes the network weights.
func (nn *FFNN) MarshalJSON() ([]byte, error) {
	return json.Marshal(nn.MarshalWeights())
}

// UnmarshalJSON decodes weights into an already-shaped network.
func (nn *FFNN) UnmarshalJSON(data []byte) error {
	var bw BrainWeights
	if err := json.Unmarshal(data, &bw); err != nil {
		return fmt.Errorf("decoding weights: %w", err)
	}
	return nn.UnmarshalWeights(bw)
}
