package agent

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"hieragent/internal/nn"
	"hieragent/internal/tensor"
)

// TimeEncoder collapses a fused timestep sequence into one summary vector
// per batch element by running a single LSTM cell across the time axis.
// Hidden and cell state start at zero on every call; there is no cross-call
// memory. This is the only sequential dependency in the graph.
type TimeEncoder struct {
	Cell *nn.LSTMCell
}

func NewTimeEncoder(src rand.Source) *TimeEncoder {
	return &TimeEncoder{Cell: nn.NewLSTMCell(FusedWidth, SummaryWidth, src)}
}

func (e *TimeEncoder) Forward(fused *tensor.Tensor) (*tensor.Tensor, error) {
	shape := fused.Shape()
	if len(shape) != 3 || shape[2] != FusedWidth {
		return nil, fmt.Errorf("fused features shape mismatch: got=%v want=(B, T, %d)", shape, FusedWidth)
	}
	batch, steps := shape[0], shape[1]

	hidden := mat.NewDense(batch, SummaryWidth, nil)
	cell := mat.NewDense(batch, SummaryWidth, nil)
	step := mat.NewDense(batch, FusedWidth, nil)
	data := fused.Data()
	for s := 0; s < steps; s++ {
		for b := 0; b < batch; b++ {
			offset := (b*steps + s) * FusedWidth
			copy(step.RawRowView(b), data[offset:offset+FusedWidth])
		}
		var err error
		hidden, cell, err = e.Cell.Step(step, hidden, cell)
		if err != nil {
			return nil, fmt.Errorf("timestep %d: %w", s, err)
		}
	}
	return tensor.FromMatrix(hidden), nil
}
