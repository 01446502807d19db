// Package agent implements the forward computation graph of a hierarchical
// instruction-following agent: per-frame visual encoding, bag-of-words
// instruction encoding, feature fusion, temporal aggregation, and the three
// policy heads reading the aggregated summary.
package agent

import (
	"fmt"

	"golang.org/x/exp/rand"

	"hieragent/internal/nn"
	"hieragent/internal/tensor"
)

// Fixed architecture widths. These are baked into the convolution geometry
// and the downstream layer sizes and are deliberately not configurable.
const (
	FrameChannels = 3
	FrameSize     = 84

	VisualWidth      = 256
	InstructionWidth = 128
	FusedWidth       = VisualWidth + InstructionWidth
	SummaryWidth     = 256

	// The three convolutions collapse 84x84 to 7x7 over 64 channels.
	convFeatures = 64 * 7 * 7
)

// VisualEncoder turns a frame sequence (B, T, 3, 84, 84) into per-timestep
// feature vectors (B, T, 256). Frames are encoded independently; temporal
// structure is left to the TimeEncoder.
type VisualEncoder struct {
	Conv1 *nn.Conv2D
	Conv2 *nn.Conv2D
	Conv3 *nn.Conv2D
	Proj  *nn.Linear
}

func NewVisualEncoder(src rand.Source) *VisualEncoder {
	return &VisualEncoder{
		Conv1: nn.NewConv2D(FrameChannels, 32, 8, 4, src),
		Conv2: nn.NewConv2D(32, 64, 4, 2, src),
		Conv3: nn.NewConv2D(64, 64, 3, 1, src),
		Proj:  nn.NewLinear(convFeatures, VisualWidth, src),
	}
}

func (e *VisualEncoder) Forward(frames *tensor.Tensor) (*tensor.Tensor, error) {
	shape := frames.Shape()
	if len(shape) != 5 || shape[2] != FrameChannels || shape[3] != FrameSize || shape[4] != FrameSize {
		return nil, fmt.Errorf("frame batch shape mismatch: got=%v want=(B, T, %d, %d, %d)",
			shape, FrameChannels, FrameSize, FrameSize)
	}
	batch, steps := shape[0], shape[1]

	flat := tensor.New(batch*steps, convFeatures)
	for b := 0; b < batch; b++ {
		for s := 0; s < steps; s++ {
			frame, err := frames.Sub(b, s)
			if err != nil {
				return nil, err
			}
			features, err := e.encodeFrame(frame)
			if err != nil {
				return nil, fmt.Errorf("encode frame batch=%d step=%d: %w", b, s, err)
			}
			copy(flat.Data()[(b*steps+s)*convFeatures:], features)
		}
	}

	flatMatrix, err := flat.Matrix()
	if err != nil {
		return nil, err
	}
	projected, err := e.Proj.Forward(flatMatrix)
	if err != nil {
		return nil, err
	}
	out := tensor.FromMatrix(projected)
	nn.ReLUInPlace(out.Data())
	return out.Reshape(batch, steps, VisualWidth)
}

func (e *VisualEncoder) encodeFrame(frame *tensor.Tensor) ([]float64, error) {
	activation := frame
	for _, conv := range []*nn.Conv2D{e.Conv1, e.Conv2, e.Conv3} {
		next, err := conv.Forward(activation)
		if err != nil {
			return nil, err
		}
		nn.ReLUInPlace(next.Data())
		activation = next
	}
	if activation.Size() != convFeatures {
		return nil, fmt.Errorf("convolution stack produced %d features, want %d", activation.Size(), convFeatures)
	}
	return activation.Data(), nil
}
