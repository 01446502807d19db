package agent

import (
	"fmt"

	"hieragent/internal/tensor"
)

// Fuse broadcasts the per-batch instruction embedding across the time axis
// and concatenates it with the per-timestep visual features. Pure reshaping:
// no parameters, and the first VisualWidth features of every fused timestep
// are the visual features unchanged.
func Fuse(visual, instruction *tensor.Tensor) (*tensor.Tensor, error) {
	vShape := visual.Shape()
	if len(vShape) != 3 || vShape[2] != VisualWidth {
		return nil, fmt.Errorf("visual features shape mismatch: got=%v want=(B, T, %d)", vShape, VisualWidth)
	}
	iShape := instruction.Shape()
	if len(iShape) != 2 || iShape[1] != InstructionWidth {
		return nil, fmt.Errorf("instruction features shape mismatch: got=%v want=(B, %d)", iShape, InstructionWidth)
	}
	if vShape[0] != iShape[0] {
		return nil, fmt.Errorf("batch size mismatch: visual=%d instruction=%d", vShape[0], iShape[0])
	}

	batch, steps := vShape[0], vShape[1]
	out := tensor.New(batch, steps, FusedWidth)
	vData, iData, oData := visual.Data(), instruction.Data(), out.Data()
	for b := 0; b < batch; b++ {
		instructionRow := iData[b*InstructionWidth : (b+1)*InstructionWidth]
		for s := 0; s < steps; s++ {
			offset := (b*steps + s) * FusedWidth
			copy(oData[offset:], vData[(b*steps+s)*VisualWidth:(b*steps+s+1)*VisualWidth])
			copy(oData[offset+VisualWidth:], instructionRow)
		}
	}
	return out, nil
}
