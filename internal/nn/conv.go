package nn

import (
	"fmt"

	"golang.org/x/exp/rand"

	"hieragent/internal/tensor"
)

// Conv2D is a square-kernel, unpadded 2-D convolution over (C, H, W) maps.
type Conv2D struct {
	InChannels  int
	OutChannels int
	Kernel      int
	Stride      int

	// Weight is (OutChannels, InChannels, Kernel, Kernel), Bias has
	// length OutChannels.
	Weight *tensor.Tensor
	Bias   []float64
}

func NewConv2D(inChannels, outChannels, kernel, stride int, src rand.Source) *Conv2D {
	c := &Conv2D{
		InChannels:  inChannels,
		OutChannels: outChannels,
		Kernel:      kernel,
		Stride:      stride,
		Weight:      tensor.New(outChannels, inChannels, kernel, kernel),
		Bias:        make([]float64, outChannels),
	}
	GaussianFill(c.Weight.Data(), fanInSigma(inChannels*kernel*kernel), src)
	return c
}

// OutputDim returns the spatial output size for an input size, or an error
// when the kernel/stride geometry does not tile the input exactly.
func (c *Conv2D) OutputDim(in int) (int, error) {
	if in < c.Kernel {
		return 0, fmt.Errorf("conv input size %d below kernel size %d", in, c.Kernel)
	}
	if (in-c.Kernel)%c.Stride != 0 {
		return 0, fmt.Errorf("conv geometry mismatch: input=%d kernel=%d stride=%d", in, c.Kernel, c.Stride)
	}
	return (in-c.Kernel)/c.Stride + 1, nil
}

// Forward convolves one (InChannels, H, W) map into (OutChannels, H', W').
func (c *Conv2D) Forward(in *tensor.Tensor) (*tensor.Tensor, error) {
	if in.Rank() != 3 || in.Dim(0) != c.InChannels {
		return nil, fmt.Errorf("conv input shape mismatch: got=%v want=(%d, H, W)", in.Shape(), c.InChannels)
	}
	height, width := in.Dim(1), in.Dim(2)
	outHeight, err := c.OutputDim(height)
	if err != nil {
		return nil, err
	}
	outWidth, err := c.OutputDim(width)
	if err != nil {
		return nil, err
	}

	out := tensor.New(c.OutChannels, outHeight, outWidth)
	inData := in.Data()
	outData := out.Data()
	weight := c.Weight.Data()

	kernelArea := c.Kernel * c.Kernel
	inPlane := height * width
	outPlane := outHeight * outWidth
	for oc := 0; oc < c.OutChannels; oc++ {
		bias := c.Bias[oc]
		weightBase := oc * c.InChannels * kernelArea
		for oy := 0; oy < outHeight; oy++ {
			for ox := 0; ox < outWidth; ox++ {
				sum := bias
				inY, inX := oy*c.Stride, ox*c.Stride
				for ic := 0; ic < c.InChannels; ic++ {
					wBase := weightBase + ic*kernelArea
					inBase := ic*inPlane + inY*width + inX
					for ky := 0; ky < c.Kernel; ky++ {
						wRow := weight[wBase+ky*c.Kernel : wBase+(ky+1)*c.Kernel]
						inRow := inData[inBase+ky*width : inBase+ky*width+c.Kernel]
						for kx, w := range wRow {
							sum += w * inRow[kx]
						}
					}
				}
				outData[oc*outPlane+oy*outWidth+ox] = sum
			}
		}
	}
	return out, nil
}
