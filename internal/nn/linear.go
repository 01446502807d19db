package nn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear is a fully-connected projection y = xW^T + b.
type Linear struct {
	In  int
	Out int

	// Weight is Out×In, Bias has length Out.
	Weight *mat.Dense
	Bias   []float64
}

func NewLinear(in, out int, src rand.Source) *Linear {
	weight := make([]float64, out*in)
	GaussianFill(weight, fanInSigma(in), src)
	return &Linear{
		In:     in,
		Out:    out,
		Weight: mat.NewDense(out, in, weight),
		Bias:   make([]float64, out),
	}
}

// Forward projects a batch of rows. x is B×In; the result is B×Out.
func (l *Linear) Forward(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != l.In {
		return nil, fmt.Errorf("linear input width mismatch: got=%d want=%d", cols, l.In)
	}

	var out mat.Dense
	out.Mul(x, l.Weight.T())
	for r := 0; r < rows; r++ {
		floats.Add(out.RawRowView(r), l.Bias)
	}
	return &out, nil
}
