package nn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// LSTMCell is a single gated recurrent cell with separate hidden and cell
// state. Gate rows are packed input, forget, candidate, output.
type LSTMCell struct {
	InputSize  int
	HiddenSize int

	// WeightInput is 4H×InputSize, WeightHidden is 4H×HiddenSize, the
	// bias vectors have length 4H.
	WeightInput  *mat.Dense
	WeightHidden *mat.Dense
	BiasInput    []float64
	BiasHidden   []float64
}

func NewLSTMCell(inputSize, hiddenSize int, src rand.Source) *LSTMCell {
	gates := 4 * hiddenSize
	wi := make([]float64, gates*inputSize)
	wh := make([]float64, gates*hiddenSize)
	GaussianFill(wi, fanInSigma(inputSize), src)
	GaussianFill(wh, fanInSigma(hiddenSize), src)
	return &LSTMCell{
		InputSize:    inputSize,
		HiddenSize:   hiddenSize,
		WeightInput:  mat.NewDense(gates, inputSize, wi),
		WeightHidden: mat.NewDense(gates, hiddenSize, wh),
		BiasInput:    make([]float64, gates),
		BiasHidden:   make([]float64, gates),
	}
}

// Step advances the cell by one timestep for a whole batch. x is B×InputSize,
// hidden and cell are B×HiddenSize; the returned states have the same shape.
func (c *LSTMCell) Step(x, hidden, cell *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	batch, width := x.Dims()
	if width != c.InputSize {
		return nil, nil, fmt.Errorf("lstm input width mismatch: got=%d want=%d", width, c.InputSize)
	}
	if rows, cols := hidden.Dims(); rows != batch || cols != c.HiddenSize {
		return nil, nil, fmt.Errorf("lstm hidden state shape mismatch: got=(%d, %d) want=(%d, %d)", rows, cols, batch, c.HiddenSize)
	}
	if rows, cols := cell.Dims(); rows != batch || cols != c.HiddenSize {
		return nil, nil, fmt.Errorf("lstm cell state shape mismatch: got=(%d, %d) want=(%d, %d)", rows, cols, batch, c.HiddenSize)
	}

	var fromInput, fromHidden mat.Dense
	fromInput.Mul(x, c.WeightInput.T())
	fromHidden.Mul(hidden, c.WeightHidden.T())

	nextHidden := mat.NewDense(batch, c.HiddenSize, nil)
	nextCell := mat.NewDense(batch, c.HiddenSize, nil)
	h := c.HiddenSize
	for b := 0; b < batch; b++ {
		gi := fromInput.RawRowView(b)
		gh := fromHidden.RawRowView(b)
		prevCell := cell.RawRowView(b)
		outHidden := nextHidden.RawRowView(b)
		outCell := nextCell.RawRowView(b)
		for j := 0; j < h; j++ {
			input := Sigmoid(gi[j] + gh[j] + c.BiasInput[j] + c.BiasHidden[j])
			forget := Sigmoid(gi[h+j] + gh[h+j] + c.BiasInput[h+j] + c.BiasHidden[h+j])
			candidate := math.Tanh(gi[2*h+j] + gh[2*h+j] + c.BiasInput[2*h+j] + c.BiasHidden[2*h+j])
			output := Sigmoid(gi[3*h+j] + gh[3*h+j] + c.BiasInput[3*h+j] + c.BiasHidden[3*h+j])

			outCell[j] = forget*prevCell[j] + input*candidate
			outHidden[j] = output * math.Tanh(outCell[j])
		}
	}
	return nextHidden, nextCell, nil
}
