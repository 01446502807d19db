package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ReLU returns max(0, x).
func ReLU(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// ReLUInPlace rectifies every element of values.
func ReLUInPlace(values []float64) {
	for i, v := range values {
		if v < 0 {
			values[i] = 0
		}
	}
}

// Sigmoid returns 1 / (1 + exp(-x)).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// SoftmaxInPlace rewrites row as a probability distribution. The maximum is
// subtracted before exponentiation to keep the transform stable for large
// logits.
func SoftmaxInPlace(row []float64) {
	max := floats.Max(row)
	for i, v := range row {
		row[i] = math.Exp(v - max)
	}
	floats.Scale(1/floats.Sum(row), row)
}

// SoftmaxRows applies SoftmaxInPlace to every row of m.
func SoftmaxRows(m *mat.Dense) {
	rows, _ := m.Dims()
	for r := 0; r < rows; r++ {
		SoftmaxInPlace(m.RawRowView(r))
	}
}
