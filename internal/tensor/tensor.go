package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Tensor is a dense row-major N-dimensional array of float64 values.
// The last axis varies fastest, so a (B, T, F) tensor stores all F
// features of a timestep contiguously.
type Tensor struct {
	shape []int
	data  []float64
}

// New allocates a zero-filled tensor. Like mat.NewDense, it panics on a
// non-positive dimension; shape validity is a programming error, not input.
func New(shape ...int) *Tensor {
	size := checkShape(shape)
	return &Tensor{
		shape: append([]int(nil), shape...),
		data:  make([]float64, size),
	}
}

// Wrap builds a tensor view over an existing slice without copying.
// The slice length must match the shape product exactly.
func Wrap(data []float64, shape ...int) (*Tensor, error) {
	size := checkShape(shape)
	if len(data) != size {
		return nil, fmt.Errorf("tensor data length mismatch: got=%d want=%d", len(data), size)
	}
	return &Tensor{shape: append([]int(nil), shape...), data: data}, nil
}

// Shape returns a copy of the dimension sizes.
func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Rank returns the number of axes.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Dim returns the size of axis i.
func (t *Tensor) Dim(i int) int {
	return t.shape[i]
}

// Size returns the total element count.
func (t *Tensor) Size() int {
	return len(t.data)
}

// Data returns the backing slice. Mutations are visible to all views.
func (t *Tensor) Data() []float64 {
	return t.data
}

// At returns the element at the given multi-index.
func (t *Tensor) At(index ...int) float64 {
	return t.data[t.offset(index)]
}

// Set stores v at the given multi-index.
func (t *Tensor) Set(v float64, index ...int) {
	t.data[t.offset(index)] = v
}

// Reshape returns a view with a new shape sharing the same backing data.
// The element count must be preserved.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	size := checkShape(shape)
	if size != len(t.data) {
		return nil, fmt.Errorf("reshape size mismatch: got=%v want %d elements, have %d", shape, size, len(t.data))
	}
	return &Tensor{shape: append([]int(nil), shape...), data: t.data}, nil
}

// Sub returns a view of the subtensor selected by fixing the leading axes
// to the given indices. Sub(b, t) of a (B, T, C, H, W) tensor is the
// (C, H, W) block for batch element b at timestep t.
func (t *Tensor) Sub(index ...int) (*Tensor, error) {
	if len(index) >= len(t.shape) {
		return nil, fmt.Errorf("subtensor index rank %d must be below tensor rank %d", len(index), len(t.shape))
	}
	offset := 0
	stride := len(t.data)
	for i, idx := range index {
		stride /= t.shape[i]
		if idx < 0 || idx >= t.shape[i] {
			return nil, fmt.Errorf("subtensor index out of range: axis=%d index=%d size=%d", i, idx, t.shape[i])
		}
		offset += idx * stride
	}
	return &Tensor{
		shape: append([]int(nil), t.shape[len(index):]...),
		data:  t.data[offset : offset+stride],
	}, nil
}

// Matrix returns a gonum view of a rank-2 tensor sharing the backing data.
func (t *Tensor) Matrix() (*mat.Dense, error) {
	if len(t.shape) != 2 {
		return nil, fmt.Errorf("matrix view requires rank 2, got shape %v", t.shape)
	}
	return mat.NewDense(t.shape[0], t.shape[1], t.data), nil
}

// FromMatrix copies a gonum matrix into a fresh rank-2 tensor.
func FromMatrix(m *mat.Dense) *Tensor {
	rows, cols := m.Dims()
	out := New(rows, cols)
	for r := 0; r < rows; r++ {
		copy(out.data[r*cols:(r+1)*cols], m.RawRowView(r))
	}
	return out
}

// ShapeEq reports whether two shapes are identical.
func ShapeEq(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (t *Tensor) offset(index []int) int {
	if len(index) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index rank mismatch: got=%d want=%d", len(index), len(t.shape)))
	}
	offset := 0
	for i, idx := range index {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index out of range: axis=%d index=%d size=%d", i, idx, t.shape[i]))
		}
		offset = offset*t.shape[i] + idx
	}
	return offset
}

func checkShape(shape []int) int {
	if len(shape) == 0 {
		panic("tensor: shape must have at least one axis")
	}
	size := 1
	for _, dim := range shape {
		if dim <= 0 {
			panic(fmt.Sprintf("tensor: non-positive dimension %d in shape %v", dim, shape))
		}
		size *= dim
	}
	return size
}
