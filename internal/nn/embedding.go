package nn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// EmbeddingBag maps token id sequences to the sum of their embedding rows.
// Order is discarded and duplicate tokens contribute once per occurrence.
type EmbeddingBag struct {
	NumEmbeddings int
	Dim           int

	// Weight is NumEmbeddings×Dim.
	Weight *mat.Dense
}

func NewEmbeddingBag(numEmbeddings, dim int, src rand.Source) *EmbeddingBag {
	weight := make([]float64, numEmbeddings*dim)
	GaussianFill(weight, fanInSigma(dim), src)
	return &EmbeddingBag{
		NumEmbeddings: numEmbeddings,
		Dim:           dim,
		Weight:        mat.NewDense(numEmbeddings, dim, weight),
	}
}

// SumInto accumulates the embeddings of tokens into dst, which is zeroed
// first. An empty token list leaves dst at zero; that is a valid bag.
func (e *EmbeddingBag) SumInto(dst []float64, tokens []int) error {
	if len(dst) != e.Dim {
		return fmt.Errorf("embedding destination width mismatch: got=%d want=%d", len(dst), e.Dim)
	}
	for i := range dst {
		dst[i] = 0
	}
	for _, token := range tokens {
		if token < 0 || token >= e.NumEmbeddings {
			return fmt.Errorf("token id out of range: id=%d vocabulary=%d", token, e.NumEmbeddings)
		}
		floats.Add(dst, e.Weight.RawRowView(token))
	}
	return nil
}
