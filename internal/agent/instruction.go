package agent

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"

	"hieragent/internal/nn"
	"hieragent/internal/tensor"
)

// Encoding selects how instruction token sequences are embedded.
type Encoding string

const (
	// EncodingBagOfWords sums per-token embeddings, discarding order.
	EncodingBagOfWords Encoding = "bag_of_words"
	// EncodingRecurrent is declared but not implemented. Forward calls
	// fail with ErrRecurrentEncoding instead of degrading to bag-of-words.
	EncodingRecurrent Encoding = "recurrent"
)

// ErrRecurrentEncoding signals that the recurrent instruction encoder was
// selected but is not implemented.
var ErrRecurrentEncoding = errors.New("recurrent instruction encoding is not implemented")

// InstructionEncoder turns a ragged batch of token id sequences into one
// fixed-width embedding per batch element.
type InstructionEncoder struct {
	VocabularySize int
	Mode           Encoding

	Embeddings *nn.EmbeddingBag
}

func NewInstructionEncoder(vocabularySize int, mode Encoding, src rand.Source) (*InstructionEncoder, error) {
	if vocabularySize <= 0 {
		return nil, fmt.Errorf("vocabulary size must be > 0, got %d", vocabularySize)
	}
	switch mode {
	case EncodingBagOfWords, EncodingRecurrent:
	default:
		return nil, fmt.Errorf("unsupported instruction encoding: %s", mode)
	}
	return &InstructionEncoder{
		VocabularySize: vocabularySize,
		Mode:           mode,
		Embeddings:     nn.NewEmbeddingBag(vocabularySize, InstructionWidth, src),
	}, nil
}

// Forward embeds every instruction in the batch, returning (B, 128).
// Instructions may differ in length; an empty instruction yields the zero
// vector.
func (e *InstructionEncoder) Forward(instructions [][]int) (*tensor.Tensor, error) {
	if e.Mode == EncodingRecurrent {
		return nil, ErrRecurrentEncoding
	}
	if len(instructions) == 0 {
		return nil, errors.New("instruction batch must not be empty")
	}

	out := tensor.New(len(instructions), InstructionWidth)
	for b, tokens := range instructions {
		row := out.Data()[b*InstructionWidth : (b+1)*InstructionWidth]
		if err := e.Embeddings.SumInto(row, tokens); err != nil {
			return nil, fmt.Errorf("embed instruction %d: %w", b, err)
		}
	}
	return out, nil
}
