package agent

import (
	"fmt"

	"golang.org/x/exp/rand"

	"hieragent/internal/nn"
	"hieragent/internal/tensor"
)

// SwitchPolicy decides between continuing the current sub-instruction and
// requesting a new one: summary (B, 256) -> (B, 2).
type SwitchPolicy struct {
	Head *nn.Linear
}

func NewSwitchPolicy(src rand.Source) *SwitchPolicy {
	return &SwitchPolicy{Head: nn.NewLinear(SummaryWidth, 2, src)}
}

func (p *SwitchPolicy) Forward(summary *tensor.Tensor) (*tensor.Tensor, error) {
	return categorical(p.Head, summary)
}

// InstructionPolicy selects the next sub-instruction and its target object
// through two independent heads sharing the summary input. The heads are
// separate distributions, not a joint one.
type InstructionPolicy struct {
	NumInstructions int
	NumObjects      int

	InstructionHead *nn.Linear
	ObjectHead      *nn.Linear
}

func NewInstructionPolicy(numInstructions, numObjects int, src rand.Source) (*InstructionPolicy, error) {
	if numInstructions <= 0 {
		return nil, fmt.Errorf("instruction count must be > 0, got %d", numInstructions)
	}
	if numObjects <= 0 {
		return nil, fmt.Errorf("object count must be > 0, got %d", numObjects)
	}
	return &InstructionPolicy{
		NumInstructions: numInstructions,
		NumObjects:      numObjects,
		InstructionHead: nn.NewLinear(SummaryWidth, numInstructions, src),
		ObjectHead:      nn.NewLinear(SummaryWidth, numObjects, src),
	}, nil
}

func (p *InstructionPolicy) Forward(summary *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
	instructions, err := categorical(p.InstructionHead, summary)
	if err != nil {
		return nil, nil, err
	}
	objects, err := categorical(p.ObjectHead, summary)
	if err != nil {
		return nil, nil, err
	}
	return instructions, objects, nil
}

// AugmentedPolicy produces the primitive action distribution:
// summary (B, 256) -> (B, num_actions).
type AugmentedPolicy struct {
	NumActions int

	Head *nn.Linear
}

func NewAugmentedPolicy(numActions int, src rand.Source) (*AugmentedPolicy, error) {
	if numActions <= 0 {
		return nil, fmt.Errorf("action count must be > 0, got %d", numActions)
	}
	return &AugmentedPolicy{
		NumActions: numActions,
		Head:       nn.NewLinear(SummaryWidth, numActions, src),
	}, nil
}

func (p *AugmentedPolicy) Forward(summary *tensor.Tensor) (*tensor.Tensor, error) {
	return categorical(p.Head, summary)
}

// categorical projects the summary through head and normalizes each row
// into a probability distribution.
func categorical(head *nn.Linear, summary *tensor.Tensor) (*tensor.Tensor, error) {
	shape := summary.Shape()
	if len(shape) != 2 || shape[1] != SummaryWidth {
		return nil, fmt.Errorf("summary shape mismatch: got=%v want=(B, %d)", shape, SummaryWidth)
	}
	m, err := summary.Matrix()
	if err != nil {
		return nil, err
	}
	logits, err := head.Forward(m)
	if err != nil {
		return nil, err
	}
	nn.SoftmaxRows(logits)
	return tensor.FromMatrix(logits), nil
}
