package agent

import (
	"fmt"

	"golang.org/x/exp/rand"

	"hieragent/internal/tensor"
)

// Config carries the construction-time options of the network. Everything
// else (feature widths, frame geometry) is fixed by the architecture.
type Config struct {
	VocabularySize  int
	Encoding        Encoding
	NumInstructions int
	NumObjects      int
	NumActions      int
	Seed            uint64
}

func (c Config) validate() error {
	if c.VocabularySize <= 0 {
		return fmt.Errorf("vocabulary size must be > 0, got %d", c.VocabularySize)
	}
	if c.NumInstructions <= 0 {
		return fmt.Errorf("instruction count must be > 0, got %d", c.NumInstructions)
	}
	if c.NumObjects <= 0 {
		return fmt.Errorf("object count must be > 0, got %d", c.NumObjects)
	}
	if c.NumActions <= 0 {
		return fmt.Errorf("action count must be > 0, got %d", c.NumActions)
	}
	return nil
}

// Decision holds the probability outputs of one forward pass. Switch is
// (B, 2), Instruction (B, num_instructions), Object (B, num_objects), and
// Action (B, num_actions); every row sums to one.
type Decision struct {
	Switch      *tensor.Tensor
	Instruction *tensor.Tensor
	Object      *tensor.Tensor
	Action      *tensor.Tensor
}

// Network composes the encoders, the temporal aggregator, and the three
// policy heads into one forward function. It is stateless across calls;
// the only mutable state are the learned parameters, which an external
// training harness owns and updates through Parameters/SetParameters.
type Network struct {
	Config Config

	Visual      *VisualEncoder
	Instruction *InstructionEncoder
	Time        *TimeEncoder
	Switch      *SwitchPolicy
	Hierarchy   *InstructionPolicy
	Augmented   *AugmentedPolicy
}

func New(cfg Config) (*Network, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Encoding == "" {
		cfg.Encoding = EncodingBagOfWords
	}

	src := rand.NewSource(cfg.Seed)
	instruction, err := NewInstructionEncoder(cfg.VocabularySize, cfg.Encoding, src)
	if err != nil {
		return nil, err
	}
	hierarchy, err := NewInstructionPolicy(cfg.NumInstructions, cfg.NumObjects, src)
	if err != nil {
		return nil, err
	}
	augmented, err := NewAugmentedPolicy(cfg.NumActions, src)
	if err != nil {
		return nil, err
	}

	return &Network{
		Config:      cfg,
		Visual:      NewVisualEncoder(src),
		Instruction: instruction,
		Time:        NewTimeEncoder(src),
		Switch:      NewSwitchPolicy(src),
		Hierarchy:   hierarchy,
		Augmented:   augmented,
	}, nil
}

// Forward maps a frame-sequence batch and the matching instruction batch to
// the three policy distributions. Every invocation recomputes all
// intermediate tensors from scratch.
func (n *Network) Forward(frames *tensor.Tensor, instructions [][]int) (*Decision, error) {
	if frames.Rank() == 5 && frames.Dim(0) != len(instructions) {
		return nil, fmt.Errorf("batch size mismatch: frames=%d instructions=%d", frames.Dim(0), len(instructions))
	}

	visual, err := n.Visual.Forward(frames)
	if err != nil {
		return nil, fmt.Errorf("visual encoder: %w", err)
	}
	embedded, err := n.Instruction.Forward(instructions)
	if err != nil {
		return nil, fmt.Errorf("instruction encoder: %w", err)
	}
	fused, err := Fuse(visual, embedded)
	if err != nil {
		return nil, fmt.Errorf("fusion: %w", err)
	}
	summary, err := n.Time.Forward(fused)
	if err != nil {
		return nil, fmt.Errorf("time encoder: %w", err)
	}

	switchProbs, err := n.Switch.Forward(summary)
	if err != nil {
		return nil, fmt.Errorf("switch policy: %w", err)
	}
	instructionProbs, objectProbs, err := n.Hierarchy.Forward(summary)
	if err != nil {
		return nil, fmt.Errorf("instruction policy: %w", err)
	}
	actionProbs, err := n.Augmented.Forward(summary)
	if err != nil {
		return nil, fmt.Errorf("augmented policy: %w", err)
	}

	return &Decision{
		Switch:      switchProbs,
		Instruction: instructionProbs,
		Object:      objectProbs,
		Action:      actionProbs,
	}, nil
}
