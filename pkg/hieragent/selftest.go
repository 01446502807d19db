package hieragent

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"hieragent/internal/agent"
	"hieragent/internal/tensor"
)

// SelftestRequest parameterizes the staged pipeline check. Zero values
// fall back to the reference scenario: batch 10, four timesteps, a
// ten-word vocabulary, and 4/6/8 output arities.
type SelftestRequest struct {
	Batch           int
	Timesteps       int
	VocabularySize  int
	NumInstructions int
	NumObjects      int
	NumActions      int
	Seed            uint64
}

type SelftestStage struct {
	Name  string
	Shape []int
}

type SelftestReport struct {
	Spec       NetworkSpec
	Batch      int
	Timesteps  int
	Stages     []SelftestStage
	ParamCount int
}

// Selftest runs every stage of the forward pass on synthetic inputs and
// verifies the tensor contracts between them: the stage shapes and the
// probability-simplex property of all four output heads.
func (c *Client) Selftest(req SelftestRequest) (SelftestReport, error) {
	if req.Batch <= 0 {
		req.Batch = 10
	}
	if req.Timesteps <= 0 {
		req.Timesteps = 4
	}
	if req.VocabularySize <= 0 {
		req.VocabularySize = 10
	}
	if req.NumInstructions <= 0 {
		req.NumInstructions = 4
	}
	if req.NumObjects <= 0 {
		req.NumObjects = 6
	}
	if req.NumActions <= 0 {
		req.NumActions = 8
	}

	network, err := agent.New(agent.Config{
		VocabularySize:  req.VocabularySize,
		NumInstructions: req.NumInstructions,
		NumObjects:      req.NumObjects,
		NumActions:      req.NumActions,
		Seed:            req.Seed,
	})
	if err != nil {
		return SelftestReport{}, err
	}

	rng := rand.New(rand.NewSource(req.Seed + 1))
	frames := tensor.New(req.Batch, req.Timesteps, agent.FrameChannels, agent.FrameSize, agent.FrameSize)
	data := frames.Data()
	for i := range data {
		data[i] = rng.Float64()
	}
	instructions := make([][]int, req.Batch)
	for b := range instructions {
		tokens := make([]int, 3)
		for i := range tokens {
			tokens[i] = rng.Intn(req.VocabularySize)
		}
		instructions[b] = tokens
	}

	report := SelftestReport{
		Spec:       specFromNetwork(network),
		Batch:      req.Batch,
		Timesteps:  req.Timesteps,
		ParamCount: network.ParameterCount(),
	}
	stage := func(name string, t *tensor.Tensor) {
		report.Stages = append(report.Stages, SelftestStage{Name: name, Shape: t.Shape()})
	}
	stage("frames", frames)

	visual, err := network.Visual.Forward(frames)
	if err != nil {
		return SelftestReport{}, fmt.Errorf("visual encoder: %w", err)
	}
	stage("visual_features", visual)

	embedded, err := network.Instruction.Forward(instructions)
	if err != nil {
		return SelftestReport{}, fmt.Errorf("instruction encoder: %w", err)
	}
	stage("instruction_embedding", embedded)

	fused, err := agent.Fuse(visual, embedded)
	if err != nil {
		return SelftestReport{}, fmt.Errorf("fusion: %w", err)
	}
	stage("fused", fused)

	summary, err := network.Time.Forward(fused)
	if err != nil {
		return SelftestReport{}, fmt.Errorf("time encoder: %w", err)
	}
	stage("summary", summary)

	decision, err := network.Forward(frames, instructions)
	if err != nil {
		return SelftestReport{}, err
	}
	heads := []struct {
		name string
		out  *tensor.Tensor
	}{
		{"switch_probs", decision.Switch},
		{"instruction_probs", decision.Instruction},
		{"object_probs", decision.Object},
		{"action_probs", decision.Action},
	}
	for _, head := range heads {
		if err := checkSimplexRows(head.out); err != nil {
			return SelftestReport{}, fmt.Errorf("%s: %w", head.name, err)
		}
		stage(head.name, head.out)
	}
	return report, nil
}

func checkSimplexRows(t *tensor.Tensor) error {
	if t.Rank() != 2 {
		return fmt.Errorf("expected rank-2 output, got shape %v", t.Shape())
	}
	rows, cols := t.Dim(0), t.Dim(1)
	for r := 0; r < rows; r++ {
		sum := 0.0
		for c := 0; c < cols; c++ {
			v := t.At(r, c)
			if v < 0 {
				return fmt.Errorf("row %d has negative probability %g", r, v)
			}
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			return fmt.Errorf("row %d sums to %g, want 1", r, sum)
		}
	}
	return nil
}
