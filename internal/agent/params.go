package agent

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"hieragent/internal/model"
	"hieragent/internal/nn"
	"hieragent/internal/tensor"
)

// paramRef points at the live backing slice of one learned tensor.
type paramRef struct {
	name  string
	shape []int
	data  []float64
}

func (n *Network) paramRefs() []paramRef {
	refs := make([]paramRef, 0, 24)
	add := func(name string, shape []int, data []float64) {
		refs = append(refs, paramRef{name: name, shape: shape, data: data})
	}
	addMatrix := func(name string, m *mat.Dense) {
		rows, cols := m.Dims()
		add(name, []int{rows, cols}, m.RawMatrix().Data)
	}
	addLinear := func(prefix string, l *nn.Linear) {
		addMatrix(prefix+".weight", l.Weight)
		add(prefix+".bias", []int{l.Out}, l.Bias)
	}
	addConv := func(prefix string, c *nn.Conv2D) {
		add(prefix+".weight", c.Weight.Shape(), c.Weight.Data())
		add(prefix+".bias", []int{c.OutChannels}, c.Bias)
	}

	addConv("visual.conv1", n.Visual.Conv1)
	addConv("visual.conv2", n.Visual.Conv2)
	addConv("visual.conv3", n.Visual.Conv3)
	addLinear("visual.proj", n.Visual.Proj)

	addMatrix("instruction.embeddings.weight", n.Instruction.Embeddings.Weight)

	cell := n.Time.Cell
	addMatrix("time.lstm.weight_input", cell.WeightInput)
	addMatrix("time.lstm.weight_hidden", cell.WeightHidden)
	add("time.lstm.bias_input", []int{4 * cell.HiddenSize}, cell.BiasInput)
	add("time.lstm.bias_hidden", []int{4 * cell.HiddenSize}, cell.BiasHidden)

	addLinear("switch_policy.head", n.Switch.Head)
	addLinear("instruction_policy.instruction_head", n.Hierarchy.InstructionHead)
	addLinear("instruction_policy.object_head", n.Hierarchy.ObjectHead)
	addLinear("augmented_policy.head", n.Augmented.Head)
	return refs
}

// Parameters returns a copy of every learned tensor under a stable dotted
// name. The external training harness owns updates; it writes them back
// through SetParameters.
func (n *Network) Parameters() []model.ParamTensor {
	refs := n.paramRefs()
	params := make([]model.ParamTensor, len(refs))
	for i, ref := range refs {
		params[i] = model.ParamTensor{
			Name:  ref.name,
			Shape: append([]int(nil), ref.shape...),
			Data:  append([]float64(nil), ref.data...),
		}
	}
	return params
}

// SetParameters replaces every learned tensor from a full named set. The
// set must cover each parameter exactly once with matching shapes.
func (n *Network) SetParameters(params []model.ParamTensor) error {
	byName := make(map[string]model.ParamTensor, len(params))
	for _, p := range params {
		if _, dup := byName[p.Name]; dup {
			return fmt.Errorf("duplicate parameter: %s", p.Name)
		}
		byName[p.Name] = p
	}

	refs := n.paramRefs()
	for _, ref := range refs {
		p, ok := byName[ref.name]
		if !ok {
			return fmt.Errorf("missing parameter: %s", ref.name)
		}
		if !tensor.ShapeEq(p.Shape, ref.shape) {
			return fmt.Errorf("parameter %s shape mismatch: got=%v want=%v", ref.name, p.Shape, ref.shape)
		}
		if len(p.Data) != len(ref.data) {
			return fmt.Errorf("parameter %s data length mismatch: got=%d want=%d", ref.name, len(p.Data), len(ref.data))
		}
		delete(byName, ref.name)
	}
	for name := range byName {
		return fmt.Errorf("unknown parameter: %s", name)
	}

	// All validated; copy in.
	byName = make(map[string]model.ParamTensor, len(params))
	for _, p := range params {
		byName[p.Name] = p
	}
	for _, ref := range refs {
		copy(ref.data, byName[ref.name].Data)
	}
	return nil
}

// ComponentCount reports the learned scalar count of one architecture
// component.
type ComponentCount struct {
	Name   string
	Params int
}

// ComponentCounts breaks the parameter budget down by component, in
// pipeline order.
func (n *Network) ComponentCounts() []ComponentCount {
	order := []string{"visual", "instruction", "time", "switch_policy", "instruction_policy", "augmented_policy"}
	counts := make(map[string]int, len(order))
	for _, ref := range n.paramRefs() {
		for _, prefix := range order {
			if len(ref.name) > len(prefix) && ref.name[:len(prefix)+1] == prefix+"." {
				counts[prefix] += len(ref.data)
				break
			}
		}
	}
	out := make([]ComponentCount, 0, len(order))
	for _, prefix := range order {
		out = append(out, ComponentCount{Name: prefix, Params: counts[prefix]})
	}
	return out
}

// ParameterCount returns the total number of learned scalars.
func (n *Network) ParameterCount() int {
	total := 0
	for _, ref := range n.paramRefs() {
		total += len(ref.data)
	}
	return total
}
