package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// param pairs a learnable node with the gradient accumulated for it.
// It implements Gorgonia's ValueGrad so that the accumulated gradient,
// rather than the gradient of the most recent backward pass, is what a
// Solver applies.
type param struct {
	node *G.Node
	grad *tensor.Dense
}

// Value implements the G.Valuer interface
func (p *param) Value() G.Value {
	return p.node.Value()
}

// Grad implements the G.ValueGrad interface
func (p *param) Grad() (G.Value, error) {
	return p.grad, nil
}

// Optimizer applies gradients accumulated over any number of backward
// passes through a computational graph with a single Solver step.
//
// After each run of a tape machine that computes gradients of the
// learnables, Accumulate adds those gradients to the Optimizer's
// running sum. Step then updates the learnables with the Solver and
// clears the running sum. The Optimizer never runs a backward pass
// itself.
type Optimizer struct {
	solver *Solver
	params []*param
	model  []G.ValueGrad

	accumulated int // Backward passes accumulated since the last Step
	steps       int
}

// NewOptimizer returns a new Optimizer for the given learnables
func NewOptimizer(s *Solver, learnables G.Nodes) (*Optimizer, error) {
	if s == nil {
		return nil, fmt.Errorf("newOptimizer: nil solver")
	}
	if len(learnables) == 0 {
		return nil, fmt.Errorf("newOptimizer: no learnables to optimize")
	}

	params := make([]*param, len(learnables))
	model := make([]G.ValueGrad, len(learnables))
	for i, n := range learnables {
		grad := tensor.New(
			tensor.Of(tensor.Float64),
			tensor.WithShape(n.Shape().Clone()...),
		)
		params[i] = &param{node: n, grad: grad}
		model[i] = params[i]
	}

	return &Optimizer{
		solver: s,
		params: params,
		model:  model,
	}, nil
}

// Accumulate adds the gradients currently stored on the learnables to
// the running gradient sum, then zeroes the learnables' gradients so
// that the next backward pass starts fresh.
func (o *Optimizer) Accumulate() error {
	for _, p := range o.params {
		g, err := p.node.Grad()
		if err != nil {
			return fmt.Errorf("accumulate: could not get gradient of %v: %v",
				p.node.Name(), err)
		}
		grad, ok := g.(*tensor.Dense)
		if !ok {
			return fmt.Errorf("accumulate: gradient of %v is not dense: %T",
				p.node.Name(), g)
		}

		if _, err := p.grad.Add(grad, tensor.UseUnsafe()); err != nil {
			return fmt.Errorf("accumulate: %v", err)
		}
		grad.Zero()
	}
	o.accumulated++
	return nil
}

// Step applies the accumulated gradients with the Solver, then clears
// them.
func (o *Optimizer) Step() error {
	if err := o.solver.Step(o.model); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	o.ZeroGrad()
	o.steps++
	return nil
}

// ZeroGrad clears the accumulated gradients without updating any
// learnables.
func (o *Optimizer) ZeroGrad() {
	for _, p := range o.params {
		p.grad.Zero()
	}
	o.accumulated = 0
}

// Accumulated returns the number of backward passes accumulated since
// the last call to Step or ZeroGrad.
func (o *Optimizer) Accumulated() int {
	return o.accumulated
}

// Steps returns the number of updates the Optimizer has applied
func (o *Optimizer) Steps() int {
	return o.steps
}

// Gradients returns the accumulated gradient of each learnable, in the
// order the learnables were given to NewOptimizer. The returned slices
// are copies.
func (o *Optimizer) Gradients() [][]float64 {
	grads := make([][]float64, len(o.params))
	for i, p := range o.params {
		data := p.grad.Data().([]float64)
		grads[i] = append([]float64(nil), data...)
	}
	return grads
}
