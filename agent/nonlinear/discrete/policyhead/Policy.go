package policyhead

import (
	"fmt"

	"github.com/samuelfneumann/crlearn/reinforce"
	"github.com/samuelfneumann/crlearn/solver"
)

// Policy determines how episode losses become parameter updates. Fold
// is called with the loss of each completed episode, and Fire when an
// update is due. Fire applies exactly one optimizer step.
//
// The Loss returned by Fold and Fire is the part of the loss whose
// gradient was computed during that call.
type Policy interface {
	Fold(*reinforce.Term) (reinforce.Loss, error)
	Fire() (reinforce.Loss, error)

	// Pending returns the number of folded episodes not yet applied
	Pending() int

	// Reset discards everything folded since the last Fire
	Reset()
}

// Accumulate sums episode losses until an update is due. At the
// update, gradients are computed once over all pending episodes and
// then applied.
type Accumulate struct {
	name      string
	estimator *reinforce.Estimator
	optimizer *solver.Optimizer

	pending []*reinforce.Term
	loss    reinforce.Loss
}

// NewAccumulate returns a new Accumulate policy
func NewAccumulate(name string, e *reinforce.Estimator,
	opt *solver.Optimizer) *Accumulate {
	return &Accumulate{
		name:      name,
		estimator: e,
		optimizer: opt,
		loss:      reinforce.NewLoss(name),
	}
}

// Fold adds an episode loss to the pending loss
func (a *Accumulate) Fold(t *reinforce.Term) (reinforce.Loss, error) {
	a.pending = append(a.pending, t)
	a.loss = a.loss.Add(t.Loss(a.name))
	return reinforce.NewLoss(a.name), nil
}

// Fire backpropagates the pending loss and updates the parameters
func (a *Accumulate) Fire() (reinforce.Loss, error) {
	a.optimizer.ZeroGrad()
	if _, err := a.estimator.Backward(a.optimizer, a.pending...); err != nil {
		return reinforce.Loss{}, fmt.Errorf("fire: %v", err)
	}
	if err := a.optimizer.Step(); err != nil {
		return reinforce.Loss{}, fmt.Errorf("fire: %v", err)
	}

	loss := a.loss
	a.Reset()
	return loss, nil
}

// Pending implements the Policy interface
func (a *Accumulate) Pending() int {
	return len(a.pending)
}

// Reset implements the Policy interface
func (a *Accumulate) Reset() {
	for i := range a.pending {
		a.pending[i] = nil
	}
	a.pending = a.pending[:0]
	a.loss = reinforce.NewLoss(a.name)
}

// Immediate backpropagates each episode loss as soon as it is folded.
// Gradients accumulate in the optimizer until an update is due, when
// they are applied.
type Immediate struct {
	name      string
	estimator *reinforce.Estimator
	optimizer *solver.Optimizer
	pending   int
}

// NewImmediate returns a new Immediate policy
func NewImmediate(name string, e *reinforce.Estimator,
	opt *solver.Optimizer) *Immediate {
	return &Immediate{
		name:      name,
		estimator: e,
		optimizer: opt,
	}
}

// Fold backpropagates an episode loss
func (i *Immediate) Fold(t *reinforce.Term) (reinforce.Loss, error) {
	if _, err := i.estimator.Backward(i.optimizer, t); err != nil {
		return reinforce.Loss{}, fmt.Errorf("fold: %v", err)
	}
	i.pending++
	return t.Loss(i.name), nil
}

// Fire applies the accumulated gradients
func (i *Immediate) Fire() (reinforce.Loss, error) {
	if err := i.optimizer.Step(); err != nil {
		return reinforce.Loss{}, fmt.Errorf("fire: %v", err)
	}
	i.pending = 0
	return reinforce.NewLoss(i.name), nil
}

// Pending implements the Policy interface
func (i *Immediate) Pending() int {
	return i.pending
}

// Reset implements the Policy interface
func (i *Immediate) Reset() {
	i.optimizer.ZeroGrad()
	i.pending = 0
}
