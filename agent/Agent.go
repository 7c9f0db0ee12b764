// Package agent defines the interface of agents acting in a batch of
// environments at once.
package agent

import (
	"github.com/samuelfneumann/crlearn/agent/nonlinear/discrete/policy"
	"github.com/samuelfneumann/crlearn/reinforce"
	"gonum.org/v1/gonum/mat"
)

// VectorAgent acts in a vectorized environment, one action per slot per
// step.
//
// At each step, Forward is given the representation of the current
// state in each slot, one row per slot, and whether the episode in
// each slot ended at the previous step. GetLoss is then given the
// reward received in each slot for the actions Forward sampled.
type VectorAgent interface {
	Forward(done []bool, representations *mat.Dense) (policy.Actions, error)
	GetLoss(rewards []float64, batchSize int) (reinforce.Loss, error)

	Train() error // Set agent to training mode
	Eval() error  // Set agent to evaluation mode
	IsEval() bool // Indicates if in evaluation mode

	Close() error
}
