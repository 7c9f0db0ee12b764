// Package policy implements discrete-action policies using neural
// network function approximation with Gorgonia.
package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/crlearn/network"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
)

// Actions are the actions sampled for a batch of environment slots.
// Row i of Logits holds the logits of the distribution that Actions[i]
// was sampled from, and LogProbs[i] the log probability of Actions[i]
// under that distribution.
type Actions struct {
	Actions  []int
	LogProbs []float64
	Logits   *mat.Dense
}

// Len returns the number of sampled actions
func (a Actions) Len() int {
	return len(a.Actions)
}

// Categorical implements a softmax policy over a discrete set of
// actions. The logits of the policy are predicted by a neural network
// with one output per action, which takes a batch of inputs: one row
// per environment slot.
//
// Categorical only runs the forward pass of its network. It does not
// learn. Weights are learned on a separate network, for example by a
// reinforce.Estimator, and copied into the policy with Sync.
type Categorical struct {
	net        network.NeuralNet
	vm         G.VM
	numActions int
	src        rand.Source
}

// NewCategorical returns a new Categorical policy acting on batches of
// batch inputs. The policy's network is a clone of source with the
// given batch size.
func NewCategorical(source network.NeuralNet, batch int,
	seed uint64) (*Categorical, error) {
	if batch <= 0 {
		return nil, fmt.Errorf("newCategorical: batch size must be positive"+
			" (have %d)", batch)
	}

	net, err := source.CloneWithBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("newCategorical: could not create policy "+
			"network: %v", err)
	}

	return &Categorical{
		net:        net,
		vm:         G.NewTapeMachine(net.Graph()),
		numActions: net.Outputs(),
		src:        rand.NewSource(seed),
	}, nil
}

// Sync copies the weights of source into the policy's network
func (c *Categorical) Sync(source network.NeuralNet) error {
	if err := c.net.Set(source); err != nil {
		return fmt.Errorf("sync: %v", err)
	}
	return nil
}

// BatchSize returns the number of inputs the policy acts on at once
func (c *Categorical) BatchSize() int {
	return c.net.BatchSize()
}

// NumActions returns the number of discrete actions
func (c *Categorical) NumActions() int {
	return c.numActions
}

// Network returns the policy's network
func (c *Categorical) Network() network.NeuralNet {
	return c.net
}

// Logits returns the logits predicted for each row of inputs
func (c *Categorical) Logits(inputs *mat.Dense) (*mat.Dense, error) {
	rows, cols := inputs.Dims()
	if rows != c.net.BatchSize() || cols != c.net.Features() {
		return nil, fmt.Errorf("logits: invalid input shape\n\twant(%d×%d)"+
			"\n\thave(%d×%d)", c.net.BatchSize(), c.net.Features(), rows, cols)
	}

	backing := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		backing = append(backing, inputs.RawRowView(i)...)
	}
	if err := c.net.SetInput(backing); err != nil {
		return nil, fmt.Errorf("logits: %v", err)
	}

	if err := c.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("logits: %v", err)
	}
	logits := c.net.Output()[0].Data().([]float64)
	out := mat.NewDense(rows, c.numActions, append([]float64(nil), logits...))
	c.vm.Reset()

	return out, nil
}

// Sample samples one action for each row of inputs
func (c *Categorical) Sample(inputs *mat.Dense) (Actions, error) {
	logits, err := c.Logits(inputs)
	if err != nil {
		return Actions{}, fmt.Errorf("sample: %v", err)
	}

	rows, _ := logits.Dims()
	actions := make([]int, rows)
	logProbs := make([]float64, rows)
	probs := make([]float64, c.numActions)

	for i := 0; i < rows; i++ {
		row := logits.RawRowView(i)
		lse := floats.LogSumExp(row)
		for j := range probs {
			probs[j] = math.Exp(row[j] - lse)
		}

		dist := distuv.NewCategorical(probs, c.src)
		actions[i] = int(dist.Rand())
		logProbs[i] = row[actions[i]] - lse
	}

	return Actions{
		Actions:  actions,
		LogProbs: logProbs,
		Logits:   logits,
	}, nil
}

// Close releases the resources held by the policy's VM
func (c *Categorical) Close() error {
	return c.vm.Close()
}
