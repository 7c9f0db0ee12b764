package reinforce

import (
	"fmt"

	"github.com/samuelfneumann/crlearn/network"
	"github.com/samuelfneumann/crlearn/solver"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Estimator computes REINFORCE gradients of episode losses with
// respect to the learnables of a categorical policy network.
//
// The network's batch size is the number of rows the Estimator can
// process in one backward pass. Each row holds one step: the input
// representation, a one-hot encoding of the action taken, and a
// weight. The loss of a pass is
//
//	-Σ_i weight_i * log π(action_i | representation_i)
//
// Each linked step of a Term contributes a row weighted by its return.
// Steps whose linkage was severed and padding rows are left out, so
// they never contribute gradient. Gradients of every pass are handed
// to a solver.Optimizer, which sums them until its next Step.
type Estimator struct {
	net        network.NeuralNet
	vm         G.VM
	actions    *G.Node
	weights    *G.Node
	logProbs   *G.Node
	loss       *G.Node
	logProbVal G.Value // Copy of logProbs taken by each run

	rows       int
	features   int
	numActions int
}

// NewEstimator adds the REINFORCE loss and its gradient to the graph of
// net, whose outputs are interpreted as the logits of a categorical
// distribution over actions.
func NewEstimator(net network.NeuralNet) (*Estimator, error) {
	g := net.Graph()
	logits := net.Prediction()[0]
	rows, numActions := logits.Shape()[0], logits.Shape()[1]

	actions := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(rows, numActions),
		G.WithName("Action Indices"),
		G.WithInit(G.Zeroes()),
	)
	weights := G.NewVector(
		g,
		tensor.Float64,
		G.WithShape(rows),
		G.WithName("Weights"),
		G.WithInit(G.Zeroes()),
	)

	selected := G.Must(G.HadamardProd(actions, logits))
	selected = G.Must(G.Sum(selected, 1))
	lse, err := LogSumExp(logits, 1)
	if err != nil {
		return nil, fmt.Errorf("newEstimator: %v", err)
	}
	logProbs := G.Must(G.Sub(selected, lse))

	loss := G.Must(G.HadamardProd(logProbs, weights))
	loss = G.Must(G.Sum(loss))
	loss = G.Must(G.Neg(loss))

	e := &Estimator{
		net:        net,
		actions:    actions,
		weights:    weights,
		logProbs:   logProbs,
		loss:       loss,
		rows:       rows,
		features:   net.Features(),
		numActions: numActions,
	}

	// Later ops may overwrite the value of logProbs in place
	G.Read(logProbs, &e.logProbVal)

	if _, err := G.Grad(loss, net.Learnables()...); err != nil {
		return nil, fmt.Errorf("newEstimator: could not compute gradient: "+
			"%v", err)
	}
	e.vm = G.NewTapeMachine(g, G.BindDualValues(net.Learnables()...))

	return e, nil
}

// LogSumExp adds the numerically stable log-sum-exp of logits along
// the given axis of a matrix to the graph.
func LogSumExp(logits *G.Node, along int) (*G.Node, error) {
	if !logits.IsMatrix() {
		return nil, fmt.Errorf("logSumExp: logits must be a matrix")
	}
	rows := logits.Shape()[0]

	// Max logit per row, reshaped to a column for broadcasting
	maxLogits, err := G.Max(logits, along)
	if err != nil {
		return nil, err
	}
	maxCol, err := G.Reshape(maxLogits, tensor.Shape{rows, 1})
	if err != nil {
		return nil, err
	}

	exponent := G.Must(G.BroadcastSub(logits, maxCol, nil, []byte{1}))
	exponent = G.Must(G.Exp(exponent))
	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Add(maxLogits, log)
}

// Rows returns the number of steps processed in a single backward
// pass.
func (e *Estimator) Rows() int {
	return e.rows
}

// Network returns the network whose learnables the Estimator
// differentiates.
func (e *Estimator) Network() network.NeuralNet {
	return e.net
}

// Backward computes the gradient of the sum of the Terms' losses and
// adds it to the Optimizer's accumulated gradient. The linked steps of
// all Terms are packed into as few passes of Rows() steps as possible.
// Backward returns the number of passes run.
func (e *Estimator) Backward(opt *solver.Optimizer, terms ...*Term) (int,
	error) {
	var (
		inputs  = make([]float64, 0, e.rows*e.features)
		actions = make([]float64, 0, e.rows*e.numActions)
		weights = make([]float64, 0, e.rows)
		passes  int
	)

	flush := func() error {
		if len(weights) == 0 {
			return nil
		}
		err := e.run(inputs, actions, weights)
		if err == nil {
			err = opt.Accumulate()
		}
		e.vm.Reset()
		if err != nil {
			return err
		}
		passes++
		inputs, actions, weights = inputs[:0], actions[:0], weights[:0]
		return nil
	}

	for _, term := range terms {
		for t := 0; t < term.Len(); t++ {
			if !term.Linked[t] {
				continue
			}
			if len(term.Representations[t]) != e.features {
				return passes, fmt.Errorf("backward: invalid representation "+
					"size\n\twant(%d)\n\thave(%d)", e.features,
					len(term.Representations[t]))
			}
			a := term.Actions[t]
			if a < 0 || a >= e.numActions {
				return passes, fmt.Errorf("backward: illegal action %d ∉ "+
					"[0, %d)", a, e.numActions)
			}

			inputs = append(inputs, term.Representations[t]...)
			oneHot := make([]float64, e.numActions)
			oneHot[a] = 1.0
			actions = append(actions, oneHot...)
			weights = append(weights, term.Returns[t])

			if len(weights) == e.rows {
				if err := flush(); err != nil {
					return passes, fmt.Errorf("backward: %v", err)
				}
			}
		}
	}

	if err := flush(); err != nil {
		return passes, fmt.Errorf("backward: %v", err)
	}
	return passes, nil
}

// LogProbs returns the log probability of each action given each
// representation under the current parameters. At most Rows() steps
// may be given.
func (e *Estimator) LogProbs(representations [][]float64,
	actions []int) ([]float64, error) {
	if len(representations) != len(actions) {
		return nil, fmt.Errorf("logProbs: got %d representations but %d "+
			"actions", len(representations), len(actions))
	}
	if len(actions) > e.rows {
		return nil, fmt.Errorf("logProbs: at most %d steps can be "+
			"evaluated at once (have %d)", e.rows, len(actions))
	}

	inputs := make([]float64, 0, len(actions)*e.features)
	oneHots := make([]float64, 0, len(actions)*e.numActions)
	for i, a := range actions {
		inputs = append(inputs, representations[i]...)
		oneHot := make([]float64, e.numActions)
		oneHot[a] = 1.0
		oneHots = append(oneHots, oneHot...)
	}
	defer e.vm.Reset()
	if err := e.run(inputs, oneHots, make([]float64, e.rows)); err != nil {
		return nil, fmt.Errorf("logProbs: %v", err)
	}

	// All weights are zero, so this pass leaves no gradient behind
	logProbs := e.logProbVal.Data().([]float64)
	return append([]float64(nil), logProbs[:len(actions)]...), nil
}

// run sets the inputs of the graph, padding each to Rows() rows with
// zeroes, and runs the forward and backward passes. The caller must
// reset the VM once it has read the results.
func (e *Estimator) run(inputs, actions, weights []float64) error {
	in := make([]float64, e.rows*e.features)
	copy(in, inputs)
	if err := e.net.SetInput(in); err != nil {
		return err
	}

	act := make([]float64, e.rows*e.numActions)
	copy(act, actions)
	actTensor := tensor.New(
		tensor.WithShape(e.rows, e.numActions),
		tensor.WithBacking(act),
	)
	if err := G.Let(e.actions, actTensor); err != nil {
		return err
	}

	w := make([]float64, e.rows)
	copy(w, weights)
	wTensor := tensor.New(tensor.WithShape(e.rows), tensor.WithBacking(w))
	if err := G.Let(e.weights, wTensor); err != nil {
		return err
	}

	return e.vm.RunAll()
}

// Close releases the resources held by the Estimator's VM
func (e *Estimator) Close() error {
	return e.vm.Close()
}
