// Package policyhead implements an on-policy, episodic REINFORCE policy
// for vectorized environments, whose episodes start and end at
// different times in each slot.
//
// At each step, a Head receives one representation per slot and the
// flags of which slots just finished an episode. It samples one action
// per slot from a softmax policy and buffers the representation and
// action of each slot. Rewards for those actions are given one call
// later. When an episode ends, the REINFORCE loss of its buffered steps
// is computed; once every slot has completed enough episodes, the
// policy's parameters are updated.
//
// Actions sampled before an update were produced by parameters that no
// longer exist after it. The steps of episodes still running at an
// update are therefore severed: they still count towards their
// episode's loss value, but no longer carry gradient.
package policyhead

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/crlearn/agent/nonlinear/discrete/policy"
	"github.com/samuelfneumann/crlearn/buffer/episode"
	"github.com/samuelfneumann/crlearn/environment"
	"github.com/samuelfneumann/crlearn/network"
	"github.com/samuelfneumann/crlearn/reinforce"
	"github.com/samuelfneumann/crlearn/solver"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// Mode is the mode a Head runs in
type Mode int

const (
	Training Mode = iota
	Evaluation
)

func (m Mode) String() string {
	if m == Evaluation {
		return "Evaluation"
	}
	return "Training"
}

// Head implements a REINFORCE policy over a batch of environment slots.
//
// The batch size is not known at construction. It is fixed by the
// first call to Forward and kept until the Head changes mode.
type Head struct {
	name        string
	gamma       float64
	window      int
	minEpisodes int
	features    int
	numActions  int
	seed        uint64
	logger      zerolog.Logger

	// Parameters are trained on net, which holds the training graph of
	// estimator. Actions are sampled by sampler, a copy of net sized to
	// the batch.
	net       network.NeuralNet
	estimator *reinforce.Estimator
	optimizer *solver.Optimizer
	strategy  Policy

	batchSize int
	sampler   *policy.Categorical
	pool      *episode.Pool
	scheduler *Scheduler
	inits     int

	mode    Mode
	loss    reinforce.Loss
	updates int
}

// New returns a new Head acting in an environment with the given
// action specification, on representations of the given number of
// features. The action space must be discrete.
func New(c Config, features int, actionSpec environment.Spec, seed uint64,
	logger zerolog.Logger) (*Head, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: invalid config: %v", err)
	}
	if features <= 0 {
		return nil, fmt.Errorf("new: number of features must be positive "+
			"(have %d)", features)
	}
	numActions, err := actionSpec.NumActions()
	if err != nil {
		return nil, fmt.Errorf("new: cannot use action space: %v", err)
	}

	name := c.Name
	if name == "" {
		name = "policy"
	}

	net, err := network.NewMultiHeadMLP(features, c.MaxEpisodeWindowLength,
		numActions, G.NewGraph(), c.HiddenSizes, c.Biases,
		c.InitWFn.InitWFn(), c.Activations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy network: %v",
			err)
	}

	estimator, err := reinforce.NewEstimator(net)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	optimizer, err := solver.NewOptimizer(c.Solver, net.Learnables())
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	var p Policy
	if c.AccumulateLossesBeforeBackward {
		p = NewAccumulate(name, estimator, optimizer)
	} else {
		p = NewImmediate(name, estimator, optimizer)
	}

	h := &Head{
		name:        name,
		gamma:       c.Gamma,
		window:      c.MaxEpisodeWindowLength,
		minEpisodes: c.MinEpisodesBeforeUpdate,
		features:    features,
		numActions:  numActions,
		seed:        seed,
		logger:      logger.With().Str("component", name).Logger(),
		net:         net,
		estimator:   estimator,
		optimizer:   optimizer,
		strategy:    p,
		mode:        Training,
		loss:        reinforce.NewLoss(name),
	}

	h.logger.Debug().
		Int("features", features).
		Int("actions", numActions).
		Int("window", h.window).
		Int("minEpisodes", h.minEpisodes).
		Float64("gamma", h.gamma).
		Bool("accumulate", c.AccumulateLossesBeforeBackward).
		Msg("created policy head")

	return h, nil
}

// init allocates everything which depends on the batch size
func (h *Head) init(batchSize int) error {
	pool, err := episode.NewPool(batchSize, h.window)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	scheduler, err := NewScheduler(batchSize, h.minEpisodes)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	// Each sampler gets its own stream of random numbers
	sampler, err := policy.NewCategorical(h.net, batchSize,
		h.seed+uint64(h.inits))
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	h.inits++

	h.batchSize = batchSize
	h.pool = pool
	h.scheduler = scheduler
	h.sampler = sampler

	h.logger.Debug().
		Int("batchSize", batchSize).
		Int("window", h.window).
		Msg("created episode buffers")
	return nil
}

// Forward samples one action for each slot given the representations
// of the current step, one row per slot. done[i] reports whether the
// episode in slot i ended at the previous step, in which case the row
// of slot i is the first representation of its next episode.
//
// In training mode, Forward first computes the loss of every episode
// that ended and, if an update is due, updates the policy before
// sampling.
//
// Calls must alternate: Forward, then GetLoss with the rewards of the
// sampled actions, then Forward again. The reward of a step arrives one
// call after its action, but it must arrive before the next action is
// sampled, otherwise the episode would have a step without a reward.
// Forward returns an *episode.InvalidStateError if any slot is still
// missing the reward of its previous action.
func (h *Head) Forward(done []bool, representations *mat.Dense) (
	policy.Actions, error) {
	rows, cols := representations.Dims()
	if cols != h.features {
		return policy.Actions{}, fmt.Errorf("forward: invalid number of "+
			"features\n\twant(%d)\n\thave(%d)", h.features, cols)
	}

	if h.batchSize == 0 {
		if err := h.init(rows); err != nil {
			return policy.Actions{}, fmt.Errorf("forward: %w", err)
		}
	} else if rows != h.batchSize {
		return policy.Actions{}, episode.NewInvalidState("forward",
			"batch size changed from %d to %d", h.batchSize, rows)
	}
	if len(done) != h.batchSize {
		return policy.Actions{}, episode.NewInvalidState("forward",
			"expected %d done flags but got %d", h.batchSize, len(done))
	}
	for slot := 0; slot < h.batchSize; slot++ {
		if buf, _ := h.pool.Buffer(slot); buf.Pending() != 0 {
			return policy.Actions{}, episode.NewInvalidState("forward",
				"slot %d is missing the reward of its previous action", slot)
		}
	}

	h.loss = reinforce.NewLoss(h.name)
	if h.mode == Training {
		if err := h.learn(done); err != nil {
			return policy.Actions{}, fmt.Errorf("forward: %w", err)
		}
	} else {
		for slot, d := range done {
			if d {
				if err := h.pool.Clear(slot); err != nil {
					return policy.Actions{}, fmt.Errorf("forward: %w", err)
				}
			}
		}
	}

	actions, err := h.sampler.Sample(representations)
	if err != nil {
		return policy.Actions{}, fmt.Errorf("forward: %w", err)
	}

	for slot := 0; slot < h.batchSize; slot++ {
		buf, err := h.pool.Buffer(slot)
		if err != nil {
			return policy.Actions{}, fmt.Errorf("forward: %w", err)
		}

		evicted := buf.Evicted()
		buf.AppendAction(representations.RawRowView(slot),
			episode.ActionRecord{
				Action:  actions.Actions[slot],
				LogProb: actions.LogProbs[slot],
				Logits:  append([]float64(nil), actions.Logits.RawRowView(slot)...),
				Linked:  h.mode == Training,
			})

		if evicted == 0 && buf.Evicted() > 0 {
			h.logger.Warn().
				Int("slot", slot).
				Int("window", h.window).
				Msg("episode longer than window, dropping its oldest steps")
		}
	}

	return actions, nil
}

// learn computes the losses of the episodes that ended and updates the
// policy if an update is due.
func (h *Head) learn(done []bool) error {
	for slot, d := range done {
		if !d {
			continue
		}
		if err := h.pool.MarkEnded(slot); err != nil {
			return err
		}
		if err := h.scheduler.Complete(slot); err != nil {
			return err
		}

		term, err := h.episodeTerm(slot)
		if err != nil {
			return err
		}
		if err := h.pool.Clear(slot); err != nil {
			return err
		}
		if term == nil {
			continue
		}

		loss, err := h.strategy.Fold(term)
		if err != nil {
			return err
		}
		h.loss = h.loss.Add(loss)
	}

	// Only checked after every slot has been processed
	if !h.scheduler.Ready() {
		return nil
	}

	pending := h.strategy.Pending()
	loss, err := h.strategy.Fire()
	if err != nil {
		return err
	}
	h.loss = h.loss.Add(loss)
	h.updates++

	h.scheduler.Reset()
	h.pool.SeverAll()
	if err := h.sampler.Sync(h.net); err != nil {
		return err
	}

	h.logger.Debug().
		Int("update", h.updates).
		Int("episodes", pending).
		Float64("loss", h.loss.Value).
		Msg("updated policy")
	return nil
}

// episodeTerm returns the loss of the episode which just ended in a
// slot, or nil if the episode is too short to have a loss.
func (h *Head) episodeTerm(slot int) (*reinforce.Term, error) {
	buf, err := h.pool.Buffer(slot)
	if err != nil {
		return nil, err
	}
	if buf.Empty() {
		h.logger.Debug().
			Int("slot", slot).
			Msg("episode ended with nothing buffered")
		return nil, nil
	}

	reps, records, rewards, err := buf.Stack()
	if err != nil {
		return nil, err
	}
	if len(records) <= 1 {
		h.logger.Warn().
			Int("slot", slot).
			Int("length", len(records)).
			Msg("episode is too short to compute a loss")
		return nil, nil
	}

	if _, err := h.pool.Collect(slot); err != nil {
		return nil, err
	}

	actions := make([]int, len(records))
	logProbs := make([]float64, len(records))
	linked := make([]bool, len(records))
	for i, r := range records {
		actions[i] = r.Action
		logProbs[i] = r.LogProb
		linked[i] = r.Linked
	}

	return reinforce.NewTerm(slot, reps, actions, logProbs, linked, rewards,
		h.gamma)
}

// GetLoss gives the rewards for the actions sampled by the last call
// to Forward, one per slot, and returns the loss whose gradient was
// computed during that call. The loss is zero if no gradient was
// computed.
func (h *Head) GetLoss(rewards []float64, batchSize int) (reinforce.Loss,
	error) {
	if h.batchSize == 0 {
		return reinforce.Loss{}, &episode.InvalidStateError{
			Op:  "getLoss",
			Err: episode.ErrBatchSizeUnset,
		}
	}
	if batchSize != h.batchSize {
		return reinforce.Loss{}, episode.NewInvalidState("getLoss",
			"batch size %d does not match batch size %d of the last "+
				"forward pass", batchSize, h.batchSize)
	}
	if len(rewards) != h.batchSize {
		return reinforce.Loss{}, episode.NewInvalidState("getLoss",
			"expected %d rewards but got %d", h.batchSize, len(rewards))
	}

	for slot, r := range rewards {
		buf, err := h.pool.Buffer(slot)
		if err != nil {
			return reinforce.Loss{}, fmt.Errorf("getLoss: %w", err)
		}
		if err := buf.AppendReward(r); err != nil {
			return reinforce.Loss{}, fmt.Errorf("getLoss: slot %d: %w", slot,
				err)
		}
	}

	return h.loss, nil
}

// TransitionMode switches the Head to a new mode. Changing mode clears
// every buffered episode, discards the episode losses not yet applied,
// and unsets the batch size, which the next call to Forward sets
// again. Transitioning to the current mode does nothing.
func (h *Head) TransitionMode(m Mode) error {
	if m != Training && m != Evaluation {
		return fmt.Errorf("transitionMode: unknown mode %d", m)
	}
	if m == h.mode {
		return nil
	}

	h.logger.Debug().
		Stringer("from", h.mode).
		Stringer("to", m).
		Int("discarded", h.strategy.Pending()).
		Msg("changing mode")

	h.mode = m
	if h.pool != nil {
		h.pool.ClearAll()
	}
	h.strategy.Reset()
	h.loss = reinforce.NewLoss(h.name)

	if h.sampler != nil {
		if err := h.sampler.Close(); err != nil {
			return fmt.Errorf("transitionMode: %w", err)
		}
	}
	h.sampler = nil
	h.pool = nil
	h.scheduler = nil
	h.batchSize = 0
	return nil
}

// Train switches the Head to training mode
func (h *Head) Train() error {
	return h.TransitionMode(Training)
}

// Eval switches the Head to evaluation mode
func (h *Head) Eval() error {
	return h.TransitionMode(Evaluation)
}

// IsEval returns whether the Head is in evaluation mode
func (h *Head) IsEval() bool {
	return h.mode == Evaluation
}

// Mode returns the current mode of the Head
func (h *Head) Mode() Mode {
	return h.mode
}

// BatchSize returns the batch size fixed by the first call to Forward,
// or 0 if it is not yet known.
func (h *Head) BatchSize() int {
	return h.batchSize
}

// Updates returns the number of parameter updates performed
func (h *Head) Updates() int {
	return h.updates
}

// Counts returns the episodes completed in each slot since the last
// update, or nil if the batch size is not yet known.
func (h *Head) Counts() []int {
	if h.scheduler == nil {
		return nil
	}
	return h.scheduler.Counts()
}

// Steps returns the number of steps buffered in each slot, or nil if
// the batch size is not yet known.
func (h *Head) Steps() []int {
	if h.pool == nil {
		return nil
	}
	return h.pool.Steps()
}

// Linked returns the number of steps in each slot which still carry
// gradient, or nil if the batch size is not yet known.
func (h *Head) Linked() []int {
	if h.pool == nil {
		return nil
	}
	linked := make([]int, h.batchSize)
	for slot := range linked {
		buf, _ := h.pool.Buffer(slot)
		linked[slot] = buf.Linked()
	}
	return linked
}

// GradientUsage returns the gradient usage accumulated in each slot
// since the batch size was last set.
func (h *Head) GradientUsage() []episode.Usage {
	if h.pool == nil {
		return nil
	}
	usage := make([]episode.Usage, h.batchSize)
	for slot := range usage {
		usage[slot] = h.pool.Usage(slot)
	}
	return usage
}

// Network returns the network whose parameters are trained
func (h *Head) Network() network.NeuralNet {
	return h.net
}

// Close releases the resources held by the Head
func (h *Head) Close() error {
	if h.sampler != nil {
		if err := h.sampler.Close(); err != nil {
			return fmt.Errorf("close: %w", err)
		}
	}
	if err := h.estimator.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
