package experiment

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/crlearn/agent"
	"github.com/samuelfneumann/crlearn/environment/vector"
	"github.com/samuelfneumann/crlearn/experiment/checkpointer"
	"github.com/samuelfneumann/crlearn/experiment/tracker"
	"gonum.org/v1/gonum/stat"
)

// Vectorized is an Experiment that runs an agent online in a batch of
// environments stepped together. At each step, the agent selects one
// action per environment, the environments are stepped, and the agent
// is given the rewards. Environments whose episodes end are reset
// automatically, so the experiment is not broken into episodes.
//
// If evaluation steps are given, the agent is run in evaluation mode
// for that many steps after training. Evaluation data is not tracked.
type Vectorized struct {
	env   *vector.Sync
	agent agent.VectorAgent

	maxSteps     int
	evalSteps    int
	currentSteps int
	evalReturns  []float64

	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	logger        zerolog.Logger
}

// NewVectorized creates and returns a new Vectorized experiment. The
// steps parameter determines how many steps the agent is trained for,
// and evalSteps how many it is evaluated for afterwards.
func NewVectorized(env *vector.Sync, a agent.VectorAgent, steps,
	evalSteps int, logger zerolog.Logger, t []tracker.Tracker,
	c []checkpointer.Checkpointer) (*Vectorized, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("newVectorized: steps must be positive "+
			"(have %d)", steps)
	}
	if evalSteps < 0 {
		return nil, fmt.Errorf("newVectorized: evaluation steps cannot be "+
			"negative (have %d)", evalSteps)
	}

	return &Vectorized{
		env:           env,
		agent:         a,
		maxSteps:      steps,
		evalSteps:     evalSteps,
		trackers:      t,
		checkpointers: c,
		logger:        logger.With().Str("component", "experiment").Logger(),
	}, nil
}

// Agent returns the agent run in the experiment
func (v *Vectorized) Agent() agent.VectorAgent {
	return v.agent
}

// Steps returns the number of training steps taken so far
func (v *Vectorized) Steps() int {
	return v.currentSteps
}

// Register registers a tracker.Tracker with the experiment so that
// data generated during the experiment can be tracked and saved
func (v *Vectorized) Register(t tracker.Tracker) {
	v.trackers = append(v.trackers, t)
}

// AddCheckpointer adds a checkpointer.Checkpointer to the experiment
func (v *Vectorized) AddCheckpointer(c checkpointer.Checkpointer) {
	v.checkpointers = append(v.checkpointers, c)
}

// Run trains the agent for the maximum number of steps, then evaluates
// it if evaluation steps were given
func (v *Vectorized) Run() error {
	if err := v.agent.Train(); err != nil {
		return fmt.Errorf("run: %v", err)
	}

	obs := v.env.Reset()
	done := make([]bool, v.env.NumEnvs())
	for v.currentSteps < v.maxSteps {
		v.currentSteps++

		actions, err := v.agent.Forward(done, obs)
		if err != nil {
			return fmt.Errorf("run: step %d: %v", v.currentSteps, err)
		}

		var rewards []float64
		obs, rewards, done, err = v.env.Step(actions.Actions)
		if err != nil {
			return fmt.Errorf("run: step %d: %v", v.currentSteps, err)
		}

		loss, err := v.agent.GetLoss(rewards, v.env.NumEnvs())
		if err != nil {
			return fmt.Errorf("run: step %d: %v", v.currentSteps, err)
		}
		if !loss.IsZero() {
			v.logger.Info().
				Int("step", v.currentSteps).
				Float64("loss", loss.Value).
				Int("episodes", len(loss.Metrics.Episodes)).
				Float64("mean_return", loss.Metrics.MeanReturn()).
				Float64("mean_length", loss.Metrics.MeanLength()).
				Float64("gradient_fraction", loss.Metrics.Gradient.Fraction()).
				Msg("loss")
		}

		step := tracker.Step{
			Number:  v.currentSteps,
			Rewards: rewards,
			Done:    done,
			Loss:    loss,
		}
		if err := v.track(step); err != nil {
			return fmt.Errorf("run: %v", err)
		}
		if err := v.checkpoint(v.currentSteps); err != nil {
			return fmt.Errorf("run: %v", err)
		}
	}

	if v.evalSteps > 0 {
		returns, err := v.Evaluate(v.evalSteps)
		if err != nil {
			return fmt.Errorf("run: %v", err)
		}
		v.evalReturns = returns

		event := v.logger.Info().Int("episodes", len(returns))
		if len(returns) > 0 {
			event = event.Float64("mean_return", stat.Mean(returns, nil))
		}
		event.Msg("evaluation")
	}
	return nil
}

// Evaluate runs the agent in evaluation mode for the given number of
// steps from freshly reset environments and returns the returns of the
// episodes which finished. The agent is returned to training mode
// afterwards.
func (v *Vectorized) Evaluate(steps int) ([]float64, error) {
	if err := v.agent.Eval(); err != nil {
		return nil, fmt.Errorf("evaluate: %v", err)
	}

	returns := tracker.NewReturn("")
	obs := v.env.Reset()
	done := make([]bool, v.env.NumEnvs())
	for i := 1; i <= steps; i++ {
		actions, err := v.agent.Forward(done, obs)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %v", err)
		}

		var rewards []float64
		obs, rewards, done, err = v.env.Step(actions.Actions)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %v", err)
		}
		if _, err := v.agent.GetLoss(rewards, v.env.NumEnvs()); err != nil {
			return nil, fmt.Errorf("evaluate: %v", err)
		}

		step := tracker.Step{Number: i, Rewards: rewards, Done: done}
		if err := returns.Track(step); err != nil {
			return nil, fmt.Errorf("evaluate: %v", err)
		}
	}

	if err := v.agent.Train(); err != nil {
		return nil, fmt.Errorf("evaluate: %v", err)
	}
	return returns.Returns(), nil
}

// EvalReturns returns the episodic returns of the evaluation run after
// training
func (v *Vectorized) EvalReturns() []float64 {
	return append([]float64(nil), v.evalReturns...)
}

// Save saves all the data cached by the Trackers to disk
func (v *Vectorized) Save() error {
	for _, t := range v.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// Close releases the resources held by the agent
func (v *Vectorized) Close() error {
	return v.agent.Close()
}

// track sends the current step to each Tracker
func (v *Vectorized) track(step tracker.Step) error {
	for _, t := range v.trackers {
		if err := t.Track(step); err != nil {
			return fmt.Errorf("track: %v", err)
		}
	}
	return nil
}

// checkpoint checkpoints each object tracked by a Checkpointer
func (v *Vectorized) checkpoint(step int) error {
	for _, c := range v.checkpointers {
		if err := c.Checkpoint(step); err != nil {
			return fmt.Errorf("checkpoint: %v", err)
		}
	}
	return nil
}

var _ Experiment = &Vectorized{}
