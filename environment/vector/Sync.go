// Package vector implements batches of environments which are stepped
// together, one environment per slot.
package vector

import (
	"fmt"

	env "github.com/samuelfneumann/crlearn/environment"
	ts "github.com/samuelfneumann/crlearn/timestep"
	"gonum.org/v1/gonum/mat"
)

// Sync steps a batch of environments in lock-step. Each call to Step
// takes one action per environment and returns, for every slot, the
// next observation, the reward, and whether the episode in that slot
// ended.
//
// Environments are reset automatically: when the episode in a slot
// ends, the observation returned for that slot is the first
// observation of its next episode, and the done flag of the slot is
// set. Episodes in different slots therefore start and end at
// different times.
type Sync struct {
	envs     []env.Environment
	features int
	obs      *mat.Dense
	steps    []int // Steps taken in the current episode of each slot
	episodes []int // Episodes completed in each slot
}

// NewSync returns a new Sync over the given environments. All
// environments must have the same observation and action
// specifications.
func NewSync(envs []env.Environment) (*Sync, error) {
	if len(envs) == 0 {
		return nil, fmt.Errorf("newSync: no environments")
	}

	features := envs[0].ObservationSpec().Features()
	actions, err := envs[0].ActionSpec().NumActions()
	if err != nil {
		return nil, fmt.Errorf("newSync: %v", err)
	}
	for i, e := range envs[1:] {
		if f := e.ObservationSpec().Features(); f != features {
			return nil, fmt.Errorf("newSync: environment %d has incompatible "+
				"observations\n\twant(%d features)\n\thave(%d features)",
				i+1, features, f)
		}
		if n, err := e.ActionSpec().NumActions(); err != nil || n != actions {
			return nil, fmt.Errorf("newSync: environment %d has incompatible "+
				"actions\n\twant(%d actions)\n\thave(%d actions)", i+1,
				actions, n)
		}
	}

	return &Sync{
		envs:     envs,
		features: features,
		obs:      mat.NewDense(len(envs), features, nil),
		steps:    make([]int, len(envs)),
		episodes: make([]int, len(envs)),
	}, nil
}

// NumEnvs returns the number of environments in the batch
func (s *Sync) NumEnvs() int {
	return len(s.envs)
}

// Features returns the number of features in an observation
func (s *Sync) Features() int {
	return s.features
}

// ActionSpec returns the action specification shared by the
// environments.
func (s *Sync) ActionSpec() env.Spec {
	return s.envs[0].ActionSpec()
}

// ObservationSpec returns the observation specification shared by the
// environments.
func (s *Sync) ObservationSpec() env.Spec {
	return s.envs[0].ObservationSpec()
}

// Reset resets every environment and returns the first observation of
// each, one row per slot.
func (s *Sync) Reset() *mat.Dense {
	for i, e := range s.envs {
		step := e.Reset()
		s.obs.SetRow(i, step.Observation.RawVector().Data)
		s.steps[i] = 0
	}
	return mat.DenseCopyOf(s.obs)
}

// Step takes one action in each environment
func (s *Sync) Step(actions []int) (obs *mat.Dense, rewards []float64,
	done []bool, err error) {
	if len(actions) != len(s.envs) {
		return nil, nil, nil, fmt.Errorf("step: invalid number of actions"+
			"\n\twant(%d)\n\thave(%d)", len(s.envs), len(actions))
	}

	rewards = make([]float64, len(s.envs))
	done = make([]bool, len(s.envs))
	action := mat.NewVecDense(1, nil)

	for i, e := range s.envs {
		action.SetVec(0, float64(actions[i]))

		var step ts.TimeStep
		step, done[i] = e.Step(action)
		rewards[i] = step.Reward
		s.steps[i]++

		if done[i] {
			s.episodes[i]++
			s.steps[i] = 0
			step = e.Reset()
		}
		s.obs.SetRow(i, step.Observation.RawVector().Data)
	}

	return mat.DenseCopyOf(s.obs), rewards, done, nil
}

// Episodes returns the number of episodes completed in each slot
func (s *Sync) Episodes() []int {
	return append([]int(nil), s.episodes...)
}
