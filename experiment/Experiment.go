// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/crlearn/agent"
	"github.com/samuelfneumann/crlearn/environment/envconfig"
	"github.com/samuelfneumann/crlearn/experiment/checkpointer"
	"github.com/samuelfneumann/crlearn/experiment/tracker"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments send the data of each step to Trackers, which cache the
// data and save it to disk when Save is called. This is usually
// performed after an experiment has been run. The Run() method runs
// the experiment until the maximum step limit is reached.
//
// New Trackers can be registered with an Experiment through the
// constructor or through an Experiment's Register() function.
type Experiment interface {
	Run() error

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)
}

// Type is the type of an experiment
type Type string

const (
	VectorizedExp Type = "VectorizedExperiment"
)

// Config represents a configuration of an experiment.
type Config struct {
	Type
	MaxSteps  uint
	EvalSteps uint // Evaluation steps taken after training, if any
	NumEnvs   int
	EnvConf   envconfig.Config
	AgentConf agent.TypedConfig
}

// Validate checks a Config for errors
func (c Config) Validate() error {
	if c.Type != VectorizedExp {
		return fmt.Errorf("no such experiment type %v", c.Type)
	}
	if c.MaxSteps == 0 {
		return fmt.Errorf("maximum number of steps must be positive")
	}
	if c.NumEnvs <= 0 {
		return fmt.Errorf("number of environments must be positive "+
			"(have %d)", c.NumEnvs)
	}
	if err := c.EnvConf.Validate(); err != nil {
		return fmt.Errorf("environment: %v", err)
	}
	return nil
}

// CreateExp creates the experiment described by the Config. The
// environments and the agent are seeded with seed.
func (c Config) CreateExp(seed uint64, logger zerolog.Logger,
	t []tracker.Tracker, check []checkpointer.Checkpointer) (*Vectorized,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createExp: %v", err)
	}

	env, err := c.EnvConf.CreateVector(c.NumEnvs, seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create environment: %v",
			err)
	}

	a, err := c.AgentConf.CreateAgent(env.Features(), env.ActionSpec(), seed,
		logger)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create agent: %v", err)
	}

	exp, err := NewVectorized(env, a, int(c.MaxSteps), int(c.EvalSteps),
		logger, t, check)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("createExp: %v", err)
	}
	return exp, nil
}
