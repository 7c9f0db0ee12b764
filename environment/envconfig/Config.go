// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/crlearn/environment"
	"github.com/samuelfneumann/crlearn/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/crlearn/environment/classiccontrol/mountaincar"
	"github.com/samuelfneumann/crlearn/environment/vector"
	"gonum.org/v1/gonum/spatial/r1"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Cartpole    EnvName = "Cartpole"
	MountainCar EnvName = "MountainCar"
)

// TaskName stores the tasks that can be configured with this package.
// Note that not all tasks can be used with all environments. The tasks
// that can be used with each environment are as follows:
//
//	Environment			Task
//	Cartpole			Balance
//	MountainCar			Goal
type TaskName string

// Tasks available for configuration
const (
	Balance TaskName = "Balance"
	Goal    TaskName = "Goal"
)

// Config implements a specific configuration of a specific environment
// and specific task. Not all environments can have all tasks.
type Config struct {
	Environment   EnvName
	Task          TaskName
	EpisodeCutoff uint
	Discount      float64
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName, episodeCutoff uint,
	discount float64) Config {
	return Config{
		Environment:   envName,
		Task:          taskName,
		EpisodeCutoff: episodeCutoff,
		Discount:      discount,
	}
}

// Validate checks a Config for errors
func (c Config) Validate() error {
	if c.EpisodeCutoff == 0 {
		return fmt.Errorf("episode cutoff must be positive")
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1] (have %v)", c.Discount)
	}
	return nil
}

// Create returns the environment described by the Config
func (c Config) Create(seed uint64) (env.Environment, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	switch c.Environment {
	case Cartpole:
		return CreateCartpole(c.Task, int(c.EpisodeCutoff), seed, c.Discount)

	case MountainCar:
		return CreateMountainCar(c.Task, int(c.EpisodeCutoff), seed,
			c.Discount)
	}

	return nil, fmt.Errorf("create: cannot create environment %v, no such "+
		"environment", c.Environment)
}

// CreateVector returns n copies of the environment described by the
// Config stepped together. Each copy samples its starting states with
// a different seed.
func (c Config) CreateVector(n int, seed uint64) (*vector.Sync, error) {
	if n <= 0 {
		return nil, fmt.Errorf("createVector: number of environments must "+
			"be positive (have %d)", n)
	}

	envs := make([]env.Environment, n)
	for i := range envs {
		e, err := c.Create(seed + uint64(i))
		if err != nil {
			return nil, fmt.Errorf("createVector: %v", err)
		}
		envs[i] = e
	}
	return vector.NewSync(envs)
}

// CreateCartpole is a factory for creating the Cartpole environment
// with default physical parameters and default task parameters.
func CreateCartpole(taskName TaskName, cutoff int, seed uint64,
	discount float64) (env.Environment, error) {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s, err := env.NewUniformStarter([]r1.Interval{
		bounds,
		bounds,
		bounds,
		bounds,
	}, seed)
	if err != nil {
		return nil, fmt.Errorf("createCartpole: %v", err)
	}

	var task env.Task
	switch taskName {
	case Balance:
		task, err = cartpole.NewBalance(s, cutoff, cartpole.FailAngle)
		if err != nil {
			return nil, fmt.Errorf("createCartpole: %v", err)
		}

	default:
		return nil, fmt.Errorf("createCartpole: Cartpole environment has "+
			"no task %v", taskName)
	}

	c, _, err := cartpole.New(task, discount)
	if err != nil {
		return nil, fmt.Errorf("createCartpole: %v", err)
	}
	return c, nil
}

// CreateMountainCar is a factory for creating the Mountain Car
// environment with default physical parameters and default task
// parameters.
func CreateMountainCar(taskName TaskName, cutoff int, seed uint64,
	discount float64) (env.Environment, error) {
	s, err := env.NewUniformStarter([]r1.Interval{
		{Min: -0.6, Max: -0.4},
		{Min: 0.0, Max: 0.0},
	}, seed)
	if err != nil {
		return nil, fmt.Errorf("createMountainCar: %v", err)
	}

	var task env.Task
	switch taskName {
	case Goal:
		task, err = mountaincar.NewGoal(s, cutoff, mountaincar.GoalPosition)
		if err != nil {
			return nil, fmt.Errorf("createMountainCar: %v", err)
		}

	default:
		return nil, fmt.Errorf("createMountainCar: Mountain Car environment "+
			"has no task %v", taskName)
	}

	m, _, err := mountaincar.New(task, discount)
	if err != nil {
		return nil, fmt.Errorf("createMountainCar: %v", err)
	}
	return m, nil
}
