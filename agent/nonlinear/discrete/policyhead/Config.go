package policyhead

import (
	"fmt"

	"github.com/samuelfneumann/crlearn/initwfn"
	"github.com/samuelfneumann/crlearn/network"
	"github.com/samuelfneumann/crlearn/solver"
)

// Config implements a configuration for a policy Head
type Config struct {
	Name string

	// Policy network
	HiddenSizes []int
	Biases      []bool
	Activations []*network.Activation
	InitWFn     *initwfn.InitWFn
	Solver      *solver.Solver

	// Discount factor of the return
	Gamma float64

	// Maximum number of the most recent steps of an episode kept in
	// each slot. Longer episodes are truncated to their most recent
	// steps.
	MaxEpisodeWindowLength int

	// Minimum number of episodes each slot must complete before the
	// parameters are updated
	MinEpisodesBeforeUpdate int

	// If true, episode losses are summed and backpropagated together
	// when an update fires. Otherwise, each episode loss is
	// backpropagated as soon as its episode ends, and an update only
	// applies the accumulated gradients.
	AccumulateLossesBeforeBackward bool
}

// DefaultConfig returns a Config with two hidden ReLU layers of 64
// units, trained with Adam.
func DefaultConfig() (Config, error) {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return Config{}, fmt.Errorf("defaultConfig: %v", err)
	}
	s, err := solver.NewDefaultAdam(1e-3, 1)
	if err != nil {
		return Config{}, fmt.Errorf("defaultConfig: %v", err)
	}

	return Config{
		Name:                           "policy",
		HiddenSizes:                    []int{64, 64},
		Biases:                         []bool{true, true},
		Activations:                    []*network.Activation{network.ReLU(), network.ReLU()},
		InitWFn:                        init,
		Solver:                         s,
		Gamma:                          0.99,
		MaxEpisodeWindowLength:         1000,
		MinEpisodesBeforeUpdate:        1,
		AccumulateLossesBeforeBackward: true,
	}, nil
}

// Validate checks a Config for errors
func (c Config) Validate() error {
	if c.MaxEpisodeWindowLength <= 0 {
		return fmt.Errorf("maximum episode window length must be positive "+
			"(have %d)", c.MaxEpisodeWindowLength)
	}
	if c.MinEpisodesBeforeUpdate <= 0 {
		return fmt.Errorf("minimum episodes before update must be positive "+
			"(have %d)", c.MinEpisodesBeforeUpdate)
	}
	if c.Gamma <= 0 || c.Gamma > 1 {
		return fmt.Errorf("discount factor must be in (0, 1] (have %v)",
			c.Gamma)
	}

	if len(c.HiddenSizes) != len(c.Biases) {
		return fmt.Errorf("invalid number of biases\n\twant(%d)\n\thave(%d)",
			len(c.HiddenSizes), len(c.Biases))
	}
	if len(c.HiddenSizes) != len(c.Activations) {
		return fmt.Errorf("invalid number of activations\n\twant(%d)"+
			"\n\thave(%d)", len(c.HiddenSizes), len(c.Activations))
	}
	for i, size := range c.HiddenSizes {
		if size <= 0 {
			return fmt.Errorf("hidden layer %d must have positive size "+
				"(have %d)", i, size)
		}
	}

	if c.InitWFn == nil {
		return fmt.Errorf("no weight initializer")
	}
	if c.Solver == nil {
		return fmt.Errorf("no solver")
	}
	return nil
}
