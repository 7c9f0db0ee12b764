package tracker

import (
	"fmt"
)

// Return tracks and saves the episodic return in an experiment. The
// rewards of each slot are accumulated separately, and the return of
// an episode is recorded when its slot reports that it ended. Returns
// are saved in the order their episodes ended.
//
// Note: An episode must finish for this Tracker to save its data.
// Episodes still running when the experiment ends are not saved.
type Return struct {
	currentReturns []float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) *Return {
	return &Return{filename: filename}
}

// Track tracks the rewards seen in each slot on a step
func (r *Return) Track(step Step) error {
	if len(step.Rewards) != len(step.Done) {
		return fmt.Errorf("track: %d rewards but %d done flags",
			len(step.Rewards), len(step.Done))
	}
	if r.currentReturns == nil {
		r.currentReturns = make([]float64, len(step.Rewards))
	} else if len(r.currentReturns) != len(step.Rewards) {
		return fmt.Errorf("track: number of slots changed from %d to %d",
			len(r.currentReturns), len(step.Rewards))
	}

	for slot, reward := range step.Rewards {
		r.currentReturns[slot] += reward
		if step.Done[slot] {
			r.episodeReturns = append(r.episodeReturns, r.currentReturns[slot])
			r.currentReturns[slot] = 0
		}
	}
	return nil
}

// Returns returns the episodic returns tracked so far
func (r *Return) Returns() []float64 {
	return append([]float64(nil), r.episodeReturns...)
}

// Save saves the data tracked by the Return Tracker to disk.
func (r *Return) Save() error {
	if err := save(r.filename, r.episodeReturns); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
