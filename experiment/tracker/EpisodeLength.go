package tracker

import (
	"fmt"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment
type EpisodeLength struct {
	currentLengths []int
	episodeLengths []float64
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength Tracker which will save
// its data at the specified location filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track tracks the episode lengths in an experiment. The length of an
// episode is cached once its slot reports that it ended.
func (e *EpisodeLength) Track(step Step) error {
	if len(step.Rewards) != len(step.Done) {
		return fmt.Errorf("track: %d rewards but %d done flags",
			len(step.Rewards), len(step.Done))
	}
	if e.currentLengths == nil {
		e.currentLengths = make([]int, len(step.Done))
	} else if len(e.currentLengths) != len(step.Done) {
		return fmt.Errorf("track: number of slots changed from %d to %d",
			len(e.currentLengths), len(step.Done))
	}

	for slot, done := range step.Done {
		e.currentLengths[slot]++
		if done {
			e.episodeLengths = append(e.episodeLengths,
				float64(e.currentLengths[slot]))
			e.currentLengths[slot] = 0
		}
	}
	return nil
}

// Lengths returns the episode lengths tracked so far
func (e *EpisodeLength) Lengths() []float64 {
	return append([]float64(nil), e.episodeLengths...)
}

// Save saves the data tracked by the EpisodeLength Tracker to disk.
func (e *EpisodeLength) Save() error {
	if err := save(e.filename, e.episodeLengths); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
