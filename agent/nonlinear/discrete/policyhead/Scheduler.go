package policyhead

import (
	"fmt"

	"github.com/samuelfneumann/crlearn/buffer/episode"
)

// Scheduler decides when the policy parameters are updated. It counts
// the episodes completed in each slot since the last update; an update
// is due once every slot has completed at least the minimum number of
// episodes.
type Scheduler struct {
	minEpisodes int
	counts      []int
}

// NewScheduler returns a new Scheduler over batchSize slots
func NewScheduler(batchSize, minEpisodes int) (*Scheduler, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("newScheduler: batch size must be positive "+
			"(have %d)", batchSize)
	}
	if minEpisodes <= 0 {
		return nil, fmt.Errorf("newScheduler: minimum episodes must be "+
			"positive (have %d)", minEpisodes)
	}
	return &Scheduler{
		minEpisodes: minEpisodes,
		counts:      make([]int, batchSize),
	}, nil
}

// Complete records that an episode ended in a slot
func (s *Scheduler) Complete(slot int) error {
	if slot < 0 || slot >= len(s.counts) {
		return episode.NewInvalidState("complete", "slot %d outside of "+
			"batch of size %d", slot, len(s.counts))
	}
	s.counts[slot]++
	return nil
}

// Ready returns whether every slot has completed the minimum number of
// episodes since the last Reset.
func (s *Scheduler) Ready() bool {
	for _, c := range s.counts {
		if c < s.minEpisodes {
			return false
		}
	}
	return true
}

// Reset zeroes the counters of all slots
func (s *Scheduler) Reset() {
	for i := range s.counts {
		s.counts[i] = 0
	}
}

// Counts returns a copy of the episodes completed in each slot since
// the last Reset
func (s *Scheduler) Counts() []int {
	return append([]int(nil), s.counts...)
}
