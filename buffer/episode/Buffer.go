// Package episode implements bounded per-environment buffers of the
// steps of the current episode in each slot of a vectorized
// environment.
package episode

import (
	"fmt"
)

// ActionRecord records an action sampled by a policy. LogProb and
// Logits were computed by the parameters that were live when the
// action was sampled; Linked reports whether those parameters are
// still live, so that the log probability still carries gradient.
type ActionRecord struct {
	Action  int
	LogProb float64
	Logits  []float64
	Linked  bool
}

// Severed returns a gradient-free copy of the record
func (a ActionRecord) Severed() ActionRecord {
	return ActionRecord{
		Action:  a.Action,
		LogProb: a.LogProb,
		Logits:  append([]float64(nil), a.Logits...),
		Linked:  false,
	}
}

// Step is one committed step of an episode
type Step struct {
	Representation []float64
	Record         ActionRecord
	Reward         float64
}

// Buffer holds the most recent steps of the current episode in one
// environment slot, up to a fixed capacity.
//
// A step is recorded in two parts: AppendAction records the
// representation and the sampled action, and AppendReward later
// attaches the reward received for that action. A step is committed
// once all three are present. When a new action would exceed the
// capacity, the oldest step is evicted whole, so that the
// representations, actions, and rewards always stay aligned. Eviction
// is silent: an episode longer than the capacity is truncated to its
// most recent steps.
type Buffer struct {
	capacity        int
	representations [][]float64
	records         []ActionRecord
	rewards         []float64
	evicted         int // Steps evicted since the last Clear
}

// NewBuffer returns a new, empty Buffer
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("newBuffer: capacity must be positive "+
			"(have %d)", capacity)
	}

	return &Buffer{
		capacity:        capacity,
		representations: make([][]float64, 0, capacity),
		records:         make([]ActionRecord, 0, capacity),
		rewards:         make([]float64, 0, capacity),
	}, nil
}

// AppendAction records the representation observed and the action
// taken at a new step. The representation is copied.
func (b *Buffer) AppendAction(representation []float64,
	record ActionRecord) {
	if len(b.records) == b.capacity {
		b.evict()
	}

	b.representations = append(b.representations,
		append([]float64(nil), representation...))
	b.records = append(b.records, record)
}

// AppendReward attaches a reward to the oldest step that has an action
// but no reward yet.
func (b *Buffer) AppendReward(reward float64) error {
	if len(b.rewards) >= len(b.records) {
		return NewInvalidState("appendReward", "no action awaiting a "+
			"reward (actions=%d, rewards=%d)", len(b.records),
			len(b.rewards))
	}
	b.rewards = append(b.rewards, reward)
	return nil
}

// evict removes the oldest step, shifting the remaining steps down so
// that the backing arrays are reused.
func (b *Buffer) evict() {
	n := len(b.records)
	copy(b.representations, b.representations[1:])
	b.representations[n-1] = nil
	b.representations = b.representations[:n-1]

	copy(b.records, b.records[1:])
	b.records[n-1] = ActionRecord{}
	b.records = b.records[:n-1]

	if m := len(b.rewards); m > 0 {
		copy(b.rewards, b.rewards[1:])
		b.rewards = b.rewards[:m-1]
	}
	b.evicted++
}

// Capacity returns the maximum number of steps held by the Buffer
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Len returns the number of committed steps
func (b *Buffer) Len() int {
	return len(b.rewards)
}

// Pending returns the number of steps whose reward has not yet been
// appended.
func (b *Buffer) Pending() int {
	return len(b.records) - len(b.rewards)
}

// Evicted returns the number of steps evicted since the last Clear
func (b *Buffer) Evicted() int {
	return b.evicted
}

// Empty returns whether the Buffer holds no steps, committed or not
func (b *Buffer) Empty() bool {
	return len(b.records) == 0
}

// Clear removes all steps from the Buffer. Its capacity is kept.
func (b *Buffer) Clear() {
	for i := range b.representations {
		b.representations[i] = nil
	}
	b.representations = b.representations[:0]
	b.records = b.records[:0]
	b.rewards = b.rewards[:0]
	b.evicted = 0
}

// Sever replaces every action record by a gradient-free copy. Steps
// are kept.
func (b *Buffer) Sever() {
	for i := range b.records {
		b.records[i] = b.records[i].Severed()
	}
}

// Linked returns the number of steps whose action record still carries
// gradient.
func (b *Buffer) Linked() int {
	n := 0
	for _, r := range b.records {
		if r.Linked {
			n++
		}
	}
	return n
}

// Steps returns the committed steps, oldest first
func (b *Buffer) Steps() []Step {
	steps := make([]Step, b.Len())
	for i := range steps {
		steps[i] = Step{
			Representation: b.representations[i],
			Record:         b.records[i],
			Reward:         b.rewards[i],
		}
	}
	return steps
}

// Stack returns the committed steps of the Buffer as parallel slices,
// oldest first. Stack returns an error if some step is still awaiting
// its reward, since the Buffer then does not hold a complete episode.
func (b *Buffer) Stack() (representations [][]float64,
	records []ActionRecord, rewards []float64, err error) {
	if b.Pending() != 0 {
		return nil, nil, nil, NewInvalidState("stack", "%d step(s) still "+
			"awaiting a reward", b.Pending())
	}

	representations = append([][]float64(nil), b.representations...)
	records = append([]ActionRecord(nil), b.records...)
	rewards = append([]float64(nil), b.rewards...)
	return representations, records, rewards, nil
}
