package episode

import (
	"fmt"
)

// Pool owns one Buffer for each slot of a vectorized environment. The
// number of slots is fixed when the Pool is created.
type Pool struct {
	buffers []*Buffer
	ended   []bool
	usage   []Usage
}

// Usage counts, for one slot, the steps whose records still carried
// gradient when the slot's episodes were collected and the steps that
// had been severed by an intermediate update.
type Usage struct {
	Used   int
	Wasted int
}

// NewPool returns a new Pool of batchSize buffers, each with the given
// capacity.
func NewPool(batchSize, capacity int) (*Pool, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("newPool: batch size must be positive "+
			"(have %d)", batchSize)
	}

	buffers := make([]*Buffer, batchSize)
	for i := range buffers {
		b, err := NewBuffer(capacity)
		if err != nil {
			return nil, fmt.Errorf("newPool: %v", err)
		}
		buffers[i] = b
	}

	return &Pool{
		buffers: buffers,
		ended:   make([]bool, batchSize),
		usage:   make([]Usage, batchSize),
	}, nil
}

// BatchSize returns the number of slots in the Pool
func (p *Pool) BatchSize() int {
	return len(p.buffers)
}

// Buffer returns the Buffer of a slot
func (p *Pool) Buffer(slot int) (*Buffer, error) {
	if err := p.check("buffer", slot); err != nil {
		return nil, err
	}
	return p.buffers[slot], nil
}

// MarkEnded records that the episode in a slot ended at the current
// step.
func (p *Pool) MarkEnded(slot int) error {
	if err := p.check("markEnded", slot); err != nil {
		return err
	}
	p.ended[slot] = true
	return nil
}

// EpisodeEnded returns whether the episode in a slot has ended and the
// slot has not been cleared since.
func (p *Pool) EpisodeEnded(slot int) bool {
	if slot < 0 || slot >= len(p.ended) {
		return false
	}
	return p.ended[slot]
}

// Collect records the gradient usage of the episode in a slot: the
// number of its committed steps that are still linked and the number
// that were severed.
func (p *Pool) Collect(slot int) (Usage, error) {
	if err := p.check("collect", slot); err != nil {
		return Usage{}, err
	}

	b := p.buffers[slot]
	linked := 0
	for _, r := range b.records[:b.Len()] {
		if r.Linked {
			linked++
		}
	}
	u := Usage{Used: linked, Wasted: b.Len() - linked}
	p.usage[slot].Used += u.Used
	p.usage[slot].Wasted += u.Wasted
	return u, nil
}

// Usage returns the gradient usage accumulated in a slot
func (p *Pool) Usage(slot int) Usage {
	if slot < 0 || slot >= len(p.usage) {
		return Usage{}
	}
	return p.usage[slot]
}

// Clear clears the Buffer of a slot and its episode-ended flag
func (p *Pool) Clear(slot int) error {
	if err := p.check("clear", slot); err != nil {
		return err
	}
	p.buffers[slot].Clear()
	p.ended[slot] = false
	return nil
}

// ClearAll clears every Buffer in the Pool
func (p *Pool) ClearAll() {
	for i := range p.buffers {
		p.buffers[i].Clear()
		p.ended[i] = false
	}
}

// SeverAll severs the gradient linkage of every step in every Buffer
func (p *Pool) SeverAll() {
	for _, b := range p.buffers {
		b.Sever()
	}
}

// Steps returns the number of steps held in each slot, including steps
// awaiting a reward.
func (p *Pool) Steps() []int {
	steps := make([]int, len(p.buffers))
	for i, b := range p.buffers {
		steps[i] = len(b.records)
	}
	return steps
}

func (p *Pool) check(op string, slot int) error {
	if slot < 0 || slot >= len(p.buffers) {
		return NewInvalidState(op, "slot %d outside of pool of size %d",
			slot, len(p.buffers))
	}
	return nil
}
