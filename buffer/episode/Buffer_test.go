package episode

import (
	"reflect"
	"testing"
)

func record(action int, linked bool) ActionRecord {
	return ActionRecord{
		Action:  action,
		LogProb: -float64(action),
		Logits:  []float64{0, float64(action)},
		Linked:  linked,
	}
}

func TestBufferCommit(t *testing.T) {
	b, err := NewBuffer(4)
	if err != nil {
		t.Fatal(err)
	}

	b.AppendAction([]float64{1, 2}, record(0, true))
	if b.Len() != 0 || b.Pending() != 1 {
		t.Errorf("step without reward should not be committed\n\twant(0, 1)"+
			"\n\thave(%v, %v)", b.Len(), b.Pending())
	}
	if _, _, _, err := b.Stack(); !IsInvalidState(err) {
		t.Errorf("expected invalid state error stacking incomplete episode, "+
			"have %v", err)
	}

	if err := b.AppendReward(1.5); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 1 {
		t.Errorf("step should be committed\n\twant(1)\n\thave(%v)", b.Len())
	}
	if err := b.AppendReward(2); !IsInvalidState(err) {
		t.Errorf("expected invalid state error on extra reward, have %v", err)
	}

	reps, recs, rewards, err := b.Stack()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(reps, [][]float64{{1, 2}}) {
		t.Errorf("incorrect representations\n\twant(%v)\n\thave(%v)",
			[][]float64{{1, 2}}, reps)
	}
	if recs[0].Action != 0 || !recs[0].Linked {
		t.Errorf("incorrect record\n\twant(%v)\n\thave(%v)", record(0, true),
			recs[0])
	}
	if !reflect.DeepEqual(rewards, []float64{1.5}) {
		t.Errorf("incorrect rewards\n\twant(%v)\n\thave(%v)",
			[]float64{1.5}, rewards)
	}
}

func TestBufferCopiesRepresentation(t *testing.T) {
	b, _ := NewBuffer(2)
	rep := []float64{1, 2}
	b.AppendAction(rep, record(1, true))
	rep[0] = 100

	if err := b.AppendReward(0); err != nil {
		t.Fatal(err)
	}
	reps, _, _, _ := b.Stack()
	if reps[0][0] != 1 {
		t.Errorf("buffer should own its representations\n\twant(1)"+
			"\n\thave(%v)", reps[0][0])
	}
}

func TestBufferWindow(t *testing.T) {
	const capacity = 3
	b, _ := NewBuffer(capacity)

	for i := 0; i < 5; i++ {
		b.AppendAction([]float64{float64(i)}, record(i, true))
		if err := b.AppendReward(float64(10 * i)); err != nil {
			t.Fatal(err)
		}
		if b.Len() > capacity {
			t.Fatalf("buffer exceeded its capacity\n\twant(<=%v)\n\thave(%v)",
				capacity, b.Len())
		}
	}

	reps, recs, rewards, err := b.Stack()
	if err != nil {
		t.Fatal(err)
	}

	// The most recent steps are kept, in order, and stay aligned
	for i := range reps {
		step := i + 2
		if reps[i][0] != float64(step) || recs[i].Action != step ||
			rewards[i] != float64(10*step) {
			t.Errorf("misaligned step %d\n\twant(%v, %v, %v)"+
				"\n\thave(%v, %v, %v)", i, step, step, 10*step, reps[i][0],
				recs[i].Action, rewards[i])
		}
	}
	if b.Evicted() != 2 {
		t.Errorf("incorrect number of evictions\n\twant(2)\n\thave(%v)",
			b.Evicted())
	}
}

func TestBufferEvictionWithPendingAction(t *testing.T) {
	b, _ := NewBuffer(2)
	b.AppendAction([]float64{0}, record(0, true))
	_ = b.AppendReward(0)
	b.AppendAction([]float64{1}, record(1, true))
	_ = b.AppendReward(1)

	// Evicts step 0 before the reward for step 2 arrives
	b.AppendAction([]float64{2}, record(2, true))
	if b.Len() != 1 || b.Pending() != 1 {
		t.Errorf("incorrect committed and pending steps\n\twant(1, 1)"+
			"\n\thave(%v, %v)", b.Len(), b.Pending())
	}
	_ = b.AppendReward(2)

	_, recs, rewards, err := b.Stack()
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Action != 1 || rewards[0] != 1 || recs[1].Action != 2 ||
		rewards[1] != 2 {
		t.Errorf("steps misaligned after eviction\n\thave(%v, %v)", recs,
			rewards)
	}
}

func TestBufferSever(t *testing.T) {
	b, _ := NewBuffer(4)
	b.AppendAction([]float64{0}, record(1, true))
	_ = b.AppendReward(1)
	b.AppendAction([]float64{0}, record(0, true))

	b.Sever()
	if b.Linked() != 0 {
		t.Errorf("all steps should be severed\n\twant(0)\n\thave(%v)",
			b.Linked())
	}

	_ = b.AppendReward(0)
	_, recs, _, _ := b.Stack()
	if recs[0].Action != 1 || recs[0].LogProb != -1 {
		t.Errorf("severing should keep the recorded action\n\twant(%v)"+
			"\n\thave(%v)", record(1, false), recs[0])
	}
}

func TestBufferSeveredCopiesLogits(t *testing.T) {
	r := record(3, true)
	s := r.Severed()
	s.Logits[0] = 42
	if r.Logits[0] == 42 {
		t.Errorf("severed record should not share logits with original")
	}
	if s.Linked {
		t.Errorf("severed record should not be linked")
	}
}

func TestBufferClear(t *testing.T) {
	b, _ := NewBuffer(1)
	b.AppendAction([]float64{0}, record(0, true))
	_ = b.AppendReward(0)
	b.AppendAction([]float64{1}, record(1, true))

	b.Clear()
	if !b.Empty() || b.Len() != 0 || b.Evicted() != 0 {
		t.Errorf("buffer should be empty after clear\n\thave(len=%v, "+
			"evicted=%v)", b.Len(), b.Evicted())
	}
	if b.Capacity() != 1 {
		t.Errorf("clear should keep capacity\n\twant(1)\n\thave(%v)",
			b.Capacity())
	}
}

func TestNewBufferInvalidCapacity(t *testing.T) {
	if _, err := NewBuffer(0); err == nil {
		t.Errorf("expected error for zero capacity")
	}
}
