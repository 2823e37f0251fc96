package forksum

import "fmt"

// Task reduces the reciprocals of a range of a shared input. A task is computed once, either sequentially or by
// splitting into two halves whose values are added, left first.
type Task struct {
	Range
	input []float64 // read only, shared by every task of a reduction

	value float64
	done  bool

	left, right *Task // while split
}

// NewTask creates a pending task over r. It panics if r does not fit in input.
func NewTask(input []float64, r Range) *Task {
	if r.Low < 0 || r.Low > r.High || r.High > len(input) {
		panic(fmt.Sprintf("invalid range: %v for %d elements", r, len(input)))
	}
	return &Task{Range: r, input: input}
}

// Value returns the reciprocal sum of the task range, or 0 while the task is pending.
func (t *Task) Value() float64 {
	return t.value
}

// Done reports whether the task has been computed.
func (t *Task) Done() bool {
	return t.done
}

func (t *Task) finish(value float64) {
	if t.done {
		panic(fmt.Sprintf("task %v computed twice", t.Range))
	}
	t.value, t.done = value, true
}

// computeSequential is the base case. 1/0 yields +Inf and poisons the sum, like any other float division.
func (t *Task) computeSequential() {
	var sum float64
	for _, x := range t.input[t.Low:t.High] {
		sum += 1 / x
	}
	t.finish(sum)
}

// halves splits a task in its left and right halves, then adds their values.
var halves = Dispatch[*Task, *Task]{
	split: func(parent *Task, in chan<- *Task) {
		left, right := parent.Mid()
		parent.left, parent.right = NewTask(parent.input, left), NewTask(parent.input, right)
		in <- parent.left
		in <- parent.right
	},
	merge: func(parent *Task, out <-chan *Task) *Task {
		for range out {
			// children may complete in any order, they are added in range order below
		}
		parent.finish(parent.left.value + parent.right.value)
		parent.left, parent.right = nil, nil
		return parent
	},
}
