package forksum

import (
	"fmt"

	"github.com/samber/lo"
)

// Summer computes reciprocal sums with a fork/join reduction. A Summer only holds its configuration: the pools of a
// call are created and released by that call, so a Summer can be used concurrently.
type Summer struct {
	options
	fork PoolProcess[*Task]
}

// NewSummer creates a Summer from options.
func NewSummer(opts ...Option) (*Summer, error) {
	o := options{
		threshold:      DefaultThreshold,
		forkDepth:      DefaultForkDepth,
		releaseTimeout: DefaultReleaseTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case o.threshold < 1:
		return nil, fmt.Errorf("%w: %d, must be at least 1", ErrInvalidThreshold, o.threshold)
	case o.workers < 0:
		return nil, fmt.Errorf("%w: %d, must be positive or 0 for one per task", ErrInvalidWorkers, o.workers)
	case o.forkDepth < 0:
		return nil, fmt.Errorf("%w: %d, must be positive or 0", ErrInvalidForkDepth, o.forkDepth)
	case o.releaseTimeout <= 0:
		return nil, fmt.Errorf("%w: %v, must be positive", ErrInvalidReleaseTimeout, o.releaseTimeout)
	}
	s := &Summer{options: o}
	s.fork = Wrap(s.compute, halves)
	return s, nil
}

// compute reduces a task and returns it done.
func (s *Summer) compute(pool *Pools, t *Task) *Task {
	if t.Len() <= s.threshold {
		t.computeSequential()
		return t
	}
	return s.fork(pool, t)
}

// poolSizes returns the size of the top-level pool followed by the fork levels.
func (s *Summer) poolSizes(numTasks int) []int {
	workers := s.workers
	if workers == 0 {
		workers = numTasks
	}
	return lo.Times(s.forkDepth+1, func(int) int { return workers })
}

// SumN sums the reciprocals of input split in numTasks chunks, each reduced by its own top-level task.
//
// The result only depends on input, numTasks and the threshold: workers and fork depth change how the task tree is
// scheduled, never its shape nor the order values are added.
//
// Every pool worker has exited when SumN returns, or SumN returns an error once the release timeout is over.
func (s *Summer) SumN(input []float64, numTasks int) (sum float64, err error) {
	if numTasks < 1 {
		return 0, fmt.Errorf("%w: %d, must be at least 1", ErrInvalidTaskCount, numTasks)
	}
	sizes := s.poolSizes(numTasks)
	pools, err := NewPoolsWithOptions(sizes, s.poolOptions()...)
	if err != nil {
		return 0, fmt.Errorf("create pools %v: %w", sizes, err)
	}
	defer func() {
		if releaseErr := pools.ReleaseTimeout(s.releaseTimeout); releaseErr != nil && err == nil {
			err = fmt.Errorf("release pools %v: %w", sizes, releaseErr)
		}
	}()

	tasks := lo.Map(Chunks(numTasks, len(input)), func(r Range, _ int) *Task {
		return NewTask(input, r)
	})
	proc := s.compute
	if s.logger != nil {
		proc = Link(proc, AsPoolProcess(s.trace))
	}
	Run(pools, lo.SliceToChannel(0, tasks), proc)

	sum = lo.SumBy(tasks, (*Task).Value)
	if s.logger != nil {
		s.logger.Printf("forksum: %d elements in %d tasks on pools %v: %v", len(input), numTasks, sizes, sum)
	}
	return sum, nil
}

func (s *Summer) trace(t *Task) *Task {
	s.logger.Printf("forksum: task %v done: %v", t.Range, t.Value())
	return t
}

// SequentialSum returns the sum of the reciprocals of input, added in index order.
func SequentialSum(input []float64) float64 {
	return lo.SumBy(input, func(x float64) float64 { return 1 / x })
}

var defaultSummer = lo.Must(NewSummer())

// ParallelSumN sums the reciprocals of input in numTasks parallel chunks with the default configuration. It panics if
// numTasks is less than 1.
func ParallelSumN(input []float64, numTasks int) float64 {
	return lo.Must(defaultSummer.SumN(input, numTasks))
}

// ParallelSum sums the reciprocals of input in two parallel chunks. Inputs of odd length are accepted, the second
// chunk being one element shorter.
func ParallelSum(input []float64) float64 {
	return ParallelSumN(input, 2)
}
