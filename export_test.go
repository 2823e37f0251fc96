package forksum

import "github.com/panjf2000/ants/v2"

// Pools returns the underlying pools
func (p *Pools) Pools() []*ants.Pool {
	if p == nil {
		return nil
	}
	return p.pools
}

// Compute reduces t with the Summer configuration and pools.
func (s *Summer) Compute(pool *Pools, t *Task) *Task {
	return s.compute(pool, t)
}

// PoolSizes returns the pool sizes of a call with numTasks tasks.
func (s *Summer) PoolSizes(numTasks int) []int {
	return s.poolSizes(numTasks)
}

// Halves exposes the halving dispatch of tasks.
var Halves = halves
