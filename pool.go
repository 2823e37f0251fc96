package forksum

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
)

// Pools define a slice of in depth pools. A task submitted at some level runs in the first pool and
// receives the remaining ones, so that the tasks it forks run one level deeper.
type Pools struct {
	pools     []*ants.Pool
	recovered *recovered
}

// recovered keeps the first panic raised by a task, shared by every level of a Pools.
type recovered struct {
	once  sync.Once
	value atomic.Value
}

func (r *recovered) keep(p any) {
	if r == nil {
		panic(p)
	}
	r.once.Do(func() { r.value.Store(wrapPanic(p)) })
}

func (r *recovered) load() any {
	if r == nil {
		return nil
	}
	return r.value.Load()
}

// Release releases all the pools inside the pools.
func (p *Pools) Release() {
	if p == nil {
		return
	}
	for _, p := range p.pools {
		if p == nil {
			continue
		}
		p.Release()
	}
}

// ReleaseTimeout releases all the pools and waits at most timeout for each pool workers to exit.
func (p *Pools) ReleaseTimeout(timeout time.Duration) error {
	if p == nil {
		return nil
	}
	var errs []error
	for level, pool := range p.pools {
		if pool == nil {
			continue
		}
		if err := pool.ReleaseTimeout(timeout); err != nil {
			errs = append(errs, fmt.Errorf("level %d: %w", level, err))
		}
	}
	return errors.Join(errs...)
}

// Depth returns the number of levels left, including the levels running in their parent routine.
func (p *Pools) Depth() int {
	if p == nil {
		return 0
	}
	return len(p.pools)
}

// Recovered returns the first panic recovered from a task submitted to these pools, or nil.
func (p *Pools) Recovered() any {
	if p == nil {
		return nil
	}
	return p.recovered.load()
}

// NewPoolsWithOptions builds a depth pools with the size in parameters. If there is no size, no pools will be created and
// every task runs in its parent routine.
//
// A size of 0 means that the task pushed at this level will run in their parent routine (or alike).
func NewPoolsWithOptions(poolSizes []int, opts ...ants.Option) (*Pools, error) {
	var err error
	result := &Pools{
		recovered: &recovered{},
		pools: lo.FilterMap(poolSizes, func(size, level int) (pool *ants.Pool, ok bool) {
			if err != nil {
				return nil, false
			}
			switch {
			case size < 0:
				err = fmt.Errorf("%w: level %d has size %d", ErrInvalidWorkers, level, size)
			case size > 0: // size == 0 yields a nil pool: related tasks run in the parent routine
				pool, err = ants.NewPool(size, opts...)
			}
			return pool, err == nil
		}),
	}
	if err != nil {
		result.Release() // release eventually created pools
		return nil, err
	}
	return result, nil
}

// NewPools builds a depth pools with the size in parameters.
func NewPools(poolSizes ...int) (*Pools, error) {
	return NewPoolsWithOptions(poolSizes)
}

// Pipe allows to Pipe a channel in and out in the depth pool. It will execute the task in the current pool and pass the
// next level pool to the child task. The out channel is closed once every submitted task is done.
//
// A panicking task is recovered and kept in the pools, see Recovered. With nil pools there is nowhere to keep it: the
// panic is not recovered and kills the program.
func Pipe[IN, OUT any](dp *Pools, in <-chan IN, do func(*Pools, IN) OUT) <-chan OUT {
	out := make(chan OUT)

	go func() {
		var wg sync.WaitGroup
		for dispatch := range in {
			value := dispatch
			wg.Add(1)
			dp.submit(func(dp *Pools) {
				defer wg.Done()
				defer dp.keepPanic() // kept before Done, so it is visible once out is closed
				out <- do(dp, value)
			})
		}
		// Wait for all submitted task were done, to close out channel
		wg.Wait()
		close(out)
	}()

	return out
}

// submit submits a task to the pools. If the remaining pools are empty, it is blocking until the task complete.
func (p *Pools) submit(f func(*Pools)) {
	if p == nil || len(p.pools) == 0 {
		f(p) // If there is no more available pools or no pool at all, just do it in current routine
		return
	}
	currentPool := p.pools[0]
	childrenPools := &Pools{pools: p.pools[1:], recovered: p.recovered}
	if currentPool == nil {
		f(childrenPools) // If the current pool is nil, run in the current routine
		return
	}
	if err := currentPool.Submit(func() { f(childrenPools) }); err != nil {
		// Only a released or non blocking pool refuses a task. Run cannot observe it from here.
		panic(fmt.Errorf("submit task at depth %d: %w", p.Depth(), err))
	}
}

// keepPanic must be deferred by the routine running a task. It recovers a panic and keeps it in the pools, or lets it
// go on with nil pools.
func (p *Pools) keepPanic() {
	r := recover()
	if r == nil {
		return
	}
	if p == nil {
		panic(r)
	}
	p.recovered.keep(r)
}
