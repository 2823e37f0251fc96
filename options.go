package forksum

import (
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultThreshold is the range size below which a task sums sequentially.
	DefaultThreshold = 100_000
	// DefaultForkDepth is the number of pool levels available to forked tasks, below the top-level pool.
	DefaultForkDepth = 3
	// DefaultReleaseTimeout bounds the wait for the pool workers of a call to exit.
	DefaultReleaseTimeout = 5 * time.Second
)

type options struct {
	threshold int
	workers   int
	forkDepth int
	preAlloc  bool
	expiry    time.Duration
	logger    ants.Logger

	releaseTimeout time.Duration
}

// Option configures a Summer.
type Option func(*options)

// WithThreshold sets the range size at or below which a task stops splitting. It must be at least 1.
func WithThreshold(threshold int) Option {
	return func(o *options) { o.threshold = threshold }
}

// WithWorkers sets the size of every pool level. 0, the default, sizes the pools to the requested task count.
func WithWorkers(workers int) Option {
	return func(o *options) { o.workers = workers }
}

// WithForkDepth sets how many levels of forked tasks get their own pool. Deeper forks run in their parent routine,
// and a depth of 0 computes every top-level task sequentially.
func WithForkDepth(depth int) Option {
	return func(o *options) { o.forkDepth = depth }
}

// WithPreAlloc preallocates the workers of each pool.
func WithPreAlloc(preAlloc bool) Option {
	return func(o *options) { o.preAlloc = preAlloc }
}

// WithExpiry sets how long an idle worker is kept by its pool.
func WithExpiry(expiry time.Duration) Option {
	return func(o *options) { o.expiry = expiry }
}

// WithReleaseTimeout sets how long a call waits for its pool workers to exit.
func WithReleaseTimeout(timeout time.Duration) Option {
	return func(o *options) { o.releaseTimeout = timeout }
}

// WithLogger sets the logger of the pools, also used by the Summer to trace each call.
func WithLogger(logger ants.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func (o options) poolOptions() []ants.Option {
	opts := []ants.Option{ants.WithPreAlloc(o.preAlloc)}
	if o.expiry > 0 {
		opts = append(opts, ants.WithExpiryDuration(o.expiry))
	}
	if o.logger != nil {
		opts = append(opts, ants.WithLogger(o.logger))
	}
	return opts
}
