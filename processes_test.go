package forksum_test

import (
	"testing"
	"time"

	"github.com/fogfactory/forksum"
	"github.com/maxatome/go-testdeep/td"
	"github.com/samber/lo"
)

func TestProcesses(t *testing.T) {
	// Interval is split in unit ranges, whose lengths are summed back
	type Interval struct {
		forksum.Range
		total int
	}

	units := func(parent Interval, in chan<- forksum.Range) {
		for i := parent.Low; i < parent.High; i++ {
			in <- forksum.Range{Low: i, High: i + 1}
		}
	}
	total := func(parent Interval, out <-chan forksum.Range) Interval {
		parent.total = lo.SumBy(lo.ChannelToSlice(out), forksum.Range.Len)
		return parent
	}
	identity := func(_ *forksum.Pools, r forksum.Range) forksum.Range { return r }

	t.Run("panic_invalid_dispatcher", func(t *testing.T) {
		// Arrange
		pool := InitPool(t, 1)
		dispatcher, _ := forksum.NewDispatch(units, func(parent Interval, out <-chan forksum.Range) Interval {
			<-out // consume only one child
			return parent
		})
		proc := forksum.Wrap(identity, dispatcher)
		in := lo.SliceToChannel(0, []Interval{{Range: forksum.Range{Low: 0, High: 2}}})

		// Act & Assert
		td.CmpPanic(t, func() { forksum.Run(pool, in, proc) },
			td.Contains("invalid dispatcher merge forksum.Range into forksum_test.Interval, leaked goroutine"))
	})

	t.Run("panic_wrap_nil_dispatcher", func(t *testing.T) {
		// Arrange
		var dispatcher forksum.Dispatch[Interval, forksum.Range]

		// Act & Assert
		td.CmpPanic(t, func() { forksum.Wrap(identity, dispatcher) }, td.ErrorIs(forksum.ErrInvalidDispatcher))
	})

	t.Run("success_linear_process_no_pool", func(t *testing.T) {
		// Arrange
		pool := InitPool(t)
		in := lo.SliceToChannel(0, []forksum.Range{{Low: 2, High: 5}})
		proc := forksum.Link(forksum.AsPoolProcess(
			func(r forksum.Range) forksum.Range {
				r.High *= 2
				return r
			}),
			forksum.AsPoolProcess(func(r forksum.Range) forksum.Range {
				r.Low = r.High - 1
				return r
			}),
		)

		// Act
		out := forksum.Pipe(pool, in, proc)

		// Assert
		td.Cmp(t, lo.ChannelToSlice(out), []forksum.Range{{Low: 9, High: 10}})
	})

	t.Run("success_dispatched_process_no_pool", func(t *testing.T) {
		// Arrange
		pool := InitPool(t)
		dispatcher, err := forksum.NewDispatch(units, total)
		td.Require(t).CmpNoError(err)
		var result []int
		collect := forksum.AsPoolProcess(func(i Interval) Interval {
			result = append(result, i.total) // single routine, no pool
			return i
		})
		process := forksum.Link(forksum.Wrap(identity, dispatcher), collect)
		in := lo.SliceToChannel(0, []Interval{{Range: forksum.Range{Low: 0, High: 3}}, {Range: forksum.Range{Low: 3, High: 10}}})

		// Act
		forksum.Run(pool, in, process)

		// Assert
		td.Cmp(t, result, []int{3, 7})
	})

	t.Run("success_dispatched_process_with_pool", func(t *testing.T) {
		// Arrange
		pool := InitPool(t, 1, 2) // 2 goroutine for handling childs
		dispatcher, _ := forksum.NewDispatch(units, total)
		topeLa := make(chan bool)
		deadlock := false
		branch := func(_ *forksum.Pools, r forksum.Range) forksum.Range {
			// Arbitrary reconciliation to check that both units are run in separate routine
			select {
			case topeLa <- true:
			case <-topeLa:
			case <-time.After(50 * time.Millisecond):
				deadlock = true
			}
			return r
		}
		var result int
		process := forksum.Link(forksum.Wrap(branch, dispatcher), forksum.AsPoolProcess(func(i Interval) Interval {
			result = i.total
			return i
		}))

		// Act
		forksum.Run(pool, lo.SliceToChannel(0, []Interval{{Range: forksum.Range{Low: 4, High: 6}}}), process)

		// Assert
		td.Cmp(t, result, 2)
		td.CmpFalse(t, deadlock, "Deadlock detected. Units are not run in several routines")
	})

	t.Run("success_dispatched_process_without_pool", func(t *testing.T) {
		// Arrange
		pool := InitPool(t, 1, 0) // childs are handled synchroneously with parent
		dispatcher, _ := forksum.NewDispatch(units, total)
		topeLa := make(chan bool)
		deadlock := false
		branch := func(_ *forksum.Pools, r forksum.Range) forksum.Range {
			// It should dead lock since childs are run sequentially
			select {
			case topeLa <- true:
			case <-topeLa:
			case <-time.After(10 * time.Millisecond):
				deadlock = true
			}
			return r
		}

		// Act
		forksum.Run(pool, lo.SliceToChannel(0, []Interval{{Range: forksum.Range{Low: 0, High: 2}}}), forksum.Wrap(branch, dispatcher))

		// Assert
		td.CmpTrue(t, deadlock, "No deadlock detected. Units are run in several routines.")
	})

	t.Run("panic_in_child_surfaces_in_run", func(t *testing.T) {
		// Arrange
		pool := InitPool(t, 2, 2)
		dispatcher, _ := forksum.NewDispatch(units, total)
		branch := func(_ *forksum.Pools, r forksum.Range) forksum.Range {
			if r.Low == 1 {
				panic("unit 1 failed")
			}
			return r
		}
		in := lo.SliceToChannel(0, []Interval{{Range: forksum.Range{Low: 0, High: 3}}})

		// Act & Assert
		td.CmpPanic(t, func() { forksum.Run(pool, in, forksum.Wrap(branch, dispatcher)) },
			td.HasPrefix("unit 1 failed\n"))
	})

	t.Run("panic_every_run", func(t *testing.T) {
		// Arrange
		fail := func(_ *forksum.Pools, r forksum.Range) forksum.Range { panic("top-level failed") }

		for i := 0; i < 10_000; i++ {
			pool, err := forksum.NewPools(4)
			td.Require(t).CmpNoError(err)

			// Act & Assert
			if !td.CmpPanic(t, func() { forksum.Run(pool, lo.SliceToChannel(0, ranges(1)), fail) },
				td.HasPrefix("top-level failed\n"), "run %d", i) {
				pool.Release()
				break
			}
			pool.Release()
		}
	})

	t.Run("panic_in_split_surfaces_in_run", func(t *testing.T) {
		// Arrange
		pool := InitPool(t, 1, 1)
		dispatcher, _ := forksum.NewDispatch(func(parent Interval, in chan<- forksum.Range) {
			in <- forksum.Range{Low: parent.Low, High: parent.Low + 1}
			panic("split failed")
		}, total)
		in := lo.SliceToChannel(0, []Interval{{Range: forksum.Range{Low: 0, High: 3}}})

		// Act & Assert
		td.CmpPanic(t, func() { forksum.Run(pool, in, forksum.Wrap(identity, dispatcher)) },
			td.HasPrefix("split failed\n"))
	})

	t.Run("panic_nil_pool_surfaces_in_run", func(t *testing.T) {
		// Arrange
		dispatcher, _ := forksum.NewDispatch(units, total)
		branch := func(_ *forksum.Pools, r forksum.Range) forksum.Range {
			if r.Low == 2 {
				panic("unit 2 failed")
			}
			return r
		}
		in := lo.SliceToChannel(0, []Interval{{Range: forksum.Range{Low: 0, High: 3}}})

		// Act & Assert
		td.CmpPanic(t, func() { forksum.Run(nil, in, forksum.Wrap(branch, dispatcher)) },
			td.HasPrefix("unit 2 failed\n"))
	})
}

func TestDispatcher(t *testing.T) {
	t.Run("error_invalid_new_dispatcher", func(t *testing.T) {
		// Arrange
		var nilSplit forksum.Split[int, string]
		var nilMerge forksum.Merge[int, string]

		// Act
		dispatcher, err := forksum.NewDispatch(nilSplit, nilMerge)

		// Assert
		td.CmpErrorIs(t, err, forksum.ErrInvalidDispatcher)
		td.CmpErrorIs(t, dispatcher.Validate(), forksum.ErrInvalidDispatcher)
	})

	t.Run("success_new_dispatcher", func(t *testing.T) {
		// Arrange
		split := func(parent string, in chan<- string) {
			// placeholder
		}
		merge := func(parent string, out <-chan string) string {
			return parent // placeholder
		}

		// Act
		dispatcher, err := forksum.NewDispatch(split, merge)

		// Assert
		td.CmpNoError(t, err)
		td.CmpNoError(t, dispatcher.Validate())
	})
}
