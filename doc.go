/*
forksum sums the reciprocals of a float64 slice with a parallel divide-and-conquer reduction, run on bounded and
stacked pools of goroutines.

The input is partitioned in N contiguous chunks, one top-level Task per chunk. A task whose range is larger than the
sequential threshold splits in two halves, which are reduced one pool level deeper, then adds their values. Once every
top-level task is done, their values are added in chunk order.

For instance, with 4 workers and a fork depth of 2:

- N Task are concurrently reduced in Pool 0 (4 routines)
- Then each Task above the threshold splits in 2 halves, concurrently reduced in Pool 1 (Pool 0 routines are still occuped by their parent Task)
- Then each half above the threshold splits again in Pool 2
- Deeper halves run in their parent routine, sequentially
- Halves merge in their parent, left value first. Their routines are available to other halves.

The shape of the task tree and the order in which values are added only depend on the input, the number of chunks
and the threshold. Pool sizes and fork depth change the parallelism, never the result: with a single worker and no
fork level, the same tree is traversed sequentially.

Pools are created and released by each call, nothing is kept between two sums.
*/

package forksum
