package forksum

import (
	"fmt"

	"github.com/samber/lo"
)

// Range is the half-open interval [Low, High) of indexes a task is responsible for.
type Range struct {
	Low, High int
}

// Len returns the number of indexes in the range.
func (r Range) Len() int {
	return r.High - r.Low
}

// Mid splits the range in two halves. The right half gets the extra index of an odd range.
func (r Range) Mid() (left, right Range) {
	mid := (r.Low + r.High) / 2
	return Range{r.Low, mid}, Range{mid, r.High}
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Low, r.High)
}

func checkChunks(nChunks, nElements int) {
	if nChunks < 1 {
		panic(fmt.Sprintf("invalid number of chunks: %v", nChunks))
	}
	if nElements < 0 {
		panic(fmt.Sprintf("invalid number of elements: %v", nElements))
	}
}

// ChunkSize returns the size of each chunk, ceil(nElements / nChunks). The last chunks may be shorter, or empty.
func ChunkSize(nChunks, nElements int) int {
	checkChunks(nChunks, nElements)
	return (nElements + nChunks - 1) / nChunks
}

// ChunkRange returns the range of the chunk-th of nChunks chunks spread across nElements.
//
// Chunks past the end of the elements are empty ranges [nElements, nElements).
func ChunkRange(chunk, nChunks, nElements int) Range {
	size := ChunkSize(nChunks, nElements)
	if chunk < 0 || chunk >= nChunks {
		panic(fmt.Sprintf("invalid chunk: %v of %v", chunk, nChunks))
	}
	return Range{
		Low:  min(chunk*size, nElements),
		High: min((chunk+1)*size, nElements),
	}
}

// Chunks returns the nChunks ordered and contiguous ranges covering [0, nElements).
func Chunks(nChunks, nElements int) []Range {
	checkChunks(nChunks, nElements)
	return lo.Times(nChunks, func(chunk int) Range {
		return ChunkRange(chunk, nChunks, nElements)
	})
}
