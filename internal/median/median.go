// Package median maintains a running median over an unbounded stream of
// non-negative integers using two paired heaps, the classic two-heap
// streaming-median structure: a max-heap for the lower half and a min-heap
// for the upper half, rebalanced on every insert so their sizes never
// differ by more than one.
package median

import "container/heap"

// lowerHeap is a max-heap: the largest of the lower half sits on top.
type lowerHeap []uint64

func (h lowerHeap) Len() int            { return len(h) }
func (h lowerHeap) Less(i, j int) bool  { return h[i] > h[j] }
func (h lowerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *lowerHeap) Push(x any)         { *h = append(*h, x.(uint64)) }
func (h *lowerHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// upperHeap is a min-heap: the smallest of the upper half sits on top.
type upperHeap []uint64

func (h upperHeap) Len() int            { return len(h) }
func (h upperHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h upperHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *upperHeap) Push(x any)         { *h = append(*h, x.(uint64)) }
func (h *upperHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// StreamingMedian reports the median of everything inserted so far in
// O(1), and accepts new elements in amortized O(log n). It is not safe for
// concurrent use; callers that need that (BackendAgent does) guard it with
// their own mutex.
type StreamingMedian struct {
	lower lowerHeap
	upper upperHeap
}

// New returns an empty StreamingMedian.
func New() *StreamingMedian {
	return &StreamingMedian{}
}

// Add inserts x. Push into the lower (max) heap first, then migrate its
// top into the upper heap; if that leaves the upper heap larger than the
// lower one, migrate back. This single pass keeps both the ordering
// invariant (everything in lower <= everything in upper) and the size
// invariant (|lower| == |upper| or |lower| == |upper|+1).
func (m *StreamingMedian) Add(x uint64) {
	heap.Push(&m.lower, x)
	top := heap.Pop(&m.lower).(uint64)
	heap.Push(&m.upper, top)

	if m.upper.Len() > m.lower.Len() {
		top = heap.Pop(&m.upper).(uint64)
		heap.Push(&m.lower, top)
	}
}

// Median returns the current median, or ok=false if nothing has been
// added yet. For an even count the result is the floor of the mean of the
// two middle elements, computed as lo + (hi-lo)/2 so the sum can never
// overflow uint64 regardless of magnitude.
func (m *StreamingMedian) Median() (value uint64, ok bool) {
	if m.lower.Len() == 0 {
		return 0, false
	}
	if m.lower.Len() > m.upper.Len() {
		return m.lower[0], true
	}
	lo, hi := m.lower[0], m.upper[0]
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo + (hi-lo)/2, true
}

// Len reports how many elements have been inserted.
func (m *StreamingMedian) Len() int {
	return m.lower.Len() + m.upper.Len()
}
