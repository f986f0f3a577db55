package vector

import (
	"container/heap"
	"sort"

	"github.com/hyperjump/semmap/internal/models"
)

type heapEntry struct {
	candidate models.ScoredCandidate
	seq       int
}

// minHeap orders the worst retained candidate first: lowest similarity, and among
// equal similarities the one seen last.
type minHeap []heapEntry

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].candidate.Similarity != h[j].candidate.Similarity {
		return h[i].candidate.Similarity < h[j].candidate.Similarity
	}
	return h[i].seq > h[j].seq
}
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(heapEntry)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type heapTop struct {
	limit int
	seq   int
	h     minHeap
}

func newHeapTop(limit int) *heapTop {
	t := &heapTop{limit: limit}
	if limit > 0 {
		t.h = make(minHeap, 0, limit)
	}
	return t
}

func (t *heapTop) offer(id string, similarity float64) {
	e := heapEntry{candidate: models.ScoredCandidate{ID: id, Similarity: similarity}, seq: t.seq}
	t.seq++
	if t.limit <= 0 || t.h.Len() < t.limit {
		heap.Push(&t.h, e)
		return
	}
	if similarity <= t.h[0].candidate.Similarity {
		return
	}
	t.h[0] = e
	heap.Fix(&t.h, 0)
}

func (t *heapTop) results() models.RankedResultSet {
	entries := append([]heapEntry(nil), t.h...)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].candidate.Similarity != entries[j].candidate.Similarity {
			return entries[i].candidate.Similarity > entries[j].candidate.Similarity
		}
		return entries[i].seq < entries[j].seq
	})
	out := make(models.RankedResultSet, len(entries))
	for i, e := range entries {
		out[i] = e.candidate
	}
	return out
}
