package index

import (
	"container/heap"
	"sort"

	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// topK keeps the k best hits seen so far in a min-heap.
type topK struct {
	k    int
	hits hitHeap
}

func newTopK(k int) *topK {
	return &topK{k: k, hits: make(hitHeap, 0, k)}
}

func (t *topK) push(pos int, sim float64) {
	h := driven.VectorHit{Position: pos, Similarity: sim}
	if len(t.hits) < t.k {
		heap.Push(&t.hits, h)
		return
	}
	if worse(t.hits[0], h) {
		t.hits[0] = h
		heap.Fix(&t.hits, 0)
	}
}

// results returns hits best first; ties go to the lower position.
func (t *topK) results() []driven.VectorHit {
	out := append([]driven.VectorHit(nil), t.hits...)
	sort.Slice(out, func(i, j int) bool { return worse(out[j], out[i]) })
	return out
}

// worse reports whether a ranks below b.
func worse(a, b driven.VectorHit) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity < b.Similarity
	}
	return a.Position > b.Position
}

type hitHeap []driven.VectorHit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x any)        { *h = append(*h, x.(driven.VectorHit)) }
func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
