// Package queue provides the ordered in-memory structure holding jobs
// awaiting dispatch. Ordering is priority ascending (lower value first),
// then submission time ascending, so high-priority jobs overtake normal
// ones and FIFO holds within a priority band.
package queue

import (
	"container/heap"
	"sync"

	"github.com/spectraproject/spectra/internal/spectra/domain"
)

// PriorityQueue is a heap-backed job queue safe for concurrent use. All
// operations are O(log n). A job is present at most once, keyed by ID.
type PriorityQueue struct {
	mu    sync.Mutex
	items jobHeap
	byId  map[string]*item
}

type item struct {
	job   *domain.Job
	index int
}

func New() *PriorityQueue {
	return &PriorityQueue{byId: map[string]*item{}}
}

// Enqueue inserts the job. Re-enqueueing an ID already present is a no-op
// returning false.
func (q *PriorityQueue) Enqueue(job *domain.Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.byId[job.Id]; exists {
		return false
	}
	it := &item{job: job}
	heap.Push(&q.items, it)
	q.byId[job.Id] = it
	return true
}

// Dequeue removes and returns the highest-priority job, or nil if the queue
// is empty. A dequeued job can never be dequeued again: it leaves the
// structure before the caller sees it.
func (q *PriorityQueue) Dequeue() *domain.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		return nil
	}
	it := heap.Pop(&q.items).(*item)
	delete(q.byId, it.job.Id)
	return it.job
}

// Remove takes the job with the given ID out of the queue, returning it, or
// nil if it is not queued.
func (q *PriorityQueue) Remove(jobId string) *domain.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	it, ok := q.byId[jobId]
	if !ok {
		return nil
	}
	heap.Remove(&q.items, it.index)
	delete(q.byId, jobId)
	return it.job
}

// Get returns the queued job with the given ID without removing it.
func (q *PriorityQueue) Get(jobId string) *domain.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if it, ok := q.byId[jobId]; ok {
		return it.job
	}
	return nil
}

func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

type jobHeap []*item

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	a, b := h[i].job, h[j].job
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if !a.Created.Equal(b.Created) {
		return a.Created.Before(b.Created)
	}
	// ULIDs of one process are monotone, making the order total and stable.
	return a.Id < b.Id
}

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *jobHeap) Push(x interface{}) {
	it := x.(*item)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}
