package coalescer

import (
	"container/heap"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	id    uuid.UUID
	due   time.Time
	index int
}

// entryHeap is a min-heap of entries ordered by due time
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool { return h[i].due.Before(h[j].due) }

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// pendingQueue holds at most one due time per participant.
type pendingQueue struct {
	mu   sync.Mutex
	heap entryHeap
	byID map[uuid.UUID]*entry
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{byID: make(map[uuid.UUID]*entry)}
}

// set schedules id at due, replacing any earlier schedule for it
func (q *pendingQueue) set(id uuid.UUID, due time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.byID[id]; ok {
		e.due = due
		heap.Fix(&q.heap, e.index)
		return
	}
	e := &entry{id: id, due: due}
	heap.Push(&q.heap, e)
	q.byID[id] = e
}

// restore queues id at due unless it was scheduled again in the meantime
func (q *pendingQueue) restore(id uuid.UUID, due time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.byID[id]; ok {
		return
	}
	e := &entry{id: id, due: due}
	heap.Push(&q.heap, e)
	q.byID[id] = e
}

// popDue removes and returns every participant due at or before now, earliest first
func (q *pendingQueue) popDue(now time.Time) []uuid.UUID {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []uuid.UUID
	for len(q.heap) > 0 && !q.heap[0].due.After(now) {
		e := heap.Pop(&q.heap).(*entry)
		delete(q.byID, e.id)
		out = append(out, e.id)
	}
	return out
}

// takeAll empties the queue, returning participants in due order
func (q *pendingQueue) takeAll() []uuid.UUID {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]uuid.UUID, 0, len(q.heap))
	for len(q.heap) > 0 {
		e := heap.Pop(&q.heap).(*entry)
		out = append(out, e.id)
	}
	q.byID = make(map[uuid.UUID]*entry)
	return out
}

func (q *pendingQueue) dueAt(id uuid.UUID) (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byID[id]
	if !ok {
		return time.Time{}, false
	}
	return e.due, true
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}
