package mac

import (
	"container/heap"
	"time"
)

// PendingFrame is a frame waiting for a transmit opportunity.
type PendingFrame struct {
	Payload   []byte
	Priority  int
	Enqueued  time.Time
	MsgType   byte
}

// TransmitQueue orders pending frames by descending priority, breaking
// ties by earliest enqueue time so that frames of equal priority are
// still serviced in FIFO order.
type TransmitQueue struct {
	items txHeap
}

// NewTransmitQueue creates an empty transmit queue.
func NewTransmitQueue() *TransmitQueue {
	q := &TransmitQueue{}
	heap.Init(&q.items)
	return q
}

// Push adds a frame to the queue.
func (q *TransmitQueue) Push(frame PendingFrame) {
	heap.Push(&q.items, frame)
}

// Pop removes and returns the highest-priority, oldest-enqueued frame.
// The second return value is false if the queue is empty.
func (q *TransmitQueue) Pop() (PendingFrame, bool) {
	if q.items.Len() == 0 {
		return PendingFrame{}, false
	}
	return heap.Pop(&q.items).(PendingFrame), true
}

// Len reports the number of pending frames.
func (q *TransmitQueue) Len() int { return q.items.Len() }

type txHeap []PendingFrame

func (h txHeap) Len() int { return len(h) }

func (h txHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].Enqueued.Before(h[j].Enqueued)
}

func (h txHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *txHeap) Push(x any) {
	*h = append(*h, x.(PendingFrame))
}

func (h *txHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
