package mac

import (
	"testing"
	"time"
)

func TestTransmitQueue_OrdersByPriority(t *testing.T) {
	q := NewTransmitQueue()
	q.Push(PendingFrame{Payload: []byte("low"), Priority: 1, Enqueued: time.Now()})
	q.Push(PendingFrame{Payload: []byte("high"), Priority: 9, Enqueued: time.Now()})
	q.Push(PendingFrame{Payload: []byte("mid"), Priority: 5, Enqueued: time.Now()})

	first, ok := q.Pop()
	if !ok || string(first.Payload) != "high" {
		t.Fatalf("first = %q, want high", first.Payload)
	}
	second, _ := q.Pop()
	if string(second.Payload) != "mid" {
		t.Fatalf("second = %q, want mid", second.Payload)
	}
	third, _ := q.Pop()
	if string(third.Payload) != "low" {
		t.Fatalf("third = %q, want low", third.Payload)
	}
}

func TestTransmitQueue_FIFOWithinSamePriority(t *testing.T) {
	q := NewTransmitQueue()
	base := time.Now()
	q.Push(PendingFrame{Payload: []byte("first"), Priority: 5, Enqueued: base})
	q.Push(PendingFrame{Payload: []byte("second"), Priority: 5, Enqueued: base.Add(time.Millisecond)})

	first, _ := q.Pop()
	if string(first.Payload) != "first" {
		t.Errorf("first = %q, want first", first.Payload)
	}
}

func TestTransmitQueue_PopEmpty(t *testing.T) {
	q := NewTransmitQueue()
	_, ok := q.Pop()
	if ok {
		t.Fatal("Pop on empty queue should return ok=false")
	}
}

func TestTransmitQueue_Len(t *testing.T) {
	q := NewTransmitQueue()
	if q.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", q.Len())
	}
	q.Push(PendingFrame{Priority: 1, Enqueued: time.Now()})
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
}
