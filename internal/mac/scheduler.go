package mac

import (
	"log"
	"math/rand"
	"sync"
	"time"
)

// SchedulerState describes what the scheduler is currently doing within
// a TDMA frame.
type SchedulerState int

const (
	StateIdle SchedulerState = iota
	StateWaitingSlot
	StateTransmitting
	StateBackoff
)

// String returns the state name.
func (s SchedulerState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateWaitingSlot:
		return "WAITING_SLOT"
	case StateTransmitting:
		return "TRANSMITTING"
	case StateBackoff:
		return "BACKOFF"
	default:
		return "UNKNOWN"
	}
}

// MaxBackoffSpan caps the collision-reassignment offset window so a run
// of collisions never pushes the retry arbitrarily far into the frame.
const MaxBackoffSpan = 16

// Transmitter sends one frame's worth of bytes during a transmit
// opportunity and reports whether a collision was detected (e.g. energy
// observed on the channel from another device in the same slot).
type Transmitter func(payload []byte) (collided bool, err error)

// Scheduler drives TDMA access for one device: it ticks once per slot
// boundary, and when the device owns (or, in contention mode, wins) one
// of its assigned slots, dequeues and transmits the next pending frame.
//
// A device's assigned slots are recomputed from the slot table (or the
// contention hash) at the start of every frame, except after a
// collision: reassignAfterCollision then pins a replacement slot, kept
// across frame starts until the next successful transmission,
// chosen per spec as (slot + offset) mod numSlots with a random offset
// that grows with the number of consecutive collisions, so a retry
// after backoff lands somewhere new instead of colliding again with
// whatever is still using the original slot.
type Scheduler struct {
	deviceID        string
	priority        int
	slotDuration    time.Duration
	table           *SlotTable
	queue           *TransmitQueue
	send            Transmitter
	contention      bool
	contentionSlots int

	mu            sync.Mutex
	state         SchedulerState
	frameNumber   uint64
	assignedSlots []int
	collisions    int
	rng           *rand.Rand

	OnStateChange func(state SchedulerState)
	OnCollision   func(frameNumber uint64, slot int)
}

// NewScheduler creates a scheduler for deviceID. When contention is true
// the scheduler computes its transmit slots via ContentionSlots instead
// of consulting table assignments (used before a coordinator has
// granted slots, or when no coordinator is present); contentionSlots is
// the number of stable slots (k) it claims in that mode and is ignored
// otherwise.
func NewScheduler(deviceID string, priority int, slotDuration time.Duration, table *SlotTable, send Transmitter, contention bool, contentionSlots int) *Scheduler {
	return &Scheduler{
		deviceID:        deviceID,
		priority:        priority,
		slotDuration:    slotDuration,
		table:           table,
		queue:           NewTransmitQueue(),
		send:            send,
		contention:      contention,
		contentionSlots: contentionSlots,
		state:           StateIdle,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Enqueue adds a frame for eventual transmission.
func (s *Scheduler) Enqueue(frame PendingFrame) {
	s.queue.Push(frame)
}

// Tick advances the scheduler by one slot. Call it once per slot
// boundary (slotDuration apart) from a ticker loop. slotIndex is the
// position within the current TDMA frame, wrapping at NumSlots.
func (s *Scheduler) Tick(slotIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slotIndex == 0 {
		s.frameNumber++
		s.refreshAssignedSlots()
	}

	if !containsSlot(s.assignedSlots, slotIndex) {
		s.setState(StateWaitingSlot)
		return
	}

	frame, ok := s.queue.Pop()
	if !ok {
		s.setState(StateIdle)
		return
	}

	s.setState(StateTransmitting)
	collided, err := s.send(frame.Payload)
	if err != nil {
		log.Printf("mac: transmit error in slot %d: %v", slotIndex, err)
		s.queue.Push(frame)
		return
	}
	if collided {
		log.Printf("mac: collision detected in slot %d of frame %d", slotIndex, s.frameNumber)
		s.queue.Push(frame)
		s.reassignAfterCollision(slotIndex)
		if s.OnCollision != nil {
			s.OnCollision(s.frameNumber, slotIndex)
		}
	} else {
		s.collisions = 0
	}
}

// NoteReceivedFrame reports that a frame from another device was
// overheard landing in slotIndex. A half-duplex device cannot detect a
// collision on a slot while it is itself transmitting in that slot, but
// it can detect one passively: overhearing a different device's frame
// in a slot this device believes it owns means the two are colliding
// every frame. The receive path should call this for every decoded
// frame whose sender is known.
func (s *Scheduler) NoteReceivedFrame(slotIndex int, fromDeviceID string) {
	if fromDeviceID == "" || fromDeviceID == s.deviceID {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !containsSlot(s.assignedSlots, slotIndex) {
		return
	}
	log.Printf("mac: overheard %s in owned slot %d of frame %d, reassigning", fromDeviceID, slotIndex, s.frameNumber)
	s.reassignAfterCollision(slotIndex)
	if s.OnCollision != nil {
		s.OnCollision(s.frameNumber, slotIndex)
	}
}

// refreshAssignedSlots recomputes assignedSlots for the new frame from
// the slot table (coordinator mode) or the contention hash (contention
// mode). While a collision replacement is in force (collisions > 0) it
// leaves assignedSlots unchanged. It must be called with mu held.
func (s *Scheduler) refreshAssignedSlots() {
	if s.collisions > 0 {
		return
	}
	if s.contention {
		s.assignedSlots = ContentionSlots(s.deviceID, s.priority, s.table.NumSlots(), s.contentionSlots)
		return
	}
	s.assignedSlots = s.table.OwnedBy(s.deviceID)
}

// reassignAfterCollision replaces slotIndex in assignedSlots with
// (slotIndex + offset) mod numSlots, where offset is drawn uniformly
// from [0, min(MaxBackoffSpan, 2^collisions)) and collisions counts this
// device's consecutive collisions since its last successful
// transmission. It must be called with mu held.
func (s *Scheduler) reassignAfterCollision(slotIndex int) {
	s.collisions++

	span := 1 << uint(s.collisions)
	if span > MaxBackoffSpan {
		span = MaxBackoffSpan
	}
	offset := s.rng.Intn(span)

	numSlots := s.table.NumSlots()
	newSlot := (slotIndex + offset) % numSlots

	for i, slot := range s.assignedSlots {
		if slot == slotIndex {
			s.assignedSlots[i] = newSlot
			return
		}
	}
	s.assignedSlots = append(s.assignedSlots, newSlot)
}

func containsSlot(slots []int, target int) bool {
	for _, s := range slots {
		if s == target {
			return true
		}
	}
	return false
}

// State reports the scheduler's current state.
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// QueueLen reports how many frames are waiting to be sent.
func (s *Scheduler) QueueLen() int {
	return s.queue.Len()
}

// Collisions reports the number of consecutive collisions since the
// last successful transmission.
func (s *Scheduler) Collisions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collisions
}

func (s *Scheduler) setState(state SchedulerState) {
	if s.state == state {
		return
	}
	s.state = state
	if s.OnStateChange != nil {
		s.OnStateChange(state)
	}
}
