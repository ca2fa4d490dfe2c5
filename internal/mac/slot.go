// Package mac implements the TDMA media access layer: slot assignment,
// a priority transmit queue and a scheduler that ticks once per slot.
package mac

// SlotTable tracks which device owns each slot in a frame. A zero value
// (empty string) means the slot is unassigned.
type SlotTable struct {
	owners []string
}

// NewSlotTable creates a table with the given number of slots per frame,
// all initially unassigned.
func NewSlotTable(numSlots int) *SlotTable {
	return &SlotTable{owners: make([]string, numSlots)}
}

// NumSlots reports the number of slots per frame.
func (t *SlotTable) NumSlots() int { return len(t.owners) }

// Assign grants slot to deviceID. Assigning the empty string clears it.
func (t *SlotTable) Assign(slot int, deviceID string) {
	t.owners[slot] = deviceID
}

// Owner returns the device owning slot, or "" if unassigned.
func (t *SlotTable) Owner(slot int) string {
	return t.owners[slot]
}

// FreeSlots returns the indices of all currently unassigned slots.
func (t *SlotTable) FreeSlots() []int {
	var free []int
	for i, owner := range t.owners {
		if owner == "" {
			free = append(free, i)
		}
	}
	return free
}

// OwnedBy returns every slot index currently assigned to deviceID.
func (t *SlotTable) OwnedBy(deviceID string) []int {
	var slots []int
	for i, owner := range t.owners {
		if owner == deviceID {
			slots = append(slots, i)
		}
	}
	return slots
}

// AssignByPriority grants the given devices slots from the free pool in
// priority order (highest first). For a request needing k slots, the
// i-th slot (i in [0,k)) is taken from index floor(|free|*(i+1)/(k+1))
// of the free-slot list snapshotted before that request is serviced, so
// a device's slots are spread evenly across the remaining pool instead
// of monopolizing a contiguous run. This is used by the network
// coordinator when devices request slots. Requests that cannot be
// granted any slot (the pool is already empty) are returned as denied.
func (t *SlotTable) AssignByPriority(requests []SlotRequest) []string {
	if len(requests) == 0 {
		return nil
	}

	sorted := make([]SlotRequest, len(requests))
	copy(sorted, requests)
	sortByPriorityDesc(sorted)

	var denied []string
	for _, req := range sorted {
		free := t.FreeSlots()
		k := req.SlotsNeeded
		if len(free) == 0 || k <= 0 {
			denied = append(denied, req.DeviceID)
			continue
		}
		assigned := make(map[int]bool, k)
		for i := 0; i < k; i++ {
			idx := (len(free) * (i + 1)) / (k + 1)
			if idx >= len(free) {
				idx = len(free) - 1
			}
			for assigned[idx] && idx < len(free)-1 {
				idx++
			}
			if assigned[idx] {
				continue
			}
			assigned[idx] = true
			t.owners[free[idx]] = req.DeviceID
		}
	}
	return denied
}

// SlotRequest describes a device's bid for TDMA slots.
type SlotRequest struct {
	DeviceID    string
	Priority    int
	SlotsNeeded int
}

func sortByPriorityDesc(reqs []SlotRequest) {
	for i := 1; i < len(reqs); i++ {
		for j := i; j > 0 && reqs[j].Priority > reqs[j-1].Priority; j-- {
			reqs[j], reqs[j-1] = reqs[j-1], reqs[j]
		}
	}
}

// ContentionSlots computes the k slots a device should attempt to
// transmit in during contention mode, when no coordinator has assigned
// slots. It hashes the device identifier with a DJBX-style rolling hash
// (h = h*31 + c over each byte) and derives k candidate slots from it as
// (h + 7*i + priority/2) mod numSlots for i in [0,k). The result depends
// only on the device's identity and priority, not the current frame
// number, so a device's contention slots stay stable from frame to
// frame until a collision forces a reassignment.
func ContentionSlots(deviceID string, priority int, numSlots int, k int) []int {
	if numSlots <= 0 || k <= 0 {
		return nil
	}
	var h int64
	for i := 0; i < len(deviceID); i++ {
		h = h*31 + int64(deviceID[i])
	}
	if h < 0 {
		h = -h
	}

	slots := make([]int, k)
	for i := 0; i < k; i++ {
		v := (h + int64(7*i) + int64(priority/2)) % int64(numSlots)
		if v < 0 {
			v += int64(numSlots)
		}
		slots[i] = int(v)
	}
	return slots
}
