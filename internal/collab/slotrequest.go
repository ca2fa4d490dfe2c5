package collab

import "errors"

// ErrSlotPayloadTooShort is returned when a buffer can't hold a valid
// slot request or grant payload.
var ErrSlotPayloadTooShort = errors.New("collab: slot payload too short")

// SlotRequestPayload is the payload of a SLOT_REQUEST frame:
// [1B numSlots][1B priority].
type SlotRequestPayload struct {
	NumSlots uint8
	Priority uint8
}

// Encode serializes the request to its two-byte wire form.
func (r SlotRequestPayload) Encode() []byte {
	return []byte{r.NumSlots, r.Priority}
}

// DecodeSlotRequest parses a slot request payload.
func DecodeSlotRequest(data []byte) (SlotRequestPayload, error) {
	if len(data) < 2 {
		return SlotRequestPayload{}, ErrSlotPayloadTooShort
	}
	return SlotRequestPayload{NumSlots: data[0], Priority: data[1]}, nil
}

// SlotGrantPayload is the payload of a SLOT_GRANT frame: a list of
// granted slot indices, one byte each.
type SlotGrantPayload struct {
	Granted []uint8
}

// Encode serializes the grant to its wire form.
func (g SlotGrantPayload) Encode() []byte {
	return append([]byte(nil), g.Granted...)
}

// DecodeSlotGrant parses a slot grant payload. An empty payload decodes
// to a grant of zero slots, which is valid (a denied request).
func DecodeSlotGrant(data []byte) SlotGrantPayload {
	return SlotGrantPayload{Granted: append([]uint8(nil), data...)}
}
