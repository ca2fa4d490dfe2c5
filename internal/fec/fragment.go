package fec

import (
	"errors"
	"sort"
)

// ErrMissingFragment is reported when reassembly cannot find a complete,
// contiguous run of fragments bracketed by first/last flags.
var ErrMissingFragment = errors.New("fec: missing fragment")

// Fragment splits payload into chunks of at most MaxPayloadSize bytes and
// returns one Frame per chunk, with sequence numbers 0..N-1 and the
// fragmentation flags set per the data model: bit 7 (more fragments) set
// on every fragment but the last, bit 6 (first fragment) set only on the
// first.
func Fragment(msgType byte, payload []byte) ([]*Frame, error) {
	if len(payload) == 0 {
		f, err := CreateFrame(msgType, 0, nil)
		if err != nil {
			return nil, err
		}
		f.Flags = FlagFirstFragment
		return []*Frame{f}, nil
	}

	n := (len(payload) + MaxPayloadSize - 1) / MaxPayloadSize
	frames := make([]*Frame, 0, n)

	for i := 0; i < n; i++ {
		start := i * MaxPayloadSize
		end := start + MaxPayloadSize
		if end > len(payload) {
			end = len(payload)
		}

		f, err := CreateFrame(msgType, uint16(i), payload[start:end])
		if err != nil {
			return nil, err
		}
		if i < n-1 {
			f.Flags |= FlagMoreFragments
		}
		if i == 0 {
			f.Flags |= FlagFirstFragment
		}
		frames = append(frames, f)
	}

	return frames, nil
}

// Reassemble sorts the given frames by sequence number and concatenates
// their payloads, provided one has the first-fragment flag set and one has
// the more-fragments flag clear (the last fragment), with no gap in the
// sequence between them.
func Reassemble(frames []*Frame) ([]byte, error) {
	if len(frames) == 0 {
		return nil, ErrMissingFragment
	}

	sorted := make([]*Frame, len(frames))
	copy(sorted, frames)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	if sorted[0].Flags&FlagFirstFragment == 0 {
		return nil, ErrMissingFragment
	}
	last := sorted[len(sorted)-1]
	if last.Flags&FlagMoreFragments != 0 {
		return nil, ErrMissingFragment
	}

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Seq != sorted[i-1].Seq+1 {
			return nil, ErrMissingFragment
		}
	}

	var out []byte
	for _, f := range sorted {
		out = append(out, f.Payload...)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}
