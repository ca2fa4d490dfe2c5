package fec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnknownStream is returned by StreamReceiver.Data and
// StreamReceiver.Finish when no STREAM_START has been received yet.
var ErrUnknownStream = errors.New("fec: stream data before stream start")

// streamStartPayload is the STREAM_START metadata: how many fragments
// and parity shards make up the stream, and the true byte length of the
// payload once fragment padding is stripped back off.
type streamStartPayload struct {
	numFragments int
	numParity    int
	payloadLen   int
}

func encodeStreamStart(numFragments, numParity, payloadLen int) []byte {
	buf := make([]byte, 10)
	binary.BigEndian.PutUint16(buf[0:2], uint16(numFragments))
	binary.BigEndian.PutUint16(buf[2:4], uint16(numParity))
	binary.BigEndian.PutUint32(buf[4:8], uint32(payloadLen))
	_ = buf[8:10] // reserved
	return buf
}

func decodeStreamStart(data []byte) (streamStartPayload, error) {
	if len(data) < 8 {
		return streamStartPayload{}, fmt.Errorf("fec: stream start payload too short")
	}
	return streamStartPayload{
		numFragments: int(binary.BigEndian.Uint16(data[0:2])),
		numParity:    int(binary.BigEndian.Uint16(data[2:4])),
		payloadLen:   int(binary.BigEndian.Uint32(data[4:8])),
	}, nil
}

// streamChunkSize is the pre-FEC chunk size used to split a stream
// payload. EncodeFEC triples and interleaves its input, so this must be
// small enough that every encoded shard still fits within
// MaxPayloadSize: ceil(3*(streamChunkSize+2)/InterleaveDepth)*InterleaveDepth <= MaxPayloadSize.
const streamChunkSize = 64

// StreamSender fragments a message payload into fixed-size, zero-padded
// chunks, FEC-encodes each chunk (so every encoded shard comes out the
// same length, since EncodeFEC's interleave geometry depends only on
// input length), generates outer Reed-Solomon parity shards across the
// whole stream, and builds the ordered run of frames (STREAM_START, one
// STREAM_DATA per data and parity shard, STREAM_END) that carry it over
// the air.
type StreamSender struct {
	codec *StreamCodec
}

// NewStreamSender creates a sender generating parityShards recovery
// shards per stream.
func NewStreamSender(parityShards int) *StreamSender {
	return &StreamSender{codec: NewStreamCodec(parityShards)}
}

// Build fragments payload into fixed-size chunks, FEC-encodes each,
// computes parity shards and returns the complete sequence of on-wire
// frames to send.
func (s *StreamSender) Build(payload []byte) ([]*Frame, error) {
	chunks := chunkPayload(payload, streamChunkSize)

	encodedFragments := make([][]byte, len(chunks))
	for i, c := range chunks {
		encodedFragments[i] = EncodeFEC(c)
	}

	parity, err := s.codec.EncodeShards(encodedFragments)
	if err != nil {
		return nil, fmt.Errorf("fec: build stream parity: %w", err)
	}

	frames := make([]*Frame, 0, len(encodedFragments)+len(parity)+2)

	start, err := CreateFrame(TypeStreamStart, 0, encodeStreamStart(len(encodedFragments), len(parity), len(payload)))
	if err != nil {
		return nil, err
	}
	frames = append(frames, start)

	seq := uint16(1)
	for _, shard := range encodedFragments {
		f, err := CreateFrame(TypeStreamData, seq, shard)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
		seq++
	}
	for _, shard := range parity {
		f, err := CreateFrame(TypeStreamData, seq, shard)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
		seq++
	}

	end, err := CreateFrame(TypeStreamEnd, seq, nil)
	if err != nil {
		return nil, err
	}
	frames = append(frames, end)

	return frames, nil
}

// chunkPayload splits payload into chunks of exactly size bytes, zero
// padding the final chunk. An empty payload still produces one
// all-zero chunk so a stream always carries at least one fragment.
func chunkPayload(payload []byte, size int) [][]byte {
	n := (len(payload) + size - 1) / size
	if n == 0 {
		n = 1
	}
	chunks := make([][]byte, n)
	for i := 0; i < n; i++ {
		chunk := make([]byte, size)
		start := i * size
		end := start + size
		if end > len(payload) {
			end = len(payload)
		}
		copy(chunk, payload[start:end])
		chunks[i] = chunk
	}
	return chunks
}

// StreamReceiver collects the frames of one STREAM_START/STREAM_DATA/
// STREAM_END transfer and, once enough shards have arrived (either all
// data shards, or any mix recoverable via the outer Reed-Solomon
// parity), reassembles the original payload.
type StreamReceiver struct {
	meta   streamStartPayload
	shards map[uint16][]byte
	codec  *StreamCodec
}

// NewStreamReceiver creates an empty receiver.
func NewStreamReceiver() *StreamReceiver {
	return &StreamReceiver{shards: make(map[uint16][]byte)}
}

// Start begins a new transfer, discarding any shards collected for a
// previous one.
func (r *StreamReceiver) Start(payload []byte) error {
	meta, err := decodeStreamStart(payload)
	if err != nil {
		return err
	}
	r.meta = meta
	r.codec = NewStreamCodec(meta.numParity)
	r.shards = make(map[uint16][]byte)
	return nil
}

// Data records one STREAM_DATA shard (data or parity, by sequence).
func (r *StreamReceiver) Data(frame *Frame) error {
	if r.codec == nil {
		return ErrUnknownStream
	}
	r.shards[frame.Seq] = frame.Payload
	return nil
}

// End marks the transfer complete. It currently exists to mirror the
// STREAM_START/STREAM_DATA/STREAM_END framing on the wire; Finish does
// not require it to have been called first, since a receiver may need
// to reconstruct from parity before the END frame itself is recovered.
func (r *StreamReceiver) End() {}

// Finish reconstructs and reassembles the original payload from
// whatever data and parity shards were collected, using the outer
// Reed-Solomon code to recover any missing data shards.
func (r *StreamReceiver) Finish() ([]byte, error) {
	if r.codec == nil {
		return nil, ErrUnknownStream
	}

	dataShards := make([][]byte, r.meta.numFragments)
	parityShards := make([][]byte, r.meta.numParity)
	shardSize := 0
	for _, shard := range r.shards {
		if len(shard) > shardSize {
			shardSize = len(shard)
		}
	}
	origLens := make([]int, r.meta.numFragments)

	for i := 0; i < r.meta.numFragments; i++ {
		if shard, ok := r.shards[uint16(1+i)]; ok {
			dataShards[i] = shard
		}
		origLens[i] = shardSize
	}
	for i := 0; i < r.meta.numParity; i++ {
		if shard, ok := r.shards[uint16(1+r.meta.numFragments+i)]; ok {
			parityShards[i] = shard
		}
	}

	recovered, err := r.codec.Reconstruct(dataShards, parityShards, origLens)
	if err != nil {
		return nil, fmt.Errorf("fec: reconstruct stream: %w", err)
	}

	out := make([]byte, 0, r.meta.numFragments*streamChunkSize)
	for _, shard := range recovered {
		chunk, _ := DecodeFEC(shard)
		out = append(out, chunk...)
	}

	if r.meta.payloadLen > len(out) {
		return nil, fmt.Errorf("fec: reconstructed stream shorter than declared payload length")
	}
	return out[:r.meta.payloadLen], nil
}
