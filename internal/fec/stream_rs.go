package fec

import (
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// DefaultStreamParityShards is the default number of whole-fragment
// recovery shards generated per stream.
const DefaultStreamParityShards = 4

// StreamCodec applies an outer Reed-Solomon code across the fragments of a
// single STREAM_DATA transfer, so that whole lost fragments (not just
// bit-flips within one, which the per-frame majority-vote FEC already
// handles) can be recovered without retransmission. Each fragment's
// already-FEC-encoded bytes form one RS data shard.
type StreamCodec struct {
	parityShards int
}

// NewStreamCodec creates a stream codec generating the given number of
// parity shards per stream.
func NewStreamCodec(parityShards int) *StreamCodec {
	return &StreamCodec{parityShards: parityShards}
}

// EncodeShards takes the FEC-encoded payload of every fragment in a stream
// and returns the parity shards to transmit alongside them. Shards are
// zero-padded to the length of the largest fragment.
func (c *StreamCodec) EncodeShards(fragments [][]byte) ([][]byte, error) {
	if len(fragments) == 0 {
		return nil, nil
	}

	shardSize := 0
	for _, f := range fragments {
		if len(f) > shardSize {
			shardSize = len(f)
		}
	}

	enc, err := reedsolomon.New(len(fragments), c.parityShards)
	if err != nil {
		return nil, fmt.Errorf("fec: create stream RS encoder: %w", err)
	}

	shards := make([][]byte, len(fragments)+c.parityShards)
	for i, f := range fragments {
		s := make([]byte, shardSize)
		copy(s, f)
		shards[i] = s
	}
	for i := len(fragments); i < len(shards); i++ {
		shards[i] = make([]byte, shardSize)
	}

	if err := enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("fec: encode stream parity: %w", err)
	}

	return shards[len(fragments):], nil
}

// Reconstruct recovers missing data shards given whichever data and parity
// shards survived (nil entries mark a lost shard). origLens trims each
// recovered data shard back to its original, pre-padding length.
func (c *StreamCodec) Reconstruct(dataShards, parityShards [][]byte, origLens []int) ([][]byte, error) {
	enc, err := reedsolomon.New(len(dataShards), len(parityShards))
	if err != nil {
		return nil, fmt.Errorf("fec: create stream RS decoder: %w", err)
	}

	all := make([][]byte, 0, len(dataShards)+len(parityShards))
	all = append(all, dataShards...)
	all = append(all, parityShards...)

	if err := enc.Reconstruct(all); err != nil {
		return nil, fmt.Errorf("fec: reconstruct stream shards: %w", err)
	}

	out := make([][]byte, len(dataShards))
	for i := range dataShards {
		l := origLens[i]
		if l > len(all[i]) {
			l = len(all[i])
		}
		out[i] = all[i][:l]
	}
	return out, nil
}
