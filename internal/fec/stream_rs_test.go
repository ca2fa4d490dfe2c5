package fec

import (
	"bytes"
	"testing"
)

func TestStreamCodec_RecoversLostFragment(t *testing.T) {
	fragments := [][]byte{
		EncodeFEC([]byte("fragment-zero")),
		EncodeFEC([]byte("fragment-one-longer")),
		EncodeFEC([]byte("fragment-two")),
	}
	origLens := make([]int, len(fragments))
	for i, f := range fragments {
		origLens[i] = len(f)
	}

	codec := NewStreamCodec(2)
	parity, err := codec.EncodeShards(fragments)
	if err != nil {
		t.Fatalf("EncodeShards error: %v", err)
	}
	if len(parity) != 2 {
		t.Fatalf("len(parity) = %d, want 2", len(parity))
	}

	// Lose fragment 1 entirely.
	shardSize := len(parity[0])
	withLoss := make([][]byte, len(fragments))
	for i := range fragments {
		if i == 1 {
			withLoss[i] = nil
			continue
		}
		padded := make([]byte, shardSize)
		copy(padded, fragments[i])
		withLoss[i] = padded
	}

	recovered, err := codec.Reconstruct(withLoss, parity, origLens)
	if err != nil {
		t.Fatalf("Reconstruct error: %v", err)
	}

	if !bytes.Equal(recovered[1], fragments[1]) {
		t.Errorf("recovered fragment 1 mismatch:\n got: %v\nwant: %v", recovered[1], fragments[1])
	}
	for i := range fragments {
		if !bytes.Equal(recovered[i], fragments[i]) {
			t.Errorf("fragment %d mismatch after reconstruct", i)
		}
	}
}
