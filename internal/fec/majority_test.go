package fec

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeFEC_RoundTrip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	encoded := EncodeFEC(data)
	decoded, corrected := DecodeFEC(encoded)

	if len(decoded) != len(data) {
		t.Fatalf("len(decoded) = %d, want %d", len(decoded), len(data))
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("decoded mismatch:\n got: %v\nwant: %v", decoded, data)
	}
	if corrected != 0 {
		t.Errorf("corrected = %d, want 0 for a clean round trip", corrected)
	}
}

func TestDecodeFEC_CorrectsSingleBitFlip(t *testing.T) {
	data := []byte{0xAA, 0x55}
	encoded := EncodeFEC(data)

	// Locate one of the three replicated copies of data byte 0 and flip a
	// bit. EncodeFEC prepends a 2-byte length, so data byte 0's three
	// copies live at tripled positions 6,7,8 before interleaving; the 4
	// plain bytes triple to 12, which fill 2 rows at depth 8, and tripled
	// position p maps to encoded index (p%8)*rows + p/8.
	rows := ((lengthPrefixSize+len(data))*3 + InterleaveDepth - 1) / InterleaveDepth
	tripledPos := 3 * lengthPrefixSize // first copy of data byte 0
	encodedIdx := (tripledPos%InterleaveDepth)*rows + tripledPos/InterleaveDepth
	encoded[encodedIdx] ^= 0x01

	decoded, corrected := DecodeFEC(encoded)
	if len(decoded) != len(data) {
		t.Fatalf("len(decoded) = %d, want %d", len(decoded), len(data))
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("decoded mismatch: got %v want %v", decoded, data)
	}
	if corrected != 1 {
		t.Errorf("corrected = %d, want 1", corrected)
	}
}

func TestEncodeFEC_Empty(t *testing.T) {
	encoded := EncodeFEC(nil)
	decoded, corrected := DecodeFEC(encoded)
	if len(decoded) != 0 {
		t.Errorf("decoded length = %d, want 0", len(decoded))
	}
	if corrected != 0 {
		t.Errorf("corrected = %d, want 0", corrected)
	}
}
