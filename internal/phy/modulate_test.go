package phy

import (
	"testing"

	"github.com/jeongseonghan/acoustic-mesh/internal/band"
)

func TestBytesToSymbols_SymbolsToBytes_RoundTrip(t *testing.T) {
	data := []byte{0xAB, 0xCD, 0xEF}
	bitsPerSymbol := 4
	symbols := bytesToSymbols(data, bitsPerSymbol)
	if len(symbols) != 6 {
		t.Fatalf("len(symbols) = %d, want 6", len(symbols))
	}
	recovered := symbolsToBytes(symbols, bitsPerSymbol, len(data))
	for i := range data {
		if recovered[i] != data[i] {
			t.Errorf("byte %d = %#x, want %#x", i, recovered[i], data[i])
		}
	}
}

func TestBytesToSymbols_8Ary(t *testing.T) {
	data := []byte{0xFF}
	bitsPerSymbol := 3
	symbols := bytesToSymbols(data, bitsPerSymbol)
	// 8 bits / 3 bits-per-symbol = ceil(8/3) = 3 symbols
	if len(symbols) != 3 {
		t.Fatalf("len(symbols) = %d, want 3", len(symbols))
	}
	for _, s := range symbols {
		if s < 0 || s > 7 {
			t.Errorf("symbol %d out of range for 8-ary", s)
		}
	}
}

func TestModulator_Modulate_ProducesExpectedLength(t *testing.T) {
	cfg := band.Ultrasonic()
	timing := band.DefaultTiming()
	mod := NewModulator(cfg, timing)

	data := []byte{0x42}
	waveform := mod.Modulate(data)

	bitsPerSymbol := cfg.BitsPerSymbol()
	symbolCount := (len(data)*8 + bitsPerSymbol - 1) / bitsPerSymbol
	stride := timing.SamplesPerSymbol() + timing.GuardSamples()
	expected := timing.PreambleSamples() + symbolCount*stride

	if len(waveform) != expected {
		t.Errorf("len(waveform) = %d, want %d", len(waveform), expected)
	}
}

func TestModulator_Preamble_IsWindowedAtEdges(t *testing.T) {
	cfg := band.Ultrasonic()
	timing := band.DefaultTiming()
	mod := NewModulator(cfg, timing)

	preamble := mod.Preamble()
	if len(preamble) == 0 {
		t.Fatal("empty preamble")
	}
	if preamble[0] > 0.01 || preamble[len(preamble)-1] > 0.01 {
		t.Errorf("preamble edges not tapered: first=%v last=%v", preamble[0], preamble[len(preamble)-1])
	}
}
