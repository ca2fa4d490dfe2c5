package phy

import (
	"bytes"
	"math"
	"testing"

	"github.com/jeongseonghan/acoustic-mesh/internal/band"
)

func TestDemodulate_RoundTrip_Ultrasonic(t *testing.T) {
	cfg := band.Ultrasonic()
	timing := band.DefaultTiming()
	mod := NewModulator(cfg, timing)
	demod := NewDemodulator(cfg, timing)

	data := []byte("hi")
	waveform := mod.Modulate(data)

	recovered, confidence, err := demod.Demodulate(waveform)
	if err != nil {
		t.Fatalf("Demodulate error: %v", err)
	}
	if !bytes.Equal(recovered[:len(data)], data) {
		t.Errorf("recovered = %v, want %v", recovered[:len(data)], data)
	}
	if confidence <= 0 {
		t.Errorf("confidence = %v, want > 0", confidence)
	}
}

func TestDemodulate_RoundTrip_Audible(t *testing.T) {
	cfg := band.Audible()
	timing := band.DefaultTiming()
	mod := NewModulator(cfg, timing)
	demod := NewDemodulator(cfg, timing)

	data := []byte{0x00, 0xFF, 0x5A}
	waveform := mod.Modulate(data)

	recovered, _, err := demod.Demodulate(waveform)
	if err != nil {
		t.Fatalf("Demodulate error: %v", err)
	}
	if !bytes.Equal(recovered[:len(data)], data) {
		t.Errorf("recovered = %v, want %v", recovered[:len(data)], data)
	}
}

func TestDemodulate_RoundTrip_WithLeadingSilence(t *testing.T) {
	cfg := band.Ultrasonic()
	timing := band.DefaultTiming()
	mod := NewModulator(cfg, timing)
	demod := NewDemodulator(cfg, timing)

	data := []byte("sync")
	waveform := mod.Modulate(data)

	padded := make([]float64, 500+len(waveform))
	copy(padded[500:], waveform)

	recovered, _, err := demod.Demodulate(padded)
	if err != nil {
		t.Fatalf("Demodulate error: %v", err)
	}
	if !bytes.Equal(recovered[:len(data)], data) {
		t.Errorf("recovered = %v, want %v", recovered[:len(data)], data)
	}
}

func TestFindPreamble_FailsOnNoise(t *testing.T) {
	cfg := band.Ultrasonic()
	timing := band.DefaultTiming()
	demod := NewDemodulator(cfg, timing)

	noise := make([]float64, 5000)
	seed := uint64(99)
	for i := range noise {
		seed = seed*6364136223846793005 + 1
		noise[i] = (float64(seed>>40)/float64(1<<24) - 0.5) * 0.01
	}

	_, _, err := demod.FindPreamble(noise)
	if err != ErrPreambleNotFound {
		t.Errorf("err = %v, want ErrPreambleNotFound", err)
	}
}

func TestDecodeSymbol_IdentifiesCorrectFrequency(t *testing.T) {
	cfg := band.Ultrasonic()
	timing := band.DefaultTiming()
	demod := NewDemodulator(cfg, timing)

	freqs := cfg.Frequencies()
	targetSymbol := 5
	n := timing.SamplesPerSymbol()
	window := make([]float64, n)
	for i := range window {
		t := float64(i) / float64(timing.SampleRate)
		window[i] = hannWindow(i, n) * math.Sin(2*math.Pi*freqs[targetSymbol]*t)
	}

	result := demod.DecodeSymbol(window)
	if result.Symbol != targetSymbol {
		t.Errorf("Symbol = %d, want %d", result.Symbol, targetSymbol)
	}
	if result.Confidence <= 0 {
		t.Errorf("Confidence = %v, want > 0", result.Confidence)
	}
}
