package dsp

import (
	"math"
	"testing"
)

func TestEchoCanceller_LearnsToCancelKnownEcho(t *testing.T) {
	const sampleRate = 8000
	ec := NewEchoCanceller(sampleRate)

	tx := make([]float64, 4000)
	for i := range tx {
		tx[i] = math.Sin(2 * math.Pi * 440 * float64(i) / float64(sampleRate))
	}
	ec.NotifyTransmitted(tx)

	// Simulate microphone picking up a scaled copy of what was transmitted
	// (acoustic echo), cut delay samples short, with no additional speech
	// energy.
	delay := 10
	echoGain := 0.6
	mic := make([]float64, len(tx)-delay)
	for i := range mic {
		mic[i] = echoGain * tx[i]
	}

	var firstErrEnergy, lastErrEnergy float64
	var out []float64
	for pass := 0; pass < 30; pass++ {
		out = ec.Process(mic)
		var energy float64
		for _, v := range out {
			energy += v * v
		}
		if pass == 0 {
			firstErrEnergy = energy
		}
		if pass == 29 {
			lastErrEnergy = energy
		}
	}

	if lastErrEnergy >= firstErrEnergy {
		t.Errorf("residual echo energy did not decrease: first %v, last %v", firstErrEnergy, lastErrEnergy)
	}
	_ = out
}

func TestEchoCanceller_ResetClearsState(t *testing.T) {
	ec := NewEchoCanceller(8000)
	ec.NotifyTransmitted([]float64{1, 2, 3})
	ec.Process([]float64{0.5, 0.5})
	ec.Reset()

	for _, w := range ec.weights {
		if w != 0 {
			t.Fatalf("weights not cleared after Reset")
		}
	}
	for _, r := range ec.reference {
		if r != 0 {
			t.Fatalf("reference not cleared after Reset")
		}
	}
}
