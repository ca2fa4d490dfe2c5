package band

import "testing"

func TestUltrasonicPreset(t *testing.T) {
	c := Ultrasonic()
	if c.BitsPerSymbol() != 4 {
		t.Errorf("BitsPerSymbol() = %d, want 4", c.BitsPerSymbol())
	}
	freqs := c.Frequencies()
	if len(freqs) != 16 {
		t.Fatalf("len(Frequencies()) = %d, want 16", len(freqs))
	}
	if freqs[0] != 18000 || freqs[1] != 18100 {
		t.Errorf("unexpected frequencies: %v", freqs[:2])
	}
}

func TestAudiblePreset(t *testing.T) {
	c := Audible()
	if c.BitsPerSymbol() != 3 {
		t.Errorf("BitsPerSymbol() = %d, want 3", c.BitsPerSymbol())
	}
	freqs := c.Frequencies()
	if len(freqs) != 8 {
		t.Fatalf("len(Frequencies()) = %d, want 8", len(freqs))
	}
	if freqs[0] != 1000 || freqs[7] != 2400 {
		t.Errorf("unexpected frequencies: %v", freqs)
	}
}

func TestTimingDerived(t *testing.T) {
	tm := DefaultTiming()
	if got := tm.SamplesPerSymbol(); got != 441 {
		t.Errorf("SamplesPerSymbol() = %d, want 441", got)
	}
	if got := tm.GuardSamples(); got != 88 {
		t.Errorf("GuardSamples() = %d, want 88", got)
	}
	if got := tm.PreambleSamples(); got != 4410 {
		t.Errorf("PreambleSamples() = %d, want 4410", got)
	}
	if got := tm.SlotStride(); got != 441+88 {
		t.Errorf("SlotStride() = %d, want %d", got, 441+88)
	}
}
