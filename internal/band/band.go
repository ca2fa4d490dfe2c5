// Package band holds the immutable frequency and timing configuration
// shared by the physical, signal conditioning and MAC layers.
package band

import "math/bits"

// Config is the frequency-domain configuration of the acoustic channel.
// It is immutable once constructed.
type Config struct {
	BaseFreq       float64 // Hz
	FreqSpacing    float64 // Hz
	NumFrequencies int     // M, power of two (8 or 16)
	Bandwidth      float64 // Hz
}

// BitsPerSymbol returns log2(NumFrequencies).
func (c Config) BitsPerSymbol() int {
	return bits.Len(uint(c.NumFrequencies)) - 1
}

// Frequencies returns the M tone frequencies used by the FSK modulator.
func (c Config) Frequencies() []float64 {
	freqs := make([]float64, c.NumFrequencies)
	for i := range freqs {
		freqs[i] = c.BaseFreq + float64(i)*c.FreqSpacing
	}
	return freqs
}

// Ultrasonic is the ultrasonic band preset: 18kHz base, 16-FSK.
func Ultrasonic() Config {
	return Config{
		BaseFreq:       18000,
		FreqSpacing:    100,
		NumFrequencies: 16,
		Bandwidth:      1600,
	}
}

// Audible is the audible band preset: 1kHz base, 8-FSK.
func Audible() Config {
	return Config{
		BaseFreq:       1000,
		FreqSpacing:    200,
		NumFrequencies: 8,
		Bandwidth:      1600,
	}
}

// Timing is the immutable sample-rate and symbol-timing configuration.
type Timing struct {
	SampleRate       int     // Hz
	SymbolDuration   float64 // s
	GuardInterval    float64 // s
	PreambleDuration float64 // s
}

// DefaultTiming returns the timing configuration used by both band presets.
func DefaultTiming() Timing {
	return Timing{
		SampleRate:       44100,
		SymbolDuration:   0.01,
		GuardInterval:    0.002,
		PreambleDuration: 0.1,
	}
}

// SamplesPerSymbol is floor(SampleRate * SymbolDuration).
func (t Timing) SamplesPerSymbol() int {
	return int(float64(t.SampleRate) * t.SymbolDuration)
}

// GuardSamples is floor(SampleRate * GuardInterval).
func (t Timing) GuardSamples() int {
	return int(float64(t.SampleRate) * t.GuardInterval)
}

// PreambleSamples is floor(SampleRate * PreambleDuration).
func (t Timing) PreambleSamples() int {
	return int(float64(t.SampleRate) * t.PreambleDuration)
}

// SlotStride is the number of samples occupied by one symbol slot,
// including its trailing guard interval.
func (t Timing) SlotStride() int {
	return t.SamplesPerSymbol() + t.GuardSamples()
}
