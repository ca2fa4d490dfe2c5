package dsp

import (
	"math"
	"math/cmplx"
)

// dopplerFFTSize is the analysis window used to locate the carrier peak.
const dopplerFFTSize = 1024

// dopplerHistoryLen is the number of recent shift estimates averaged to
// smooth out single-frame jitter.
const dopplerHistoryLen = 10

// DopplerThresholdHz is the minimum averaged shift that is considered
// significant enough to warrant compensation.
const DopplerThresholdHz = 5.0

// DopplerDetector estimates frequency shift caused by relative motion
// between transmitter and receiver by tracking the carrier peak's bin
// position across successive analysis windows and interpolating between
// bins for sub-bin resolution.
type DopplerDetector struct {
	sampleRate int
	expectedHz float64
	history    []float64
	writePos   int
	filled     int
}

// NewDopplerDetector creates a detector watching for shift around the
// given expected carrier frequency.
func NewDopplerDetector(sampleRate int, expectedHz float64) *DopplerDetector {
	return &DopplerDetector{
		sampleRate: sampleRate,
		expectedHz: expectedHz,
		history:    make([]float64, dopplerHistoryLen),
	}
}

// Estimate analyzes one dopplerFFTSize-length frame and returns the
// current averaged shift estimate in Hz (positive means the observed
// frequency is higher than expected).
func (d *DopplerDetector) Estimate(frame []float64) float64 {
	if len(frame) != dopplerFFTSize {
		panic("dsp: DopplerDetector.Estimate requires a dopplerFFTSize-length frame")
	}

	spectrum := RealFFT(frame)
	binHz := float64(d.sampleRate) / float64(dopplerFFTSize)

	peakBin := 0
	peakMag := 0.0
	for i := 1; i < dopplerFFTSize/2; i++ {
		mag := cmplx.Abs(spectrum[i])
		if mag > peakMag {
			peakMag = mag
			peakBin = i
		}
	}

	interpolated := float64(peakBin)
	if peakBin > 0 && peakBin < dopplerFFTSize/2-1 {
		left := cmplx.Abs(spectrum[peakBin-1])
		right := cmplx.Abs(spectrum[peakBin+1])
		center := peakMag
		denom := left - 2*center + right
		if denom != 0 {
			delta := 0.5 * (left - right) / denom
			interpolated = float64(peakBin) + delta
		}
	}

	observedHz := interpolated * binHz
	shift := observedHz - d.expectedHz

	d.history[d.writePos] = shift
	d.writePos = (d.writePos + 1) % len(d.history)
	if d.filled < len(d.history) {
		d.filled++
	}

	var sum float64
	for i := 0; i < d.filled; i++ {
		sum += d.history[i]
	}
	return sum / float64(d.filled)
}

// Significant reports whether the current averaged shift exceeds the
// threshold at which compensation should be applied.
func (d *DopplerDetector) Significant(shiftHz float64) bool {
	return math.Abs(shiftHz) > DopplerThresholdHz
}

// Compensate mixes samples with a cosine at shiftHz: it multiplies them
// by a complex exponential at -shiftHz and returns the real part. For
// real input this moves each component at f to both f-shiftHz and
// f+shiftHz, each at half amplitude; it is not a single-sideband shift.
func Compensate(samples []float64, shiftHz float64, sampleRate int) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		phase := -2 * math.Pi * shiftHz * float64(i) / float64(sampleRate)
		shifted := complex(s, 0) * cmplx.Exp(complex(0, phase))
		out[i] = real(shifted)
	}
	return out
}
