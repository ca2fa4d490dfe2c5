package dsp

// EchoCancellerTaps is the adaptive filter length, sized to cover
// plausible acoustic reflection paths at typical sample rates.
const EchoCancellerTaps = 128

// echoCancellerStepSize is the LMS adaptation rate (mu).
const echoCancellerStepSize = 0.01

// EchoCanceller removes the portion of the incoming signal that
// correlates with this device's own recent transmission (acoustic
// feedback from speaker to microphone). It is an adaptive LMS filter
// whose reference input is the OUTGOING signal this device transmitted,
// not the incoming one: the outgoing signal is the known quantity being
// echoed back, so it is what the filter learns to predict and subtract.
type EchoCanceller struct {
	weights   []float64
	reference []float64 // ring buffer of recently transmitted samples
	writePos  int
}

// NewEchoCanceller creates a canceller with a ring buffer sized to hold
// one second of transmitted audio at the given sample rate.
func NewEchoCanceller(sampleRate int) *EchoCanceller {
	return &EchoCanceller{
		weights:   make([]float64, EchoCancellerTaps),
		reference: make([]float64, sampleRate),
	}
}

// NotifyTransmitted records samples this device just played out, so they
// become available as the reference signal when the corresponding echo
// arrives back through the microphone.
func (e *EchoCanceller) NotifyTransmitted(samples []float64) {
	for _, s := range samples {
		e.reference[e.writePos] = s
		e.writePos = (e.writePos + 1) % len(e.reference)
	}
}

// Process cancels estimated echo from one block of microphone input,
// adapting its filter weights against the prediction error.
func (e *EchoCanceller) Process(micInput []float64) []float64 {
	out := make([]float64, len(micInput))
	n := len(e.reference)

	for i, sample := range micInput {
		// refIdx walks the reference ring buffer backwards from the
		// current write position, most-recent sample first.
		var estimate float64
		base := (e.writePos - 1 - i + n*2) % n
		for k := 0; k < EchoCancellerTaps; k++ {
			refIdx := (base - k + n) % n
			estimate += e.weights[k] * e.reference[refIdx]
		}

		err := sample - estimate
		out[i] = err

		for k := 0; k < EchoCancellerTaps; k++ {
			refIdx := (base - k + n) % n
			e.weights[k] += echoCancellerStepSize * err * e.reference[refIdx]
		}
	}

	return out
}

// Reset clears adapted weights and the reference history.
func (e *EchoCanceller) Reset() {
	for i := range e.weights {
		e.weights[i] = 0
	}
	for i := range e.reference {
		e.reference[i] = 0
	}
	e.writePos = 0
}
