package dsp

import "math"

// DenoiseFFTSize is the analysis window used for spectral subtraction.
// Must be a power of two.
const DenoiseFFTSize = 512

// noiseFloorAlpha controls how fast the running per-bin noise estimate
// tracks downward during quiet periods.
const noiseFloorAlpha = 0.01

// oversubtractionFactor multiplies the estimated noise floor before
// subtraction, trading residual noise for speech distortion.
const oversubtractionFactor = 2.0

// Denoiser performs spectral-subtraction noise reduction: it tracks a
// running estimate of the per-bin noise magnitude and subtracts a
// multiple of it from every incoming frame's spectrum before
// reconstructing the time-domain signal.
type Denoiser struct {
	noiseFloor []float64
	window     []float64
	primed     bool
}

// NewDenoiser creates a denoiser operating on DenoiseFFTSize-sample frames.
func NewDenoiser() *Denoiser {
	d := &Denoiser{
		noiseFloor: make([]float64, DenoiseFFTSize),
		window:     make([]float64, DenoiseFFTSize),
	}
	for i := range d.window {
		d.window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(DenoiseFFTSize-1))
	}
	return d
}

// Process denoises one frame of exactly DenoiseFFTSize samples.
func (d *Denoiser) Process(frame []float64) []float64 {
	if len(frame) != DenoiseFFTSize {
		panic("dsp: Denoiser.Process requires a DenoiseFFTSize-length frame")
	}

	windowed := make([]complex128, DenoiseFFTSize)
	for i, s := range frame {
		windowed[i] = complex(s*d.window[i], 0)
	}

	spectrum := FFT(windowed)
	mags := make([]float64, DenoiseFFTSize)
	phases := make([]complex128, DenoiseFFTSize)
	for i, c := range spectrum {
		mag := abs(c)
		mags[i] = mag
		if mag > 0 {
			phases[i] = c / complex(mag, 0)
		} else {
			phases[i] = 1
		}
	}

	if !d.primed {
		copy(d.noiseFloor, mags)
		d.primed = true
	}

	out := make([]complex128, DenoiseFFTSize)
	for i := range mags {
		if mags[i] < d.noiseFloor[i] {
			d.noiseFloor[i] = d.noiseFloor[i]*(1-noiseFloorAlpha) + mags[i]*noiseFloorAlpha
		}
		cleaned := mags[i] - oversubtractionFactor*d.noiseFloor[i]
		if cleaned < 0 {
			cleaned = 0
		}
		out[i] = complex(cleaned, 0) * phases[i]
	}

	timeDomain := IFFT(out)
	result := make([]float64, DenoiseFFTSize)
	for i, c := range timeDomain {
		result[i] = real(c)
	}
	return result
}

func abs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
