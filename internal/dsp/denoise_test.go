package dsp

import (
	"math"
	"testing"
)

func TestDenoiser_PanicsOnWrongFrameSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for wrong frame length")
		}
	}()
	d := NewDenoiser()
	d.Process(make([]float64, 10))
}

func TestDenoiser_ReducesSteadyNoiseFloor(t *testing.T) {
	d := NewDenoiser()

	frame := make([]float64, DenoiseFFTSize)
	seed := uint64(12345)
	noise := func() float64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		return (float64(seed>>40)/float64(1<<24) - 0.5) * 0.02
	}

	var lastOutRMS float64
	for round := 0; round < 20; round++ {
		for i := range frame {
			frame[i] = noise()
		}
		out := d.Process(frame)
		if round == 19 {
			var sum float64
			for _, v := range out {
				sum += v * v
			}
			lastOutRMS = math.Sqrt(sum / float64(len(out)))
		}
	}

	var inSum float64
	for _, v := range frame {
		inSum += v * v
	}
	inRMS := math.Sqrt(inSum / float64(len(frame)))

	if lastOutRMS >= inRMS {
		t.Errorf("steady noise not attenuated: in RMS %v, out RMS %v", inRMS, lastOutRMS)
	}
}

func TestDenoiser_PreservesStrongTone(t *testing.T) {
	d := NewDenoiser()
	frame := make([]float64, DenoiseFFTSize)
	for i := range frame {
		frame[i] = math.Sin(2 * math.Pi * 40 * float64(i) / float64(DenoiseFFTSize))
	}

	// Prime the noise floor on silence first.
	d.Process(make([]float64, DenoiseFFTSize))

	out := d.Process(frame)

	var outSum float64
	for _, v := range out {
		outSum += v * v
	}
	outRMS := math.Sqrt(outSum / float64(len(out)))
	if outRMS < 0.1 {
		t.Errorf("strong tone over-attenuated: out RMS %v", outRMS)
	}
}
