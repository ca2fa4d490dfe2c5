package audio

import (
	"fmt"

	"github.com/jeongseonghan/acoustic-mesh/internal/collab"
)

// DeviceSink plays float64 waveforms through a PortAudio output stream,
// implementing collab.AudioSink.
type DeviceSink struct {
	io *AudioIO
}

// NewDeviceSink opens and starts the default output stream.
func NewDeviceSink() (*DeviceSink, error) {
	io := NewAudioIO()
	if err := io.OpenOutput(); err != nil {
		return nil, fmt.Errorf("audio: open sink: %w", err)
	}
	if err := io.StartOutput(); err != nil {
		return nil, fmt.Errorf("audio: start sink: %w", err)
	}
	return &DeviceSink{io: io}, nil
}

// Play implements collab.AudioSink.
func (s *DeviceSink) Play(samples []float64) error {
	buf := make([]float32, len(samples))
	for i, v := range samples {
		buf[i] = float32(v)
	}
	return s.io.WriteSamples(buf)
}

// Close stops and closes the underlying stream.
func (s *DeviceSink) Close() error {
	if err := s.io.StopOutput(); err != nil {
		return err
	}
	return s.io.Close()
}

// DeviceSource captures float64 waveforms from a PortAudio input stream,
// implementing collab.AudioSource.
type DeviceSource struct {
	io *AudioIO
}

// NewDeviceSource opens and starts the default input stream.
func NewDeviceSource() (*DeviceSource, error) {
	io := NewAudioIO()
	if err := io.OpenInput(); err != nil {
		return nil, fmt.Errorf("audio: open source: %w", err)
	}
	if err := io.StartInput(); err != nil {
		return nil, fmt.Errorf("audio: start source: %w", err)
	}
	return &DeviceSource{io: io}, nil
}

// Capture implements collab.AudioSource.
func (s *DeviceSource) Capture(numSamples int) ([]float64, error) {
	buf, err := s.io.ReadSamples(numSamples)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(buf))
	for i, v := range buf {
		out[i] = float64(v)
	}
	return out, nil
}

// Close stops and closes the underlying stream.
func (s *DeviceSource) Close() error {
	if err := s.io.StopInput(); err != nil {
		return err
	}
	return s.io.Close()
}

var (
	_ collab.AudioSink   = (*DeviceSink)(nil)
	_ collab.AudioSource = (*DeviceSource)(nil)
)
