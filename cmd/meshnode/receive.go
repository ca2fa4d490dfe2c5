package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jeongseonghan/acoustic-mesh/internal/audio"
	"github.com/jeongseonghan/acoustic-mesh/internal/band"
	"github.com/jeongseonghan/acoustic-mesh/internal/collab"
	"github.com/jeongseonghan/acoustic-mesh/internal/dsp"
	"github.com/jeongseonghan/acoustic-mesh/internal/fec"
	"github.com/jeongseonghan/acoustic-mesh/internal/mac"
	"github.com/jeongseonghan/acoustic-mesh/internal/phy"
	"github.com/jeongseonghan/acoustic-mesh/internal/telemetry"
)

func timeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// receiveBlockSamples is the audio capture block size. It must match
// dsp.DenoiseFFTSize exactly since Denoiser.Process only accepts
// frames of that length.
const receiveBlockSamples = dsp.DenoiseFFTSize

// maxReceiveBufferSamples bounds how much conditioned audio the
// producer task keeps around waiting for a preamble, so a channel that
// never yields a valid frame doesn't grow the buffer without bound.
const maxReceiveBufferSamples = 10 * receiveBlockSamples

// slotClock publishes the TDMA slot index the main ticker loop is
// currently in, so the receive goroutine can attribute an overheard
// frame to the slot it landed in when reporting it to the scheduler.
type slotClock struct {
	mu   sync.Mutex
	slot int
}

func (c *slotClock) set(slot int) {
	c.mu.Lock()
	c.slot = slot
	c.mu.Unlock()
}

func (c *slotClock) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot
}

// producer implements spec.md's receive-side producer task: capture
// audio, condition it, demodulate symbols, parse frames, and deliver
// each decoded frame to the collaborators and MAC layer that care about
// it.
type producer struct {
	deviceID string

	source   *audio.DeviceSource
	bandpass *dsp.BandpassFilter
	denoiser *dsp.Denoiser
	echo     *dsp.EchoCanceller
	agc      *dsp.AGC
	demod    *phy.Demodulator
	timing   band.Timing
	cfg      band.Config

	discovery collab.DiscoveryCollaborator
	stream    *fec.StreamReceiver
	sched     *mac.Scheduler
	clock     *slotClock
	hub       *telemetry.Hub

	buf []float64
}

func newProducer(deviceID string, source *audio.DeviceSource, echo *dsp.EchoCanceller, cfg band.Config, timing band.Timing, discovery collab.DiscoveryCollaborator, sched *mac.Scheduler, clock *slotClock, hub *telemetry.Hub) *producer {
	return &producer{
		deviceID:  deviceID,
		source:    source,
		bandpass:  dsp.NewBandpassFilter(cfg.BaseFreq-500, cfg.BaseFreq+cfg.Bandwidth+500, timing.SampleRate, 63),
		denoiser:  dsp.NewDenoiser(),
		echo:      echo,
		agc:       dsp.NewAGC(),
		demod:     phy.NewDemodulator(cfg, timing),
		timing:    timing,
		cfg:       cfg,
		discovery: discovery,
		stream:    fec.NewStreamReceiver(),
		sched:     sched,
		clock:     clock,
		hub:       hub,
	}
}

// run captures and processes audio blocks until stop is closed.
func (p *producer) run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		samples, err := p.source.Capture(receiveBlockSamples)
		if err != nil {
			log.Printf("meshnode: capture error: %v", err)
			continue
		}

		conditioned := p.condition(samples)
		p.buf = append(p.buf, conditioned...)
		if len(p.buf) > maxReceiveBufferSamples {
			p.buf = p.buf[len(p.buf)-maxReceiveBufferSamples:]
		}

		p.tryDecode()
	}
}

// condition runs one captured block through the signal-conditioning
// chain in order: bandpass, spectral denoise, echo cancellation, AGC.
func (p *producer) condition(samples []float64) []float64 {
	filtered := p.bandpass.Apply(samples)
	denoised := p.denoiser.Process(filtered)
	cleaned := p.echo.Process(denoised)
	return p.agc.Process(cleaned)
}

// tryDecode attempts to demodulate and parse a frame out of the
// accumulated buffer, dispatches it if one is found, and trims the
// buffer past whatever was consumed or deemed unrecoverable so the
// search keeps making forward progress.
func (p *producer) tryDecode() {
	data, _, err := p.demod.Demodulate(p.buf)
	if err != nil {
		return // no preamble in the buffer yet
	}

	frame, err := fec.ParseFrame(data)
	if err != nil {
		if err == fec.ErrTruncated {
			return // wait for more samples to complete this frame
		}
		// Spurious preamble correlation or a corrupted frame: slide the
		// search window forward so the same false match isn't retried.
		p.advance(p.timing.PreambleSamples())
		return
	}

	p.deliver(frame)
	p.advance(p.sampleLenForFrame(frame))
}

// sampleLenForFrame reports how many leading samples of buf the wire
// bytes of frame occupied, so tryDecode can drop exactly that much.
func (p *producer) sampleLenForFrame(frame *fec.Frame) int {
	totalBytes := fec.HeaderSize + len(frame.Payload) + fec.CRCSize
	bitsPerSymbol := p.cfg.BitsPerSymbol()
	symbolCount := (totalBytes*8 + bitsPerSymbol - 1) / bitsPerSymbol
	stride := p.timing.SamplesPerSymbol() + p.timing.GuardSamples()
	return p.timing.PreambleSamples() + symbolCount*stride
}

func (p *producer) advance(n int) {
	if n <= 0 {
		return
	}
	if n >= len(p.buf) {
		p.buf = nil
		return
	}
	p.buf = p.buf[n:]
}

// deliver dispatches a parsed frame by message type.
func (p *producer) deliver(frame *fec.Frame) {
	slot := p.clock.get()

	switch frame.Type {
	case fec.TypeBeacon:
		decoded, _ := fec.DecodeFEC(frame.Payload)
		beacon, err := collab.DecodeBeacon(decoded)
		if err != nil {
			log.Printf("meshnode: bad beacon payload: %v", err)
			return
		}
		p.discovery.Observe(collab.PeerInfo{
			ID:       beacon.DeviceID,
			Name:     beacon.DeviceName,
			LastSeen: timeFromMillis(beacon.TimestampMs),
		})
		p.sched.NoteReceivedFrame(slot, fmt.Sprintf("%d", beacon.DeviceID))
		log.Printf("meshnode: beacon from %s (%d)", beacon.DeviceName, beacon.DeviceID)

	case fec.TypeData:
		decoded, corrected := fec.DecodeFEC(frame.Payload)
		log.Printf("meshnode: data frame seq=%d corrected=%d payload=%q", frame.Seq, corrected, decoded)

	case fec.TypeStreamStart:
		if err := p.stream.Start(frame.Payload); err != nil {
			log.Printf("meshnode: stream start error: %v", err)
		}

	case fec.TypeStreamData:
		if err := p.stream.Data(frame); err != nil {
			log.Printf("meshnode: stream data error: %v", err)
		}

	case fec.TypeStreamEnd:
		p.stream.End()
		payload, err := p.stream.Finish()
		if err != nil {
			log.Printf("meshnode: stream reconstruction failed: %v", err)
			return
		}
		log.Printf("meshnode: stream message received: %q", payload)

	default:
		log.Printf("meshnode: unhandled frame type %s", frame.TypeName())
	}

	if p.hub != nil {
		p.hub.BroadcastSlotEvent(0, slot, p.deviceID)
	}
}
