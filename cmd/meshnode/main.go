package main

import (
	"flag"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"os/signal"
	"syscall"
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

// beaconInterval is how often this node announces itself to nearby peers.
const beaconInterval = 5 * time.Second

func main() {
	bandName := flag.String("band", "ultrasonic", "Band preset: ultrasonic|audible")
	deviceID := flag.String("device-id", "node-1", "This device's identifier on the mesh")
	deviceName := flag.String("device-name", "", "Human-readable name announced in beacons (defaults to device-id)")
	priority := flag.Int("priority", 5, "Default transmit priority of this node's frames (higher is dequeued first)")
	telemetryAddr := flag.String("telemetry-addr", "", "Telemetry listen address, e.g. :8090 (disabled if empty)")
	numSlots := flag.Int("slots", 16, "Number of TDMA slots per frame")
	contention := flag.Bool("contention", true, "Use contention-mode slot assignment instead of a coordinator")
	contentionSlots := flag.Int("contention-slots", 2, "Number of stable slots (k) claimed per device in contention mode")
	message := flag.String("message", "", "If set, send this message once at startup over a multi-fragment stream transfer")
	listDevices := flag.Bool("list-devices", false, "List audio devices and exit")
	flag.Parse()

	if *deviceName == "" {
		*deviceName = *deviceID
	}

	if err := audio.Init(); err != nil {
		log.Fatalf("Failed to initialize PortAudio: %v", err)
	}
	defer audio.Terminate()

	if *listDevices {
		if err := audio.PrintDevices(); err != nil {
			log.Fatalf("Failed to list devices: %v", err)
		}
		return
	}

	cfg, err := resolveBand(*bandName)
	if err != nil {
		log.Fatalf("%v", err)
	}
	timing := band.DefaultTiming()

	table := mac.NewSlotTable(*numSlots)

	var hub *telemetry.Hub
	if *telemetryAddr != "" {
		hub = telemetry.NewHub()
		srv := telemetry.NewServer(*telemetryAddr, hub)
		go func() {
			if err := srv.Start(); err != nil {
				log.Printf("telemetry server stopped: %v", err)
			}
		}()
	}

	sink, err := audio.NewDeviceSink()
	if err != nil {
		log.Fatalf("Failed to open audio output: %v", err)
	}
	defer sink.Close()

	source, err := audio.NewDeviceSource()
	if err != nil {
		log.Fatalf("Failed to open audio input: %v", err)
	}
	defer source.Close()

	modulator := phy.NewModulator(cfg, timing)

	// Shared between the transmit closure and the receive producer: the
	// transmit side records what it just played so the receive side's
	// conditioning chain can cancel this device's own acoustic feedback.
	echo := dsp.NewEchoCanceller(timing.SampleRate)

	send := func(payload []byte) (bool, error) {
		waveform := modulator.Modulate(payload)
		echo.NotifyTransmitted(waveform)
		return false, sink.Play(waveform)
	}

	slotDuration := time.Duration(timing.SymbolDuration * float64(time.Second))
	sched := mac.NewScheduler(*deviceID, *priority, slotDuration, table, send, *contention, *contentionSlots)
	sched.OnStateChange = func(state mac.SchedulerState) {
		log.Printf("meshnode: state -> %s", state)
	}
	sched.OnCollision = func(frameNumber uint64, slot int) {
		log.Printf("meshnode: collision in slot %d of frame %d", slot, frameNumber)
		if hub != nil {
			hub.BroadcastCollision(frameNumber, slot, sched.Collisions())
		}
	}

	discovery := collab.NewPeerTable()
	clock := &slotClock{}
	numericID := deriveDeviceID(*deviceID)

	prod := newProducer(*deviceID, source, echo, cfg, timing, discovery, sched, clock, hub)
	stop := make(chan struct{})
	go prod.run(stop)

	var seq uint16
	var beaconSeq uint32
	enqueueBeacon := func() {
		payload, err := collab.BeaconPayload{
			DeviceID:    numericID,
			DeviceName:  *deviceName,
			TimestampMs: time.Now().UnixMilli(),
			Sequence:    beaconSeq,
		}.Encode()
		if err != nil {
			log.Printf("meshnode: encode beacon: %v", err)
			return
		}
		beaconSeq++
		enqueueFrame(sched, fec.TypeBeacon, &seq, payload, *priority)
	}

	if *message != "" {
		sender := fec.NewStreamSender(fec.DefaultStreamParityShards)
		frames, err := sender.Build([]byte(*message))
		if err != nil {
			log.Fatalf("meshnode: build stream message: %v", err)
		}
		for _, f := range frames {
			sched.Enqueue(mac.PendingFrame{
				Payload:  f.Encode(),
				Priority: *priority,
				Enqueued: time.Now(),
				MsgType:  f.Type,
			})
		}
		fmt.Printf("meshnode: queued %d frames for message %q\n", len(frames), *message)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(slotDuration)
	defer ticker.Stop()
	beaconTicker := time.NewTicker(beaconInterval)
	defer beaconTicker.Stop()

	slot := 0
	fmt.Printf("meshnode %s running on %s band, %d slots\n", *deviceID, *bandName, *numSlots)
	for {
		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
			close(stop)
			return
		case <-beaconTicker.C:
			enqueueBeacon()
		case <-ticker.C:
			clock.set(slot)
			sched.Tick(slot)
			if hub != nil {
				hub.BroadcastSlotEvent(0, slot, *deviceID)
			}
			slot = (slot + 1) % table.NumSlots()
		}
	}
}

// enqueueFrame builds a FEC-encoded, fully wire-framed message and
// enqueues it on sched for the next matching transmit opportunity.
func enqueueFrame(sched *mac.Scheduler, msgType byte, seq *uint16, payload []byte, priority int) {
	frame, err := fec.CreateFrame(msgType, *seq, fec.EncodeFEC(payload))
	if err != nil {
		log.Printf("meshnode: create frame: %v", err)
		return
	}
	*seq++
	sched.Enqueue(mac.PendingFrame{
		Payload:  frame.Encode(),
		Priority: priority,
		Enqueued: time.Now(),
		MsgType:  msgType,
	})
}

// deriveDeviceID maps this node's human-chosen device-id string to the
// uint64 identifier carried in beacon payloads.
func deriveDeviceID(deviceID string) collab.DeviceID {
	h := fnv.New64a()
	h.Write([]byte(deviceID))
	return collab.DeviceID(h.Sum64())
}

func resolveBand(name string) (band.Config, error) {
	switch name {
	case "ultrasonic":
		return band.Ultrasonic(), nil
	case "audible":
		return band.Audible(), nil
	default:
		return band.Config{}, fmt.Errorf("meshnode: unknown band %q (want ultrasonic or audible)", name)
	}
}
