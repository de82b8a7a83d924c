package playback

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/mediamon/events"
	"github.com/marcus-crane/mediamon/mediactl/sim"
)

const (
	spotify     = "Spotify.exe"
	waitTimeout = 2 * time.Second
)

type harness struct {
	backend *sim.Backend
	bus     *events.Bus
	sub     *events.Subscription
	manager *Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := sim.New()
	bus := events.NewBus(events.DefaultCapacity)
	sub := bus.Subscribe()
	t.Cleanup(sub.Close)

	manager, err := NewManager(context.Background(), backend, bus, Options{TargetApp: spotify})
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	return &harness{backend: backend, bus: bus, sub: sub, manager: manager}
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.manager.Start(context.Background()))
}

// drain returns everything published so far without waiting.
func (h *harness) drain() []events.MediaEvent {
	var out []events.MediaEvent
	for {
		ev, ok := h.sub.TryRecv()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

// waitFor blocks until an event satisfying match arrives. Events seen on the way are
// returned too.
func (h *harness) waitFor(t *testing.T, match func(events.MediaEvent) bool) (events.MediaEvent, []events.MediaEvent) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	var seen []events.MediaEvent
	for {
		ev, err := h.sub.Recv(ctx)
		require.NoError(t, err, "timed out waiting for event, saw %v", seen)
		if match(ev) {
			return ev, seen
		}
		seen = append(seen, ev)
	}
}

func (h *harness) waitForKind(t *testing.T, kind events.Kind) events.MediaEvent {
	t.Helper()
	ev, _ := h.waitFor(t, func(ev events.MediaEvent) bool { return ev.Kind() == kind })
	return ev
}

func lifecycle(evs []events.MediaEvent) []events.MediaEvent {
	var out []events.MediaEvent
	for _, ev := range evs {
		switch ev.(type) {
		case events.Connect, events.Disconnect:
			out = append(out, ev)
		}
	}
	return out
}

func ofKind(evs []events.MediaEvent, kind events.Kind) []events.MediaEvent {
	var out []events.MediaEvent
	for _, ev := range evs {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

func redArtwork(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 300, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
