package events

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/r3labs/sse/v2"
)

// StreamName is the SSE stream every bus event is republished on.
const StreamName = "media"

// SSEBridge republishes bus events to Server-Sent Events clients.
type SSEBridge struct {
	Server *sse.Server
	sub    *Subscription
}

// NewSSEBridge subscribes straight away so nothing published before Run starts is lost.
func NewSSEBridge(bus *Bus) *SSEBridge {
	server := sse.New()
	server.AutoReplay = false
	server.CreateStream(StreamName)
	return &SSEBridge{Server: server, sub: bus.Subscribe()}
}

// Run forwards events until the context is cancelled or the bridge is closed.
func (b *SSEBridge) Run(ctx context.Context) error {
	for {
		ev, err := b.sub.Recv(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
		data, err := Encode(ev)
		if err != nil {
			metricSSEEncodeFailures.Inc()
			slog.Error("Failed to encode event for SSE",
				slog.String("type", string(ev.Kind())),
				slog.String("error", err.Error()))
			continue
		}
		b.Server.Publish(StreamName, &sse.Event{Event: []byte(ev.Kind()), Data: data})
	}
}

// ServeHTTP subscribes the client to the media stream. The stream query parameter the
// underlying server expects is filled in when absent.
func (b *SSEBridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("stream") == "" {
		r = r.Clone(r.Context())
		q := r.URL.Query()
		q.Set("stream", StreamName)
		r.URL.RawQuery = q.Encode()
	}
	b.Server.ServeHTTP(w, r)
}

func (b *SSEBridge) Close() {
	b.sub.Close()
	b.Server.Close()
}
