package events

import (
	"encoding/json"
	"fmt"

	"github.com/marcus-crane/mediamon/models"
)

// Kind names an event variant. It doubles as the wire "type" field.
type Kind string

const (
	KindConnect                   Kind = "connect"
	KindDisconnect                Kind = "disconnect"
	KindMediaPropertiesChanged    Kind = "mediaPropertiesChanged"
	KindPlaybackInfoChanged       Kind = "playbackInfoChanged"
	KindTimelinePropertiesChanged Kind = "timelinePropertiesChanged"
	KindVolumeChanged             Kind = "volumeChanged"
)

// MediaEvent is the closed set of events carried by the Bus. Only the types in this
// package implement it.
type MediaEvent interface {
	Kind() Kind
	payload() any
}

type Connect struct {
	AppID string
}

type Disconnect struct {
	AppID string
}

type MediaPropertiesChanged struct {
	Data models.SessionData
}

type PlaybackInfoChanged struct {
	Data models.PlaybackData
}

type TimelinePropertiesChanged struct {
	Data models.TimelineData
}

// VolumeChanged carries the volume scalar of the attached application, 0..1.
type VolumeChanged struct {
	Level float32
}

func (Connect) Kind() Kind                   { return KindConnect }
func (Disconnect) Kind() Kind                { return KindDisconnect }
func (MediaPropertiesChanged) Kind() Kind    { return KindMediaPropertiesChanged }
func (PlaybackInfoChanged) Kind() Kind       { return KindPlaybackInfoChanged }
func (TimelinePropertiesChanged) Kind() Kind { return KindTimelinePropertiesChanged }
func (VolumeChanged) Kind() Kind             { return KindVolumeChanged }

func (e Connect) payload() any                   { return e.AppID }
func (e Disconnect) payload() any                { return e.AppID }
func (e MediaPropertiesChanged) payload() any    { return e.Data }
func (e PlaybackInfoChanged) payload() any       { return e.Data }
func (e TimelinePropertiesChanged) payload() any { return e.Data }
func (e VolumeChanged) payload() any             { return e.Level }

// Handler has one method per event variant. Adding a variant adds a method here, so every
// consumer that goes through Dispatch fails to compile until it handles the new event.
type Handler interface {
	OnConnect(appID string)
	OnDisconnect(appID string)
	OnMediaPropertiesChanged(data models.SessionData)
	OnPlaybackInfoChanged(data models.PlaybackData)
	OnTimelinePropertiesChanged(data models.TimelineData)
	OnVolumeChanged(level float32)
}

// Dispatch calls the Handler method matching the event's variant.
func Dispatch(ev MediaEvent, h Handler) {
	switch e := ev.(type) {
	case Connect:
		h.OnConnect(e.AppID)
	case Disconnect:
		h.OnDisconnect(e.AppID)
	case MediaPropertiesChanged:
		h.OnMediaPropertiesChanged(e.Data)
	case PlaybackInfoChanged:
		h.OnPlaybackInfoChanged(e.Data)
	case TimelinePropertiesChanged:
		h.OnTimelinePropertiesChanged(e.Data)
	case VolumeChanged:
		h.OnVolumeChanged(e.Level)
	default:
		panic(fmt.Sprintf("events: unhandled event %T", ev))
	}
}

type envelope struct {
	Type Kind `json:"type"`
	Data any  `json:"data"`
}

// Encode renders an event as {"type": ..., "data": ...}.
func Encode(ev MediaEvent) ([]byte, error) {
	return json.Marshal(envelope{Type: ev.Kind(), Data: ev.payload()})
}
