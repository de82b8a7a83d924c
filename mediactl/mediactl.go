// Package mediactl describes the operating system surfaces mediamon consumes: the system-wide
// media transport controls (session discovery, per-session properties and playback commands)
// and the per-process audio session volume controls.
//
// Notifications are delivered by the backend on goroutines it owns. Handlers must not assume
// they are called from any particular goroutine, and a backend may call a handler concurrently
// with any other method on the same object.
package mediactl

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNoThumbnail    = errors.New("mediactl: session has no thumbnail")
	ErrUnknownBackend = errors.New("mediactl: unknown backend")
)

// Token identifies a registered notification handler so it can be removed later.
type Token string

// PlaybackStatus mirrors the OS playback status enumeration.
type PlaybackStatus int

const (
	StatusClosed PlaybackStatus = iota
	StatusOpened
	StatusChanging
	StatusStopped
	StatusPlaying
	StatusPaused
)

func (s PlaybackStatus) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusOpened:
		return "opened"
	case StatusChanging:
		return "changing"
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// PlaybackControls reports which transport commands the session currently accepts.
type PlaybackControls struct {
	IsPlayEnabled     bool
	IsPauseEnabled    bool
	IsNextEnabled     bool
	IsPreviousEnabled bool
}

type PlaybackInfo struct {
	Status   PlaybackStatus
	Controls PlaybackControls
}

// Ticks is the OS native duration unit. Callers treat it as opaque.
type Ticks int64

type TimelineProperties struct {
	StartTime Ticks
	EndTime   Ticks
	Position  Ticks
}

// StreamReference is a lazily opened handle to binary artwork.
type StreamReference interface {
	OpenRead(ctx context.Context) (io.ReadCloser, error)
}

type MediaProperties struct {
	Title      string
	Artist     string
	AlbumTitle string
	// Thumbnail is nil when the session has no artwork.
	Thumbnail StreamReference
}

// Backend is an OS integration that can hand out the media and audio subsystems.
type Backend interface {
	// RequestManager acquires the media transport controls manager. Failure here is fatal
	// to a monitor: nothing can be observed without it.
	RequestManager(ctx context.Context) (SessionManager, error)
	// AudioSessions returns the audio subsystem, or nil when the backend has none.
	AudioSessions() AudioSessions
}

// SessionManager enumerates media sessions and notifies when the list changes.
type SessionManager interface {
	Sessions() ([]Session, error)
	OnSessionsChanged(handler func()) (Token, error)
	RemoveSessionsChanged(token Token) error
}

// Session is one application's media transport controls.
type Session interface {
	SourceAppUserModelID() (string, error)

	// MediaProperties is asynchronous on the OS side, hence the context.
	MediaProperties(ctx context.Context) (MediaProperties, error)
	PlaybackInfo() (PlaybackInfo, error)
	TimelineProperties() (TimelineProperties, error)

	OnMediaPropertiesChanged(handler func()) (Token, error)
	RemoveMediaPropertiesChanged(token Token) error
	OnPlaybackInfoChanged(handler func()) (Token, error)
	RemovePlaybackInfoChanged(token Token) error
	OnTimelinePropertiesChanged(handler func()) (Token, error)
	RemoveTimelinePropertiesChanged(token Token) error

	// The Try* commands start an OS operation and return immediately. The channel yields
	// exactly one value (nil on success) once the operation completes.
	TryPlay() <-chan error
	TryPause() <-chan error
	TrySkipNext() <-chan error
	TrySkipPrevious() <-chan error
	TryChangePlaybackPosition(position Ticks) <-chan error
}

// AudioSessions is the per-process audio session subsystem.
type AudioSessions interface {
	Sessions() ([]AudioSession, error)
	OnSessionCreated(handler func(AudioSession)) (Token, error)
	RemoveSessionCreated(token Token) error
}

// AudioSession is a single process' audio stream with a volume control.
type AudioSession interface {
	ProcessID() (uint32, error)
	// Volume is the master volume scalar in the range 0..1.
	Volume() (float32, error)
	SetVolume(level float32) error
	OnVolumeChanged(handler func(level float32)) (Token, error)
	RemoveVolumeChanged(token Token) error
}
