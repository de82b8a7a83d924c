package playback

import (
	"log/slog"
	"sync"

	"github.com/marcus-crane/mediamon/events"
	"github.com/marcus-crane/mediamon/mediactl"
)

// NoVolume is reported when no audio session is bound.
const NoVolume float32 = -1

// volumeBridge binds to the first audio session whose process name is the session's app id
// and republishes its volume changes. Once bound it never rebinds.
type volumeBridge struct {
	appID    string
	sessions mediactl.AudioSessions
	namer    mediactl.ProcessNamer
	publish  func(events.MediaEvent) bool
	log      *slog.Logger

	mu           sync.Mutex
	createdToken mediactl.Token
	bound        mediactl.AudioSession
	volumeToken  mediactl.Token
	current      float32
	closed       bool
}

func newVolumeBridge(appID string, sessions mediactl.AudioSessions, namer mediactl.ProcessNamer, publish func(events.MediaEvent) bool, log *slog.Logger) *volumeBridge {
	return &volumeBridge{
		appID:    appID,
		sessions: sessions,
		namer:    namer,
		publish:  publish,
		log:      log,
		current:  NoVolume,
	}
}

// start listens for new audio sessions and checks the ones that already exist.
func (v *volumeBridge) start() {
	if v.sessions == nil || v.namer == nil {
		return
	}
	token, err := v.sessions.OnSessionCreated(v.consider)
	if err != nil {
		v.log.Warn("Failed to watch audio sessions", slog.String("error", err.Error()))
	} else {
		v.mu.Lock()
		v.createdToken = token
		v.mu.Unlock()
	}

	existing, err := v.sessions.Sessions()
	if err != nil {
		v.log.Warn("Failed to list audio sessions", slog.String("error", err.Error()))
		return
	}
	for _, a := range existing {
		v.consider(a)
	}
}

func (v *volumeBridge) consider(a mediactl.AudioSession) {
	pid, err := a.ProcessID()
	if err != nil {
		v.log.Debug("Skipping audio session without a process id", slog.String("error", err.Error()))
		return
	}
	name, err := v.namer.ProcessName(pid)
	if err != nil {
		v.log.Debug("Skipping audio session with unknown process",
			slog.Int("pid", int(pid)),
			slog.String("error", err.Error()))
		return
	}
	if name != v.appID {
		return
	}

	v.mu.Lock()
	skip := v.closed || v.bound != nil
	v.mu.Unlock()
	if skip {
		return
	}

	// The OS may fire the volume callback on this goroutine, so v.mu is not held here.
	// Registering first means the level read below is never older than a missed callback.
	token, err := a.OnVolumeChanged(v.onVolume)
	if err != nil {
		v.log.Warn("Failed to watch audio session volume", slog.String("error", err.Error()))
		return
	}
	level, err := a.Volume()
	if err != nil {
		v.log.Warn("Failed to read audio session volume", slog.String("error", err.Error()))
		if err := a.RemoveVolumeChanged(token); err != nil {
			v.log.Warn("Failed to stop watching volume", slog.String("error", err.Error()))
		}
		return
	}

	v.mu.Lock()
	if v.closed || v.bound != nil {
		v.mu.Unlock()
		if err := a.RemoveVolumeChanged(token); err != nil {
			v.log.Warn("Failed to stop watching volume", slog.String("error", err.Error()))
		}
		return
	}
	v.bound = a
	v.volumeToken = token
	v.current = level
	v.publish(events.VolumeChanged{Level: level})
	v.mu.Unlock()
	v.log.Info("Bound audio session", slog.Int("pid", int(pid)))
}

func (v *volumeBridge) onVolume(level float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.bound == nil {
		return
	}
	v.current = level
	v.publish(events.VolumeChanged{Level: level})
}

func (v *volumeBridge) level() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bound == nil {
		return NoVolume
	}
	return v.current
}

func (v *volumeBridge) set(level float32) {
	v.mu.Lock()
	bound := v.bound
	closed := v.closed
	v.mu.Unlock()
	if bound == nil || closed {
		return
	}
	if err := bound.SetVolume(level); err != nil {
		v.log.Warn("Failed to set volume", slog.String("error", err.Error()))
	}
}

func (v *volumeBridge) close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	createdToken, bound, volumeToken := v.createdToken, v.bound, v.volumeToken
	v.mu.Unlock()

	if createdToken != "" {
		if err := v.sessions.RemoveSessionCreated(createdToken); err != nil {
			v.log.Warn("Failed to stop watching audio sessions", slog.String("error", err.Error()))
		}
	}
	if bound != nil {
		if err := bound.RemoveVolumeChanged(volumeToken); err != nil {
			v.log.Warn("Failed to stop watching volume", slog.String("error", err.Error()))
		}
	}
}
