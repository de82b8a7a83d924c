package sim

import (
	"sync"

	"github.com/marcus-crane/mediamon/mediactl"
)

type AudioSessions struct {
	faults

	mu       sync.Mutex
	sessions []*AudioSession
	created  handlers[func(mediactl.AudioSession)]
}

// Add registers an audio session and announces it to session-created handlers.
func (a *AudioSessions) Add(s *AudioSession) {
	a.mu.Lock()
	a.sessions = append(a.sessions, s)
	a.mu.Unlock()
	for _, h := range a.created.snapshot() {
		h(s)
	}
}

func (a *AudioSessions) HandlerCount() int {
	return a.created.len()
}

func (a *AudioSessions) Sessions() ([]mediactl.AudioSession, error) {
	if err := a.fault("Sessions"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]mediactl.AudioSession, 0, len(a.sessions))
	for _, s := range a.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (a *AudioSessions) OnSessionCreated(handler func(mediactl.AudioSession)) (mediactl.Token, error) {
	if err := a.fault("OnSessionCreated"); err != nil {
		return "", err
	}
	return a.created.add(handler), nil
}

func (a *AudioSessions) RemoveSessionCreated(token mediactl.Token) error {
	if err := a.fault("RemoveSessionCreated"); err != nil {
		return err
	}
	return a.created.remove(token)
}

// AudioSession is one process' simulated audio stream.
type AudioSession struct {
	faults

	pid uint32

	mu      sync.Mutex
	level   float32
	changed handlers[func(float32)]
}

func NewAudioSession(pid uint32, level float32) *AudioSession {
	return &AudioSession{pid: pid, level: level}
}

func (s *AudioSession) HandlerCount() int {
	return s.changed.len()
}

func (s *AudioSession) ProcessID() (uint32, error) {
	if err := s.fault("ProcessID"); err != nil {
		return 0, err
	}
	return s.pid, nil
}

func (s *AudioSession) Volume() (float32, error) {
	if err := s.fault("Volume"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level, nil
}

// SetVolume stores level and notifies volume handlers, as the OS does for any change.
func (s *AudioSession) SetVolume(level float32) error {
	if err := s.fault("SetVolume"); err != nil {
		return err
	}
	s.mu.Lock()
	s.level = level
	s.mu.Unlock()
	for _, h := range s.changed.snapshot() {
		h(level)
	}
	return nil
}

func (s *AudioSession) OnVolumeChanged(handler func(level float32)) (mediactl.Token, error) {
	if err := s.fault("OnVolumeChanged"); err != nil {
		return "", err
	}
	return s.changed.add(handler), nil
}

func (s *AudioSession) RemoveVolumeChanged(token mediactl.Token) error {
	if err := s.fault("RemoveVolumeChanged"); err != nil {
		return err
	}
	return s.changed.remove(token)
}
